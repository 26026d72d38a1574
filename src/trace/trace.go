package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/profile"
)

// ReadAnchors parses polyline anchor coordinates, one "x y" pair per line.
// Comma, tab and space separators are all accepted because XY exports differ
// between hosts. Blank lines and #-comments are skipped, and a single
// non-numeric leading line is tolerated as a column header.
func ReadAnchors(r io.Reader) ([]profile.Anchor, error) {
	var anchors []profile.Anchor
	scanner := bufio.NewScanner(r)
	lineNo := 0
	dataLines := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dataLines++
		fields := strings.FieldsFunc(line, func(c rune) bool {
			return c == ',' || c == '\t' || c == ' ' || c == ';'
		})
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected x and y, got %q", lineNo, line)
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errY != nil {
			if dataLines == 1 && len(anchors) == 0 {
				// Column header line.
				continue
			}
			if errX != nil {
				return nil, fmt.Errorf("invalid x coordinate at line %d: %w", lineNo, errX)
			}
			return nil, fmt.Errorf("invalid y coordinate at line %d: %w", lineNo, errY)
		}
		anchors = append(anchors, profile.Anchor{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(anchors) == 0 {
		return nil, fmt.Errorf("no coordinate pairs found")
	}
	return anchors, nil
}

// ReadAnchorFile reads anchors from a coordinates file.
func ReadAnchorFile(path string) ([]profile.Anchor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()
	anchors, err := ReadAnchors(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return anchors, nil
}

// WriteAnchors writes anchors tab-separated, one pair per line, the format
// ReadAnchors accepts back.
func WriteAnchors(w io.Writer, anchors []profile.Anchor) error {
	for _, a := range anchors {
		if _, err := fmt.Fprintf(w, "%g\t%g\n", a.X, a.Y); err != nil {
			return err
		}
	}
	return nil
}

// WriteAnchorFile writes anchors to path, creating or truncating it.
func WriteAnchorFile(path string, anchors []profile.Anchor) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	if err := WriteAnchors(f, anchors); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
