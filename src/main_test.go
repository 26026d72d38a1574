package main

import (
	"bufio"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/imaging"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/session"
)

func TestSanitizeHost(t *testing.T) {
	cases := []struct{ in, want string }{
		{"My-Mac.local", "my-mac-local"},
		{"host_01", "host_01"},
		{"Lab PC #2", "lab-pc--2"},
	}
	for _, c := range cases {
		if got := sanitizeHost(c.in); got != c.want {
			t.Fatalf("sanitizeHost(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

func TestExpandHostPlaceholders(t *testing.T) {
	for _, in := range []string{"nma_{host}.jsonl", "nma_%HOST%.jsonl", "nma_$HOST.jsonl"} {
		if !hasHostPlaceholder(in) {
			t.Fatalf("expected placeholder detected in %q", in)
		}
		if got := expandHostPlaceholders(in, "lab-pc"); got != "nma_lab-pc.jsonl" {
			t.Fatalf("expand %q = %q", in, got)
		}
	}
	if hasHostPlaceholder("nma_session.jsonl") {
		t.Fatalf("plain path should not report a placeholder")
	}
}

func TestResolveOutPath(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	suggested := "Nuclear_Analysis_Publication_240315.xlsx"

	dir := t.TempDir()
	if got, want := resolveOutPath(dir, now), filepath.Join(dir, suggested); got != want {
		t.Fatalf("existing dir: got %q want %q", got, want)
	}
	if got, want := resolveOutPath("results/", now), filepath.Join("results", suggested); got != want {
		t.Fatalf("trailing slash: got %q want %q", got, want)
	}
	if got := resolveOutPath(filepath.Join(dir, "report"), now); got != filepath.Join(dir, "report.xlsx") {
		t.Fatalf("file path: got %q", got)
	}
	if got := resolveOutPath("", now); got != suggested {
		t.Fatalf("empty out: got %q", got)
	}
}

func TestAskNext(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a\n", "a"},
		{"Another\n", "a"},
		{"e\n", "e"},
		{"EXPORT\n", "e"},
		{"q\n", "q"},
		{"x\n\nexport\n", "e"}, // junk and blank re-prompt
		{"", "q"},              // EOF quits
	}
	for _, c := range cases {
		in := bufio.NewScanner(strings.NewReader(c.in))
		if got := askNext(in); got != c.want {
			t.Fatalf("askNext(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

// writeTrace drops an anchor file into dir and returns its path.
func writeTrace(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}
	return path
}

// rampImage has Pix[y][x] = x so horizontal traces read predictable profiles.
func rampImage(w, h int) *imaging.GrayMatrix {
	m := &imaging.GrayMatrix{Width: w, Height: h, Pix: make([][]float64, h)}
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			row[x] = float64(x)
		}
		m.Pix[y] = row
	}
	return m
}

func TestPromptAnchorsRetriesThenReads(t *testing.T) {
	dir := t.TempDir()
	good := writeTrace(t, dir, "trace.txt", "0 0\n5 0\n")
	script := "skip\n" + filepath.Join(dir, "missing.txt") + "\n" + good + "\n"
	in := bufio.NewScanner(strings.NewReader(script))

	anchors, ok := promptAnchors(in, 1, "nuclear membrane")
	if !ok {
		t.Fatalf("expected anchors after retries")
	}
	if len(anchors) != 2 || anchors[1].X != 5 {
		t.Fatalf("unexpected anchors: %+v", anchors)
	}
}

func TestPromptAnchorsEmptyLineCancels(t *testing.T) {
	in := bufio.NewScanner(strings.NewReader("\n"))
	if _, ok := promptAnchors(in, 1, "cytoplasm"); ok {
		t.Fatalf("empty line should cancel")
	}
}

func TestAnalyzeCellFullFlow(t *testing.T) {
	dir := t.TempDir()
	nuclear := writeTrace(t, dir, "nuclear.txt", "0 0\n5 0\n10 0\n")
	cytoplasm := writeTrace(t, dir, "cytoplasm.txt", "0 0\n10 0\n")
	img := rampImage(16, 16)
	s, err := session.New("ramp.png", 50)
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	in := bufio.NewScanner(strings.NewReader(nuclear + "\n" + cytoplasm + "\n"))
	rec := analyzeCell(in, img, s, 1)
	if rec == nil {
		t.Fatalf("expected a record")
	}
	if rec.CellNumber != 1 {
		t.Fatalf("cell number = %d", rec.CellNumber)
	}
	// Strokes 0..5 and 5..10 give top-half means 4 and 9; the whole 0..10
	// profile gives 7.5.
	if math.Abs(rec.NuclearMean-6.5) > 1e-9 {
		t.Fatalf("nuclear mean = %v want 6.5", rec.NuclearMean)
	}
	if math.Abs(rec.CytoplasmMean-7.5) > 1e-9 {
		t.Fatalf("cytoplasm mean = %v want 7.5", rec.CytoplasmMean)
	}
	if math.Abs(rec.Ratio-6.5/7.5) > 1e-9 {
		t.Fatalf("ratio = %v", rec.Ratio)
	}
	if len(s.Records) != 1 {
		t.Fatalf("session should hold the record")
	}
}

func TestAnalyzeCellCancelledAtCytoplasm(t *testing.T) {
	dir := t.TempDir()
	nuclear := writeTrace(t, dir, "nuclear.txt", "0 0\n10 0\n")
	img := rampImage(16, 16)
	s, err := session.New("ramp.png", 50)
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	in := bufio.NewScanner(strings.NewReader(nuclear + "\n\n"))
	if rec := analyzeCell(in, img, s, 1); rec != nil {
		t.Fatalf("cancelled cell should return nil, got %+v", rec)
	}
	if len(s.Records) != 0 {
		t.Fatalf("cancelled cell must not be recorded")
	}
}
