// Nuclear membrane analyzer main entrypoint.
//
// Interactive flow:
//  1. Load the grayscale microscopy image (plus the optional sidecar info text with
//     channel metadata).
//  2. Per cell: read a nuclear membrane trace file, then a cytoplasm trace file,
//     sample both polylines and compute the top-percent intensity statistics.
//  3. After each cell choose [a]nother cell, [e]xport or [q]uit; export writes the
//     publication workbook and, when requested, standalone PNG profile plots.
//
// Design notes:
// - Traces arrive as coordinate files (one "x y" anchor per line) so runs are
//   scriptable and reproducible; the point-and-click rendition lives in cmd/nmatracer.
// - Cell numbering is 1-based and zero-padded in every message, matching the
//   per-cell worksheet names.
// - When autosave is enabled every accepted cell is appended as one JSONL envelope;
//   cmd/nmareader rebuilds sessions from those files after a crash.
// - Dependency direction: main -> session for measurement and accumulation, report
//   for export only.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/imaging"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/logx"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/profile"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/report"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/session"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/settings"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/trace"
)

// sanitizeHost lowercases a hostname and replaces any char that is not
// alnum, dash or underscore with '-' so it is safe inside a filename.
func sanitizeHost(hn string) string {
	hn = strings.ToLower(hn)
	var b strings.Builder
	for _, r := range hn {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// expandHostPlaceholders substitutes {host}, %HOST% and $HOST in a path with
// the sanitized hostname. Users can keep one -session pattern across machines.
func expandHostPlaceholders(path, sanitized string) string {
	path = strings.ReplaceAll(path, "{host}", sanitized)
	path = strings.ReplaceAll(path, "%HOST%", sanitized)
	path = strings.ReplaceAll(path, "$HOST", sanitized)
	return path
}

func hasHostPlaceholder(path string) bool {
	return strings.Contains(path, "{host}") || strings.Contains(path, "%HOST%") || strings.Contains(path, "$HOST")
}

// resolveOutPath turns the -out value into a concrete workbook path. An
// existing directory (or a value with a trailing separator) gets the dated
// suggested filename; anything else is taken as a file path and forced to
// the .xlsx extension.
func resolveOutPath(out string, now time.Time) string {
	if out == "" {
		out = "."
	}
	if st, err := os.Stat(out); err == nil && st.IsDir() {
		return filepath.Join(out, report.SuggestedFilename(now))
	}
	if strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(os.PathSeparator)) {
		return filepath.Join(out, report.SuggestedFilename(now))
	}
	return report.EnsureXLSX(out)
}

// promptAnchors asks for a trace coordinate file until one parses. "skip"
// re-solicits (same as an unreadable file), an empty line or closed stdin
// cancels the cell.
func promptAnchors(in *bufio.Scanner, cell int, label string) ([]profile.Anchor, bool) {
	for {
		fmt.Printf("[cell %02d] %s trace file (empty line cancels the cell): ", cell, label)
		if !in.Scan() {
			return nil, false
		}
		answer := strings.TrimSpace(in.Text())
		if answer == "" {
			return nil, false
		}
		if strings.EqualFold(answer, "skip") {
			continue
		}
		anchors, err := trace.ReadAnchorFile(answer)
		if err != nil {
			fmt.Printf("[cell %02d] %v\n", cell, err)
			continue
		}
		return anchors, true
	}
}

// promptNuclear walks the nuclear membrane step: trace file, profile sampling,
// per-stroke statistics. Measurement failures re-solicit so a bad trace never
// loses the cell.
func promptNuclear(in *bufio.Scanner, img *imaging.GrayMatrix, pct float64, cell int) (*session.NuclearMeasurement, bool) {
	fmt.Printf("[cell %02d] NUCLEAR MEMBRANE: trace the membrane as connected strokes (anchor points mark stroke ends).\n", cell)
	for {
		anchors, ok := promptAnchors(in, cell, "nuclear membrane")
		if !ok {
			return nil, false
		}
		prof, err := img.ExtractProfile(anchors)
		if err != nil {
			fmt.Printf("[cell %02d] %v\n", cell, err)
			continue
		}
		nuc, err := session.MeasureNuclear(prof, anchors, pct)
		if err != nil {
			fmt.Printf("[cell %02d] %v\n", cell, err)
			continue
		}
		fmt.Printf("[cell %02d] nuclear profile: %d samples, %d strokes\n", cell, len(nuc.FullProfile), len(nuc.Strokes))
		return nuc, true
	}
}

// promptCytoplasm walks the cytoplasm step: one trace across the cytoplasm,
// whole-profile top-percent statistics.
func promptCytoplasm(in *bufio.Scanner, img *imaging.GrayMatrix, pct float64, cell int) (*session.CytoplasmMeasurement, bool) {
	fmt.Printf("[cell %02d] CYTOPLASM: trace a line across the cytoplasm, avoiding the nucleus.\n", cell)
	for {
		anchors, ok := promptAnchors(in, cell, "cytoplasm")
		if !ok {
			return nil, false
		}
		prof, err := img.ExtractProfile(anchors)
		if err != nil {
			fmt.Printf("[cell %02d] %v\n", cell, err)
			continue
		}
		cyto, err := session.MeasureCytoplasm(prof, pct)
		if err != nil {
			fmt.Printf("[cell %02d] %v\n", cell, err)
			continue
		}
		fmt.Printf("[cell %02d] cytoplasm profile: %d samples, %d above threshold\n", cell, len(cyto.RawProfile), len(cyto.Result.TopValues))
		return cyto, true
	}
}

// analyzeCell runs one cell through the two-trace flow and records it. A nil
// record means the cell was cancelled and the numbering does not advance.
func analyzeCell(in *bufio.Scanner, img *imaging.GrayMatrix, s *session.Session, cell int) *session.CellRecord {
	fmt.Printf("\n=== ANALYZING CELL %02d ===\n", cell)
	nuc, ok := promptNuclear(in, img, s.ThresholdPercent, cell)
	if !ok {
		return nil
	}
	cyto, ok := promptCytoplasm(in, img, s.ThresholdPercent, cell)
	if !ok {
		return nil
	}
	return s.AddCell(nuc, cyto)
}

// askNext reads the continue/export/quit choice. Unknown answers re-prompt,
// closed stdin counts as quit.
func askNext(in *bufio.Scanner) string {
	for {
		fmt.Print("\n[a]nother cell, [e]xport, [q]uit: ")
		if !in.Scan() {
			return "q"
		}
		switch strings.ToLower(strings.TrimSpace(in.Text())) {
		case "a", "another":
			return "a"
		case "e", "export":
			return "e"
		case "q", "quit":
			return "q"
		}
	}
}

func main() {
	imagePath := flag.String("image", "", "Path to the grayscale microscopy image (PNG or TIFF)")
	infoPath := flag.String("info", "", "Optional sidecar image info text file (key = value lines) for channel metadata")
	threshold := flag.Float64("threshold", 50, "Top-percent threshold (0 < pct <= 100) for intensity statistics")
	settingsPath := flag.String("settings", "", "Optional YAML settings file; flags override its values")
	outPath := flag.String("out", ".", "Output directory (or full .xlsx path) for the exported workbook")
	sessionFile := flag.String("session", "", "Autosave JSONL file, appended after every accepted cell. {host} expands to the sanitized hostname. Empty disables autosave")
	plots := flag.Bool("plots", false, "Also write per-cell profile PNG plots on export")
	plotsDir := flag.String("plots-dir", "", "Directory for profile PNGs (default: <workbook dir>/plots)")
	logLevel := flag.String("log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()

	if err := logx.SetLevelByName(*logLevel); err != nil {
		fmt.Printf("[init] %v\n", err)
		os.Exit(1)
	}

	cfg, err := settings.Load(*settingsPath)
	if err != nil {
		fmt.Printf("[init] %v\n", err)
		os.Exit(1)
	}
	seen := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	if seen["threshold"] {
		cfg.ThresholdPercent = *threshold
	}
	if seen["out"] {
		cfg.OutputDir = *outPath
	}
	if seen["plots"] {
		cfg.Plots = *plots
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("[init] %v\n", err)
		os.Exit(1)
	}

	if *imagePath == "" {
		fmt.Println("missing -image: path to the microscopy image to analyze")
		flag.Usage()
		os.Exit(1)
	}
	img, err := imaging.LoadGrayMatrix(*imagePath)
	if err != nil {
		fmt.Printf("[init] %v\n", err)
		os.Exit(1)
	}

	var fields []imaging.InfoField
	if *infoPath != "" {
		f, ferr := os.Open(*infoPath)
		if ferr != nil {
			fmt.Printf("[init] open info file: %v\n", ferr)
			os.Exit(1)
		}
		fields, ferr = imaging.ParseInfo(f)
		f.Close()
		if ferr != nil {
			fmt.Printf("[init] parse info file: %v\n", ferr)
			os.Exit(1)
		}
	}
	meta := imaging.CollectMetadata(img.Height, fields)

	s, err := session.New(filepath.Base(*imagePath), cfg.ThresholdPercent)
	if err != nil {
		fmt.Printf("[init] %v\n", err)
		os.Exit(1)
	}
	s.Metadata = meta

	// Hostname placeholder expansion for -session. Users can specify patterns
	// like nma_session_{host}.jsonl and we substitute the current machine hostname.
	sessionPath := *sessionFile
	if hn, herr := os.Hostname(); herr == nil && hn != "" && hasHostPlaceholder(sessionPath) {
		sanitized := sanitizeHost(hn)
		sessionPath = expandHostPlaceholders(sessionPath, sanitized)
		fmt.Printf("[init] expanded session path with hostname (orig=%s sanitized=%s): %s\n", hn, sanitized, sessionPath)
	}
	if sessionPath != "" {
		s.EnableAutosave(sessionPath)
	}

	fmt.Println("=== Nuclear Membrane & Cytoplasm Analysis ===")
	fmt.Printf("Image: %s (%dx%d px)\n", s.ImageName, img.Width, img.Height)
	fmt.Printf("Threshold: %g%%\n", cfg.ThresholdPercent)
	fmt.Printf("Metadata fields: %d\n", len(s.Metadata))

	in := bufio.NewScanner(os.Stdin)
	export := false
loop:
	for {
		cell := len(s.Records) + 1
		rec := analyzeCell(in, img, s, cell)
		if rec == nil {
			fmt.Printf("[cell %02d] skipped\n", cell)
		} else {
			fmt.Printf("\n*** CELL %02d COMPLETE ***\n", rec.CellNumber)
			fmt.Printf("  Nuclear membrane mean: %.3f\n", rec.NuclearMean)
			fmt.Printf("  Cytoplasm mean: %.3f\n", rec.CytoplasmMean)
			fmt.Printf("  Nucleus/Cytoplasm ratio: %.3f\n", rec.Ratio)
		}

		switch askNext(in) {
		case "a":
			continue
		case "e":
			export = true
			break loop
		default:
			break loop
		}
	}
	s.Close()

	if !export {
		fmt.Println("Analysis cancelled, nothing exported")
		return
	}
	if len(s.Records) == 0 {
		fmt.Println("[export] no cells analyzed, nothing to export")
		return
	}

	now := time.Now()
	workbook := resolveOutPath(cfg.OutputDir, now)
	if err := report.Write(s, cfg.FixedThresholds, workbook, now); err != nil {
		fmt.Printf("[export] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[export] workbook written: %s (%d cells)\n", workbook, len(s.Records))

	if cfg.Plots {
		dir := *plotsDir
		if dir == "" {
			dir = filepath.Join(filepath.Dir(workbook), "plots")
		}
		if err := report.SavePlots(dir, s); err != nil {
			fmt.Printf("[export] plots: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[export] profile plots written under %s\n", dir)
	}

	fmt.Printf("\nAnalysis complete! Total cells analyzed: %d\n", len(s.Records))
}
