// nmareader rebuilds analysis sessions from autosave JSONL files: list the
// sessions in a file, print one session's per-cell numbers and summary, or
// re-export a crashed run as the publication workbook.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/report"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/session"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/settings"
)

func main() {
	var file string
	var sessionID string
	var xlsx string
	var list bool
	flag.StringVar(&file, "file", "nma_session.jsonl", "Path to the autosave JSONL file")
	flag.StringVar(&sessionID, "session", "", "Session id to rebuild (default: latest in the file)")
	flag.StringVar(&xlsx, "xlsx", "", "Re-export the rebuilt session as a workbook at this path")
	flag.BoolVar(&list, "list", false, "List sessions in the file and exit")
	flag.Parse()

	envs, err := session.LoadEnvelopes(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if list {
		type info struct {
			image string
			pct   float64
			cells int
			last  string
		}
		var order []string
		byID := map[string]*info{}
		for _, e := range envs {
			i, ok := byID[e.Meta.SessionID]
			if !ok {
				i = &info{image: e.Meta.ImageName, pct: e.Meta.ThresholdPercent}
				byID[e.Meta.SessionID] = i
				order = append(order, e.Meta.SessionID)
			}
			i.cells++
			i.last = e.Meta.TimestampUTC
		}
		fmt.Printf("Total sessions: %d (%d cells)\n", len(order), len(envs))
		for _, id := range order {
			i := byID[id]
			fmt.Printf("%s  image=%s threshold=%g%% cells=%d last=%s\n", id, i.image, i.pct, i.cells, i.last)
		}
		return
	}

	s, err := session.Rebuild(envs, sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session: %s\n", s.ID)
	fmt.Printf("Image: %s\n", s.ImageName)
	fmt.Printf("Threshold: %g%%\n", s.ThresholdPercent)
	fmt.Printf("Cells: %d\n", len(s.Records))
	for _, rec := range s.Records {
		strokes := 0
		if rec.Nuclear != nil {
			strokes = len(rec.Nuclear.Strokes)
		}
		fmt.Printf("  cell %02d: nuclear=%.3f cytoplasm=%.3f ratio=%.3f strokes=%d\n",
			rec.CellNumber, rec.NuclearMean, rec.CytoplasmMean, rec.Ratio, strokes)
	}
	if len(s.Records) > 0 {
		nuc := session.Summarize(s.NuclearMeans())
		cyto := session.Summarize(s.CytoplasmMeans())
		ratio := session.Summarize(s.Ratios())
		fmt.Printf("Nuclear mean: %.3f +/- %.3f (n=%d)\n", nuc.Mean, nuc.SE, nuc.N)
		fmt.Printf("Cytoplasm mean: %.3f +/- %.3f (n=%d)\n", cyto.Mean, cyto.SE, cyto.N)
		fmt.Printf("Ratio: %.3f +/- %.3f (n=%d)\n", ratio.Mean, ratio.SE, ratio.N)
	}

	if xlsx != "" {
		path := report.EnsureXLSX(xlsx)
		if err := report.Write(s, settings.Default().FixedThresholds, path, time.Now()); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Workbook written: %s\n", path)
	}
}
