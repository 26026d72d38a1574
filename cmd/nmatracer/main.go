// Nuclear membrane tracer GUI.
//
// Point-and-click rendition of the terminal flow in src/main.go:
//  1. Open a microscopy image (flag or file dialog); it is shown
//     percentile-stretched for visibility.
//  2. Tap along the nuclear membrane and Finish Nuclear Trace, then tap across
//     the cytoplasm and Finish Cytoplasm Trace; each finished pair records one
//     cell.
//  3. Export writes the same publication workbook as the CLI.
//
// Design notes:
// - All measurement math lives in the src packages; the GUI only maps taps to
//   image pixel coordinates and feeds anchor lists through the session.
// - Statistics always read the raw intensity matrix, never the stretched
//   display image.
// - The threshold entry locks once the first trace is measured so every cell
//   in a session shares one threshold.
// - Save Trace writes the working anchors as a coordinate file the CLI can
//   replay.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/imaging"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/profile"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/report"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/session"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/settings"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/trace"
)

const (
	phaseNuclear   = "nuclear"
	phaseCytoplasm = "cytoplasm"
)

type uiState struct {
	app    fyne.App
	window fyne.Window

	cfg         settings.Settings
	sessionFile string

	imagePath  string
	img        *imaging.GrayMatrix
	infoFields []imaging.InfoField

	sess *session.Session

	phase          string // phaseNuclear or phaseCytoplasm
	current        []profile.Anchor
	nuclear        *session.NuclearMeasurement
	nuclearAnchors []profile.Anchor

	// widgets
	imgCanvas  *canvas.Image
	overlay    *traceOverlay
	status     *widget.Label
	thresholdE *widget.Entry
}

// parseThreshold validates the threshold entry the way the original settings
// dialog did: a number between 1 and 100 percent.
func parseThreshold(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("threshold %q is not a number", strings.TrimSpace(text))
	}
	if v < 1 || v > 100 {
		return 0, fmt.Errorf("threshold must be between 1%% and 100%%")
	}
	return v, nil
}

// stepStatus is the per-step instruction line shown under the image.
func stepStatus(phase string, cell, anchors int) string {
	switch phase {
	case phaseCytoplasm:
		return fmt.Sprintf("CYTOPLASM - Cell %02d: tap a line across the cytoplasm, avoid the nucleus (%d anchors)", cell, anchors)
	default:
		return fmt.Sprintf("NUCLEAR MEMBRANE - Cell %02d: tap anchors along the membrane, strokes meet at anchors (%d anchors)", cell, anchors)
	}
}

func (st *uiState) cellNumber() int {
	if st.sess == nil {
		return 1
	}
	return len(st.sess.Records) + 1
}

func (st *uiState) updateStatus() {
	if st.status == nil {
		return
	}
	if st.img == nil {
		st.status.SetText("Open an image to start tracing")
		return
	}
	st.status.SetText(stepStatus(st.phase, st.cellNumber(), len(st.current)))
}

// ensureSession creates the session on the first measured trace, locking the
// threshold entry for the rest of the run.
func (st *uiState) ensureSession() error {
	if st.sess != nil {
		return nil
	}
	pct, err := parseThreshold(st.thresholdE.Text)
	if err != nil {
		return err
	}
	s, err := session.New(filepath.Base(st.imagePath), pct)
	if err != nil {
		return err
	}
	s.Metadata = imaging.CollectMetadata(st.img.Height, st.infoFields)
	if st.sessionFile != "" {
		s.EnableAutosave(st.sessionFile)
	}
	st.sess = s
	st.thresholdE.Disable()
	return nil
}

func (st *uiState) loadImage(path string) {
	if st.sess != nil && len(st.sess.Records) > 0 {
		dialog.ShowInformation("Open Image", "Export or discard the current session before opening a new image.", st.window)
		return
	}
	img, err := imaging.LoadGrayMatrix(path)
	if err != nil {
		dialog.ShowError(err, st.window)
		return
	}
	if st.sess != nil {
		st.sess.Close()
		st.sess = nil
		st.thresholdE.Enable()
	}
	st.imagePath = path
	st.img = img
	st.current = nil
	st.nuclear = nil
	st.nuclearAnchors = nil
	st.phase = phaseNuclear
	st.imgCanvas.Image = img.Stretch(st.cfg.DisplayLowPercentile, st.cfg.DisplayHighPercentile)
	st.imgCanvas.Refresh()
	st.window.SetTitle(fmt.Sprintf("Nuclear Membrane Tracer - %s (%dx%d px)", filepath.Base(path), img.Width, img.Height))
	st.updateStatus()
	st.overlay.Refresh()
}

func (st *uiState) openImage() {
	fo := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		st.loadImage(path)
	}, st.window)
	fo.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".tif", ".tiff"}))
	fo.Show()
}

func (st *uiState) undoPoint() {
	if len(st.current) == 0 {
		return
	}
	st.current = st.current[:len(st.current)-1]
	st.updateStatus()
	st.overlay.Refresh()
}

func (st *uiState) finishNuclear() {
	if st.img == nil {
		dialog.ShowInformation("Trace", "Open an image first.", st.window)
		return
	}
	if st.phase != phaseNuclear {
		dialog.ShowInformation("Trace", "Nuclear membrane already traced; finish the cytoplasm or press Next Cell.", st.window)
		return
	}
	if len(st.current) < 2 {
		dialog.ShowInformation("Trace", "Place at least two anchor points along the membrane first.", st.window)
		return
	}
	if err := st.ensureSession(); err != nil {
		dialog.ShowError(err, st.window)
		return
	}
	prof, err := st.img.ExtractProfile(st.current)
	if err != nil {
		dialog.ShowError(err, st.window)
		return
	}
	nuc, err := session.MeasureNuclear(prof, st.current, st.sess.ThresholdPercent)
	if err != nil {
		dialog.ShowError(err, st.window)
		return
	}
	st.nuclear = nuc
	st.nuclearAnchors = append([]profile.Anchor(nil), st.current...)
	st.current = nil
	st.phase = phaseCytoplasm
	st.updateStatus()
	st.overlay.Refresh()
}

func (st *uiState) finishCytoplasm() {
	if st.phase != phaseCytoplasm || st.nuclear == nil {
		dialog.ShowInformation("Trace", "Finish the nuclear membrane trace first.", st.window)
		return
	}
	if len(st.current) < 2 {
		dialog.ShowInformation("Trace", "Place at least two anchor points across the cytoplasm first.", st.window)
		return
	}
	prof, err := st.img.ExtractProfile(st.current)
	if err != nil {
		dialog.ShowError(err, st.window)
		return
	}
	cyto, err := session.MeasureCytoplasm(prof, st.sess.ThresholdPercent)
	if err != nil {
		dialog.ShowError(err, st.window)
		return
	}
	rec := st.sess.AddCell(st.nuclear, cyto)
	dialog.ShowInformation(fmt.Sprintf("Cell %02d complete", rec.CellNumber),
		fmt.Sprintf("Nuclear membrane mean: %.3f\nCytoplasm mean: %.3f\nNucleus/Cytoplasm ratio: %.3f",
			rec.NuclearMean, rec.CytoplasmMean, rec.Ratio), st.window)
	st.current = nil
	st.nuclear = nil
	st.nuclearAnchors = nil
	st.phase = phaseNuclear
	st.updateStatus()
	st.overlay.Refresh()
}

// nextCell discards the working traces and restarts the current cell.
func (st *uiState) nextCell() {
	st.current = nil
	st.nuclear = nil
	st.nuclearAnchors = nil
	st.phase = phaseNuclear
	st.updateStatus()
	st.overlay.Refresh()
}

// saveTrace writes the working anchors as a coordinate file (one "x y" line
// per anchor) so a run can be replayed through the CLI.
func (st *uiState) saveTrace() {
	if len(st.current) == 0 {
		dialog.ShowInformation("Save Trace", "No anchor points placed yet.", st.window)
		return
	}
	anchors := append([]profile.Anchor(nil), st.current...)
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if werr := trace.WriteAnchors(wc, anchors); werr != nil {
			dialog.ShowError(werr, st.window)
		}
	}, st.window)
	fs.SetFileName(fmt.Sprintf("cell_%02d_%s_trace.txt", st.cellNumber(), st.phase))
	fs.Show()
}

func (st *uiState) exportWorkbook() {
	if st.sess == nil || len(st.sess.Records) == 0 {
		dialog.ShowInformation("Export", "No cells recorded yet.", st.window)
		return
	}
	now := time.Now()
	wb, err := report.BuildWorkbook(st.sess, st.cfg.FixedThresholds, now)
	if err != nil {
		dialog.ShowError(err, st.window)
		return
	}
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if werr := wb.Write(wc); werr != nil {
			dialog.ShowError(werr, st.window)
			return
		}
		dialog.ShowInformation("Export",
			fmt.Sprintf("Workbook saved: %s (%d cells)", wc.URI().Path(), len(st.sess.Records)), st.window)
	}, st.window)
	fs.SetFileName(report.SuggestedFilename(now))
	fs.Show()
}

func main() {
	imageFlag := flag.String("image", "", "Microscopy image to open on startup (PNG or TIFF)")
	infoFlag := flag.String("info", "", "Optional sidecar image info text file for channel metadata")
	settingsFlag := flag.String("settings", "", "Optional YAML settings file (threshold, display stretch)")
	sessionFlag := flag.String("session", "", "Autosave JSONL file, appended after every recorded cell")
	flag.Parse()

	cfg, err := settings.Load(*settingsFlag)
	if err != nil {
		fmt.Printf("[init] %v\n", err)
		os.Exit(1)
	}

	a := app.NewWithID("com.nma.tracer")
	w := a.NewWindow("Nuclear Membrane Tracer")
	w.Resize(fyne.NewSize(1100, 800))

	state := &uiState{
		app:         a,
		window:      w,
		cfg:         cfg,
		sessionFile: *sessionFlag,
		phase:       phaseNuclear,
	}

	if *infoFlag != "" {
		f, ferr := os.Open(*infoFlag)
		if ferr != nil {
			fmt.Printf("[init] open info file: %v\n", ferr)
			os.Exit(1)
		}
		state.infoFields, ferr = imaging.ParseInfo(f)
		f.Close()
		if ferr != nil {
			fmt.Printf("[init] parse info file: %v\n", ferr)
			os.Exit(1)
		}
	}

	state.imgCanvas = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 100, 60)))
	state.imgCanvas.FillMode = canvas.ImageFillContain
	state.overlay = newTraceOverlay(state)
	state.status = widget.NewLabel("Open an image to start tracing")
	state.thresholdE = widget.NewEntry()
	state.thresholdE.SetText(strconv.FormatFloat(cfg.ThresholdPercent, 'f', -1, 64))

	top := container.NewHBox(
		widget.NewButton("Open Image…", state.openImage),
		widget.NewLabel("Threshold %:"),
		state.thresholdE,
		widget.NewButton("Undo Point", state.undoPoint),
		widget.NewButton("Finish Nuclear Trace", state.finishNuclear),
		widget.NewButton("Finish Cytoplasm Trace", state.finishCytoplasm),
		widget.NewButton("Next Cell", state.nextCell),
		widget.NewButton("Save Trace…", state.saveTrace),
		widget.NewButton("Export…", state.exportWorkbook),
	)
	content := container.NewBorder(top, state.status, nil, nil,
		container.NewStack(state.imgCanvas, state.overlay))
	w.SetContent(content)

	if *imageFlag != "" {
		state.loadImage(*imageFlag)
	}
	w.ShowAndRun()

	if state.sess != nil {
		state.sess.Close()
	}
}
