package main

import (
	"image/color"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/profile"
)

var (
	workingColor = color.RGBA{R: 255, G: 215, B: 0, A: 255} // working trace, classic ROI yellow
	nuclearColor = color.RGBA{R: 0, G: 200, B: 255, A: 255} // finished membrane kept visible while tracing cytoplasm
	anchorStroke = color.RGBA{R: 20, G: 20, B: 20, A: 180}
)

// traceOverlay sits on top of the stretched image, collects tap positions as
// polyline anchors and draws the working trace. It owns no analysis state;
// everything lives on uiState.
type traceOverlay struct {
	widget.BaseWidget
	state *uiState
}

func newTraceOverlay(state *uiState) *traceOverlay {
	o := &traceOverlay{state: state}
	o.ExtendBaseWidget(o)
	return o
}

func (o *traceOverlay) Tapped(ev *fyne.PointEvent) {
	st := o.state
	if st == nil || st.img == nil {
		return
	}
	a, ok := viewToImage(ev.Position, st.img.Width, st.img.Height, o.Size())
	if !ok {
		return
	}
	st.current = append(st.current, a)
	st.updateStatus()
	o.Refresh()
}

var _ fyne.Tappable = (*traceOverlay)(nil)

func (o *traceOverlay) CreateRenderer() fyne.WidgetRenderer {
	// transparent background keeps the full area tappable
	bg := canvas.NewRectangle(color.RGBA{})
	r := &traceRenderer{o: o, bg: bg}
	r.rebuild(o.Size())
	return r
}

type traceRenderer struct {
	o    *traceOverlay
	bg   *canvas.Rectangle
	objs []fyne.CanvasObject
}

func (r *traceRenderer) Destroy() {}

func (r *traceRenderer) Layout(size fyne.Size) { r.rebuild(size) }

func (r *traceRenderer) MinSize() fyne.Size { return fyne.NewSize(10, 10) }

func (r *traceRenderer) Objects() []fyne.CanvasObject { return r.objs }

func (r *traceRenderer) Refresh() {
	r.rebuild(r.o.Size())
	canvas.Refresh(r.o)
}

// rebuild regenerates the line and anchor primitives from the overlay state.
// The finished membrane stays visible in its own color while the cytoplasm
// trace is placed.
func (r *traceRenderer) rebuild(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	r.objs = r.objs[:0]
	r.objs = append(r.objs, r.bg)
	st := r.o.state
	if st == nil || st.img == nil {
		return
	}
	r.appendTrace(st.nuclearAnchors, nuclearColor, size)
	r.appendTrace(st.current, workingColor, size)
}

func (r *traceRenderer) appendTrace(anchors []profile.Anchor, col color.Color, size fyne.Size) {
	st := r.o.state
	var prev fyne.Position
	for i, a := range anchors {
		p := imageToView(a, st.img.Width, st.img.Height, size)
		if i > 0 {
			ln := canvas.NewLine(col)
			ln.StrokeWidth = 2
			ln.Position1 = prev
			ln.Position2 = p
			r.objs = append(r.objs, ln)
		}
		dot := canvas.NewCircle(col)
		dot.StrokeColor = anchorStroke
		dot.StrokeWidth = 1
		dot.Resize(fyne.NewSize(7, 7))
		dot.Move(fyne.NewPos(p.X-3.5, p.Y-3.5))
		r.objs = append(r.objs, dot)
		prev = p
	}
}
