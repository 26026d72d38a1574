package main

import (
	"math"
	"testing"

	fyne "fyne.io/fyne/v2"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/profile"
)

func TestContainRectLetterbox(t *testing.T) {
	cases := []struct {
		name                    string
		imgW, imgH              float32
		viewW, viewH            float32
		wantX, wantY, wantScale float32
	}{
		{"wide view pads left and right", 100, 100, 300, 100, 100, 0, 1},
		{"tall view pads top and bottom", 100, 100, 100, 300, 0, 100, 1},
		{"upscale to fit", 50, 50, 200, 100, 50, 0, 2},
		{"downscale to fit", 400, 200, 100, 100, 0, 25, 0.25},
	}
	for _, c := range cases {
		x, y, _, _, scale := containRect(c.imgW, c.imgH, c.viewW, c.viewH)
		if x != c.wantX || y != c.wantY || scale != c.wantScale {
			t.Fatalf("%s: got x=%v y=%v scale=%v want x=%v y=%v scale=%v",
				c.name, x, y, scale, c.wantX, c.wantY, c.wantScale)
		}
	}
}

func TestViewToImageRoundTrip(t *testing.T) {
	view := fyne.NewSize(300, 100) // 100x100 image drawn at offset (100, 0), scale 1
	a, ok := viewToImage(fyne.NewPos(150, 40), 100, 100, view)
	if !ok {
		t.Fatalf("tap inside the drawn image should map")
	}
	if math.Abs(a.X-50) > 1e-4 || math.Abs(a.Y-40) > 1e-4 {
		t.Fatalf("mapped anchor = %+v want (50, 40)", a)
	}

	back := imageToView(a, 100, 100, view)
	if math.Abs(float64(back.X-150)) > 1e-3 || math.Abs(float64(back.Y-40)) > 1e-3 {
		t.Fatalf("round trip position = %+v want (150, 40)", back)
	}
}

func TestViewToImageRejectsMargins(t *testing.T) {
	view := fyne.NewSize(300, 100)
	for _, pos := range []fyne.Position{
		fyne.NewPos(50, 50),  // left letterbox
		fyne.NewPos(250, 50), // right letterbox
	} {
		if _, ok := viewToImage(pos, 100, 100, view); ok {
			t.Fatalf("tap at %+v is outside the drawn image and should not map", pos)
		}
	}
}

func TestViewToImageScalesTaps(t *testing.T) {
	// 50x50 image in a 100x100 view draws at scale 2 with no margins.
	a, ok := viewToImage(fyne.NewPos(60, 30), 50, 50, fyne.NewSize(100, 100))
	if !ok {
		t.Fatalf("tap should map")
	}
	if math.Abs(a.X-30) > 1e-4 || math.Abs(a.Y-15) > 1e-4 {
		t.Fatalf("mapped anchor = %+v want (30, 15)", a)
	}

	// Far corner clamps to the last pixel.
	a, ok = viewToImage(fyne.NewPos(100, 100), 50, 50, fyne.NewSize(100, 100))
	if !ok {
		t.Fatalf("far corner tap should map")
	}
	if a.X != 49 || a.Y != 49 {
		t.Fatalf("far corner anchor = %+v want (49, 49)", a)
	}
}

func TestImageToViewCenters(t *testing.T) {
	// 400x200 image in a 100x100 view: scale 0.25, drawn at y offset 25.
	got := imageToView(profile.Anchor{X: 200, Y: 100}, 400, 200, fyne.NewSize(100, 100))
	if math.Abs(float64(got.X-50)) > 1e-3 || math.Abs(float64(got.Y-50)) > 1e-3 {
		t.Fatalf("center maps to %+v want (50, 50)", got)
	}
}
