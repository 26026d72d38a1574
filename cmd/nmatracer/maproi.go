package main

import (
	fyne "fyne.io/fyne/v2"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/profile"
)

// containRect returns the rectangle an imgW x imgH image occupies inside a
// viewW x viewH area under canvas.ImageFillContain: centered, aspect kept,
// one uniform scale factor.
func containRect(imgW, imgH, viewW, viewH float32) (drawX, drawY, drawW, drawH, scale float32) {
	if imgW <= 0 || imgH <= 0 || viewW <= 0 || viewH <= 0 {
		return 0, 0, 0, 0, 1
	}
	sx := viewW / imgW
	sy := viewH / imgH
	scale = sx
	if sy < sx {
		scale = sy
	}
	drawW = imgW * scale
	drawH = imgH * scale
	drawX = (viewW - drawW) / 2
	drawY = (viewH - drawH) / 2
	return drawX, drawY, drawW, drawH, scale
}

// viewToImage maps a tap position inside the overlay onto image pixel
// coordinates. ok is false when the tap lands in the letterbox margins
// around the drawn image.
func viewToImage(pos fyne.Position, imgW, imgH int, view fyne.Size) (profile.Anchor, bool) {
	drawX, drawY, drawW, drawH, scale := containRect(float32(imgW), float32(imgH), view.Width, view.Height)
	if drawW <= 0 || drawH <= 0 {
		return profile.Anchor{}, false
	}
	if pos.X < drawX || pos.X > drawX+drawW || pos.Y < drawY || pos.Y > drawY+drawH {
		return profile.Anchor{}, false
	}
	a := profile.Anchor{
		X: float64((pos.X - drawX) / scale),
		Y: float64((pos.Y - drawY) / scale),
	}
	// Taps on the far edge resolve to the last pixel.
	if a.X >= float64(imgW) {
		a.X = float64(imgW) - 1
	}
	if a.Y >= float64(imgH) {
		a.Y = float64(imgH) - 1
	}
	return a, true
}

// imageToView maps an image pixel coordinate back onto the overlay, for
// drawing anchors and strokes over the letterboxed image.
func imageToView(a profile.Anchor, imgW, imgH int, view fyne.Size) fyne.Position {
	drawX, drawY, _, _, scale := containRect(float32(imgW), float32(imgH), view.Width, view.Height)
	return fyne.NewPos(drawX+float32(a.X)*scale, drawY+float32(a.Y)*scale)
}
