package imaging

import (
	"fmt"
	"image"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"

	// Registered decoders: microscopy exports arrive as 8/16-bit grayscale
	// TIFF or PNG.
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/profile"
)

// GrayMatrix holds raw image intensities addressed as Pix[y][x]. Gray8
// sources keep their 0..255 values, Gray16 sources 0..65535; anything else is
// converted through 16-bit luma. Fluorescence statistics stay in these raw
// arbitrary units, never display-normalized ones.
type GrayMatrix struct {
	Pix    [][]float64
	Width  int
	Height int
}

// LoadGrayMatrix decodes the image file at path into a GrayMatrix.
func LoadGrayMatrix(path string) (*GrayMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return MatrixFromImage(img), nil
}

// MatrixFromImage extracts raw intensities from a decoded image.
func MatrixFromImage(img image.Image) *GrayMatrix {
	b := img.Bounds()
	m := &GrayMatrix{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    make([][]float64, b.Dy()),
	}
	for y := 0; y < m.Height; y++ {
		row := make([]float64, m.Width)
		for x := 0; x < m.Width; x++ {
			switch src := img.(type) {
			case *image.Gray:
				row[x] = float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			case *image.Gray16:
				row[x] = float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			default:
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				// Same luma weights as the stdlib gray model.
				row[x] = math.Round(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl))
			}
		}
		m.Pix[y] = row
	}
	return m
}

// At returns the intensity at (x, y), clamping out-of-range coordinates to
// the nearest edge pixel.
func (m *GrayMatrix) At(x, y int) float64 {
	if x < 0 {
		x = 0
	}
	if x >= m.Width {
		x = m.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= m.Height {
		y = m.Height - 1
	}
	return m.Pix[y][x]
}

// ExtractProfile samples intensities along the polyline at one pixel step,
// nearest-pixel lookup, one value per step including both endpoints. This is
// the profile the threshold statistics consume.
func (m *GrayMatrix) ExtractProfile(anchors []profile.Anchor) ([]float64, error) {
	points, err := profile.SamplePoints(anchors, 1)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = m.At(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	return values, nil
}

// Stretch maps intensities to an 8-bit display image with a percentile
// contrast stretch: everything at or below the lowPct percentile goes black,
// everything at or above the highPct percentile goes white. Display only;
// analysis always reads the raw matrix.
func (m *GrayMatrix) Stretch(lowPct, highPct float64) *image.Gray {
	flat := make([]float64, 0, m.Width*m.Height)
	for _, row := range m.Pix {
		flat = append(flat, row...)
	}
	sort.Float64s(flat)
	lo := stat.Quantile(lowPct/100, stat.Empirical, flat, nil)
	hi := stat.Quantile(highPct/100, stat.Empirical, flat, nil)
	if hi <= lo {
		hi = lo + 1
	}
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	scale := 255.0 / (hi - lo)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := (m.Pix[y][x] - lo) * scale
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			out.Pix[y*out.Stride+x] = uint8(v)
		}
	}
	return out
}
