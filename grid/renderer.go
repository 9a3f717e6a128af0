package grid

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RasterRenderer rasterizes a render-ready feature collection into a PNG
// preview: polygons scanline-filled with their fill colors over a light
// background, plus a small legend.
type RasterRenderer struct {
	Collection *RenderCollection
	Width      int         // Output width in pixels; height follows the aspect ratio
	Padding    int         // Padding around the drawing, in pixels
	Background color.RGBA  // Canvas background
	ShowLegend bool
}

// NewRasterRenderer creates a renderer with default settings.
func NewRasterRenderer(rc *RenderCollection) *RasterRenderer {
	return &RasterRenderer{
		Collection: rc,
		Width:      1200,
		Padding:    30,
		Background: color.RGBA{245, 245, 245, 255},
		ShowLegend: true,
	}
}

// bounds returns the lon/lat extent of all rings.
func (r *RasterRenderer) bounds() (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64

	for _, f := range r.Collection.Features {
		for _, ring := range f.Coordinates {
			for _, p := range ring {
				if p[0] < minX {
					minX = p[0]
				}
				if p[1] < minY {
					minY = p[1]
				}
				if p[0] > maxX {
					maxX = p[0]
				}
				if p[1] > maxY {
					maxY = p[1]
				}
			}
		}
	}
	return minX, minY, maxX, maxY, maxX >= minX && maxY >= minY
}

// Render creates the preview image.
func (r *RasterRenderer) Render() *image.RGBA {
	minX, minY, maxX, maxY, ok := r.bounds()
	if !ok {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, r.Background)
		return img
	}

	spanX, spanY := maxX-minX, maxY-minY
	if spanX == 0 {
		spanX = 1e-9
	}
	if spanY == 0 {
		spanY = 1e-9
	}
	drawWidth := r.Width - 2*r.Padding
	scale := float64(drawWidth) / spanX
	height := int(spanY*scale) + 2*r.Padding
	if height <= 0 {
		height = 2*r.Padding + 1
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < r.Width; x++ {
			img.Set(x, y, r.Background)
		}
	}

	// Latitude grows north; image rows grow down.
	toPixel := func(p [2]float64) (float64, float64) {
		px := (p[0]-minX)*scale + float64(r.Padding)
		py := (maxY-p[1])*scale + float64(r.Padding)
		return px, py
	}

	for _, f := range r.Collection.Features {
		fill := color.NRGBA{f.FillColor[0], f.FillColor[1], f.FillColor[2], f.FillColor[3]}
		for _, ring := range f.Coordinates {
			fillRing(img, ring, toPixel, fill)
		}
	}

	if r.ShowLegend {
		r.drawLegend(img)
	}
	return img
}

// SavePNG renders and writes the image to a file.
func (r *RasterRenderer) SavePNG(path string) error {
	img := r.Render()
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// fillRing scanline-fills a closed ring in pixel space, alpha-blending the
// fill over whatever is already on the image.
func fillRing(img *image.RGBA, ring [][2]float64, toPixel func([2]float64) (float64, float64), fill color.NRGBA) {
	if len(ring) < 4 {
		return
	}

	pts := make([][2]float64, len(ring))
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for i, p := range ring {
		x, y := toPixel(p)
		pts[i] = [2]float64{x, y}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	bounds := img.Bounds()
	yStart := int(math.Max(math.Floor(minY), float64(bounds.Min.Y)))
	yEnd := int(math.Min(math.Ceil(maxY), float64(bounds.Max.Y-1)))

	for y := yStart; y <= yEnd; y++ {
		// Sample at the pixel row center to avoid vertex-on-scanline double counts.
		sy := float64(y) + 0.5
		var xs []float64
		for i := 0; i+1 < len(pts); i++ {
			p1, p2 := pts[i], pts[i+1]
			if (p1[1] > sy) == (p2[1] > sy) {
				continue
			}
			xs = append(xs, p1[0]+(sy-p1[1])*(p2[0]-p1[0])/(p2[1]-p1[1]))
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Max(math.Ceil(xs[i]-0.5), float64(bounds.Min.X)))
			x1 := int(math.Min(math.Floor(xs[i+1]-0.5), float64(bounds.Max.X-1)))
			for x := x0; x <= x1; x++ {
				img.SetRGBA(x, y, blendColor(img.RGBAAt(x, y), fill))
			}
		}
	}
}

// blendColor alpha-blends a straight-alpha fill over an opaque background.
func blendColor(bg color.RGBA, fg color.NRGBA) color.RGBA {
	a := uint32(fg.A)
	inv := 255 - a
	return color.RGBA{
		R: uint8((uint32(fg.R)*a + uint32(bg.R)*inv) / 255),
		G: uint8((uint32(fg.G)*a + uint32(bg.G)*inv) / 255),
		B: uint8((uint32(fg.B)*a + uint32(bg.B)*inv) / 255),
		A: 255,
	}
}

// legendEntries lists label/swatch pairs for the current color mode.
func (r *RasterRenderer) legendEntries() []struct {
	label string
	c     color.NRGBA
} {
	if r.Collection.Mode == ColorByValue {
		return []struct {
			label string
			c     color.NRGBA
		}{
			{"low", ValueColor(0, 0, 1)},
			{"mid", ValueColor(0.5, 0, 1)},
			{"high", ValueColor(1, 0, 1)},
		}
	}
	return []struct {
		label string
		c     color.NRGBA
	}{
		{ClassHigh, ClassColor(ClassHigh)},
		{ClassMedium, ClassColor(ClassMedium)},
		{ClassLow, ClassColor(ClassLow)},
	}
}

func (r *RasterRenderer) drawLegend(img *image.RGBA) {
	y := 20
	for _, entry := range r.legendEntries() {
		for dy := 0; dy < 12; dy++ {
			for dx := 0; dx < 12; dx++ {
				img.SetRGBA(10+dx, y-10+dy, blendColor(img.RGBAAt(10+dx, y-10+dy), entry.c))
			}
		}
		drawText(img, 28, y, entry.label, color.RGBA{0, 0, 0, 255})
		y += 18
	}
}

// drawText renders text onto an image at the specified position.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
