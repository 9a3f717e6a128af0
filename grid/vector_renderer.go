package grid

import (
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha.
// The canvas library expects premultiplied RGBA.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// VectorRenderer renders a feature collection as vector graphics, either
// SVG or a high-resolution rasterized PNG.
type VectorRenderer struct {
	Collection  *RenderCollection
	Scale       float64           // Canvas units per degree
	Padding     float64           // Padding in canvas units
	Resolution  canvas.Resolution // Resolution for PNG output
	ShowAnchors bool              // Draw a dot at each feature anchor
}

// NewVectorRenderer creates a vector renderer with default settings.
func NewVectorRenderer(rc *RenderCollection) *VectorRenderer {
	return &VectorRenderer{
		Collection: rc,
		Scale:      4000.0, // grid cells are fractions of a degree wide
		Padding:    10.0,
		Resolution: canvas.DPI(300),
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the feature collection as an SVG to the provided writer.
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	width, height, minX, minY := r.layout()

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, minX, minY, width, height)

	return svgRenderer.Close()
}

// RenderToPNG writes the feature collection as a rasterized PNG to the
// provided writer.
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	width, height, minX, minY := r.layout()

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, minX, minY, width, height)

	// Rasterizer implements draw.Image, which embeds image.Image.
	return png.Encode(w, rast)
}

// layout computes canvas dimensions and the lon/lat origin.
func (r *VectorRenderer) layout() (width, height, minX, minY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	for _, f := range r.Collection.Features {
		for _, ring := range f.Coordinates {
			for _, p := range ring {
				minX = math.Min(minX, p[0])
				minY = math.Min(minY, p[1])
				maxX = math.Max(maxX, p[0])
				maxY = math.Max(maxY, p[1])
			}
		}
	}
	if maxX < minX || maxY < minY {
		return 2 * r.Padding, 2 * r.Padding, 0, 0
	}

	width = (maxX-minX)*r.Scale + 2*r.Padding
	height = (maxY-minY)*r.Scale + 2*r.Padding
	return width, height, minX, minY
}

// renderToCanvas renders the features to a canvas renderer (shared logic
// for SVG and PNG).
func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, minX, minY, width, height float64) {
	// White background
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(p [2]float64) (float64, float64) {
		return (p[0]-minX)*r.Scale + r.Padding, (p[1]-minY)*r.Scale + r.Padding
	}

	for _, f := range r.Collection.Features {
		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: nrgbaToRGBA(color.NRGBA{
			R: f.FillColor[0], G: f.FillColor[1], B: f.FillColor[2], A: f.FillColor[3],
		})}
		style.Stroke = canvas.Paint{Color: canvas.Transparent}

		for _, ring := range f.Coordinates {
			cp := &canvas.Path{}
			for i, p := range ring {
				cx, cy := toCanvas(p)
				if i == 0 {
					cp.MoveTo(cx, cy)
				} else {
					cp.LineTo(cx, cy)
				}
			}
			cp.Close()
			renderer.RenderPath(cp, style, canvas.Identity)
		}
	}

	if r.ShowAnchors {
		anchorStyle := canvas.DefaultStyle
		anchorStyle.Fill = canvas.Paint{Color: canvas.Black}
		anchorStyle.Stroke = canvas.Paint{Color: canvas.Transparent}

		for _, f := range r.Collection.Features {
			cx, cy := toCanvas(f.Anchor)
			dot := canvas.Circle(1.0).Translate(cx, cy)
			renderer.RenderPath(dot, anchorStyle, canvas.Identity)
		}
	}
}
