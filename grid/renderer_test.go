package grid

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderCollection(t *testing.T, mode ColorMode) *RenderCollection {
	t.Helper()
	ds := loadFixture(t, 0.0001)
	rc, err := BuildFeatureCollection(ds, DefaultConfig(), mode)
	require.NoError(t, err)
	return rc
}

func TestRasterRendererDimensions(t *testing.T) {
	r := NewRasterRenderer(renderCollection(t, ColorByClass))
	img := r.Render()

	b := img.Bounds()
	assert.Equal(t, 1200, b.Dx())
	assert.Greater(t, b.Dy(), 2*r.Padding, "height should exceed the padding band")

	// Fixture cells span 0.04 x 0.01 degrees, so the image is wide and short.
	assert.Less(t, b.Dy(), b.Dx())
}

func TestRasterRendererFillsCells(t *testing.T) {
	rc := renderCollection(t, ColorByClass)
	r := NewRasterRenderer(rc)
	r.ShowLegend = false
	img := r.Render()

	// The center pixel of each cell must differ from the background; the g1
	// cell blends the class red over the light gray.
	b := img.Bounds()
	minX, _, maxX, maxY, ok := r.bounds()
	require.True(t, ok)
	scale := float64(r.Width-2*r.Padding) / (maxX - minX)

	centerOf := func(lon, lat float64) (int, int) {
		return int((lon-minX)*scale) + r.Padding, int((maxY-lat)*scale) + r.Padding
	}

	x, y := centerOf(106.005, -6.295)
	got := img.RGBAAt(x, y)
	assert.NotEqual(t, r.Background, got, "g1 cell center still background at (%d,%d)", x, y)
	assert.Greater(t, got.R, got.G, "high-class cell should blend toward red")

	// A pixel in the corner gap stays background.
	corner := img.RGBAAt(b.Min.X+2, b.Min.Y+2)
	assert.Equal(t, r.Background, corner)
}

func TestRasterRendererEmptyCollection(t *testing.T) {
	r := NewRasterRenderer(&RenderCollection{Mode: ColorByClass})
	img := r.Render()
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
}

func TestRasterRendererSavePNG(t *testing.T) {
	r := NewRasterRenderer(renderCollection(t, ColorByValue))
	path := filepath.Join(t.TempDir(), "preview.png")
	require.NoError(t, r.SavePNG(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
}

func TestBlendColor(t *testing.T) {
	bg := color.RGBA{245, 245, 245, 255}

	// Fully opaque fill replaces the background.
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, blendColor(bg, color.NRGBA{10, 20, 30, 255}))

	// Fully transparent fill leaves it unchanged.
	assert.Equal(t, bg, blendColor(bg, color.NRGBA{10, 20, 30, 0}))

	// Partial alpha lands between fill and background on every channel.
	mixed := blendColor(bg, color.NRGBA{220, 38, 38, 160})
	assert.Greater(t, mixed.R, uint8(200))
	assert.Less(t, mixed.G, uint8(245))
	assert.Greater(t, mixed.G, uint8(38))
	assert.Equal(t, uint8(255), mixed.A)
}

func TestLegendEntriesFollowMode(t *testing.T) {
	classRenderer := NewRasterRenderer(renderCollection(t, ColorByClass))
	entries := classRenderer.legendEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, ClassHigh, entries[0].label)
	assert.Equal(t, ClassColor(ClassHigh), entries[0].c)

	valueRenderer := NewRasterRenderer(renderCollection(t, ColorByValue))
	entries = valueRenderer.legendEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "low", entries[0].label)
	assert.Equal(t, ValueColor(0, 0, 1), entries[0].c)
}
