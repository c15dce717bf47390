package waterfall

import (
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hb9tf/filgen/frame"
)

func TestGetColor(t *testing.T) {
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, GetColor(0))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, GetColor(math.MaxUint16))
	// Halfway between blue and cyan.
	level := 1.5 / 6 * float64(math.MaxUint16)
	mid := GetColor(uint16(level))
	assert.Equal(t, uint8(0), mid.R)
	assert.InDelta(t, 128, mid.G, 1)
	assert.Equal(t, uint8(255), mid.B)
}

func TestGetReadableFreq(t *testing.T) {
	assert.Equal(t, "999 Hz", GetReadableFreq(999))
	assert.Equal(t, "999.999999 MHz", GetReadableFreq(1e9-1))
	assert.Equal(t, "1.420406 GHz", GetReadableFreq(1420405751.77))
}

func TestRenderNativeSize(t *testing.T) {
	data := mat.NewDense(4, 8, nil)
	data.Set(2, 5, 10)
	res, err := Render(data, Axes{StartFreq: 100, EndFreq: 107, Duration: 4 * time.Second}, ImageOptions{})
	require.NoError(t, err)

	assert.Equal(t, 8, res.Image.Bounds().Dx())
	assert.Equal(t, 4, res.Image.Bounds().Dy())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, res.Image.At(5, 2))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, res.Image.At(0, 0))
	assert.Equal(t, 1.0, res.ImageMeta.SecPerPixel)
	assert.Equal(t, 10.0, res.ImageMeta.MaxLevel)
}

func TestRenderDownsamplesWithMax(t *testing.T) {
	data := mat.NewDense(4, 8, nil)
	data.Set(3, 7, 1)
	res, err := Render(data, Axes{}, ImageOptions{Width: 2, Height: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ImageMeta.ImageWidth)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, res.Image.At(1, 1))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, res.Image.At(0, 1))
}

func TestRenderWithGrid(t *testing.T) {
	data := mat.NewDense(16, 256, nil)
	res, err := Render(data, Axes{StartFreq: 1e9, EndFreq: 1e9 - 255, Duration: 16 * time.Second}, ImageOptions{AddGrid: true})
	require.NoError(t, err)
	assert.Equal(t, 256+gridMarginLeft, res.Image.Bounds().Dx())
	assert.Equal(t, 16+gridMarginTop, res.Image.Bounds().Dy())
}

func TestRenderEmpty(t *testing.T) {
	_, err := Render(&mat.Dense{}, Axes{}, ImageOptions{})
	assert.Error(t, err)
}

func TestPlotter(t *testing.T) {
	f, err := frame.New(frame.Params{Fchans: 64, Tchans: 8, Df: 1, Dt: 1, Fch1: 1000e6})
	require.NoError(t, err)
	require.NoError(t, f.AddConstantSignal(f.Frequency(10), 0, 1, 1, frame.ProfileBox))

	path := filepath.Join(t.TempDir(), "synthetic_0.png")
	require.NoError(t, (&Plotter{}).Plot(f, path))

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()
	img, err := png.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
}

func TestWriteImageUnsupportedFormat(t *testing.T) {
	data := mat.NewDense(1, 1, []float64{1})
	res, err := Render(data, Axes{}, ImageOptions{})
	require.NoError(t, err)
	assert.Error(t, WriteImage(filepath.Join(t.TempDir(), "out.gif"), res.Image))
}
