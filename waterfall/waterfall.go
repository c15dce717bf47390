package waterfall

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/mat"
)

var (
	// Colors defining the gradient in the heatmap. The higher the index, the warmer.
	colors = []color.RGBA{
		{0, 0, 0, 255},       // black
		{0, 0, 255, 255},     // blue
		{0, 255, 255, 255},   // cyan
		{0, 255, 0, 255},     // green
		{255, 255, 0, 255},   // yellow
		{255, 0, 0, 255},     // red
		{255, 255, 255, 255}, // white
	}

	gridColor           = color.RGBA{0, 0, 0, 255}       // black
	gridBackgroundColor = color.RGBA{255, 255, 255, 255} // white

	expSuffixLookup = map[int]string{
		0: "Hz",  // 10^0
		1: "kHz", // 10^3
		2: "MHz", // 10^6
		3: "GHz", // 10^9
		4: "THz", // 10^12
	}
)

const (
	gridMarginTop  = 20  // pixels
	gridMarginLeft = 80  // pixels
	gridTickLen    = 10  // pixel
	gridMinStepX   = 120 // pixels
	gridMinStepY   = 20  // pixels
)

// GetColor determines the color of a pixel based on a color gradient and a pixel "level".
// http://www.andrewnoske.com/wiki/Code_-_heatmaps_and_color_gradients
func GetColor(lvl uint16) color.RGBA {
	// Find the two gradient colors the level lies between and blend them
	// according to how far along the level is between them.
	pos := float64(lvl) / math.MaxUint16 * float64(len(colors)-1)
	idx := int(pos)
	if idx >= len(colors)-1 {
		return colors[len(colors)-1]
	}
	fract := pos - float64(idx)
	lo, hi := colors[idx], colors[idx+1]
	blend := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*fract))
	}
	return color.RGBA{
		blend(lo.R, hi.R),
		blend(lo.G, hi.G),
		blend(lo.B, hi.B),
		blend(lo.A, hi.A),
	}
}

func GetReadableFreq(freq float64) string {
	exp := 0
	for f := math.Abs(freq); f >= 1000; f = f / 1000.0 {
		exp += 1
	}
	suffix, ok := expSuffixLookup[exp]
	if !ok || exp == 0 {
		return fmt.Sprintf("%.0f Hz", freq)
	}
	return fmt.Sprintf("%.6f %s", freq/math.Pow(1000, float64(exp)), suffix)
}

func drawTick(canvas *image.RGBA, start image.Point, length int, horizontal bool) {
	for i := 0; i <= length; i++ {
		if horizontal {
			canvas.SetRGBA(start.X+i, start.Y, gridColor)
		} else {
			canvas.SetRGBA(start.X, start.Y+i, gridColor)
		}
	}
}

func findGridStepSize(step int, horizontal bool) int {
	gridMinStep := gridMinStepY
	if horizontal {
		gridMinStep = gridMinStepX
	}
	for step > gridMinStep {
		n := step / 2
		if n < gridMinStep {
			return step
		}
		step = n
	}
	return max(step, 1)
}

func drawLabel(canvas *image.RGBA, x, y int, label string) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(gridColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

// DrawGrid adds frequency ticks along the top and time offsets along the left
// side of the waterfall.
func DrawGrid(source *image.RGBA, startFreq, endFreq float64, duration time.Duration) *image.RGBA {
	// Enlarge existing image.
	b := source.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx()+gridMarginLeft, b.Dy()+gridMarginTop))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{gridBackgroundColor}, image.Point{}, draw.Src)
	r := canvas.Bounds()
	r.Min.X += gridMarginLeft
	r.Min.Y += gridMarginTop
	draw.Draw(canvas, r, source, b.Min, draw.Src)

	// Draw X ticks.
	xStep := findGridStepSize(b.Dx(), true)
	for i := 0; i < b.Dx(); i += xStep {
		drawTick(canvas, image.Point{gridMarginLeft + i, gridMarginTop - gridTickLen}, gridTickLen, false)
		freq := startFreq + float64(i)*(endFreq-startFreq)/float64(b.Dx())
		drawLabel(canvas, gridMarginLeft+i+3, gridMarginTop-2, GetReadableFreq(freq))
	}

	// Draw Y ticks.
	yStep := findGridStepSize(b.Dy(), false)
	for i := 0; i < b.Dy(); i += yStep {
		drawTick(canvas, image.Point{gridMarginLeft - gridTickLen, gridMarginTop + i}, gridTickLen, true)
		offset := time.Duration(float64(i) * float64(duration) / float64(b.Dy()))
		drawLabel(canvas, 5, gridMarginTop+i+10, offset.Round(time.Millisecond).String())
	}

	return canvas
}

type ImageOptions struct {
	// Height and Width in pixels. 0 or anything above the data resolution
	// renders one pixel per sample.
	Height int
	Width  int

	AddGrid bool
}

// Axes describes what the matrix columns and rows span.
type Axes struct {
	// StartFreq and EndFreq are the frequencies (Hz) of the first and last column.
	StartFreq float64
	EndFreq   float64
	Duration  time.Duration
}

type RenderMetadata struct {
	ImageHeight  int
	ImageWidth   int
	FreqPerPixel float64
	SecPerPixel  float64
	MinLevel     float64
	MaxLevel     float64
}

type RenderResult struct {
	Image     image.Image
	ImageMeta *RenderMetadata
}

// Render draws data (one spectrum per row) as a heatmap. When the image is
// smaller than the data, each pixel shows the maximum of the samples it covers.
func Render(data mat.Matrix, axes Axes, opts ImageOptions) (*RenderResult, error) {
	rows, cols := data.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("nothing to render in a %dx%d matrix", rows, cols)
	}
	height, width := opts.Height, opts.Width
	if height <= 0 || height > rows {
		height = rows
	}
	if width <= 0 || width > cols {
		width = cols
	}

	img := mat.NewDense(height, width, nil)
	for y := 0; y < height; y++ {
		r0, r1 := bucket(y, height, rows)
		for x := 0; x < width; x++ {
			c0, c1 := bucket(x, width, cols)
			v := math.Inf(-1)
			for i := r0; i < r1; i++ {
				for j := c0; j < c1; j++ {
					v = math.Max(v, data.At(i, j))
				}
			}
			img.Set(y, x, v)
		}
	}

	minV, maxV := mat.Min(img), mat.Max(img)
	vRange := maxV - minV
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			lvl := uint16(0)
			if vRange > 0 {
				lvl = uint16((img.At(y, x) - minV) * math.MaxUint16 / vRange)
			}
			canvas.SetRGBA(x, y, GetColor(lvl))
		}
	}

	if opts.AddGrid {
		canvas = DrawGrid(canvas, axes.StartFreq, axes.EndFreq, axes.Duration)
	}

	return &RenderResult{
		Image: canvas,
		ImageMeta: &RenderMetadata{
			ImageHeight:  height,
			ImageWidth:   width,
			FreqPerPixel: math.Abs(axes.EndFreq-axes.StartFreq) / float64(width),
			SecPerPixel:  axes.Duration.Seconds() / float64(height),
			MinLevel:     minV,
			MaxLevel:     maxV,
		},
	}, nil
}

// bucket returns the half open range of source indices covered by pixel i of n.
func bucket(i, n, total int) (int, int) {
	lo := i * total / n
	hi := (i + 1) * total / n
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// WriteImage encodes img as PNG or JPEG depending on the extension of path.
func WriteImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpeg.DefaultQuality})
	default:
		err = fmt.Errorf("unsupported image format %q, use .png or .jpg", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
