package main

/*
This application renders the waterfall of a filterbank file, e.g. one
written by filgen.
*/

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/mat"

	"github.com/hb9tf/filgen/fil"
	"github.com/hb9tf/filgen/waterfall"
)

// Flags
var (
	filFile   = flag.String("filFile", "synthetic_0.fil", "Filterbank file to render.")
	imgPath   = flag.String("imgPath", "/tmp/out.png", "Path where the rendered image should be written to (.png or .jpg).")
	imgWidth  = flag.Int("imgWidth", 0, "Width of output image in pixels (0 renders one pixel per channel).")
	imgHeight = flag.Int("imgHeight", 0, "Height of output image in pixels (0 renders one pixel per spectrum).")
	addGrid   = flag.Bool("grid", true, "Draw frequency and time axes.")
)

// fileAxes derives the waterfall axes from a SIGPROC header.
func fileAxes(h fil.Header, spectra int) waterfall.Axes {
	return waterfall.Axes{
		StartFreq: h.Fch1 * 1e6,
		EndFreq:   (h.Fch1 + float64(h.NChans-1)*h.Foff) * 1e6,
		Duration:  time.Duration(float64(spectra) * h.TSamp * float64(time.Second)),
	}
}

func toDense(data [][]float32) *mat.Dense {
	if len(data) == 0 {
		return nil
	}
	m := mat.NewDense(len(data), len(data[0]), nil)
	for i, row := range data {
		dst := m.RawRowView(i)
		for j, v := range row {
			dst[j] = float64(v)
		}
	}
	return m
}

func render(out io.Writer, filPath, imgPath string, opts waterfall.ImageOptions) error {
	f, err := fil.ReadFile(filPath)
	if err != nil {
		return err
	}
	data := toDense(f.Data)
	if data == nil {
		return fmt.Errorf("%q holds no spectra", filPath)
	}
	axes := fileAxes(f.Header, len(f.Data))

	fmt.Fprintln(out, "Selected file metadata:")
	fmt.Fprintf(out, "  - Source: %s\n", f.Header.SourceName)
	fmt.Fprintf(out, "  - First channel: %s\n", waterfall.GetReadableFreq(axes.StartFreq))
	fmt.Fprintf(out, "  - Last channel: %s\n", waterfall.GetReadableFreq(axes.EndFreq))
	fmt.Fprintf(out, "  - Channels: %d\n", f.Header.NChans)
	fmt.Fprintf(out, "  - Spectra: %d\n", len(f.Data))
	fmt.Fprintf(out, "  - Duration: %s\n", axes.Duration)

	res, err := waterfall.Render(data, axes, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rendering image (%d x %d)\n", res.ImageMeta.ImageWidth, res.ImageMeta.ImageHeight)
	fmt.Fprintf(out, "Writing image to %q\n", imgPath)
	return waterfall.WriteImage(imgPath, res.Image)
}

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	opts := waterfall.ImageOptions{
		Height:  *imgHeight,
		Width:   *imgWidth,
		AddGrid: *addGrid,
	}
	if err := render(os.Stdout, *filFile, *imgPath, opts); err != nil {
		glog.Exitf("unable to render %q: %s", *filFile, err)
	}
	glog.Flush()
}
