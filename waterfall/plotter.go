package waterfall

import (
	"time"

	"github.com/golang/glog"

	"github.com/hb9tf/filgen/frame"
)

// Plotter renders frames to image files.
type Plotter struct {
	Options ImageOptions
}

func (p *Plotter) Plot(f *frame.Frame, path string) error {
	res, err := Render(f.Data(), FrameAxes(f), p.Options)
	if err != nil {
		return err
	}
	glog.V(2).Infof("rendering %dx%d waterfall to %q", res.ImageMeta.ImageWidth, res.ImageMeta.ImageHeight, path)
	return WriteImage(path, res.Image)
}

// FrameAxes returns the axes spanned by a frame.
func FrameAxes(f *frame.Frame) Axes {
	return Axes{
		StartFreq: f.Frequency(0),
		EndFreq:   f.Frequency(f.Fchans - 1),
		Duration:  time.Duration(f.Duration() * float64(time.Second)),
	}
}
