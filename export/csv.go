package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/hb9tf/filgen/generator"
)

var csvHeader = []string{
	"Identifier",
	"Source",
	"Index",
	"Path",
	"CreatedUnixMilli",
	"Type",
	"StartChan",
	"StartFreq",
	"Drift",
	"Level",
	"Intensity",
	"Width",
	"Fchans",
	"Tchans",
	"Df",
	"Dt",
	"Fch1",
}

// CSV writes one line per record. Output defaults to stdout.
type CSV struct {
	Output io.Writer
	// SkipHeader omits the header line, e.g. when appending to an existing file.
	SkipHeader bool
}

func (c *CSV) Write(ctx context.Context, records <-chan generator.Record) error {
	out := c.Output
	if out == nil {
		out = os.Stdout
	}
	w := csv.NewWriter(out)
	if !c.SkipHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("unable to write CSV header: %s", err)
		}
	}

	for r := range records {
		if err := w.Write(csvRow(r)); err != nil {
			glog.Warningf("error while writing CSV line: %s\n", err)
		}

		w.Flush()
		if err := w.Error(); err != nil {
			glog.Warningf("error flushing CSV: %s\n", err)
		}
	}
	w.Flush()
	return w.Error()
}

func csvRow(r generator.Record) []string {
	return []string{
		r.Identifier,
		r.Source,
		fmt.Sprintf("%d", r.Index),
		r.Path,
		fmt.Sprintf("%d", r.Created.UnixMilli()),
		r.Type,
		fmt.Sprintf("%d", r.StartChan),
		fmt.Sprintf("%f", r.StartFreq),
		fmt.Sprintf("%f", r.Drift),
		fmt.Sprintf("%f", r.Level),
		fmt.Sprintf("%f", r.Intensity),
		fmt.Sprintf("%f", r.Width),
		fmt.Sprintf("%d", r.Fchans),
		fmt.Sprintf("%d", r.Tchans),
		fmt.Sprintf("%f", r.Df),
		fmt.Sprintf("%f", r.Dt),
		fmt.Sprintf("%f", r.Fch1),
	}
}
