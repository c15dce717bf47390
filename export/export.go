package export

import (
	"context"

	"github.com/hb9tf/filgen/generator"
)

type Exporter interface {
	Write(context.Context, <-chan generator.Record) error
}

// Discard drains records without storing them.
type Discard struct{}

func (d *Discard) Write(ctx context.Context, records <-chan generator.Record) error {
	for range records {
	}
	return nil
}
