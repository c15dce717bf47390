package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hb9tf/filgen/fil"
	"github.com/hb9tf/filgen/waterfall"
)

var testHeader = fil.Header{
	DataType:   fil.DataTypeFilterbank,
	SourceName: "test",
	TSamp:      2,
	Fch1:       1000,
	Foff:       -0.000001,
	NChans:     8,
	NIFs:       1,
	NBits:      32,
}

func TestFileAxes(t *testing.T) {
	got := fileAxes(testHeader, 4)
	assert.Equal(t, 1e9, got.StartFreq)
	assert.InDelta(t, 1e9-7, got.EndFreq, 1e-3)
	assert.Equal(t, 8*time.Second, got.Duration)
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	filPath := filepath.Join(dir, "in.fil")
	data := make([][]float64, 4)
	for i := range data {
		data[i] = make([]float64, 8)
		data[i][3] = 10
	}
	require.NoError(t, fil.WriteFile(filPath, testHeader, data))

	imgPath := filepath.Join(dir, "out.png")
	var out bytes.Buffer
	require.NoError(t, render(&out, filPath, imgPath, waterfall.ImageOptions{}))
	assert.Contains(t, out.String(), "Channels: 8")
	assert.Contains(t, out.String(), "Rendering image (8 x 4)")

	f, err := os.Open(imgPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
	// The signal column is the hottest, everything else the coldest color.
	assert.Equal(t, waterfall.GetColor(0xffff), img.At(3, 0))
	assert.Equal(t, waterfall.GetColor(0), img.At(0, 0))
}

func TestRenderNotFilterbank(t *testing.T) {
	dir := t.TempDir()
	filPath := filepath.Join(dir, "in.fil")
	require.NoError(t, os.WriteFile(filPath, []byte("hello"), 0o644))
	assert.Error(t, render(&bytes.Buffer{}, filPath, filepath.Join(dir, "out.png"), waterfall.ImageOptions{}))
}
