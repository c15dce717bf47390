// Package fil reads and writes SIGPROC filterbank files.
//
// A file is a sequence of keyword/value pairs enclosed in HEADER_START and
// HEADER_END, followed by the data: one spectrum of nchans values per time
// sample. Strings are prefixed with their length as int32, integers are
// int32 and floating point values are float64, all little endian.
package fil

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	headerStart = "HEADER_START"
	headerEnd   = "HEADER_END"

	// maxStringLen bounds keywords and string values.
	maxStringLen = 80

	// DataTypeFilterbank is the SIGPROC data_type of filterbank data.
	DataTypeFilterbank = 1
	// TelescopeFake and MachineFake mark simulated data.
	TelescopeFake = 0
	MachineFake   = 0
)

var ErrNotFilterbank = errors.New("not a filterbank file")

// Header holds the SIGPROC header fields filgen reads and writes.
type Header struct {
	TelescopeID int32
	MachineID   int32
	DataType    int32
	SourceName  string
	SrcRAJ      float64 // hhmmss.s
	SrcDEJ      float64 // ddmmss.s
	AzStart     float64 // deg
	ZaStart     float64 // deg
	TStart      float64 // MJD
	TSamp       float64 // s
	Fch1        float64 // MHz
	Foff        float64 // MHz
	NChans      int32
	NIFs        int32
	NBits       int32
}

type File struct {
	Header Header
	// Data holds one spectrum per time sample.
	Data [][]float32
}

// WriteFile creates path and writes header and data to it.
func WriteFile(path string, h Header, data [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, h, data); err != nil {
		f.Close()
		return fmt.Errorf("unable to write filterbank file %q: %w", path, err)
	}
	return f.Close()
}

// Write encodes h followed by data as 32 bit floats. Every row of data must
// have h.NChans values.
func Write(w io.Writer, h Header, data [][]float64) error {
	if h.NBits == 0 {
		h.NBits = 32
	}
	if h.NBits != 32 {
		return fmt.Errorf("only 32 bit data is supported, got %d", h.NBits)
	}
	if h.NIFs == 0 {
		h.NIFs = 1
	}
	if h.NIFs != 1 {
		return fmt.Errorf("only single IF data is supported, got nifs %d", h.NIFs)
	}
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, h); err != nil {
		return err
	}
	buf := make([]byte, 4*h.NChans)
	for i, row := range data {
		if len(row) != int(h.NChans) {
			return fmt.Errorf("spectrum %d has %d channels, header says %d", i, len(row), h.NChans)
		}
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(float32(v)))
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeHeader(w io.Writer, h Header) error {
	ew := &errWriter{w: w}
	ew.str(headerStart)
	ew.intKey("telescope_id", h.TelescopeID)
	ew.intKey("machine_id", h.MachineID)
	ew.intKey("data_type", h.DataType)
	ew.str("source_name")
	ew.str(h.SourceName)
	ew.doubleKey("src_raj", h.SrcRAJ)
	ew.doubleKey("src_dej", h.SrcDEJ)
	ew.doubleKey("az_start", h.AzStart)
	ew.doubleKey("za_start", h.ZaStart)
	ew.doubleKey("tstart", h.TStart)
	ew.doubleKey("tsamp", h.TSamp)
	ew.doubleKey("fch1", h.Fch1)
	ew.doubleKey("foff", h.Foff)
	ew.intKey("nchans", h.NChans)
	ew.intKey("nifs", h.NIFs)
	ew.intKey("nbits", h.NBits)
	ew.str(headerEnd)
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) write(v interface{}) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *errWriter) str(s string) {
	e.write(int32(len(s)))
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
}

func (e *errWriter) intKey(key string, v int32) {
	e.str(key)
	e.write(v)
}

func (e *errWriter) doubleKey(key string, v float64) {
	e.str(key)
	e.write(v)
}

// ReadFile reads a complete filterbank file.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a header and all spectra that follow it. Unknown keywords are
// rejected since their value size is unknown.
func Read(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	if h.NBits != 32 {
		return nil, fmt.Errorf("only 32 bit data is supported, got %d", h.NBits)
	}
	if h.NChans <= 0 {
		return nil, fmt.Errorf("invalid nchans %d", h.NChans)
	}
	// A header without nifs holds a single IF.
	if h.NIFs != 0 && h.NIFs != 1 {
		return nil, fmt.Errorf("only single IF data is supported, got nifs %d", h.NIFs)
	}

	out := &File{Header: *h}
	buf := make([]byte, 4*int(h.NChans))
	for {
		if _, err := io.ReadFull(br, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("spectrum %d: %w", len(out.Data), err)
		}
		row := make([]float32, h.NChans)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
		}
		out.Data = append(out.Data, row)
	}
}

// ReadHeader decodes the header and leaves r positioned at the first spectrum.
func ReadHeader(r io.Reader) (*Header, error) {
	key, err := readString(r)
	if err != nil || key != headerStart {
		return nil, ErrNotFilterbank
	}
	h := &Header{}
	for {
		key, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("reading header keyword: %w", err)
		}
		switch key {
		case headerEnd:
			return h, nil
		case "source_name", "rawdatafile":
			v, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", key, err)
			}
			if key == "source_name" {
				h.SourceName = v
			}
		case "telescope_id":
			err = binary.Read(r, binary.LittleEndian, &h.TelescopeID)
		case "machine_id":
			err = binary.Read(r, binary.LittleEndian, &h.MachineID)
		case "data_type":
			err = binary.Read(r, binary.LittleEndian, &h.DataType)
		case "nchans":
			err = binary.Read(r, binary.LittleEndian, &h.NChans)
		case "nifs":
			err = binary.Read(r, binary.LittleEndian, &h.NIFs)
		case "nbits":
			err = binary.Read(r, binary.LittleEndian, &h.NBits)
		case "barycentric", "pulsarcentric", "nbeams", "ibeam":
			var ignored int32
			err = binary.Read(r, binary.LittleEndian, &ignored)
		case "src_raj":
			err = binary.Read(r, binary.LittleEndian, &h.SrcRAJ)
		case "src_dej":
			err = binary.Read(r, binary.LittleEndian, &h.SrcDEJ)
		case "az_start":
			err = binary.Read(r, binary.LittleEndian, &h.AzStart)
		case "za_start":
			err = binary.Read(r, binary.LittleEndian, &h.ZaStart)
		case "tstart":
			err = binary.Read(r, binary.LittleEndian, &h.TStart)
		case "tsamp":
			err = binary.Read(r, binary.LittleEndian, &h.TSamp)
		case "fch1":
			err = binary.Read(r, binary.LittleEndian, &h.Fch1)
		case "foff":
			err = binary.Read(r, binary.LittleEndian, &h.Foff)
		case "refdm", "period":
			var ignored float64
			err = binary.Read(r, binary.LittleEndian, &ignored)
		default:
			return nil, fmt.Errorf("unsupported header keyword %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
	}
}

func readString(r io.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n < 0 || n > maxStringLen {
		return "", fmt.Errorf("invalid string length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
