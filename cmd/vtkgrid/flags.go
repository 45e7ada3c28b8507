package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

var (
	configFile string
	loaded     Config

	logLevel  string
	logFormat string
	noColor   bool
	debug     bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (console, json, text)",
			Value:       "console",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "disable colored console logs",
			Destination: &noColor,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// wireFlags selects how a command writes its output document.
type wireFlags struct {
	encoding     string
	meshEncoding string
	appended     bool
	byteOrder    string
	headerType   string
}

func (w *wireFlags) flags(defaultEncoding string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "encoding",
			Aliases:     []string{"e"},
			Usage:       "array encoding (text, raw, base64)",
			Value:       defaultEncoding,
			Destination: &w.encoding,
		},
		&cli.StringFlag{
			Name:        "mesh-encoding",
			Usage:       "coordinate encoding (default: same as --encoding)",
			Destination: &w.meshEncoding,
		},
		&cli.BoolFlag{
			Name:        "appended",
			Usage:       "place base64 arrays in the appended section",
			Destination: &w.appended,
		},
		&cli.StringFlag{
			Name:        "byte-order",
			Usage:       "binary byte order (LittleEndian, BigEndian)",
			Value:       vtk.LittleEndian.String(),
			Destination: &w.byteOrder,
		},
		&cli.StringFlag{
			Name:        "header-type",
			Usage:       "binary block header width (UInt64, UInt32)",
			Value:       vtk.HeaderUInt64.String(),
			Destination: &w.headerType,
		},
	}
}

// wireSettings is the parsed form of wireFlags.
type wireSettings struct {
	enc, meshEnc wireEncoding
	opts         []vtk.WriteOption
}

// wireEncoding pairs an encoding with its placement.
type wireEncoding struct {
	vtk.Encoding
	Placement vtk.Placement
}

func (w *wireFlags) parse() (wireSettings, error) {
	enc, err := w.encodingOf(w.encoding)
	if err != nil {
		return wireSettings{}, err
	}
	mesh := enc
	if w.meshEncoding != "" {
		if mesh, err = w.encodingOf(w.meshEncoding); err != nil {
			return wireSettings{}, err
		}
	}
	if enc.Placement == vtk.Appended && mesh.Placement == vtk.Appended && enc.Encoding != mesh.Encoding {
		return wireSettings{}, fmt.Errorf("appended arrays and coordinates must share one encoding, got %s and %s", enc.Encoding, mesh.Encoding)
	}
	order, err := vtk.ParseByteOrder(w.byteOrder)
	if err != nil {
		return wireSettings{}, err
	}
	header, err := vtk.ParseHeaderType(w.headerType)
	if err != nil {
		return wireSettings{}, err
	}
	return wireSettings{
		enc:     enc,
		meshEnc: mesh,
		opts:    []vtk.WriteOption{vtk.WithByteOrder(order), vtk.WithHeaderType(header)},
	}, nil
}

func (w *wireFlags) encodingOf(name string) (wireEncoding, error) {
	e, err := vtk.ParseEncoding(name)
	if err != nil {
		return wireEncoding{}, err
	}
	switch {
	case e == vtk.Raw:
		return wireEncoding{e, vtk.Appended}, nil
	case e == vtk.Base64 && w.appended:
		return wireEncoding{e, vtk.Appended}, nil
	default:
		return wireEncoding{e, vtk.Inline}, nil
	}
}

// apply sets the wire settings on a domain and its arrays.
func (s wireSettings) apply(d vtk.Domain, arrays []vtk.NamedArray) (vtk.Domain, []vtk.NamedArray) {
	d.Mesh.Encoding, d.Mesh.Placement = s.meshEnc.Encoding, s.meshEnc.Placement
	out := make([]vtk.NamedArray, len(arrays))
	for i, a := range arrays {
		a.Encoding, a.Placement = s.enc.Encoding, s.enc.Placement
		out[i] = a
	}
	return d, out
}

// dimFlag pins the dimensionality of documents a command reads.
func dimFlag(dest *int64) cli.Flag {
	return &cli.Int64Flag{
		Name:        "dim",
		Usage:       "read inputs as 2D or 3D grids (0 detects; 3 keeps grids one point thick in z as 3D)",
		Destination: dest,
	}
}

func parseOptions(dim int64) []vtk.ParseOption {
	if dim == 0 {
		return nil
	}
	return []vtk.ParseOption{vtk.WithDimension(int(dim))}
}

// withWhole returns the write options for a piece of whole. The result never
// shares storage with s.opts.
func (s wireSettings) withWhole(whole vtk.Spans) []vtk.WriteOption {
	opts := make([]vtk.WriteOption, 0, len(s.opts)+1)
	opts = append(opts, s.opts...)
	return append(opts, vtk.WithWholeExtent(whole))
}
