package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vtkgrid/internal/logger"
	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

func sampleCmd() *cli.Command {
	var (
		out        string
		nx, ny, nz int64
		pieces     int64
		precision  string
		wire       wireFlags
	)

	return &cli.Command{
		Name:  "sample",
		Usage: "Write a synthetic grid with a pressure scalar and a velocity vector",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output .vtr file; with --pieces, the stem of the piece files",
				Value:       "sample.vtr",
				Destination: &out,
			},
			&cli.Int64Flag{Name: "nx", Usage: "points along x", Value: 16, Destination: &nx},
			&cli.Int64Flag{Name: "ny", Usage: "points along y", Value: 16, Destination: &ny},
			&cli.Int64Flag{Name: "nz", Usage: "points along z (0 writes a 2D grid)", Value: 0, Destination: &nz},
			&cli.Int64Flag{
				Name:        "pieces",
				Usage:       "split the grid along x into this many piece files",
				Value:       1,
				Destination: &pieces,
			},
			&cli.StringFlag{
				Name:        "precision",
				Usage:       "value type (Float32, Float64)",
				Value:       vtk.Float64.String(),
				Destination: &precision,
			},
		}, wire.flags(vtk.Raw.String())...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyWireConfig(cmd, loaded, &wire)
			settings, err := wire.parse()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			p, err := vtk.ParsePrecision(precision)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			whole, err := sampleSpans(int(nx), int(ny), int(nz))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			parts, err := splitX(whole, int(pieces))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			for i, spans := range parts {
				var (
					d      vtk.Domain
					arrays []vtk.NamedArray
				)
				switch p {
				case vtk.Float32:
					d, arrays, err = sampleGrid[float32](whole, spans)
				case vtk.Float64:
					d, arrays, err = sampleGrid[float64](whole, spans)
				default:
					err = fmt.Errorf("sample supports Float32 and Float64, got %s", p)
				}
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				d, arrays = settings.apply(d, arrays)

				path := out
				if len(parts) > 1 {
					path = piecePath(out, i)
				}
				opts := settings.withWhole(whole)
				if err := writeDocument(ctx, path, d, arrays, opts...); err != nil {
					return cli.Exit(fmt.Sprintf("error: write %s: %v", path, err), 1)
				}
				log.Info("wrote sample", "path", path, "extent", spans.Extent(), "encoding", settings.enc.Encoding)
			}
			return nil
		},
	}
}

func sampleSpans(nx, ny, nz int) (vtk.Spans, error) {
	if nz == 0 {
		return vtk.NewSpans2D(0, nx, 0, ny)
	}
	return vtk.NewSpans3D(0, nx, 0, ny, 0, nz)
}

// splitX cuts whole into n pieces along x. Neighbouring pieces share their
// boundary plane of points.
func splitX(whole vtk.Spans, n int) ([]vtk.Spans, error) {
	cells := whole.Len(vtk.AxisX) - 1
	if n < 1 || (n > 1 && n > cells) {
		return nil, fmt.Errorf("cannot split %d cells along x into %d pieces", cells, n)
	}
	if n == 1 {
		return []vtk.Spans{whole}, nil
	}
	out := make([]vtk.Spans, 0, n)
	for i := range n {
		bounds := whole.Bounds()
		bounds[0] = whole.Start(vtk.AxisX) + i*cells/n
		bounds[1] = whole.Start(vtk.AxisX) + (i+1)*cells/n + 1
		s, err := vtk.NewSpans(bounds...)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func piecePath(out string, i int) string {
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(out, ext), i, ext)
}

// sampleGrid fills spans of a unit-spaced grid covering whole. Values depend
// only on the global point index, so pieces agree on shared points.
func sampleGrid[T float32 | float64](whole, spans vtk.Spans) (vtk.Domain, []vtk.NamedArray, error) {
	axis := func(a vtk.Axis) []float64 {
		xs := make([]float64, spans.Len(a))
		for i := range xs {
			xs[i] = float64(spans.Start(a) + i)
		}
		return xs
	}
	mesh := vtk.Mesh{X: axis(vtk.AxisX), Y: axis(vtk.AxisY), Precision: vtk.PrecisionOf[T]()}
	if spans.Dim() == 3 {
		mesh.Z = axis(vtk.AxisZ)
	}
	d, err := vtk.BuildDomain(mesh, spans)
	if err != nil {
		return vtk.Domain{}, nil, err
	}

	pressure, err := vtk.NewArray[T](spans, 1)
	if err != nil {
		return vtk.Domain{}, nil, err
	}
	velocity, err := vtk.NewArray[T](spans, 3)
	if err != nil {
		return vtk.Domain{}, nil, err
	}
	lx := float64(max(whole.Len(vtk.AxisX)-1, 1))
	ly := float64(max(whole.Len(vtk.AxisY)-1, 1))
	lz := float64(max(whole.Len(vtk.AxisZ)-1, 1))
	for i := range spans.Len(vtk.AxisX) {
		x := 2 * math.Pi * mesh.X[i] / lx
		for j := range spans.Len(vtk.AxisY) {
			y := 2 * math.Pi * mesh.Y[j] / ly
			for k := range spans.Len(vtk.AxisZ) {
				z := 0.0
				if spans.Dim() == 3 {
					z = 2 * math.Pi * mesh.Z[k] / lz
				}
				pressure.Set(i, j, k, 0, T(math.Cos(2*x)+math.Cos(2*y)+math.Cos(2*z)))
				velocity.Set(i, j, k, 0, T(math.Sin(x)*math.Cos(y)*math.Cos(z)))
				velocity.Set(i, j, k, 1, T(-math.Cos(x)*math.Sin(y)*math.Cos(z)))
			}
		}
	}

	p, err := vtk.NewNamedArray("pressure", pressure, vtk.Text, vtk.Inline)
	if err != nil {
		return vtk.Domain{}, nil, err
	}
	v, err := vtk.NewNamedArray("velocity", velocity, vtk.Text, vtk.Inline)
	if err != nil {
		return vtk.Domain{}, nil, err
	}
	return d, []vtk.NamedArray{p, v}, nil
}
