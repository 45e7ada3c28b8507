package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vtkgrid/internal/logger"
	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

func convertCmd() *cli.Command {
	var (
		in, out string
		dim     int64
		wire    wireFlags
	)

	return &cli.Command{
		Name:  "convert",
		Usage: "Re-encode a .vtr file with a different encoding, byte order or header type",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Aliases:     []string{"i"},
				Usage:       "input .vtr file",
				Required:    true,
				Destination: &in,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output .vtr file",
				Required:    true,
				Destination: &out,
			},
			dimFlag(&dim),
		}, wire.flags(vtk.Base64.String())...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyWireConfig(cmd, loaded, &wire)
			settings, err := wire.parse()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			doc, err := vtk.Open(in, parseOptions(dim)...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = doc.Close() }()

			arrays, err := doc.NamedArrays()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			d, arrays := settings.apply(doc.Domain(), arrays)
			opts := settings.withWhole(doc.Whole())
			if err := writeDocument(ctx, out, d, arrays, opts...); err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", out, err), 1)
			}
			log.Info("converted document",
				"in", in, "out", out,
				"encoding", settings.enc.Encoding, "placement", settings.enc.Placement,
				"arrays", len(arrays))
			return nil
		},
	}
}
