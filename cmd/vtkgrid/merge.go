package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vtkgrid/internal/logger"
	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

func mergeCmd() *cli.Command {
	var (
		out  string
		dim  int64
		wire wireFlags
	)

	return &cli.Command{
		Name:      "merge",
		Usage:     "Stitch piece files that tile one whole extent into a single .vtr file",
		ArgsUsage: "PIECE...",
		Flags: append([]cli.Flag{
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
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return cli.Exit("error: merge requires at least one PIECE argument", 1)
			}
			applyWireConfig(cmd, loaded, &wire)
			settings, err := wire.parse()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			docs := make([]*vtk.Document, 0, len(paths))
			defer func() {
				for _, doc := range docs {
					_ = doc.Close()
				}
			}()
			for _, path := range paths {
				doc, err := vtk.Open(path, parseOptions(dim)...)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				log.Debug("opened piece", "path", path, "extent", doc.Domain().Spans.Extent())
				docs = append(docs, doc)
			}

			d, arrays, err := vtk.CombineDocuments(docs...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: merge: %v", err), 1)
			}
			d, arrays = settings.apply(d, arrays)
			if err := writeDocument(ctx, out, d, arrays, settings.opts...); err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", out, err), 1)
			}
			log.Info("merged pieces", "pieces", len(docs), "out", out, "extent", d.Spans.Extent())
			return nil
		},
	}
}
