package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vtkgrid/internal/logger"
	"github.com/samcharles93/vtkgrid/internal/report"
	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

func inspectCmd() *cli.Command {
	var (
		file   string
		asJSON bool
		stats  bool
		head   int64
		values string
		dim    int64
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Describe a .vtr file: extents, coordinates, arrays and appended blocks",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "input .vtr file (or pass it as the argument)",
				Destination: &file,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the summary as JSON",
				Destination: &asJSON,
			},
			&cli.BoolFlag{
				Name:        "stats",
				Usage:       "decode every array and report min, max and mean",
				Destination: &stats,
			},
			&cli.Int64Flag{
				Name:        "head",
				Usage:       "include the first N values of each array",
				Destination: &head,
			},
			&cli.StringFlag{
				Name:        "values",
				Usage:       "print every value of the named array in wire order, one per line",
				Destination: &values,
			},
			dimFlag(&dim),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			path := file
			if path == "" {
				path = cmd.Args().First()
			}
			if path == "" {
				return cli.Exit("error: inspect requires a FILE argument", 1)
			}

			doc, err := vtk.Open(path, parseOptions(dim)...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = doc.Close() }()
			log.Debug("opened document", "path", path, "arrays", len(doc.Arrays()), "precision", doc.Precision())

			out := stdout(cmd)
			if values != "" {
				vs, err := doc.Values(values)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				buf := make([]byte, 0, 32)
				for _, v := range vs {
					buf = strconv.AppendFloat(buf[:0], v, 'g', -1, 64)
					buf = append(buf, '\n')
					if _, err := out.Write(buf); err != nil {
						return err
					}
				}
				return nil
			}

			sum, err := report.Summarize(doc, report.Options{Stats: stats, Head: int(head)})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if asJSON {
				data, err := sum.JSON(true)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			return sum.WriteText(out)
		},
	}
}
