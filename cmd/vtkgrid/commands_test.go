package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vtkgrid/internal/report"
	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

// run executes the CLI with args and returns its stdout.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	var exitErr error
	app.ExitErrHandler = func(_ context.Context, _ *cli.Command, err error) { exitErr = err }

	cfg := filepath.Join(t.TempDir(), "missing.yaml")
	full := append([]string{"vtkgrid", "--config", cfg, "--log-level", "error"}, args...)
	if err := app.Run(context.Background(), full); err != nil {
		t.Fatalf("vtkgrid %v: %v", args, err)
	}
	if exitErr != nil {
		t.Fatalf("vtkgrid %v: %v", args, exitErr)
	}
	return out.String()
}

func TestSampleInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.vtr")
	run(t, "sample", "--out", path, "--nx", "5", "--ny", "4", "--nz", "3", "--encoding", "base64", "--appended")

	sum, err := report.Decode([]byte(run(t, "inspect", "--json", "--stats", path)))
	if err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Dim != 3 || sum.Points != 60 {
		t.Fatalf("unexpected shape: dim=%d points=%d", sum.Dim, sum.Points)
	}
	if diff := cmp.Diff([]int{0, 5, 0, 4, 0, 3}, sum.Extent); diff != "" {
		t.Fatalf("extent mismatch (-want +got):\n%s", diff)
	}
	var names []string
	for _, a := range sum.Arrays {
		names = append(names, a.Name)
		if a.Placement != "appended" || a.Stats == nil {
			t.Fatalf("array %s: placement=%s stats=%v", a.Name, a.Placement, a.Stats)
		}
	}
	if diff := cmp.Diff([]string{"pressure", "velocity"}, names); diff != "" {
		t.Fatalf("arrays mismatch (-want +got):\n%s", diff)
	}
	if sum.Appended == nil || sum.Appended.Encoding != "base64" || len(sum.Appended.Blocks) != 5 {
		t.Fatalf("unexpected appended section: %+v", sum.Appended)
	}
}

func TestConvertKeepsValues(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.vtr")
	dst := filepath.Join(dir, "dst.vtr")
	run(t, "sample", "--out", src, "--nx", "6", "--ny", "3", "--precision", "Float32")
	run(t, "convert", "--in", src, "--out", dst, "--encoding", "text", "--byte-order", "BigEndian")

	for _, name := range []string{"pressure", "velocity"} {
		want := run(t, "inspect", "--values", name, src)
		got := run(t, "inspect", "--values", name, dst)
		if want != got {
			t.Fatalf("%s changed after convert", name)
		}
	}

	doc, err := vtk.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = doc.Close() }()
	if _, ok := doc.AppendedEncoding(); ok {
		t.Fatal("text document should have no appended section")
	}
	if doc.Precision() != vtk.Float32 || doc.Domain().Spans.Dim() != 2 {
		t.Fatalf("precision=%s dim=%d", doc.Precision(), doc.Domain().Spans.Dim())
	}
}

func TestMergePieces(t *testing.T) {
	dir := t.TempDir()
	whole := filepath.Join(dir, "whole.vtr")
	stem := filepath.Join(dir, "piece.vtr")
	merged := filepath.Join(dir, "merged.vtr")

	run(t, "sample", "--out", whole, "--nx", "9", "--ny", "4", "--nz", "2")
	run(t, "sample", "--out", stem, "--nx", "9", "--ny", "4", "--nz", "2", "--pieces", "3")
	run(t, "merge", "--out", merged, "--encoding", "raw",
		filepath.Join(dir, "piece_0.vtr"), filepath.Join(dir, "piece_1.vtr"), filepath.Join(dir, "piece_2.vtr"))

	for _, name := range []string{"pressure", "velocity"} {
		if want, got := run(t, "inspect", "--values", name, whole), run(t, "inspect", "--values", name, merged); want != got {
			t.Fatalf("%s differs between the whole grid and the merged pieces", name)
		}
	}
}

func TestSplitX(t *testing.T) {
	whole, err := vtk.NewSpans2D(0, 9, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	parts, err := splitX(whole, 3)
	if err != nil {
		t.Fatal(err)
	}
	var got [][]int
	for _, p := range parts {
		got = append(got, p.Bounds())
	}
	want := [][]int{{0, 3, 0, 2}, {2, 6, 0, 2}, {5, 9, 0, 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pieces mismatch (-want +got):\n%s", diff)
	}
	if _, err := splitX(whole, 9); err == nil {
		t.Fatal("expected error for more pieces than cells")
	}
}

func TestInspectPinnedDimension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thin.vtr")
	run(t, "sample", "--out", path, "--nx", "4", "--ny", "3", "--nz", "1")

	for _, tc := range []struct {
		dim  string
		want int
	}{
		{"0", 2},
		{"3", 3},
	} {
		sum, err := report.Decode([]byte(run(t, "inspect", "--json", "--dim", tc.dim, path)))
		if err != nil {
			t.Fatalf("decode summary: %v", err)
		}
		if sum.Dim != tc.want || sum.Points != 12 {
			t.Fatalf("--dim %s: dim=%d points=%d, want dim=%d points=12", tc.dim, sum.Dim, sum.Points, tc.want)
		}
	}
}

func TestWithWholeCopiesOptions(t *testing.T) {
	dir := t.TempDir()
	settings, err := (&wireFlags{encoding: "raw", byteOrder: "BigEndian"}).parse()
	if err != nil {
		t.Fatal(err)
	}
	settings.opts = append(make([]vtk.WriteOption, 0, 8), settings.opts...)

	piece, err := vtk.NewSpans2D(0, 2, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	wide, err := vtk.NewSpans2D(0, 4, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	tall, err := vtk.NewSpans2D(0, 2, 0, 5)
	if err != nil {
		t.Fatal(err)
	}
	d, arrays, err := sampleGrid[float64](piece, piece)
	if err != nil {
		t.Fatal(err)
	}
	d, arrays = settings.apply(d, arrays)

	first := settings.withWhole(wide)
	second := settings.withWhole(tall)
	if len(settings.opts) != 2 {
		t.Fatalf("withWhole changed the shared options: %d", len(settings.opts))
	}
	for _, tc := range []struct {
		name  string
		opts  []vtk.WriteOption
		whole vtk.Spans
	}{
		{"wide.vtr", first, wide},
		{"tall.vtr", second, tall},
	} {
		path := filepath.Join(dir, tc.name)
		if err := writeDocument(context.Background(), path, d, arrays, tc.opts...); err != nil {
			t.Fatalf("write %s: %v", tc.name, err)
		}
		doc, err := vtk.Open(path)
		if err != nil {
			t.Fatalf("open %s: %v", tc.name, err)
		}
		whole, order := doc.Whole(), doc.ByteOrder()
		_ = doc.Close()
		if whole != tc.whole || order != vtk.BigEndian {
			t.Fatalf("%s: whole=%v order=%s, want %v BigEndian", tc.name, whole, order, tc.whole)
		}
	}
}
