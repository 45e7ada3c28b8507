package report

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

func sampleDoc(t *testing.T) *vtk.Document {
	t.Helper()
	spans, err := vtk.NewSpans2D(0, 3, 0, 2)
	if err != nil {
		t.Fatalf("spans: %v", err)
	}
	d, err := vtk.BuildDomain(vtk.Mesh{X: []float64{0, 1, 2}, Y: []float64{-1, 1}}, spans)
	if err != nil {
		t.Fatalf("domain: %v", err)
	}
	rho, err := vtk.FromFlat(spans, 1, []float64{1, 2, 3, 4, 5, math.NaN()})
	if err != nil {
		t.Fatalf("rho: %v", err)
	}
	vel, err := vtk.NewArray[float64](spans, 3)
	if err != nil {
		t.Fatalf("velocity: %v", err)
	}
	a, err := vtk.NewNamedArray("rho", rho, vtk.Text, vtk.Inline)
	if err != nil {
		t.Fatalf("named rho: %v", err)
	}
	b, err := vtk.NewNamedArray("velocity", vel, vtk.Raw, vtk.Appended)
	if err != nil {
		t.Fatalf("named velocity: %v", err)
	}
	var buf bytes.Buffer
	if err := vtk.Write(context.Background(), &buf, d, []vtk.NamedArray{a, b}); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := vtk.ParseBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s, err := Summarize(sampleDoc(t), Options{Stats: true, Head: 2})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Dim != 2 || s.Points != 6 || s.Precision != "Float64" {
		t.Fatalf("unexpected header: %+v", s)
	}
	if diff := cmp.Diff([]int{0, 3, 0, 2}, s.Extent); diff != "" {
		t.Fatalf("extent (-want +got):\n%s", diff)
	}
	wantAxes := []AxisSummary{{Axis: "x", Count: 3, Min: 0, Max: 2}, {Axis: "y", Count: 2, Min: -1, Max: 1}}
	if diff := cmp.Diff(wantAxes, s.Axes); diff != "" {
		t.Fatalf("axes (-want +got):\n%s", diff)
	}
	if len(s.Arrays) != 2 {
		t.Fatalf("expected 2 arrays, got %d", len(s.Arrays))
	}
	rho := s.Arrays[0]
	if rho.Offset != nil || rho.Encoding != "text" {
		t.Fatalf("rho should be inline text: %+v", rho)
	}
	if diff := cmp.Diff(&Stats{Count: 5, Min: 1, Max: 5, Mean: 3}, rho.Stats); diff != "" {
		t.Fatalf("stats (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2}, rho.Head); diff != "" {
		t.Fatalf("head (-want +got):\n%s", diff)
	}
	vel := s.Arrays[1]
	if vel.Offset == nil || *vel.Offset != 0 || vel.Len != 18 {
		t.Fatalf("velocity should be appended at 0: %+v", vel)
	}
	if s.Appended == nil || s.Appended.Encoding != "raw" || len(s.Appended.Blocks) != 1 {
		t.Fatalf("appended summary: %+v", s.Appended)
	}
	if s.Appended.Blocks[0].Length != 8+18*8 || s.Appended.Length != s.Appended.Blocks[0].Length {
		t.Fatalf("appended lengths: %+v", s.Appended)
	}
}

func TestSummaryJSONRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := Summarize(sampleDoc(t), Options{})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	s.File = "grid.vtr"
	data, err := s.JSON(true)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if !bytes.Contains(data, []byte(`"byte_order": "LittleEndian"`)) {
		t.Fatalf("unexpected json:\n%s", data)
	}
	if bytes.Contains(data, []byte(`"stats"`)) {
		t.Fatalf("stats must be omitted when not requested:\n%s", data)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(s, back); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	s, err := Summarize(sampleDoc(t), Options{Stats: true})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	var buf bytes.Buffer
	if err := s.WriteText(&buf); err != nil {
		t.Fatalf("write text: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2D, 6 points, Float64", "rho", "velocity", "min=1 max=5 mean=3", "raw, 152 units, 1 blocks"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	t.Parallel()

	if got := ComputeStats([]float64{math.NaN()}); got != (Stats{}) {
		t.Fatalf("all-NaN stats: got %+v", got)
	}
}
