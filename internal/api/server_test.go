package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/vtkgrid/internal/report"
	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

func writeGrid(t *testing.T, path string, values []float64) {
	t.Helper()
	spans, err := vtk.NewSpans2D(0, 2, 0, len(values)/2)
	if err != nil {
		t.Fatalf("spans: %v", err)
	}
	ys := make([]float64, len(values)/2)
	for i := range ys {
		ys[i] = float64(i)
	}
	d, err := vtk.BuildDomain(vtk.Mesh{X: []float64{0, 1}, Y: ys, Encoding: vtk.Base64}, spans)
	if err != nil {
		t.Fatalf("domain: %v", err)
	}
	a, err := vtk.FromFlat(spans, 1, values)
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	rho, err := vtk.NewNamedArray("rho", a, vtk.Raw, vtk.Appended)
	if err != nil {
		t.Fatalf("named: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = f.Close() }()
	if err := vtk.Write(context.Background(), f, d, []vtk.NamedArray{rho}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newTestEcho(t *testing.T) (*echo.Echo, string) {
	t.Helper()
	dir := t.TempDir()
	writeGrid(t, filepath.Join(dir, "grid.vtr"), []float64{1, 2, 3, 4, 5, 6})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a grid"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.vtr"), []byte(`<VTKFile type="PolyData"></VTKFile>`), 0o644); err != nil {
		t.Fatalf("write broken: %v", err)
	}

	catalog := NewCatalog(dir)
	t.Cleanup(func() { _ = catalog.Close() })
	e := echo.New()
	NewServer(catalog, nil).Register(e)
	return e, dir
}

func doGet(t *testing.T, e *echo.Echo, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListFiles(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/v1/files")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var list FileList
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var names []string
	for _, f := range list.Data {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"broken.vtr", "grid.vtr"}, names); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

func TestGetFileSummary(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/v1/files/grid.vtr?stats=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	sum, err := report.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.File != "grid.vtr" || sum.Points != 6 || len(sum.Arrays) != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if st := sum.Arrays[0].Stats; st == nil || st.Min != 1 || st.Max != 6 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if sum.Appended == nil || sum.Appended.Encoding != "raw" {
		t.Fatalf("expected raw appended section: %+v", sum.Appended)
	}
}

func TestGetArrayWindow(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/v1/files/grid.vtr/arrays/rho?offset=1&limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var got ArrayValues
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := ArrayValues{
		File:       "grid.vtr",
		Name:       "rho",
		Precision:  "Float64",
		Components: 1,
		Extent:     []int{0, 2, 0, 3},
		Len:        6,
		Offset:     1,
		Values:     []float64{2, 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("array (-want +got):\n%s", diff)
	}
}

func TestErrorResponses(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	tests := []struct {
		path   string
		status int
		typ    string
		kind   string
	}{
		{"/v1/files/missing.vtr", http.StatusNotFound, "not_found_error", ""},
		{"/v1/files/grid.vtr/arrays/nope", http.StatusNotFound, "not_found_error", "missing array"},
		{"/v1/files/notes.txt", http.StatusBadRequest, "invalid_request_error", ""},
		{"/v1/files/broken.vtr", http.StatusUnprocessableEntity, "invalid_document_error", "unsupported dataset type"},
		{"/v1/files/grid.vtr/arrays/rho?limit=abc", http.StatusBadRequest, "invalid_request_error", ""},
	}
	for _, tc := range tests {
		rec := doGet(t, e, tc.path)
		if rec.Code != tc.status {
			t.Fatalf("%s: status got %d want %d body=%s", tc.path, rec.Code, tc.status, rec.Body.String())
		}
		var body errorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", tc.path, err)
		}
		if body.Error.Type != tc.typ || body.Error.Kind != tc.kind {
			t.Fatalf("%s: unexpected error body %+v", tc.path, body.Error)
		}
	}
}

func TestCatalogReopensChangedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "grid.vtr")
	writeGrid(t, path, []float64{1, 2})
	catalog := NewCatalog(dir)
	defer func() { _ = catalog.Close() }()

	read := func() []float64 {
		var out []float64
		err := catalog.WithDocument("grid.vtr", func(doc *vtk.Document) error {
			var err error
			out, err = doc.Values("rho")
			return err
		})
		if err != nil {
			t.Fatalf("with document: %v", err)
		}
		return out
	}
	if diff := cmp.Diff([]float64{1, 2}, read()); diff != "" {
		t.Fatalf("first read (-want +got):\n%s", diff)
	}
	writeGrid(t, path, []float64{7, 8, 9, 10})
	if diff := cmp.Diff([]float64{7, 8, 9, 10}, read()); diff != "" {
		t.Fatalf("after rewrite (-want +got):\n%s", diff)
	}
}
