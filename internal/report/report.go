// Package report summarises parsed grid documents for people and for JSON
// consumers.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

type Summary struct {
	File        string          `json:"file,omitempty"`
	Dim         int             `json:"dim"`
	Precision   string          `json:"precision"`
	ByteOrder   string          `json:"byte_order"`
	HeaderType  string          `json:"header_type"`
	WholeExtent []int           `json:"whole_extent"`
	Extent      []int           `json:"extent"`
	Points      int             `json:"points"`
	Axes        []AxisSummary   `json:"axes"`
	Arrays      []ArraySummary  `json:"arrays"`
	Appended    *AppendedBlocks `json:"appended,omitempty"`
}

type AxisSummary struct {
	Axis  string  `json:"axis"`
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type ArraySummary struct {
	Name       string    `json:"name"`
	Components int       `json:"components"`
	Encoding   string    `json:"encoding"`
	Placement  string    `json:"placement"`
	Offset     *int64    `json:"offset,omitempty"`
	Len        int       `json:"len"`
	Stats      *Stats    `json:"stats,omitempty"`
	Head       []float64 `json:"head,omitempty"`
}

// Stats ignores NaN values; Count is the number of values included.
type Stats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

type AppendedBlocks struct {
	Encoding string  `json:"encoding"`
	Length   int64   `json:"length"`
	Blocks   []Block `json:"blocks"`
}

type Block struct {
	Name   string `json:"name"`
	Offset int64  `json:"offset"`
	Length int64  `json:"length"`
}

// Options controls how much array content is decoded.
type Options struct {
	// Stats decodes every array to compute min, max and mean.
	Stats bool
	// Head includes up to Head leading values of each array in wire order.
	Head int
}

// Summarize describes doc. Array values are decoded only when opts asks for
// them.
func Summarize(doc *vtk.Document, opts Options) (Summary, error) {
	d := doc.Domain()
	s := Summary{
		Dim:         d.Spans.Dim(),
		Precision:   doc.Precision().String(),
		ByteOrder:   doc.ByteOrder().String(),
		HeaderType:  doc.HeaderType().String(),
		WholeExtent: doc.Whole().Bounds(),
		Extent:      d.Spans.Bounds(),
		Points:      d.Spans.Points(),
	}
	for a := vtk.AxisX; a <= vtk.AxisZ; a++ {
		xs := d.Mesh.Axis(a)
		if len(xs) == 0 {
			continue
		}
		s.Axes = append(s.Axes, AxisSummary{Axis: a.String(), Count: len(xs), Min: xs[0], Max: xs[len(xs)-1]})
	}

	for _, h := range doc.Arrays() {
		as := ArraySummary{
			Name:       h.Name,
			Components: h.Components,
			Encoding:   h.Encoding.String(),
			Placement:  h.Placement.String(),
			Len:        d.Spans.ArrayLen(h.Components),
		}
		if h.Placement == vtk.Appended {
			off := h.Offset
			as.Offset = &off
		}
		if opts.Stats || opts.Head > 0 {
			values, err := doc.Values(h.Name)
			if err != nil {
				return Summary{}, err
			}
			if opts.Stats {
				st := ComputeStats(values)
				as.Stats = &st
			}
			if opts.Head > 0 {
				as.Head = values[:min(opts.Head, len(values))]
			}
		}
		s.Arrays = append(s.Arrays, as)
	}

	if enc, ok := doc.AppendedEncoding(); ok {
		ab := &AppendedBlocks{Encoding: enc.String(), Length: doc.AppendedLen()}
		for _, slot := range doc.Offsets() {
			ab.Blocks = append(ab.Blocks, Block{Name: slot.Name, Offset: slot.Offset, Length: slot.Length})
		}
		s.Appended = ab
	}
	return s, nil
}

func ComputeStats(values []float64) Stats {
	st := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		st.Count++
		st.Min = min(st.Min, v)
		st.Max = max(st.Max, v)
		sum += v
	}
	if st.Count == 0 {
		return Stats{}
	}
	st.Mean = sum / float64(st.Count)
	return st
}

func (s Summary) JSON(indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(s, "", "  ")
	}
	return json.Marshal(s)
}

func Decode(data []byte) (Summary, error) {
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}

// WriteText renders s as aligned columns.
func (s Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if s.File != "" {
		fmt.Fprintf(tw, "file\t%s\n", s.File)
	}
	fmt.Fprintf(tw, "grid\t%dD, %d points, %s\n", s.Dim, s.Points, s.Precision)
	fmt.Fprintf(tw, "extent\t%s\n", joinInts(s.Extent))
	fmt.Fprintf(tw, "whole extent\t%s\n", joinInts(s.WholeExtent))
	fmt.Fprintf(tw, "byte order\t%s (%s headers)\n", s.ByteOrder, s.HeaderType)
	for _, a := range s.Axes {
		fmt.Fprintf(tw, "axis %s\t%d points in [%g, %g]\n", a.Axis, a.Count, a.Min, a.Max)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "ARRAY\tCOMPONENTS\tENCODING\tPLACEMENT\tOFFSET\tSTATS")
	for _, a := range s.Arrays {
		off := "-"
		if a.Offset != nil {
			off = fmt.Sprint(*a.Offset)
		}
		stats := "-"
		if a.Stats != nil {
			stats = fmt.Sprintf("min=%g max=%g mean=%g", a.Stats.Min, a.Stats.Max, a.Stats.Mean)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", a.Name, a.Components, a.Encoding, a.Placement, off, stats)
		if len(a.Head) > 0 {
			fmt.Fprintf(tw, "\t%v\n", a.Head)
		}
	}
	if s.Appended != nil {
		fmt.Fprintf(tw, "\nappended\t%s, %d units, %d blocks\n", s.Appended.Encoding, s.Appended.Length, len(s.Appended.Blocks))
	}
	return tw.Flush()
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}
