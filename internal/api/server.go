// Package api exposes a directory of grid documents over HTTP.
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/vtkgrid/internal/logger"
	"github.com/samcharles93/vtkgrid/internal/report"
	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

// DefaultValueLimit caps the number of values returned by one array request.
const DefaultValueLimit = 4096

type Server struct {
	catalog    *Catalog
	log        logger.Logger
	valueLimit int
}

func NewServer(catalog *Catalog, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{catalog: catalog, log: log, valueLimit: DefaultValueLimit}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/files", s.handleListFiles)
	e.GET("/v1/files/:name", s.handleGetFile)
	e.GET("/v1/files/:name/arrays/:array", s.handleGetArray)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListFiles(c *echo.Context) error {
	files, err := s.catalog.List()
	if err != nil {
		return s.fail(c, err)
	}
	return writeJSON(c, http.StatusOK, FileList{Object: "list", Data: files})
}

func (s *Server) handleGetFile(c *echo.Context) error {
	name := c.Param("name")
	opts := report.Options{Stats: boolQuery(c, "stats")}
	head, err := intQuery(c, "head", 0)
	if err != nil {
		return s.fail(c, err)
	}
	opts.Head = min(head, s.valueLimit)

	var sum report.Summary
	err = s.catalog.WithDocument(name, func(doc *vtk.Document) error {
		var err error
		sum, err = report.Summarize(doc, opts)
		return err
	})
	if err != nil {
		return s.fail(c, err)
	}
	sum.File = name
	return writeJSON(c, http.StatusOK, sum)
}

func (s *Server) handleGetArray(c *echo.Context) error {
	name, array := c.Param("name"), c.Param("array")
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		return s.fail(c, err)
	}
	limit, err := intQuery(c, "limit", s.valueLimit)
	if err != nil {
		return s.fail(c, err)
	}
	limit = min(limit, s.valueLimit)

	var out ArrayValues
	err = s.catalog.WithDocument(name, func(doc *vtk.Document) error {
		h, ok := doc.Handle(array)
		if !ok {
			return &vtk.Error{Kind: vtk.ErrMissingArray, Array: array}
		}
		values, err := doc.Values(array)
		if err != nil {
			return err
		}
		start := min(offset, len(values))
		end := min(start+limit, len(values))
		out = ArrayValues{
			File:       name,
			Name:       array,
			Precision:  h.Precision.String(),
			Components: h.Components,
			Extent:     doc.Domain().Spans.Bounds(),
			Len:        len(values),
			Offset:     start,
			Values:     values[start:end],
		}
		return nil
	})
	if err != nil {
		return s.fail(c, err)
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) fail(c *echo.Context, err error) error {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
	} else {
		s.log.Debug("request rejected", "path", c.Request().URL.Path, "status", status, "error", err)
	}
	return writeError(c, err)
}

func boolQuery(c *echo.Context, name string) bool {
	q := c.QueryParam(name)
	return q == "1" || strings.EqualFold(q, "true")
}
