package api

import (
	"errors"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

// writeJSON encodes v with go-json; echo's default serializer is not used so
// that every response body goes through the same encoder as the CLI.
func writeJSON(c *echo.Context, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err = res.Write(data)
	return err
}

func writeError(c *echo.Context, err error) error {
	status, typ := classify(err)
	body := ResponseError{Message: err.Error(), Type: typ}
	var verr *vtk.Error
	if errors.As(err, &verr) {
		body.Kind = verr.Kind.Error()
		body.Array = verr.Array
	}
	if status == http.StatusInternalServerError {
		body.Message = "internal error"
	}
	return writeJSON(c, status, errorBody{Error: body})
}

// intQuery reads a non-negative integer query parameter.
func intQuery(c *echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, newInvalidRequest(name + " must be a non-negative integer")
	}
	return n, nil
}
