package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/vtkgrid/pkg/vtk"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string { return e.msg }

func (e invalidRequestError) Unwrap() error { return ErrInvalidRequest }

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps an error to an HTTP status and error type.
func classify(err error) (int, string) {
	var verr *vtk.Error
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, ErrNotFound), errors.Is(err, vtk.ErrMissingArray):
		return http.StatusNotFound, "not_found_error"
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "invalid_document_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
