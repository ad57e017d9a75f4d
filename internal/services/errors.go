package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
)

// APIError is a response with a non-2xx status. Message and Fields come from
// the backend's error body when it sent one.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
	Message    string
	Fields     []models.FieldError
	Body       []byte
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

func (e *APIError) Unauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) NotFound() bool     { return e.StatusCode == http.StatusNotFound }

// newAPIError decodes body as [models.ErrorResponse] when possible.
func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, StatusCode: status, Body: body}

	var er models.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		e.Code = er.Code
		e.Message = er.Message
		e.Fields = er.Errors
	}
	return e
}

// NetworkError is a request that produced no response: a transport failure,
// a timeout, or a cancelled context. It has no status code.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", shared.ErrNetwork, e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	errs := []error{shared.ErrNetwork, e.Err}
	if e.Timeout() {
		errs = append(errs, shared.ErrTimeout)
	}
	return errs
}

// Timeout reports whether the request ran out of time.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// StatusCode extracts the HTTP status from err, or 0 when there was no response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
