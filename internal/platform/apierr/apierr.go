package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type Error struct {
	Status int
	Code   string
	Err    error
	// Fields maps a form field path (e.g. "material_items[1].lot_number")
	// to its problem.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(what string) *Error {
	return New(http.StatusNotFound, "not_found", fmt.Errorf("%s not found", what))
}

// Validation returns a 400 carrying per-field messages. The message lists the
// offending fields in stable order.
func Validation(fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Error{
		Status: http.StatusBadRequest,
		Code:   "validation_failed",
		Err:    fmt.Errorf("invalid input: %s", strings.Join(keys, ", ")),
		Fields: fields,
	}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}
