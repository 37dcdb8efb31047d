package main

import (
	"errors"
	"io"

	"github.com/loykin/gerdoo-launcher/internal/response"
)

// errReported means a failure response has already been printed; main only
// sets the exit code.
var errReported = errors.New("command failed")

// emit prints r as one JSON line and maps a failure to errReported.
func emit(w io.Writer, r response.Response) error {
	if err := r.Write(w); err != nil {
		return err
	}
	if !r.Succeeded() {
		return errReported
	}
	return nil
}

// emitErr prints a failure response carrying err.
func emitErr(w io.Writer, err error) error {
	return emit(w, response.Err(err.Error()))
}
