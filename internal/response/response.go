package response

import (
	"encoding/json"
	"fmt"
	"io"
)

// Status is the outcome of an operation. On the wire it is a JSON boolean.
type Status int

const (
	Failure Status = iota
	Success
)

func (s Status) String() string {
	if s == Success {
		return "success"
	}
	return "failure"
}

func (s Status) MarshalJSON() ([]byte, error) {
	if s == Success {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("status must be a boolean: %w", err)
	}
	if v {
		*s = Success
	} else {
		*s = Failure
	}
	return nil
}

// Response is the result envelope printed by every CLI command and returned
// by the HTTP control API.
type Response struct {
	Status  Status `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func empty() map[string]any { return map[string]any{} }

func Succeed(data any, message string) Response {
	if data == nil {
		data = empty()
	}
	return Response{Status: Success, Data: data, Message: message}
}

func Fail(data any, message string) Response {
	if data == nil {
		data = empty()
	}
	return Response{Status: Failure, Data: data, Message: message}
}

func Err(message string) Response { return Fail(nil, message) }

// FromError builds a failure response carrying err's message, or a success
// response with message when err is nil.
func FromError(data any, message string, err error) Response {
	if err != nil {
		return Fail(data, err.Error())
	}
	return Succeed(data, message)
}

func (r Response) Succeeded() bool { return r.Status == Success }

// Write prints r as a single JSON line.
func (r Response) Write(w io.Writer) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
