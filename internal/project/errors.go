package project

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the registry, the factory and the
// folder opener matches exactly one of them under errors.Is.
var (
	ErrIO        = errors.New("i/o failure")
	ErrParse     = errors.New("malformed data")
	ErrSerialize = errors.New("serialization failure")
	ErrNotFound  = errors.New("project not found")
)

// OpError describes a failed step. Op is a human-readable description of the
// step, e.g. "Failed to read projects file".
type OpError struct {
	Kind error
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the underlying cause (e.g. fs.ErrPermission).
func (e *OpError) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *OpError) Is(target error) bool {
	return target == e.Kind
}

// IOError wraps a filesystem or process failure.
func IOError(op string, err error) error {
	return &OpError{Kind: ErrIO, Op: op, Err: err}
}

// ParseError wraps a deserialization failure.
func ParseError(op string, err error) error {
	return &OpError{Kind: ErrParse, Op: op, Err: err}
}

// SerializeError wraps a serialization failure.
func SerializeError(op string, err error) error {
	return &OpError{Kind: ErrSerialize, Op: op, Err: err}
}

// NotFoundError reports an unknown project id.
func NotFoundError(id string) error {
	return &OpError{Kind: ErrNotFound, Op: "Project not found", Err: fmt.Errorf("id %q", id)}
}
