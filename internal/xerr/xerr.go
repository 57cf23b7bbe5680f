// Package xerr defines the failure kinds surfaced by xscreen and the exit
// codes the CLI maps them to.
package xerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	ConnectionError Kind = iota + 1
	CompositorError
	ImageError
	InvalidRect
	InvalidPath
	Cancelled
	WindowDestroyed
	IOError
	InvalidArgument
)

// String returns the short name shown in error lines.
func (k Kind) String() string {
	switch k {
	case ConnectionError:
		return "ConnectionError"
	case CompositorError:
		return "CompositorError"
	case ImageError:
		return "ImageError"
	case InvalidRect:
		return "InvalidRect"
	case InvalidPath:
		return "InvalidPath"
	case Cancelled:
		return "Aborted"
	case WindowDestroyed:
		return "WindowDestroyed"
	case IOError:
		return "IOError"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Description is the human readable explanation of the kind.
func (k Kind) Description() string {
	switch k {
	case ConnectionError:
		return "Failed to connect to X"
	case CompositorError:
		return "A composite manager is required"
	case ImageError:
		return "Unable to get frame buffer from X"
	case InvalidRect:
		return "Invalid region: width or height cannot be 0px"
	case InvalidPath:
		return "Invalid path"
	case Cancelled:
		return "Operation aborted by user"
	case WindowDestroyed:
		return "Window destroyed by external means"
	case IOError:
		return "I/O failure"
	case InvalidArgument:
		return "Invalid arguments"
	default:
		return "Unknown failure"
	}
}

// Error implements error so a bare Kind can be used as a sentinel target:
// errors.Is(err, xerr.ImageError).
func (k Kind) Error() string {
	return k.Description()
}

// ExitCode maps the kind to the process exit status.
func (k Kind) ExitCode() int {
	switch k {
	case Cancelled:
		return 0
	case InvalidArgument, InvalidPath:
		return 2
	case ConnectionError:
		return 3
	case CompositorError:
		return 4
	default:
		return 1
	}
}

// Error is a failure of a given kind, optionally wrapping its cause.
type Error struct {
	Kind Kind
	Err  error
}

// New returns an Error of the given kind wrapping err (which may be nil).
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf returns an Error of the given kind with a formatted cause.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Description()
	}
	if e.Kind == IOError {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind.Description(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a bare Kind as well as another *Error of the same kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// KindOf returns the kind carried by err, falling back to IOError for
// untyped failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return IOError
}

// ExitCode returns the exit status for err; nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
