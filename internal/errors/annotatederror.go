package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// AnnotatedError includes more context than a plain error that is useful for troubleshooting.
type AnnotatedError struct {
	// msg is the error message.
	msg string
	// pc is the program counter for the location of the error provided by runtime.Callers.
	pc uintptr
	// attrs are slog attributes that are added to the log event to provide more context for the error.
	attrs []slog.Attr
	// err is the wrapped error, nil for errors created with New.
	err error
}

func newAnnotatedError(err error, msg string, attrs []slog.Attr) *AnnotatedError {
	var pcs [1]uintptr
	// Skip runtime.Callers, this function and the exported caller.
	runtime.Callers(3, pcs[:]) //nolint:mnd // see above
	return &AnnotatedError{
		msg:   msg,
		pc:    pcs[0],
		attrs: attrs,
		err:   err,
	}
}

// New creates a new AnnotatedError with the given message and attributes.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotatedError(nil, msg, attrs)
}

// Wrap annotates err with msg, the caller's source location and attrs.
//
// Returns nil if err is nil so that it's safe to use on the return value of a deferred Close.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return newAnnotatedError(err, msg, attrs)
}

// NewSentinel creates a plain error without other context that can be used as sentinel error that can be detected
// with errors.Is.
func NewSentinel(msg string) error {
	return errors.New(msg) //nolint:goerr113 // this is the sentinel constructor.
}

// Error implements error interface.
func (e *AnnotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.err.Error())
}

// Unwrap makes the wrapped error available to errors.Is and errors.As.
func (e *AnnotatedError) Unwrap() error {
	return e.err
}

// source returns file:line of the location where the error was created.
func (e *AnnotatedError) source() string {
	frames := runtime.CallersFrames([]uintptr{e.pc})
	frame, _ := frames.Next()
	return fmt.Sprintf("%s:%d", frame.File, frame.Line)
}

// LogValue formats the error for useful logging.
func (e *AnnotatedError) LogValue() slog.Value {
	attrs := append(
		[]slog.Attr{slog.String("source", e.source())},
		e.attrs...,
	)
	return slog.GroupValue(attrs...)
}

// SlogError renders err as a log attribute under the "error" key.
//
// The attribute contains the full error message and the source and attributes of every AnnotatedError in the chain
// so that the log line alone is enough to locate the failure.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	attrs := []slog.Attr{slog.String("message", err.Error())}
	var (
		annotated *AnnotatedError
		depth     int
	)
	for current := err; current != nil; current = errors.Unwrap(current) {
		if !errors.As(current, &annotated) {
			break
		}
		attrs = append(attrs, slog.Any(fmt.Sprintf("trace%d", depth), annotated.LogValue()))
		depth++
		current = annotated
	}
	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

// As exposes stdlib errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is exposes stdlib errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap exposes stdlib errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join exposes stdlib errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
