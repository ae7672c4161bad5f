package link

import (
	"errors"
	"fmt"
)

// ErrUnsupportedScheme marks link schemes that are recognized but not
// handled (ss, trojan, ...). Callers report these instead of silently
// dropping the line.
var ErrUnsupportedScheme = errors.New("link scheme not supported")

// DecodeError wraps a per-link parse failure. Batch callers skip the
// offending line and continue.
type DecodeError struct {
	Scheme string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s link: %v", e.Scheme, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(scheme string, format string, args ...any) error {
	return &DecodeError{Scheme: scheme, Err: fmt.Errorf(format, args...)}
}
