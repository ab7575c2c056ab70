package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks a bad call. Callers should fix the arguments
	// rather than retry.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCorruptData marks an encoded matrix that failed validation. Callers
	// should discard the snapshot and fall back to a fresh matrix or an
	// earlier one.
	ErrCorruptData = errors.New("corrupt data")
)

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// CorruptDataError describes where decoding stopped.
type CorruptDataError struct {
	Offset int
	Reason string
}

func (e *CorruptDataError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("corrupt data at offset %d: %s", e.Offset, e.Reason)
}

func (e *CorruptDataError) Is(target error) bool { return target == ErrCorruptData }

func corruptAt(offset int, format string, args ...any) error {
	return &CorruptDataError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
