package render_target

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroSize is returned when the factory has no backing surface size.
	ErrZeroSize = errors.New("render target size must be non-zero")
	// ErrTooManyAttachments is returned when a config asks for more attachments than a pass can write.
	ErrTooManyAttachments = errors.New("too many attachments")
	// ErrDuplicateTarget is returned when a target name is reused.
	ErrDuplicateTarget = errors.New("duplicate render target name")
)

// ResourceAllocationError reports that the backing surface of a render target could not be created.
// It is fatal: pipeline construction aborts.
type ResourceAllocationError struct {
	Target string
	Slot   int
	Err    error
}

func (e *ResourceAllocationError) Error() string {
	if e.Slot < 0 {
		return fmt.Sprintf("render target %q: allocation failed: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("render target %q slot %d: allocation failed: %v", e.Target, e.Slot, e.Err)
}

func (e *ResourceAllocationError) Unwrap() error {
	return e.Err
}
