package referenceframe

import "github.com/pkg/errors"

// NewParentFrameMissingError returns an error indicating that a frame was created without a parent.
func NewParentFrameMissingError(frameName string) error {
	return errors.Errorf("frame %q has no parent frame", frameName)
}

// NewDisconnectedFramesError returns an error indicating that two frames do not share a tree,
// so no transform between them exists.
func NewDisconnectedFramesError(frame, other *Frame) error {
	return errors.Errorf("frames %q and %q are not connected to a common root", frame.Name(), other.Name())
}

// NewFrameMismatchError returns the error raised when an operation combining two
// frame-tagged quantities finds unequal frames. This always indicates a caller bug;
// the operation is not applied.
func NewFrameMismatchError(expected, actual *Frame) error {
	return errors.Errorf("frame mismatch: expected frame %q but got %q", expected.Name(), actual.Name())
}
