package detector

import "errors"

// ErrDetectionFailed matches every DetectionError via errors.Is.
var ErrDetectionFailed = errors.New("failed to detect system proxy")

// DetectionError reports that the OS-level proxy settings could not be read.
type DetectionError struct {
	Reason string
	Err    error
}

func newDetectionError(err error) *DetectionError {
	return &DetectionError{Reason: err.Error(), Err: err}
}

func (e *DetectionError) Error() string {
	return ErrDetectionFailed.Error() + ": " + e.Reason
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

func (e *DetectionError) Is(target error) bool {
	return target == ErrDetectionFailed
}
