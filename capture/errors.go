package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled is returned by Capture when the task type is None.
	ErrDisabled = errors.New("capture: disabled")

	// ErrVerification is wrapped by every *VerificationError.
	ErrVerification = errors.New("capture: verification failed")
)

// VerificationError reports an Added or Changed result under a verifying
// task type. It carries the paths a developer needs to inspect the
// difference.
type VerificationError struct {
	Kind        Kind
	GoldenPath  string
	ComparePath string
	ActualPath  string

	// DiffPercentage is the fraction of differing pixels, NaN when the
	// images could not be compared.
	DiffPercentage float64
}

func (e *VerificationError) Error() string {
	if e.Kind == KindAdded {
		return fmt.Sprintf("capture: golden image %s does not exist; compare image: %s, actual image: %s",
			e.GoldenPath, e.ComparePath, e.ActualPath)
	}
	return fmt.Sprintf("capture: %s changed (diff %s); compare image: %s, actual image: %s",
		e.GoldenPath, formatPercentage(e.DiffPercentage), e.ComparePath, e.ActualPath)
}

// Unwrap returns ErrVerification.
func (e *VerificationError) Unwrap() error { return ErrVerification }

// FailuresError is returned by Pipeline.Err when more than one verification
// failed under FailAtEnd. It unwraps to the first failure.
type FailuresError struct {
	Failures []*VerificationError
}

func (e *FailuresError) Error() string {
	return fmt.Sprintf("capture: %d verification failures, first: %v", len(e.Failures), e.Failures[0])
}

// Unwrap returns the first failure.
func (e *FailuresError) Unwrap() error { return e.Failures[0] }

// FailurePolicy decides when verification failures are reported.
type FailurePolicy int

const (
	// FailImmediately returns the *VerificationError from Capture.
	FailImmediately FailurePolicy = iota

	// FailAtEnd records failures; Capture succeeds and Pipeline.Err
	// reports them once all captures ran.
	FailAtEnd
)

func (p FailurePolicy) String() string {
	switch p {
	case FailImmediately:
		return "immediate"
	case FailAtEnd:
		return "deferred"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}
