package rkiva

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error classes.  Specific errors are marked with one of these so callers can
// classify them with errors.Is
var (
	// ErrConfig is a bad or missing option detected before anything started
	ErrConfig = errors.New("configuration error")
	// ErrResource is a failure to create the engine or its buffers
	ErrResource = errors.New("resource error")
	// ErrIO is a failure to read an input frame
	ErrIO = errors.New("input error")
	// ErrSubmission is the engine rejecting a frame
	ErrSubmission = errors.New("frame submission error")
	// ErrInterrupted is a shutdown requested by signal
	ErrInterrupted = errors.New("interrupted")
)

// ErrUnsupported is returned by the hardware entry points when the package
// was built without the rockiva build tag
var ErrUnsupported = errors.Mark(
	errors.WithHint(
		errors.New("rockiva support not compiled in"),
		"rebuild with -tags rockiva on the target device or use the simulated engine",
	),
	ErrResource,
)

// ErrorCodes wraps RockIvaRetCode
type ErrorCodes int

// return codes of the ROCKIVA C API
const (
	Success          ErrorCodes = 0
	ErrFail          ErrorCodes = -1
	ErrNullPtr       ErrorCodes = -2
	ErrInvalidHandle ErrorCodes = -3
	ErrLicense       ErrorCodes = -4
	ErrUnsupportedOp ErrorCodes = -5
	ErrStreamSwitch  ErrorCodes = -6
	ErrBufferFull    ErrorCodes = -7
)

// String returns a readable description of the error code
func (e ErrorCodes) String() string {
	switch e {
	case Success:
		return "execution successful"
	case ErrFail:
		return "execution failed"
	case ErrNullPtr:
		return "null pointer"
	case ErrInvalidHandle:
		return "invalid handle"
	case ErrLicense:
		return "license error"
	case ErrUnsupportedOp:
		return "operation not supported"
	case ErrStreamSwitch:
		return "stream switched"
	case ErrBufferFull:
		return "frame buffer full"
	default:
		return fmt.Sprintf("unknown error code %d", int(e))
	}
}

// CallError is returned when a ROCKIVA or RK_MPI call returns a failure code
type CallError struct {
	// Call is the name of the C function
	Call string
	Code ErrorCodes
}

// Error implements the error interface
func (e *CallError) Error() string {
	return fmt.Sprintf("%s failed with code %#X, error: %s", e.Call,
		uint32(e.Code), e.Code.String())
}

// Negative reports if the code is a negative (rejecting) return value
func (e *CallError) Negative() bool {
	return e.Code < 0
}

// NewCallError returns a CallError for the given function and code
func NewCallError(call string, code ErrorCodes) error {
	return &CallError{Call: call, Code: code}
}
