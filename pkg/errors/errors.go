package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// Stage identifies where in the invocation pipeline an error originated
type Stage string

const (
	// StageConfig covers errors made while configuring the adapter
	StageConfig Stage = "CONFIG"

	// StageFactory covers errors raised by a dependency factory
	StageFactory Stage = "FACTORY"

	// StagePostProcess covers errors raised by a post-processor hook
	StagePostProcess Stage = "POST_PROCESS"

	// StageBusiness covers errors raised by the wrapped business function
	StageBusiness Stage = "BUSINESS"
)

// StageError pins an invocation failure to the pipeline stage that produced
// it. Every stage surfaces identically to the runtime; the classification is
// internal and only reachable through the helpers below.
type StageError struct {
	Stage        Stage
	Registration string
	Message      string
	Cause        error
}

// Error implements the error interface
func (e *StageError) Error() string {
	switch {
	case e.Registration != "" && e.Cause != nil:
		return fmt.Sprintf("%s [%s]: %v", e.Stage, e.Registration, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
	case e.Registration != "":
		return fmt.Sprintf("%s [%s]: %s", e.Stage, e.Registration, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *StageError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates an adapter configuration error
func NewConfigError(message string) *StageError {
	return &StageError{
		Stage:   StageConfig,
		Message: message,
	}
}

// NewFactoryError wraps a failure from a registration's factory group
func NewFactoryError(registration string, cause error) *StageError {
	return &StageError{
		Stage:        StageFactory,
		Registration: registration,
		Cause:        cause,
	}
}

// NewPostProcessError wraps a failure from a registration's post-processors
func NewPostProcessError(registration string, cause error) *StageError {
	return &StageError{
		Stage:        StagePostProcess,
		Registration: registration,
		Cause:        cause,
	}
}

// NewBusinessError wraps a failure from the wrapped business function
func NewBusinessError(cause error) *StageError {
	return &StageError{
		Stage: StageBusiness,
		Cause: cause,
	}
}

// PanicError wraps a value recovered from a panic so the invocation still
// terminates with a single observed outcome instead of tearing down the
// process.
type PanicError struct {
	Value      interface{}
	StackTrace string
}

// Error implements the error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered from panic: %v", e.Value)
}

// NewPanicError creates a PanicError from a recovered value
func NewPanicError(value interface{}) *PanicError {
	return &PanicError{
		Value:      value,
		StackTrace: captureStackTrace(),
	}
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// Helper functions

// GetStageError extracts a StageError from an error chain
func GetStageError(err error) *StageError {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr
	}
	return nil
}

// IsStage checks if an error originated at a specific pipeline stage
func IsStage(err error, stage Stage) bool {
	stageErr := GetStageError(err)
	return stageErr != nil && stageErr.Stage == stage
}

// IsConfig checks if an error is an adapter configuration error
func IsConfig(err error) bool {
	return IsStage(err, StageConfig)
}

// IsFactory checks if an error originated in a dependency factory
func IsFactory(err error) bool {
	return IsStage(err, StageFactory)
}

// IsPostProcess checks if an error originated in a post-processor
func IsPostProcess(err error) bool {
	return IsStage(err, StagePostProcess)
}

// IsBusiness checks if an error originated in the business function
func IsBusiness(err error) bool {
	return IsStage(err, StageBusiness)
}

// IsPanic checks if an error chain contains a recovered panic
func IsPanic(err error) bool {
	var panicErr *PanicError
	return errors.As(err, &panicErr)
}
