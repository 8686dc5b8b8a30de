package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline errors by the kind of failure
type ErrorType string

const (
	ErrorTypeLoad        ErrorType = "load"
	ErrorTypeFormat      ErrorType = "format"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeComputation ErrorType = "computation"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeReport      ErrorType = "report"
)

// PipelineError represents a stage-level pipeline error
type PipelineError struct {
	Type    ErrorType              `json:"type"`
	Stage   string                 `json:"stage,omitempty"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	if e.Stage != "" {
		if e.Cause != nil {
			return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Stage, e.Message, e.Cause)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewLoadError creates an error for a file that could not be loaded
func NewLoadError(file string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeLoad,
		Message: fmt.Sprintf("failed to load %s", file),
		Cause:   cause,
		Context: map[string]interface{}{
			"file": file,
		},
	}
}

// NewFormatError creates an error for a malformed value in a dataset column
func NewFormatError(dataset, column string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeFormat,
		Message: fmt.Sprintf("malformed value in dataset %s column %s", dataset, column),
		Cause:   cause,
		Context: map[string]interface{}{
			"dataset": dataset,
			"column":  column,
		},
	}
}

// NewValidationError creates an error for a dataset that failed validation
func NewValidationError(dataset, message string) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeValidation,
		Message: message,
		Context: map[string]interface{}{
			"dataset": dataset,
		},
	}
}

// NewStageError wraps an unexpected failure with the stage that raised it
func NewStageError(stage string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeComputation,
		Stage:   stage,
		Message: "stage execution failed",
		Cause:   cause,
	}
}

// NewConfigError creates an error for invalid configuration
func NewConfigError(message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeConfig,
		Message: message,
		Cause:   cause,
	}
}

// NewReportError creates an error for a report that could not be written
func NewReportError(path string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeReport,
		Message: fmt.Sprintf("failed to write report %s", path),
		Cause:   cause,
		Context: map[string]interface{}{
			"path": path,
		},
	}
}

// IsType reports whether err is a PipelineError of the given type
func IsType(err error, t ErrorType) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}
