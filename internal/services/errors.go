package services

import "fmt"

// ErrorKind classifies prediction failures for the transports.
type ErrorKind int

const (
	// ValidationError: the request is missing a field or a field is not an integer.
	ValidationError ErrorKind = iota + 1
	// InferenceError: the loaded classifier failed on a well-formed request.
	InferenceError
)

func (k ErrorKind) String() string {
	switch k {
	case ValidationError:
		return "validation"
	case InferenceError:
		return "inference"
	default:
		return "unknown"
	}
}

const inferenceFailedMessage = "model inference failed"

type PredictionError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func newValidationError(field string, err error) *PredictionError {
	return &PredictionError{Kind: ValidationError, Field: field, Err: err}
}

func newInferenceError(err error) *PredictionError {
	return &PredictionError{Kind: InferenceError, Err: err}
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// PublicMessage is the text safe to return to callers. Classifier internals
// are never exposed; validation messages only name the offending field.
func (e *PredictionError) PublicMessage() string {
	if e.Kind == ValidationError {
		return e.Err.Error()
	}
	return inferenceFailedMessage
}
