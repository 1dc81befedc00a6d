package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindExtraction  Kind = "extraction"
	KindProvider    Kind = "provider"
	KindParse       Kind = "parse"
	KindValidation  Kind = "validation"
	KindUnavailable Kind = "unavailable"
	KindNotFound    Kind = "not_found"
	KindInternal    Kind = "internal"
)

// AppError carries a stable kind for the HTTP layer. Raw holds the offending
// model output for parse failures.
type AppError struct {
	Kind    Kind
	Message string
	Raw     string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Parse(message, raw string, err error) *AppError {
	return &AppError{Kind: KindParse, Message: message, Raw: raw, Err: err}
}

func Validation(message string) *AppError {
	return New(KindValidation, message)
}

func Extraction(message string, err error) *AppError {
	return Wrap(KindExtraction, message, err)
}

// KindOf returns the kind of the first AppError in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// RawOf returns the raw model output attached to a parse failure, if any.
func RawOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Raw
	}
	return ""
}
