// Package failures holds the typed failures every pipeline component converts
// its lower level errors into before returning.
package failures

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	UnsupportedFormat Kind = "UnsupportedFormat"
	ConversionError   Kind = "ConversionError"
	ExtractionError   Kind = "ExtractionError"
	ProviderError     Kind = "ProviderError"
	ValidationError   Kind = "ValidationError"
	DocumentNotFound  Kind = "DocumentNotFound"
	StorageError      Kind = "StorageError"

	// Unknown is reported for errors that never went through a component boundary.
	Unknown Kind = "Unknown"
)

type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: cause}
}

func Newf(kind Kind, cause error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches another *Failure by kind so errors.Is(err, failures.Sentinel(kind)) works.
func (f *Failure) Is(target error) bool {
	var other *Failure
	if errors.As(target, &other) {
		return other.Kind == f.Kind && other.Message == "" && other.Err == nil
	}
	return false
}

// Sentinel is a message-less failure used as an errors.Is target.
func Sentinel(kind Kind) *Failure {
	return &Failure{Kind: kind}
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return Unknown
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case UnsupportedFormat, ValidationError:
		return http.StatusBadRequest
	case DocumentNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage is the generic text shown to callers; causes stay in the logs.
func ClientMessage(kind Kind) string {
	switch kind {
	case UnsupportedFormat:
		return "Only PDF and DOCX files are allowed"
	case ValidationError:
		return "File path and question are required."
	case DocumentNotFound:
		return "Document not found"
	case ConversionError:
		return "Failed to convert the file"
	case ExtractionError:
		return "Failed to extract text from the file"
	case ProviderError:
		return "Failed to process the query. Please try again later."
	default:
		return "Internal Server Error"
	}
}
