package ingest

import (
	"errors"
	"strings"
)

// Kind classifies an ingestion failure.
type Kind int

const (
	UnsupportedFileType Kind = iota + 1
	ParseError
	ShapeError
)

func (k Kind) String() string {
	switch k {
	case UnsupportedFileType:
		return "UnsupportedFileType"
	case ParseError:
		return "ParseError"
	case ShapeError:
		return "ShapeError"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is. A *ValidationError matches the sentinel of its Kind.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrParse               = errors.New("parse error")
	ErrShape               = errors.New("shape error")
)

// User-facing messages.
const (
	msgUnsupportedFileType = "Please upload a JSON file (.json)"
	msgParse               = "Invalid JSON format. Please check your file."
	msgShape               = "Invalid data structure. Missing required fields (jurisdiction, vertical, or provision)."
)

// ValidationError is returned by every failing Load. Message is safe to show
// to the user as-is; Err carries the underlying cause, if any.
type ValidationError struct {
	Kind    Kind
	Message string
	// Missing lists the required top-level keys that were absent or not
	// objects. Only set for ShapeError.
	Missing []string
	Err     error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Missing) > 0 {
		b.WriteString(" [missing: ")
		b.WriteString(strings.Join(e.Missing, ", "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrUnsupportedFileType:
		return e.Kind == UnsupportedFileType
	case ErrParse:
		return e.Kind == ParseError
	case ErrShape:
		return e.Kind == ShapeError
	}
	return false
}

// UserMessage returns the message to display for err. Errors that did not
// come from this package are returned verbatim.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
