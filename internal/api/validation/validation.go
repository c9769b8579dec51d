// Package validation turns request input problems into field-level errors
// the API reports back to the client.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Drive file ids are URL-safe base64-like strings.
var fileIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FromError extracts field errors from a validator error anywhere in the
// chain of err. It returns nil when err carries none.
func FromError(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	default:
		return fe.Field() + " is invalid"
	}
}

// Summary renders errs as one human-readable sentence.
func Summary(errs []FieldError) string {
	if len(errs) == 0 {
		return ""
	}
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return "Missing or invalid fields: " + strings.Join(fields, ", ")
}

// ValidateFileID checks a path-supplied Drive file id.
func ValidateFileID(id string) []FieldError {
	if id == "" {
		return []FieldError{{Field: "id", Message: "id is required"}}
	}
	if !fileIDRegex.MatchString(id) {
		return []FieldError{{Field: "id", Message: "id must contain only letters, digits, '-' and '_'"}}
	}
	return nil
}
