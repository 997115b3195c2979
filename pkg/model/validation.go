package model

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MessageFieldsRequired is reported when any draft field is empty.
	MessageFieldsRequired = "All fields are required."
	// MessageInvalidAge is reported when age is not a number greater than zero.
	MessageInvalidAge = "Please enter a valid age."
)

// ValidationError is raised by the validation gate before any network call.
type ValidationError struct {
	Field   FieldName
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate runs the submission gate. Checks run in order and the first failure
// wins: every field must be non-empty, then age must parse as a number greater
// than zero. Option values are not checked against the catalogues.
func Validate(d Draft) error {
	if d.Image == nil {
		return &ValidationError{Field: FieldImage, Message: MessageFieldsRequired}
	}
	for _, field := range []FieldName{FieldSex, FieldDxType, FieldLocalization, FieldAge} {
		if d.Value(field) == "" {
			return &ValidationError{Field: field, Message: MessageFieldsRequired}
		}
	}
	if _, ok := ParseAge(d.Age); !ok {
		return &ValidationError{Field: FieldAge, Message: MessageInvalidAge}
	}
	return nil
}

// ParseAge parses a raw age string. Surrounding whitespace is ignored and any
// finite or infinite positive number is accepted.
func ParseAge(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || value <= 0 {
		return 0, false
	}
	return value, true
}
