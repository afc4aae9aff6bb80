// Package service provides business logic for the application.
package service

import (
	"fmt"
	"regexp"
)

// Field length constraints.
const (
	minUsernameLength    = 3
	minPasswordLength    = 6
	minNameLength        = 2
	minTitleLength       = 3
	minDescriptionLength = 3
	maxDescriptionLength = 100
	minPriority          = 1
	maxPriority          = 5
)

// emailRegex matches a basic local@domain.tld shape.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError reports a constraint violation on a single input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidField(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
