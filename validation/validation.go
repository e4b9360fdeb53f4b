// Package validation provides input validation utilities for go-fireorm.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a validation error with field context.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// HasField reports whether any error refers to field.
func (e ValidationErrors) HasField(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// ToError returns nil if no errors, otherwise returns the ValidationErrors.
func (e ValidationErrors) ToError() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validator collects validation errors.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// AddError adds a validation error.
func (v *Validator) AddError(field, message string, value interface{}) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
}

// Require checks that a condition is true.
func (v *Validator) Require(condition bool, field, message string) {
	if !condition {
		v.AddError(field, message, nil)
	}
}

// RequirePositive checks that an integer is positive (> 0).
func (v *Validator) RequirePositive(value int, field string) {
	if value <= 0 {
		v.AddError(field, "must be positive", value)
	}
}

// RequireNonNegative checks that an integer is non-negative (>= 0).
func (v *Validator) RequireNonNegative(value int, field string) {
	if value < 0 {
		v.AddError(field, "must be non-negative", value)
	}
}

// RequireNotEmpty checks that a string is not empty.
func (v *Validator) RequireNotEmpty(value, field string) {
	if value == "" {
		v.AddError(field, "must not be empty", nil)
	}
}

// RequireOneOf checks that value is one of allowed.
func (v *Validator) RequireOneOf(value string, allowed []string, field string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of [%s]", strings.Join(allowed, ", ")), value)
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// Error returns an error if there are validation errors, nil otherwise.
func (v *Validator) Error() error {
	return v.errors.ToError()
}

// ValidatePageParams validates the 1-indexed page and page_size arguments.
func ValidatePageParams(page, pageSize int) error {
	v := NewValidator()
	v.RequirePositive(page, "page")
	v.RequirePositive(pageSize, "page_size")
	return v.Error()
}

// PageWindow returns the zero-based [start, end) window for a 1-indexed page.
func PageWindow(page, pageSize int) (start, end int) {
	start = (page - 1) * pageSize
	return start, start + pageSize
}

// AsValidationErrors extracts ValidationErrors from err, following wrapped errors.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
