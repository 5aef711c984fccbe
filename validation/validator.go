package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/audioscribe/errors"
)

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates failed checks for hand-written validation, such as
// config sections whose rules depend on each other.
type Validator struct {
	errs []FieldError
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failed check.
func (v *Validator) AddError(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

// Errors returns the recorded failures in order.
func (v *Validator) Errors() []FieldError {
	return v.errs
}

// Validate returns nil, or a VALIDATION_ERROR listing every failure with the
// failures attached under the "fields" detail.
func (v *Validator) Validate() error {
	if len(v.errs) == 0 {
		return nil
	}
	parts := make([]string, len(v.errs))
	for i, e := range v.errs {
		parts[i] = e.Field + ": " + e.Message
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", v.errs)
}

// Required fails on blank strings.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(strings.TrimSpace(value) != "", field, "is required")
}

// Range fails unless minVal <= value <= maxVal.
func (v *Validator) Range(field string, value, minVal, maxVal int64) *Validator {
	return v.Custom(value >= minVal && value <= maxVal, field, fmt.Sprintf("must be between %d and %d", minVal, maxVal))
}

// OneOf fails when a non-empty value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	return v.Custom(value == "" || slices.Contains(allowed, value), field, "must be one of: "+strings.Join(allowed, ", "))
}

// Custom fails with message unless ok.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}
