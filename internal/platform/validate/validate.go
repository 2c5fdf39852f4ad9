// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package validate provides a small accumulating validator for request payloads.

Usage:

	v := validate.New()
	v.Required("name", req.Name)
	v.Email("email", req.Email)
	v.Password("password", req.Password)
	if err := v.Err(); err != nil {
	    return err
	}

All checks record failures instead of returning early, so a single response
reports every invalid field at once.
*/
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/kanso/internal/platform/apperr"
)

// Password policy bounds. The upper bound exists because bcrypt truncates
// input at 72 bytes.
const (
	PasswordMinLength = 8
	PasswordMaxLength = 72
)

// Login name policy bounds.
const (
	NameMinLength = 3
	NameMaxLength = 32
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Validator accumulates field-level validation failures.
type Validator struct {
	errs []apperr.FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// Check records message for field when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.add(field, message)
	}
}

// Required records a failure when value is empty or whitespace-only.
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
}

// Length records a failure when value's rune count is outside [min, max].
func (v *Validator) Length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		v.add(field, fmt.Sprintf("must be between %d and %d characters", min, max))
	}
}

// Name validates a login name: length bounds plus a conservative character
// set starting with an alphanumeric.
func (v *Validator) Name(field, value string) {
	v.Length(field, value, NameMinLength, NameMaxLength)
	if value != "" && !nameRe.MatchString(value) {
		v.add(field, "may only contain letters, digits, '.', '_' and '-'")
	}
}

// Email records a failure when value is not a parseable address.
func (v *Validator) Email(field, value string) {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.add(field, "must be a valid email address")
	}
}

// Password enforces the password length policy.
func (v *Validator) Password(field, value string) {
	if len(value) < PasswordMinLength {
		v.add(field, fmt.Sprintf("must be at least %d characters", PasswordMinLength))
		return
	}
	if len(value) > PasswordMaxLength {
		v.add(field, fmt.Sprintf("must be at most %d characters", PasswordMaxLength))
	}
}

// OneOf records a failure when value is not among allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// Err returns a ValidationError carrying the accumulated field errors, or
// nil when every check passed.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return apperr.ValidationError("Request validation failed", v.errs...)
}
