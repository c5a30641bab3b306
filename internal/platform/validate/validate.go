// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError], plus the pure format
// and checksum predicates used across registration and KYC flows.
//
// # Architecture
//
// This package is used exclusively in the service layer — never in handlers or
// storage. It ensures that business logic only operates on semantically valid data.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sevasetu/api/internal/platform/apperr"
)

var (
	// mobileRegex matches a 10-digit Indian mobile number (leading digit 6-9).
	mobileRegex = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	// postalCodeRegex matches a 6-digit PIN code with a non-zero first digit.
	postalCodeRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	// taxIDRegex matches the PAN layout: 5 letters, 4 digits, 1 letter.
	taxIDRegex = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	// uuidRegex matches a UUIDv4 or UUIDv7 string.
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// # Pure Predicates

// IsEmail reports whether the value is a valid RFC 5322 email address.
func IsEmail(value string) bool {
	_, err := mail.ParseAddress(value)
	return err == nil
}

// IsMobile reports whether the value is a valid 10-digit local mobile number.
func IsMobile(value string) bool {
	return mobileRegex.MatchString(value)
}

// IsPostalCode reports whether the value is a valid 6-digit PIN code.
func IsPostalCode(value string) bool {
	return postalCodeRegex.MatchString(value)
}

// IsTaxID reports whether the value matches the 10-character PAN layout.
// Input is case-normalized before matching.
func IsTaxID(value string) bool {
	return taxIDRegex.MatchString(strings.ToUpper(strings.TrimSpace(value)))
}

// # Password Strength

// commonPasswords is a small denylist of passwords that pass the character
// rules but are trivially guessable.
var commonPasswords = map[string]bool{
	"password":   true,
	"password1":  true,
	"password@1": true,
	"p@ssword1":  true,
	"p@ssw0rd":   true,
	"welcome@1":  true,
	"admin@123":  true,
	"india@123":  true,
	"qwerty@123": true,
	"abc@12345":  true,
}

// Password strength rule identifiers, surfaced to clients as field errors.
const (
	RulePasswordLength = "must be at least 8 characters"
	RulePasswordLower  = "must contain a lowercase letter"
	RulePasswordUpper  = "must contain an uppercase letter"
	RulePasswordDigit  = "must contain a digit"
	RulePasswordSymbol = "must contain a symbol"
	RulePasswordCommon = "is too common, choose a different password"
)

// PasswordStrength returns the list of violated strength rules, so callers can
// surface every problem at once instead of one rejection per round trip.
// An empty slice means the password is acceptable.
func PasswordStrength(password string) []string {
	var violations []string

	if utf8.RuneCountInString(password) < 8 {
		violations = append(violations, RulePasswordLength)
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasLower {
		violations = append(violations, RulePasswordLower)
	}
	if !hasUpper {
		violations = append(violations, RulePasswordUpper)
	}
	if !hasDigit {
		violations = append(violations, RulePasswordDigit)
	}
	if !hasSymbol {
		violations = append(violations, RulePasswordSymbol)
	}

	if commonPasswords[strings.ToLower(password)] {
		violations = append(violations, RulePasswordCommon)
	}

	return violations
}

// # Chainable Validator

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// Email fails if the value is not a valid RFC 5322 email address.
func (v *Validator) Email(field, value string) *Validator {
	if !IsEmail(value) {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// Mobile fails if the value is not a valid 10-digit local mobile number.
func (v *Validator) Mobile(field, value string) *Validator {
	if !IsMobile(value) {
		v.add(field, "Must be a valid 10-digit mobile number")
	}
	return v
}

// PostalCode fails if the value is not a valid 6-digit PIN code.
func (v *Validator) PostalCode(field, value string) *Validator {
	if !IsPostalCode(value) {
		v.add(field, "Must be a valid 6-digit PIN code")
	}
	return v
}

// NationalID fails if the value is not a checksum-valid 12-digit ID number.
func (v *Validator) NationalID(field, value string) *Validator {
	if !IsNationalID(value) {
		v.add(field, "Must be a valid 12-digit ID number")
	}
	return v
}

// TaxID fails if the value does not match the PAN layout.
func (v *Validator) TaxID(field, value string) *Validator {
	if !IsTaxID(value) {
		v.add(field, "Must be a valid PAN (AAAAA9999A)")
	}
	return v
}

// Password fails with one field error per violated strength rule.
func (v *Validator) Password(field, value string) *Validator {
	for _, violation := range PasswordStrength(value) {
		v.add(field, "Password "+violation)
	}
	return v
}

// UUID fails if the value is not a valid UUID string (case-insensitive).
func (v *Validator) UUID(field, value string) *Validator {
	lower := strings.ToLower(value)
	if !uuidRegex.MatchString(lower) {
		v.add(field, "Must be a valid UUID")
	}
	return v
}

// OneOf fails if the value is not in the allowed set of strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom("amount", amount <= 0, "Must be a positive amount")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method — call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}
