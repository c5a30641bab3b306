// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package validate_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "SevaSetu", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestIsMobile checks the 10-digit local mobile number rule.
*/
func TestIsMobile(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"valid_mobile", "9876543210", true},
		{"valid_leading_six", "6123456789", true},
		{"leading_zero", "0876543210", false},
		{"leading_five", "5876543210", false},
		{"too_short", "987654321", false},
		{"too_long", "98765432100", false},
		{"with_country_code", "+919876543210", false},
		{"letters", "98765abcde", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValid, validate.IsMobile(tt.value))
		})
	}
}

/*
TestIsPostalCode checks the 6-digit PIN code rule (first digit non-zero).
*/
func TestIsPostalCode(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"valid_pin", "110001", true},
		{"valid_pin_south", "600042", true},
		{"leading_zero", "010001", false},
		{"five_digits", "11000", false},
		{"seven_digits", "1100011", false},
		{"letters", "11000A", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValid, validate.IsPostalCode(tt.value))
		})
	}
}

/*
TestIsTaxID checks the PAN layout rule with case normalization.
*/
func TestIsTaxID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"valid_upper", "ABCDE1234F", true},
		{"valid_lower", "abcde1234f", true},
		{"valid_mixed", "AbCdE1234f", true},
		{"valid_padded", " ABCDE1234F ", true},
		{"digits_first", "12345ABCDF", false},
		{"too_short", "ABCDE123F", false},
		{"trailing_digit", "ABCDE12345", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValid, validate.IsTaxID(tt.value))
		})
	}
}

// knownValidNationalID carries a correct Verhoeff check digit.
const knownValidNationalID = "234123902138"

/*
TestIsNationalID_KnownSample verifies a checksum-valid 12-digit sample.
*/
func TestIsNationalID_KnownSample(t *testing.T) {
	assert.True(t, validate.IsNationalID(knownValidNationalID))
}

/*
TestIsNationalID_SingleDigitErrors exercises the algorithm's defining
property: altering any single digit must invalidate the number.
*/
func TestIsNationalID_SingleDigitErrors(t *testing.T) {
	for position := 0; position < len(knownValidNationalID); position++ {
		original := knownValidNationalID[position] - '0'

		for replacement := byte(0); replacement <= 9; replacement++ {
			if replacement == original {
				continue
			}

			mutated := []byte(knownValidNationalID)
			mutated[position] = '0' + replacement

			t.Run(fmt.Sprintf("pos_%d_digit_%d", position, replacement), func(t *testing.T) {
				assert.False(t, validate.IsNationalID(string(mutated)),
					"single-digit error must be detected")
			})
		}
	}
}

/*
TestIsNationalID_Malformed rejects inputs that are not 12 plain digits.
*/
func TestIsNationalID_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"too_short", "23412390213"},
		{"too_long", "2341239021380"},
		{"letters", "23412390213X"},
		{"empty", ""},
		{"spaces", "2341 2390 2138"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, validate.IsNationalID(tt.value))
		})
	}
}

/*
TestPasswordStrength verifies that every violated rule is reported at once.
*/
func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		violations []string
	}{
		{
			name:       "strong_password",
			password:   "S3va!setu",
			violations: nil,
		},
		{
			name:     "short_and_weak",
			password: "abc",
			violations: []string{
				validate.RulePasswordLength,
				validate.RulePasswordUpper,
				validate.RulePasswordDigit,
				validate.RulePasswordSymbol,
			},
		},
		{
			name:       "missing_symbol",
			password:   "Abcdefg1",
			violations: []string{validate.RulePasswordSymbol},
		},
		{
			name:       "missing_upper",
			password:   "abcdefg1!",
			violations: []string{validate.RulePasswordUpper},
		},
		{
			name:       "common_password",
			password:   "P@ssw0rd",
			violations: []string{validate.RulePasswordCommon},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.violations, validate.PasswordStrength(tt.password))
		})
	}
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules).
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	// Multi-rule validation
	err := v.
		Required("display_name", "Asha Rao").
		Email("email", "asha@sevasetu.org").
		Mobile("phone", "9876543210").
		PostalCode("postal_code", "110001").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("display_name", "").   // Fails
		Email("email", "not-an-email"). // Fails
		Mobile("phone", "12345").       // Fails
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	// Should accumulate all 3 errors
	assert.Len(t, ae.Details, 3)
}
