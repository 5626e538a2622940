package domain

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	dErrors "docverify/pkg/domain-errors"
)

var (
	phonePattern = regexp.MustCompile(`^[+]?[0-9\s\-()]{10,15}$`)
	fieldCheck   = validator.New()
)

const (
	MaxNameLength     = 100
	MinPasswordLength = 8
)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a well-formed address.
func ValidateEmail(email string) error {
	if email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if err := fieldCheck.Var(email, "email"); err != nil {
		return dErrors.New(dErrors.CodeValidation, "please provide a valid email")
	}
	return nil
}

// ValidatePhone checks the shared phone format: optional leading +, then
// 10 to 15 digits, spaces, dashes or parentheses.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return dErrors.New(dErrors.CodeValidation, "please provide a valid phone number")
	}
	return nil
}

// ValidatePersonName checks a display name is present and at most 100 characters.
func ValidatePersonName(name string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len([]rune(name)) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name cannot exceed 100 characters")
	}
	return nil
}

// ValidatePassword enforces the admin password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters long")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return dErrors.New(dErrors.CodeValidation,
			"password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	return nil
}
