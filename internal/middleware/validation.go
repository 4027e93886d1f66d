package middleware

import (
	"errors"
	"unicode/utf8"
)

// MaxContentBytes bounds a chat message before it reaches the model.
const MaxContentBytes = 100000

// ValidateContent checks a chat message at the transport edge. Semantic
// checks (coordinates, radius, count) live in the service layer; this only
// guards size and encoding.
func ValidateContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > MaxContentBytes {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateTenantID validates a tenant ID claim.
func ValidateTenantID(id string) error {
	if len(id) == 0 {
		return errors.New("tenant ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("tenant ID exceeds maximum length")
	}
	return nil
}
