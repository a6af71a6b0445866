// Package id generates and validates campaign identifiers.
//
// Identifiers are canonical lowercase UUIDv4 strings. Validation happens at
// the module boundary so no invalid identifier reaches the event store or
// read models.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New generates a new random campaign identifier.
func New() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return value.String(), nil
}

// Normalize validates value as a UUID and returns its canonical lowercase form.
func Normalize(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("id is required")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse id: %w", err)
	}
	return parsed.String(), nil
}
