// Package spell names and describes a held gesture. An Analyzer produces a
// Record; a Resolver wraps any Analyzer so callers always get a usable Record.
package spell

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResponse is returned when a backend answers with no content.
	ErrEmptyResponse = errors.New("empty analyzer response")
	// ErrInvalidColor is returned when a record's colorHex is not #RRGGBB.
	ErrInvalidColor = errors.New("invalid color hex")
	// ErrIncomplete is returned when a record is missing a required field.
	ErrIncomplete = errors.New("incomplete spell record")
)

// Record is the flavor text shown for a held gesture.
type Record struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	EnergyLevel string `json:"energyLevel"`
	ColorHex    string `json:"colorHex"`
}

// Fallback returns the record substituted for any analyzer failure.
func Fallback() Record {
	return Record{
		Name:        "Flux Interruption",
		Type:        "Error",
		Description: "Unable to analyze magical signature due to network interference.",
		EnergyLevel: "0",
		ColorHex:    "#FF0000",
	}
}

// IsFallback reports whether r is the fallback record.
func (r Record) IsFallback() bool {
	return r == Fallback()
}

// Validate checks that every field is present and ColorHex is #RRGGBB.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: name", ErrIncomplete)
	case strings.TrimSpace(r.Type) == "":
		return fmt.Errorf("%w: type", ErrIncomplete)
	case strings.TrimSpace(r.Description) == "":
		return fmt.Errorf("%w: description", ErrIncomplete)
	case strings.TrimSpace(r.EnergyLevel) == "":
		return fmt.Errorf("%w: energyLevel", ErrIncomplete)
	}
	if !ValidColorHex(r.ColorHex) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, r.ColorHex)
	}
	return nil
}

// ValidColorHex reports whether s has the form #RRGGBB.
func ValidColorHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ParseRecord decodes and validates a JSON record.
func ParseRecord(data []byte) (Record, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Record{}, ErrEmptyResponse
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to decode spell record: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}
