// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// Confidence tiers, lowest first. The numeric value is the ordinal rank;
// arbitration compares tiers, it never does arithmetic on them.
const (
	// Unknown means no information is available and a placeholder is needed.
	Unknown Confidence = iota
	// Guess is an educated guess (e.g. title from the directory name).
	Guess
	// Weak is a weak inference (e.g. description from a README paragraph).
	Weak
	// Reasonable is a reasonable inference (e.g. main.py as entry point).
	Reasonable
	// Strong is a strong inference (e.g. MIT from LICENSE text).
	Strong
	// Explicit means the value is stated directly in a manifest.
	Explicit
)

// ErrInvalidConfidence is returned when a Confidence value is not one of the six tiers.
var ErrInvalidConfidence = errors.New("invalid confidence")

var confidenceNames = [...]string{
	Unknown:    "unknown",
	Guess:      "guess",
	Weak:       "weak",
	Reasonable: "reasonable",
	Strong:     "strong",
	Explicit:   "explicit",
}

type (
	// Confidence is the six-level ordinal reliability label attached to
	// every candidate and resolved field.
	Confidence int

	// InvalidConfidenceError is returned when a Confidence value is not recognized.
	// It wraps ErrInvalidConfidence for errors.Is() compatibility.
	InvalidConfidenceError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidConfidenceError) Error() string {
	return fmt.Sprintf("invalid confidence %q (valid: %s)", e.Value, strings.Join(confidenceNames[:], ", "))
}

// Unwrap returns ErrInvalidConfidence for errors.Is() compatibility.
func (e *InvalidConfidenceError) Unwrap() error { return ErrInvalidConfidence }

// ParseConfidence converts a tier name (case-insensitive) into a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range confidenceNames {
		if n == name {
			return Confidence(i), nil
		}
	}
	return Unknown, &InvalidConfidenceError{Value: s}
}

// IsValid returns whether the Confidence is one of the defined tiers,
// and a list of validation errors if it is not.
func (c Confidence) IsValid() (bool, []error) {
	if c < Unknown || c > Explicit {
		return false, []error{&InvalidConfidenceError{Value: fmt.Sprintf("%d", int(c))}}
	}
	return true, nil
}

// String returns the lower-case tier name.
func (c Confidence) String() string {
	if ok, _ := c.IsValid(); !ok {
		return fmt.Sprintf("confidence(%d)", int(c))
	}
	return confidenceNames[c]
}

// Score returns the conventional 0.0-1.0 score of the tier. It exists for
// display and serialization only.
func (c Confidence) Score() float64 {
	if ok, _ := c.IsValid(); !ok {
		return 0
	}
	return float64(c) / float64(Explicit)
}

// AtLeast reports whether c ranks at or above other.
func (c Confidence) AtLeast(other Confidence) bool { return c >= other }

// Cap returns c lowered to ceiling when it ranks above it.
func (c Confidence) Cap(ceiling Confidence) Confidence {
	if c > ceiling {
		return ceiling
	}
	return c
}

// MarshalText encodes the tier by name.
func (c Confidence) MarshalText() ([]byte, error) {
	if ok, errs := c.IsValid(); !ok {
		return nil, errs[0]
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a tier name.
func (c *Confidence) UnmarshalText(text []byte) error {
	parsed, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
