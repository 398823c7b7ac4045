package errors

import (
	"math"
	"strings"
	"unicode"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
)

// Input limits applied to untrusted requests.
const (
	MaxDelimiterLength  = 8
	MaxIdentifierLength = 1024
	MaxDimension        = 100000
)

// ValidateDelimiter checks a hierarchy delimiter supplied by a user.
//
// The rules are intentionally conservative:
//   - No empty delimiters
//   - At most MaxDelimiterLength bytes
//   - No whitespace or control characters
func ValidateDelimiter(delim string) error {
	if delim == "" {
		return New(ErrCodeInvalidDelimiter, "delimiter cannot be empty")
	}
	if len(delim) > MaxDelimiterLength {
		return New(ErrCodeInvalidDelimiter, "delimiter too long (max %d characters)", MaxDelimiterLength)
	}
	for _, r := range delim {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidDelimiter, "delimiter contains whitespace or control characters")
		}
	}
	return nil
}

// ValidateTension checks that a bundling strength lies in [0, 1].
func ValidateTension(beta float64) error {
	if math.IsNaN(beta) || beta < 0 || beta > 1 {
		return Wrap(ErrCodeInvalidTension, bundle.ErrInvalidTension, "tension %v is outside [0, 1]", beta)
	}
	return nil
}

// ValidateSpline checks a spline name and returns the parsed value.
func ValidateSpline(name string) (bundle.Spline, error) {
	s, err := bundle.ParseSpline(name)
	if err != nil {
		return "", Wrap(ErrCodeInvalidSpline, err, "invalid spline")
	}
	return s, nil
}

// ValidateIdentifier checks a single leaf identifier for length and control
// characters. Structural problems (empty segments) are left to the hierarchy
// builder, which reports them with the offending identifier.
func ValidateIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeMalformedIdentifier, "identifier cannot be empty")
	}
	if len(id) > MaxIdentifierLength {
		return New(ErrCodeMalformedIdentifier, "identifier too long (max %d characters)", MaxIdentifierLength)
	}
	if strings.ContainsFunc(id, unicode.IsControl) {
		return New(ErrCodeMalformedIdentifier, "identifier %q contains control characters", id)
	}
	return nil
}

// ValidateDimensions checks a requested canvas size. Zero means "use the
// default" and is accepted.
func ValidateDimensions(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || v < 0 || v > MaxDimension {
			return New(ErrCodeInvalidInput, "dimension %v is outside [0, %d]", v, MaxDimension)
		}
	}
	return nil
}
