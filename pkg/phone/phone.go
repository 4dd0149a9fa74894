// Package phone canonicalizes raw phone number input into a single
// representation so every spelling of the same subscriber maps to one
// identity. Canonical form is a '+'-prefixed digit string.
package phone

import (
	"errors"
	"strings"
)

// Canonical is a normalized phone number. It is only produced by
// Normalizer.Normalize, never constructed from raw input.
type Canonical string

func (c Canonical) String() string { return string(c) }

// ErrInvalid is returned when the input contains no digits at all.
var ErrInvalid = errors.New("phone: no digits in input")

// Normalizer holds the national numbering profile used to interpret
// domestic shorthand. All fields are digit strings without '+'.
type Normalizer struct {
	countryCode   string
	mobilePrefix  string
	subscriberLen int
}

// NewNormalizer builds a Normalizer for one national profile.
// countryCode is the international prefix ("90"), mobilePrefix the leading
// digit(s) of domestic mobile subscriber numbers ("5"), subscriberLen the
// length of a bare subscriber number (10).
func NewNormalizer(countryCode, mobilePrefix string, subscriberLen int) Normalizer {
	return Normalizer{
		countryCode:   countryCode,
		mobilePrefix:  mobilePrefix,
		subscriberLen: subscriberLen,
	}
}

// Default returns the profile the product launched with: Turkish mobile
// numbers ("+90", 10-digit subscribers starting with 5).
func Default() Normalizer {
	return NewNormalizer("90", "5", 10)
}

// Normalize maps raw input to canonical form. The function is idempotent:
// normalizing an already-canonical string returns it unchanged.
//
// Recognized shapes, in order:
//   - "+<cc>…" or "<cc>…"            -> "+<digits>" as written
//   - "0…" (domestic trunk prefix)   -> trunk zero dropped, "+<cc>" prepended
//   - bare subscriber number         -> "+<cc>" prepended
//   - anything else with digits      -> "+<digits>", no assumed country
func (n Normalizer) Normalize(raw string) (Canonical, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrInvalid
	}

	switch {
	case strings.HasPrefix(digits, n.countryCode):
		return Canonical("+" + digits), nil
	case strings.HasPrefix(digits, "0"):
		return Canonical("+" + n.countryCode + digits[1:]), nil
	case len(digits) == n.subscriberLen && strings.HasPrefix(digits, n.mobilePrefix):
		return Canonical("+" + n.countryCode + digits), nil
	default:
		// Non-domestic shape: keep the digits verbatim rather than guess a
		// country, so two distinct foreign subscribers never collide.
		return Canonical("+" + digits), nil
	}
}
