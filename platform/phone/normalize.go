// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "SA"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// CanonicalMobile converts an already validated Saudi mobile number in
// either local form (5XXXXXXXX or 05XXXXXXXX) to its single canonical
// E.164 representation. Both input forms of the same number yield the
// same output.
func CanonicalMobile(digits string) string {
	national := strings.TrimPrefix(digits, "0")

	number, err := phonenumbers.Parse(national, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		// The shape was validated upstream; keep a stable canonical
		// form even when the metadata rejects an unassigned range.
		return "+966" + national
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
