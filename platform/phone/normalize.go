// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number carries no country code. Lead sheets are Peruvian.
const DefaultRegion = "PE"

// NormalizeE164 formats a phone number to E.164 using DefaultRegion.
// If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	return NormalizeE164In(input, DefaultRegion)
}

// NormalizeE164In formats a phone number to E.164 using the given default region.
func NormalizeE164In(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// NationalDigits returns the national significant number when the input parses,
// otherwise the input's digits with any leading country code left in place.
func NationalDigits(input string) string {
	trimmed := strings.TrimSpace(input)
	if number, err := phonenumbers.Parse(trimmed, DefaultRegion); err == nil {
		if nsn := phonenumbers.GetNationalSignificantNumber(number); nsn != "" {
			return nsn
		}
	}
	return Digits(trimmed)
}

// Digits strips everything except ASCII digits.
func Digits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastDigits returns the last n digits of the number, or all of them when shorter.
func LastDigits(input string, n int) string {
	digits := Digits(input)
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}
