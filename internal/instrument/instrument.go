// Package instrument provides format validation and classification for
// payment instruments: UPI virtual payment addresses and card numbers.
// All functions are pure; the current time for expiry checks is passed in
// by the caller.
package instrument

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Network identifies the card network derived from the leading digits of a
// card number.
type Network string

const (
	NetworkVisa       Network = "visa"
	NetworkMastercard Network = "mastercard"
	NetworkAmex       Network = "amex"
	NetworkRupay      Network = "rupay"
	NetworkUnknown    Network = "unknown"
)

// vpaPattern matches <local-part>@<handle>: local-part of letters, digits,
// dot, underscore, hyphen; handle strictly alphanumeric.
var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)

// ValidVPA reports whether s is a well-formed UPI virtual payment address.
func ValidVPA(s string) bool {
	return vpaPattern.MatchString(s)
}

// sanitize strips whitespace and hyphens, the separators commonly typed or
// pasted into card number fields. All of Unicode whitespace counts: pasted
// numbers carry tabs and non-breaking spaces.
func sanitize(number string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, number)
}

// ValidLuhn reports whether number is a 13-19 digit string (ignoring
// whitespace and hyphens) that passes the Luhn mod-10 checksum. Any non-digit content
// after sanitization fails the check.
func ValidLuhn(number string) bool {
	s := sanitize(number)
	if len(s) < 13 || len(s) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum%10 == 0
}

// CardNetwork classifies a card number by its leading digits. Unrecognized
// prefixes are labeled NetworkUnknown rather than rejected.
func CardNetwork(number string) Network {
	s := sanitize(number)

	switch {
	case strings.HasPrefix(s, "4"):
		return NetworkVisa
	case len(s) >= 2 && s[0] == '5' && s[1] >= '1' && s[1] <= '5':
		return NetworkMastercard
	case strings.HasPrefix(s, "34"), strings.HasPrefix(s, "37"):
		return NetworkAmex
	case strings.HasPrefix(s, "60"), strings.HasPrefix(s, "65"):
		return NetworkRupay
	case len(s) >= 2 && s[0] == '8' && s[1] >= '1' && s[1] <= '9':
		return NetworkRupay
	default:
		return NetworkUnknown
	}
}

// ValidExpiry reports whether the month/year expiry has not passed as of now.
// Two-digit years are normalized by adding 2000, so 27 means 2027. A card
// expiring in the current month is still valid.
func ValidExpiry(month, year int, now time.Time) bool {
	if year < 100 {
		year += 2000
	}

	curYear, curMonth := now.Year(), int(now.Month())
	if year < curYear {
		return false
	}
	if year == curYear && month < curMonth {
		return false
	}
	return true
}

// Last4 returns the final four characters of the sanitized card number.
func Last4(number string) string {
	s := sanitize(number)
	if len(s) < 4 {
		return s
	}
	return s[len(s)-4:]
}
