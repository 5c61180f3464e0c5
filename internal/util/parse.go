package util

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoAmount is returned when a string contains no recognizable amount.
var ErrNoAmount = errors.New("no numeric amount found")

func SafeAtoi(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var nonNumericRegex = regexp.MustCompile(`[^\d]`)

func CleanNumericString(s string) string {
	return nonNumericRegex.ReplaceAllString(s, "")
}

var euroAmountRegex = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})*(?:,\d{1,2})?`)

// ParseEuroAmount extracts a monetary amount from a Dutch-formatted price
// string such as "€ 1.250 /mnd" or "€ 1.250,50 per maand". Thousands use
// "." and decimals use ",". Returns ErrNoAmount when nothing parseable is
// present, so an absent price stays distinguishable from zero.
func ParseEuroAmount(s string) (float64, error) {
	match := euroAmountRegex.FindString(s)
	if match == "" {
		return 0, ErrNoAmount
	}
	normalized := strings.ReplaceAll(match, ".", "")
	if i := strings.LastIndex(normalized, ","); i >= 0 && len(normalized)-i <= 3 {
		normalized = normalized[:i] + "." + normalized[i+1:]
	} else {
		normalized = strings.ReplaceAll(normalized, ",", "")
	}
	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, ErrNoAmount
	}
	return amount, nil
}

var roomCountRegex = regexp.MustCompile(`(\d+)\s*kamer`)

// ParseRoomCount pulls the room count out of a "3 kamers" style fragment.
// Returns 0 when no count is present.
func ParseRoomCount(s string) int {
	m := roomCountRegex.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0
	}
	return SafeAtoi(m[1])
}
