package seatkey

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrEmptySeat indicates the seat value is empty after trimming
	ErrEmptySeat = errors.New("seat number cannot be empty")

	// ErrInvalidFormat indicates the seat value matches none of the accepted encodings
	ErrInvalidFormat = errors.New("invalid seat number format")

	// ErrOutOfRange indicates the seat number is outside [1..capacity]
	ErrOutOfRange = errors.New("seat number out of range")
)

// DefaultCapacity is used when the bus capacity is unknown.
const DefaultCapacity = 50

var (
	decimalRe = regexp.MustCompile(`^\d+$`)
	legacyRe  = regexp.MustCompile(`^([A-Z])(\d{1,2})$`)
)

// Normalize canonicalizes a seat identifier to a decimal string in
// [1..capacity]. Accepted inputs after trimming and upper-casing:
//
//	"38", "038"  -> "38"
//	"L38"        -> "38"
//	"D8"         -> "38"   (row letter * 10 + column, columns 1..10)
//
// capacity <= 0 falls back to DefaultCapacity.
func Normalize(seat string, capacity int) (string, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	s := strings.ToUpper(strings.TrimSpace(seat))
	if s == "" {
		return "", ErrEmptySeat
	}

	var n int
	switch {
	case decimalRe.MatchString(s):
		v, err := strconv.Atoi(s)
		if err != nil {
			return "", ErrInvalidFormat
		}
		n = v

	case strings.HasPrefix(s, "L") && decimalRe.MatchString(s[1:]):
		v, err := strconv.Atoi(s[1:])
		if err != nil {
			return "", ErrInvalidFormat
		}
		n = v

	default:
		m := legacyRe.FindStringSubmatch(s)
		if m == nil {
			return "", ErrInvalidFormat
		}
		col, err := strconv.Atoi(m[2])
		if err != nil || col < 1 || col > 10 {
			return "", ErrInvalidFormat
		}
		row := int(m[1][0] - 'A')
		n = row*10 + col
	}

	if n < 1 || n > capacity {
		return "", fmt.Errorf("%w: %d (capacity %d)", ErrOutOfRange, n, capacity)
	}

	return strconv.Itoa(n), nil
}

// ToLegacy maps a canonical seat number back to its legacy
// "<row-letter><column>" spelling, e.g. 38 -> "D8". Used to match rows
// written before seat numbers were canonicalized.
func ToLegacy(n int) string {
	if n < 1 {
		return ""
	}
	row := (n - 1) / 10
	col := n - row*10
	return fmt.Sprintf("%c%d", rune('A'+row), col)
}

// LegacyOf returns the legacy spelling of an already-canonical seat string,
// or "" when the input is not a plain decimal.
func LegacyOf(canonical string) string {
	n, err := strconv.Atoi(canonical)
	if err != nil {
		return ""
	}
	return ToLegacy(n)
}
