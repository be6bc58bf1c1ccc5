// Package hexstr parses user-entered hex text into a validated HexString and
// converts it into fixed-width big-endian integer buffers.
package hexstr

import (
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/kochabx/stepviz/errors"
)

// HexString is a validated, whitespace-free, lowercase string of hex digits.
// The zero value is the empty hex string and denotes the value zero.
type HexString struct {
	digits string
}

// Normalize removes every Unicode whitespace rune from raw.
func Normalize(raw string) string {
	if strings.IndexFunc(raw, unicode.IsSpace) < 0 {
		return raw
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// Valid reports whether s consists only of hex digits in either case.
// The empty string is valid.
func Valid(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// Parse strips whitespace from raw and validates the rest. The returned
// error carries the original input, not the stripped one.
func Parse(raw string) (HexString, error) {
	cleaned := Normalize(raw)
	if !Valid(cleaned) {
		return HexString{}, errors.ParseHex(raw)
	}
	return HexString{digits: strings.ToLower(cleaned)}, nil
}

// MustParse is Parse for constant tables. It panics on invalid input.
func MustParse(raw string) HexString {
	h, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return h
}

// FromBytes renders b as hex with leading zero digits dropped.
func FromBytes(b []byte) HexString {
	return HexString{digits: strings.TrimLeft(hex.EncodeToString(b), "0")}
}

// Empty returns the empty hex string.
func Empty() HexString {
	return HexString{}
}

// Concat appends fragment in place. The fragment is validated as-is, so
// whitespace inside it is rejected; h is unchanged on error.
func (h *HexString) Concat(fragment string) error {
	if !Valid(fragment) {
		return errors.ParseHex(fragment)
	}
	h.digits += strings.ToLower(fragment)
	return nil
}

func (h HexString) String() string {
	return h.digits
}

// Len returns the number of hex digits.
func (h HexString) Len() int {
	return len(h.digits)
}

// Bits returns the minimum bit count needed to hold every digit, 4 per digit.
func (h HexString) Bits() int {
	return len(h.digits) * 4
}

// IsZero reports whether h is empty.
func (h HexString) IsZero() bool {
	return h.digits == ""
}

func (h HexString) MarshalText() ([]byte, error) {
	return []byte(h.digits), nil
}

func (h *HexString) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
