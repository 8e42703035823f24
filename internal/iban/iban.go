// Package iban derives and validates TR-format International Bank Account Numbers
// using the ISO 13616 MOD-97 check-digit scheme.
package iban

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	// CountryCode prefixes every IBAN issued by this service.
	CountryCode = "TR"

	// Length is the fixed size of a TR IBAN: 2 country + 2 check + 22 BBAN.
	Length = 26

	institutionCode = "00061"
	reservedDigit   = "0"
	bodyLength      = 16
)

// ErrInvalidAccountNumber indicates the account identifier cannot be embedded in an
// IBAN body (no digits, or more digits than the body can hold).
var ErrInvalidAccountNumber = errors.New("account number cannot be encoded as IBAN body")

var mod97 = big.NewInt(97)

// Generate derives the IBAN for an account identifier. The numeric digits of the
// identifier become the 16-digit BBAN body, left-padded with zeros.
func Generate(accountNumber string) (string, error) {
	digits := extractDigits(accountNumber)
	if digits == "" {
		return "", fmt.Errorf("%w: %q contains no digits", ErrInvalidAccountNumber, accountNumber)
	}
	if len(digits) > bodyLength {
		return "", fmt.Errorf("%w: %q has more than %d digits", ErrInvalidAccountNumber, accountNumber, bodyLength)
	}

	body := strings.Repeat("0", bodyLength-len(digits)) + digits
	bban := institutionCode + reservedDigit + body

	check, err := checkDigits(bban)
	if err != nil {
		return "", err
	}
	return CountryCode + check + bban, nil
}

// Validate reports whether iban is a well-formed TR IBAN with a correct checksum.
// It is a pure function; malformed input simply yields false.
func Validate(iban string) bool {
	if len(iban) != Length || !strings.HasPrefix(iban, CountryCode) {
		return false
	}

	// ISO 13616: move the country code and check digits to the end, expand
	// letters, and the whole numeral must reduce to 1 mod 97.
	numeric, ok := toNumeric(iban[4:] + iban[:4])
	if !ok {
		return false
	}

	value, ok := new(big.Int).SetString(numeric, 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(value, mod97).Int64() == 1
}

// checkDigits computes the two check digits for a BBAN: append country code and "00",
// expand letters to base-36 values, and take 98 minus the remainder mod 97.
func checkDigits(bban string) (string, error) {
	numeric, ok := toNumeric(bban + CountryCode + "00")
	if !ok {
		return "", fmt.Errorf("%w: BBAN %q is not alphanumeric", ErrInvalidAccountNumber, bban)
	}

	// The expanded numeral is ~30 digits, well past int64 range.
	value, ok := new(big.Int).SetString(numeric, 10)
	if !ok {
		return "", fmt.Errorf("%w: BBAN %q did not expand to a numeral", ErrInvalidAccountNumber, bban)
	}

	remainder := new(big.Int).Mod(value, mod97).Int64()
	return fmt.Sprintf("%02d", 98-remainder), nil
}

// toNumeric maps letters to their base-36 values (A=10 .. Z=35) and keeps digits as-is.
func toNumeric(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteString(strconv.Itoa(int(r-'A') + 10))
		default:
			return "", false
		}
	}
	return b.String(), true
}

func extractDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
