// Package refcode generates human-readable codes for bank-transfer matching
// and donation receipts.
package refcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const (
	// DefaultPrefix is the platform prefix for bank-transfer codes.
	DefaultPrefix = "SBP"

	// alphanumeric excludes visually ambiguous characters (I, 1, O, 0).
	alphanumeric = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	randomLen = 5
)

var referencePattern = regexp.MustCompile(`^[A-Z]{2,5}-\d{8}-[A-Z0-9]{5}$`)

// Generate returns a reference code in the form PREFIX-YYYYMMDD-XXXXX,
// e.g. SBP-20240115-A3K9M.
func Generate() string {
	return GenerateWithPrefix(DefaultPrefix)
}

// GenerateWithPrefix returns a reference code with a custom prefix.
func GenerateWithPrefix(prefix string) string {
	datePart := time.Now().UTC().Format("20060102")
	return fmt.Sprintf("%s-%s-%s", prefix, datePart, randomString(randomLen))
}

// ValidateFormat reports whether the code matches the reference format.
func ValidateFormat(code string) bool {
	return referencePattern.MatchString(code)
}

// ExtractDate parses the date part of a reference code.
func ExtractDate(code string) (time.Time, bool) {
	if !ValidateFormat(code) {
		return time.Time{}, false
	}
	// PREFIX-YYYYMMDD-XXXXX: the date starts after the first dash.
	var datePart string
	for i := 0; i < len(code); i++ {
		if code[i] == '-' {
			datePart = code[i+1 : i+9]
			break
		}
	}
	t, err := time.Parse("20060102", datePart)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ReceiptNumber formats a yearly sequential receipt number, RCPT-YYYY-NNNNNN.
func ReceiptNumber(year int, sequence int64) string {
	return fmt.Sprintf("RCPT-%d-%06d", year, sequence)
}

func randomString(length int) string {
	max := big.NewInt(int64(len(alphanumeric)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to the first character rather than panic mid-request.
			b[i] = alphanumeric[0]
			continue
		}
		b[i] = alphanumeric[n.Int64()]
	}
	return string(b)
}
