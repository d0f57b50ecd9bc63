package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// TrackingAlphabet excludes O, I, 0 and 1.
const TrackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TrackingCodeLength is the number of characters in a tracking code.
const TrackingCodeLength = 5

var alphabetSize = big.NewInt(int64(len(TrackingAlphabet)))

// NewTrackingCode draws a random code from TrackingAlphabet.
func NewTrackingCode() (string, error) {
	var b strings.Builder
	b.Grow(TrackingCodeLength)
	for i := 0; i < TrackingCodeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("booking: tracking code: %w", err)
		}
		b.WriteByte(TrackingAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeTrackingCode uppercases and trims user input.
func NormalizeTrackingCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "#")))
}

// ValidTrackingCode reports whether s has the shape of a tracking code.
func ValidTrackingCode(s string) bool {
	if len(s) != TrackingCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(TrackingAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
