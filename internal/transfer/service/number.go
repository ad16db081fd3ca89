package service

import (
	"crypto/rand"
	"fmt"
	"time"
)

// GenerateTransferNumber returns TR-<year>-<8 uppercase hex digits> from four
// random bytes.
func GenerateTransferNumber(now time.Time) (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate transfer number: %w", err)
	}
	return fmt.Sprintf("TR-%d-%X", now.Year(), b[:]), nil
}
