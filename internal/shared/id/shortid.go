// Package id generates Stripe-style prefixed short identifiers.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength = 12
)

const (
	PrefixTicket            = "tkt"
	PrefixVouch             = "vch"
	PrefixPaidHelperProfile = "phl"
)

// Generate creates a cryptographically random Base62 string.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))
	for i := range result {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}
	return string(result), nil
}

// GenerateWithPrefix creates an ID in the form "prefix_randomstring".
func GenerateWithPrefix(prefix string) (string, error) {
	s, err := Generate(DefaultLength)
	if err != nil {
		return "", err
	}
	return prefix + "_" + s, nil
}

// ParsePrefixedID splits "prefix_short" into its parts.
func ParsePrefixedID(prefixedID string) (prefix, shortID string, err error) {
	prefix, shortID, ok := strings.Cut(prefixedID, "_")
	if !ok || prefix == "" || shortID == "" {
		return "", "", fmt.Errorf("invalid prefixed ID format: %s", prefixedID)
	}
	return prefix, shortID, nil
}

// ValidatePrefix checks that prefixedID carries expectedPrefix.
func ValidatePrefix(prefixedID, expectedPrefix string) error {
	prefix, _, err := ParsePrefixedID(prefixedID)
	if err != nil {
		return err
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("invalid prefix: expected %s, got %s", expectedPrefix, prefix)
	}
	return nil
}

func NewTicketID() (string, error) {
	return GenerateWithPrefix(PrefixTicket)
}

func NewVouchID() (string, error) {
	return GenerateWithPrefix(PrefixVouch)
}

func NewPaidHelperProfileID() (string, error) {
	return GenerateWithPrefix(PrefixPaidHelperProfile)
}
