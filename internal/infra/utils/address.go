package utils

import (
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidAddress is returned by ValidateAndNormalizeAddress for input
// that IsValidAddress rejects.
var ErrInvalidAddress = errors.New("invalid address")

// IsValidAddress reports whether address is "0x" followed by exactly 40 hex
// digits, in any case.
func IsValidAddress(address string) bool {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return false
	}
	_, err := hex.DecodeString(address[2:])
	return err == nil
}

// ValidateAndNormalizeAddress returns the lowercased address, or "" and
// ErrInvalidAddress if IsValidAddress rejects it.
func ValidateAndNormalizeAddress(address string) (string, error) {
	if !IsValidAddress(address) {
		return "", ErrInvalidAddress
	}
	return NormalizeAddress(address), nil
}

// NormalizeAddress converts an Ethereum address to lowercase for consistent comparison
// This ensures that address comparisons are case-insensitive, which is the standard
// for Ethereum addresses.
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}
