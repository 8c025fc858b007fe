package xrpl

import (
	"crypto/sha256"
	"strings"

	"github.com/mr-tron/base58"
)

// The ledger's base58 dialect. Account identifiers start with 'r' because
// the payload is prefixed with the account address type byte (0x00).
const addressAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

const accountAddressPrefix = 0x00

var rippleAlphabet = base58.NewAlphabet(addressAlphabet)

// IsValidAddress reports whether s is a well-formed classic account address:
// correct prefix, correct decoded length, and a valid double-SHA256 checksum.
func IsValidAddress(s string) bool {
	if !strings.HasPrefix(s, "r") || len(s) < 25 || len(s) > 35 {
		return false
	}
	decoded, err := base58.DecodeAlphabet(s, rippleAlphabet)
	if err != nil || len(decoded) != 25 {
		return false
	}
	if decoded[0] != accountAddressPrefix {
		return false
	}
	payload, checksum := decoded[:21], decoded[21:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	for i := 0; i < 4; i++ {
		if checksum[i] != second[i] {
			return false
		}
	}
	return true
}
