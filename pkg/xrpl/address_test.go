package xrpl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidAddress(t *testing.T) {
	valid := []string{
		"rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
		"rrrrrrrrrrrrrrrrrrrrrhoLvTp",
		"rrrrrrrrrrrrrrrrrrrrBZbvji",
	}
	for _, addr := range valid {
		require.True(t, IsValidAddress(addr), "address %s", addr)
	}
}

func TestIsValidAddress_Rejects(t *testing.T) {
	invalid := []string{
		"",
		"r",
		"sHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",  // wrong prefix
		"rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTi",  // corrupted checksum
		"rHb9CJAWyB4rj91VRWn96DkukG4bwdty0h",  // '0' not in the alphabet
		"not-an-address",
	}
	for _, addr := range invalid {
		require.False(t, IsValidAddress(addr), "address %q", addr)
	}
}
