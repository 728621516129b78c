package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAddress indicates a malformed wallet address.
var ErrInvalidAddress = errors.New("invalid wallet address")

const addressHexLength = 64

// ValidateAddress checks that an address is a 0x-prefixed 64-hex-character
// account identifier. Malformed addresses are rejected before any network call.
func ValidateAddress(address string) error {
	if !strings.HasPrefix(address, "0x") {
		return fmt.Errorf("%w: missing 0x prefix: %q", ErrInvalidAddress, address)
	}
	hex := address[2:]
	if len(hex) != addressHexLength {
		return fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidAddress, addressHexLength, len(hex))
	}
	for _, c := range hex {
		if !isHexDigit(c) {
			return fmt.Errorf("%w: non-hex character %q", ErrInvalidAddress, c)
		}
	}
	return nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
