package domain

import (
	"fmt"
	"strings"
)

// AddressLen is the number of hex digits in a device hardware address.
const AddressLen = 12

// Address is a device hardware (MAC) address in canonical form:
// 12 upper-case hex digits, no separators.
type Address string

// NormalizeAddress accepts "a1b2c3d4e5f6", "A1:B2:C3:D4:E5:F6" or "a1-b2-..." forms.
func NormalizeAddress(s string) (Address, error) {
	raw := strings.TrimSpace(s)
	if len(raw) == 17 {
		raw = strings.NewReplacer(":", "", "-", "").Replace(raw)
	}
	if !IsHexAddress(raw) {
		return "", fmt.Errorf("%w: invalid device address %q", ErrValidation, s)
	}
	return Address(strings.ToUpper(raw)), nil
}

// IsHexAddress reports whether s is exactly 12 hex digits (either case).
func IsHexAddress(s string) bool {
	if len(s) != AddressLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func (a Address) String() string { return string(a) }
