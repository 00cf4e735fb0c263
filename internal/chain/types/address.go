package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

const AddressLen = 32

// Address is a 32-byte Aptos account address.
type Address [AddressLen]byte

// ParseAddress accepts long and short 0x-prefixed hex forms.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if raw == "" || len(raw) > 2*AddressLen {
		return a, fmt.Errorf("invalid address %q", s)
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(a[AddressLen-len(b):], b)
	return a, nil
}

// String returns the long form, 0x followed by 64 hex digits.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsSpecial reports addresses 0x0 through 0xf, which Aptos prints in short form.
func (a Address) IsSpecial() bool {
	return bytes.Equal(a[:AddressLen-1], make([]byte, AddressLen-1)) && a[AddressLen-1] < 0x10
}

// StringShort returns the short form for special addresses and the long form otherwise.
func (a Address) StringShort() string {
	if a.IsSpecial() {
		return fmt.Sprintf("0x%x", a[AddressLen-1])
	}
	return a.String()
}

// NormalizeAddress returns the long form of s, or s unchanged if it does not parse.
func NormalizeAddress(s string) string {
	a, err := ParseAddress(s)
	if err != nil {
		return s
	}
	return a.String()
}

// EncodeHex renders bytes as 0x-prefixed hex, the form the REST API uses for
// keys, signatures and signing messages.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex decodes an optionally 0x-prefixed hex string.
func DecodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
}
