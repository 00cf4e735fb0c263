package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyType defines a type of key.
type KeyType string

const (
	KTEd25519 KeyType = "ed25519"

	// ed25519PrivPrefix is the AIP-80 private key prefix.
	ed25519PrivPrefix = "ed25519-priv-"
	Ed25519SeedLen    = 32
)

type KeyInfo struct {
	Type       KeyType
	PrivateKey []byte
}

// EncodePrivateKey renders the 32-byte seed as 0x-prefixed hex, the format stored in the vault.
func EncodePrivateKey(seed []byte) string {
	return "0x" + hex.EncodeToString(seed)
}

// ParsePrivateKey accepts "0x<hex>", "<hex>" and the AIP-80 "ed25519-priv-0x<hex>" forms.
func ParsePrivateKey(s string) (*KeyInfo, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ed25519PrivPrefix)
	s = strings.TrimPrefix(s, "0x")
	seed, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key encoding")
	}
	if len(seed) != Ed25519SeedLen {
		clear(seed)
		return nil, fmt.Errorf("invalid ed25519 private key length: expected %d, got %d", Ed25519SeedLen, len(seed))
	}
	return &KeyInfo{Type: KTEd25519, PrivateKey: seed}, nil
}

// Wipe zeroes the private key material.
func (ki *KeyInfo) Wipe() {
	if ki != nil {
		clear(ki.PrivateKey)
	}
}
