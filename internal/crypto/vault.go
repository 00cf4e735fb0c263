package crypto2

import (
	"fmt"
)

// Vault holds the process-wide secret. It is immutable after construction and
// safe for concurrent use.
type Vault struct {
	secret [SecretLen]byte
}

// NewVault derives the vault secret from an operator passphrase.
// kdf is "sha256" (default, SHA-256 of the passphrase) or "scrypt-argon2".
func NewVault(passphrase []byte, kdf string) (*Vault, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("empty vault passphrase")
	}

	var key []byte
	switch kdf {
	case "", "sha256":
		key = Hash256(passphrase)
	case "scrypt-argon2":
		var err error
		key, err = GenerateEncryptKey(passphrase, Hash256(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to derive encryption key: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported key derivation: %s", kdf)
	}

	defer clear(key)
	return NewVaultFromKey(key)
}

// NewVaultFromKey wraps an already-derived 32-byte secret.
func NewVaultFromKey(key []byte) (*Vault, error) {
	if len(key) != SecretLen {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", SecretLen, len(key))
	}
	v := &Vault{}
	copy(v.secret[:], key)
	return v, nil
}

// Encrypt seals plaintext under the vault secret with a fresh IV.
// The result is hex(iv) + ":" + hex(ciphertext); equal plaintexts never repeat.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	return EncryptCBC(plaintext, v.secret[:])
}

// Decrypt opens a value produced by Encrypt. A malformed value or a wrong
// secret fails with ErrDecryption; the caller should clear the returned bytes.
func (v *Vault) Decrypt(ciphertext string) ([]byte, error) {
	return DecryptCBC(ciphertext, v.secret[:])
}
