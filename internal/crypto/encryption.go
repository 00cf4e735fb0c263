package crypto2

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

// 加密参数常量
const (
	// Scrypt 参数 (N=2^17, r=8, p=1)
	ScryptN      = 1 << 17 // 131072
	ScryptR      = 8
	ScryptP      = 1
	ScryptKeyLen = 32

	// Argon2id 参数
	Argon2Time    = 3
	Argon2Memory  = 64 * 1024 // 64 MB
	Argon2Threads = 4
	Argon2KeyLen  = 32

	// SecretLen is the vault secret length (AES-256).
	SecretLen = 32
	// IVLen is the AES-CBC initialization vector length.
	IVLen = aes.BlockSize

	delimiter = ":"
)

// ErrDecryption is matched by every DecryptionError.
var ErrDecryption = errors.New("decryption failed")

// DecryptionError reports ciphertext that cannot be opened with the vault secret.
type DecryptionError struct {
	Reason string
}

func (e *DecryptionError) Error() string { return "decryption failed: " + e.Reason }

func (e *DecryptionError) Is(target error) bool { return target == ErrDecryption }

func decryptErr(reason string) error { return &DecryptionError{Reason: reason} }

// GenerateEncryptKey derives an encryption key using Scrypt + Argon2id
// 双重密钥派生：Scrypt 抗 ASIC，Argon2id 抗 GPU
func GenerateEncryptKey(password, salt []byte) ([]byte, error) {
	// 第一层：Scrypt 派生
	scryptKey, err := scrypt.Key(password, salt, ScryptN, ScryptR, ScryptP, ScryptKeyLen)
	if err != nil {
		return nil, err
	}
	// 第二层：Argon2id 派生
	return argon2.IDKey(scryptKey, salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen), nil
}

// Hash256 computes SHA-256 hash of data
func Hash256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// EncryptCBC encrypts plaintext with AES-256-CBC and PKCS#7 padding under a fresh IV.
// Returns hex(iv) + ":" + hex(ciphertext).
func EncryptCBC(plaintext, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, IVLen)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	defer clear(padded)

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + delimiter + hex.EncodeToString(out), nil
}

// DecryptCBC reverses EncryptCBC.
func DecryptCBC(ciphertext string, key []byte) ([]byte, error) {
	ivHex, bodyHex, ok := strings.Cut(ciphertext, delimiter)
	if !ok {
		return nil, decryptErr("missing delimiter")
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, decryptErr("invalid iv encoding")
	}
	if len(iv) != IVLen {
		return nil, decryptErr("invalid iv length")
	}
	body, err := hex.DecodeString(bodyHex)
	if err != nil {
		return nil, decryptErr("invalid ciphertext encoding")
	}
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return nil, decryptErr("invalid ciphertext length")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, decryptErr("invalid key")
	}

	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		clear(out)
		return nil, err
	}
	return plain, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, decryptErr("empty plaintext")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, decryptErr("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, decryptErr("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
