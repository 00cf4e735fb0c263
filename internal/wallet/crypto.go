package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"

	"aptos-swap/internal/chain/types"
)

// SignBytes signs data with an Ed25519 seed.
func SignBytes(data []byte, seed []byte) ([]byte, error) {
	log.Debug("SignBytes: signing data with ed25519")

	if len(seed) != ed25519.SeedSize {
		log.Errorf("SignBytes: invalid seed length %d", len(seed))
		return nil, fmt.Errorf("invalid ed25519 seed length: %d", len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	defer clear(priv)

	return ed25519.Sign(priv, data), nil
}

// PublicKey returns the Ed25519 public key of a seed.
func PublicKey(seed []byte) (ed25519.PublicKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid ed25519 seed length: %d", len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	defer clear(priv)

	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, priv.Public().(ed25519.PublicKey))
	return pub, nil
}

// AddressFromPublicKey derives the account address of a single-key account:
// sha3-256(pubkey || 0x00).
func AddressFromPublicKey(pub ed25519.PublicKey) types.Address {
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{ed25519Scheme})
	var addr types.Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// PrivateKeyToAddress derives the Aptos address of an Ed25519 seed.
func PrivateKeyToAddress(seed []byte) (types.Address, error) {
	log.Debug("PrivateKeyToAddress: deriving address")

	pub, err := PublicKey(seed)
	if err != nil {
		log.Errorf("PrivateKeyToAddress: failed to get public key: %v", err)
		return types.Address{}, err
	}
	addr := AddressFromPublicKey(pub)
	log.Debugf("PrivateKeyToAddress: derived address %s", addr)
	return addr, nil
}

// GenerateKey generates a new Ed25519 seed.
func GenerateKey() ([]byte, error) {
	log.Debug("GenerateKey: generating new ed25519 key")

	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		log.Errorf("GenerateKey: failed to read random seed: %v", err)
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return seed, nil
}
