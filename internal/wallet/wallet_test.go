package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptos-swap/internal/chain/types"
	crypto2 "aptos-swap/internal/crypto"
	"aptos-swap/internal/repository"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	store, err := repository.OpenStore("sqlite", filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	vault, err := crypto2.NewVault([]byte("correct horse battery staple"), "sha256")
	require.NoError(t, err)
	return NewLedger(store, vault)
}

func TestAddressDerivation(t *testing.T) {
	// The all-zero seed derives a well-known Ed25519 public key.
	seed := make([]byte, 32)
	pub, err := PublicKey(seed)
	require.NoError(t, err)
	assert.Equal(t, "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29", hex.EncodeToString(pub))

	addr := AddressFromPublicKey(pub)
	assert.Equal(t, "0x08e845d10bbb594fcffceb36d934a188bb84d9cdf7362e4e2522265b185127cb", addr.String())

	again, err := PrivateKeyToAddress(seed)
	require.NoError(t, err)
	assert.Equal(t, addr, again)
}

func TestSignBytesVerifies(t *testing.T) {
	ki, addr, err := WalletNew(types.KTEd25519)
	require.NoError(t, err)

	imported, err := WalletImport(ki)
	require.NoError(t, err)
	assert.Equal(t, addr, imported)

	msg := []byte("signing message")
	sig, err := SignBytes(msg, ki.PrivateKey)
	require.NoError(t, err)
	pub, err := PublicKey(ki.PrivateKey)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, msg, sig))

	_, _, err = WalletNew("secp256k1")
	assert.Error(t, err)
}

func TestCreateWalletRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	user, err := l.GetOrCreateUser(ctx, "chat-1", "alice")
	require.NoError(t, err)

	w, key, err := l.CreateWallet(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, w.IsDefault)
	assert.True(t, strings.HasPrefix(key, "0x"))
	assert.Len(t, key, 66)
	assert.NotContains(t, w.EncryptedPrivateKey, key[2:])

	signer, err := l.Signer(w)
	require.NoError(t, err)
	defer signer.Wipe()
	assert.Equal(t, w.Address, signer.Address.String())

	ki, err := types.ParsePrivateKey(key)
	require.NoError(t, err)
	addr, err := WalletImport(ki)
	require.NoError(t, err)
	assert.Equal(t, w.Address, addr.String())

	sig, err := signer.Sign([]byte("m"))
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(signer.PublicKey, []byte("m"), sig))

	signer.Wipe()
	_, err = signer.Sign([]byte("m"))
	assert.Error(t, err)
}

func TestSignerRejectsForeignKey(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	w1, _, err := l.CreateWallet(ctx, 1)
	require.NoError(t, err)
	w2, _, err := l.CreateWallet(ctx, 1)
	require.NoError(t, err)

	swapped := *w1
	swapped.EncryptedPrivateKey = w2.EncryptedPrivateKey
	_, err = l.Signer(&swapped)
	assert.ErrorIs(t, err, ErrKeyMismatch)

	swapped.EncryptedPrivateKey = "00:00"
	_, err = l.Signer(&swapped)
	assert.ErrorIs(t, err, crypto2.ErrDecryption)
}

func TestRenameAndDelete(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	w1, _, err := l.CreateWallet(ctx, 1)
	require.NoError(t, err)
	w2, _, err := l.CreateWallet(ctx, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, l.RenameWallet(ctx, w1.ID, 1, "  "), ErrInvalidLabel)
	assert.ErrorIs(t, l.RenameWallet(ctx, w1.ID, 1, strings.Repeat("x", 101)), ErrInvalidLabel)
	require.NoError(t, l.RenameWallet(ctx, w1.ID, 1, "trading"))
	assert.ErrorIs(t, l.RenameWallet(ctx, w1.ID, 2, "mine now"), repository.ErrNotFound)

	got, err := l.GetWalletByID(ctx, w1.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "trading", got.Label)

	require.NoError(t, l.DeleteWalletByID(ctx, w1.ID, 1))
	def, err := l.GetDefaultWallet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, w2.ID, def.ID)

	list, err := l.ListWallets(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
