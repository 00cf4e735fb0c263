package wallet

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	logging "github.com/ipfs/go-log/v2"

	"aptos-swap/internal/chain/types"
	crypto2 "aptos-swap/internal/crypto"
	"aptos-swap/internal/models"
	"aptos-swap/internal/repository"
)

var log = logging.Logger("wallet")

// MaxLabelLen 钱包标签的最大长度
const MaxLabelLen = 100

// ErrInvalidLabel 标签为空或超长
var ErrInvalidLabel = errors.New("invalid wallet label")

// ErrKeyMismatch 解密出的私钥与钱包地址不符
var ErrKeyMismatch = errors.New("decrypted key does not match wallet address")

// WalletNew 创建新的钱包密钥
// 根据指定的密钥类型生成新密钥并派生地址
func WalletNew(typ types.KeyType) (*types.KeyInfo, types.Address, error) {
	log.Infof("WalletNew: generating new key of type %s", typ)

	if err := checkKeyType(typ); err != nil {
		return nil, types.Address{}, err
	}

	seed, err := GenerateKey()
	if err != nil {
		log.Errorf("WalletNew: failed to generate key: %v", err)
		return nil, types.Address{}, err
	}

	addr, err := PrivateKeyToAddress(seed)
	if err != nil {
		clear(seed)
		log.Errorf("WalletNew: failed to derive address: %v", err)
		return nil, types.Address{}, fmt.Errorf("failed to derive address: %w", err)
	}

	log.Infof("WalletNew: successfully generated new key, address: %s", addr)
	return &types.KeyInfo{Type: typ, PrivateKey: seed}, addr, nil
}

// WalletImport 从密钥信息派生地址
func WalletImport(ki *types.KeyInfo) (types.Address, error) {
	log.Debugf("WalletImport: importing key of type %s", ki.Type)

	if err := checkKeyType(ki.Type); err != nil {
		return types.Address{}, err
	}
	addr, err := PrivateKeyToAddress(ki.PrivateKey)
	if err != nil {
		log.Errorf("WalletImport: failed to derive address: %v", err)
		return types.Address{}, fmt.Errorf("failed to make key: %w", err)
	}
	return addr, nil
}

// Signer 内存中的签名身份，仅供交易流水线使用
// 用完后必须调用 Wipe
type Signer struct {
	Address   types.Address
	PublicKey ed25519.PublicKey
	seed      []byte
}

// Sign 对签名消息进行 Ed25519 签名
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	if len(s.seed) == 0 {
		return nil, errors.New("signer has been wiped")
	}
	return SignBytes(msg, s.seed)
}

// Wipe 清零私钥
func (s *Signer) Wipe() {
	if s != nil {
		clear(s.seed)
		s.seed = nil
	}
}

// Ledger 用户钱包账本
// 私钥经 Vault 加密后写入仓储，明文私钥只在创建时返回一次
type Ledger struct {
	store *repository.Store
	vault *crypto2.Vault
}

func NewLedger(store *repository.Store, vault *crypto2.Vault) *Ledger {
	return &Ledger{store: store, vault: vault}
}

// GetOrCreateUser 按前端用户 ID 查找或创建用户
func (l *Ledger) GetOrCreateUser(ctx context.Context, externalID, username string) (*models.User, error) {
	return l.store.GetOrCreateUser(ctx, externalID, username)
}

// CreateWallet 为用户创建新钱包
// 返回钱包记录与明文私钥；调用方负责一次性展示
func (l *Ledger) CreateWallet(ctx context.Context, userID uint) (*models.Wallet, string, error) {
	log.Infof("CreateWallet: creating wallet for user #%d", userID)

	ki, addr, err := WalletNew(types.KTEd25519)
	if err != nil {
		return nil, "", err
	}
	defer ki.Wipe()

	plaintext := types.EncodePrivateKey(ki.PrivateKey)
	encrypted, err := l.vault.Encrypt([]byte(plaintext))
	if err != nil {
		log.Errorf("CreateWallet: failed to encrypt key for user #%d: %v", userID, err)
		return nil, "", fmt.Errorf("failed to encrypt key: %w", err)
	}

	w, err := l.store.InsertWallet(ctx, userID, addr.String(), encrypted)
	if err != nil {
		return nil, "", err
	}

	log.Infof("CreateWallet: created wallet #%d %s for user #%d", w.ID, w.Address, userID)
	return w, plaintext, nil
}

func (l *Ledger) GetWalletByID(ctx context.Context, id, userID uint) (*models.Wallet, error) {
	return l.store.GetWallet(ctx, id, userID)
}

func (l *Ledger) GetDefaultWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	return l.store.GetDefaultWallet(ctx, userID)
}

func (l *Ledger) ListWallets(ctx context.Context, userID uint) ([]models.Wallet, error) {
	return l.store.ListWallets(ctx, userID)
}

// SetDefaultWallet 设置默认钱包（幂等）
func (l *Ledger) SetDefaultWallet(ctx context.Context, id, userID uint) error {
	return l.store.SetDefaultWallet(ctx, id, userID)
}

// RenameWallet 修改钱包标签，标签不超过 100 个字符
func (l *Ledger) RenameWallet(ctx context.Context, id, userID uint, label string) error {
	label = strings.TrimSpace(label)
	if label == "" || utf8.RuneCountInString(label) > MaxLabelLen {
		return fmt.Errorf("%w: must be 1 to %d characters", ErrInvalidLabel, MaxLabelLen)
	}
	return l.store.RenameWallet(ctx, id, userID, label)
}

// DeleteWalletByID 删除钱包；删除默认钱包时最早的剩余钱包成为默认
func (l *Ledger) DeleteWalletByID(ctx context.Context, id, userID uint) error {
	return l.store.DeleteWallet(ctx, id, userID)
}

// Signer 解密钱包私钥并构造签名身份
// 校验私钥派生的地址与钱包记录一致
func (l *Ledger) Signer(w *models.Wallet) (*Signer, error) {
	log.Debugf("Signer: loading key of wallet #%d", w.ID)

	plaintext, err := l.vault.Decrypt(w.EncryptedPrivateKey)
	if err != nil {
		log.Errorf("Signer: failed to decrypt key of wallet #%d: %v", w.ID, err)
		return nil, err
	}
	defer clear(plaintext)

	ki, err := types.ParsePrivateKey(string(plaintext))
	if err != nil {
		log.Errorf("Signer: stored key of wallet #%d is malformed", w.ID)
		return nil, fmt.Errorf("wallet #%d: %w", w.ID, err)
	}

	addr, err := WalletImport(ki)
	if err != nil {
		ki.Wipe()
		return nil, err
	}
	if addr.String() != types.NormalizeAddress(w.Address) {
		ki.Wipe()
		log.Errorf("Signer: wallet #%d key derives %s, expected %s", w.ID, addr, w.Address)
		return nil, ErrKeyMismatch
	}
	pub, err := PublicKey(ki.PrivateKey)
	if err != nil {
		ki.Wipe()
		return nil, err
	}

	return &Signer{Address: addr, PublicKey: pub, seed: ki.PrivateKey}, nil
}
