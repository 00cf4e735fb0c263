package service

import (
	"context"
	"encoding/json"
	"time"

	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/models"
	"aptos-swap/internal/wallet"
)

// ChainNode is the subset of the node API the services use. *vapi.Node implements it.
type ChainNode interface {
	View(ctx context.Context, req *types.ViewRequest) ([]json.RawMessage, error)
	AccountResource(ctx context.Context, addr types.Address, resourceType string) (*types.MoveResource, error)
	SequenceNumber(ctx context.Context, addr types.Address) (uint64, error)
	EstimateGasPrice(ctx context.Context) (uint64, error)
	EncodeSubmission(ctx context.Context, raw *types.RawTransaction) ([]byte, error)
	SubmitTransaction(ctx context.Context, signed *types.SignedTransaction) (*types.PendingTransaction, error)
	WaitForTransaction(ctx context.Context, hash string, timeout, poll time.Duration) (*types.Transaction, error)
	FungibleAssetBalances(ctx context.Context, owner types.Address) ([]types.FungibleAssetBalance, error)
	FungibleAssetMetadata(ctx context.Context, assetTypes []string) ([]types.FungibleAssetMetadata, error)
}

// Wallets resolves user-scoped wallets and their signing identities. *wallet.Ledger implements it.
type Wallets interface {
	GetWalletByID(ctx context.Context, id, userID uint) (*models.Wallet, error)
	Signer(w *models.Wallet) (*wallet.Signer, error)
}

// CoinStore is the coin metadata cache table. *repository.Store implements it.
type CoinStore interface {
	FindCoinByAddress(ctx context.Context, address string) (*models.Coin, error)
	FindCoinByID(ctx context.Context, id uint) (*models.Coin, error)
	FindCoinsByAddresses(ctx context.Context, addresses []string) ([]models.Coin, error)
	CreateCoin(ctx context.Context, coin *models.Coin) error
}
