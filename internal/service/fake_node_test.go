package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aptos-swap/internal/chain/framework"
	"aptos-swap/internal/chain/liquidswap"
	"aptos-swap/internal/chain/types"
	crypto2 "aptos-swap/internal/crypto"
	"aptos-swap/internal/models"
	"aptos-swap/internal/repository"
	"aptos-swap/internal/rpc"
	"aptos-swap/internal/wallet"
)

const (
	testUSDC = "0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC"
)

var errTransport = errors.New("connection refused")

// outcome is the committed result the fake node reports for a submitted function.
type outcome struct {
	success  bool
	vmStatus string
	events   []types.Event
	waitErr  error
}

type fakeNode struct {
	mu sync.Mutex

	balances    map[string]types.BigInt
	balanceErr  error
	registered  map[string]bool
	resourceErr error
	pools       map[string]json.RawMessage
	poolAccount types.Address
	metadata    []types.FungibleAssetMetadata
	positions   []types.FungibleAssetBalance

	// outcomes by entry function suffix, e.g. "::managed_coin::register"
	outcomes map[string]outcome

	calls     int
	metaCalls int
	submitted []*types.SignedTransaction
	byHash    map[string]string
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		balances:   map[string]types.BigInt{},
		registered: map[string]bool{},
		pools:      map[string]json.RawMessage{},
		outcomes:   map[string]outcome{},
		byHash:     map[string]string{},
	}
}

func (f *fakeNode) setBalance(coin string, v uint64) {
	f.balances[types.NormalizeTypeTag(coin)] = types.NewInt(v)
}

func (f *fakeNode) touch() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeNode) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeNode) functions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.submitted))
	for _, s := range f.submitted {
		out = append(out, s.Payload.Function)
	}
	return out
}

func (f *fakeNode) View(ctx context.Context, req *types.ViewRequest) ([]json.RawMessage, error) {
	f.touch()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	bal, ok := f.balances[types.NormalizeTypeTag(req.TypeArguments[0])]
	if !ok {
		return nil, &rpc.APIError{Status: http.StatusBadRequest, Message: "Move abort in 0x1::coin: ECOIN_STORE_NOT_PUBLISHED(0x60005)", ErrorCode: "invalid_input", VMErrorCode: 4016}
	}
	return []json.RawMessage{json.RawMessage(`"` + bal.String() + `"`)}, nil
}

func (f *fakeNode) AccountResource(ctx context.Context, addr types.Address, resourceType string) (*types.MoveResource, error) {
	f.touch()
	if f.resourceErr != nil {
		return nil, f.resourceErr
	}
	notFound := &rpc.APIError{Status: http.StatusNotFound, ErrorCode: rpc.ErrorCodeResourceNotFound}
	if tag, err := types.ParseStructTag(resourceType); err == nil && tag.Name == "CoinStore" {
		if f.registered[tag.TypeArgs[0]] {
			return &types.MoveResource{Type: resourceType, Data: json.RawMessage(`{}`)}, nil
		}
		return nil, notFound
	}
	data, ok := f.pools[resourceType]
	if !ok || addr != f.poolAccount {
		return nil, notFound
	}
	return &types.MoveResource{Type: resourceType, Data: data}, nil
}

func (f *fakeNode) SequenceNumber(ctx context.Context, addr types.Address) (uint64, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.submitted)), nil
}

func (f *fakeNode) EstimateGasPrice(ctx context.Context) (uint64, error) {
	f.touch()
	return 100, nil
}

func (f *fakeNode) EncodeSubmission(ctx context.Context, raw *types.RawTransaction) ([]byte, error) {
	f.touch()
	return []byte("signing-message:" + raw.SequenceNumber), nil
}

func (f *fakeNode) SubmitTransaction(ctx context.Context, signed *types.SignedTransaction) (*types.PendingTransaction, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, signed)
	hash := fmt.Sprintf("0x%02d", len(f.submitted))
	f.byHash[hash] = signed.Payload.Function
	return &types.PendingTransaction{Hash: hash, Type: types.TxTypePending}, nil
}

func (f *fakeNode) WaitForTransaction(ctx context.Context, hash string, timeout, poll time.Duration) (*types.Transaction, error) {
	f.touch()
	f.mu.Lock()
	fn := f.byHash[hash]
	f.mu.Unlock()

	res := outcome{success: true, vmStatus: "Executed successfully"}
	for suffix, o := range f.outcomes {
		if strings.HasSuffix(fn, suffix) {
			res = o
		}
	}
	if res.waitErr != nil {
		return nil, res.waitErr
	}
	return &types.Transaction{
		Type:     types.TxTypeUser,
		Hash:     hash,
		Version:  "100",
		Success:  res.success,
		VMStatus: res.vmStatus,
		GasUsed:  "12",
		Events:   res.events,
	}, nil
}

func (f *fakeNode) FungibleAssetBalances(ctx context.Context, owner types.Address) ([]types.FungibleAssetBalance, error) {
	f.touch()
	return f.positions, nil
}

func (f *fakeNode) FungibleAssetMetadata(ctx context.Context, assetTypes []string) ([]types.FungibleAssetMetadata, error) {
	f.touch()
	f.mu.Lock()
	f.metaCalls++
	f.mu.Unlock()
	var out []types.FungibleAssetMetadata
	for _, m := range f.metadata {
		for _, a := range assetTypes {
			if types.NormalizeAssetType(a) == types.NormalizeAssetType(m.AssetType) {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// countingStore counts coin cache writes.
type countingStore struct {
	*repository.Store
	mu     sync.Mutex
	writes int
}

func (s *countingStore) CreateCoin(ctx context.Context, coin *models.Coin) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.Store.CreateCoin(ctx, coin)
}

type harness struct {
	node    *fakeNode
	store   *countingStore
	ledger  *wallet.Ledger
	pools   *liquidswap.Config
	coins   *CoinCache
	gateway *Gateway
	exec    *Executor
	swap    *Orchestrator

	user   *models.User
	wallet *models.Wallet
	apt    *models.Coin
	usdc   *models.Coin
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := repository.OpenStore("sqlite", filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	vault, err := crypto2.NewVault([]byte("test passphrase"), "sha256")
	require.NoError(t, err)
	pools, err := liquidswap.NewConfig(
		"0x163df34fccbf003ce219d3f1d9e70d140b60622cb9dd47599c25fb2f797ba6e",
		"0x61d2c22a6cb7831bee0f48363b0eec92369357aece0d1142062f7d5d85c7bef8",
		"scripts", "Uncorrelated")
	require.NoError(t, err)

	h := &harness{node: newFakeNode(), store: &countingStore{Store: store}, pools: pools}
	h.node.poolAccount = pools.ResourceAccount
	h.node.metadata = []types.FungibleAssetMetadata{{AssetType: testUSDC, Name: "USD Coin", Symbol: "USDC", Decimals: 6}}
	h.ledger = wallet.NewLedger(store, vault)
	h.coins = NewCoinCache(h.store, h.node)
	h.gateway = NewGateway(h.node, h.store)
	h.exec = NewExecutor(h.node, h.ledger, TxOptions{
		MaxGasAmount: 200000,
		Expiration:   20 * time.Second,
		WaitTimeout:  time.Second,
		PollInterval: time.Millisecond,
	})
	h.swap = NewOrchestrator(h.gateway, h.exec, h.coins, h.ledger, h.node, pools, 50)

	h.user, err = h.ledger.GetOrCreateUser(ctx, "chat-42", "trader")
	require.NoError(t, err)
	h.wallet, _, err = h.ledger.CreateWallet(ctx, h.user.ID)
	require.NoError(t, err)
	h.apt, err = h.coins.GetOrCreateCachedCoin(ctx, framework.NativeCoin)
	require.NoError(t, err)
	h.usdc, err = h.coins.GetOrCreateCachedCoin(ctx, testUSDC)
	require.NoError(t, err)

	// USDC is X in the sorted pair: 1,000 USDC against 1,000 APT.
	poolType, _, err := pools.PoolType(testUSDC, framework.NativeCoin)
	require.NoError(t, err)
	h.node.pools[poolType] = json.RawMessage(`{"coin_x_reserve":{"value":"1000000000"},"coin_y_reserve":{"value":"100000000000"},"fee":"30"}`)

	h.node.calls = 0
	return h
}

// swapEvent builds the pool's SwapEvent with the given outputs.
func (h *harness) swapEvent(t *testing.T, xOut, yOut string) types.Event {
	t.Helper()
	poolType, _, err := h.pools.PoolType(testUSDC, framework.NativeCoin)
	require.NoError(t, err)
	data, err := json.Marshal(map[string]string{"x_in": "0", "x_out": xOut, "y_in": "0", "y_out": yOut})
	require.NoError(t, err)
	return types.Event{Type: strings.Replace(poolType, "::LiquidityPool<", "::SwapEvent<", 1), Data: data}
}
