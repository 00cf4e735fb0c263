package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"aptos-swap/internal/chain/framework"
	"aptos-swap/internal/chain/liquidswap"
	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/models"
	"aptos-swap/internal/rpc"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeReport is the outcome of one buy or sell. Amounts are base units:
// AmountIn of the input coin, the *Out fields of the output coin.
type TradeReport struct {
	OperationID   string
	WalletID      uint
	WalletAddress string
	Coin          *models.Coin
	Side          Side

	AmountIn    types.BigInt
	QuotedOut   types.BigInt
	MinOut      types.BigInt
	RealizedOut types.BigInt

	Registered   bool
	RegisterHash string
	SwapHash     string
	Success      bool
	VMStatus     string
	Warnings     []string
}

// InputDecimals is the decimals of AmountIn.
func (r *TradeReport) InputDecimals() uint8 {
	if r.Side == SideSell {
		return r.Coin.Decimals
	}
	return framework.NativeCoinDecimals
}

// OutputDecimals is the decimals of the *Out amounts.
func (r *TradeReport) OutputDecimals() uint8 {
	if r.Side == SideSell {
		return framework.NativeCoinDecimals
	}
	return r.Coin.Decimals
}

// WithdrawReport is the outcome of a transfer out of a custodial wallet.
type WithdrawReport struct {
	OperationID   string
	WalletID      uint
	WalletAddress string
	Recipient     string
	CoinType      string
	Symbol        string
	Decimals      uint8
	Amount        types.BigInt
	Hash          string
	Success       bool
	VMStatus      string
}

// SwapIntent is a swap to be quoted and built.
type SwapIntent struct {
	From        string
	To          string
	AmountIn    types.BigInt
	SlippageBps int64
}

// SwapPlan is a built swap payload with the quote it was built from.
type SwapPlan struct {
	Payload   *types.EntryFunctionPayload
	QuotedOut types.BigInt
	MinOut    types.BigInt
}

// Orchestrator runs buy, sell and withdraw flows against Liquidswap.
type Orchestrator struct {
	gateway     *Gateway
	exec        *Executor
	coins       *CoinCache
	wallets     Wallets
	node        ChainNode
	pools       *liquidswap.Config
	slippageBps int64
	locks       *keyedMutex
	newID       func() string
}

func NewOrchestrator(gateway *Gateway, exec *Executor, coins *CoinCache, wallets Wallets, node ChainNode, pools *liquidswap.Config, slippageBps int64) *Orchestrator {
	return &Orchestrator{
		gateway:     gateway,
		exec:        exec,
		coins:       coins,
		wallets:     wallets,
		node:        node,
		pools:       pools,
		slippageBps: slippageBps,
		locks:       newKeyedMutex(),
		newID:       uuid.NewString,
	}
}

// Quote returns the expected output of swapping amount of fromToken into toToken.
func (o *Orchestrator) Quote(ctx context.Context, fromToken, toToken string, amount types.BigInt) (types.BigInt, error) {
	if types.IsZero(amount) {
		return types.EmptyInt, invalid("amount", "must be positive")
	}
	poolType, xIn, err := o.pools.PoolType(fromToken, toToken)
	if err != nil {
		return types.EmptyInt, invalid("pair", "%v", err)
	}
	log.Debugf("Quote: %s %s -> %s via %s", amount, fromToken, toToken, poolType)

	res, err := o.node.AccountResource(ctx, o.pools.ResourceAccount, poolType)
	if rpc.IsNotFound(err) {
		return types.EmptyInt, fmt.Errorf("%w: no pool for %s/%s", ErrQuoteUnavailable, fromToken, toToken)
	}
	if err != nil {
		return types.EmptyInt, err
	}
	pool, err := liquidswap.ParsePool(res.Data)
	if err != nil {
		return types.EmptyInt, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	reserveIn, reserveOut := pool.Reserves(xIn)
	out, err := liquidswap.GetAmountOut(amount, reserveIn, reserveOut, pool.Fee)
	if err != nil {
		return types.EmptyInt, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	if types.IsZero(out) {
		return types.EmptyInt, fmt.Errorf("%w: amount too small for pool liquidity", ErrQuoteUnavailable)
	}
	return out, nil
}

// BuildSwap re-quotes the intent and builds the swap payload with its minimum output.
func (o *Orchestrator) BuildSwap(ctx context.Context, intent SwapIntent) (*SwapPlan, error) {
	if intent.SlippageBps < 0 || uint64(intent.SlippageBps) >= liquidswap.FeeScale {
		return nil, invalid("slippage", "%d bps is outside [0, %d)", intent.SlippageBps, liquidswap.FeeScale)
	}
	quoted, err := o.Quote(ctx, intent.From, intent.To, intent.AmountIn)
	if err != nil {
		return nil, err
	}
	minOut := liquidswap.MinOut(quoted, uint64(intent.SlippageBps))
	return &SwapPlan{
		Payload:   o.pools.SwapPayload(intent.From, intent.To, intent.AmountIn, minOut),
		QuotedOut: quoted,
		MinOut:    minOut,
	}, nil
}

// Buy swaps a decimal amount of APT into the request's coin.
// On failures after funds may have moved the partial report is returned with the error.
func (o *Orchestrator) Buy(ctx context.Context, req TradeRequest) (*TradeReport, error) {
	amountIn, err := parseAmount(req.Amount, framework.NativeCoinDecimals)
	if err != nil {
		return nil, err
	}
	w, coin, addr, err := o.loadTrade(ctx, req)
	if err != nil {
		return nil, err
	}

	unlock := o.locks.Lock(w.Address)
	defer unlock()

	var (
		registered bool
		balance    types.BigInt
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		registered = o.gateway.IsCoinRegistered(egCtx, addr, coin.Address)
		return nil
	})
	eg.Go(func() error {
		var err error
		balance, err = o.gateway.GetBalance(egCtx, addr, framework.NativeCoin)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if types.BigCmp(balance, amountIn) < 0 {
		return nil, invalid("amount", "insufficient %s balance: have %s, need %s", framework.NativeCoinSymbol,
			types.FormatUnits(balance, framework.NativeCoinDecimals), types.FormatUnits(amountIn, framework.NativeCoinDecimals))
	}

	report := o.newReport(w, coin, SideBuy, amountIn)
	log.Infof("Buy: op=%s wallet #%d %s APT -> %s", report.OperationID, w.ID, amountIn, coin.Symbol)
	return o.execute(ctx, report, w, registered, framework.NativeCoin, coin.Address)
}

// Sell swaps Percentage percent of the wallet's coin balance into APT.
func (o *Orchestrator) Sell(ctx context.Context, req TradeRequest) (*TradeReport, error) {
	if req.Percentage < 1 || req.Percentage > 100 {
		return nil, invalid("percentage", "%d is outside [1, 100]", req.Percentage)
	}
	w, coin, addr, err := o.loadTrade(ctx, req)
	if err != nil {
		return nil, err
	}

	unlock := o.locks.Lock(w.Address)
	defer unlock()

	balance, err := o.gateway.GetBalance(ctx, addr, coin.Address)
	if err != nil {
		return nil, err
	}
	if types.IsZero(balance) {
		return nil, invalid("balance", "wallet holds no %s", coin.Symbol)
	}
	amountIn := types.MulDiv(balance, uint64(req.Percentage), 100)
	if types.IsZero(amountIn) {
		return nil, invalid("amount", "%d%% of %s is zero", req.Percentage, balance)
	}

	report := o.newReport(w, coin, SideSell, amountIn)
	log.Infof("Sell: op=%s wallet #%d %d%% (%s) %s -> APT", report.OperationID, w.ID, req.Percentage, amountIn, coin.Symbol)
	// APT is always held by a funded account.
	return o.execute(ctx, report, w, true, coin.Address, framework.NativeCoin)
}

// Withdraw transfers a decimal amount of a coin (APT by default) to a recipient.
func (o *Orchestrator) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawReport, error) {
	recipient, err := types.ParseAddress(req.Recipient)
	if err != nil {
		return nil, invalid("recipient", "%v", err)
	}
	coinType := strings.TrimSpace(req.CoinType)
	if coinType == "" {
		coinType = framework.NativeCoin
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(req.Amount)); err != nil {
		return nil, invalid("amount", "%q is not a decimal number", req.Amount)
	}

	coin, err := o.coins.GetOrCreateCachedCoin(ctx, coinType)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount, coin.Decimals)
	if err != nil {
		return nil, err
	}
	w, err := o.wallets.GetWalletByID(ctx, req.WalletID, req.UserID)
	if err != nil {
		return nil, err
	}
	addr, err := types.ParseAddress(w.Address)
	if err != nil {
		return nil, fmt.Errorf("wallet #%d has invalid address: %w", w.ID, err)
	}

	unlock := o.locks.Lock(w.Address)
	defer unlock()

	balance, err := o.gateway.GetBalance(ctx, addr, coin.Address)
	if err != nil {
		return nil, err
	}
	if types.BigCmp(balance, amount) < 0 {
		return nil, invalid("amount", "insufficient %s balance: have %s", coin.Symbol, types.FormatUnits(balance, coin.Decimals))
	}

	report := &WithdrawReport{
		OperationID:   o.newID(),
		WalletID:      w.ID,
		WalletAddress: w.Address,
		Recipient:     recipient.String(),
		CoinType:      coin.Address,
		Symbol:        coin.Symbol,
		Decimals:      coin.Decimals,
		Amount:        amount,
	}
	log.Infof("Withdraw: op=%s wallet #%d %s %s -> %s", report.OperationID, w.ID, amount, coin.Symbol, report.Recipient)

	res, err := o.exec.SignAndBroadcast(ctx, w, framework.TransferCoins(coin.Address, recipient, amount))
	if err != nil {
		var se *SubmissionError
		if errors.As(err, &se) {
			report.Hash = se.Hash
		}
		return report, err
	}
	report.Hash, report.Success, report.VMStatus = res.Hash, res.Success, res.VMStatus
	if !res.Success {
		return report, &OnChainFailure{Op: "withdraw", Hash: res.Hash, VMStatus: res.VMStatus}
	}
	return report, nil
}

func (o *Orchestrator) loadTrade(ctx context.Context, req TradeRequest) (*models.Wallet, *models.Coin, types.Address, error) {
	if req.WalletID == 0 {
		return nil, nil, types.Address{}, invalid("wallet", "id is required")
	}
	if req.CoinID == 0 {
		return nil, nil, types.Address{}, invalid("coin", "id is required")
	}
	w, err := o.wallets.GetWalletByID(ctx, req.WalletID, req.UserID)
	if err != nil {
		return nil, nil, types.Address{}, err
	}
	coin, err := o.coins.GetCachedCoinByID(ctx, req.CoinID)
	if err != nil {
		return nil, nil, types.Address{}, err
	}
	if framework.IsNativeCoin(coin.Address) {
		return nil, nil, types.Address{}, invalid("coin", "cannot trade %s against itself", framework.NativeCoinSymbol)
	}
	addr, err := types.ParseAddress(w.Address)
	if err != nil {
		return nil, nil, types.Address{}, fmt.Errorf("wallet #%d has invalid address: %w", w.ID, err)
	}
	return w, coin, addr, nil
}

func (o *Orchestrator) newReport(w *models.Wallet, coin *models.Coin, side Side, amountIn types.BigInt) *TradeReport {
	return &TradeReport{
		OperationID:   o.newID(),
		WalletID:      w.ID,
		WalletAddress: w.Address,
		Coin:          coin,
		Side:          side,
		AmountIn:      amountIn,
		QuotedOut:     types.NewInt(0),
		MinOut:        types.NewInt(0),
		RealizedOut:   types.NewInt(0),
	}
}

// execute runs register (when needed), quote, build, submit and event parsing in order.
// Nothing is retried.
func (o *Orchestrator) execute(ctx context.Context, report *TradeReport, w *models.Wallet, registered bool, from, to string) (*TradeReport, error) {
	if !registered {
		log.Infof("execute: op=%s registering %s for %s", report.OperationID, to, w.Address)
		res, err := o.exec.SignAndBroadcast(ctx, w, framework.RegisterCoin(to))
		if err != nil {
			log.Errorf("execute: op=%s registration failed, swap not attempted: %v", report.OperationID, err)
			return report, fmt.Errorf("register %s: %w", to, err)
		}
		report.RegisterHash = res.Hash
		if !res.Success {
			log.Errorf("execute: op=%s registration %s rejected: %s", report.OperationID, res.Hash, res.VMStatus)
			return report, &OnChainFailure{Op: "register", Hash: res.Hash, VMStatus: res.VMStatus}
		}
		report.Registered = true
	}

	plan, err := o.BuildSwap(ctx, SwapIntent{From: from, To: to, AmountIn: report.AmountIn, SlippageBps: o.slippageBps})
	if err != nil {
		return report, err
	}
	report.QuotedOut, report.MinOut = plan.QuotedOut, plan.MinOut

	res, err := o.exec.SignAndBroadcast(ctx, w, plan.Payload)
	if err != nil {
		var se *SubmissionError
		if errors.As(err, &se) {
			report.SwapHash = se.Hash
		}
		return report, err
	}
	report.SwapHash, report.Success, report.VMStatus = res.Hash, res.Success, res.VMStatus
	if !res.Success {
		return report, &OnChainFailure{Op: "swap", Hash: res.Hash, VMStatus: res.VMStatus}
	}

	out, found, ambiguous := types.RealizedOutput(res.Events, to)
	switch {
	case !found:
		log.Warnf("execute: op=%s swap %s emitted no matching swap event", report.OperationID, res.Hash)
		report.Warnings = append(report.Warnings, "no swap event found, realized output unknown")
	case ambiguous:
		log.Warnf("execute: op=%s swap event of %s has no readable pool coins, using nonzero side", report.OperationID, res.Hash)
		report.Warnings = append(report.Warnings, "realized output read from an untyped swap event")
	}
	report.RealizedOut = out
	log.Infof("execute: op=%s swap %s realized %s (quoted %s)", report.OperationID, res.Hash, out, report.QuotedOut)
	return report, nil
}

// parseAmount converts a positive decimal string into base units.
func parseAmount(s string, decimals uint8) (types.BigInt, error) {
	amt, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return types.EmptyInt, invalid("amount", "%q is not a decimal number", s)
	}
	if !amt.IsPositive() {
		return types.EmptyInt, invalid("amount", "must be positive")
	}
	v, err := types.ToBaseUnits(amt, decimals)
	if err != nil {
		return types.EmptyInt, invalid("amount", "%v", err)
	}
	return v, nil
}
