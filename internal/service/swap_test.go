package service

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptos-swap/internal/chain/framework"
	"aptos-swap/internal/chain/liquidswap"
	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/repository"
)

func TestBuyRegistersThenSwaps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.node.setBalance(framework.NativeCoin, 5*types.OctasPerAPT)
	h.node.outcomes["::scripts::swap"] = outcome{success: true, events: []types.Event{
		{Type: "0x1::coin::WithdrawEvent", Data: []byte(`{"amount":"100000000"}`)},
		h.swapEvent(t, "9871", "0"),
	}}

	report, err := h.swap.Buy(ctx, TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Amount: "1"})
	require.NoError(t, err)

	fns := h.node.functions()
	require.Len(t, fns, 2)
	assert.Equal(t, "0x1::managed_coin::register", fns[0])
	assert.Contains(t, fns[1], "::scripts::swap")

	assert.True(t, report.Registered)
	assert.Equal(t, "0x01", report.RegisterHash)
	assert.Equal(t, "0x02", report.SwapHash)
	assert.True(t, report.Success)
	assert.NotEmpty(t, report.OperationID)
	assert.Equal(t, "100000000", report.AmountIn.String())
	assert.Equal(t, "9871", report.RealizedOut.String())
	assert.Empty(t, report.Warnings)

	// Slippage protection is derived from the quote.
	assert.Equal(t, liquidswap.MinOut(report.QuotedOut, 50).String(), report.MinOut.String())
	swap := h.node.submitted[1].Payload
	assert.Equal(t, []any{"100000000", report.MinOut.String()}, swap.Arguments)
	assert.True(t, types.SameType(swap.TypeArguments[0], framework.NativeCoin))
	assert.True(t, types.SameType(swap.TypeArguments[1], testUSDC))
}

func TestBuySkipsRegistrationWhenRegistered(t *testing.T) {
	h := newHarness(t)
	h.node.setBalance(framework.NativeCoin, types.OctasPerAPT)
	h.node.registered[types.NormalizeTypeTag(testUSDC)] = true

	report, err := h.swap.Buy(context.Background(), TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Amount: "0.5"})
	require.NoError(t, err)
	assert.False(t, report.Registered)
	assert.Len(t, h.node.functions(), 1)
	// No event was emitted for the swap.
	assert.True(t, types.IsZero(report.RealizedOut))
	assert.Len(t, report.Warnings, 1)
}

func TestFailedRegistrationStopsSwap(t *testing.T) {
	tests := []struct {
		name    string
		outcome outcome
		check   func(t *testing.T, err error)
	}{
		{
			name:    "rejected on chain",
			outcome: outcome{success: false, vmStatus: "Move abort: ECOIN_STORE_ALREADY_PUBLISHED"},
			check: func(t *testing.T, err error) {
				var failure *OnChainFailure
				require.True(t, errors.As(err, &failure))
				assert.Equal(t, "register", failure.Op)
			},
		},
		{
			name:    "finality unknown",
			outcome: outcome{waitErr: errTransport},
			check: func(t *testing.T, err error) {
				var se *SubmissionError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, StageWait, se.Stage)
				assert.Equal(t, "0x01", se.Hash)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.node.setBalance(framework.NativeCoin, types.OctasPerAPT)
			h.node.outcomes["::managed_coin::register"] = tt.outcome

			report, err := h.swap.Buy(context.Background(), TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Amount: "1"})
			require.Error(t, err)
			tt.check(t, err)
			assert.Len(t, h.node.functions(), 1, "swap must not be attempted")
			require.NotNil(t, report)
			assert.False(t, report.Registered)
			assert.Empty(t, report.SwapHash)
		})
	}
}

func TestSwapRejectedOnChainReportsZeroOutput(t *testing.T) {
	h := newHarness(t)
	h.node.setBalance(framework.NativeCoin, types.OctasPerAPT)
	h.node.registered[types.NormalizeTypeTag(testUSDC)] = true
	h.node.outcomes["::scripts::swap"] = outcome{
		success:  false,
		vmStatus: "Move abort in router: ERR_COIN_OUT_NUM_LESS_THAN_EXPECTED_MINIMUM",
		events:   []types.Event{h.swapEvent(t, "9871", "0")},
	}

	report, err := h.swap.Buy(context.Background(), TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Amount: "1"})
	var failure *OnChainFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "swap", failure.Op)
	require.NotNil(t, report)
	assert.False(t, report.Success)
	assert.True(t, types.IsZero(report.RealizedOut))
	assert.Contains(t, report.VMStatus, "MINIMUM")
}

func TestSellPercentageValidatedBeforeNetwork(t *testing.T) {
	for _, p := range []int{0, -5, 101} {
		t.Run(fmt.Sprint(p), func(t *testing.T) {
			h := newHarness(t)
			_, err := h.swap.Sell(context.Background(), TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Percentage: p})
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, h.node.callCount())
		})
	}
}

func TestSellComputesPercentOfBalance(t *testing.T) {
	h := newHarness(t)
	h.node.setBalance(testUSDC, 1_000_000)
	h.node.outcomes["::scripts::swap"] = outcome{success: true, events: []types.Event{h.swapEvent(t, "0", "3200000")}}

	report, err := h.swap.Sell(context.Background(), TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Percentage: 33})
	require.NoError(t, err)
	assert.Equal(t, "330000", report.AmountIn.String())
	assert.Equal(t, "3200000", report.RealizedOut.String())
	assert.Equal(t, framework.NativeCoinDecimals, report.OutputDecimals())

	fns := h.node.functions()
	require.Len(t, fns, 1, "selling into APT needs no registration")
	assert.Equal(t, "330000", h.node.submitted[0].Payload.Arguments[0])
}

func TestSellRejectsEmptyBalance(t *testing.T) {
	h := newHarness(t)
	_, err := h.swap.Sell(context.Background(), TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Percentage: 50})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, h.node.functions())
}

func TestBuyValidation(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{name: "not a number", amount: "abc"},
		{name: "zero", amount: "0"},
		{name: "negative", amount: "-1"},
		{name: "too precise", amount: "0.000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.swap.Buy(context.Background(), TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Amount: tt.amount})
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, h.node.callCount())
		})
	}
}

func TestBuyInsufficientBalance(t *testing.T) {
	h := newHarness(t)
	h.node.setBalance(framework.NativeCoin, types.OctasPerAPT/2)
	_, err := h.swap.Buy(context.Background(), TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Amount: "1"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, h.node.functions())
}

func TestTradeScopedToUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.swap.Buy(context.Background(), TradeRequest{UserID: h.user.ID + 1, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Amount: "1"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = h.swap.Buy(context.Background(), TradeRequest{UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.apt.ID, Amount: "1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	out, err := h.swap.Quote(ctx, framework.NativeCoin, testUSDC, types.NewInt(types.OctasPerAPT))
	require.NoError(t, err)
	want, err := liquidswap.GetAmountOut(types.NewInt(types.OctasPerAPT), types.NewInt(100_000_000_000), types.NewInt(1_000_000_000), 30)
	require.NoError(t, err)
	assert.Equal(t, want.String(), out.String())

	// The pool struct belongs to the module and lives under the resource account.
	poolType, _, err := h.pools.PoolType(framework.NativeCoin, testUSDC)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(poolType, h.pools.ModuleAddress.String()+"::liquidity_pool::LiquidityPool<"))

	_, err = h.swap.Quote(ctx, framework.NativeCoin, "0xdead::meme::MEME", types.NewInt(1))
	assert.ErrorIs(t, err, ErrQuoteUnavailable)

	_, err = h.swap.Quote(ctx, framework.NativeCoin, testUSDC, types.NewInt(1))
	assert.ErrorIs(t, err, ErrQuoteUnavailable, "output rounds to zero")

	_, err = h.swap.BuildSwap(ctx, SwapIntent{From: framework.NativeCoin, To: testUSDC, AmountIn: types.NewInt(types.OctasPerAPT), SlippageBps: 10000})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWithdraw(t *testing.T) {
	h := newHarness(t)
	h.node.setBalance(framework.NativeCoin, 2*types.OctasPerAPT)
	recipient := "0xb0b"

	report, err := h.swap.Withdraw(context.Background(), WithdrawRequest{UserID: h.user.ID, WalletID: h.wallet.ID, Recipient: recipient, Amount: "1.25"})
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, "125000000", report.Amount.String())

	require.Len(t, h.node.submitted, 1)
	p := h.node.submitted[0].Payload
	assert.Equal(t, "0x1::aptos_account::transfer_coins", p.Function)
	assert.Equal(t, types.NormalizeAddress(recipient), p.Arguments[0])
	assert.Equal(t, "125000000", p.Arguments[1])

	_, err = h.swap.Withdraw(context.Background(), WithdrawRequest{UserID: h.user.ID, WalletID: h.wallet.ID, Recipient: recipient, Amount: "3"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.swap.Withdraw(context.Background(), WithdrawRequest{UserID: h.user.ID, WalletID: h.wallet.ID, Recipient: "not-an-address", Amount: "1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExecuteDispatch(t *testing.T) {
	h := newHarness(t)
	_, err := h.swap.Execute(context.Background(), &Payload{Type: "stake"})
	assert.ErrorIs(t, err, ErrValidation)

	res, err := h.swap.Execute(context.Background(), &Payload{Type: RequestTypeSell, UserID: h.user.ID, WalletID: h.wallet.ID, CoinID: h.usdc.ID, Percentage: 0})
	assert.ErrorIs(t, err, ErrValidation)
	require.NotNil(t, res)
	assert.Nil(t, res.Trade)
}

func TestSignAndBroadcastSignsEncodedMessage(t *testing.T) {
	h := newHarness(t)
	res, err := h.exec.SignAndBroadcast(context.Background(), h.wallet, framework.RegisterCoin(testUSDC))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, uint64(12), res.GasUsed)

	require.Len(t, h.node.submitted, 1)
	signed := h.node.submitted[0]
	assert.Equal(t, h.wallet.Address, signed.Sender)
	assert.Equal(t, "200000", signed.MaxGasAmount)
	assert.Equal(t, types.Ed25519SignatureType, signed.Signature.Type)

	pub, err := types.DecodeHex(signed.Signature.PublicKey)
	require.NoError(t, err)
	sig, err := types.DecodeHex(signed.Signature.Signature)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, []byte("signing-message:0"), sig))
}

func TestSignAndBroadcastKeyFailure(t *testing.T) {
	h := newHarness(t)
	broken := *h.wallet
	broken.EncryptedPrivateKey = "zz:zz"

	_, err := h.exec.SignAndBroadcast(context.Background(), &broken, framework.RegisterCoin(testUSDC))
	var se *SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageKey, se.Stage)
	assert.Empty(t, h.node.submitted)
}
