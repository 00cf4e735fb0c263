// Package framework builds calls into the 0x1 Aptos framework modules.
package framework

import (
	"fmt"

	"aptos-swap/internal/chain/types"
)

const (
	NativeCoin         = "0x1::aptos_coin::AptosCoin"
	NativeCoinName     = "Aptos Coin"
	NativeCoinSymbol   = "APT"
	NativeCoinDecimals = uint8(8)

	coinBalanceFn   = "0x1::coin::balance"
	coinStoreFmt    = "0x1::coin::CoinStore<%s>"
	registerFn      = "0x1::managed_coin::register"
	transferCoinsFn = "0x1::aptos_account::transfer_coins"
)

// IsNativeCoin reports whether coinType is APT.
func IsNativeCoin(coinType string) bool {
	return types.SameType(coinType, NativeCoin)
}

// CoinBalanceView is the view request for 0x1::coin::balance<coinType>(owner).
func CoinBalanceView(owner types.Address, coinType string) *types.ViewRequest {
	return &types.ViewRequest{
		Function:      coinBalanceFn,
		TypeArguments: []string{coinType},
		Arguments:     []any{owner.String()},
	}
}

// CoinStoreType is the resource type holding an account's balance of coinType.
func CoinStoreType(coinType string) string {
	return fmt.Sprintf(coinStoreFmt, coinType)
}

// RegisterCoin creates the CoinStore<coinType> of the sender.
func RegisterCoin(coinType string) *types.EntryFunctionPayload {
	return types.NewEntryFunction(registerFn, []string{coinType})
}

// TransferCoins moves amount base units of coinType to recipient,
// creating the recipient account and store when needed.
func TransferCoins(coinType string, recipient types.Address, amount types.BigInt) *types.EntryFunctionPayload {
	return types.NewEntryFunction(transferCoinsFn, []string{coinType},
		recipient.String(), types.OrZero(amount).String())
}
