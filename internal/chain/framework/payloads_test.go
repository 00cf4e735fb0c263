package framework

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptos-swap/internal/chain/types"
)

func TestPayloads(t *testing.T) {
	owner, err := types.ParseAddress("0xa11ce")
	require.NoError(t, err)
	coin := "0xabc::token::T"

	view := CoinBalanceView(owner, coin)
	assert.Equal(t, "0x1::coin::balance", view.Function)
	assert.Equal(t, []string{coin}, view.TypeArguments)
	assert.Equal(t, []any{owner.String()}, view.Arguments)

	assert.Equal(t, "0x1::coin::CoinStore<0xabc::token::T>", CoinStoreType(coin))

	reg := RegisterCoin(coin)
	raw, err := json.Marshal(reg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"entry_function_payload","function":"0x1::managed_coin::register","type_arguments":["0xabc::token::T"],"arguments":[]}`, string(raw))

	tr := TransferCoins(NativeCoin, owner, types.NewInt(150))
	assert.Equal(t, []any{owner.String(), "150"}, tr.Arguments)

	assert.True(t, IsNativeCoin("0x0000000000000000000000000000000000000000000000000000000000000001::aptos_coin::AptosCoin"))
	assert.False(t, IsNativeCoin(coin))
}
