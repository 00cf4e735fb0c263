package vapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/rpc"
)

func newTestNode(t *testing.T, h http.HandlerFunc) *Node {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewNode(rpc.NewClient(srv.URL, srv.URL+"/graphql", ""))
}

func TestSequenceNumberAndGas(t *testing.T) {
	node := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/accounts/"):
			_, _ = io.WriteString(w, `{"sequence_number":"42","authentication_key":"0x00"}`)
		case r.URL.Path == "/estimate_gas_price":
			_, _ = io.WriteString(w, `{"gas_estimate":100,"prioritized_gas_estimate":150}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()
	addr, _ := types.ParseAddress("0x1")

	seq, err := node.SequenceNumber(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), seq)

	price, err := node.EstimateGasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(110), price)
}

func TestAccountResourceNotFound(t *testing.T) {
	node := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.EscapedPath(), "/resource/0x1::coin::CoinStore%3C")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"not found","error_code":"resource_not_found"}`)
	})
	addr, _ := types.ParseAddress("0xabc")
	_, err := node.AccountResource(context.Background(), addr, "0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>")
	require.Error(t, err)
	assert.True(t, rpc.IsNotFound(err))
}

func TestEncodeSubmission(t *testing.T) {
	node := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/encode_submission", r.URL.Path)
		var raw types.RawTransaction
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "7", raw.SequenceNumber)
		_, _ = io.WriteString(w, `"0xb5e97db07fa0bd0e5598aa3643a9bc6f"`)
	})
	msg, err := node.EncodeSubmission(context.Background(), &types.RawTransaction{SequenceNumber: "7"})
	require.NoError(t, err)
	assert.Len(t, msg, 16)
}

func TestWaitForTransactionPolls(t *testing.T) {
	var polls atomic.Int32
	node := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/transactions/wait_by_hash/"):
			_, _ = io.WriteString(w, `{"type":"pending_transaction","hash":"0xh"}`)
		case strings.HasPrefix(r.URL.Path, "/transactions/by_hash/"):
			if polls.Add(1) < 3 {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"message":"not found","error_code":"transaction_not_found"}`)
				return
			}
			_, _ = io.WriteString(w, `{"type":"user_transaction","hash":"0xh","version":"9","success":true,"vm_status":"Executed successfully","events":[]}`)
		}
	})

	tx, err := node.WaitForTransaction(context.Background(), "0xh", 5*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, tx.Success)
	assert.Equal(t, "9", tx.Version)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestWaitForTransactionTimeout(t *testing.T) {
	node := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"type":"pending_transaction","hash":"0xh"}`)
	})
	_, err := node.WaitForTransaction(context.Background(), "0xh", 50*time.Millisecond, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestIndexerQueries(t *testing.T) {
	node := newTestNode(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(req.Query, "current_fungible_asset_balances") {
			_, _ = io.WriteString(w, `{"data":{"current_fungible_asset_balances":[{"asset_type":"0x1::aptos_coin::AptosCoin","amount":500}]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"fungible_asset_metadata":[{"asset_type":"0x1::aptos_coin::AptosCoin","name":"Aptos Coin","symbol":"APT","decimals":8}]}}`)
	})
	ctx := context.Background()
	owner, _ := types.ParseAddress("0xabc")

	rows, err := node.FungibleAssetBalances(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "500", rows[0].Amount.String())

	meta, err := node.FungibleAssetMetadata(ctx, []string{"0x1::aptos_coin::AptosCoin"})
	require.NoError(t, err)
	require.Len(t, meta, 1)
	assert.Equal(t, uint8(8), meta[0].Decimals)

	meta, err = node.FungibleAssetMetadata(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, meta)
}
