package vapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/rpc"
)

var log = logging.Logger("vapi")

const (
	// GasPriceOverestimation Gas 单价上浮系数
	// 在估算值基础上增加 10%，降低拥堵时交易滞留的概率
	GasPriceOverestimation = 1.1

	// positionsLimit 单次查询的持仓上限
	positionsLimit = 100
)

// ErrWaitTimeout 等待交易确认超时
var ErrWaitTimeout = errors.New("timed out waiting for transaction")

// Node Aptos 全节点 API 客户端
// 封装 REST 客户端，提供与 Aptos 网络交互的方法
type Node struct {
	*rpc.Client
}

// NewNode 创建新的节点实例
func NewNode(client *rpc.Client) *Node {
	log.Debugf("NewNode: creating new node instance")
	return &Node{client}
}

// Account 检索账户的序列号与认证密钥
func (vapi Node) Account(ctx context.Context, addr types.Address) (*types.AccountData, error) {
	log.Debugf("Account: getting account %s", addr)
	var acct types.AccountData
	if err := vapi.Get(ctx, "/accounts/"+addr.String(), &acct); err != nil {
		log.Errorf("Account: failed to get account %s: %v", addr, err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	log.Debugf("Account: account %s sequence number %s", addr, acct.SequenceNumber)
	return &acct, nil
}

// SequenceNumber 返回账户下一笔交易的序列号
func (vapi Node) SequenceNumber(ctx context.Context, addr types.Address) (uint64, error) {
	acct, err := vapi.Account(ctx, addr)
	if err != nil {
		return 0, err
	}
	seq, err := strconv.ParseUint(acct.SequenceNumber, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sequence number %q: %w", acct.SequenceNumber, err)
	}
	return seq, nil
}

// AccountResource 读取账户下的 Move 资源
// 资源不存在时返回的错误满足 rpc.IsNotFound
func (vapi Node) AccountResource(ctx context.Context, addr types.Address, resourceType string) (*types.MoveResource, error) {
	log.Debugf("AccountResource: getting %s for %s", resourceType, addr)
	var res types.MoveResource
	path := fmt.Sprintf("/accounts/%s/resource/%s", addr, url.PathEscape(resourceType))
	if err := vapi.Get(ctx, path, &res); err != nil {
		if rpc.IsNotFound(err) {
			log.Debugf("AccountResource: %s not found for %s", resourceType, addr)
			return nil, err
		}
		log.Errorf("AccountResource: failed to get resource: %v", err)
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return &res, nil
}

// View 调用链上 view 函数，返回 JSON 数组结果
func (vapi Node) View(ctx context.Context, req *types.ViewRequest) ([]json.RawMessage, error) {
	log.Debugf("View: calling %s", req.Function)
	var out []json.RawMessage
	if err := vapi.Post(ctx, "/view", req, &out); err != nil {
		log.Warnf("View: %s failed: %v", req.Function, err)
		return nil, fmt.Errorf("view %s: %w", req.Function, err)
	}
	return out, nil
}

// EstimateGasPrice 估算 Gas 单价（octas），并按 GasPriceOverestimation 上浮
func (vapi Node) EstimateGasPrice(ctx context.Context) (uint64, error) {
	log.Debugf("EstimateGasPrice: estimating gas unit price")
	var est types.GasEstimate
	if err := vapi.Get(ctx, "/estimate_gas_price", &est); err != nil {
		log.Errorf("EstimateGasPrice: failed to estimate gas price: %v", err)
		return 0, fmt.Errorf("failed to estimate gas price: %w", err)
	}
	price := uint64(float64(est.GasEstimate) * GasPriceOverestimation)
	if price == 0 {
		price = 100
	}
	log.Debugf("EstimateGasPrice: estimate=%d, using=%d", est.GasEstimate, price)
	return price, nil
}

// EncodeSubmission 返回待签名的 BCS 签名消息
func (vapi Node) EncodeSubmission(ctx context.Context, raw *types.RawTransaction) ([]byte, error) {
	log.Debugf("EncodeSubmission: encoding transaction of %s seq %s", raw.Sender, raw.SequenceNumber)
	var encoded string
	if err := vapi.Post(ctx, "/transactions/encode_submission", raw, &encoded); err != nil {
		log.Errorf("EncodeSubmission: failed to encode: %v", err)
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}
	msg, err := types.DecodeHex(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid signing message: %w", err)
	}
	return msg, nil
}

// SubmitTransaction 提交已签名交易，返回交易哈希
func (vapi Node) SubmitTransaction(ctx context.Context, signed *types.SignedTransaction) (*types.PendingTransaction, error) {
	log.Debugf("SubmitTransaction: submitting transaction from %s", signed.Sender)
	var pending types.PendingTransaction
	if err := vapi.Post(ctx, "/transactions", signed, &pending); err != nil {
		log.Errorf("SubmitTransaction: failed to submit: %v", err)
		return nil, fmt.Errorf("failed to submit transaction: %w", err)
	}
	log.Debugf("SubmitTransaction: accepted, hash %s", pending.Hash)
	return &pending, nil
}

// TransactionByHash 按哈希查询交易；仍在内存池中时 Type 为 pending_transaction
func (vapi Node) TransactionByHash(ctx context.Context, hash string) (*types.Transaction, error) {
	var tx types.Transaction
	if err := vapi.Get(ctx, "/transactions/by_hash/"+hash, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// WaitForTransaction 等待交易上链
// 先调用 wait_by_hash 长轮询，之后按 poll 间隔轮询 by_hash，直到超时
func (vapi Node) WaitForTransaction(ctx context.Context, hash string, timeout, poll time.Duration) (*types.Transaction, error) {
	log.Debugf("WaitForTransaction: waiting for %s (timeout %s)", hash, timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var tx types.Transaction
	err := vapi.Get(ctx, "/transactions/wait_by_hash/"+hash, &tx)
	if err == nil && tx.Committed() {
		log.Debugf("WaitForTransaction: %s committed at version %s", hash, tx.Version)
		return &tx, nil
	}
	if err != nil && !rpc.IsNotFound(err) && ctx.Err() == nil {
		log.Warnf("WaitForTransaction: wait_by_hash failed, falling back to polling: %v", err)
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Errorf("WaitForTransaction: %s not committed within %s", hash, timeout)
			return nil, fmt.Errorf("%w %s: %v", ErrWaitTimeout, hash, ctx.Err())
		case <-ticker.C:
		}
		got, err := vapi.TransactionByHash(ctx, hash)
		switch {
		case err == nil && got.Committed():
			log.Debugf("WaitForTransaction: %s committed at version %s", hash, got.Version)
			return got, nil
		case err == nil, rpc.IsNotFound(err):
			// still pending
		case ctx.Err() != nil:
			// reported by the next select
		default:
			log.Warnf("WaitForTransaction: poll of %s failed: %v", hash, err)
		}
	}
}

const balancesQuery = `query Balances($owner: String!, $limit: Int!) {
  current_fungible_asset_balances(
    where: {owner_address: {_eq: $owner}}
    order_by: {amount: desc}
    limit: $limit
  ) {
    asset_type
    amount
  }
}`

const metadataQuery = `query Metadata($assets: [String!]!) {
  fungible_asset_metadata(where: {asset_type: {_in: $assets}}) {
    asset_type
    name
    symbol
    decimals
  }
}`

// FungibleAssetBalances 从索引器读取账户持仓（按数量降序，最多 100 条）
func (vapi Node) FungibleAssetBalances(ctx context.Context, owner types.Address) ([]types.FungibleAssetBalance, error) {
	log.Debugf("FungibleAssetBalances: listing balances of %s", owner)
	var out struct {
		Rows []types.FungibleAssetBalance `json:"current_fungible_asset_balances"`
	}
	vars := map[string]any{"owner": owner.String(), "limit": positionsLimit}
	if err := vapi.Query(ctx, balancesQuery, vars, &out); err != nil {
		log.Errorf("FungibleAssetBalances: failed: %v", err)
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return out.Rows, nil
}

// FungibleAssetMetadata 从索引器读取资产元数据
func (vapi Node) FungibleAssetMetadata(ctx context.Context, assetTypes []string) ([]types.FungibleAssetMetadata, error) {
	log.Debugf("FungibleAssetMetadata: looking up %d assets", len(assetTypes))
	if len(assetTypes) == 0 {
		return nil, nil
	}
	var out struct {
		Rows []types.FungibleAssetMetadata `json:"fungible_asset_metadata"`
	}
	if err := vapi.Query(ctx, metadataQuery, map[string]any{"assets": assetTypes}, &out); err != nil {
		log.Errorf("FungibleAssetMetadata: failed: %v", err)
		return nil, fmt.Errorf("failed to get asset metadata: %w", err)
	}
	return out.Rows, nil
}
