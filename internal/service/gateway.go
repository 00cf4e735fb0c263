package service

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"aptos-swap/internal/chain/framework"
	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/rpc"
)

// Position 账户持有的一种资产
type Position struct {
	AssetType string
	Amount    types.BigInt
	Name      string
	Symbol    string
	Decimals  uint8
}

// Gateway 链上只读查询：余额、币种注册状态、持仓
type Gateway struct {
	node  ChainNode
	coins CoinStore
}

func NewGateway(node ChainNode, coins CoinStore) *Gateway {
	return &Gateway{node: node, coins: coins}
}

// GetBalance 读取 coin::balance<coinType>(address)
// 账户或 CoinStore 不存在时视为零余额；限流、节点故障与传输错误向上返回
func (g *Gateway) GetBalance(ctx context.Context, addr types.Address, coinType string) (types.BigInt, error) {
	log.Debugf("GetBalance: reading %s balance of %s", coinType, addr)

	out, err := g.node.View(ctx, framework.CoinBalanceView(addr, coinType))
	if err != nil {
		if rpc.IsMissingState(err) {
			log.Debugf("GetBalance: no %s store for %s, treating as zero: %v", coinType, addr, err)
			return types.NewInt(0), nil
		}
		log.Errorf("GetBalance: failed to read balance of %s: %v", addr, err)
		return types.EmptyInt, err
	}
	if len(out) == 0 {
		return types.NewInt(0), nil
	}
	var v types.FlexInt
	if err := json.Unmarshal(out[0], &v); err != nil {
		return types.EmptyInt, fmt.Errorf("decode balance: %w", err)
	}
	return types.OrZero(v.BigInt), nil
}

// GetBalances 并发读取多个币种的余额，按 coinTypes 顺序返回
func (g *Gateway) GetBalances(ctx context.Context, addr types.Address, coinTypes ...string) ([]types.BigInt, error) {
	out := make([]types.BigInt, len(coinTypes))
	eg, ctx := errgroup.WithContext(ctx)
	for i, ct := range coinTypes {
		eg.Go(func() error {
			bal, err := g.GetBalance(ctx, addr, ct)
			if err != nil {
				return err
			}
			out[i] = bal
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsCoinRegistered 检查 CoinStore<coinType> 是否存在
// 仅作参考：任何失败都按未注册处理
func (g *Gateway) IsCoinRegistered(ctx context.Context, addr types.Address, coinType string) bool {
	_, err := g.node.AccountResource(ctx, addr, framework.CoinStoreType(coinType))
	switch {
	case err == nil:
		return true
	case rpc.IsNotFound(err):
		log.Debugf("IsCoinRegistered: %s has no store for %s", addr, coinType)
	default:
		log.Warnf("IsCoinRegistered: lookup of %s for %s failed, assuming unregistered: %v", addr, coinType, err)
	}
	return false
}

// ListPositions 列出账户的非零持仓
// 元数据优先取缓存，缓存未命中的资产再查询索引器；无法解析元数据的资产不返回
func (g *Gateway) ListPositions(ctx context.Context, addr types.Address) ([]Position, error) {
	log.Debugf("ListPositions: listing positions of %s", addr)

	rows, err := g.node.FungibleAssetBalances(ctx, addr)
	if err != nil {
		return nil, err
	}

	var keys []string
	held := rows[:0]
	for _, r := range rows {
		if types.IsZero(r.Amount.BigInt) {
			continue
		}
		held = append(held, r)
		keys = append(keys, types.NormalizeAssetType(r.AssetType))
	}
	if len(held) == 0 {
		return nil, nil
	}

	type meta struct {
		name, symbol string
		decimals     uint8
	}
	known := make(map[string]meta, len(held))

	cached, err := g.coins.FindCoinsByAddresses(ctx, keys)
	if err != nil {
		log.Warnf("ListPositions: coin cache lookup failed: %v", err)
	}
	for _, c := range cached {
		known[c.Address] = meta{c.Name, c.Symbol, c.Decimals}
	}

	var missing []string
	for _, r := range held {
		if _, ok := known[types.NormalizeAssetType(r.AssetType)]; !ok {
			missing = append(missing, r.AssetType)
		}
	}
	if len(missing) > 0 {
		md, err := g.node.FungibleAssetMetadata(ctx, missing)
		if err != nil {
			log.Warnf("ListPositions: metadata lookup for %d assets failed: %v", len(missing), err)
		}
		for _, m := range md {
			known[types.NormalizeAssetType(m.AssetType)] = meta{m.Name, m.Symbol, m.Decimals}
		}
	}

	positions := make([]Position, 0, len(held))
	for _, r := range held {
		m, ok := known[types.NormalizeAssetType(r.AssetType)]
		if !ok {
			log.Debugf("ListPositions: skipping %s without metadata", r.AssetType)
			continue
		}
		positions = append(positions, Position{
			AssetType: r.AssetType,
			Amount:    r.Amount.BigInt,
			Name:      m.name,
			Symbol:    m.symbol,
			Decimals:  m.decimals,
		})
	}
	return positions, nil
}
