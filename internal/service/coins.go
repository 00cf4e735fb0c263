package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aptos-swap/internal/chain/framework"
	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/models"
	"aptos-swap/internal/repository"
)

// CoinCache 代币元数据缓存
// 命中缓存时不产生任何写入；未命中时从索引器读取并写入
type CoinCache struct {
	store CoinStore
	node  ChainNode
}

func NewCoinCache(store CoinStore, node ChainNode) *CoinCache {
	return &CoinCache{store: store, node: node}
}

// GetOrCreateCachedCoin 按代币类型查找缓存，不存在时创建
func (c *CoinCache) GetOrCreateCachedCoin(ctx context.Context, address string) (*models.Coin, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, invalid("coin", "address is required")
	}
	if _, err := types.ParseStructTag(address); err != nil {
		return nil, invalid("coin", "%q is not a coin type", address)
	}
	key := types.NormalizeTypeTag(address)

	coin, err := c.store.FindCoinByAddress(ctx, key)
	if err == nil {
		log.Debugf("GetOrCreateCachedCoin: cache hit for %s (#%d)", key, coin.ID)
		return coin, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	coin, err = c.lookup(ctx, address, key)
	if err != nil {
		return nil, err
	}

	err = c.store.CreateCoin(ctx, coin)
	if errors.Is(err, repository.ErrDuplicate) {
		log.Debugf("GetOrCreateCachedCoin: %s cached concurrently, re-reading", key)
		return c.store.FindCoinByAddress(ctx, key)
	}
	if err != nil {
		log.Errorf("GetOrCreateCachedCoin: failed to cache %s: %v", key, err)
		return nil, err
	}
	return coin, nil
}

// GetCachedCoinByID 按 ID 读取缓存，不存在时返回 ErrNotFound
func (c *CoinCache) GetCachedCoinByID(ctx context.Context, id uint) (*models.Coin, error) {
	return c.store.FindCoinByID(ctx, id)
}

func (c *CoinCache) lookup(ctx context.Context, address, key string) (*models.Coin, error) {
	if framework.IsNativeCoin(key) {
		return &models.Coin{
			Address:  key,
			Name:     framework.NativeCoinName,
			Symbol:   framework.NativeCoinSymbol,
			Decimals: framework.NativeCoinDecimals,
		}, nil
	}

	query := []string{address}
	if key != address {
		query = append(query, key)
	}
	rows, err := c.node.FungibleAssetMetadata(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		if types.SameType(m.AssetType, key) {
			log.Infof("lookup: resolved %s as %s", key, m.Symbol)
			return &models.Coin{Address: key, Name: m.Name, Symbol: m.Symbol, Decimals: m.Decimals}, nil
		}
	}
	log.Warnf("lookup: no metadata for %s", key)
	return nil, fmt.Errorf("coin %s: %w", address, repository.ErrNotFound)
}
