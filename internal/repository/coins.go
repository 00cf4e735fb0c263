package repository

import (
	"context"

	"aptos-swap/internal/models"
)

// FindCoinByAddress 按代币类型地址查找缓存
func (s *Store) FindCoinByAddress(ctx context.Context, address string) (*models.Coin, error) {
	coin := &models.Coin{}
	if err := s.db(ctx).Where("address = ?", address).First(coin).Error; err != nil {
		return nil, wrapErr("find coin", err)
	}
	return coin, nil
}

// FindCoinByID 按 ID 查找缓存
func (s *Store) FindCoinByID(ctx context.Context, id uint) (*models.Coin, error) {
	coin := &models.Coin{}
	if err := s.db(ctx).Where("id = ?", id).First(coin).Error; err != nil {
		return nil, wrapErr("find coin", err)
	}
	return coin, nil
}

// FindCoinsByAddresses 批量查找缓存，未命中的地址不返回
func (s *Store) FindCoinsByAddresses(ctx context.Context, addresses []string) ([]models.Coin, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	var coins []models.Coin
	if err := s.db(ctx).Where("address IN ?", addresses).Find(&coins).Error; err != nil {
		return nil, wrapErr("find coins", err)
	}
	return coins, nil
}

// CreateCoin 写入代币缓存；地址冲突时返回 ErrDuplicate
func (s *Store) CreateCoin(ctx context.Context, coin *models.Coin) error {
	if err := s.db(ctx).Create(coin).Error; err != nil {
		err = wrapErr("create coin", err)
		log.Debugf("CreateCoin: insert %s failed: %v", coin.Address, err)
		return err
	}
	log.Infof("CreateCoin: cached coin %s (%s) as #%d", coin.Address, coin.Symbol, coin.ID)
	return nil
}
