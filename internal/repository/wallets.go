package repository

import (
	"context"
	"errors"

	"aptos-swap/internal/models"

	"gorm.io/gorm"
)

// InsertWallet 保存新钱包
// 先按默认钱包插入；用户已有默认钱包时部分唯一索引拒绝，再按普通钱包插入
func (s *Store) InsertWallet(ctx context.Context, userID uint, address, encryptedKey string) (*models.Wallet, error) {
	log.Infof("InsertWallet: saving wallet %s for user #%d", address, userID)

	item := &models.Wallet{
		UserID:              userID,
		Address:             address,
		EncryptedPrivateKey: encryptedKey,
		IsDefault:           true,
	}
	err := s.db(ctx).Create(item).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		item.ID = 0
		item.IsDefault = false
		err = s.db(ctx).Create(item).Error
	}
	if err != nil {
		log.Errorf("InsertWallet: failed to save wallet for user #%d: %v", userID, err)
		return nil, wrapErr("insert wallet", err)
	}

	log.Infof("InsertWallet: saved wallet #%d (default=%v)", item.ID, item.IsDefault)
	return item, nil
}

// GetWallet 查找属于用户的指定钱包
func (s *Store) GetWallet(ctx context.Context, id, userID uint) (*models.Wallet, error) {
	log.Debugf("GetWallet: retrieving wallet #%d for user #%d", id, userID)

	item := &models.Wallet{}
	if err := s.db(ctx).Where("id = ? AND user_id = ?", id, userID).First(item).Error; err != nil {
		return nil, wrapErr("get wallet", err)
	}
	return item, nil
}

// GetDefaultWallet 查找用户默认钱包
func (s *Store) GetDefaultWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	log.Debugf("GetDefaultWallet: retrieving default wallet for user #%d", userID)

	item := &models.Wallet{}
	if err := s.db(ctx).Where("user_id = ? AND is_default = ?", userID, true).First(item).Error; err != nil {
		return nil, wrapErr("get default wallet", err)
	}
	return item, nil
}

// ListWallets 列出用户全部钱包（按 ID 升序）
func (s *Store) ListWallets(ctx context.Context, userID uint) ([]models.Wallet, error) {
	var items []models.Wallet
	if err := s.db(ctx).Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		log.Errorf("ListWallets: failed to query wallets for user #%d: %v", userID, err)
		return nil, wrapErr("list wallets", err)
	}
	log.Debugf("ListWallets: found %d wallets for user #%d", len(items), userID)
	return items, nil
}

// SetDefaultWallet 设置默认钱包
// 清除其他钱包的默认标记并设置目标钱包，两步在同一事务中提交
func (s *Store) SetDefaultWallet(ctx context.Context, id, userID uint) error {
	log.Infof("SetDefaultWallet: setting wallet #%d as default for user #%d", id, userID)

	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.Wallet
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&target).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Wallet{}).
			Where("user_id = ? AND id <> ?", userID, id).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Wallet{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("is_default", true).Error
	})
	if err != nil {
		log.Errorf("SetDefaultWallet: failed for wallet #%d: %v", id, err)
		return wrapErr("set default wallet", err)
	}
	return nil
}

// RenameWallet 修改钱包标签
func (s *Store) RenameWallet(ctx context.Context, id, userID uint, label string) error {
	log.Infof("RenameWallet: renaming wallet #%d", id)

	res := s.db(ctx).Model(&models.Wallet{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("label", label)
	if res.Error != nil {
		log.Errorf("RenameWallet: failed for wallet #%d: %v", id, res.Error)
		return wrapErr("rename wallet", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWallet 删除钱包（不可恢复）
// 删除的是默认钱包时，最早创建的剩余钱包成为默认钱包
func (s *Store) DeleteWallet(ctx context.Context, id, userID uint) error {
	log.Infof("DeleteWallet: deleting wallet #%d for user #%d", id, userID)

	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.Wallet
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&target).Error; err != nil {
			return err
		}
		if err := tx.Delete(&target).Error; err != nil {
			return err
		}
		if !target.IsDefault {
			return nil
		}

		var next models.Wallet
		err := tx.Where("user_id = ?", userID).Order("id asc").First(&next).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		log.Infof("DeleteWallet: promoting wallet #%d to default", next.ID)
		return tx.Model(&models.Wallet{}).Where("id = ?", next.ID).Update("is_default", true).Error
	})
	if err != nil {
		log.Errorf("DeleteWallet: failed for wallet #%d: %v", id, err)
		return wrapErr("delete wallet", err)
	}

	log.Infof("DeleteWallet: successfully deleted wallet #%d", id)
	return nil
}
