package repository

import (
	"context"
	"errors"

	"aptos-swap/internal/models"
)

// GetOrCreateUser 按外部 ID（如聊天账号）查找用户，不存在则创建
func (s *Store) GetOrCreateUser(ctx context.Context, externalID, username string) (*models.User, error) {
	log.Debugf("GetOrCreateUser: looking up user %s", externalID)

	user := &models.User{}
	err := wrapErr("find user", s.db(ctx).Where("external_id = ?", externalID).First(user).Error)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		log.Errorf("GetOrCreateUser: database error: %v", err)
		return nil, err
	}

	if username == "" {
		username = "unknown"
	}
	user = &models.User{Username: username, ExternalID: externalID, IsActive: true}
	err = wrapErr("create user", s.db(ctx).Create(user).Error)
	if errors.Is(err, ErrDuplicate) {
		// 并发创建：读取已存在的记录
		existing := &models.User{}
		if err := wrapErr("find user", s.db(ctx).Where("external_id = ?", externalID).First(existing).Error); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if err != nil {
		log.Errorf("GetOrCreateUser: failed to create user: %v", err)
		return nil, err
	}

	log.Infof("GetOrCreateUser: created user #%d for %s", user.ID, externalID)
	return user, nil
}
