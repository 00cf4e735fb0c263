package models

import (
	"time"
)

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:100;not null" json:"username"`
	Email      string    `gorm:"size:255" json:"email"`
	ExternalID string    `gorm:"size:100;uniqueIndex" json:"externalId"`
	IsActive   bool      `gorm:"default:true" json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Wallet 用户托管钱包，私钥仅以密文形式保存
// 每个用户至多一个 IsDefault 钱包，由部分唯一索引保证
type Wallet struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              uint      `gorm:"index;not null;uniqueIndex:idx_wallets_user_default,where:is_default" json:"userId"`
	Address             string    `gorm:"size:100;not null" json:"address"`
	EncryptedPrivateKey string    `gorm:"type:text" json:"-"`
	Label               string    `gorm:"size:100" json:"label"`
	IsDefault           bool      `gorm:"default:false;not null" json:"isDefault"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (Wallet) TableName() string { return "wallets" }

// Coin 按地址缓存的代币元数据
type Coin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Address   string    `gorm:"size:255;not null;uniqueIndex" json:"address"`
	Name      string    `gorm:"size:255" json:"name"`
	Symbol    string    `gorm:"size:255;not null" json:"symbol"`
	Decimals  uint8     `gorm:"not null" json:"decimals"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Coin) TableName() string { return "coins" }
