package wallet

import (
	"fmt"

	"aptos-swap/internal/chain/types"
)

// ed25519Scheme Aptos 单签 Ed25519 认证密钥的方案标识
const ed25519Scheme = byte(0x00)

// checkKeyType 校验密钥类型
// 目前仅支持 Ed25519
func checkKeyType(kt types.KeyType) error {
	log.Debugf("checkKeyType: checking key type %s", kt)

	switch kt {
	case types.KTEd25519:
		return nil
	default:
		log.Errorf("checkKeyType: unsupported key type: %s", kt)
		return fmt.Errorf("unsupported key type: %s", kt)
	}
}
