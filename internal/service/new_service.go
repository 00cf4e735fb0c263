package service

import (
	"aptos-swap/internal/chain/liquidswap"
	"aptos-swap/internal/config"
	crypto2 "aptos-swap/internal/crypto"
	"aptos-swap/internal/repository"
	"aptos-swap/internal/rpc"
	"aptos-swap/internal/vapi"
	"aptos-swap/internal/wallet"
)

type NewService struct {
	Config  *config.Config
	Store   *repository.Store
	Node    *vapi.Node
	Ledger  *wallet.Ledger
	Gateway *Gateway
	Coins   *CoinCache
	Ex      *Executor
	Swap    *Orchestrator
}

func NewClient() (*NewService, error) {
	// 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg)
}

// NewFromConfig 按配置装配全部组件
func NewFromConfig(cfg *config.Config) (*NewService, error) {
	// 派生 Vault 密钥
	seed, err := cfg.ResolveSeed()
	if err != nil {
		return nil, err
	}
	vault, err := crypto2.NewVault(seed, cfg.KDF)
	clear(seed)
	if err != nil {
		return nil, err
	}

	pools, err := liquidswap.NewConfig(cfg.ModuleAddress, cfg.ResourceAccount, cfg.ScriptsModule, cfg.Curve)
	if err != nil {
		return nil, err
	}

	// 打开数据库连接
	store, err := repository.OpenStore(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	node := vapi.NewNode(rpc.NewClient(cfg.NodeURL, cfg.IndexerURL, cfg.APIKey))
	ledger := wallet.NewLedger(store, vault)
	gateway := NewGateway(node, store)
	coins := NewCoinCache(store, node)

	// 创建执行器
	executor := NewExecutor(node, ledger, TxOptions{
		MaxGasAmount: cfg.MaxGasAmount,
		Expiration:   cfg.Expiration,
		WaitTimeout:  cfg.WaitTimeout,
		PollInterval: cfg.PollInterval,
	})

	return &NewService{
		Config:  cfg,
		Store:   store,
		Node:    node,
		Ledger:  ledger,
		Gateway: gateway,
		Coins:   coins,
		Ex:      executor,
		Swap:    NewOrchestrator(gateway, executor, coins, ledger, node, pools, cfg.SlippageBps),
	}, nil
}

// Close 释放数据库连接
func (s *NewService) Close() error {
	return s.Store.Close()
}
