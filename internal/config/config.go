package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultNodeURL    = "https://fullnode.mainnet.aptoslabs.com/v1"
	DefaultIndexerURL = "https://api.mainnet.aptoslabs.com/v1/graphql"

	// Liquidswap v0.5 部署地址
	DefaultLiquidswapModule   = "0x163df34fccbf003ce219d3f1d9e70d140b60622cb9dd47599c25fb2f797ba6e"
	DefaultLiquidswapResource = "0x61d2c22a6cb7831bee0f48363b0eec92369357aece0d1142062f7d5d85c7bef8"
	DefaultScriptsModule      = "scripts"
	DefaultCurve              = "Uncorrelated"

	KDFSHA256       = "sha256"
	KDFScryptArgon2 = "scrypt-argon2"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AppConfig 全局配置实例（从 TOML 文件、.env 与环境变量加载）
var AppConfig struct {
	Aptos    *Aptos    // Aptos 节点配置
	Security *Security // 安全配置
	Database *Database // 数据库配置
	Swap     *Swap     // 兑换配置
}

// Aptos 节点连接配置
type Aptos struct {
	NodeURL         string // 全节点 REST 地址
	IndexerURL      string // 索引器 GraphQL 地址
	APIKey          string // API 访问令牌
	MaxGasAmount    uint64 // 单笔交易最大 Gas
	ExpirationSecs  int64  // 交易过期秒数
	WaitTimeoutSecs int64  // 等待确认超时秒数
	PollIntervalMs  int64  // 轮询间隔
}

// Security 安全相关配置
type Security struct {
	Seed string // 加密口令
	KDF  string // 密钥派生方式：sha256 | scrypt-argon2
}

// Database 数据库配置
type Database struct {
	Driver string // sqlite | postgres
	Path   string // SQLite 数据库路径
	DSN    string // Postgres 连接串
}

// Swap Liquidswap 兑换配置
type Swap struct {
	SlippageBps     int64
	ModuleAddress   string
	ResourceAccount string
	ScriptsModule   string
	Curve           string
}

// Config 应用程序运行时配置
type Config struct {
	NodeURL      string
	IndexerURL   string
	APIKey       string
	MaxGasAmount uint64
	Expiration   time.Duration
	WaitTimeout  time.Duration
	PollInterval time.Duration

	Seed string
	KDF  string

	DBDriver string
	DBDSN    string // SQLite 路径或 Postgres 连接串

	SlippageBps     int64
	ModuleAddress   string
	ResourceAccount string
	ScriptsModule   string
	Curve           string
}

// LoadConfig 加载配置
// 优先使用环境变量，其次配置文件，否则使用默认值
func LoadConfig() (*Config, error) {
	cfg := &Config{
		NodeURL:         DefaultNodeURL,
		IndexerURL:      DefaultIndexerURL,
		MaxGasAmount:    200000,
		Expiration:      20 * time.Second,
		WaitTimeout:     60 * time.Second,
		PollInterval:    time.Second,
		KDF:             KDFSHA256,
		DBDriver:        DriverSQLite,
		SlippageBps:     50,
		ModuleAddress:   DefaultLiquidswapModule,
		ResourceAccount: DefaultLiquidswapResource,
		ScriptsModule:   DefaultScriptsModule,
		Curve:           DefaultCurve,
	}

	if a := AppConfig.Aptos; a != nil {
		setString(&cfg.NodeURL, a.NodeURL)
		setString(&cfg.IndexerURL, a.IndexerURL)
		setString(&cfg.APIKey, a.APIKey)
		if a.MaxGasAmount > 0 {
			cfg.MaxGasAmount = a.MaxGasAmount
		}
		if a.ExpirationSecs > 0 {
			cfg.Expiration = time.Duration(a.ExpirationSecs) * time.Second
		}
		if a.WaitTimeoutSecs > 0 {
			cfg.WaitTimeout = time.Duration(a.WaitTimeoutSecs) * time.Second
		}
		if a.PollIntervalMs > 0 {
			cfg.PollInterval = time.Duration(a.PollIntervalMs) * time.Millisecond
		}
	}
	if s := AppConfig.Security; s != nil {
		setString(&cfg.Seed, s.Seed)
		setString(&cfg.KDF, s.KDF)
	}
	if d := AppConfig.Database; d != nil {
		setString(&cfg.DBDriver, d.Driver)
		if d.DSN != "" {
			cfg.DBDSN = d.DSN
		} else if d.Path != "" {
			cfg.DBDSN = expandPath(d.Path)
		}
	}
	if s := AppConfig.Swap; s != nil {
		if s.SlippageBps > 0 {
			cfg.SlippageBps = s.SlippageBps
		}
		setString(&cfg.ModuleAddress, s.ModuleAddress)
		setString(&cfg.ResourceAccount, s.ResourceAccount)
		setString(&cfg.ScriptsModule, s.ScriptsModule)
		setString(&cfg.Curve, s.Curve)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// SQLite 默认放在用户主目录
	if cfg.DBDSN == "" && cfg.DBDriver == DriverSQLite {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			cfg.DBDSN = filepath.Join(homeDir, ".aptos-swap", "wallet.db")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验运行时配置
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver: %s", c.DBDriver)
	}
	if c.DBDriver == DriverPostgres && c.DBDSN == "" {
		return fmt.Errorf("postgres driver requires Database.DSN or DB_DSN")
	}
	switch c.KDF {
	case KDFSHA256, KDFScryptArgon2:
	default:
		return fmt.Errorf("unsupported key derivation: %s", c.KDF)
	}
	if c.SlippageBps < 0 || c.SlippageBps >= 10000 {
		return fmt.Errorf("slippage must be in [0, 10000) bps, got %d", c.SlippageBps)
	}
	if c.NodeURL == "" {
		return fmt.Errorf("aptos node url not configured")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// expandPath 展开路径中的 ~ 为用户主目录
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
