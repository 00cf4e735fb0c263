package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

const (
	defaultConfigPath = "configs/config.toml" // 默认配置文件路径
	legacyConfigPath  = "config.toml"         // 旧版配置文件路径
	dotenvPath        = ".env"
)

// envOverrides 环境变量覆盖项，未设置的保持为空
type envOverrides struct {
	Secret     string `envconfig:"SECRET"`
	NodeURL    string `envconfig:"APTOS_NODE_URL"`
	IndexerURL string `envconfig:"APTOS_INDEXER_URL"`
	APIKey     string `envconfig:"APTOS_API_KEY"`
	DBDriver   string `envconfig:"DB_DRIVER"`
	DBDSN      string `envconfig:"DB_DSN"`
	DBPath     string `envconfig:"DB_PATH"`

	SlippageBps *int64 `envconfig:"SWAP_SLIPPAGE_BPS"`
}

// Load 加载配置文件
// 先加载 .env（如存在），再查找并解析 TOML 格式的配置文件
func Load() error {
	if fileExists(dotenvPath) {
		if err := godotenv.Load(dotenvPath); err != nil {
			return fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	path := ResolveConfigPath()
	if path == "" {
		return nil
	}
	_, err := toml.DecodeFile(path, &AppConfig)
	return err
}

// LoadFile 从指定路径解析 TOML 配置
func LoadFile(path string) error {
	_, err := toml.DecodeFile(path, &AppConfig)
	return err
}

// ResolveConfigPath 解析配置文件路径
// 按优先级查找配置文件：先查找默认路径，再查找旧版路径
func ResolveConfigPath() string {
	if fileExists(defaultConfigPath) {
		return defaultConfigPath
	}
	if fileExists(legacyConfigPath) {
		return legacyConfigPath
	}
	return ""
}

// applyEnv 用环境变量覆盖配置，格式错误的变量返回错误
func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	setString(&cfg.Seed, env.Secret)
	setString(&cfg.NodeURL, env.NodeURL)
	setString(&cfg.IndexerURL, env.IndexerURL)
	setString(&cfg.APIKey, env.APIKey)
	setString(&cfg.DBDriver, env.DBDriver)
	if env.DBDSN != "" {
		cfg.DBDSN = env.DBDSN
	} else if env.DBPath != "" {
		cfg.DBDSN = expandPath(env.DBPath)
	}
	if env.SlippageBps != nil {
		cfg.SlippageBps = *env.SlippageBps
	}
	return nil
}

// ResolveSeed 返回加密口令
// 未配置时若标准输入为终端则提示输入（不回显）
func (c *Config) ResolveSeed() ([]byte, error) {
	if c.Seed != "" {
		return []byte(c.Seed), nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("security seed not configured: set Security.Seed or SECRET")
	}
	fmt.Fprint(os.Stderr, "Enter vault passphrase: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	return raw, nil
}

// fileExists 检查文件是否存在
// 返回 true 表示文件存在且不是目录
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
