package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"aptos-swap/internal/config"
	"aptos-swap/internal/models"

	logging "github.com/ipfs/go-log/v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var log = logging.Logger("repository")

var (
	// ErrNotFound 记录不存在（或不属于当前用户）
	ErrNotFound = errors.New("not found")
	// ErrDuplicate 唯一索引冲突
	ErrDuplicate = errors.New("duplicate record")
)

// StorageError 非预期的持久化错误
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// wrapErr 将 gorm 错误映射为仓储层错误
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate):
		return err
	default:
		return &StorageError{Op: op, Err: err}
	}
}

// Store 数据存储结构
// 封装了 GORM 数据库连接，提供数据访问功能
type Store struct {
	DB *gorm.DB // GORM 数据库实例
}

// OpenStore 打开数据库存储
// 支持 SQLite（默认，自动创建数据库文件）与 Postgres
// 参数：
//   - driver: sqlite | postgres
//   - dsn: SQLite 文件路径或 Postgres 连接串
//
// 返回：Store 实例或错误
func OpenStore(driver, dsn string) (*Store, error) {
	log.Debugf("OpenStore: opening %s database connection", driver)

	var dialector gorm.Dialector
	switch driver {
	case "", config.DriverSQLite:
		// 如果路径为空，使用默认路径
		if dsn == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				log.Errorf("OpenStore: failed to get home directory: %v", err)
				return nil, err
			}
			dsn = filepath.Join(homeDir, ".aptos-swap", "wallet.db")
		}

		// 确保目录存在
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			log.Errorf("OpenStore: failed to create directory %s: %v", dir, err)
			return nil, err
		}
		dialector = sqlite.Open(dsn + "?_foreign_keys=on&_busy_timeout=5000")
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	gormLogger := logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		log.Errorf("OpenStore: failed to open database: %v", err)
		return nil, err
	}

	// SQLite 只允许单写连接，避免事务间的 database is locked
	if driver != config.DriverPostgres {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	// 自动迁移所有数据表
	if err = db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Coin{},
	); err != nil {
		log.Errorf("OpenStore: auto migration failed: %v", err)
		return nil, err
	}

	log.Debugf("OpenStore: %s database opened successfully", driver)
	return &Store{DB: db}, nil
}

// Close 关闭底层连接
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}
