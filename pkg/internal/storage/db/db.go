// Package db 封装 GORM 客户端，按配置的数据库类型选择 dialector.
// 支持 PostgreSQL、MySQL/MariaDB、SQLite（cgo 与纯 Go 两种驱动）.
package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/docflow/pkg/configs"
	nlog "github.com/yeisme/docflow/pkg/log"
)

// DialectorFactory 由配置构造 dialector；各驱动自行拼接 DSN.
type DialectorFactory func(cfg *configs.DBConfig) gorm.Dialector

var (
	factoriesMu        sync.RWMutex
	dialectorFactories = map[configs.DBType]DialectorFactory{}
)

// RegisterDialectorFactory 注册数据库 dialector 工厂函数.
func RegisterDialectorFactory(dbType configs.DBType, factory DialectorFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	dialectorFactories[dbType] = factory
}

// GetRegisteredDBTypes 返回已注册的数据库类型（别名归一后）.
func GetRegisteredDBTypes() []configs.DBType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]configs.DBType, 0, len(dialectorFactories))
	for dbType := range dialectorFactories {
		types = append(types, dbType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 包装 GORM DB 客户端.
type Client struct {
	*gorm.DB
}

const slowQueryThreshold = 500 * time.Millisecond

// sqliteFile 返回 SQLite 的 URI 前缀（已带 ?），驱动在其后追加各自的 pragma 参数.
func sqliteFile(cfg *configs.DBConfig) string {
	if cfg.InMemory() {
		return "file::memory:?cache=shared"
	}

	return "file:" + cfg.Database + ".db?mode=rwc"
}

// New 按配置打开元数据库并配置连接池.
func New(ctx context.Context, cfg *configs.DBConfig) (*Client, error) {
	factoriesMu.RLock()
	factory, exists := dialectorFactories[cfg.Dialect()]
	factoriesMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	level := logger.Warn
	if configs.GetConfig().Server.Debug {
		level = logger.Info
	}

	gormLogger := logger.New(nlog.Logger(), logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	gdb, err := gorm.Open(factory(cfg), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Dialect(), err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Dialect(), err)
	}

	nlog.Logger().Info().
		Str("type", string(cfg.Dialect())).
		Str("database", cfg.Database).
		Msg("metadata database connected")

	return &Client{DB: gdb}, nil
}

// Wrap 用已有的 *gorm.DB 构造 Client，便于测试.
func Wrap(gdb *gorm.DB) *Client {
	return &Client{DB: gdb}
}

// Migrate 自动迁移给定模型.
func (c *Client) Migrate(ctx context.Context, models ...any) error {
	if err := c.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}

// Close 关闭底层连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

const defaultGORMMetricsRefreshInterval = 15 // 秒

// RegisterGORMMetrics 注册 GORM 连接池指标到默认 prometheus 注册表.
func (c *Client) RegisterGORMMetrics(dbName string) error {
	promConfig := gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: defaultGORMMetricsRefreshInterval,
		StartServer:     false,
	}

	if err := c.Use(gormPrometheus.New(promConfig)); err != nil {
		return fmt.Errorf("failed to register GORM prometheus plugin: %w", err)
	}

	return nil
}
