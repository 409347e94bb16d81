// Package storage 聚合 docflow 使用的全部存储资源：文档原件所在的 S3、元数据所在的关系数据库、
// 列表缓存所在的 KV 以及领域事件所在的 MQ.
//
// Example:
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
//	bucket := mgr.GetS3Client().Bucket()
//	db := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/model"
	dbc "github.com/yeisme/docflow/pkg/internal/storage/db"
	kvc "github.com/yeisme/docflow/pkg/internal/storage/kv"
	mqc "github.com/yeisme/docflow/pkg/internal/storage/mq"
	s3c "github.com/yeisme/docflow/pkg/internal/storage/s3"
	nlog "github.com/yeisme/docflow/pkg/log"
)

// Manager 聚合所有存储资源；S3 与 DB 必需，KV 与 MQ 初始化失败时降级为 nil.
type Manager struct {
	S3 *s3c.Client
	DB *dbc.Client
	KV *kvc.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 使用全局配置初始化存储并迁移元数据表，重复调用返回同一实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = New(ctx, configs.GetConfig())
	})

	return mgr, mgrErr
}

// New 按给定配置构造 Manager，不使用全局单例.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	log := nlog.Component("storage")
	m := &Manager{}

	db, err := dbc.New(ctx, &cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	m.DB = db

	if err := db.Migrate(ctx, model.All()...); err != nil {
		_ = m.Close()
		return nil, err
	}

	s3, err := s3c.New(ctx, &cfg.S3)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init s3: %w", err)
	}

	m.S3 = s3

	// 缓存与事件不是关键路径，失败只告警
	if kv, err := kvc.New(ctx, &cfg.KV); err != nil {
		log.Warn().Err(err).Msg("kv unavailable, document list cache disabled")
	} else {
		m.KV = kv
	}

	if cfg.Events.Enabled {
		if mq, err := mqc.New(ctx, &cfg.MQ); err != nil {
			log.Warn().Err(err).Msg("mq unavailable, document events disabled")
		} else {
			m.MQ = mq
		}
	}

	log.Info().
		Bool("kv", m.KV != nil).
		Bool("mq", m.MQ != nil).
		Msg("storage manager initialized")

	return m, nil
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	if m == nil {
		return nil
	}

	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	if m == nil {
		return nil
	}

	return m.DB
}

// GetKVClient 获取 KV 客户端，未启用时为 nil.
func (m *Manager) GetKVClient() *kvc.Client {
	if m == nil {
		return nil
	}

	return m.KV
}

// GetMQClient 获取 MQ 客户端，未启用时为 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	if m == nil {
		return nil
	}

	return m.MQ
}

// Close 按 MQ、KV、S3、DB 的顺序释放资源.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
