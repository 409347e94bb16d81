// Package context 在请求 context 上携带存储管理器，并为日志补充追踪与操作人字段.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/storage"
	dbc "github.com/yeisme/docflow/pkg/internal/storage/db"
	kvc "github.com/yeisme/docflow/pkg/internal/storage/kv"
	mqc "github.com/yeisme/docflow/pkg/internal/storage/mq"
	s3c "github.com/yeisme/docflow/pkg/internal/storage/s3"
)

type managerKey struct{}

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, mgr)
}

// GetManager 从 context 中获取 Manager，未设置时为 nil.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey{}).(*storage.Manager)
	return mgr
}

// GetS3Client 文档原件所在的对象存储.
func GetS3Client(ctx context.Context) *s3c.Client { return GetManager(ctx).GetS3Client() }

// GetDBClient 元数据库.
func GetDBClient(ctx context.Context) *dbc.Client { return GetManager(ctx).GetDBClient() }

// GetMQClient 事件总线，未启用事件时为 nil.
func GetMQClient(ctx context.Context) *mqc.Client { return GetManager(ctx).GetMQClient() }

// GetKVClient 列表缓存，未启用时为 nil.
func GetKVClient(ctx context.Context) *kvc.Client { return GetManager(ctx).GetKVClient() }

// WithTraceContext 为 logger 附加 trace_id 与 span_id.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return logger
	}

	return logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
}

// WithRequestContext 在追踪字段之外再附加请求的操作人，用于请求级日志.
func WithRequestContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	logger = WithTraceContext(ctx, logger)

	actor, ok := identity.FromContext(ctx)
	if !ok {
		return logger
	}

	return logger.With().Str("actor", actor.ID).Str("role", actor.Role.String()).Logger()
}
