// Package service 实现文档生命周期：批量上传、审批/驳回/复核、编辑删除、批量操作与会话.
//
// 服务只依赖 BlobStore、MetadataStore 与 policy.Provider 三个接口，MinIO 与 GORM
// 的实现分别见 S3BlobStore 与 GormMetadataStore.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/yeisme/docflow/pkg/cache"
	"github.com/yeisme/docflow/pkg/configs"
	ctxPkg "github.com/yeisme/docflow/pkg/context"
	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/policy"
	"github.com/yeisme/docflow/pkg/internal/query"
	"github.com/yeisme/docflow/pkg/internal/storage"
	"github.com/yeisme/docflow/pkg/internal/types"
	"github.com/yeisme/docflow/pkg/internal/visibility"
	nlog "github.com/yeisme/docflow/pkg/log"
	"github.com/yeisme/docflow/pkg/metrics"
	"github.com/yeisme/docflow/pkg/tracing"
)

const listCacheNamespace = "docs"

// DocumentService 文档工作流入口.
type DocumentService struct {
	blobs   BlobStore
	meta    MetadataStore
	orphans OrphanLedger
	policy  policy.Provider
	events  EventPublisher
	cache   *cache.Cache

	upload   configs.UploadConfig
	workflow configs.WorkflowConfig

	now   Clock
	paths *pathGenerator
	log   zerolog.Logger
}

// Option 配置 DocumentService.
type Option func(*DocumentService)

// WithClock 注入时钟.
func WithClock(c Clock) Option { return func(s *DocumentService) { s.now = c } }

// WithEvents 注入事件发布器.
func WithEvents(e EventPublisher) Option { return func(s *DocumentService) { s.events = e } }

// WithListCache 为项目列表启用缓存.
func WithListCache(c *cache.Cache) Option { return func(s *DocumentService) { s.cache = c } }

// WithOrphanLedger 记录孤儿 blob；未设置时只写日志.
func WithOrphanLedger(l OrphanLedger) Option { return func(s *DocumentService) { s.orphans = l } }

// WithUploadConfig 覆盖上传限制.
func WithUploadConfig(c configs.UploadConfig) Option {
	return func(s *DocumentService) { s.upload = c }
}

// WithWorkflowConfig 覆盖工作流参数.
func WithWorkflowConfig(c configs.WorkflowConfig) Option {
	return func(s *DocumentService) { s.workflow = c }
}

// NewDocumentService 构造服务，未提供的配置取全局配置.
func NewDocumentService(blobs BlobStore, meta MetadataStore, prov policy.Provider, opts ...Option) *DocumentService {
	cfg := configs.GetConfig()

	s := &DocumentService{
		blobs:    blobs,
		meta:     meta,
		policy:   prov,
		events:   NoopEvents{},
		upload:   cfg.Upload,
		workflow: cfg.Workflow,
		now:      systemClock,
		log:      nlog.Component("document"),
	}

	if l, ok := meta.(OrphanLedger); ok {
		s.orphans = l
	}

	for _, opt := range opts {
		opt(s)
	}

	s.paths = newPathGenerator(s.upload.PathPrefix, s.now)

	return s
}

// NewFromManager 基于已初始化的存储组件构造服务.
func NewFromManager(mgr *storage.Manager) (*DocumentService, error) {
	if mgr == nil || mgr.GetS3Client() == nil || mgr.GetDBClient() == nil {
		return nil, errors.New("document service requires s3 and db clients")
	}

	cfg := configs.GetConfig()
	opts := []Option{}

	if mqc := mgr.GetMQClient(); mqc != nil {
		opts = append(opts, WithEvents(NewWatermillEvents(mqc.Publisher(), cfg.Events)))
	}

	if kvc := mgr.GetKVClient(); kvc != nil && cfg.Workflow.ListCacheTTL() > 0 {
		opts = append(opts, WithListCache(cache.NewCache(kvc)))
	}

	return NewDocumentService(
		NewS3BlobStore(mgr.GetS3Client(), &cfg.CircuitBreaker),
		NewGormMetadataStore(mgr.GetDBClient().DB),
		policy.FromGlobalConfig(),
		opts...,
	), nil
}

// Policy 返回当前策略.
func (s *DocumentService) Policy() policy.Provider { return s.policy }

// Get 读取单个文档，actor 不可见时返回 AuthorizationError.
func (s *DocumentService) Get(ctx context.Context, actor identity.Actor, projectID, id string) (*model.Document, error) {
	doc, err := s.meta.Get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}

	if !visibility.CanAccess(doc, actor) {
		return nil, &AuthorizationError{ActorID: actor.ID, Action: "view", Reason: "document not visible to role " + actor.Role.String()}
	}

	return doc, nil
}

// ListProject 返回项目下 actor 可见的全部文档，顺序与存储一致.
func (s *DocumentService) ListProject(ctx context.Context, actor identity.Actor, projectID string) ([]*model.Document, error) {
	load := func() ([]*model.Document, error) {
		docs, err := s.meta.ListByProject(ctx, projectID)
		if err != nil {
			return nil, err
		}

		visible := make([]*model.Document, 0, len(docs))
		for _, d := range docs {
			if visibility.CanAccess(d, actor) {
				visible = append(visible, d)
			}
		}

		return visible, nil
	}

	ttl := s.workflow.ListCacheTTL()
	if s.cache == nil || ttl <= 0 {
		return load()
	}

	// 代号在加载前读取，加载期间发生的失效会让这次写回落到旧代号下
	gen := s.cache.Generation(ctx, listScope(projectID))
	key := cache.Key(listCacheNamespace, projectID, gen, cache.Digest([]string{actor.ID, actor.Role.String()}))

	return cache.GetOrSet(ctx, s.cache, key, load, ttl)
}

// List 过滤后的列表及页签计数；计数基于过滤前的可见集合.
func (s *DocumentService) List(ctx context.Context, actor identity.Actor, projectID string,
	criteria query.Criteria,
) (*types.ListDocumentsResponse, error) {
	docs, err := s.ListProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	filtered := query.Apply(docs, criteria)

	views := make([]types.DocumentView, 0, len(filtered))
	for _, d := range filtered {
		views = append(views, s.View(d))
	}

	return &types.ListDocumentsResponse{
		Documents: views,
		Total:     len(views),
		Counts:    query.Count(docs),
		Uploaders: query.Uploaders(docs),
	}, nil
}

// View 附加展示字段.
func (s *DocumentService) View(d *model.Document) types.DocumentView {
	sup, ph := visibility.Decode(d.VisibilityLevel)

	return types.DocumentView{
		Document:        d,
		StatusLabel:     s.policy.StatusLabel(d.ApprovalStatus),
		StatusColor:     s.policy.StatusColor(d.ApprovalStatus),
		ToSuppliers:     sup,
		ToPolicyholders: ph,
	}
}

// SignedURL 为单个文档签发临时地址，每次访问重新签发.
func (s *DocumentService) SignedURL(ctx context.Context, actor identity.Actor, projectID, id string) (*types.SignedURLResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "document.signed_url")

	var err error
	defer func() { tracing.End(span, err) }()

	doc, err := s.Get(ctx, actor, projectID, id)
	if err != nil {
		return nil, err
	}

	ttl := s.workflow.SignedURLTTL()

	url, err := s.blobs.SignedURL(ctx, doc.StoragePath, ttl)
	if err != nil {
		return nil, err
	}

	return &types.SignedURLResponse{
		DocumentID: doc.ID,
		URL:        url,
		ExpiresAt:  s.now().Add(ttl),
	}, nil
}

// invalidate 丢弃项目列表缓存.
func (s *DocumentService) invalidate(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}

	err := errors.Join(
		s.cache.Bump(ctx, listScope(projectID)),
		s.cache.InvalidatePrefix(ctx, ListCachePrefix(projectID)),
	)
	if err != nil {
		s.log.Warn().Err(err).Str("project_id", projectID).Msg("invalidate list cache failed")
	}
}

func listScope(projectID string) string {
	return cache.Key(listCacheNamespace, projectID)
}

// ListCachePrefix 项目列表缓存的键前缀；projectID 为空时覆盖所有项目.
func ListCachePrefix(projectID string) string {
	if projectID == "" {
		return listCacheNamespace + ":"
	}

	return cache.Key(listCacheNamespace, projectID) + ":"
}

// recordOrphan 记录未被元数据引用的 blob，不做内联回滚.
func (s *DocumentService) recordOrphan(ctx context.Context, projectID, path string, cause error) {
	reason := cause.Error()

	s.log.Warn().
		Err(cause).
		Str("project_id", projectID).
		Str("storage_path", path).
		Msg("orphaned blob recorded for reconciliation")

	metrics.OrphanBlobs.Inc()

	if s.orphans != nil {
		orphan := &model.OrphanBlob{
			StoragePath: path,
			ProjectID:   projectID,
			Reason:      reason,
			CreatedAt:   s.now(),
		}
		if err := s.orphans.RecordOrphan(ctx, orphan); err != nil {
			s.log.Error().Err(err).Str("storage_path", path).Msg("persist orphan failed")
		}
	}

	s.events.BlobOrphaned(ctx, projectID, path, reason)
}

func (s *DocumentService) logger(ctx context.Context, projectID string) zerolog.Logger {
	return ctxPkg.WithTraceContext(ctx, s.log).With().Str("project_id", projectID).Logger()
}
