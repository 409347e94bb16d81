package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/types"
	"github.com/yeisme/docflow/pkg/internal/visibility"
	"github.com/yeisme/docflow/pkg/metrics"
	"github.com/yeisme/docflow/pkg/queue"
	"github.com/yeisme/docflow/pkg/tracing"
)

// 进度映射：传输占 0-90，写元数据时为 95.
const (
	progressTransferMax = 90
	progressProcessing  = 95
	progressComplete    = 100
)

// UploadFile 批次中的一个文件；Open 每次调用返回新的读取器，便于重试.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadRequest 一次批量上传，批次内所有文件共享类型、备注与受众开关.
type UploadRequest struct {
	ProjectID       string
	Type            string
	Note            string
	ToSuppliers     bool
	ToPolicyholders bool
	Files           []UploadFile
}

// ProgressFunc 接收上传项的快照；调用是串行且有序的，在 Upload 返回前全部送达.
// 回调在独立的 goroutine 中执行，慢回调不会拖住上传.
type ProgressFunc func(item types.UploadItem)

// tracker 持有一批上传项，进度快照入队后由单个 goroutine 依次回调.
type tracker struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []types.UploadItem
	queue    []types.UploadItem
	closed   bool
	done     chan struct{}
	progress ProgressFunc
}

func newTracker(files []UploadFile, progress ProgressFunc) *tracker {
	t := &tracker{items: make([]types.UploadItem, len(files)), progress: progress, done: make(chan struct{})}
	t.cond = sync.NewCond(&t.mu)

	for i, f := range files {
		t.items[i] = types.UploadItem{Index: i, Filename: f.Filename, Status: types.UploadQueued}
	}

	if progress == nil {
		close(t.done)
	} else {
		go t.dispatch()
	}

	return t
}

func (t *tracker) dispatch() {
	defer close(t.done)

	for {
		t.mu.Lock()
		for len(t.queue) == 0 && !t.closed {
			t.cond.Wait()
		}

		batch := t.queue
		t.queue = nil
		t.mu.Unlock()

		if len(batch) == 0 {
			return
		}

		for _, it := range batch {
			t.progress(it)
		}
	}
}

// enqueueLocked 调用方持有 mu.
func (t *tracker) enqueueLocked(it types.UploadItem) {
	if t.progress == nil || t.closed {
		return
	}

	t.queue = append(t.queue, it)
	t.cond.Signal()
}

func (t *tracker) update(i int, fn func(*types.UploadItem)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := t.items[i]
	fn(&t.items[i])

	if t.items[i] != before {
		t.enqueueLocked(t.items[i])
	}
}

func (t *tracker) emitAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, it := range t.items {
		t.enqueueLocked(it)
	}
}

// close 等待已入队的快照全部送达；之后的更新不再回调.
func (t *tracker) close() {
	t.mu.Lock()
	t.closed = true
	t.cond.Signal()
	t.mu.Unlock()

	<-t.done
}

func (t *tracker) snapshot() []types.UploadItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]types.UploadItem(nil), t.items...)
}

// Upload 校验并写入一批文件.
//
// 任何文件校验失败时整批拒绝，返回汇总所有问题文件的 ValidationError，不产生任何写入.
// 校验通过后每个文件独立处理：先写 blob 再写元数据，单个失败只影响该项.
func (s *DocumentService) Upload(ctx context.Context, actor identity.Actor, req UploadRequest,
	progress ProgressFunc,
) (*types.UploadSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "document.upload_batch")

	var err error
	defer func() { tracing.End(span, err) }()

	if actor.ID == "" {
		err = &AuthorizationError{Action: "upload", Reason: "anonymous actor"}
		return nil, err
	}

	t := newTracker(req.Files, progress)
	defer t.close()

	t.emitAll()

	if err = s.validateUpload(req); err != nil {
		for range req.Files {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		}

		return nil, err
	}

	start := time.Now()
	log := s.logger(ctx, req.ProjectID)

	g := new(errgroup.Group)
	g.SetLimit(workerLimit(s.upload.Concurrency))

	for i := range req.Files {
		g.Go(func() error {
			s.ingest(ctx, actor, req, i, t)
			return nil
		})
	}

	_ = g.Wait()
	t.close()

	metrics.UploadBatchDuration.Observe(time.Since(start).Seconds())
	s.invalidate(ctx, req.ProjectID)

	summary := summarize(t.snapshot())

	log.Info().
		Str("actor", actor.ID).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("upload batch finished")

	return summary, nil
}

// RetryItem 重新处理批次中的第 index 个文件，通常用于之前失败的项.
func (s *DocumentService) RetryItem(ctx context.Context, actor identity.Actor, req UploadRequest, index int,
	progress ProgressFunc,
) (types.UploadItem, error) {
	if actor.ID == "" {
		return types.UploadItem{}, &AuthorizationError{Action: "upload", Reason: "anonymous actor"}
	}

	if index < 0 || index >= len(req.Files) {
		return types.UploadItem{}, NewValidationError("index", fmt.Sprintf("out of range [0,%d)", len(req.Files)))
	}

	single := req
	single.Files = []UploadFile{req.Files[index]}

	if err := s.validateUpload(single); err != nil {
		return types.UploadItem{}, err
	}

	t := newTracker(single.Files, func(it types.UploadItem) {
		if progress != nil {
			it.Index = index
			progress(it)
		}
	})

	s.ingest(ctx, actor, single, 0, t)
	t.close()
	s.invalidate(ctx, req.ProjectID)

	item := t.snapshot()[0]
	item.Index = index

	return item, nil
}

// ValidateUpload 只做批次校验，不写入；流式响应在写出响应头之前调用.
func (s *DocumentService) ValidateUpload(req UploadRequest) error {
	return s.validateUpload(req)
}

// validateUpload 在任何 I/O 之前检查整批文件.
func (s *DocumentService) validateUpload(req UploadRequest) error {
	verr := &ValidationError{}

	if strings.TrimSpace(req.ProjectID) == "" {
		verr.Add("project_id", "required")
	}

	if strings.TrimSpace(req.Type) == "" {
		verr.Add("type", "required")
	}

	switch {
	case len(req.Files) == 0:
		verr.Add("files", "at least one file is required")
	case s.upload.MaxBatchFiles > 0 && len(req.Files) > s.upload.MaxBatchFiles:
		verr.Add("files", fmt.Sprintf("at most %d files per batch", s.upload.MaxBatchFiles))
	}

	limit := s.upload.MaxFileSizeBytes()

	for i, f := range req.Files {
		key := f.Filename
		if _, dup := verr.Issues[key]; dup || key == "" {
			key = fmt.Sprintf("%s#%d", f.Filename, i+1)
		}

		var problems []string

		if f.Size > limit {
			problems = append(problems, fmt.Sprintf("size %d exceeds limit of %d MiB", f.Size, s.upload.MaxFileSizeMB))
		}

		if f.Size < 0 {
			problems = append(problems, "unknown size")
		}

		if !s.contentTypeAllowed(f.ContentType) {
			problems = append(problems, fmt.Sprintf("content type %q not allowed", f.ContentType))
		}

		if f.Open == nil {
			problems = append(problems, "no content")
		}

		if len(problems) > 0 {
			verr.Add(key, strings.Join(problems, ", "))
		}
	}

	if verr.Empty() {
		return nil
	}

	return verr
}

func (s *DocumentService) contentTypeAllowed(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}

	for _, allowed := range s.upload.AllowedContentTypes {
		if allowed == mt {
			return true
		}

		if base, ok := strings.CutSuffix(allowed, "/*"); ok && strings.HasPrefix(mt, base+"/") {
			return true
		}
	}

	return false
}

// ingest 处理单个文件：blob → 元数据；失败写入该项的 Error.
func (s *DocumentService) ingest(ctx context.Context, actor identity.Actor, req UploadRequest, i int, t *tracker) {
	f := req.Files[i]

	ctx, span := tracing.StartSpan(ctx, "document.ingest")

	var err error
	defer func() { tracing.End(span, err) }()

	fail := func(e error) {
		err = e

		metrics.UploadsTotal.WithLabelValues(string(types.UploadError)).Inc()
		t.update(i, func(it *types.UploadItem) {
			it.Status = types.UploadError
			it.Error = e.Error()
		})
	}

	if e := ctx.Err(); e != nil {
		fail(e)
		return
	}

	t.update(i, func(it *types.UploadItem) {
		it.Status = types.UploadUploading
		it.ProgressPercent = 0
		it.Error = ""
	})

	rc, e := f.Open()
	if e != nil {
		fail(fmt.Errorf("open %s: %w", f.Filename, e))
		return
	}
	defer rc.Close()

	storagePath := s.paths.Next(req.ProjectID, f.Filename)

	pr := &progressReader{r: rc, total: f.Size, report: func(pct int) {
		t.update(i, func(it *types.UploadItem) { it.ProgressPercent = pct })
	}}

	if e := s.blobs.Put(ctx, storagePath, pr, f.Size, f.ContentType); e != nil {
		fail(e)
		return
	}

	metrics.UploadBytes.Add(float64(f.Size))

	t.update(i, func(it *types.UploadItem) {
		it.Status = types.UploadProcessing
		it.ProgressPercent = progressProcessing
	})

	doc := s.newDocument(actor, req, f, storagePath)

	if e := s.meta.Create(ctx, doc); e != nil {
		s.recordOrphan(ctx, req.ProjectID, storagePath, e)
		fail(e)

		return
	}

	metrics.UploadsTotal.WithLabelValues(string(types.UploadComplete)).Inc()
	t.update(i, func(it *types.UploadItem) {
		it.Status = types.UploadComplete
		it.ProgressPercent = progressComplete
		it.DocumentID = doc.ID
	})

	s.events.DocumentEvent(ctx, queue.TopicDocumentUploaded, doc, actor.ID, "")
}

// newDocument 根据类型策略计算初始状态.
func (s *DocumentService) newDocument(actor identity.Actor, req UploadRequest, f UploadFile, storagePath string) *model.Document {
	now := s.now()

	doc := &model.Document{
		ID:               uuid.NewString(),
		ProjectID:        req.ProjectID,
		Name:             f.Filename,
		StoragePath:      storagePath,
		Type:             req.Type,
		ContentType:      f.ContentType,
		Note:             req.Note,
		FileSizeBytes:    f.Size,
		UploadedByUserID: actor.ID,
		UploadedAt:       now,
	}

	switch {
	case s.policy.RequiresApproval(req.Type):
		// 待审批文档始终仅内部可见，忽略受众开关
		doc.ApprovalStatus = model.ApprovalPending
		doc.VisibilityLevel = model.VisibilityInternal
	case s.policy.RequiresReview(req.Type):
		doc.ApprovalStatus = model.ApprovalAvailable
		doc.ReviewStatus = model.ReviewUnreviewed.Ptr()
		doc.VisibilityLevel = visibility.Encode(req.ToSuppliers, req.ToPolicyholders)
	default:
		doc.ApprovalStatus = model.ApprovalAvailable
		doc.VisibilityLevel = visibility.Encode(req.ToSuppliers, req.ToPolicyholders)
		doc.ApprovedByUserID = &actor.ID
		doc.ApprovedAt = &now
	}

	doc.WorkflowStage = doc.ApprovalStatus.Stage()

	return doc
}

func summarize(items []types.UploadItem) *types.UploadSummary {
	sum := &types.UploadSummary{Items: items}

	for _, it := range items {
		switch it.Status {
		case types.UploadComplete:
			sum.Succeeded++
		case types.UploadError:
			sum.Failed++
		}
	}

	return sum
}

// progressReader 按已读字节上报传输进度，只在整数百分比变化时回调.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	if p.total > 0 {
		pct := int(p.read * progressTransferMax / p.total)
		if pct > progressTransferMax {
			pct = progressTransferMax
		}

		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}

	return n, err
}
