package service

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/policy"
	"github.com/yeisme/docflow/pkg/internal/query"
	"github.com/yeisme/docflow/pkg/internal/types"
)

// Selection 多选状态，不做并发保护，由 WorkflowSession 加锁访问.
type Selection struct {
	ids    map[string]struct{}
	active bool
}

// Active 是否处于多选模式.
func (s *Selection) Active() bool { return s.active }

// Len 已选数量.
func (s *Selection) Len() int { return len(s.ids) }

// Contains 是否已选.
func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) toggle(id string) bool {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}

	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}

	s.ids[id] = struct{}{}

	return true
}

func (s *Selection) clear() { s.ids = nil }

// WorkflowSession 一个 actor 在一个项目内的工作会话：持有文档集合与多选状态.
// 每次变更后从元数据存储重新加载集合；跨会话的并发编辑以存储中最后一次写入为准.
type WorkflowSession struct {
	svc       *DocumentService
	actor     identity.Actor
	projectID string

	mu        sync.RWMutex
	docs      []*model.Document
	selection Selection
	applied   uint64 // 已应用的最新加载序号

	loadSeq atomic.Uint64
	refresh singleflight.Group
	preview *debouncer
}

// NewSession 创建会话，调用方需先 Refresh 加载文档.
func (s *DocumentService) NewSession(actor identity.Actor, projectID string) *WorkflowSession {
	return &WorkflowSession{
		svc:       s,
		actor:     actor,
		projectID: projectID,
		preview:   newDebouncer(s.workflow.PreviewDebounce()),
	}
}

// Actor 会话所属用户.
func (w *WorkflowSession) Actor() identity.Actor { return w.actor }

// ProjectID 会话所属项目.
func (w *WorkflowSession) ProjectID() string { return w.projectID }

// Refresh 重新加载项目文档；并发调用合并为一次查询.
// 已不存在的文档会从选择中移除.
func (w *WorkflowSession) Refresh(ctx context.Context) error {
	_, err, _ := w.refresh.Do(w.projectID, func() (any, error) {
		return nil, w.load(ctx)
	})

	return err
}

// reload 变更后使用：不复用变更前已开始的查询.
func (w *WorkflowSession) reload(ctx context.Context) error {
	w.refresh.Forget(w.projectID)

	return w.Refresh(ctx)
}

// load 查询并应用文档集合；比已应用结果更早开始的查询直接丢弃.
func (w *WorkflowSession) load(ctx context.Context) error {
	seq := w.loadSeq.Add(1)

	docs, err := w.svc.ListProject(ctx, w.actor, w.projectID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if seq < w.applied {
		return nil
	}

	w.applied = seq
	w.docs = docs

	present := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		present[d.ID] = struct{}{}
	}

	for id := range w.selection.ids {
		if _, ok := present[id]; !ok {
			delete(w.selection.ids, id)
		}
	}

	return nil
}

// Documents 当前集合的副本.
func (w *WorkflowSession) Documents() []*model.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return slices.Clone(w.docs)
}

// Filtered 对当前集合应用过滤条件.
func (w *WorkflowSession) Filtered(c query.Criteria) []*model.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return query.Apply(w.docs, c)
}

// Counts 各页签数量.
func (w *WorkflowSession) Counts() query.Counts {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return query.Count(w.docs)
}

// EnterMultiSelect 进入多选模式.
func (w *WorkflowSession) EnterMultiSelect() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selection.active = true
}

// ExitMultiSelect 退出多选模式并清空选择.
func (w *WorkflowSession) ExitMultiSelect() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selection.active = false
	w.selection.clear()
}

// Toggle 切换文档的选中状态，返回切换后是否选中；未进入多选模式时自动进入.
func (w *WorkflowSession) Toggle(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selection.active = true

	return w.selection.toggle(id)
}

// SelectAll 选中满足条件的全部文档.
func (w *WorkflowSession) SelectAll(c query.Criteria) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selection.active = true
	if w.selection.ids == nil {
		w.selection.ids = make(map[string]struct{})
	}

	for _, d := range query.Apply(w.docs, c) {
		w.selection.ids[d.ID] = struct{}{}
	}

	return len(w.selection.ids)
}

// ClearSelection 清空选择但保持多选模式.
func (w *WorkflowSession) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selection.clear()
}

// MultiSelectActive 是否处于多选模式.
func (w *WorkflowSession) MultiSelectActive() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.selection.Active()
}

// Selected 已选文档 id，按集合顺序.
func (w *WorkflowSession) Selected() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ids := make([]string, 0, w.selection.Len())
	for _, d := range w.docs {
		if w.selection.Contains(d.ID) {
			ids = append(ids, d.ID)
		}
	}

	return ids
}

// Upload 上传并刷新集合.
func (w *WorkflowSession) Upload(ctx context.Context, req UploadRequest, progress ProgressFunc) (*types.UploadSummary, error) {
	req.ProjectID = w.projectID

	sum, err := w.svc.Upload(ctx, w.actor, req, progress)
	if err != nil {
		return nil, err
	}

	return sum, w.reload(ctx)
}

// Approve 审批并刷新集合.
func (w *WorkflowSession) Approve(ctx context.Context, id string, level policy.Level, vis model.VisibilityLevel) (*model.Document, error) {
	return w.after(ctx)(w.svc.Approve(ctx, w.actor, w.projectID, id, level, vis))
}

// Reject 驳回并刷新集合.
func (w *WorkflowSession) Reject(ctx context.Context, id, reason string) (*model.Document, error) {
	return w.after(ctx)(w.svc.Reject(ctx, w.actor, w.projectID, id, reason))
}

// Review 复核并刷新集合.
func (w *WorkflowSession) Review(ctx context.Context, id, comments string) (*model.Document, error) {
	return w.after(ctx)(w.svc.Review(ctx, w.actor, w.projectID, id, comments))
}

// Edit 编辑并刷新集合.
func (w *WorkflowSession) Edit(ctx context.Context, id string, req types.EditDocumentRequest) (*model.Document, error) {
	return w.after(ctx)(w.svc.Edit(ctx, w.actor, w.projectID, id, req))
}

// Delete 删除并刷新集合.
func (w *WorkflowSession) Delete(ctx context.Context, id string) error {
	if err := w.svc.Delete(ctx, w.actor, w.projectID, id); err != nil {
		return err
	}

	return w.reload(ctx)
}

// after 变更成功后刷新集合.
func (w *WorkflowSession) after(ctx context.Context) func(*model.Document, error) (*model.Document, error) {
	return func(doc *model.Document, err error) (*model.Document, error) {
		if err != nil {
			return nil, err
		}

		return doc, w.reload(ctx)
	}
}

// RunBulk 对当前选择执行批量动作；完成后清空选择、退出多选并刷新集合.
func (w *WorkflowSession) RunBulk(ctx context.Context, action types.BulkAction, comments string) (*types.BulkResult, error) {
	res, err := w.svc.Bulk(ctx, w.actor, w.projectID, action, w.Selected(), comments)
	if err != nil {
		return nil, err
	}

	w.ExitMultiSelect()

	if action == types.BulkDownload || res.NothingToDo {
		return res, nil
	}

	return res, w.reload(ctx)
}

// HoverPreview 在防抖间隔后为文档签发预览地址；期间再次悬停或离开会取消之前的请求.
// deliver 只会收到最后一次悬停的结果.
func (w *WorkflowSession) HoverPreview(ctx context.Context, id string, deliver func(*types.SignedURLResponse, error)) {
	w.preview.schedule(ctx, func(ctx context.Context, current func() bool) {
		res, err := w.svc.SignedURL(ctx, w.actor, w.projectID, id)
		if current() {
			deliver(res, err)
		}
	})
}

// LeavePreview 取消尚未完成的预览请求.
func (w *WorkflowSession) LeavePreview() {
	w.preview.cancel()
}

// Close 释放会话持有的定时器.
func (w *WorkflowSession) Close() {
	w.preview.cancel()
}

// debouncer 只执行最后一次调度的任务.
type debouncer struct {
	delay time.Duration

	mu       sync.Mutex
	gen      uint64
	timer    *time.Timer
	cancelFn context.CancelFunc
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

func (d *debouncer) schedule(parent context.Context, fn func(ctx context.Context, current func() bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	d.gen++
	gen := d.gen

	ctx, cancel := context.WithCancel(parent)
	d.cancelFn = cancel

	current := func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()

		return d.gen == gen && ctx.Err() == nil
	}

	d.timer = time.AfterFunc(d.delay, func() {
		if !current() {
			return
		}

		fn(ctx, current)
	})
}

func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	d.stopLocked()
}

func (d *debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if d.cancelFn != nil {
		d.cancelFn()
		d.cancelFn = nil
	}
}
