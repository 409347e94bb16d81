package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/policy"
)

const testProject = "p1"

var (
	uploader = identity.Actor{ID: "u-member", Role: identity.RoleMember}
	other    = identity.Actor{ID: "u-other", Role: identity.RoleMember}
	reviewer = identity.Actor{ID: "u-reviewer", Role: identity.RoleReviewer}
	admin    = identity.Actor{ID: "u-admin", Role: identity.RoleAdmin}
	supplier = identity.Actor{ID: "u-supplier", Role: identity.RoleContractor}
)

// testPolicy: contract 需审批，inspection report 需复核，photo 两者都不需要，permit 需管理员审批.
var testPolicy = policy.Map{
	"contract":          {RequiresApproval: true, ApprovalLevel: 1},
	"permit":            {RequiresApproval: true, ApprovalLevel: 2},
	"inspection report": {RequiresReview: true},
	"photo":             {},
}

type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	puts      int
	failPut   string // 文件名包含该子串时写入失败
	failDel   bool
	putDelay  time.Duration
	inFlight  int
	maxFlight int
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string][]byte{}} }

func (b *memBlobs) Put(ctx context.Context, path string, r io.Reader, _ int64, _ string) error {
	b.mu.Lock()
	b.puts++
	b.inFlight++
	b.maxFlight = max(b.maxFlight, b.inFlight)
	fail := b.failPut != "" && strings.Contains(path, b.failPut)
	delay := b.putDelay
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.inFlight--
		b.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return &StorageError{Op: "put", Path: path, Err: err}
	}

	if fail {
		return &StorageError{Op: "put", Path: path, Err: errors.New("bucket unavailable")}
	}

	b.mu.Lock()
	b.objects[path] = data
	b.mu.Unlock()

	return nil
}

func (b *memBlobs) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failDel {
		return &StorageError{Op: "delete", Path: path, Err: errors.New("bucket unavailable")}
	}

	delete(b.objects, path)

	return nil
}

func (b *memBlobs) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	return "https://blobs.test/" + path + "?ttl=" + ttl.String(), nil
}

func (b *memBlobs) has(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.objects[path]

	return ok
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.objects)
}

type memMeta struct {
	mu         sync.Mutex
	docs       map[string]*model.Document
	orphans    []model.OrphanBlob
	failCreate string // 文件名包含该子串时写入失败
	lists      int
}

func newMemMeta() *memMeta { return &memMeta{docs: map[string]*model.Document{}} }

func (m *memMeta) Create(_ context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate != "" && strings.Contains(doc.Name, m.failCreate) {
		return &MetadataError{Op: "create", Err: errors.New("connection reset")}
	}

	m.docs[doc.ID] = doc.Clone()

	return nil
}

func (m *memMeta) Update(_ context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[doc.ID]; !ok {
		return &NotFoundError{ID: doc.ID}
	}

	m.docs[doc.ID] = doc.Clone()

	return nil
}

func (m *memMeta) Delete(_ context.Context, projectID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok || d.ProjectID != projectID {
		return &NotFoundError{ID: id}
	}

	delete(m.docs, id)

	return nil
}

func (m *memMeta) Get(_ context.Context, projectID, id string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok || d.ProjectID != projectID {
		return nil, &NotFoundError{ID: id}
	}

	return d.Clone(), nil
}

func (m *memMeta) ListByProject(_ context.Context, projectID string) ([]*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lists++

	out := make([]*model.Document, 0, len(m.docs))
	for _, d := range m.docs {
		if d.ProjectID == projectID {
			out = append(out, d.Clone())
		}
	}

	slices.SortFunc(out, func(a, b *model.Document) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return out, nil
}

func (m *memMeta) RecordOrphan(_ context.Context, o *model.OrphanBlob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o.ID = uint(len(m.orphans) + 1)
	m.orphans = append(m.orphans, *o)

	return nil
}

func (m *memMeta) PendingOrphans(_ context.Context, before time.Time, limit int) ([]model.OrphanBlob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.OrphanBlob

	for _, o := range m.orphans {
		if o.ReconciledAt == nil && !o.CreatedAt.After(before) && len(out) < limit {
			out = append(out, o)
		}
	}

	return out, nil
}

func (m *memMeta) MarkReconciled(_ context.Context, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.orphans {
		if m.orphans[i].ID == id {
			m.orphans[i].ReconciledAt = &at
		}
	}

	return nil
}

func (m *memMeta) PathReferenced(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.docs {
		if d.StoragePath == path {
			return true, nil
		}
	}

	return false, nil
}

func (m *memMeta) get(id string) *model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.docs[id]; ok {
		return d.Clone()
	}

	return nil
}

// fakeClock 每次调用前进一秒，保证上传时间有序.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Second)

	return c.now
}

type fixture struct {
	svc   *DocumentService
	blobs *memBlobs
	meta  *memMeta
	clock *fakeClock
}

func testUploadConfig() configs.UploadConfig {
	return configs.UploadConfig{
		MaxFileSizeMB:       configs.DefaultUploadMaxFileSizeMB,
		AllowedContentTypes: configs.DefaultAllowedContentTypes,
		Concurrency:         3,
		PathPrefix:          "projects",
		MaxBatchFiles:       configs.DefaultUploadMaxBatchFiles,
	}
}

func testWorkflowConfig() configs.WorkflowConfig {
	return configs.WorkflowConfig{
		SignedURLTTLSeconds:  60,
		PreviewDebounceMS:    20,
		BulkConcurrency:      3,
		OrphanReconcileBatch: 10,
	}
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		blobs: newMemBlobs(),
		meta:  newMemMeta(),
		clock: &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	base := []Option{
		WithClock(f.clock.Now),
		WithUploadConfig(testUploadConfig()),
		WithWorkflowConfig(testWorkflowConfig()),
	}

	f.svc = NewDocumentService(f.blobs, f.meta, testPolicy, append(base, opts...)...)

	return f
}

func file(name, contentType string, size int) UploadFile {
	data := bytes.Repeat([]byte("x"), size)

	return UploadFile{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(size),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// hugeFile 只声明大小，不分配内容.
func hugeFile(name string, size int64) UploadFile {
	return UploadFile{
		Filename:    name,
		ContentType: "application/pdf",
		Size:        size,
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("")), nil },
	}
}

// seed 上传一个文档并返回其 id.
func (f *fixture) seed(t *testing.T, actor identity.Actor, docType, name string, toSuppliers, toPolicyholders bool) string {
	t.Helper()

	sum, err := f.svc.Upload(context.Background(), actor, UploadRequest{
		ProjectID:       testProject,
		Type:            docType,
		ToSuppliers:     toSuppliers,
		ToPolicyholders: toPolicyholders,
		Files:           []UploadFile{file(name, "application/pdf", 16)},
	}, nil)
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}

	if sum.Succeeded != 1 {
		t.Fatalf("seed %s: %+v", name, sum.Items)
	}

	return sum.Items[0].DocumentID
}

// gatedMeta 在 arm 之后的第一次 ListByProject 读完数据时停住，直到 release.
type gatedMeta struct {
	*memMeta

	mu      sync.Mutex
	armed   bool
	reached chan struct{}
	gate    chan struct{}
}

func newGatedMeta() *gatedMeta { return &gatedMeta{memMeta: newMemMeta()} }

func (g *gatedMeta) arm() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.armed = true
	g.reached = make(chan struct{})
	g.gate = make(chan struct{})
}

func (g *gatedMeta) release() { close(g.gate) }

func (g *gatedMeta) ListByProject(ctx context.Context, projectID string) ([]*model.Document, error) {
	docs, err := g.memMeta.ListByProject(ctx, projectID)

	g.mu.Lock()
	hold := g.armed
	g.armed = false
	reached, gate := g.reached, g.gate
	g.mu.Unlock()

	if hold {
		close(reached)
		<-gate
	}

	return docs, err
}

// newGatedFixture 与 newFixture 相同，但元数据的列表读取可以被卡住.
func newGatedFixture(t *testing.T, opts ...Option) (*fixture, *gatedMeta) {
	t.Helper()

	gm := newGatedMeta()
	f := &fixture{
		blobs: newMemBlobs(),
		meta:  gm.memMeta,
		clock: &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	base := []Option{
		WithClock(f.clock.Now),
		WithUploadConfig(testUploadConfig()),
		WithWorkflowConfig(testWorkflowConfig()),
	}

	f.svc = NewDocumentService(f.blobs, gm, testPolicy, append(base, opts...)...)

	return f, gm
}
