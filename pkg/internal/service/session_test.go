package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/policy"
	"github.com/yeisme/docflow/pkg/internal/query"
	"github.com/yeisme/docflow/pkg/internal/types"
)

func newSession(t *testing.T, f *fixture) *WorkflowSession {
	t.Helper()

	s := f.svc.NewSession(uploader, testProject)
	t.Cleanup(s.Close)
	require.NoError(t, s.Refresh(context.Background()))

	return s
}

func TestSessionSelection(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, uploader, "Photo", "a.png", false, false)
	b := f.seed(t, uploader, "Contract", "b.pdf", false, false)
	c := f.seed(t, uploader, "Contract", "c.pdf", false, false)
	s := newSession(t, f)

	assert.False(t, s.MultiSelectActive())

	assert.True(t, s.Toggle(a))
	assert.True(t, s.MultiSelectActive(), "toggle enters multi-select")
	assert.False(t, s.Toggle(a))
	assert.Empty(t, s.Selected())

	n := s.SelectAll(query.Criteria{Tab: query.TabPending})
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{b, c}, s.Selected())

	s.ClearSelection()
	assert.Empty(t, s.Selected())
	assert.True(t, s.MultiSelectActive())

	s.Toggle(b)
	s.ExitMultiSelect()
	assert.False(t, s.MultiSelectActive())
	assert.Empty(t, s.Selected())
}

func TestSessionCountsAndFilter(t *testing.T) {
	f := newFixture(t)
	f.seed(t, uploader, "Photo", "site.png", false, false)
	f.seed(t, uploader, "Contract", "contract.pdf", false, false)
	f.seed(t, uploader, "Inspection Report", "roof inspection.pdf", false, false)
	s := newSession(t, f)

	assert.Equal(t, query.Counts{All: 3, Pending: 1, Review: 1}, s.Counts())

	got := s.Filtered(query.Criteria{Search: "INSPECTION"})
	require.Len(t, got, 1)
	assert.Equal(t, "roof inspection.pdf", got[0].Name)
}

func TestSessionRefreshesAfterMutation(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Contract", "contract.pdf", false, false)

	s := f.svc.NewSession(reviewer, testProject)
	t.Cleanup(s.Close)
	require.NoError(t, s.Refresh(context.Background()))
	require.Equal(t, 1, s.Counts().Pending)

	_, err := s.Approve(context.Background(), id, policy.LevelNone, model.VisibilityPublic)
	require.NoError(t, err)

	assert.Zero(t, s.Counts().Pending)
	assert.Equal(t, model.ApprovalApproved, s.Documents()[0].ApprovalStatus)

	sum, err := s.Upload(context.Background(), UploadRequest{
		Type:  "Photo",
		Files: []UploadFile{file("new.png", "image/png", 8)},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Succeeded)
	assert.Len(t, s.Documents(), 2)
}

func TestSessionMutationDuringRefreshShowsOwnWrite(t *testing.T) {
	ctx := context.Background()
	f, gm := newGatedFixture(t)
	id := f.seed(t, uploader, "Photo", "report.pdf", false, false)
	s := newSession(t, f)

	gm.arm()

	done := make(chan error, 1)
	go func() { done <- s.Refresh(ctx) }()

	<-gm.reached

	_, err := s.Edit(ctx, id, types.EditDocumentRequest{Name: ptr("final-report")})
	require.NoError(t, err)
	require.Len(t, s.Documents(), 1)
	assert.Equal(t, "final-report.pdf", s.Documents()[0].Name)

	gm.release()
	require.NoError(t, <-done)

	assert.Equal(t, "final-report.pdf", s.Documents()[0].Name, "older refresh must not overwrite newer state")
}

func TestSessionRefreshPrunesSelection(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, uploader, "Photo", "a.png", false, false)
	b := f.seed(t, uploader, "Photo", "b.png", false, false)
	s := newSession(t, f)

	s.Toggle(a)
	s.Toggle(b)

	require.NoError(t, f.svc.Delete(context.Background(), uploader, testProject, a))
	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, []string{b}, s.Selected())
}

func TestSessionRunBulkExitsMultiSelect(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, uploader, "Photo", "a.png", false, false)
	b := f.seed(t, uploader, "Photo", "b.png", false, false)
	f.seed(t, uploader, "Photo", "c.png", false, false)
	s := newSession(t, f)

	s.Toggle(a)
	s.Toggle(b)

	res, err := s.RunBulk(context.Background(), types.BulkDelete, "")
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	assert.False(t, s.MultiSelectActive())
	assert.Empty(t, s.Selected())
	assert.Len(t, s.Documents(), 1)

	_, err = s.RunBulk(context.Background(), types.BulkDelete, "")
	assert.ErrorIs(t, err, ErrValidation, "empty selection")
}

type previewSink struct {
	mu  sync.Mutex
	got []string
}

func (p *previewSink) deliver(res *types.SignedURLResponse, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.got = append(p.got, "error")
		return
	}

	p.got = append(p.got, res.DocumentID)
}

func (p *previewSink) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.got...)
}

func TestHoverThenLeaveNeverDelivers(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, uploader, "Photo", "a.png", false, false)
	s := newSession(t, f)
	sink := &previewSink{}

	s.HoverPreview(context.Background(), a, sink.deliver)
	s.LeavePreview()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sink.snapshot())
}

func TestOnlyLastHoverDelivers(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, uploader, "Photo", "a.png", false, false)
	b := f.seed(t, uploader, "Photo", "b.png", false, false)
	s := newSession(t, f)
	sink := &previewSink{}

	s.HoverPreview(context.Background(), a, sink.deliver)
	s.HoverPreview(context.Background(), b, sink.deliver)

	assert.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{b}, sink.snapshot())
}
