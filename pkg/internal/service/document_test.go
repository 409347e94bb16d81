package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docflow/pkg/cache"
	"github.com/yeisme/docflow/pkg/internal/storage/kv"
	"github.com/yeisme/docflow/pkg/internal/types"
)

func withTestListCache(t *testing.T) []Option {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	wf := testWorkflowConfig()
	wf.ListCacheTTLSeconds = 60

	return []Option{WithListCache(cache.NewCache(store)), WithWorkflowConfig(wf)}
}

func TestListCacheServesRepeatedReads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withTestListCache(t)...)
	id := f.seed(t, uploader, "Photo", "report.pdf", false, false)

	for range 3 {
		docs, err := f.svc.ListProject(ctx, uploader, testProject)
		require.NoError(t, err)
		require.Len(t, docs, 1)
	}

	assert.Equal(t, 1, f.meta.lists)

	_, err := f.svc.Edit(ctx, uploader, testProject, id, types.EditDocumentRequest{Name: ptr("final-report")})
	require.NoError(t, err)

	docs, err := f.svc.ListProject(ctx, uploader, testProject)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "final-report.pdf", docs[0].Name)
	assert.Equal(t, 2, f.meta.lists)
}

func TestListCacheDropsLoadOverlappingInvalidation(t *testing.T) {
	ctx := context.Background()
	f, gm := newGatedFixture(t, withTestListCache(t)...)
	id := f.seed(t, uploader, "Photo", "report.pdf", false, false)

	gm.arm()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.ListProject(ctx, uploader, testProject)
		done <- err
	}()

	<-gm.reached

	_, err := f.svc.Edit(ctx, uploader, testProject, id, types.EditDocumentRequest{Name: ptr("final-report")})
	require.NoError(t, err)

	gm.release()
	require.NoError(t, <-done)

	docs, err := f.svc.ListProject(ctx, uploader, testProject)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "final-report.pdf", docs[0].Name)
}
