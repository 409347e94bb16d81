package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/types"
)

func TestBulkEmptySelection(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Bulk(context.Background(), admin, testProject, types.BulkDelete, nil, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Bulk(context.Background(), admin, testProject, types.BulkDelete, []string{"", ""}, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Bulk(context.Background(), admin, testProject, "archive", []string{"x"}, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBulkReviewNothingToDo(t *testing.T) {
	f := newFixture(t)
	ids := []string{
		f.seed(t, uploader, "Photo", "a.png", false, false),
		f.seed(t, uploader, "Contract", "b.pdf", false, false),
	}

	res, err := f.svc.Bulk(context.Background(), reviewer, testProject, types.BulkReview, ids, "")
	require.NoError(t, err)

	assert.True(t, res.NothingToDo)
	assert.Zero(t, res.SuccessCount)
	assert.Empty(t, res.Failures)
}

func TestBulkReviewOnlyUnreviewed(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, uploader, "Inspection Report", "a.pdf", false, false)
	b := f.seed(t, uploader, "Inspection Report", "b.pdf", false, false)
	c := f.seed(t, uploader, "Photo", "c.png", false, false)

	_, err := f.svc.Review(context.Background(), reviewer, testProject, b, "")
	require.NoError(t, err)

	_, err = f.svc.Bulk(context.Background(), uploader, testProject, types.BulkReview, []string{a}, "")
	assert.ErrorIs(t, err, ErrAuthorization)

	res, err := f.svc.Bulk(context.Background(), reviewer, testProject, types.BulkReview, []string{a, b, c}, "batch ok")
	require.NoError(t, err)

	assert.False(t, res.NothingToDo)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, model.ReviewReviewed, f.meta.get(a).Review())
	assert.Equal(t, "batch ok", f.meta.get(a).ReviewComments)
}

func TestBulkDeleteSkipsForeignDocuments(t *testing.T) {
	f := newFixture(t)
	mine := []string{
		f.seed(t, uploader, "Photo", "a.png", false, false),
		f.seed(t, uploader, "Photo", "b.png", false, false),
		f.seed(t, uploader, "Photo", "c.png", false, false),
	}
	foreign := f.seed(t, other, "Photo", "d.png", false, false)
	require.Equal(t, 4, f.blobs.count())

	res, err := f.svc.Bulk(context.Background(), uploader, testProject, types.BulkDelete,
		[]string{mine[0], foreign, mine[2]}, "")
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Failures)

	assert.Nil(t, f.meta.get(mine[0]))
	assert.Nil(t, f.meta.get(mine[2]))
	assert.NotNil(t, f.meta.get(mine[1]))
	assert.NotNil(t, f.meta.get(foreign))
	assert.Equal(t, 2, f.blobs.count())
}

func TestBulkReportsMissingInSelectionOrder(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, uploader, "Photo", "a.png", false, false)

	res, err := f.svc.Bulk(context.Background(), admin, testProject, types.BulkDelete,
		[]string{"zz", a, "aa", a}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "zz", res.Failures[0].ID)
	assert.Equal(t, "aa", res.Failures[1].ID)
}

func TestBulkDownloadRespectsVisibility(t *testing.T) {
	f := newFixture(t)
	public := f.seed(t, uploader, "Photo", "a.png", true, true)
	hidden := f.seed(t, uploader, "Photo", "b.png", false, true)
	pending := f.seed(t, uploader, "Contract", "c.pdf", true, true)

	res, err := f.svc.Bulk(context.Background(), supplier, testProject, types.BulkDownload,
		[]string{public, hidden, pending}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 2, res.Skipped)
	require.Contains(t, res.URLs, public)
	assert.Contains(t, res.URLs[public], f.meta.get(public).StoragePath)

	// 下载不修改任何数据
	assert.Equal(t, 3, f.blobs.count())
}
