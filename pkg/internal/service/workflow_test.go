package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/policy"
	"github.com/yeisme/docflow/pkg/internal/types"
)

func ptr[T any](v T) *T { return &v }

func TestApprovePendingDocument(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Contract", "contract.pdf", false, false)

	doc, err := f.svc.Approve(context.Background(), reviewer, testProject, id, policy.LevelNone, model.VisibilityPublic)
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalApproved, doc.ApprovalStatus)
	assert.Equal(t, model.StageApproved, doc.WorkflowStage)
	assert.Equal(t, model.VisibilityPublic, doc.VisibilityLevel)
	assert.Equal(t, reviewer.ID, *doc.ApprovedByUserID)
	assert.Equal(t, int(policy.LevelReviewer), doc.ApprovalLevel)

	stored := f.meta.get(id)
	assert.Equal(t, model.ApprovalApproved, stored.ApprovalStatus)
}

func TestApproveTwiceIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Contract", "contract.pdf", false, false)

	_, err := f.svc.Approve(context.Background(), reviewer, testProject, id, policy.LevelNone, model.VisibilityInternal)
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), reviewer, testProject, id, policy.LevelNone, model.VisibilityPublic)

	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, string(model.ApprovalApproved), terr.From)
	assert.Equal(t, model.VisibilityInternal, f.meta.get(id).VisibilityLevel, "failed approve must not mutate")
}

func TestApproveAuthorization(t *testing.T) {
	f := newFixture(t)
	contract := f.seed(t, uploader, "Contract", "contract.pdf", false, false)
	permit := f.seed(t, uploader, "Permit", "permit.pdf", false, false)

	_, err := f.svc.Approve(context.Background(), uploader, testProject, contract, policy.LevelNone, model.VisibilityPublic)
	assert.ErrorIs(t, err, ErrAuthorization, "members cannot approve")

	_, err = f.svc.Approve(context.Background(), reviewer, testProject, permit, policy.LevelNone, model.VisibilityPublic)
	assert.ErrorIs(t, err, ErrAuthorization, "permit requires admin level")

	_, err = f.svc.Approve(context.Background(), reviewer, testProject, contract, policy.LevelAdmin, model.VisibilityPublic)
	assert.ErrorIs(t, err, ErrAuthorization, "reviewer cannot claim admin level")

	doc, err := f.svc.Approve(context.Background(), admin, testProject, permit, policy.LevelAdmin, model.VisibilityContractors)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, doc.ApprovalStatus)

	assert.True(t, f.meta.get(contract).IsPending())
}

func TestApproveValidationBeforeLookup(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), reviewer, testProject, "missing", policy.LevelNone, "everyone")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Approve(context.Background(), reviewer, testProject, "missing", policy.LevelNone, model.VisibilityPublic)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveNonPendingTypes(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Photo", "site.png", true, false)

	_, err := f.svc.Approve(context.Background(), admin, testProject, id, policy.LevelNone, model.VisibilityPublic)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectKeepsInternal(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Contract", "contract.pdf", true, true)

	_, err := f.svc.Reject(context.Background(), reviewer, testProject, id, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	doc, err := f.svc.Reject(context.Background(), reviewer, testProject, id, "missing signature page")
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalRejected, doc.ApprovalStatus)
	assert.Equal(t, model.StageRejected, doc.WorkflowStage)
	assert.Equal(t, model.VisibilityInternal, doc.VisibilityLevel)
	assert.Equal(t, "missing signature page", doc.RejectionReason)

	_, err = f.svc.Approve(context.Background(), reviewer, testProject, id, policy.LevelNone, model.VisibilityPublic)
	assert.ErrorIs(t, err, ErrInvalidTransition, "rejected never returns to pending")
}

func TestReviewDoesNotTouchApprovalOrVisibility(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Inspection Report", "inspection.pdf", false, true)
	before := f.meta.get(id)

	_, err := f.svc.Review(context.Background(), uploader, testProject, id, "")
	assert.ErrorIs(t, err, ErrAuthorization)

	doc, err := f.svc.Review(context.Background(), reviewer, testProject, id, " looks fine ")
	require.NoError(t, err)

	assert.Equal(t, model.ReviewReviewed, doc.Review())
	assert.Equal(t, "looks fine", doc.ReviewComments)
	assert.Equal(t, before.ApprovalStatus, doc.ApprovalStatus)
	assert.Equal(t, before.VisibilityLevel, doc.VisibilityLevel)

	_, err = f.svc.Review(context.Background(), reviewer, testProject, id, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewWithoutReviewTrack(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Photo", "site.png", false, false)

	_, err := f.svc.Review(context.Background(), reviewer, testProject, id, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEditRenameKeepsExtension(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Photo", "report.pdf", false, false)

	doc, err := f.svc.Edit(context.Background(), uploader, testProject, id, types.EditDocumentRequest{
		Name: ptr("final-report"),
		Note: ptr("signed copy"),
	})
	require.NoError(t, err)

	assert.Equal(t, "final-report.pdf", doc.Name)
	assert.Equal(t, "signed copy", doc.Note)
	assert.Equal(t, "final-report.pdf", f.meta.get(id).Name)
}

func TestRenameKeepingExtension(t *testing.T) {
	cases := map[[2]string]string{
		{"report.pdf", "final-report"}:     "final-report.pdf",
		{"report.pdf", "final-report.pdf"}: "final-report.pdf",
		{"report.PDF", "final.pdf"}:        "final.pdf",
		{"README", "notes"}:                "notes",
		{"a.tar.gz", "b"}:                  "b.gz",
	}

	for in, want := range cases {
		assert.Equal(t, want, RenameKeepingExtension(in[0], in[1]), in)
	}
}

func TestEditAuthorizationAndPendingVisibility(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Contract", "contract.pdf", false, false)

	_, err := f.svc.Edit(context.Background(), other, testProject, id, types.EditDocumentRequest{Note: ptr("x")})
	assert.ErrorIs(t, err, ErrAuthorization)

	_, err = f.svc.Edit(context.Background(), uploader, testProject, id, types.EditDocumentRequest{Visibility: ptr("public")})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.VisibilityInternal, f.meta.get(id).VisibilityLevel)

	// 待审批文档不能改成无需审批的类型
	_, err = f.svc.Edit(context.Background(), admin, testProject, id, types.EditDocumentRequest{Type: ptr("Photo")})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "Contract", f.meta.get(id).Type)

	// 管理员可编辑任何文档，但编辑不改变审批状态
	doc, err := f.svc.Edit(context.Background(), admin, testProject, id, types.EditDocumentRequest{Type: ptr("Permit")})
	require.NoError(t, err)
	assert.Equal(t, "Permit", doc.Type)
	assert.True(t, doc.IsPending())
}

func TestEditTypeOfRejectedDocument(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Contract", "contract.pdf", false, false)

	_, err := f.svc.Reject(context.Background(), reviewer, testProject, id, "unsigned")
	require.NoError(t, err)

	_, err = f.svc.Edit(context.Background(), uploader, testProject, id, types.EditDocumentRequest{Type: ptr("Inspection Report")})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// 通过审批后类型不再受限
	approved := f.seed(t, uploader, "Contract", "signed.pdf", false, false)
	_, err = f.svc.Approve(context.Background(), reviewer, testProject, approved, policy.LevelNone, model.VisibilityInternal)
	require.NoError(t, err)

	doc, err := f.svc.Edit(context.Background(), uploader, testProject, approved, types.EditDocumentRequest{Type: ptr("Photo")})
	require.NoError(t, err)
	assert.Equal(t, "Photo", doc.Type)
	assert.Equal(t, model.ApprovalApproved, doc.ApprovalStatus)
}

func TestEditVisibilityAfterApproval(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Photo", "site.png", false, false)

	doc, err := f.svc.Edit(context.Background(), uploader, testProject, id, types.EditDocumentRequest{Visibility: ptr("customers")})
	require.NoError(t, err)
	assert.Equal(t, model.VisibilityCustomers, doc.VisibilityLevel)

	_, err = f.svc.Edit(context.Background(), uploader, testProject, id, types.EditDocumentRequest{Visibility: ptr("everyone")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteRemovesMetadataThenBlob(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Photo", "site.png", false, false)
	path := f.meta.get(id).StoragePath

	err := f.svc.Delete(context.Background(), other, testProject, id)
	assert.ErrorIs(t, err, ErrAuthorization)
	assert.True(t, f.blobs.has(path))

	require.NoError(t, f.svc.Delete(context.Background(), uploader, testProject, id))
	assert.Nil(t, f.meta.get(id))
	assert.False(t, f.blobs.has(path))

	err = f.svc.Delete(context.Background(), uploader, testProject, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBlobFailureRecordsOrphan(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Photo", "site.png", false, false)
	f.blobs.failDel = true

	require.NoError(t, f.svc.Delete(context.Background(), admin, testProject, id))
	assert.Nil(t, f.meta.get(id))
	require.Len(t, f.meta.orphans, 1)
}

func TestPendingDocumentsStayInternal(t *testing.T) {
	f := newFixture(t)
	pending := f.seed(t, uploader, "Contract", "contract.pdf", true, true)
	public := f.seed(t, uploader, "Photo", "site.png", true, true)

	docs, err := f.svc.ListProject(context.Background(), supplier, testProject)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, public, docs[0].ID)

	_, err = f.svc.Get(context.Background(), supplier, testProject, pending)
	assert.ErrorIs(t, err, ErrAuthorization)

	for _, d := range mustList(t, f, reviewer) {
		if d.IsPending() {
			assert.Equal(t, model.VisibilityInternal, d.VisibilityLevel)
		}
	}
}

func TestSignedURLRespectsVisibility(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, uploader, "Photo", "site.png", false, true)

	_, err := f.svc.SignedURL(context.Background(), supplier, testProject, id)
	assert.ErrorIs(t, err, ErrAuthorization)

	res, err := f.svc.SignedURL(context.Background(), uploader, testProject, id)
	require.NoError(t, err)
	assert.Contains(t, res.URL, f.meta.get(id).StoragePath)
	assert.Equal(t, id, res.DocumentID)
}

func mustList(t *testing.T, f *fixture, actor identity.Actor) []*model.Document {
	t.Helper()

	docs, err := f.svc.ListProject(context.Background(), actor, testProject)
	require.NoError(t, err)

	return docs
}
