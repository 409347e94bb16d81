package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/policy"
	"github.com/yeisme/docflow/pkg/internal/types"
	"github.com/yeisme/docflow/pkg/metrics"
	"github.com/yeisme/docflow/pkg/queue"
	"github.com/yeisme/docflow/pkg/tracing"
)

// 工作流动作名，用于指标、日志与错误.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionReview  = "review"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
)

// mutate 读取文档，在副本上执行 fn（校验与修改），成功后整行写回.
// fn 返回错误时不会写入任何数据.
func (s *DocumentService) mutate(ctx context.Context, action string, actor identity.Actor, projectID, id string,
	fn func(doc *model.Document) error,
) (doc *model.Document, err error) {
	ctx, span := tracing.StartSpan(ctx, "document."+action)

	defer func() {
		tracing.End(span, err)
		metrics.WorkflowTransitions.WithLabelValues(action, metrics.Result(err)).Inc()

		log := s.logger(ctx, projectID)

		var ev *zerolog.Event
		if err != nil {
			ev = log.Warn().Err(err)
		} else {
			ev = log.Info()
		}

		ev.Str("action", action).Str("document_id", id).Str("actor", actor.ID).Msg("workflow action")
	}()

	current, err := s.meta.Get(ctx, projectID, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err = fn(next); err != nil {
		return nil, err
	}

	if err = s.meta.Update(ctx, next); err != nil {
		return nil, err
	}

	s.invalidate(ctx, projectID)

	return next, nil
}

func requireReviewer(actor identity.Actor, action string) error {
	if !actor.CanReview() {
		return &AuthorizationError{ActorID: actor.ID, Action: action, Reason: "reviewer or admin role required"}
	}

	return nil
}

// Approve 审批待审批文档，同时设置可见性.
// level 为 0 时按 actor 自身的审批级别处理；actor 级别需不低于类型要求的级别.
func (s *DocumentService) Approve(ctx context.Context, actor identity.Actor, projectID, id string,
	level policy.Level, vis model.VisibilityLevel,
) (*model.Document, error) {
	if !vis.Valid() {
		return nil, NewValidationError("visibility", fmt.Sprintf("unknown visibility level %q", vis))
	}

	if !level.Valid() {
		return nil, NewValidationError("level", fmt.Sprintf("unknown approval level %d", level))
	}

	doc, err := s.mutate(ctx, ActionApprove, actor, projectID, id, func(doc *model.Document) error {
		if err := requireReviewer(actor, ActionApprove); err != nil {
			return err
		}

		actorLevel := policy.Level(actor.Role.ApprovalLevel())
		required := s.policy.RequiredApprovalLevel(doc.Type)

		effective := level
		if effective == policy.LevelNone {
			effective = actorLevel
		}

		if effective > actorLevel || actorLevel < required {
			return &AuthorizationError{
				ActorID: actor.ID,
				Action:  ActionApprove,
				Reason:  fmt.Sprintf("approval level %d required, actor has %d", max(required, effective), actorLevel),
			}
		}

		if effective < required {
			return NewValidationError("level", fmt.Sprintf("level %d below required %d", effective, required))
		}

		if !doc.IsPending() {
			return &InvalidTransitionError{DocumentID: doc.ID, Action: ActionApprove, From: string(doc.ApprovalStatus)}
		}

		now := s.now()
		doc.ApprovalStatus = model.ApprovalApproved
		doc.WorkflowStage = model.StageApproved
		doc.VisibilityLevel = vis
		doc.ApprovedByUserID = &actor.ID
		doc.ApprovedAt = &now
		doc.ApprovalLevel = int(effective)

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.DocumentEvent(ctx, queue.TopicDocumentApproved, doc, actor.ID, "")

	return doc, nil
}

// Reject 驳回待审批文档，原因必填；驳回后保持内部可见.
func (s *DocumentService) Reject(ctx context.Context, actor identity.Actor, projectID, id, reason string) (*model.Document, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewValidationError("reason", "required")
	}

	doc, err := s.mutate(ctx, ActionReject, actor, projectID, id, func(doc *model.Document) error {
		if err := requireReviewer(actor, ActionReject); err != nil {
			return err
		}

		if required := s.policy.RequiredApprovalLevel(doc.Type); actor.Role.ApprovalLevel() < int(required) {
			return &AuthorizationError{
				ActorID: actor.ID,
				Action:  ActionReject,
				Reason:  fmt.Sprintf("approval level %d required", required),
			}
		}

		if !doc.IsPending() {
			return &InvalidTransitionError{DocumentID: doc.ID, Action: ActionReject, From: string(doc.ApprovalStatus)}
		}

		now := s.now()
		doc.ApprovalStatus = model.ApprovalRejected
		doc.WorkflowStage = model.StageRejected
		doc.VisibilityLevel = model.VisibilityInternal
		doc.RejectionReason = reason
		doc.RejectedByUserID = &actor.ID
		doc.RejectedAt = &now

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.DocumentEvent(ctx, queue.TopicDocumentRejected, doc, actor.ID, reason)

	return doc, nil
}

// Review 标记文档已复核，不影响审批状态与可见性.
func (s *DocumentService) Review(ctx context.Context, actor identity.Actor, projectID, id, comments string) (*model.Document, error) {
	doc, err := s.mutate(ctx, ActionReview, actor, projectID, id, func(doc *model.Document) error {
		if err := requireReviewer(actor, ActionReview); err != nil {
			return err
		}

		if !doc.NeedsReview() {
			from := string(doc.Review())
			if from == "" {
				from = "review not required"
			}

			return &InvalidTransitionError{DocumentID: doc.ID, Action: ActionReview, From: from}
		}

		now := s.now()
		doc.ReviewStatus = model.ReviewReviewed.Ptr()
		doc.ReviewComments = strings.TrimSpace(comments)
		doc.ReviewedByUserID = &actor.ID
		doc.ReviewedAt = &now

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.DocumentEvent(ctx, queue.TopicDocumentReviewed, doc, actor.ID, doc.ReviewComments)

	return doc, nil
}

// Edit 修改名称、类型、备注或可见性，仅上传者与管理员可用.
// 名称只替换基础名，原扩展名保留；待审批与已驳回的文档不能修改可见性.
func (s *DocumentService) Edit(ctx context.Context, actor identity.Actor, projectID, id string,
	req types.EditDocumentRequest,
) (*model.Document, error) {
	verr := &ValidationError{}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		verr.Add("name", "must not be empty")
	}

	if req.Type != nil && strings.TrimSpace(*req.Type) == "" {
		verr.Add("type", "must not be empty")
	}

	if req.Visibility != nil && !model.VisibilityLevel(*req.Visibility).Valid() {
		verr.Add("visibility", fmt.Sprintf("unknown visibility level %q", *req.Visibility))
	}

	if !verr.Empty() {
		return nil, verr
	}

	var changes []string

	doc, err := s.mutate(ctx, ActionEdit, actor, projectID, id, func(doc *model.Document) error {
		if !actor.CanModify(doc.UploadedByUserID) {
			return &AuthorizationError{ActorID: actor.ID, Action: ActionEdit, Reason: "only the uploader or an admin may edit"}
		}

		if req.Visibility != nil {
			vis := model.VisibilityLevel(*req.Visibility)
			if vis != doc.VisibilityLevel {
				if doc.ApprovalStatus == model.ApprovalPending || doc.ApprovalStatus == model.ApprovalRejected {
					return &InvalidTransitionError{DocumentID: doc.ID, Action: "change visibility", From: string(doc.ApprovalStatus)}
				}

				doc.VisibilityLevel = vis
				changes = append(changes, "visibility")
			}
		}

		if req.Name != nil {
			if name := RenameKeepingExtension(doc.Name, *req.Name); name != doc.Name {
				doc.Name = name
				changes = append(changes, "name")
			}
		}

		if req.Type != nil {
			if t := strings.TrimSpace(*req.Type); t != doc.Type {
				// 待审批与已驳回状态只属于需要审批的类型
				if (doc.ApprovalStatus == model.ApprovalPending || doc.ApprovalStatus == model.ApprovalRejected) &&
					!s.policy.RequiresApproval(t) {
					return &InvalidTransitionError{DocumentID: doc.ID, Action: "change type", From: string(doc.ApprovalStatus)}
				}

				doc.Type = t
				changes = append(changes, "type")
			}
		}

		if req.Note != nil && *req.Note != doc.Note {
			doc.Note = *req.Note
			changes = append(changes, "note")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.events.DocumentEvent(ctx, queue.TopicDocumentUpdated, doc, actor.ID, "", changes...)
	}

	return doc, nil
}

// RenameKeepingExtension 用新的基础名替换显示名并保留原扩展名.
//
//	RenameKeepingExtension("report.pdf", "final-report")     // "final-report.pdf"
//	RenameKeepingExtension("report.pdf", "final-report.pdf") // "final-report.pdf"
func RenameKeepingExtension(current, base string) string {
	base = strings.TrimSpace(base)
	ext := filepath.Ext(current)

	if ext == "" || strings.EqualFold(filepath.Ext(base), ext) {
		return base
	}

	return base + ext
}

// Delete 删除文档：先删元数据行，再删 blob；blob 删除失败时记为孤儿.
func (s *DocumentService) Delete(ctx context.Context, actor identity.Actor, projectID, id string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "document."+ActionDelete)

	defer func() {
		tracing.End(span, err)
		metrics.WorkflowTransitions.WithLabelValues(ActionDelete, metrics.Result(err)).Inc()
	}()

	doc, err := s.meta.Get(ctx, projectID, id)
	if err != nil {
		return err
	}

	if !actor.CanModify(doc.UploadedByUserID) {
		return &AuthorizationError{ActorID: actor.ID, Action: ActionDelete, Reason: "only the uploader or an admin may delete"}
	}

	if err = s.meta.Delete(ctx, projectID, id); err != nil {
		return err
	}

	s.invalidate(ctx, projectID)

	if blobErr := s.blobs.Delete(ctx, doc.StoragePath); blobErr != nil {
		s.recordOrphan(ctx, projectID, doc.StoragePath, blobErr)
	}

	log := s.logger(ctx, projectID)
	log.Info().
		Str("action", ActionDelete).
		Str("document_id", id).
		Str("actor", actor.ID).
		Msg("document deleted")

	s.events.DocumentEvent(ctx, queue.TopicDocumentDeleted, doc, actor.ID, "")

	return nil
}
