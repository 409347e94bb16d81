package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/types"
	"github.com/yeisme/docflow/pkg/internal/visibility"
	"github.com/yeisme/docflow/pkg/metrics"
	"github.com/yeisme/docflow/pkg/tracing"
)

// Bulk 对选中的文档执行批量动作.
//
// 只有空选择或未知动作会整体返回错误；复核动作还要求 actor 具备复核权限.
// 每个文档独立处理，失败汇总在 Failures 中.
// review 只处理待复核且类型需要复核的文档，没有符合条件的文档时 NothingToDo 为 true.
// delete 跳过 actor 无权删除的文档并计入 Skipped.
func (s *DocumentService) Bulk(ctx context.Context, actor identity.Actor, projectID string,
	action types.BulkAction, ids []string, comments string,
) (res *types.BulkResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "document.bulk_"+string(action))
	defer func() { tracing.End(span, err) }()

	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, NewValidationError("ids", "selection is empty")
	}

	switch action {
	case types.BulkDownload, types.BulkDelete:
	case types.BulkReview:
		if err = requireReviewer(actor, ActionReview); err != nil {
			return nil, err
		}
	default:
		return nil, NewValidationError("action", fmt.Sprintf("unknown bulk action %q", action))
	}

	all, err := s.meta.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.Document, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}

	res = &types.BulkResult{Action: action, Failures: []types.BulkFailure{}}
	eligible := make([]*model.Document, 0, len(ids))

	for _, id := range ids {
		doc, ok := byID[id]
		if !ok {
			res.Failures = append(res.Failures, types.BulkFailure{ID: id, Error: (&NotFoundError{ID: id}).Error()})
			continue
		}

		switch action {
		case types.BulkReview:
			if !doc.NeedsReview() || !s.policy.RequiresReview(doc.Type) {
				continue
			}
		case types.BulkDelete:
			if !actor.CanModify(doc.UploadedByUserID) {
				res.Skipped++
				continue
			}
		case types.BulkDownload:
			if !visibility.CanAccess(doc, actor) {
				res.Skipped++
				continue
			}
		}

		eligible = append(eligible, doc)
	}

	if len(eligible) == 0 {
		res.NothingToDo = true
		return res, nil
	}

	if action == types.BulkDownload {
		res.URLs = make(map[string]string, len(eligible))
	}

	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(workerLimit(s.workflow.BulkConcurrency))

	for _, doc := range eligible {
		g.Go(func() error {
			url, itemErr := s.bulkItem(ctx, actor, projectID, action, doc, comments)
			metrics.BulkItems.WithLabelValues(string(action), metrics.Result(itemErr)).Inc()

			mu.Lock()
			defer mu.Unlock()

			if itemErr != nil {
				res.Failures = append(res.Failures, types.BulkFailure{ID: doc.ID, Error: itemErr.Error()})
				return nil
			}

			res.SuccessCount++
			if url != "" {
				res.URLs[doc.ID] = url
			}

			return nil
		})
	}

	_ = g.Wait()

	// 失败项按选择顺序输出
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}

	slices.SortFunc(res.Failures, func(a, b types.BulkFailure) int { return pos[a.ID] - pos[b.ID] })

	log := s.logger(ctx, projectID)
	log.Info().
		Str("action", string(action)).
		Str("actor", actor.ID).
		Int("success", res.SuccessCount).
		Int("failed", len(res.Failures)).
		Int("skipped", res.Skipped).
		Msg("bulk action finished")

	return res, nil
}

func (s *DocumentService) bulkItem(ctx context.Context, actor identity.Actor, projectID string,
	action types.BulkAction, doc *model.Document, comments string,
) (string, error) {
	switch action {
	case types.BulkDownload:
		return s.blobs.SignedURL(ctx, doc.StoragePath, s.workflow.SignedURLTTL())
	case types.BulkReview:
		_, err := s.Review(ctx, actor, projectID, doc.ID, comments)
		return "", err
	case types.BulkDelete:
		return "", s.Delete(ctx, actor, projectID, doc.ID)
	}

	return "", fmt.Errorf("unsupported bulk action %q", action)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if id == "" {
			continue
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

// workerLimit 保证并发上限至少为 1.
func workerLimit(n int) int {
	return max(n, 1)
}
