package service

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/docflow/pkg/metrics"
	"github.com/yeisme/docflow/pkg/tracing"
)

// ReconcileReport 一次孤儿清理的结果.
type ReconcileReport struct {
	Scanned    int `json:"scanned"`
	Deleted    int `json:"deleted"`
	Referenced int `json:"referenced"` // 已被文档引用，只标记不删除
	Failed     int `json:"failed"`
}

// ReconcileOrphans 清理早于 grace 的孤儿 blob：仍被文档引用的只标记，其余删除 blob 后标记.
func (s *DocumentService) ReconcileOrphans(ctx context.Context, batch int, grace time.Duration) (rep ReconcileReport, err error) {
	ctx, span := tracing.StartSpan(ctx, "document.reconcile_orphans")
	defer func() { tracing.End(span, err) }()

	if s.orphans == nil {
		return rep, errors.New("orphan ledger not configured")
	}

	now := s.now()

	pending, err := s.orphans.PendingOrphans(ctx, now.Add(-grace), batch)
	if err != nil {
		return rep, err
	}

	var errs []error

	for _, o := range pending {
		rep.Scanned++

		referenced, e := s.orphans.PathReferenced(ctx, o.StoragePath)
		if e != nil {
			rep.Failed++
			errs = append(errs, e)

			continue
		}

		if referenced {
			rep.Referenced++
		} else {
			if e := s.blobs.Delete(ctx, o.StoragePath); e != nil {
				rep.Failed++
				errs = append(errs, e)

				continue
			}

			rep.Deleted++
			metrics.OrphansReconciled.Inc()
		}

		if e := s.orphans.MarkReconciled(ctx, o.ID, now); e != nil {
			rep.Failed++
			errs = append(errs, e)
		}
	}

	s.log.Info().
		Int("scanned", rep.Scanned).
		Int("deleted", rep.Deleted).
		Int("referenced", rep.Referenced).
		Int("failed", rep.Failed).
		Msg("orphan reconciliation finished")

	return rep, errors.Join(errs...)
}
