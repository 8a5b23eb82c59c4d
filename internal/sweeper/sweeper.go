// Package sweeper runs the time-driven pass that expires stale publish
// requests and activates or expires announcements. Every mutation goes
// through the workflow engine, so a sweep that races another instance (or a
// moderator) skips records instead of double-transitioning them.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuslink/moderation-backend/internal/models"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Result accounts one sweep pass over one kind. Skipped counts records
// another writer beat us to; Failed counts real errors, which never abort
// the pass.
type Result struct {
	Kind         workflow.Kind `json:"kind"`
	Scanned      int           `json:"scanned"`
	Transitioned int           `json:"transitioned"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	DryRun       bool          `json:"dry_run"`
}

type Sweeper struct {
	db     *gorm.DB
	engine *workflow.Engine
	ttl    time.Duration
}

// New builds a sweeper. ttl is the pending lifetime for publish requests
// without an explicit expires_at.
func New(db *gorm.DB, engine *workflow.Engine, ttl time.Duration) *Sweeper {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Sweeper{db: db, engine: engine, ttl: ttl}
}

// Run sweeps every kind. Individual record failures are logged and counted;
// only listing failures (store down) surface as an error.
func (s *Sweeper) Run(ctx context.Context, now time.Time, dryRun bool) ([]Result, error) {
	results := make([]Result, 0, 2)
	for _, kind := range []workflow.Kind{workflow.KindPublicPostRequest, workflow.KindAnnouncement} {
		res, err := s.RunKind(ctx, kind, now, dryRun)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// RunKind sweeps a single kind. Reports have no time-driven transitions, so
// sweeping them is a no-op with an empty result.
func (s *Sweeper) RunKind(ctx context.Context, kind workflow.Kind, now time.Time, dryRun bool) (*Result, error) {
	res := &Result{Kind: kind, DryRun: dryRun}
	switch kind {
	case workflow.KindPublicPostRequest:
		if err := s.expireRequests(ctx, now, res); err != nil {
			return res, err
		}
	case workflow.KindAnnouncement:
		if err := s.publishDueAnnouncements(ctx, now, res); err != nil {
			return res, err
		}
		if err := s.expireAnnouncements(ctx, now, res); err != nil {
			return res, err
		}
	case workflow.KindReport:
		// nothing time-driven
	default:
		return res, fmt.Errorf("%w: %s", workflow.ErrUnknownKind, kind)
	}
	return res, nil
}

// expireRequests moves pending publish requests past their deadline to
// expired so the queue never shows functionally dead records.
func (s *Sweeper) expireRequests(ctx context.Context, now time.Time, res *Result) error {
	cutoff := now.Add(-s.ttl)
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.PublicPostRequest{}).
		Where("status = ?", workflow.StatusPending).
		Where("created_at < ? OR (expires_at IS NOT NULL AND expires_at <= ?)", cutoff, now).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("list expirable requests: %w: %v", workflow.ErrStoreUnavailable, err)
	}
	s.transitionAll(ctx, workflow.KindPublicPostRequest, ids, workflow.StatusExpired, "request expired unreviewed", res)
	return nil
}

// publishDueAnnouncements activates scheduled announcements whose time has
// come.
func (s *Sweeper) publishDueAnnouncements(ctx context.Context, now time.Time, res *Result) error {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Announcement{}).
		Where("status = ?", workflow.StatusScheduled).
		Where("scheduled_for IS NOT NULL AND scheduled_for <= ?", now).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("list due announcements: %w: %v", workflow.ErrStoreUnavailable, err)
	}
	s.transitionAll(ctx, workflow.KindAnnouncement, ids, workflow.StatusPublished, "scheduled publication", res)
	return nil
}

// expireAnnouncements retires published announcements past expires_at.
func (s *Sweeper) expireAnnouncements(ctx context.Context, now time.Time, res *Result) error {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Announcement{}).
		Where("status = ?", workflow.StatusPublished).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("list expired announcements: %w: %v", workflow.ErrStoreUnavailable, err)
	}
	s.transitionAll(ctx, workflow.KindAnnouncement, ids, workflow.StatusExpired, "announcement expired", res)
	return nil
}

func (s *Sweeper) transitionAll(ctx context.Context, kind workflow.Kind, ids []uuid.UUID, target workflow.Status, reason string, res *Result) {
	res.Scanned += len(ids)
	for _, id := range ids {
		if res.DryRun {
			res.Transitioned++
			continue
		}
		_, err := s.engine.Transition(ctx, kind, id, target, workflow.SystemActor(), workflow.Note{Reason: reason})
		switch {
		case err == nil:
			res.Transitioned++
		case workflow.IsBusinessError(err) || errors.Is(err, workflow.ErrConflict):
			// Another sweep instance or a moderator got there first. Nothing
			// to do, distinct from a real failure.
			res.Skipped++
		default:
			res.Failed++
			slog.Error("sweep transition failed",
				"kind", string(kind),
				"entity_id", id.String(),
				"target", string(target),
				"error", err.Error(),
			)
		}
	}
}
