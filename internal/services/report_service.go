package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/models"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var reportContentTypes = map[string]bool{
	"user": true, "post": true, "comment": true, "club": true,
}

var reportPriorities = map[workflow.Priority]bool{
	workflow.PriorityLow:    true,
	workflow.PriorityMedium: true,
	workflow.PriorityHigh:   true,
	workflow.PriorityUrgent: true,
}

// ReportService owns report creation and the report projections. All status
// changes go through the workflow engine.
type ReportService struct {
	db     *gorm.DB
	engine *workflow.Engine
}

func NewReportService(db *gorm.DB, engine *workflow.Engine) *ReportService {
	return &ReportService{db: db, engine: engine}
}

func (s *ReportService) Create(ctx context.Context, reporterID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	if !reportContentTypes[req.ContentType] {
		return nil, errors.New("invalid content_type: must be user, post, comment, or club")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, errors.New("reason is required")
	}
	priority := workflow.Priority(req.Priority)
	if priority == "" {
		priority = workflow.PriorityMedium
	}
	if !reportPriorities[priority] {
		return nil, errors.New("invalid priority: must be low, medium, high, or urgent")
	}

	now := s.engine.Clock().Now().UTC()
	report := models.Report{
		ID:          uuid.New(),
		ReporterID:  reporterID,
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		Reason:      req.Reason,
		Description: req.Description,
		Category:    req.Category,
		Status:      workflow.StatusPending,
		Priority:    priority,
		History:     workflow.NewHistory(workflow.ActionSubmitted, reporterID, workflow.RoleMember, now),
		Version:     1,
	}

	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	sub, err := s.engine.Get(ctx, workflow.KindReport, id)
	if err != nil {
		return nil, err
	}
	return sub.(*models.Report), nil
}

// History returns the audit trail in insertion order.
func (s *ReportService) History(ctx context.Context, id uuid.UUID) ([]workflow.HistoryEntry, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return workflow.DecodeHistory(report.History)
}

func (s *ReportService) Assign(ctx context.Context, id, assigneeID uuid.UUID, actor workflow.Actor) (*models.Report, error) {
	sub, err := s.engine.Assign(ctx, workflow.KindReport, id, assigneeID, actor)
	if err != nil {
		return nil, err
	}
	return sub.(*models.Report), nil
}

// Transition applies any report lifecycle edge (resolve, dismiss, escalate)
// through the engine.
func (s *ReportService) Transition(ctx context.Context, id uuid.UUID, target workflow.Status, actor workflow.Actor, note workflow.Note) (*models.Report, error) {
	sub, err := s.engine.Transition(ctx, workflow.KindReport, id, target, actor, note)
	if err != nil {
		return nil, err
	}
	return sub.(*models.Report), nil
}

// ScheduleFollowUp flags the report for follow-up. Not a status change, but
// still guarded by the version column so it cannot clobber a concurrent
// transition.
func (s *ReportService) ScheduleFollowUp(ctx context.Context, id uuid.UUID, date time.Time) (*models.Report, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND version = ?", id, report.Version).
		Updates(map[string]interface{}{
			"requires_follow_up": true,
			"follow_up_date":     date,
			"version":            report.Version + 1,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("schedule follow-up: %w: %v", workflow.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("schedule follow-up for report %s: %w", id, workflow.ErrConflict)
	}
	return s.Get(ctx, id)
}

// Pending is the moderation queue: unclaimed reports, highest priority first,
// oldest first within a priority.
func (s *ReportService) Pending(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	err := queueOrder(s.db.WithContext(ctx).
		Where("status = ?", workflow.StatusPending)).
		Find(&reports).Error
	return reports, err
}

// Overdue filters the open reports through the SLA calculator. The SLA check
// runs in Go so it stays the same pure function the tests pin down.
func (s *ReportService) Overdue(ctx context.Context, now time.Time) ([]models.Report, error) {
	var open []models.Report
	err := queueOrder(s.db.WithContext(ctx).
		Where("status IN ?", workflow.NonTerminalStatuses(workflow.KindReport))).
		Find(&open).Error
	if err != nil {
		return nil, err
	}
	overdue := make([]models.Report, 0, len(open))
	for _, r := range open {
		if workflow.IsOverdue(workflow.KindReport, r.Priority, r.CreatedAt, now) {
			overdue = append(overdue, r)
		}
	}
	return overdue, nil
}

func (s *ReportService) RequiringFollowUp(ctx context.Context, now time.Time) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("requires_follow_up = ?", true).
		Where("follow_up_date <= ?", now).
		Where("status IN ?", workflow.NonTerminalStatuses(workflow.KindReport)).
		Order("follow_up_date ASC").
		Find(&reports).Error
	return reports, err
}

func (s *ReportService) ByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("assignee_id = ?", assigneeID).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}

func (s *ReportService) ByReporter(ctx context.Context, reporterID uuid.UUID) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("reporter_id = ?", reporterID).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}

func (s *ReportService) ByTarget(ctx context.Context, contentType, contentID string) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("content_type = ? AND content_id = ?", contentType, contentID).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}

// SearchFilters narrows a free-text search. Zero values mean "no filter".
type SearchFilters struct {
	Category string
	Priority workflow.Priority
	OwnerID  uuid.UUID
	Statuses []workflow.Status
	Tag      string
}

// Search matches the query as a case-insensitive substring of the report's
// free-text fields, AND-combined with the filters. No ranking.
func (s *ReportService) Search(ctx context.Context, query string, f SearchFilters) ([]models.Report, error) {
	q := s.db.WithContext(ctx).Model(&models.Report{})
	if query != "" {
		pattern := likePattern(query)
		q = q.Where("LOWER(reason) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.OwnerID != uuid.Nil {
		q = q.Where("reporter_id = ?", f.OwnerID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	var reports []models.Report
	err := q.Order("created_at DESC").Find(&reports).Error
	return reports, err
}
