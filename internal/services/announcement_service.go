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

var announcementPriorities = map[workflow.Priority]bool{
	workflow.PriorityLow:    true,
	workflow.PriorityNormal: true,
	workflow.PriorityHigh:   true,
	workflow.PriorityUrgent: true,
}

var announcementAudiences = func() map[string]bool {
	m := make(map[string]bool, len(models.AnnouncementAudiences))
	for _, a := range models.AnnouncementAudiences {
		m[a] = true
	}
	return m
}()

// AnnouncementService owns announcement drafting, scheduling and archival.
type AnnouncementService struct {
	db     *gorm.DB
	engine *workflow.Engine
	filter *ContentFilter
}

func NewAnnouncementService(db *gorm.DB, engine *workflow.Engine, filter *ContentFilter) *AnnouncementService {
	return &AnnouncementService{db: db, engine: engine, filter: filter}
}

// Create stores a new draft. Publication and scheduling are separate
// transitions so every lifecycle change lands in the history log.
func (s *AnnouncementService) Create(ctx context.Context, authorID uuid.UUID, req *dto.CreateAnnouncementRequest) (*models.Announcement, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, errors.New("title and content are required")
	}
	audience := req.Audience
	if audience == "" {
		audience = "all"
	}
	if !announcementAudiences[audience] {
		return nil, errors.New("invalid audience: must be all, students, staff, or clubs")
	}
	priority := workflow.Priority(req.Priority)
	if priority == "" {
		priority = workflow.PriorityNormal
	}
	if !announcementPriorities[priority] {
		return nil, errors.New("invalid priority: must be low, normal, high, or urgent")
	}
	if ok, reason := s.filter.Check(req.Title + "\n" + req.Content); !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentRejected, s.filter.RejectionMessage(reason))
	}

	now := s.engine.Clock().Now().UTC()
	announcement := models.Announcement{
		ID:               uuid.New(),
		AuthorID:         authorID,
		Title:            req.Title,
		Content:          req.Content,
		Category:         req.Category,
		Audience:         audience,
		Status:           workflow.StatusDraft,
		Priority:         priority,
		IsPinned:         req.IsPinned,
		ScheduledFor:     req.ScheduledFor,
		ExpiresAt:        req.ExpiresAt,
		RequiresFollowUp: req.RequiresFollowUp,
		FollowUpDate:     req.FollowUpDate,
		History:          workflow.NewHistory(workflow.ActionCreated, authorID, workflow.RoleAdmin, now),
		Version:          1,
	}

	if err := s.db.WithContext(ctx).Create(&announcement).Error; err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}
	return &announcement, nil
}

func (s *AnnouncementService) Get(ctx context.Context, id uuid.UUID) (*models.Announcement, error) {
	sub, err := s.engine.Get(ctx, workflow.KindAnnouncement, id)
	if err != nil {
		return nil, err
	}
	return sub.(*models.Announcement), nil
}

func (s *AnnouncementService) History(ctx context.Context, id uuid.UUID) ([]workflow.HistoryEntry, error) {
	announcement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return workflow.DecodeHistory(announcement.History)
}

// Publish makes the announcement live immediately.
func (s *AnnouncementService) Publish(ctx context.Context, id uuid.UUID, actor workflow.Actor, note workflow.Note) (*models.Announcement, error) {
	return s.transition(ctx, id, workflow.StatusPublished, actor, note)
}

// Schedule queues a draft for the sweeper to publish at scheduledFor. The
// target time commits in the same guarded update as the status change, so a
// rejected transition (archived, already published, wrong role) never touches
// the record.
func (s *AnnouncementService) Schedule(ctx context.Context, id uuid.UUID, scheduledFor time.Time, actor workflow.Actor) (*models.Announcement, error) {
	sub, err := s.engine.TransitionWith(ctx, workflow.KindAnnouncement, id, workflow.StatusScheduled, actor, workflow.Note{},
		map[string]any{"scheduled_for": scheduledFor})
	if err != nil {
		return nil, err
	}
	return sub.(*models.Announcement), nil
}

// Archive retires the announcement from any non-terminal state.
func (s *AnnouncementService) Archive(ctx context.Context, id uuid.UUID, actor workflow.Actor, note workflow.Note) (*models.Announcement, error) {
	return s.transition(ctx, id, workflow.StatusArchived, actor, note)
}

func (s *AnnouncementService) transition(ctx context.Context, id uuid.UUID, target workflow.Status, actor workflow.Actor, note workflow.Note) (*models.Announcement, error) {
	sub, err := s.engine.Transition(ctx, workflow.KindAnnouncement, id, target, actor, note)
	if err != nil {
		return nil, err
	}
	return sub.(*models.Announcement), nil
}

// Active lists what the feed shows: published announcements that have not
// expired, pinned first, then by priority and recency.
func (s *AnnouncementService) Active(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	var announcements []models.Announcement
	err := s.db.WithContext(ctx).
		Where("status = ?", workflow.StatusPublished).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("is_pinned DESC").
		Order(priorityOrder).
		Order("published_at DESC").
		Find(&announcements).Error
	return announcements, err
}

func (s *AnnouncementService) Drafts(ctx context.Context) ([]models.Announcement, error) {
	var announcements []models.Announcement
	err := s.db.WithContext(ctx).
		Where("status IN ?", []workflow.Status{workflow.StatusDraft, workflow.StatusScheduled}).
		Order("created_at DESC").
		Find(&announcements).Error
	return announcements, err
}

func (s *AnnouncementService) RequiringFollowUp(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	var announcements []models.Announcement
	err := s.db.WithContext(ctx).
		Where("requires_follow_up = ?", true).
		Where("follow_up_date <= ?", now).
		Where("status IN ?", workflow.NonTerminalStatuses(workflow.KindAnnouncement)).
		Order("follow_up_date ASC").
		Find(&announcements).Error
	return announcements, err
}

func (s *AnnouncementService) ByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Announcement, error) {
	var announcements []models.Announcement
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&announcements).Error
	return announcements, err
}

// Search over title/content. Member-facing callers pass
// Statuses=[published]; admin callers pass none to search drafts too.
func (s *AnnouncementService) Search(ctx context.Context, query string, f SearchFilters) ([]models.Announcement, error) {
	q := s.db.WithContext(ctx).Model(&models.Announcement{})
	if query != "" {
		pattern := likePattern(query)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.OwnerID != uuid.Nil {
		q = q.Where("author_id = ?", f.OwnerID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	var announcements []models.Announcement
	err := q.Order("created_at DESC").Find(&announcements).Error
	return announcements, err
}
