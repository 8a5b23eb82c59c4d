package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campuslink/moderation-backend/internal/config"
	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/models"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrContentRejected wraps a content-filter rejection; the message is safe to
// show to the submitting user.
var ErrContentRejected = errors.New("content rejected")

// RequestService owns publish-request creation, review actions and the
// request projections. Approval chains the publishing sink and records the
// back-reference through the engine.
type RequestService struct {
	db        *gorm.DB
	engine    *workflow.Engine
	filter    *ContentFilter
	publisher Publisher
	ttl       time.Duration
}

func NewRequestService(db *gorm.DB, engine *workflow.Engine, filter *ContentFilter, publisher Publisher, cfg *config.Config) *RequestService {
	ttl := cfg.RequestTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RequestService{db: db, engine: engine, filter: filter, publisher: publisher, ttl: ttl}
}

func (s *RequestService) Create(ctx context.Context, requesterID uuid.UUID, req *dto.CreatePublishRequest) (*models.PublicPostRequest, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, errors.New("title and content are required")
	}
	if req.ClubID == uuid.Nil {
		return nil, errors.New("club_id is required")
	}
	priority := workflow.Priority(req.Priority)
	if priority == "" {
		priority = workflow.PriorityMedium
	}
	if !reportPriorities[priority] {
		return nil, errors.New("invalid priority: must be low, medium, high, or urgent")
	}
	if ok, reason := s.filter.Check(req.Title + "\n" + req.Content); !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentRejected, s.filter.RejectionMessage(reason))
	}

	now := s.engine.Clock().Now().UTC()
	expiresAt := now.Add(s.ttl)
	request := models.PublicPostRequest{
		ID:           uuid.New(),
		RequesterID:  requesterID,
		ClubID:       req.ClubID,
		Title:        req.Title,
		Content:      req.Content,
		Category:     req.Category,
		Tags:         encodeTags(req.Tags),
		Status:       workflow.StatusPending,
		Priority:     priority,
		ScheduledFor: req.ScheduledFor,
		ExpiresAt:    &expiresAt,
		History:      workflow.NewHistory(workflow.ActionSubmitted, requesterID, workflow.RoleMember, now),
		Version:      1,
	}

	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create publish request: %w", err)
	}
	return &request, nil
}

func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (*models.PublicPostRequest, error) {
	sub, err := s.engine.Get(ctx, workflow.KindPublicPostRequest, id)
	if err != nil {
		return nil, err
	}
	return sub.(*models.PublicPostRequest), nil
}

func (s *RequestService) History(ctx context.Context, id uuid.UUID) ([]workflow.HistoryEntry, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return workflow.DecodeHistory(request.History)
}

func (s *RequestService) Assign(ctx context.Context, id, assigneeID uuid.UUID, actor workflow.Actor) (*models.PublicPostRequest, error) {
	sub, err := s.engine.Assign(ctx, workflow.KindPublicPostRequest, id, assigneeID, actor)
	if err != nil {
		return nil, err
	}
	return sub.(*models.PublicPostRequest), nil
}

// Approve transitions the request to approved, then asks the publishing sink
// to materialize the feed post and records the back-reference. A sink failure
// after the approval committed is returned to the caller; the approval itself
// stands and the link can be retried.
func (s *RequestService) Approve(ctx context.Context, id uuid.UUID, actor workflow.Actor, note workflow.Note) (*models.PublicPostRequest, error) {
	sub, err := s.engine.Transition(ctx, workflow.KindPublicPostRequest, id, workflow.StatusApproved, actor, note)
	if err != nil {
		return nil, err
	}
	request := sub.(*models.PublicPostRequest)

	postID, err := s.publisher.Publish(ctx, request)
	if err != nil {
		return request, fmt.Errorf("request approved but publishing failed: %w", err)
	}
	linked, err := s.engine.LinkApprovedPost(ctx, id, postID, actor)
	if err != nil {
		return request, fmt.Errorf("request approved but linking post failed: %w", err)
	}
	return linked.(*models.PublicPostRequest), nil
}

func (s *RequestService) Reject(ctx context.Context, id uuid.UUID, actor workflow.Actor, note workflow.Note) (*models.PublicPostRequest, error) {
	sub, err := s.engine.Transition(ctx, workflow.KindPublicPostRequest, id, workflow.StatusRejected, actor, note)
	if err != nil {
		return nil, err
	}
	return sub.(*models.PublicPostRequest), nil
}

// Cancel withdraws a pending request. The transition table only lets the
// requester (or an admin) take this edge.
func (s *RequestService) Cancel(ctx context.Context, id uuid.UUID, actor workflow.Actor, note workflow.Note) (*models.PublicPostRequest, error) {
	sub, err := s.engine.Transition(ctx, workflow.KindPublicPostRequest, id, workflow.StatusCancelled, actor, note)
	if err != nil {
		return nil, err
	}
	return sub.(*models.PublicPostRequest), nil
}

// ScheduleFollowUp flags the request for review follow-up, version guarded
// like every other write.
func (s *RequestService) ScheduleFollowUp(ctx context.Context, id uuid.UUID, date time.Time) (*models.PublicPostRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.PublicPostRequest{}).
		Where("id = ? AND version = ?", id, request.Version).
		Updates(map[string]interface{}{
			"requires_follow_up": true,
			"follow_up_date":     date,
			"version":            request.Version + 1,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("schedule follow-up: %w: %v", workflow.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("schedule follow-up for request %s: %w", id, workflow.ErrConflict)
	}
	return s.Get(ctx, id)
}

func (s *RequestService) Pending(ctx context.Context) ([]models.PublicPostRequest, error) {
	var requests []models.PublicPostRequest
	err := queueOrder(s.db.WithContext(ctx).
		Where("status = ?", workflow.StatusPending)).
		Find(&requests).Error
	return requests, err
}

func (s *RequestService) Overdue(ctx context.Context, now time.Time) ([]models.PublicPostRequest, error) {
	var open []models.PublicPostRequest
	err := queueOrder(s.db.WithContext(ctx).
		Where("status IN ?", workflow.NonTerminalStatuses(workflow.KindPublicPostRequest))).
		Find(&open).Error
	if err != nil {
		return nil, err
	}
	overdue := make([]models.PublicPostRequest, 0, len(open))
	for _, r := range open {
		if workflow.IsOverdue(workflow.KindPublicPostRequest, r.Priority, r.CreatedAt, now) {
			overdue = append(overdue, r)
		}
	}
	return overdue, nil
}

func (s *RequestService) RequiringFollowUp(ctx context.Context, now time.Time) ([]models.PublicPostRequest, error) {
	var requests []models.PublicPostRequest
	err := s.db.WithContext(ctx).
		Where("requires_follow_up = ?", true).
		Where("follow_up_date <= ?", now).
		Where("status IN ?", workflow.NonTerminalStatuses(workflow.KindPublicPostRequest)).
		Order("follow_up_date ASC").
		Find(&requests).Error
	return requests, err
}

func (s *RequestService) ByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]models.PublicPostRequest, error) {
	var requests []models.PublicPostRequest
	err := s.db.WithContext(ctx).
		Where("assignee_id = ?", assigneeID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (s *RequestService) ByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.PublicPostRequest, error) {
	var requests []models.PublicPostRequest
	err := s.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (s *RequestService) ByClub(ctx context.Context, clubID uuid.UUID) ([]models.PublicPostRequest, error) {
	var requests []models.PublicPostRequest
	err := s.db.WithContext(ctx).
		Where("club_id = ?", clubID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// Search matches title/content substrings plus tag membership, AND-combined
// with the filters. Member-facing callers pass Statuses=[approved] so only
// published material is searchable; moderator callers pass none.
func (s *RequestService) Search(ctx context.Context, query string, f SearchFilters) ([]models.PublicPostRequest, error) {
	q := s.db.WithContext(ctx).Model(&models.PublicPostRequest{})
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
		q = q.Where("requester_id = ?", f.OwnerID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	var requests []models.PublicPostRequest
	if err := q.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	if f.Tag == "" {
		return requests, nil
	}
	// Tag membership is checked in Go; jsonb containment is not portable to
	// the sqlite test store.
	matched := make([]models.PublicPostRequest, 0, len(requests))
	for _, r := range requests {
		if hasTag(r.Tags, f.Tag) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}
