package models

import (
	"time"

	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PublicPostRequest is a club member asking the moderators to publish a post
// to the campus-wide feed. Pending requests that nobody reviews are expired
// by the sweeper instead of rotting in the queue.
type PublicPostRequest struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID uuid.UUID         `gorm:"type:uuid;not null;index" json:"requester_id"`
	ClubID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"club_id"`
	Title       string            `gorm:"size:255;not null" json:"title"`
	Content     string            `gorm:"type:text;not null" json:"content"`
	Category    string            `gorm:"size:50;index" json:"category,omitempty"`
	Tags        datatypes.JSON    `gorm:"type:jsonb" json:"tags,omitempty"`
	Status      workflow.Status   `gorm:"size:50;not null;default:'pending';index" json:"status"`
	Priority    workflow.Priority `gorm:"size:20;not null;default:'medium'" json:"priority"`

	// AssigneeID is the reviewing moderator, retained after terminal states
	// for audit.
	AssigneeID *uuid.UUID `gorm:"type:uuid;index" json:"assignee_id,omitempty"`

	// ScheduledFor is the requested publication time; ExpiresAt caps how long
	// the request may wait for review (defaulted at creation).
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at,omitempty"`

	RequiresFollowUp bool       `gorm:"default:false" json:"requires_follow_up"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`

	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	ResolutionReason string     `gorm:"size:500" json:"resolution_reason,omitempty"`
	ResolutionNotes  string     `gorm:"size:1000" json:"resolution_notes,omitempty"`

	// PublishedPostID back-references the feed post materialized on approval.
	PublishedPostID *uuid.UUID `gorm:"type:uuid;index" json:"published_post_id,omitempty"`

	History   datatypes.JSON `gorm:"type:jsonb" json:"history"`
	Version   int64          `gorm:"not null;default:1" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Requester User `gorm:"foreignKey:RequesterID" json:"-"`
}

func (r *PublicPostRequest) WorkflowKind() workflow.Kind    { return workflow.KindPublicPostRequest }
func (r *PublicPostRequest) RecordID() uuid.UUID            { return r.ID }
func (r *PublicPostRequest) CurrentStatus() workflow.Status { return r.Status }
func (r *PublicPostRequest) CurrentVersion() int64          { return r.Version }
func (r *PublicPostRequest) OwnedBy(actorID uuid.UUID) bool { return r.RequesterID == actorID }
func (r *PublicPostRequest) RawHistory() datatypes.JSON     { return r.History }

func (r *PublicPostRequest) TransitionFields(target workflow.Status, now time.Time) map[string]any {
	switch target {
	case workflow.StatusApproved:
		return map[string]any{"approved_at": now}
	case workflow.StatusRejected:
		return map[string]any{"rejected_at": now}
	}
	return map[string]any{}
}
