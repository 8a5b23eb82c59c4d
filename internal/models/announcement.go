package models

import (
	"time"

	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Announcement audiences.
var AnnouncementAudiences = []string{"all", "students", "staff", "clubs"}

// Announcement is a system notice that can be drafted, scheduled, published
// and archived. The sweeper activates scheduled announcements and expires
// published ones whose expires_at has elapsed.
type Announcement struct {
	ID       uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID uuid.UUID         `gorm:"type:uuid;not null;index" json:"author_id"`
	Title    string            `gorm:"size:255;not null" json:"title"`
	Content  string            `gorm:"type:text;not null" json:"content"`
	Category string            `gorm:"size:50;index" json:"category,omitempty"`
	Audience string            `gorm:"size:20;not null;default:'all'" json:"audience"`
	Status   workflow.Status   `gorm:"size:50;not null;default:'draft';index" json:"status"`
	Priority workflow.Priority `gorm:"size:20;not null;default:'normal'" json:"priority"`
	IsPinned bool              `gorm:"default:false" json:"is_pinned"`

	ScheduledFor *time.Time `gorm:"index" json:"scheduled_for,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at,omitempty"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`

	RequiresFollowUp bool       `gorm:"default:false" json:"requires_follow_up"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`

	ResolutionReason string `gorm:"size:500" json:"resolution_reason,omitempty"`
	ResolutionNotes  string `gorm:"size:1000" json:"resolution_notes,omitempty"`

	History   datatypes.JSON `gorm:"type:jsonb" json:"history"`
	Version   int64          `gorm:"not null;default:1" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

func (a *Announcement) WorkflowKind() workflow.Kind    { return workflow.KindAnnouncement }
func (a *Announcement) RecordID() uuid.UUID            { return a.ID }
func (a *Announcement) CurrentStatus() workflow.Status { return a.Status }
func (a *Announcement) CurrentVersion() int64          { return a.Version }
func (a *Announcement) OwnedBy(actorID uuid.UUID) bool { return a.AuthorID == actorID }
func (a *Announcement) RawHistory() datatypes.JSON     { return a.History }

func (a *Announcement) TransitionFields(target workflow.Status, now time.Time) map[string]any {
	switch target {
	case workflow.StatusPublished:
		return map[string]any{"published_at": now}
	case workflow.StatusArchived:
		return map[string]any{"archived_at": now}
	}
	return map[string]any{}
}
