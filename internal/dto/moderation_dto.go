package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateReportRequest struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// TransitionRequest carries the optional reason/notes recorded with a
// lifecycle action (resolve, dismiss, reject, archive, ...).
type TransitionRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

type AssignRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id"`
}

type FollowUpRequest struct {
	FollowUpDate time.Time `json:"follow_up_date"`
}

type CreatePublishRequest struct {
	ClubID       uuid.UUID  `json:"club_id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	Priority     string     `json:"priority"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type CreateAnnouncementRequest struct {
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	Category         string     `json:"category"`
	Audience         string     `json:"audience"`
	Priority         string     `json:"priority"`
	IsPinned         bool       `json:"is_pinned"`
	ScheduledFor     *time.Time `json:"scheduled_for"`
	ExpiresAt        *time.Time `json:"expires_at"`
	RequiresFollowUp bool       `json:"requires_follow_up"`
	FollowUpDate     *time.Time `json:"follow_up_date"`
}

type BlockUserRequest struct {
	BlockedID uuid.UUID `json:"blocked_id"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}
