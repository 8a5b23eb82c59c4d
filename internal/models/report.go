package models

import (
	"time"

	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Report is a user/content complaint routed through investigation to
// resolution. Status only changes through the workflow engine; History is an
// append-only audit trail embedded in the row so the status write and the
// history append commit together.
type Report struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"reporter_id"`
	ContentType string            `gorm:"size:50;not null" json:"content_type"`
	ContentID   string            `gorm:"size:255;not null;index" json:"content_id"`
	Reason      string            `gorm:"size:500;not null" json:"reason"`
	Description string            `gorm:"type:text" json:"description,omitempty"`
	Category    string            `gorm:"size:50;index" json:"category,omitempty"`
	Status      workflow.Status   `gorm:"size:50;not null;default:'pending';index" json:"status"`
	Priority    workflow.Priority `gorm:"size:20;not null;default:'medium'" json:"priority"`

	// AssigneeID is retained after terminal states as the last responsible
	// moderator, for audit.
	AssigneeID *uuid.UUID `gorm:"type:uuid;index" json:"assignee_id,omitempty"`

	RequiresFollowUp bool       `gorm:"default:false" json:"requires_follow_up"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`

	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolutionReason string     `gorm:"size:500" json:"resolution_reason,omitempty"`
	ResolutionNotes  string     `gorm:"size:1000" json:"resolution_notes,omitempty"`

	History   datatypes.JSON `gorm:"type:jsonb" json:"history"`
	Version   int64          `gorm:"not null;default:1" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Reporter User `gorm:"foreignKey:ReporterID" json:"-"`
}

func (r *Report) WorkflowKind() workflow.Kind    { return workflow.KindReport }
func (r *Report) RecordID() uuid.UUID            { return r.ID }
func (r *Report) CurrentStatus() workflow.Status { return r.Status }
func (r *Report) CurrentVersion() int64          { return r.Version }
func (r *Report) OwnedBy(actorID uuid.UUID) bool { return r.ReporterID == actorID }
func (r *Report) RawHistory() datatypes.JSON     { return r.History }

// TransitionFields stamps the resolution time when the report closes.
func (r *Report) TransitionFields(target workflow.Status, now time.Time) map[string]any {
	switch target {
	case workflow.StatusResolved, workflow.StatusDismissed:
		return map[string]any{"resolved_at": now}
	}
	return map[string]any{}
}
