package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Post is a campus-feed post. The workflow engine never writes posts itself;
// the publishing sink materializes one when a publish request is approved and
// links it back via published_post_id.
type Post struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClubID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"club_id"`
	AuthorID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Content         string         `gorm:"type:text;not null" json:"content"`
	Category        string         `gorm:"size:50;index" json:"category,omitempty"`
	Tags            datatypes.JSON `gorm:"type:jsonb" json:"tags,omitempty"`
	SourceRequestID *uuid.UUID     `gorm:"type:uuid;index" json:"source_request_id,omitempty"`
	PublishedAt     time.Time      `json:"published_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
