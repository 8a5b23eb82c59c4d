package services

import (
	"context"

	"github.com/campuslink/moderation-backend/internal/models"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewWorkflowEngine builds the engine and registers a loader per entity kind,
// keeping the engine package free of model imports.
func NewWorkflowEngine(db *gorm.DB, clock workflow.Clock) *workflow.Engine {
	engine := workflow.NewEngine(db, clock)

	engine.Register(workflow.KindReport, func(ctx context.Context, db *gorm.DB, id uuid.UUID) (workflow.Subject, error) {
		var rec models.Report
		if err := db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &rec, nil
	})

	engine.Register(workflow.KindPublicPostRequest, func(ctx context.Context, db *gorm.DB, id uuid.UUID) (workflow.Subject, error) {
		var rec models.PublicPostRequest
		if err := db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &rec, nil
	})

	engine.Register(workflow.KindAnnouncement, func(ctx context.Context, db *gorm.DB, id uuid.UUID) (workflow.Subject, error) {
		var rec models.Announcement
		if err := db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &rec, nil
	})

	return engine
}
