package services

import (
	"context"
	"fmt"

	"github.com/campuslink/moderation-backend/internal/models"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Publisher is the publishing sink: it materializes an approved publish
// request into something visible on the campus feed and returns the new
// post's id. The workflow engine never calls it directly; the request
// service chains it after a successful approval.
type Publisher interface {
	Publish(ctx context.Context, request *models.PublicPostRequest) (uuid.UUID, error)
}

// FeedPublisher writes approved requests to the posts table.
type FeedPublisher struct {
	db    *gorm.DB
	clock workflow.Clock
}

func NewFeedPublisher(db *gorm.DB, clock workflow.Clock) *FeedPublisher {
	return &FeedPublisher{db: db, clock: clock}
}

func (p *FeedPublisher) Publish(ctx context.Context, request *models.PublicPostRequest) (uuid.UUID, error) {
	sourceID := request.ID
	post := models.Post{
		ID:              uuid.New(),
		ClubID:          request.ClubID,
		AuthorID:        request.RequesterID,
		Title:           request.Title,
		Content:         request.Content,
		Category:        request.Category,
		Tags:            request.Tags,
		SourceRequestID: &sourceID,
		PublishedAt:     p.clock.Now().UTC(),
	}
	if err := p.db.WithContext(ctx).Create(&post).Error; err != nil {
		return uuid.Nil, fmt.Errorf("publish post for request %s: %w", request.ID, err)
	}
	return post.ID, nil
}
