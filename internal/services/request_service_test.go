package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campuslink/moderation-backend/internal/config"
	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/models"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUrgentRequestLifecycle walks the full review path: an urgent request
// sits unreviewed past its 2h SLA, gets claimed, then approved, which
// materializes a feed post and links it back.
func TestUrgentRequestLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	requester := uuid.New()
	clubID := uuid.New()
	t0 := h.clock.Instant

	request, err := h.requests.Create(ctx, requester, &dto.CreatePublishRequest{
		ClubID:   clubID,
		Title:    "Emergency venue change",
		Content:  "Tonight's debate moves to Hall B.",
		Category: "events",
		Tags:     []string{"debate", "venue"},
		Priority: "urgent",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, request.Status)
	require.NotNil(t, request.ExpiresAt)
	assert.True(t, request.ExpiresAt.Equal(t0.Add(168*time.Hour)))
	backdate(t, h.db, &models.PublicPostRequest{}, request.ID, t0)

	// Three hours in, the urgent request has blown its 2h SLA.
	h.clock.Advance(3 * time.Hour)
	overdue, err := h.requests.Overdue(ctx, h.clock.Instant)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, request.ID, overdue[0].ID)

	mod := moderatorActor()
	assignee := uuid.New()
	claimed, err := h.requests.Assign(ctx, request.ID, assignee, mod)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusUnderReview, claimed.Status)
	require.NotNil(t, claimed.AssigneeID)
	assert.Equal(t, assignee, *claimed.AssigneeID)

	h.clock.Advance(10 * time.Minute)
	approved, err := h.requests.Approve(ctx, request.ID, mod, workflow.Note{Reason: "fits the guidelines"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(h.clock.Instant))
	require.NotNil(t, approved.PublishedPostID)

	var post models.Post
	require.NoError(t, h.db.First(&post, "id = ?", approved.PublishedPostID).Error)
	assert.Equal(t, request.Title, post.Title)
	assert.Equal(t, clubID, post.ClubID)
	assert.Equal(t, requester, post.AuthorID)
	require.NotNil(t, post.SourceRequestID)
	assert.Equal(t, request.ID, *post.SourceRequestID)

	entries, err := h.requests.History(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"submitted", "assigned", "approved", "post_linked"},
		historyActions(t, entries))

	// Terminal: no further review actions.
	_, err = h.requests.Reject(ctx, request.ID, mod, workflow.Note{})
	assert.ErrorIs(t, err, workflow.ErrAlreadyTerminal)
}

func TestRequestCreateRejectsFilteredContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.requests.Create(ctx, uuid.New(), &dto.CreatePublishRequest{
		ClubID:  uuid.New(),
		Title:   "Tickets",
		Content: "Buy at https://totally-legit.example.com now",
	})
	require.ErrorIs(t, err, ErrContentRejected)
	assert.ErrorContains(t, err, "web links")

	_, err = h.requests.Create(ctx, uuid.New(), &dto.CreatePublishRequest{
		ClubID:  uuid.New(),
		Title:   "Contact me",
		Content: "Reach me at someone@example.com for details",
	})
	require.ErrorIs(t, err, ErrContentRejected)

	_, err = h.requests.Create(ctx, uuid.New(), &dto.CreatePublishRequest{
		Title: "No club", Content: "body",
	})
	assert.ErrorContains(t, err, "club_id")
}

func TestRequestRejectRecordsReason(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	request, err := h.requests.Create(ctx, uuid.New(), &dto.CreatePublishRequest{
		ClubID:  uuid.New(),
		Title:   "Bake sale",
		Content: "Cookies outside the library.",
	})
	require.NoError(t, err)

	got, err := h.requests.Reject(ctx, request.ID, moderatorActor(),
		workflow.Note{Reason: "duplicate", Notes: "same event posted yesterday"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejected, got.Status)
	assert.Equal(t, "duplicate", got.ResolutionReason)
	require.NotNil(t, got.RejectedAt)
	assert.Nil(t, got.PublishedPostID)
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, request *models.PublicPostRequest) (uuid.UUID, error) {
	return uuid.Nil, errors.New("feed store down")
}

func TestApproveSurvivesPublisherFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	requests := NewRequestService(h.db, h.engine, NewContentFilter(), failingPublisher{},
		&config.Config{RequestTTL: 168 * time.Hour})

	request, err := requests.Create(ctx, uuid.New(), &dto.CreatePublishRequest{
		ClubID:  uuid.New(),
		Title:   "Robotics demo",
		Content: "Lab open house on Saturday.",
	})
	require.NoError(t, err)

	_, err = requests.Approve(ctx, request.ID, moderatorActor(), workflow.Note{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "publishing failed")

	// The approval itself committed; only the link is missing.
	got, err := requests.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, got.Status)
	assert.Nil(t, got.PublishedPostID)
}

func TestRequestSearchWithTagFilter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.requests.Create(ctx, uuid.New(), &dto.CreatePublishRequest{
		ClubID:  uuid.New(),
		Title:   "Hackathon kickoff",
		Content: "48 hours of building.",
		Tags:    []string{"tech", "hackathon"},
	})
	require.NoError(t, err)
	_, err = h.requests.Create(ctx, uuid.New(), &dto.CreatePublishRequest{
		ClubID:  uuid.New(),
		Title:   "Hackathon afterparty",
		Content: "Celebrate the winners.",
		Tags:    []string{"social"},
	})
	require.NoError(t, err)

	found, err := h.requests.Search(ctx, "hackathon", SearchFilters{})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = h.requests.Search(ctx, "hackathon", SearchFilters{Tag: "TECH"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Hackathon kickoff", found[0].Title)

	found, err = h.requests.Search(ctx, "", SearchFilters{
		Statuses: []workflow.Status{workflow.StatusApproved},
	})
	require.NoError(t, err)
	assert.Empty(t, found, "member-facing search sees no unapproved requests")
}
