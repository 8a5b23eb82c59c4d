package services

import (
	"context"
	"testing"
	"time"

	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncementCreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := uuid.New()

	_, err := h.announcements.Create(ctx, author, &dto.CreateAnnouncementRequest{
		Title: "Library hours", Content: "Extended during finals.", Audience: "alumni",
	})
	assert.ErrorContains(t, err, "audience")

	_, err = h.announcements.Create(ctx, author, &dto.CreateAnnouncementRequest{
		Title: "", Content: "body",
	})
	assert.ErrorContains(t, err, "title")

	announcement, err := h.announcements.Create(ctx, author, &dto.CreateAnnouncementRequest{
		Title: "Library hours", Content: "Extended during finals week.",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusDraft, announcement.Status)
	assert.Equal(t, "all", announcement.Audience)
	assert.Equal(t, workflow.PriorityNormal, announcement.Priority)
}

func TestAnnouncementPublishIsAdminOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	announcement, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Campus closure", Content: "Closed Monday for maintenance.",
	})
	require.NoError(t, err)

	_, err = h.announcements.Publish(ctx, announcement.ID, moderatorActor(), workflow.Note{})
	require.ErrorIs(t, err, workflow.ErrForbidden)

	got, err := h.announcements.Publish(ctx, announcement.ID, adminActor(), workflow.Note{})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPublished, got.Status)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, got.PublishedAt.Equal(h.clock.Instant))
}

func TestAnnouncementSchedule(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	when := h.clock.Instant.Add(24 * time.Hour)

	announcement, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Exam timetable", Content: "Published next week.",
	})
	require.NoError(t, err)

	got, err := h.announcements.Schedule(ctx, announcement.ID, when, adminActor())
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusScheduled, got.Status)
	require.NotNil(t, got.ScheduledFor)
	assert.True(t, got.ScheduledFor.Equal(when))

	entries, err := h.announcements.History(ctx, announcement.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"created", "scheduled"}, historyActions(t, entries))
}

// A rejected Schedule must not leave a partial write behind: scheduled_for
// commits in the same guarded update as the status change, so terminal or
// ineligible records keep their stored state and version.
func TestScheduleRejectionLeavesRecordUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := adminActor()
	when := h.clock.Instant.Add(24 * time.Hour)

	archived, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Retired notice", Content: "No longer relevant.",
	})
	require.NoError(t, err)
	_, err = h.announcements.Archive(ctx, archived.ID, admin, workflow.Note{})
	require.NoError(t, err)
	before, err := h.announcements.Get(ctx, archived.ID)
	require.NoError(t, err)

	_, err = h.announcements.Schedule(ctx, archived.ID, when, admin)
	require.ErrorIs(t, err, workflow.ErrAlreadyTerminal)

	after, err := h.announcements.Get(ctx, archived.ID)
	require.NoError(t, err)
	assert.Nil(t, after.ScheduledFor)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, workflow.StatusArchived, after.Status)

	live, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Already live", Content: "Published this morning.",
	})
	require.NoError(t, err)
	_, err = h.announcements.Publish(ctx, live.ID, admin, workflow.Note{})
	require.NoError(t, err)

	_, err = h.announcements.Schedule(ctx, live.ID, when, admin)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	after, err = h.announcements.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.Nil(t, after.ScheduledFor)

	draft, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Draft", Content: "Awaiting sign-off.",
	})
	require.NoError(t, err)

	_, err = h.announcements.Schedule(ctx, draft.ID, when, moderatorActor())
	require.ErrorIs(t, err, workflow.ErrForbidden)

	after, err = h.announcements.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Nil(t, after.ScheduledFor)
	assert.Equal(t, int64(1), after.Version)
}

func TestAnnouncementArchiveIsTerminal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := adminActor()

	announcement, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Old notice", Content: "Superseded.",
	})
	require.NoError(t, err)

	got, err := h.announcements.Archive(ctx, announcement.ID, admin, workflow.Note{Reason: "superseded"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusArchived, got.Status)
	require.NotNil(t, got.ArchivedAt)

	_, err = h.announcements.Publish(ctx, announcement.ID, admin, workflow.Note{})
	assert.ErrorIs(t, err, workflow.ErrAlreadyTerminal)
}

func TestAnnouncementActiveOrderingAndExpiry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := adminActor()
	now := h.clock.Instant
	past := now.Add(-time.Hour)

	plain, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Cafeteria menu", Content: "New vegetarian options.",
	})
	require.NoError(t, err)
	pinned, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Semester dates", Content: "Registration opens March 15.", IsPinned: true,
	})
	require.NoError(t, err)
	urgent, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Water outage", Content: "Building C, all afternoon.", Priority: "urgent",
	})
	require.NoError(t, err)
	expired, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Yesterday's event", Content: "Already over.", ExpiresAt: &past,
	})
	require.NoError(t, err)

	for _, id := range []uuid.UUID{plain.ID, pinned.ID, urgent.ID, expired.ID} {
		_, err := h.announcements.Publish(ctx, id, admin, workflow.Note{})
		require.NoError(t, err)
	}

	active, err := h.announcements.Active(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 3, "expired announcement is filtered out")
	assert.Equal(t, pinned.ID, active[0].ID, "pinned first")
	assert.Equal(t, urgent.ID, active[1].ID, "then by priority")
	assert.Equal(t, plain.ID, active[2].ID)
}

func TestAnnouncementDraftsProjection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := adminActor()

	draft, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Draft", Content: "Not ready.",
	})
	require.NoError(t, err)
	scheduled, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Scheduled", Content: "Queued.",
	})
	require.NoError(t, err)
	live, err := h.announcements.Create(ctx, uuid.New(), &dto.CreateAnnouncementRequest{
		Title: "Live", Content: "Out already.",
	})
	require.NoError(t, err)

	_, err = h.announcements.Schedule(ctx, scheduled.ID, h.clock.Instant.Add(time.Hour), admin)
	require.NoError(t, err)
	_, err = h.announcements.Publish(ctx, live.ID, admin, workflow.Note{})
	require.NoError(t, err)

	drafts, err := h.announcements.Drafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	ids := []uuid.UUID{drafts[0].ID, drafts[1].ID}
	assert.Contains(t, ids, draft.ID)
	assert.Contains(t, ids, scheduled.ID)
}
