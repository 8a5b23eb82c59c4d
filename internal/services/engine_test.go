package services

import (
	"context"
	"testing"
	"time"

	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/models"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestReport(t *testing.T, h *harness, reporterID uuid.UUID, priority string) *models.Report {
	t.Helper()
	report, err := h.reports.Create(context.Background(), reporterID, &dto.CreateReportRequest{
		ContentType: "post",
		ContentID:   uuid.New().String(),
		Reason:      "harassment",
		Priority:    priority,
	})
	require.NoError(t, err)
	return report
}

func TestTransitionCommitsStatusAndHistoryTogether(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mod := moderatorActor()

	report := createTestReport(t, h, uuid.New(), "high")

	sub, err := h.engine.Transition(ctx, workflow.KindReport, report.ID,
		workflow.StatusInvestigating, mod, workflow.Note{})
	require.NoError(t, err)
	got := sub.(*models.Report)

	assert.Equal(t, workflow.StatusInvestigating, got.Status)
	assert.Equal(t, int64(2), got.Version)

	entries, err := workflow.DecodeHistory(got.History)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"submitted", "investigating"}, historyActions(t, entries))
	assert.Equal(t, workflow.StatusPending, entries[1].From)
	assert.Equal(t, workflow.StatusInvestigating, entries[1].To)
	assert.Equal(t, mod.ID, entries[1].ActorID)
	assert.True(t, entries[1].Timestamp.Equal(h.clock.Instant))
}

func TestTerminalTransitionRecordsResolution(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mod := moderatorActor()

	report := createTestReport(t, h, uuid.New(), "high")
	_, err := h.engine.Transition(ctx, workflow.KindReport, report.ID,
		workflow.StatusInvestigating, mod, workflow.Note{})
	require.NoError(t, err)

	h.clock.Advance(30 * time.Minute)
	sub, err := h.engine.Transition(ctx, workflow.KindReport, report.ID,
		workflow.StatusResolved, mod, workflow.Note{Reason: "content removed", Notes: "warned the author"})
	require.NoError(t, err)
	got := sub.(*models.Report)

	assert.Equal(t, workflow.StatusResolved, got.Status)
	assert.Equal(t, "content removed", got.ResolutionReason)
	assert.Equal(t, "warned the author", got.ResolutionNotes)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, got.ResolvedAt.Equal(h.clock.Instant))
}

func TestDoubleResolveLeavesExactlyOneResolvedEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mod := moderatorActor()

	report := createTestReport(t, h, uuid.New(), "medium")
	_, err := h.engine.Transition(ctx, workflow.KindReport, report.ID,
		workflow.StatusInvestigating, mod, workflow.Note{})
	require.NoError(t, err)
	_, err = h.engine.Transition(ctx, workflow.KindReport, report.ID,
		workflow.StatusResolved, mod, workflow.Note{Reason: "first"})
	require.NoError(t, err)

	_, err = h.engine.Transition(ctx, workflow.KindReport, report.ID,
		workflow.StatusResolved, mod, workflow.Note{Reason: "second"})
	require.ErrorIs(t, err, workflow.ErrAlreadyTerminal)

	entries, err := h.reports.History(ctx, report.ID)
	require.NoError(t, err)
	resolved := 0
	for _, e := range entries {
		if e.Action == "resolved" {
			resolved++
		}
	}
	assert.Equal(t, 1, resolved)

	got, err := h.reports.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.ResolutionReason)
}

// competingWriter registers an update hook that bumps the report's version
// right before the engine's guarded write lands, making the version check
// miss. It fires at most n times; the returned counter reports how often.
func competingWriter(t *testing.T, h *harness, reportID uuid.UUID, n int) *int {
	t.Helper()
	misses := 0
	err := h.db.Callback().Update().Before("gorm:update").Register("competing_writer", func(tx *gorm.DB) {
		if tx.Statement.Table != "reports" || misses >= n {
			return
		}
		misses++
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE reports SET version = version + 1 WHERE id = ?", reportID)
	})
	require.NoError(t, err)
	return &misses
}

func TestTransitionRetriesAfterLosingVersionCheck(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	report := createTestReport(t, h, uuid.New(), "high")
	misses := competingWriter(t, h, report.ID, 1)

	sub, err := h.engine.Transition(ctx, workflow.KindReport, report.ID,
		workflow.StatusInvestigating, moderatorActor(), workflow.Note{})
	require.NoError(t, err)
	got := sub.(*models.Report)

	assert.Equal(t, 1, *misses, "first write attempt lost the version check")
	assert.Equal(t, workflow.StatusInvestigating, got.Status)
	// One bump from the competitor, one from the committed transition.
	assert.Equal(t, int64(3), got.Version)

	entries, err := workflow.DecodeHistory(got.History)
	require.NoError(t, err)
	assert.Equal(t, []string{"submitted", "investigating"}, historyActions(t, entries),
		"retry appends exactly one entry")
}

func TestTransitionConflictWhenContentionPersists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	report := createTestReport(t, h, uuid.New(), "high")
	competingWriter(t, h, report.ID, 10)

	_, err := h.engine.Transition(ctx, workflow.KindReport, report.ID,
		workflow.StatusInvestigating, moderatorActor(), workflow.Note{})
	require.ErrorIs(t, err, workflow.ErrConflict)

	got, err := h.reports.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, got.Status, "no transition committed")

	entries, err := workflow.DecodeHistory(got.History)
	require.NoError(t, err)
	assert.Equal(t, []string{"submitted"}, historyActions(t, entries))
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	h := newHarness(t)
	report := createTestReport(t, h, uuid.New(), "medium")

	_, err := h.engine.Transition(context.Background(), workflow.KindReport, report.ID,
		workflow.StatusResolved, moderatorActor(), workflow.Note{})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestTransitionRejectsMemberRole(t *testing.T) {
	h := newHarness(t)
	report := createTestReport(t, h, uuid.New(), "medium")

	_, err := h.engine.Transition(context.Background(), workflow.KindReport, report.ID,
		workflow.StatusInvestigating, memberActor(), workflow.Note{})
	assert.ErrorIs(t, err, workflow.ErrForbidden)
}

func TestTransitionUnknownRecord(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Transition(context.Background(), workflow.KindReport, uuid.New(),
		workflow.StatusInvestigating, moderatorActor(), workflow.Note{})
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestTransitionUnknownKind(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Transition(context.Background(), workflow.Kind("invoice"), uuid.New(),
		workflow.StatusResolved, moderatorActor(), workflow.Note{})
	assert.ErrorIs(t, err, workflow.ErrUnknownKind)
}

func TestAssignForcesReviewStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mod := moderatorActor()
	assignee := uuid.New()

	report := createTestReport(t, h, uuid.New(), "high")
	sub, err := h.engine.Assign(ctx, workflow.KindReport, report.ID, assignee, mod)
	require.NoError(t, err)
	got := sub.(*models.Report)

	assert.Equal(t, workflow.StatusInvestigating, got.Status)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, assignee, *got.AssigneeID)

	entries, err := workflow.DecodeHistory(got.History)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, workflow.ActionAssigned, entries[1].Action)

	// Reassigning after the report left pending is not a valid edge.
	_, err = h.engine.Assign(ctx, workflow.KindReport, report.ID, uuid.New(), mod)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestAssignRejectsMemberAndUnassignableKind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	report := createTestReport(t, h, uuid.New(), "medium")
	_, err := h.engine.Assign(ctx, workflow.KindReport, report.ID, uuid.New(), memberActor())
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	_, err = h.engine.Assign(ctx, workflow.KindAnnouncement, uuid.New(), uuid.New(), adminActor())
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestOwnerMayCancelOwnRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := memberActor()

	request, err := h.requests.Create(ctx, owner.ID, &dto.CreatePublishRequest{
		ClubID:  uuid.New(),
		Title:   "Chess club tournament",
		Content: "Sign-ups open this week in the student center.",
	})
	require.NoError(t, err)

	// A different member cannot withdraw someone else's request.
	_, err = h.requests.Cancel(ctx, request.ID, memberActor(), workflow.Note{})
	require.ErrorIs(t, err, workflow.ErrForbidden)

	got, err := h.requests.Cancel(ctx, request.ID, owner, workflow.Note{Reason: "event moved"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCancelled, got.Status)
	assert.Equal(t, "event moved", got.ResolutionReason)
}

func TestExpiryEdgeIsSystemOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	request, err := h.requests.Create(ctx, uuid.New(), &dto.CreatePublishRequest{
		ClubID:  uuid.New(),
		Title:   "Movie night",
		Content: "Friday at the auditorium.",
	})
	require.NoError(t, err)

	_, err = h.engine.Transition(ctx, workflow.KindPublicPostRequest, request.ID,
		workflow.StatusExpired, moderatorActor(), workflow.Note{})
	require.ErrorIs(t, err, workflow.ErrForbidden)

	sub, err := h.engine.Transition(ctx, workflow.KindPublicPostRequest, request.ID,
		workflow.StatusExpired, workflow.SystemActor(), workflow.Note{Reason: "request expired unreviewed"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusExpired, sub.CurrentStatus())
}
