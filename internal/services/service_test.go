package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/campuslink/moderation-backend/internal/config"
	"github.com/campuslink/moderation-backend/internal/models"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory sqlite store with the full schema. The
// queries in this package deliberately avoid postgres-only SQL so they run
// unchanged here.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.PublicPostRequest{},
		&models.Announcement{},
		&models.Post{},
		&models.Block{},
	))
	return db
}

type harness struct {
	db            *gorm.DB
	clock         *workflow.FixedClock
	engine        *workflow.Engine
	reports       *ReportService
	requests      *RequestService
	announcements *AnnouncementService
	users         *UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	clock := &workflow.FixedClock{Instant: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	engine := NewWorkflowEngine(db, clock)
	filter := NewContentFilter()
	cfg := &config.Config{RequestTTL: 168 * time.Hour}
	return &harness{
		db:            db,
		clock:         clock,
		engine:        engine,
		reports:       NewReportService(db, engine),
		requests:      NewRequestService(db, engine, filter, NewFeedPublisher(db, clock), cfg),
		announcements: NewAnnouncementService(db, engine, filter),
		users:         NewUserService(db),
	}
}

func memberActor() workflow.Actor {
	return workflow.Actor{ID: uuid.New(), Role: workflow.RoleMember}
}

func moderatorActor() workflow.Actor {
	return workflow.Actor{ID: uuid.New(), Role: workflow.RoleModerator}
}

func adminActor() workflow.Actor {
	return workflow.Actor{ID: uuid.New(), Role: workflow.RoleAdmin}
}

// backdate rewrites created_at, which gorm stamps with the wall clock on
// insert, so SLA tests can pin record age against the fixed clock.
func backdate(t *testing.T, db *gorm.DB, model any, id uuid.UUID, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Model(model).Where("id = ?", id).
		Update("created_at", createdAt).Error)
}

func historyActions(t *testing.T, entries []workflow.HistoryEntry) []string {
	t.Helper()
	actions := make([]string, len(entries))
	for i, e := range entries {
		actions[i] = e.Action
	}
	return actions
}
