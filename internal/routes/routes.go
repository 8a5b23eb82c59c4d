package routes

import (
	"time"

	"github.com/campuslink/moderation-backend/internal/config"
	"github.com/campuslink/moderation-backend/internal/handlers"
	"github.com/campuslink/moderation-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	requestHandler *handlers.RequestHandler,
	announcementHandler *handlers.AnnouncementHandler,
	userHandler *handlers.UserHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Public announcement feed, no auth required.
	api.Get("/announcements", announcementHandler.Active)
	api.Get("/announcements/search", announcementHandler.PublicSearch)

	// Member endpoints (JWT required) - apply middleware to individual routes
	// so the public routes above stay public.
	jwt := middleware.JWTProtected(cfg)

	// Write endpoints get a stricter limit: 10 req/min per IP.
	writeLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})

	api.Post("/reports", jwt, writeLimit, reportHandler.Create)
	api.Get("/reports/mine", jwt, reportHandler.Mine)

	api.Post("/requests", jwt, writeLimit, requestHandler.Create)
	api.Get("/requests/mine", jwt, requestHandler.Mine)
	api.Post("/requests/:id/cancel", jwt, requestHandler.Cancel)

	api.Post("/blocks", jwt, userHandler.BlockUser)
	api.Delete("/blocks/:id", jwt, userHandler.UnblockUser)
	api.Get("/blocks", jwt, userHandler.Blocked)

	// Moderation panel (JWT + moderator or admin).
	mod := api.Group("/mod", jwt, middleware.ModeratorRequired(db, cfg))

	mod.Get("/reports", reportHandler.Search)
	mod.Get("/reports/pending", reportHandler.Pending)
	mod.Get("/reports/overdue", reportHandler.Overdue)
	mod.Get("/reports/follow-up", reportHandler.RequiringFollowUp)
	mod.Get("/reports/assignee/:id", reportHandler.ByAssignee)
	mod.Get("/reports/target/:type/:content_id", reportHandler.ByTarget)
	mod.Get("/reports/:id", reportHandler.Get)
	mod.Get("/reports/:id/history", reportHandler.History)
	mod.Put("/reports/:id/assign", reportHandler.Assign)
	mod.Put("/reports/:id/resolve", reportHandler.Resolve)
	mod.Put("/reports/:id/dismiss", reportHandler.Dismiss)
	mod.Put("/reports/:id/escalate", reportHandler.Escalate)
	mod.Put("/reports/:id/follow-up", reportHandler.ScheduleFollowUp)

	mod.Get("/requests", requestHandler.Search)
	mod.Get("/requests/pending", requestHandler.Pending)
	mod.Get("/requests/overdue", requestHandler.Overdue)
	mod.Get("/requests/follow-up", requestHandler.RequiringFollowUp)
	mod.Get("/requests/assignee/:id", requestHandler.ByAssignee)
	mod.Get("/requests/club/:id", requestHandler.ByClub)
	mod.Get("/requests/:id", requestHandler.Get)
	mod.Get("/requests/:id/history", requestHandler.History)
	mod.Put("/requests/:id/assign", requestHandler.Assign)
	mod.Put("/requests/:id/approve", requestHandler.Approve)
	mod.Put("/requests/:id/reject", requestHandler.Reject)
	mod.Put("/requests/:id/follow-up", requestHandler.ScheduleFollowUp)

	// Announcement authoring (JWT + admin).
	admin := api.Group("/admin", jwt, middleware.AdminRequired(db, cfg))

	admin.Post("/announcements", announcementHandler.Create)
	admin.Get("/announcements", announcementHandler.Search)
	admin.Get("/announcements/drafts", announcementHandler.Drafts)
	admin.Get("/announcements/follow-up", announcementHandler.RequiringFollowUp)
	admin.Get("/announcements/author/:id", announcementHandler.ByAuthor)
	admin.Get("/announcements/:id", announcementHandler.Get)
	admin.Get("/announcements/:id/history", announcementHandler.History)
	admin.Put("/announcements/:id/publish", announcementHandler.Publish)
	admin.Put("/announcements/:id/schedule", announcementHandler.Schedule)
	admin.Put("/announcements/:id/archive", announcementHandler.Archive)

	admin.Get("/users", userHandler.List)
	admin.Put("/users/:id/role", userHandler.SetRole)
}
