// Command sweeper runs one expiration sweep and exits. It is meant for cron
// or oncall use; the server runs the same pass on its own schedule.
//
// Exit codes: 0 sweep completed, 1 usage error, 2 store failure.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/campuslink/moderation-backend/internal/config"
	"github.com/campuslink/moderation-backend/internal/database"
	"github.com/campuslink/moderation-backend/internal/logging"
	"github.com/campuslink/moderation-backend/internal/services"
	"github.com/campuslink/moderation-backend/internal/sweeper"
	"github.com/campuslink/moderation-backend/internal/workflow"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		kindFlag = flag.String("kind", "", "sweep a single kind (public_post_request or announcement); default all")
		nowFlag  = flag.String("now", "", "treat this RFC3339 instant as now (default wall clock)")
		dryRun   = flag.Bool("dry-run", false, "report what would transition without writing")
		timeout  = flag.Duration("timeout", 2*time.Minute, "overall sweep deadline")
	)
	flag.Parse()

	logging.Setup()

	clock := workflow.SystemClock()
	if *nowFlag != "" {
		instant, err := time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --now %q: %v\n", *nowFlag, err)
			return 1
		}
		clock = &workflow.FixedClock{Instant: instant}
	}

	var kind workflow.Kind
	if *kindFlag != "" {
		parsed, ok := workflow.ParseKind(*kindFlag)
		if !ok {
			fmt.Fprintf(os.Stderr, "invalid --kind %q\n", *kindFlag)
			return 1
		}
		kind = parsed
	}

	cfg := config.Load()
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		return 2
	}
	defer func() {
		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	engine := services.NewWorkflowEngine(database.DB, clock)
	sweep := sweeper.New(database.DB, engine, cfg.RequestTTL)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	now := clock.Now()
	var (
		results []sweeper.Result
		err     error
	)
	if kind != "" {
		var res *sweeper.Result
		res, err = sweep.RunKind(ctx, kind, now, *dryRun)
		if res != nil {
			results = append(results, *res)
		}
	} else {
		results, err = sweep.Run(ctx, now, *dryRun)
	}

	// Partial results still print so a failed run shows how far it got.
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	if err != nil {
		slog.Error("sweep failed", "error", err.Error())
		return 2
	}
	return 0
}
