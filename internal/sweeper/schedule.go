package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StartSchedule runs the sweep on a cron spec inside the server process.
// Multiple instances may run the same schedule; the engine's transition
// guards make overlapping sweeps skip instead of double-transition.
func (s *Sweeper) StartSchedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		results, err := s.Run(ctx, s.engine.Clock().Now(), false)
		if err != nil {
			slog.Error("scheduled sweep failed", "error", err.Error())
			return
		}
		for _, res := range results {
			if res.Scanned == 0 {
				continue
			}
			slog.Info("sweep completed",
				"kind", string(res.Kind),
				"scanned", res.Scanned,
				"transitioned", res.Transitioned,
				"skipped", res.Skipped,
				"failed", res.Failed,
			)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("sweep schedule started", "cron", spec)
	return c, nil
}
