package logging

import (
	"log/slog"
	"os"
)

// ServiceName tags every record this backend emits so shared sinks can
// separate moderation traffic from the rest of the platform's services.
const ServiceName = "moderation-backend"

// Setup installs the global slog logger with JSON output to stdout. main
// re-installs via New once the Postgres handler is connected.
func Setup() {
	slog.SetDefault(New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// New wraps a handler chain into the service-tagged logger this backend uses.
func New(handler slog.Handler) *slog.Logger {
	return slog.New(handler).With("service", ServiceName)
}
