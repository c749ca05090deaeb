package bot

import (
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"
)

// telegoLogger routes telego's internal logging into slog.
type telegoLogger struct {
	log *slog.Logger
}

func (l telegoLogger) Debugf(format string, args ...any) {
	l.log.Debug("telego: " + fmt.Sprintf(format, args...))
}

func (l telegoLogger) Errorf(format string, args ...any) {
	l.log.Error("telego: " + fmt.Sprintf(format, args...))
}

// NewAPI creates the Bot API client with logging wired to slog.
func NewAPI(token string, logger *slog.Logger) (*telego.Bot, error) {
	api, err := telego.NewBot(token, telego.WithLogger(telegoLogger{log: logger}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAPIInit, err)
	}
	return api, nil
}
