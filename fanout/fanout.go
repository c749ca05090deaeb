// Package fanout applies global bans and mutes to every known group chat.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

var (
	ErrAlreadyBanned = errors.New("user is already globally banned")
	ErrNotBanned     = errors.New("user is not globally banned")
	ErrAlreadyMuted  = errors.New("user is already globally muted")
	ErrNotMuted      = errors.New("user is not globally muted")
	ErrUnknownOp     = errors.New("unknown global operation")
)

// Op is a global moderation operation.
type Op int

const (
	OpBan Op = iota
	OpUnban
	OpMute
	OpUnmute
)

func (o Op) String() string {
	switch o {
	case OpBan:
		return "ban"
	case OpUnban:
		return "unban"
	case OpMute:
		return "mute"
	case OpUnmute:
		return "unmute"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// State is the part of the moderation tables touched by fan-out.
type State interface {
	Ban(ctx context.Context, userID int64) bool
	Unban(ctx context.Context, userID int64) bool
	Mute(ctx context.Context, userID int64) bool
	Unmute(ctx context.Context, userID int64) bool
	Groups() []int64
}

// Actions is the slice of the platform used per chat.
type Actions interface {
	BanMember(ctx context.Context, chatID, userID int64) error
	UnbanMember(ctx context.Context, chatID, userID int64) error
	RestrictMember(ctx context.Context, chatID, userID int64, canSend bool) error
}

// Result lists per-chat outcomes in registry order.
type Result struct {
	Succeeded []int64
	Failed    []int64
}

func (r Result) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

type Fanout struct {
	state   State
	actions Actions
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates a Fanout. A nil limiter means no pacing.
func New(state State, actions Actions, limiter *rate.Limiter, logger *slog.Logger) *Fanout {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{
		state:   state,
		actions: actions,
		limiter: limiter,
		log:     logger,
	}
}

// Apply updates the global set first, then acts in every known group. A failure in one
// chat is recorded and never stops the rest. Applying an operation that would not change
// the set returns the matching sentinel error before any chat is touched.
func (f *Fanout) Apply(ctx context.Context, op Op, userID int64) (Result, error) {
	changed, err := f.mutate(ctx, op, userID)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Result{}, noopError(op)
	}

	var res Result
	for _, chatID := range f.state.Groups() {
		if err := f.limiter.Wait(ctx); err != nil {
			// context gone; the rest of the chats count as failed
			res.Failed = append(res.Failed, chatID)
			continue
		}

		if err := f.act(ctx, op, chatID, userID); err != nil {
			f.log.Debug("fanout: Chat action failed", "op", op.String(), "chat_id", chatID, "user_id", userID, "error", err)
			chatActions.WithLabelValues(op.String(), "failed").Inc()
			res.Failed = append(res.Failed, chatID)
			continue
		}
		chatActions.WithLabelValues(op.String(), "ok").Inc()
		res.Succeeded = append(res.Succeeded, chatID)
	}

	f.log.Info("fanout: Global operation applied", "op", op.String(), "user_id", userID,
		"succeeded", len(res.Succeeded), "failed", len(res.Failed))
	return res, nil
}

func (f *Fanout) mutate(ctx context.Context, op Op, userID int64) (bool, error) {
	switch op {
	case OpBan:
		return f.state.Ban(ctx, userID), nil
	case OpUnban:
		return f.state.Unban(ctx, userID), nil
	case OpMute:
		return f.state.Mute(ctx, userID), nil
	case OpUnmute:
		return f.state.Unmute(ctx, userID), nil
	}
	return false, ErrUnknownOp
}

func (f *Fanout) act(ctx context.Context, op Op, chatID, userID int64) error {
	switch op {
	case OpBan:
		return f.actions.BanMember(ctx, chatID, userID)
	case OpUnban:
		return f.actions.UnbanMember(ctx, chatID, userID)
	case OpMute:
		return f.actions.RestrictMember(ctx, chatID, userID, false)
	case OpUnmute:
		return f.actions.RestrictMember(ctx, chatID, userID, true)
	}
	return ErrUnknownOp
}

func noopError(op Op) error {
	switch op {
	case OpBan:
		return ErrAlreadyBanned
	case OpUnban:
		return ErrNotBanned
	case OpMute:
		return ErrAlreadyMuted
	case OpUnmute:
		return ErrNotMuted
	}
	return ErrUnknownOp
}
