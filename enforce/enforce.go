// Package enforce deletes edited messages after the chat's delay and removes messages
// from globally muted or banned users on arrival.
package enforce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
)

// State is the read-only view of the moderation tables used here.
type State interface {
	IsMuted(userID int64) bool
	IsBanned(userID int64) bool
	IsAuthorized(chatID, userID int64) bool
	Delay(chatID int64) time.Duration
}

// Actions is the slice of the platform used here.
type Actions interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendMessage(ctx context.Context, chatID int64, text string) error
	BanMember(ctx context.Context, chatID, userID int64) error
}

// Outcome of handling one edited message.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeMuted
	OutcomeAuthorized
	OutcomeScheduled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMuted:
		return "muted"
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeScheduled:
		return "scheduled"
	case OutcomeIgnored:
		return "ignored"
	}
	return "ignored"
}

// Arrival is the result of checking a new message.
type Arrival int

const (
	ArrivalPassed Arrival = iota
	ArrivalMuted
	ArrivalBanned
)

func (a Arrival) String() string {
	switch a {
	case ArrivalMuted:
		return "muted"
	case ArrivalBanned:
		return "banned"
	case ArrivalPassed:
		return "passed"
	}
	return "passed"
}

type Option func(*Enforcer)

// WithAfter replaces time.After for the timed deletion wait.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(e *Enforcer) {
		e.after = after
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Enforcer) {
		e.log = logger
	}
}

type Enforcer struct {
	state   State
	actions Actions
	after   func(time.Duration) <-chan time.Time
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(state State, actions Actions, opts ...Option) *Enforcer {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Enforcer{
		state:   state,
		actions: actions,
		after:   time.After,
		log:     slog.Default(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleEdit runs the edit workflow: a muted author's message is deleted at once, an
// authorized author's message stays, anything else is deleted after the chat's delay.
// Each call schedules its own deletion; nothing is debounced or cancelled.
func (e *Enforcer) HandleEdit(ctx context.Context, msg platform.Message) Outcome {
	author, ok := msg.Author()
	if !ok {
		return e.record(OutcomeIgnored)
	}

	if e.state.IsMuted(author.ID) {
		if err := e.actions.DeleteMessage(ctx, msg.ChatID, msg.ID); err != nil {
			deleteFailures.WithLabelValues("muted_edit").Inc()
			e.log.Debug("enforce: Failed to delete muted user's edited message",
				"chat_id", msg.ChatID, "message_id", msg.ID, "user_id", author.ID, "error", err)
		}
		return e.record(OutcomeMuted)
	}

	if e.state.IsAuthorized(msg.ChatID, author.ID) {
		return e.record(OutcomeAuthorized)
	}

	delay := e.state.Delay(msg.ChatID)
	e.log.Info("enforce: Edited message scheduled for deletion",
		"chat_id", msg.ChatID, "message_id", msg.ID, "user_id", author.ID, "delay", delay)

	e.wg.Add(1)
	go e.deleteLater(msg, author, delay)

	return e.record(OutcomeScheduled)
}

func (e *Enforcer) deleteLater(msg platform.Message, author platform.User, delay time.Duration) {
	defer e.wg.Done()

	select {
	case <-e.ctx.Done():
		e.log.Warn("enforce: Pending deletion abandoned on shutdown",
			"chat_id", msg.ChatID, "message_id", msg.ID)
		return
	case <-e.after(delay):
	}

	if err := e.actions.DeleteMessage(e.ctx, msg.ChatID, msg.ID); err != nil {
		// usually already deleted by the author
		deleteFailures.WithLabelValues("timed_edit").Inc()
		e.log.Debug("enforce: Failed to delete edited message, skipping notice",
			"chat_id", msg.ChatID, "message_id", msg.ID, "error", err)
		return
	}
	editsDeleted.Inc()

	if err := e.actions.SendMessage(e.ctx, msg.ChatID, EditNotice(author)); err != nil {
		e.log.Debug("enforce: Failed to send deletion notice", "chat_id", msg.ChatID, "error", err)
	}
}

// HandleArrival runs on every new message. Globally banned authors are banned in the chat
// and their message removed; globally muted authors just lose the message.
func (e *Enforcer) HandleArrival(ctx context.Context, msg platform.Message) Arrival {
	author, ok := msg.Author()
	if !ok {
		return ArrivalPassed
	}

	switch {
	case e.state.IsBanned(author.ID):
		if err := e.actions.BanMember(ctx, msg.ChatID, author.ID); err != nil {
			e.log.Debug("enforce: Failed to ban globally banned user on arrival",
				"chat_id", msg.ChatID, "user_id", author.ID, "error", err)
		}
		e.deleteArrival(ctx, msg, "banned_arrival")
		arrivalsRemoved.WithLabelValues(ArrivalBanned.String()).Inc()
		return ArrivalBanned
	case e.state.IsMuted(author.ID):
		e.deleteArrival(ctx, msg, "muted_arrival")
		arrivalsRemoved.WithLabelValues(ArrivalMuted.String()).Inc()
		return ArrivalMuted
	}
	return ArrivalPassed
}

func (e *Enforcer) deleteArrival(ctx context.Context, msg platform.Message, reason string) {
	if err := e.actions.DeleteMessage(ctx, msg.ChatID, msg.ID); err != nil {
		deleteFailures.WithLabelValues(reason).Inc()
		e.log.Debug("enforce: Failed to delete message on arrival",
			"chat_id", msg.ChatID, "message_id", msg.ID, "reason", reason, "error", err)
	}
}

func (e *Enforcer) record(o Outcome) Outcome {
	editsProcessed.WithLabelValues(o.String()).Inc()
	return o
}

// Wait blocks until every scheduled deletion has finished.
func (e *Enforcer) Wait() {
	e.wg.Wait()
}

// Close abandons pending deletions and waits for their goroutines to exit.
func (e *Enforcer) Close() {
	e.cancel()
	e.wg.Wait()
}

// EditNotice is posted after an edited message is removed.
func EditNotice(author platform.User) string {
	return fmt.Sprintf("✏️ %s edited a message and it was deleted by the bot after the saved time.", author.Mention())
}
