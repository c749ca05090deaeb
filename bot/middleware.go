package bot

import (
	"context"
	"log/slog"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/enforce"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
)

// moderationMiddleware records every chat and sender it sees and stops new messages from
// globally banned or muted users before any command handler runs.
func (b *Bot) moderationMiddleware(ctx *th.Context, update telego.Update) error {
	switch {
	case update.Message != nil:
		if !b.admit(ctx, platform.MessageFromTelego(update.Message)) {
			return nil
		}
	case update.EditedMessage != nil:
		b.observe(ctx, platform.MessageFromTelego(update.EditedMessage))
	}

	return ctx.Next(update)
}

// admit reports whether a new message may continue to the handlers
func (b *Bot) admit(ctx context.Context, msg platform.Message) bool {
	b.observe(ctx, msg)
	if !msg.Group {
		return true
	}

	arrival := b.enforcer.HandleArrival(ctx, msg)
	if arrival != enforce.ArrivalPassed {
		slog.Debug("bot: Message dropped", "chat_id", msg.ChatID, "message_id", msg.ID, "reason", arrival.String())
		return false
	}
	return true
}

func (b *Bot) observe(ctx context.Context, msg platform.Message) {
	var userID int64
	if author, ok := msg.Author(); ok {
		userID = author.ID
	}
	b.store.Observe(ctx, msg.ChatID, msg.Group, userID)
}
