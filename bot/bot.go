package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/enforce"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/state"
)

var (
	ErrAPIInit        = errors.New("cannot initialize bot api")
	ErrGetMe          = errors.New("cannot retrieve api user")
	ErrUpdatesChannel = errors.New("cannot get updates channel")
	ErrHandlerInit    = errors.New("cannot initialize handler")
)

type Bot struct {
	api      *telego.Bot
	commands *Commands
	enforcer *enforce.Enforcer
	store    *state.Store
}

func New(api *telego.Bot, commands *Commands, enforcer *enforce.Enforcer, store *state.Store) *Bot {
	return &Bot{
		api:      api,
		commands: commands,
		enforcer: enforcer,
		store:    store,
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	botUser, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGetMe, err)
	}

	slog.Info("bot: Running api as",
		"id", botUser.ID,
		"username", botUser.Username,
		"name", botUser.FirstName,
	)

	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		AllowedUpdates: []string{"message", "edited_message"},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdatesChannel, err)
	}

	bh, err := th.NewBotHandler(b.api, updates)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHandlerInit, err)
	}

	bh.Use(b.moderationMiddleware)

	for _, name := range b.commands.Names() {
		bh.Handle(b.commandHandler(name), th.CommandEqual(name))
	}
	bh.Handle(b.editHandler, th.AnyEditedMessage())
	// lets the middleware see plain messages too
	bh.Handle(func(*th.Context, telego.Update) error { return nil }, th.AnyMessage())

	go func() {
		<-ctx.Done()
		if err := bh.Stop(); err != nil {
			slog.Error("bot: Failed to stop handler", "error", err)
		}
	}()

	slog.Info("bot: Handling updates", "commands", len(b.commands.Names()))
	return bh.Start()
}

func (b *Bot) commandHandler(name string) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		b.handleCommand(ctx, name, platform.MessageFromTelego(update.Message))
		return nil
	}
}

func (b *Bot) handleCommand(ctx context.Context, name string, msg platform.Message) {
	author, ok := msg.Author()
	if !ok {
		return
	}
	b.commands.Dispatch(ctx, name, Request{
		ChatID:  msg.ChatID,
		Actor:   author,
		ReplyTo: msg.ReplyTo,
		Args:    commandArgs(msg.Text),
	})
}

func (b *Bot) editHandler(ctx *th.Context, update telego.Update) error {
	msg := platform.MessageFromTelego(update.EditedMessage)
	if !msg.Group {
		return nil
	}
	outcome := b.enforcer.HandleEdit(ctx, msg)
	slog.Debug("bot: Edit handled", "chat_id", msg.ChatID, "message_id", msg.ID, "outcome", outcome.String())
	return nil
}
