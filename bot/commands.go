package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/fanout"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/privilege"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/resolve"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/state"
)

// Request is one command invocation.
type Request struct {
	ChatID  int64
	Actor   platform.User
	ReplyTo *platform.Message
	Args    []string
}

type handlerFunc func(ctx context.Context, req Request)

// Commands implements every bot command on top of the moderation core.
type Commands struct {
	store      *state.Store
	privileges *privilege.Checker
	resolver   *resolve.Resolver
	fanout     *fanout.Fanout
	platform   platform.Platform
	started    time.Time
	now        func() time.Time

	handlers map[string]handlerFunc
}

func NewCommands(
	store *state.Store,
	privileges *privilege.Checker,
	resolver *resolve.Resolver,
	fan *fanout.Fanout,
	p platform.Platform,
) *Commands {
	c := &Commands{
		store:      store,
		privileges: privileges,
		resolver:   resolver,
		fanout:     fan,
		platform:   p,
		started:    time.Now(),
		now:        time.Now,
	}
	c.handlers = map[string]handlerFunc{
		"start":       c.startHandler,
		"help":        c.helpHandler,
		"auth":        c.authHandler,
		"unauth":      c.unauthHandler,
		"authusers":   c.authUsersHandler,
		"setdelay":    c.setDelayHandler,
		"gban":        c.globalHandler(fanout.OpBan),
		"ungban":      c.globalHandler(fanout.OpUnban),
		"gmute":       c.globalHandler(fanout.OpMute),
		"ungmute":     c.globalHandler(fanout.OpUnmute),
		"addsudouser": c.addSudoHandler,
		"rmsudouser":  c.rmSudoHandler,
		"sudousers":   c.sudoUsersHandler,
		"stats":       c.statsHandler,
		"uptime":      c.uptimeHandler,
	}
	return c
}

// Names lists every command in alphabetical order.
func (c *Commands) Names() []string {
	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch runs the named command. Unknown names are ignored.
func (c *Commands) Dispatch(ctx context.Context, name string, req Request) {
	handler, ok := c.handlers[name]
	if !ok {
		slog.Debug("bot: Unknown command", "command", name)
		return
	}
	slog.Info("bot: Command received", "command", name, "chat_id", req.ChatID, "user_id", req.Actor.ID)
	handler(ctx, req)
}

func (c *Commands) reply(ctx context.Context, chatID int64, text string) {
	if err := c.platform.SendMessage(ctx, chatID, text); err != nil {
		slog.Error("bot: Failed to send reply", "error", err, "chat_id", chatID, "text_length", len(text))
	}
}

// memberMention looks the user up in the chat, falling back to the bare ID.
func (c *Commands) memberMention(ctx context.Context, chatID, userID int64) string {
	member, err := c.platform.GetChatMember(ctx, chatID, userID)
	if err != nil {
		return codeID(userID)
	}
	return member.User.Mention()
}

// subjectID takes the reply author or a single positive numeric argument.
func subjectID(req Request) (id int64, user *platform.User, err error) {
	if req.ReplyTo != nil {
		if author, ok := req.ReplyTo.Author(); ok {
			return author.ID, &author, nil
		}
	}
	if len(req.Args) != 1 {
		return 0, nil, errUsage
	}
	id, ok := resolve.ParseUserID(req.Args[0])
	if !ok {
		return 0, nil, errBadID
	}
	return id, nil, nil
}

var (
	errUsage = errors.New("usage")
	errBadID = errors.New("bad id")
)

func (c *Commands) startHandler(ctx context.Context, req Request) {
	c.reply(ctx, req.ChatID, fmt.Sprintf(
		"• Hello %s\n\n"+
			"• I delete edited messages after a set delay to keep conversations honest.\n"+
			"• Admins can exempt trusted users and tune the timer.\n\n"+
			"➜ <b>Add me to your group to get started.</b> Send /help for the command list.",
		req.Actor.Mention(),
	))
}

func (c *Commands) helpHandler(ctx context.Context, req Request) {
	c.reply(ctx, req.ChatID, "<b>🛡️ Edit Guard Help</b>\n\n"+
		"Edited messages are deleted after the chat's delay (10 seconds by default).\n\n"+
		"<b>Chat admins</b>\n"+
		"/auth &lt;user_id&gt; or reply - exempt a user\n"+
		"/unauth &lt;user_id&gt; or reply - remove the exemption\n"+
		"/setdelay &lt;seconds|minutes|hours&gt; &lt;amount&gt; - set the delay\n\n"+
		"<b>Sudo users</b>\n"+
		"/gban, /ungban, /gmute, /ungmute &lt;user_id|@username&gt; or reply\n\n"+
		"<b>Owner</b>\n"+
		"/addsudouser &lt;user_id&gt; &lt;sub|desc&gt;, /rmsudouser &lt;user_id&gt;\n\n"+
		"<b>Everyone</b>\n"+
		"/authusers, /sudousers, /stats, /uptime")
}

func (c *Commands) authHandler(ctx context.Context, req Request) {
	if !c.privileges.IsChatAdmin(ctx, req.ChatID, req.Actor.ID) && !c.privileges.IsSudo(req.Actor.ID) {
		c.reply(ctx, req.ChatID, "❌ Only admins, owners, or sudo users can authorize users.")
		return
	}

	userID, user, err := subjectID(req)
	switch {
	case errors.Is(err, errBadID):
		c.reply(ctx, req.ChatID, "Invalid user ID. Please provide a valid positive integer.")
		return
	case err != nil:
		c.reply(ctx, req.ChatID, "Usage: /auth &lt;user_id&gt;\nOr reply to a user's message with /auth")
		return
	}

	mention := mentionOrID(user, userID)
	if user == nil {
		mention = c.memberMention(ctx, req.ChatID, userID)
	}

	if !c.store.Authorize(ctx, req.ChatID, userID) {
		c.reply(ctx, req.ChatID, fmt.Sprintf("User %s is already authorized in this chat.", mention))
		return
	}

	slog.Info("bot: User authorized", "chat_id", req.ChatID, "user_id", userID, "by", req.Actor.ID)
	c.reply(ctx, req.ChatID, fmt.Sprintf(
		"✅ <b>User %s has been authorized successfully!</b>\n\nThey can now edit messages without automatic deletion.",
		mention,
	))
}

func (c *Commands) unauthHandler(ctx context.Context, req Request) {
	if !c.privileges.IsChatAdmin(ctx, req.ChatID, req.Actor.ID) {
		c.reply(ctx, req.ChatID, "❌ Only admins or owners can unauthorize users.")
		return
	}

	userID, user, err := subjectID(req)
	switch {
	case errors.Is(err, errBadID):
		c.reply(ctx, req.ChatID, "Invalid user ID. Please provide a valid positive integer.")
		return
	case err != nil:
		c.reply(ctx, req.ChatID, "Usage: /unauth &lt;user_id&gt;\nOr reply to a user's message with /unauth")
		return
	}

	if !c.store.Unauthorize(ctx, req.ChatID, userID) {
		c.reply(ctx, req.ChatID, "User is not authorized in this chat.")
		return
	}

	mention := mentionOrID(user, userID)
	if user == nil {
		mention = c.memberMention(ctx, req.ChatID, userID)
	}

	slog.Info("bot: User unauthorized", "chat_id", req.ChatID, "user_id", userID, "by", req.Actor.ID)
	c.reply(ctx, req.ChatID, fmt.Sprintf(
		"🚫 <b>User %s has been unauthorized successfully!</b>\n\nThey will now be subject to automatic deletion of edited messages.",
		mention,
	))
}

func (c *Commands) authUsersHandler(ctx context.Context, req Request) {
	users := c.store.AuthorizedUsers(req.ChatID)
	if len(users) == 0 {
		c.reply(ctx, req.ChatID, "No users are authorized in this chat.")
		return
	}

	lines := make([]string, 0, len(users))
	for _, userID := range users {
		lines = append(lines, "• "+c.memberMention(ctx, req.ChatID, userID))
	}
	c.reply(ctx, req.ChatID, "<b>✅ Authorized Users in this chat:</b>\n"+strings.Join(lines, "\n"))
}

func (c *Commands) setDelayHandler(ctx context.Context, req Request) {
	if !c.privileges.IsChatAdmin(ctx, req.ChatID, req.Actor.ID) {
		c.reply(ctx, req.ChatID, "❌ Only admins or owners can set the deletion delay.")
		return
	}

	switch len(req.Args) {
	case 0:
		c.reply(ctx, req.ChatID, fmt.Sprintf(
			"Usage: /setdelay [seconds|minutes|hours] [amount]\nCurrent delay: <b>%d seconds</b>.",
			c.store.DelaySeconds(req.ChatID),
		))
		return
	case 1:
		unit := strings.ToLower(req.Args[0])
		if _, ok := delaySuggestions[unit]; !ok {
			c.reply(ctx, req.ChatID, "Invalid unit. Please choose from seconds, minutes, or hours.")
			return
		}
		c.reply(ctx, req.ChatID, formatSuggestions(unit))
		return
	case 2:
	default:
		c.reply(ctx, req.ChatID, "Usage: /setdelay [seconds|minutes|hours] [amount]")
		return
	}

	seconds, err := ParseDelay(req.Args[0], req.Args[1])
	switch {
	case errors.Is(err, ErrInvalidDelayUnit):
		c.reply(ctx, req.ChatID, "Invalid unit. Please choose from seconds, minutes, or hours.")
		return
	case errors.Is(err, ErrInvalidDelayAmount):
		c.reply(ctx, req.ChatID, "Please provide a valid number for the delay.")
		return
	case errors.Is(err, ErrDelayOutOfRange):
		c.reply(ctx, req.ChatID, rangeMessage(req.Args[0]))
		return
	case err != nil:
		slog.Error("bot: Unexpected delay parse error", "error", err)
		return
	}

	if err := c.store.SetDelay(ctx, req.ChatID, seconds); err != nil {
		slog.Error("bot: Failed to set delay", "error", err, "chat_id", req.ChatID)
		c.reply(ctx, req.ChatID, "An unexpected error occurred while setting the delay.")
		return
	}

	slog.Info("bot: Delay changed", "chat_id", req.ChatID, "seconds", seconds, "by", req.Actor.ID)
	c.reply(ctx, req.ChatID, fmt.Sprintf("✅ Deletion delay has been set to <b>%d seconds</b> for this chat.", seconds))
}

func rangeMessage(unit string) string {
	switch strings.ToLower(unit) {
	case UnitSeconds:
		return "Seconds must be between 1 and 3600."
	case UnitMinutes:
		return "Minutes must be between 1 and 60."
	case UnitHours:
		return "Hours can only be set to 1 (3600 seconds)."
	}
	return "Invalid unit. Please choose from seconds, minutes, or hours."
}

func (c *Commands) statsHandler(ctx context.Context, req Request) {
	stats := c.store.Stats()
	c.reply(ctx, req.ChatID, fmt.Sprintf(
		"<b>📊 Bot Statistics:</b>\n"+
			"• <b>Groups:</b> %d\n"+
			"• <b>Users:</b> %d\n"+
			"• <b>Global Bans:</b> %d\n"+
			"• <b>Global Mutes:</b> %d\n"+
			"• <b>Sudo Users:</b> %d\n"+
			"• <b>Modules:</b> %d\n"+
			"• <b>Uptime:</b> %s",
		stats.Groups, stats.Users, stats.Bans, stats.Mutes, stats.Sudoers,
		len(c.handlers), formatUptime(c.now().Sub(c.started)),
	))
}

func (c *Commands) uptimeHandler(ctx context.Context, req Request) {
	c.reply(ctx, req.ChatID, fmt.Sprintf(
		"⏱️ <b>Bot Uptime</b>\n<b>🟢 Online for:</b> <code>%s</code>",
		formatUptime(c.now().Sub(c.started)),
	))
}
