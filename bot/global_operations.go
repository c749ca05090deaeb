package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/fanout"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/resolve"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/state"
)

type globalTexts struct {
	done   string
	detail string
	failed string
	noop   string
}

var globalReplies = map[fanout.Op]globalTexts{
	fanout.OpBan: {
		done:   "🚫 <b>%s</b> has been <b>globally banned</b>.",
		detail: "Banned in <b>%d</b> out of <b>%d</b> group(s) where the bot is present.",
		failed: "⚠️ Could not ban user in %d group(s) (bot may lack permissions).",
		noop:   "User is already globally banned.",
	},
	fanout.OpUnban: {
		done:   "✅ <b>%s</b> has been <b>globally unbanned</b>.",
		detail: "Unbanned in <b>%d</b> out of <b>%d</b> group(s) where the bot is present.",
		failed: "⚠️ Could not unban user in %d group(s) (bot may lack permissions).",
		noop:   "User is not globally banned.",
	},
	fanout.OpMute: {
		done:   "🔇 <b>%s</b> has been <b>globally muted</b>.",
		detail: "All messages from this user will be deleted. Restricted in <b>%d</b> out of <b>%d</b> group(s).",
		failed: "⚠️ Could not restrict user in %d group(s) (bot may lack permissions).",
		noop:   "User is already globally muted.",
	},
	fanout.OpUnmute: {
		done:   "✅ <b>%s</b> has been <b>globally unmuted</b>.",
		detail: "The user will be allowed to send messages. Unrestricted in <b>%d</b> out of <b>%d</b> group(s).",
		failed: "⚠️ Could not unrestrict user in %d group(s) (bot may lack permissions).",
		noop:   "User is not globally muted.",
	},
}

// globalHandler builds the handler for one of the sudo-only global operations
func (c *Commands) globalHandler(op fanout.Op) handlerFunc {
	texts := globalReplies[op]

	return func(ctx context.Context, req Request) {
		if !c.privileges.IsSudo(req.Actor.ID) {
			c.reply(ctx, req.ChatID, "❌ Only sudo users can use this command.")
			return
		}

		target, err := c.resolver.Resolve(ctx, req.ChatID, req.ReplyTo, req.Args)
		if err != nil {
			c.reply(ctx, req.ChatID, "❌ <b>Couldn't find the user. Please reply or provide a valid user ID/username.</b>")
			return
		}

		res, err := c.fanout.Apply(ctx, op, target.ID)
		switch {
		case errors.Is(err, fanout.ErrAlreadyBanned), errors.Is(err, fanout.ErrNotBanned),
			errors.Is(err, fanout.ErrAlreadyMuted), errors.Is(err, fanout.ErrNotMuted):
			c.reply(ctx, req.ChatID, texts.noop)
			return
		case err != nil:
			slog.Error("bot: Global operation failed", "error", err, "op", op.String(), "user_id", target.ID)
			c.reply(ctx, req.ChatID, "An error occurred while applying the global operation.")
			return
		}

		slog.Info("bot: Global operation done", "op", op.String(), "user_id", target.ID, "by", req.Actor.ID,
			"succeeded", len(res.Succeeded), "failed", len(res.Failed))
		c.reply(ctx, req.ChatID, fmt.Sprintf(texts.done, target.Mention())+"\n"+
			fmt.Sprintf(texts.detail, len(res.Succeeded), res.Total()))
		if len(res.Failed) > 0 {
			c.reply(ctx, req.ChatID, fmt.Sprintf(texts.failed, len(res.Failed)))
		}
	}
}

func (c *Commands) addSudoHandler(ctx context.Context, req Request) {
	if !c.privileges.IsOwner(req.Actor.ID) {
		c.reply(ctx, req.ChatID, "❌ Only the bot owner can add sudo users.")
		return
	}

	var userID int64
	ok := len(req.Args) >= 2
	if ok {
		userID, ok = resolve.ParseUserID(req.Args[0])
	}
	if !ok {
		c.reply(ctx, req.ChatID, "🚦 <b>Usage:</b> <code>/addsudouser &lt;user_id&gt; &lt;type:sub|desc&gt;</code>\n"+
			"• <b>sub</b> - Assign as <b>Substitute Lord</b> (full sudo powers)\n"+
			"• <b>desc</b> - Assign as <b>Descendant</b> (limited sudo powers)")
		return
	}

	var tier state.Tier
	switch strings.ToLower(req.Args[1]) {
	case "sub":
		tier = state.TierDeputy
	case "desc":
		tier = state.TierDescendant
	default:
		c.reply(ctx, req.ChatID, "❌ <b>Invalid type.</b> Use <code>sub</code> for Substitute Lord or <code>desc</code> for Descendant.")
		return
	}

	added, err := c.store.Grant(ctx, userID, tier)
	if errors.Is(err, state.ErrOwnerImmutable) {
		c.reply(ctx, req.ChatID, "❌ The owner is already a sudo user.")
		return
	}
	if err != nil {
		slog.Error("bot: Failed to grant privilege", "error", err, "user_id", userID)
		return
	}

	title := tierTitle(tier)
	if !added {
		c.reply(ctx, req.ChatID, fmt.Sprintf("User %s is already a %s.", codeID(userID), title))
		return
	}

	slog.Info("bot: Privilege granted", "user_id", userID, "tier", tier.String())
	c.reply(ctx, req.ChatID, fmt.Sprintf("👑 %s now holds the rank of <b>%s</b>.", codeID(userID), title))
}

func (c *Commands) rmSudoHandler(ctx context.Context, req Request) {
	if !c.privileges.IsOwner(req.Actor.ID) {
		c.reply(ctx, req.ChatID, "❌ Only the bot owner can remove sudo users.")
		return
	}

	var userID int64
	ok := len(req.Args) >= 1
	if ok {
		userID, ok = resolve.ParseUserID(req.Args[0])
	}
	if !ok {
		c.reply(ctx, req.ChatID, "🚦 <b>Usage:</b> <code>/rmsudouser &lt;user_id&gt;</code>")
		return
	}

	removed, err := c.store.Revoke(ctx, userID)
	if errors.Is(err, state.ErrOwnerImmutable) {
		c.reply(ctx, req.ChatID, "❌ You cannot remove the owner from sudo users.")
		return
	}
	if err != nil {
		slog.Error("bot: Failed to revoke privilege", "error", err, "user_id", userID)
		return
	}
	if !removed {
		c.reply(ctx, req.ChatID, fmt.Sprintf("User %s is not a sudo user.", codeID(userID)))
		return
	}

	slog.Info("bot: Privilege revoked", "user_id", userID)
	c.reply(ctx, req.ChatID, fmt.Sprintf("✅ User %s removed from sudo users.", codeID(userID)))
}

func (c *Commands) sudoUsersHandler(ctx context.Context, req Request) {
	lines := []string{
		"👑 <b>Sudo Users</b>",
		"👑 <b>Lord:</b> " + c.memberMention(ctx, req.ChatID, c.store.Owner()),
	}
	lines = append(lines, c.tierLines(ctx, req.ChatID, "🦸 <b>Substitute Lords:</b>", c.store.Deputies())...)
	lines = append(lines, c.tierLines(ctx, req.ChatID, "🧬 <b>Descendants:</b>", c.store.Descendants())...)
	lines = append(lines, "Only the Lord can manage sudo users.")

	c.reply(ctx, req.ChatID, strings.Join(lines, "\n"))
}

func (c *Commands) tierLines(ctx context.Context, chatID int64, header string, ids []int64) []string {
	lines := []string{header}
	if len(ids) == 0 {
		return append(lines, "   └ None")
	}
	for _, id := range ids {
		lines = append(lines, "   └ "+c.memberMention(ctx, chatID, id))
	}
	return lines
}

func tierTitle(t state.Tier) string {
	switch t {
	case state.TierOwner:
		return "Lord"
	case state.TierDeputy:
		return "Substitute Lord"
	case state.TierDescendant:
		return "Descendant"
	case state.TierNone:
		return "regular user"
	}
	return "regular user"
}
