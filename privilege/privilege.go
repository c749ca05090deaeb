// Package privilege decides who may run administrative commands.
package privilege

import (
	"context"
	"log/slog"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/state"
)

// Tiers exposes the privilege hierarchy.
type Tiers interface {
	TierOf(userID int64) state.Tier
}

// MemberLookup is the slice of the platform needed for chat admin checks.
type MemberLookup interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (platform.MemberInfo, error)
}

type Checker struct {
	tiers   Tiers
	members MemberLookup
}

func NewChecker(tiers Tiers, members MemberLookup) *Checker {
	return &Checker{tiers: tiers, members: members}
}

func (c *Checker) IsOwner(userID int64) bool {
	return c.tiers.TierOf(userID) == state.TierOwner
}

// IsSudo is true for the owner, deputies and descendants.
func (c *Checker) IsSudo(userID int64) bool {
	switch c.tiers.TierOf(userID) {
	case state.TierOwner, state.TierDeputy, state.TierDescendant:
		return true
	case state.TierNone:
		return false
	}
	return false
}

// IsChatAdmin fails closed: any lookup error means not an admin.
func (c *Checker) IsChatAdmin(ctx context.Context, chatID, userID int64) bool {
	member, err := c.members.GetChatMember(ctx, chatID, userID)
	if err != nil {
		slog.Debug("privilege: Chat member lookup failed, treating as non-admin",
			"chat_id", chatID, "user_id", userID, "error", err)
		return false
	}
	return member.Role.IsAdmin()
}
