// Package resolve turns a command's subject into a concrete user.
package resolve

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
)

var ErrTargetNotFound = errors.New("could not resolve target user")

// Lookup is the slice of the platform needed for resolution.
type Lookup interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (platform.MemberInfo, error)
	GetUserByHandle(ctx context.Context, handle string) (platform.User, error)
}

type Resolver struct {
	lookup Lookup
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve picks, in order: the author of the replied-to message, then the first argument
// as a numeric ID looked up in the chat, then the same argument as a handle.
func (r *Resolver) Resolve(ctx context.Context, chatID int64, reply *platform.Message, args []string) (platform.User, error) {
	if reply != nil {
		if author, ok := reply.Author(); ok {
			return author, nil
		}
	}

	if len(args) == 0 || args[0] == "" {
		return platform.User{}, ErrTargetNotFound
	}
	arg := args[0]

	if id, ok := ParseUserID(arg); ok {
		member, err := r.lookup.GetChatMember(ctx, chatID, id)
		if err == nil {
			return member.User, nil
		}
		slog.Debug("resolve: User ID lookup failed, trying as handle", "chat_id", chatID, "user_id", id, "error", err)
	}

	handle := strings.TrimLeft(arg, "@")
	if handle == "" {
		return platform.User{}, ErrTargetNotFound
	}
	user, err := r.lookup.GetUserByHandle(ctx, handle)
	if err != nil {
		slog.Debug("resolve: Handle lookup failed", "handle", handle, "error", err)
		return platform.User{}, ErrTargetNotFound
	}
	return user, nil
}

// ParseUserID accepts only positive decimal integers.
func ParseUserID(arg string) (int64, bool) {
	if arg == "" || strings.IndexFunc(arg, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
