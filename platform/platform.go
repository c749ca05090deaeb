// Package platform describes the chat-platform capabilities the moderation core relies on.
package platform

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// Platform is the set of chat operations the bot needs from the messenger.
type Platform interface {
	// GetChatMember fails if the user is not found in the chat or the bot has no access.
	GetChatMember(ctx context.Context, chatID, userID int64) (MemberInfo, error)
	// GetUserByHandle fails if no user has the handle. The handle has no leading "@".
	GetUserByHandle(ctx context.Context, handle string) (User, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	// SendMessage sends HTML formatted text.
	SendMessage(ctx context.Context, chatID int64, text string) error
	RestrictMember(ctx context.Context, chatID, userID int64, canSend bool) error
	BanMember(ctx context.Context, chatID, userID int64) error
	UnbanMember(ctx context.Context, chatID, userID int64) error
}

// User is a platform account.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName returns the full name, falling back to the handle and then the ID.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf("%d", u.ID)
}

// Mention renders an HTML inline mention of the user.
func (u User) Mention() string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, html.EscapeString(u.DisplayName()))
}

// Message is an inbound chat message.
type Message struct {
	ID      int
	ChatID  int64
	Group   bool
	From    *User
	ReplyTo *Message
	Text    string
}

// Author returns the message sender, if known.
func (m Message) Author() (User, bool) {
	if m.From == nil {
		return User{}, false
	}
	return *m.From, true
}

// MemberInfo is a user's membership in a chat.
type MemberInfo struct {
	Role Role
	User User
}
