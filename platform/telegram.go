package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

var ErrNotAUser = errors.New("handle does not belong to a user")

// Telegram implements Platform on top of the Telegram Bot API.
type Telegram struct {
	api *telego.Bot
}

func NewTelegram(api *telego.Bot) *Telegram {
	return &Telegram{api: api}
}

func (t *Telegram) GetChatMember(ctx context.Context, chatID, userID int64) (MemberInfo, error) {
	member, err := t.api.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		return MemberInfo{}, fmt.Errorf("failed to get chat member: %w", err)
	}

	return MemberInfo{
		Role: RoleFromStatus(member.MemberStatus()),
		User: UserFromTelego(member.MemberUser()),
	}, nil
}

func (t *Telegram) GetUserByHandle(ctx context.Context, handle string) (User, error) {
	chat, err := t.api.GetChat(ctx, &telego.GetChatParams{ChatID: tu.Username("@" + handle)})
	if err != nil {
		return User{}, fmt.Errorf("failed to get chat by handle: %w", err)
	}
	if chat.Type != telego.ChatTypePrivate {
		return User{}, ErrNotAUser
	}

	return User{
		ID:        chat.ID,
		Username:  chat.Username,
		FirstName: chat.FirstName,
		LastName:  chat.LastName,
	}, nil
}

func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	err := t.api.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := t.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// RestrictMember with canSend=false revokes every send permission. With canSend=true the
// chat's default permissions are applied, so the user ends up where an ordinary member is.
func (t *Telegram) RestrictMember(ctx context.Context, chatID, userID int64, canSend bool) error {
	permissions := muted()
	if canSend {
		permissions = t.defaultPermissions(ctx, chatID)
	}

	err := t.api.RestrictChatMember(ctx, &telego.RestrictChatMemberParams{
		ChatID:      tu.ID(chatID),
		UserID:      userID,
		Permissions: permissions,
	})
	if err != nil {
		return fmt.Errorf("failed to restrict member: %w", err)
	}
	return nil
}

func (t *Telegram) BanMember(ctx context.Context, chatID, userID int64) error {
	err := t.api.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		return fmt.Errorf("failed to ban member: %w", err)
	}
	return nil
}

func (t *Telegram) UnbanMember(ctx context.Context, chatID, userID int64) error {
	err := t.api.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID:       tu.ID(chatID),
		UserID:       userID,
		OnlyIfBanned: true,
	})
	if err != nil {
		return fmt.Errorf("failed to unban member: %w", err)
	}
	return nil
}

func (t *Telegram) defaultPermissions(ctx context.Context, chatID int64) telego.ChatPermissions {
	chat, err := t.api.GetChat(ctx, &telego.GetChatParams{ChatID: tu.ID(chatID)})
	if err != nil || chat.Permissions == nil {
		slog.Debug("platform: Chat default permissions unavailable, granting send permissions",
			"chat_id", chatID, "error", err)
		return sending(true)
	}
	return *chat.Permissions
}

func muted() telego.ChatPermissions {
	return sending(false)
}

// sending sets only the send-related permissions. Admin-like permissions are left unset.
func sending(allowed bool) telego.ChatPermissions {
	v := &allowed
	return telego.ChatPermissions{
		CanSendMessages:       v,
		CanSendAudios:         v,
		CanSendDocuments:      v,
		CanSendPhotos:         v,
		CanSendVideos:         v,
		CanSendVideoNotes:     v,
		CanSendVoiceNotes:     v,
		CanSendPolls:          v,
		CanSendOtherMessages:  v,
		CanAddWebPagePreviews: v,
	}
}

// UserFromTelego converts a Bot API user.
func UserFromTelego(u telego.User) User {
	return User{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// MessageFromTelego converts a Bot API message, including the replied-to message.
func MessageFromTelego(m *telego.Message) Message {
	msg := Message{
		ID:     m.MessageID,
		ChatID: m.Chat.ID,
		Group:  m.Chat.Type == telego.ChatTypeGroup || m.Chat.Type == telego.ChatTypeSupergroup,
		Text:   m.Text,
	}
	if msg.Text == "" {
		msg.Text = m.Caption
	}
	if m.From != nil {
		from := UserFromTelego(*m.From)
		msg.From = &from
	}
	if m.ReplyToMessage != nil {
		reply := MessageFromTelego(m.ReplyToMessage)
		msg.ReplyTo = &reply
	}
	return msg
}
