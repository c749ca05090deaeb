package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/enforce"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform/platformtest"
)

func newTestBot(t *testing.T) (*Bot, *fixture) {
	f := newFixture(t)
	enforcer := enforce.New(f.store, f.fake)
	t.Cleanup(enforcer.Close)

	return New(nil, f.commands, enforcer, f.store), f
}

func TestAdmitObservesChatsAndUsers(t *testing.T) {
	b, f := newTestBot(t)
	ctx := context.Background()

	assert.True(t, b.admit(ctx, platform.Message{ID: 1, ChatID: -300, Group: true, From: &member, Text: "hi"}))
	assert.True(t, b.admit(ctx, platform.Message{ID: 2, ChatID: outside.ID, From: &outside, Text: "hi"}))

	assert.Equal(t, []int64{-300, otherChat, chat}, f.store.Groups())
	assert.Equal(t, 2, f.store.Stats().Users)
}

func TestAdmitDropsBannedAndMutedAuthors(t *testing.T) {
	b, f := newTestBot(t)
	ctx := context.Background()
	f.store.Ban(ctx, member.ID)
	f.store.Mute(ctx, outside.ID)

	assert.False(t, b.admit(ctx, platform.Message{ID: 3, ChatID: chat, Group: true, From: &member, Text: "/stats"}))
	assert.False(t, b.admit(ctx, platform.Message{ID: 4, ChatID: chat, Group: true, From: &outside, Text: "spam"}))

	assert.Equal(t, []platformtest.Deleted{{ChatID: chat, MessageID: 3}, {ChatID: chat, MessageID: 4}}, f.fake.DeletedMessages())
	bans := f.fake.ActionsOf(platformtest.CallBan)
	require.Len(t, bans, 1)
	assert.Equal(t, member.ID, bans[0].UserID)
}

func TestAdmitSkipsEnforcementInPrivateChats(t *testing.T) {
	b, f := newTestBot(t)
	ctx := context.Background()
	f.store.Mute(ctx, outside.ID)

	assert.True(t, b.admit(ctx, platform.Message{ID: 5, ChatID: outside.ID, From: &outside, Text: "/help"}))
	assert.Empty(t, f.fake.DeletedMessages())
}

func TestHandleCommandParsesArguments(t *testing.T) {
	b, f := newTestBot(t)

	b.handleCommand(context.Background(), "setdelay", platform.Message{
		ID: 6, ChatID: chat, Group: true, From: &admin, Text: "/setdelay@EditGuardBot seconds 45",
	})
	assert.Equal(t, 45, f.store.DelaySeconds(chat))
}

func TestHandleCommandWithoutAuthor(t *testing.T) {
	b, f := newTestBot(t)

	b.handleCommand(context.Background(), "stats", platform.Message{ID: 7, ChatID: chat, Group: true, Text: "/stats"})
	assert.Empty(t, f.fake.SentTexts())
}
