package enforce

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform/platformtest"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/state"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/storage"
)

const chat = int64(100)

// manualTimer hands out one channel per wait and records the requested delays.
type manualTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	fires  []chan time.Time
}

func (m *manualTimer) after(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan time.Time, 1)
	m.delays = append(m.delays, d)
	m.fires = append(m.fires, ch)
	return ch
}

func (m *manualTimer) fireAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.fires {
		ch <- time.Now()
	}
	m.fires = nil
}

func (m *manualTimer) requested() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]time.Duration(nil), m.delays...)
}

// waitForTimers blocks until n waits have been requested.
func (m *manualTimer) waitForTimers(t *testing.T, n int) {
	require.Eventually(t, func() bool {
		return len(m.requested()) >= n
	}, time.Second, time.Millisecond)
}

func fixture(t *testing.T) (*state.Store, *platformtest.Fake, *manualTimer, *Enforcer) {
	store := state.New(1, storage.NewJSONFile(filepath.Join(t.TempDir(), "bot_data.json")), nil)
	fake := platformtest.New()
	timer := &manualTimer{}
	e := New(store, fake, WithAfter(timer.after))
	t.Cleanup(e.Close)
	return store, fake, timer, e
}

func edit(userID int64, messageID int) platform.Message {
	return platform.Message{
		ID:     messageID,
		ChatID: chat,
		Group:  true,
		From:   &platform.User{ID: userID, FirstName: "User"},
	}
}

func TestEditDeletedAfterDefaultDelay(t *testing.T) {
	_, fake, timer, e := fixture(t)

	assert.Equal(t, OutcomeScheduled, e.HandleEdit(context.Background(), edit(7, 1)))
	timer.waitForTimers(t, 1)
	assert.Equal(t, []time.Duration{10 * time.Second}, timer.requested())
	assert.Empty(t, fake.DeletedMessages())

	timer.fireAll()
	e.Wait()

	assert.Equal(t, []platformtest.Deleted{{ChatID: chat, MessageID: 1}}, fake.DeletedMessages())
	sent := fake.SentTexts()
	require.Len(t, sent, 1)
	assert.Equal(t, chat, sent[0].ChatID)
	assert.Contains(t, sent[0].Text, `<a href="tg://user?id=7">User</a>`)
	assert.Contains(t, sent[0].Text, "after the saved time")
}

func TestEditUsesChatDelay(t *testing.T) {
	store, fake, timer, e := fixture(t)
	require.NoError(t, store.SetDelay(context.Background(), chat, 45))

	e.HandleEdit(context.Background(), edit(7, 1))
	timer.waitForTimers(t, 1)
	assert.Equal(t, []time.Duration{45 * time.Second}, timer.requested())

	timer.fireAll()
	e.Wait()
	assert.Len(t, fake.SentTexts(), 1)
}

func TestAuthorizedEditStands(t *testing.T) {
	store, fake, timer, e := fixture(t)
	ctx := context.Background()
	store.Authorize(ctx, chat, 7)

	assert.Equal(t, OutcomeAuthorized, e.HandleEdit(ctx, edit(7, 1)))
	e.Wait()
	assert.Empty(t, timer.requested())
	assert.Empty(t, fake.DeletedMessages())

	store.Unauthorize(ctx, chat, 7)
	assert.Equal(t, OutcomeScheduled, e.HandleEdit(ctx, edit(7, 1)))
	timer.waitForTimers(t, 1)
	timer.fireAll()
	e.Wait()
	assert.Len(t, fake.DeletedMessages(), 1)
}

func TestMuteWinsOverAuthorization(t *testing.T) {
	store, fake, timer, e := fixture(t)
	ctx := context.Background()
	store.Authorize(ctx, chat, 7)
	store.Mute(ctx, 7)

	assert.Equal(t, OutcomeMuted, e.HandleEdit(ctx, edit(7, 1)))
	assert.Equal(t, []platformtest.Deleted{{ChatID: chat, MessageID: 1}}, fake.DeletedMessages())
	assert.Empty(t, fake.SentTexts())
	assert.Empty(t, timer.requested())

	assert.Equal(t, ArrivalMuted, e.HandleArrival(ctx, edit(7, 2)))
	assert.Len(t, fake.DeletedMessages(), 2)
}

func TestRepeatedEditsAreIndependent(t *testing.T) {
	_, fake, timer, e := fixture(t)
	ctx := context.Background()

	e.HandleEdit(ctx, edit(7, 1))
	e.HandleEdit(ctx, edit(7, 1))
	e.HandleEdit(ctx, edit(8, 2))
	timer.waitForTimers(t, 3)

	timer.fireAll()
	e.Wait()

	assert.Len(t, fake.DeletedMessages(), 3)
	assert.Len(t, fake.SentTexts(), 3)
}

func TestFailedDeleteSkipsNotice(t *testing.T) {
	_, fake, timer, e := fixture(t)
	fake.FailIn(platformtest.CallDelete, chat)

	e.HandleEdit(context.Background(), edit(7, 1))
	timer.waitForTimers(t, 1)
	timer.fireAll()
	e.Wait()

	assert.Empty(t, fake.DeletedMessages())
	assert.Empty(t, fake.SentTexts())
}

func TestEditWithoutAuthorIgnored(t *testing.T) {
	_, fake, _, e := fixture(t)

	assert.Equal(t, OutcomeIgnored, e.HandleEdit(context.Background(), platform.Message{ID: 1, ChatID: chat}))
	assert.Equal(t, ArrivalPassed, e.HandleArrival(context.Background(), platform.Message{ID: 1, ChatID: chat}))
	assert.Empty(t, fake.DeletedMessages())
}

func TestArrivalOfBannedUser(t *testing.T) {
	store, fake, _, e := fixture(t)
	ctx := context.Background()
	store.Ban(ctx, 9)

	assert.Equal(t, ArrivalBanned, e.HandleArrival(ctx, edit(9, 3)))
	assert.Equal(t, []platformtest.Action{{Kind: platformtest.CallBan, ChatID: chat, UserID: 9}},
		fake.ActionsOf(platformtest.CallBan))
	assert.Len(t, fake.DeletedMessages(), 1)

	assert.Equal(t, ArrivalPassed, e.HandleArrival(ctx, edit(7, 4)))
	assert.Len(t, fake.DeletedMessages(), 1)
}

func TestCloseAbandonsPendingDeletion(t *testing.T) {
	store := state.New(1, storage.NewJSONFile(filepath.Join(t.TempDir(), "bot_data.json")), nil)
	fake := platformtest.New()
	timer := &manualTimer{}
	e := New(store, fake, WithAfter(timer.after))

	e.HandleEdit(context.Background(), edit(7, 1))
	timer.waitForTimers(t, 1)
	e.Close()

	assert.Empty(t, fake.DeletedMessages())
	assert.Empty(t, fake.SentTexts())
}
