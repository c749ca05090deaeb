// Package platformtest provides an in-memory platform.Platform for tests.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInjected = errors.New("injected failure")
)

// Call kinds that can be made to fail.
const (
	CallDelete   = "delete"
	CallSend     = "send"
	CallRestrict = "restrict"
	CallBan      = "ban"
	CallUnban    = "unban"
	CallMember   = "member"
)

type Deleted struct {
	ChatID    int64
	MessageID int
}

type Sent struct {
	ChatID int64
	Text   string
}

type Action struct {
	Kind    string
	ChatID  int64
	UserID  int64
	CanSend bool
}

// Fake records every call. Members and Handles are consulted for lookups.
type Fake struct {
	mu sync.Mutex

	Members map[int64]map[int64]platform.MemberInfo
	Handles map[string]platform.User

	Deleted []Deleted
	Sent    []Sent
	Actions []Action

	fail map[string]map[int64]bool
}

func New() *Fake {
	return &Fake{
		Members: make(map[int64]map[int64]platform.MemberInfo),
		Handles: make(map[string]platform.User),
		fail:    make(map[string]map[int64]bool),
	}
}

// AddMember registers a user in a chat with the given role.
func (f *Fake) AddMember(chatID int64, user platform.User, role platform.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Members[chatID] == nil {
		f.Members[chatID] = make(map[int64]platform.MemberInfo)
	}
	f.Members[chatID][user.ID] = platform.MemberInfo{Role: role, User: user}
}

// AddHandle registers a user reachable by handle lookup.
func (f *Fake) AddHandle(handle string, user platform.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Handles[handle] = user
}

// FailIn makes calls of the given kind fail in the chat.
func (f *Fake) FailIn(kind string, chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail[kind] == nil {
		f.fail[kind] = make(map[int64]bool)
	}
	f.fail[kind][chatID] = true
}

func (f *Fake) failing(kind string, chatID int64) bool {
	return f.fail[kind][chatID]
}

func (f *Fake) GetChatMember(_ context.Context, chatID, userID int64) (platform.MemberInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing(CallMember, chatID) {
		return platform.MemberInfo{}, ErrInjected
	}
	member, ok := f.Members[chatID][userID]
	if !ok {
		return platform.MemberInfo{}, fmt.Errorf("member %d in %d: %w", userID, chatID, ErrNotFound)
	}
	return member, nil
}

func (f *Fake) GetUserByHandle(_ context.Context, handle string) (platform.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.Handles[handle]
	if !ok {
		return platform.User{}, fmt.Errorf("handle %q: %w", handle, ErrNotFound)
	}
	return user, nil
}

func (f *Fake) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing(CallDelete, chatID) {
		return ErrInjected
	}
	f.Deleted = append(f.Deleted, Deleted{ChatID: chatID, MessageID: messageID})
	return nil
}

func (f *Fake) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing(CallSend, chatID) {
		return ErrInjected
	}
	f.Sent = append(f.Sent, Sent{ChatID: chatID, Text: text})
	return nil
}

func (f *Fake) RestrictMember(_ context.Context, chatID, userID int64, canSend bool) error {
	return f.act(Action{Kind: CallRestrict, ChatID: chatID, UserID: userID, CanSend: canSend})
}

func (f *Fake) BanMember(_ context.Context, chatID, userID int64) error {
	return f.act(Action{Kind: CallBan, ChatID: chatID, UserID: userID})
}

func (f *Fake) UnbanMember(_ context.Context, chatID, userID int64) error {
	return f.act(Action{Kind: CallUnban, ChatID: chatID, UserID: userID})
}

func (f *Fake) act(a Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing(a.Kind, a.ChatID) {
		return ErrInjected
	}
	f.Actions = append(f.Actions, a)
	return nil
}

// SentTexts returns a copy of every text sent so far.
func (f *Fake) SentTexts() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Sent(nil), f.Sent...)
}

// DeletedMessages returns a copy of every deletion so far.
func (f *Fake) DeletedMessages() []Deleted {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Deleted(nil), f.Deleted...)
}

// ActionsOf returns recorded actions of the kind.
func (f *Fake) ActionsOf(kind string) []Action {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Action
	for _, a := range f.Actions {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// LastText returns the last text sent, or "".
func (f *Fake) LastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Sent) == 0 {
		return ""
	}
	return f.Sent[len(f.Sent)-1].Text
}
