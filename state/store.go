// Package state owns the moderation tables: per-chat authorizations and delays, global
// ban and mute sets, privilege tiers and the chat/user registries.
//
// Every mutating method persists a full snapshot through the configured backend before
// returning. Persistence failures are logged and swallowed; the in-memory tables stay
// authoritative for the running process.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/storage"
)

// DefaultDelay applies to chats that never customized their delay.
const DefaultDelay = 10 * time.Second

var (
	ErrOwnerImmutable = errors.New("owner privileges cannot be changed")
	ErrInvalidDelay   = errors.New("delay must be a positive number of seconds")
)

// Tier is a user's position in the privilege hierarchy.
type Tier int

const (
	TierNone Tier = iota
	TierOwner
	TierDeputy
	TierDescendant
)

func (t Tier) String() string {
	switch t {
	case TierOwner:
		return "owner"
	case TierDeputy:
		return "deputy"
	case TierDescendant:
		return "descendant"
	case TierNone:
		return "none"
	}
	return "none"
}

type set map[int64]struct{}

func (s set) sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func setOf(ids []int64) set {
	s := make(set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

type Store struct {
	mu sync.RWMutex

	owner       int64
	authorized  map[int64]set
	delays      map[int64]int
	bans        set
	mutes       set
	deputies    set
	descendants set
	groups      set
	users       set

	persistMu sync.Mutex
	backend   storage.Backend
	log       *slog.Logger
}

// New creates empty tables with a fixed owner. A nil logger means slog.Default().
func New(owner int64, backend storage.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		owner:   owner,
		backend: backend,
		log:     logger,
	}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.authorized = make(map[int64]set)
	s.delays = make(map[int64]int)
	s.bans = make(set)
	s.mutes = make(set)
	s.deputies = make(set)
	s.descendants = make(set)
	s.groups = make(set)
	s.users = make(set)
}

// Restore replaces all tables with the last snapshot. A missing snapshot is not an error
// and reports found=false.
func (s *Store) Restore(ctx context.Context) (found bool, err error) {
	snap, err := s.backend.Load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		s.log.Info("state: No snapshot found, starting empty")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to restore state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	for chatID, users := range snap.AuthorizedUsers {
		s.authorized[chatID] = setOf(users)
	}
	for chatID, seconds := range snap.DeletionDelay {
		if seconds <= 0 {
			s.log.Warn("state: Ignoring non-positive stored delay", "chat_id", chatID, "seconds", seconds)
			continue
		}
		s.delays[chatID] = seconds
	}
	s.bans = setOf(snap.GlobalBans)
	s.mutes = setOf(snap.GlobalMutes)
	s.groups = setOf(snap.Registry.Groups)
	s.users = setOf(snap.Registry.Users)
	s.deputies = setOf(snap.Privileges.Deputies)
	s.descendants = setOf(snap.Privileges.Descendants)

	if snap.Privileges.Owner != 0 && snap.Privileges.Owner != s.owner {
		s.log.Warn("state: Snapshot owner differs from configured owner, keeping configured",
			"snapshot_owner", snap.Privileges.Owner, "owner", s.owner)
	}
	delete(s.deputies, s.owner)
	delete(s.descendants, s.owner)

	s.log.Info("state: Snapshot restored",
		"chats", len(s.groups), "users", len(s.users), "bans", len(s.bans), "mutes", len(s.mutes))
	return true, nil
}

// Snapshot copies the current tables.
func (s *Store) Snapshot() *storage.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *storage.Snapshot {
	snap := &storage.Snapshot{
		AuthorizedUsers: make(map[int64][]int64, len(s.authorized)),
		DeletionDelay:   make(map[int64]int, len(s.delays)),
		GlobalBans:      s.bans.sorted(),
		GlobalMutes:     s.mutes.sorted(),
		Registry: storage.Registry{
			Groups: s.groups.sorted(),
			Users:  s.users.sorted(),
		},
		Privileges: storage.Privileges{
			Owner:       s.owner,
			Deputies:    s.deputies.sorted(),
			Descendants: s.descendants.sorted(),
		},
	}
	for chatID, users := range s.authorized {
		snap.AuthorizedUsers[chatID] = users.sorted()
	}
	for chatID, seconds := range s.delays {
		snap.DeletionDelay[chatID] = seconds
	}
	return snap
}

// Persist writes a full snapshot. Writes are serialized so a newer snapshot is never
// overwritten by an older one.
func (s *Store) Persist(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	snap := s.Snapshot()
	if err := s.backend.Save(ctx, snap); err != nil {
		persistFailures.Inc()
		return fmt.Errorf("failed to persist state: %w", err)
	}
	persistCount.Inc()
	return nil
}

// commit is called by every mutating method after the change is applied.
func (s *Store) commit(ctx context.Context, op string) {
	if err := s.Persist(ctx); err != nil {
		s.log.Error("state: Failed to persist snapshot", "op", op, "error", err)
	}
}
