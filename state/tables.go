package state

import (
	"context"
	"time"
)

// Authorize exempts the user from edit deletion in the chat. Returns false if already exempt.
func (s *Store) Authorize(ctx context.Context, chatID, userID int64) bool {
	s.mu.Lock()
	users, ok := s.authorized[chatID]
	if !ok {
		users = make(set)
		s.authorized[chatID] = users
	}
	_, exists := users[userID]
	users[userID] = struct{}{}
	s.mu.Unlock()

	if exists {
		return false
	}
	s.commit(ctx, "authorize")
	return true
}

// Unauthorize removes the exemption. Returns false if the user was not exempt.
// The chat entry stays even when it becomes empty.
func (s *Store) Unauthorize(ctx context.Context, chatID, userID int64) bool {
	s.mu.Lock()
	_, exists := s.authorized[chatID][userID]
	if exists {
		delete(s.authorized[chatID], userID)
	}
	s.mu.Unlock()

	if !exists {
		return false
	}
	s.commit(ctx, "unauthorize")
	return true
}

func (s *Store) IsAuthorized(chatID, userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.authorized[chatID][userID]
	return ok
}

// AuthorizedUsers lists the chat's exempt users in ascending order.
func (s *Store) AuthorizedUsers(chatID int64) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.authorized[chatID].sorted()
}

// SetDelay stores the chat's deletion delay in seconds.
func (s *Store) SetDelay(ctx context.Context, chatID int64, seconds int) error {
	if seconds <= 0 {
		return ErrInvalidDelay
	}

	s.mu.Lock()
	s.delays[chatID] = seconds
	s.mu.Unlock()

	s.commit(ctx, "set_delay")
	return nil
}

// DelaySeconds returns the chat's delay, DefaultDelay when not customized.
func (s *Store) DelaySeconds(chatID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if seconds, ok := s.delays[chatID]; ok {
		return seconds
	}
	return int(DefaultDelay / time.Second)
}

func (s *Store) Delay(chatID int64) time.Duration {
	return time.Duration(s.DelaySeconds(chatID)) * time.Second
}

// Ban adds the user to the global ban set. Returns false if already banned.
func (s *Store) Ban(ctx context.Context, userID int64) bool {
	return s.addTo(ctx, bansOf, userID, "ban")
}

// Unban returns false if the user was not banned.
func (s *Store) Unban(ctx context.Context, userID int64) bool {
	return s.removeFrom(ctx, bansOf, userID, "unban")
}

func (s *Store) IsBanned(userID int64) bool {
	return s.contains(bansOf, userID)
}

// Mute adds the user to the global mute set. Returns false if already muted.
func (s *Store) Mute(ctx context.Context, userID int64) bool {
	return s.addTo(ctx, mutesOf, userID, "mute")
}

// Unmute returns false if the user was not muted.
func (s *Store) Unmute(ctx context.Context, userID int64) bool {
	return s.removeFrom(ctx, mutesOf, userID, "unmute")
}

func (s *Store) IsMuted(userID int64) bool {
	return s.contains(mutesOf, userID)
}

func bansOf(s *Store) set { return s.bans }
func mutesOf(s *Store) set { return s.mutes }

func (s *Store) addTo(ctx context.Context, pick func(*Store) set, userID int64, op string) bool {
	s.mu.Lock()
	target := pick(s)
	_, exists := target[userID]
	target[userID] = struct{}{}
	s.mu.Unlock()

	if exists {
		return false
	}
	s.commit(ctx, op)
	return true
}

func (s *Store) removeFrom(ctx context.Context, pick func(*Store) set, userID int64, op string) bool {
	s.mu.Lock()
	target := pick(s)
	_, exists := target[userID]
	delete(target, userID)
	s.mu.Unlock()

	if !exists {
		return false
	}
	s.commit(ctx, op)
	return true
}

func (s *Store) contains(pick func(*Store) set, userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := pick(s)[userID]
	return ok
}

// Observe records an inbound message's chat and author. Only group chats join the registry
// used for global fan-out. Persists only on a first sighting.
func (s *Store) Observe(ctx context.Context, chatID int64, group bool, userID int64) {
	s.mu.Lock()
	changed := false
	if group {
		if _, ok := s.groups[chatID]; !ok {
			s.groups[chatID] = struct{}{}
			changed = true
		}
	}
	if userID != 0 {
		if _, ok := s.users[userID]; !ok {
			s.users[userID] = struct{}{}
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.commit(ctx, "observe")
	}
}

// Groups lists every known group chat in ascending order.
func (s *Store) Groups() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.groups.sorted()
}

// Stats is a point-in-time summary of the tables.
type Stats struct {
	Groups  int
	Users   int
	Bans    int
	Mutes   int
	Sudoers int
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Groups:  len(s.groups),
		Users:   len(s.users),
		Bans:    len(s.bans),
		Mutes:   len(s.mutes),
		Sudoers: 1 + len(s.deputies) + len(s.descendants),
	}
}
