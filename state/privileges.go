package state

import "context"

// Owner is fixed at construction.
func (s *Store) Owner() int64 {
	return s.owner
}

// TierOf returns the user's privilege tier.
func (s *Store) TierOf(userID int64) Tier {
	if userID == s.owner {
		return TierOwner
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.deputies[userID]; ok {
		return TierDeputy
	}
	if _, ok := s.descendants[userID]; ok {
		return TierDescendant
	}
	return TierNone
}

// Grant puts the user in the tier, moving them out of the other one. Returns false when the
// user already holds exactly that tier.
func (s *Store) Grant(ctx context.Context, userID int64, tier Tier) (bool, error) {
	if userID == s.owner || tier == TierOwner || tier == TierNone {
		return false, ErrOwnerImmutable
	}

	s.mu.Lock()
	into, other := s.deputies, s.descendants
	if tier == TierDescendant {
		into, other = s.descendants, s.deputies
	}
	_, exists := into[userID]
	into[userID] = struct{}{}
	delete(other, userID)
	s.mu.Unlock()

	if exists {
		return false, nil
	}
	s.commit(ctx, "grant_"+tier.String())
	return true, nil
}

// Revoke drops the user from whichever tier holds them. Returns false if the user had none.
func (s *Store) Revoke(ctx context.Context, userID int64) (bool, error) {
	if userID == s.owner {
		return false, ErrOwnerImmutable
	}

	s.mu.Lock()
	_, deputy := s.deputies[userID]
	_, descendant := s.descendants[userID]
	delete(s.deputies, userID)
	delete(s.descendants, userID)
	s.mu.Unlock()

	if !deputy && !descendant {
		return false, nil
	}
	s.commit(ctx, "revoke")
	return true, nil
}

func (s *Store) Deputies() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.deputies.sorted()
}

func (s *Store) Descendants() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.descendants.sorted()
}
