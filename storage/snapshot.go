package storage

import (
	"context"
	"errors"
)

var (
	ErrNoSnapshot   = errors.New("no snapshot stored")
	ErrSaveFailed   = errors.New("failed to save snapshot")
	ErrLoadFailed   = errors.New("failed to load snapshot")
	ErrOpenDatabase = errors.New("cannot open database")
)

// Backend persists whole-state snapshots. Save replaces the previous snapshot entirely.
type Backend interface {
	Save(ctx context.Context, snap *Snapshot) error
	// Load returns ErrNoSnapshot when nothing was saved yet.
	Load(ctx context.Context) (*Snapshot, error)
}

// Snapshot is the complete persisted moderation state.
type Snapshot struct {
	AuthorizedUsers map[int64][]int64 `json:"authorized_users"`
	DeletionDelay   map[int64]int     `json:"deletion_delay"`
	GlobalBans      []int64           `json:"global_bans"`
	GlobalMutes     []int64           `json:"global_mutes"`
	Registry        Registry          `json:"stats_data"`
	Privileges      Privileges        `json:"sudo_users"`
}

type Registry struct {
	Groups []int64 `json:"groups"`
	Users  []int64 `json:"users"`
}

type Privileges struct {
	Owner       int64   `json:"lord"`
	Deputies    []int64 `json:"substitute_lords"`
	Descendants []int64 `json:"descendants"`
}
