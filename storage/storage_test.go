package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		AuthorizedUsers: map[int64][]int64{-100: {7, 9}, -200: {11}},
		DeletionDelay:   map[int64]int{-100: 45},
		GlobalBans:      []int64{13},
		GlobalMutes:     []int64{14, 15},
		Registry:        Registry{Groups: []int64{-200, -100}, Users: []int64{7, 9, 11}},
		Privileges:      Privileges{Owner: 1, Deputies: []int64{2}, Descendants: []int64{3}},
	}
}

func backends(t *testing.T) map[string]Backend {
	dir := t.TempDir()

	db, err := NewSQLite(filepath.Join(dir, "data.sqlite"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Backend{
		"json":   NewJSONFile(filepath.Join(dir, "nested", "bot_data.json")),
		"sqlite": db,
	}
}

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := backend.Load(ctx)
			assert.ErrorIs(t, err, ErrNoSnapshot)

			require.NoError(t, backend.Save(ctx, sampleSnapshot()))

			got, err := backend.Load(ctx)
			require.NoError(t, err)

			want := sampleSnapshot()
			assert.ElementsMatch(t, want.AuthorizedUsers[-100], got.AuthorizedUsers[-100])
			assert.ElementsMatch(t, want.AuthorizedUsers[-200], got.AuthorizedUsers[-200])
			assert.Equal(t, want.DeletionDelay, got.DeletionDelay)
			assert.ElementsMatch(t, want.GlobalBans, got.GlobalBans)
			assert.ElementsMatch(t, want.GlobalMutes, got.GlobalMutes)
			assert.ElementsMatch(t, want.Registry.Groups, got.Registry.Groups)
			assert.ElementsMatch(t, want.Registry.Users, got.Registry.Users)
			assert.Equal(t, want.Privileges.Owner, got.Privileges.Owner)
			assert.ElementsMatch(t, want.Privileges.Deputies, got.Privileges.Deputies)
			assert.ElementsMatch(t, want.Privileges.Descendants, got.Privileges.Descendants)
		})
	}
}

func TestBackendSaveReplacesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.Save(ctx, sampleSnapshot()))
			require.NoError(t, backend.Save(ctx, &Snapshot{
				GlobalBans: []int64{99},
				Privileges: Privileges{Owner: 1},
			}))

			got, err := backend.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got.AuthorizedUsers)
			assert.Empty(t, got.DeletionDelay)
			assert.Equal(t, []int64{99}, got.GlobalBans)
			assert.Empty(t, got.GlobalMutes)
			assert.Empty(t, got.Privileges.Deputies)
		})
	}
}

func TestJSONFileReadsLegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_data.json")
	raw := `{
		"authorized_users": {"-100": [7]},
		"deletion_delay": {"-100": 300},
		"global_bans": [5],
		"global_mutes": [],
		"stats_data": {"groups": [-100], "users": [7]},
		"sudo_users": {"lord": 1, "substitute_lords": [2], "descendants": []}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	snap, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, snap.AuthorizedUsers[-100])
	assert.Equal(t, 300, snap.DeletionDelay[-100])
	assert.Equal(t, []int64{5}, snap.GlobalBans)
	assert.Equal(t, int64(1), snap.Privileges.Owner)
	assert.Equal(t, []int64{2}, snap.Privileges.Deputies)
}

func TestJSONFileCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewJSONFile(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestJSONFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewJSONFile(filepath.Join(dir, "bot_data.json"))

	require.NoError(t, f.Save(context.Background(), sampleSnapshot()))
	require.NoError(t, f.Save(context.Background(), sampleSnapshot()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bot_data.json", entries[0].Name())
}
