package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const snapshotMetaID = 1

// SQLite keeps the snapshot in relational tables. Every Save rewrites all of them in one transaction.
type SQLite struct {
	db *gorm.DB
}

func NewSQLite(dbPath string, logger *slog.Logger) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: slogGorm.New(slogGorm.WithLogger(logger)),
	})
	if err != nil {
		slog.Error("storage: Failed to connect to database", "error", err, "path", dbPath)
		return nil, fmt.Errorf("%w: %w", ErrOpenDatabase, err)
	}

	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		return nil, fmt.Errorf("failed to set journal_mode=WAL: %w", err)
	}

	rawDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get raw DB from gorm: %w", err)
	}
	rawDB.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *SQLite) migrate() error {
	err := s.db.AutoMigrate(&AuthorizedUser{}, &ChatDelay{}, &SetEntry{}, &SnapshotMeta{})
	if err != nil {
		slog.Error("storage: Failed to migrate database", "error", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// Close releases the underlying connection
func (s *SQLite) Close() error {
	rawDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return rawDB.Close()
}

func (s *SQLite) Save(ctx context.Context, snap *Snapshot) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&AuthorizedUser{}, &ChatDelay{}, &SetEntry{}, &SnapshotMeta{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear table: %w", err)
			}
		}

		var authorized []AuthorizedUser
		for chatID, users := range snap.AuthorizedUsers {
			for _, userID := range users {
				authorized = append(authorized, AuthorizedUser{ChatID: chatID, UserID: userID})
			}
		}
		if len(authorized) > 0 {
			if err := tx.CreateInBatches(authorized, 500).Error; err != nil {
				return fmt.Errorf("failed to store authorized users: %w", err)
			}
		}

		var delays []ChatDelay
		for chatID, seconds := range snap.DeletionDelay {
			delays = append(delays, ChatDelay{ChatID: chatID, Seconds: seconds})
		}
		if len(delays) > 0 {
			if err := tx.CreateInBatches(delays, 500).Error; err != nil {
				return fmt.Errorf("failed to store delays: %w", err)
			}
		}

		var entries []SetEntry
		entries = appendEntries(entries, kindBan, snap.GlobalBans)
		entries = appendEntries(entries, kindMute, snap.GlobalMutes)
		entries = appendEntries(entries, kindGroup, snap.Registry.Groups)
		entries = appendEntries(entries, kindUser, snap.Registry.Users)
		entries = appendEntries(entries, kindDeputy, snap.Privileges.Deputies)
		entries = appendEntries(entries, kindDescendant, snap.Privileges.Descendants)
		if len(entries) > 0 {
			if err := tx.CreateInBatches(entries, 500).Error; err != nil {
				return fmt.Errorf("failed to store set entries: %w", err)
			}
		}

		meta := SnapshotMeta{ID: snapshotMetaID, OwnerID: snap.Privileges.Owner}
		if err := tx.Create(&meta).Error; err != nil {
			return fmt.Errorf("failed to store snapshot meta: %w", err)
		}

		return nil
	})
	if err != nil {
		slog.Error("storage: Failed to save snapshot", "error", err)
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return nil
}

func (s *SQLite) Load(ctx context.Context) (*Snapshot, error) {
	db := s.db.WithContext(ctx)

	var meta SnapshotMeta
	result := db.First(&meta, snapshotMetaID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if result.Error != nil {
		slog.Error("storage: Failed to read snapshot meta", "error", result.Error)
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, result.Error)
	}

	snap := &Snapshot{
		AuthorizedUsers: make(map[int64][]int64),
		DeletionDelay:   make(map[int64]int),
		Privileges:      Privileges{Owner: meta.OwnerID},
	}

	var authorized []AuthorizedUser
	if err := db.Order("chat_id, user_id").Find(&authorized).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	for _, a := range authorized {
		snap.AuthorizedUsers[a.ChatID] = append(snap.AuthorizedUsers[a.ChatID], a.UserID)
	}

	var delays []ChatDelay
	if err := db.Find(&delays).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	for _, d := range delays {
		snap.DeletionDelay[d.ChatID] = d.Seconds
	}

	var entries []SetEntry
	if err := db.Order("kind, id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	for _, e := range entries {
		switch e.Kind {
		case kindBan:
			snap.GlobalBans = append(snap.GlobalBans, e.ID)
		case kindMute:
			snap.GlobalMutes = append(snap.GlobalMutes, e.ID)
		case kindGroup:
			snap.Registry.Groups = append(snap.Registry.Groups, e.ID)
		case kindUser:
			snap.Registry.Users = append(snap.Registry.Users, e.ID)
		case kindDeputy:
			snap.Privileges.Deputies = append(snap.Privileges.Deputies, e.ID)
		case kindDescendant:
			snap.Privileges.Descendants = append(snap.Privileges.Descendants, e.ID)
		default:
			slog.Warn("storage: Unknown set entry kind", "kind", e.Kind, "id", e.ID)
		}
	}

	return snap, nil
}

func appendEntries(entries []SetEntry, kind string, ids []int64) []SetEntry {
	for _, id := range ids {
		entries = append(entries, SetEntry{Kind: kind, ID: id})
	}
	return entries
}
