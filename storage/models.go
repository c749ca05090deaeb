package storage

// AuthorizedUser exempts a user from edit deletion in one chat
type AuthorizedUser struct {
	ChatID int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID int64 `gorm:"primaryKey;autoIncrement:false"`
}

// ChatDelay is a chat's custom deletion delay in seconds
type ChatDelay struct {
	ChatID  int64 `gorm:"primaryKey;autoIncrement:false"`
	Seconds int   `gorm:"not null"`
}

// SetEntry is a member of one of the process-wide id sets
type SetEntry struct {
	Kind string `gorm:"primaryKey"`
	ID   int64  `gorm:"primaryKey;autoIncrement:false"`
}

// SnapshotMeta marks that a snapshot was saved and records the owner at that time
type SnapshotMeta struct {
	ID      uint `gorm:"primaryKey"`
	OwnerID int64
}

const (
	kindBan        = "global_ban"
	kindMute       = "global_mute"
	kindGroup      = "group"
	kindUser       = "user"
	kindDeputy     = "deputy"
	kindDescendant = "descendant"
)
