package types

import "time"

type User struct {
	UserID           int64
	Username         string
	Premium          bool
	EncryptedSession string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type FileRecord struct {
	UserID    int64
	FileID    string
	FileType  string
	FileSize  int64
	CreatedAt time.Time
}

type BotStats struct {
	TotalUsers   int64
	PremiumUsers int64
	TotalFiles   int64
}

type UserStore interface {
	UpsertUser(user User) error
	GetUser(userID int64) (*User, error)

	ActivatePremium(userID int64, username, encryptedSession string) error
	SetPremium(userID int64) error

	AllUserIDs() ([]int64, error)
	Stats() (BotStats, error)
}

type FileStore interface {
	SaveFileRecord(rec FileRecord) error
	DeleteFileRecordsBefore(cutoff time.Time) (int64, error)
}
