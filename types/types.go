package types

import "time"

type MergeSession struct {
	UserID      int64        `json:"user_id"`
	ChatID      int64        `json:"chat_id"`
	Stage       SessionStage `json:"stage"`
	VideoFileID string       `json:"video_file_id,omitempty"`
	VideoSize   int64        `json:"video_size,omitempty"`
	AudioFileID string       `json:"audio_file_id,omitempty"`
	AudioSize   int64        `json:"audio_size,omitempty"`
	Mode        MergeMode    `json:"mode,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type SessionStore interface {
	SetVideo(userID, chatID int64, fileID string, fileSize int64) (*MergeSession, error)
	SetAudio(userID int64, fileID string, fileSize int64) (*MergeSession, error)
	SetMode(userID int64, mode MergeMode) (*MergeSession, error)
	SetProcessing(userID int64) error
	Clear(userID int64) error
}
