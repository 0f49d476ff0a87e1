package middleware

import (
	"context"
	"log"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/bat-bot-merger/internal/contextkeys"
	"github.com/BatmanBruc/bat-bot-merger/types"
)

type Middlewares struct {
	users types.UserStore
}

func NewMessageAnalyzer(users types.UserStore) *Middlewares {
	return &Middlewares{
		users: users,
	}
}

// UpsertUserMiddleware keeps a profile row for everyone who ever talked
// to the bot; the premium flow and broadcast rely on it.
func (m *Middlewares) UpsertUserMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		var from *models.User

		switch {
		case update.Message != nil && update.Message.From != nil:
			from = update.Message.From
		case update.CallbackQuery != nil:
			from = &update.CallbackQuery.From
		}

		if from != nil && from.ID != 0 {
			err := m.users.UpsertUser(types.User{
				UserID:   from.ID,
				Username: from.Username,
			})
			if err != nil {
				log.Printf("Error upserting user %d: %v", from.ID, err)
			}
		}

		next(ctx, b, update)
	}
}

func (m *Middlewares) AnalyzeMessageMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.CallbackQuery != nil && update.CallbackQuery.Data != "" {
			newCtx := contextkeys.WithMessageType(ctx, contextkeys.MessageTypeClickButton)
			newCtx = contextkeys.WithCallbackData(newCtx, update.CallbackQuery.Data)
			next(newCtx, b, update)
			return
		}

		if update.Message != nil && update.Message.Text != "" && strings.HasPrefix(update.Message.Text, "/") {
			next(contextkeys.WithMessageType(ctx, contextkeys.MessageTypeCommand), b, update)
			return
		}

		next(m.analyzeMessage(ctx, update), b, update)
	}
}

func (m *Middlewares) analyzeMessage(ctx context.Context, update *models.Update) context.Context {
	if update.Message == nil {
		return ctx
	}

	msg := update.Message

	if msg.Video != nil {
		ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeVideo)
		return contextkeys.WithFileInfo(ctx, analyzeVideo(msg.Video))
	}

	if msg.Audio != nil {
		ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeAudio)
		return contextkeys.WithFileInfo(ctx, analyzeAudio(msg.Audio))
	}

	if msg.Text != "" || msg.Caption != "" {
		return contextkeys.WithMessageType(ctx, contextkeys.MessageTypeText)
	}

	return contextkeys.WithMessageType(ctx, contextkeys.MessageTypeUnknown)
}

func analyzeVideo(video *models.Video) *contextkeys.FileInfo {
	fileName := video.FileName
	if fileName == "" {
		fileName = "video." + extensionFromMimeType(video.MimeType, "mp4")
	} else if !strings.Contains(fileName, ".") {
		fileName = fileName + "." + extensionFromMimeType(video.MimeType, "mp4")
	}

	return &contextkeys.FileInfo{
		FileType: contextkeys.MessageTypeVideo,
		FileID:   video.FileID,
		FileSize: int64(video.FileSize),
		MimeType: video.MimeType,
		FileName: sanitizeFileName(fileName),
		Duration: video.Duration,
	}
}

func analyzeAudio(audio *models.Audio) *contextkeys.FileInfo {
	fileName := audio.FileName
	if fileName == "" {
		fileName = "audio." + extensionFromMimeType(audio.MimeType, "mp3")
	} else if !strings.Contains(fileName, ".") {
		fileName = fileName + "." + extensionFromMimeType(audio.MimeType, "mp3")
	}

	return &contextkeys.FileInfo{
		FileType: contextkeys.MessageTypeAudio,
		FileID:   audio.FileID,
		FileSize: int64(audio.FileSize),
		MimeType: audio.MimeType,
		FileName: sanitizeFileName(fileName),
		Duration: audio.Duration,
	}
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}

var mimeToExt = map[string]string{
	"video/mp4":        "mp4",
	"video/x-matroska": "mkv",
	"video/quicktime":  "mov",
	"video/x-msvideo":  "avi",
	"audio/mpeg":       "mp3",
	"audio/aac":        "aac",
	"audio/wav":        "wav",
	"audio/x-wav":      "wav",
	"audio/mp4":        "m4a",
	"audio/x-m4a":      "m4a",
	"audio/ogg":        "ogg",
}

func extensionFromMimeType(mimeType string, defaultExt string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if ext, ok := mimeToExt[mimeType]; ok {
		return ext
	}
	return defaultExt
}
