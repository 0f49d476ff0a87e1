package middleware

import (
	"context"
	"testing"

	"github.com/BatmanBruc/bat-bot-merger/internal/contextkeys"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionFromMimeType(t *testing.T) {
	assert.Equal(t, "mkv", extensionFromMimeType("video/x-matroska", "mp4"))
	assert.Equal(t, "m4a", extensionFromMimeType("audio/mp4", "mp3"))
	assert.Equal(t, "mp4", extensionFromMimeType("video/mp4", "mp4"))
	assert.Equal(t, "ogg", extensionFromMimeType("AUDIO/OGG", "mp3"))
	assert.Equal(t, "mp3", extensionFromMimeType("audio/mpeg; charset=binary", "aac"))
	assert.Equal(t, "mp4", extensionFromMimeType("application/octet-stream", "mp4"))
	assert.Equal(t, "mp3", extensionFromMimeType("", "mp3"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "a_b_c.mp4", sanitizeFileName("a/b\\c.mp4"))
	assert.Equal(t, "plain.mp4", sanitizeFileName("plain.mp4"))
}

func TestAnalyzeVideoFileNameFallback(t *testing.T) {
	info := analyzeVideo(&models.Video{
		FileID:   "f1",
		FileSize: 100,
		MimeType: "video/x-matroska",
	})

	require.NotNil(t, info)
	assert.Equal(t, contextkeys.MessageTypeVideo, info.FileType)
	assert.Equal(t, "video.mkv", info.FileName)
	assert.Equal(t, int64(100), info.FileSize)
}

func TestAnalyzeVideoAppendsMissingExtension(t *testing.T) {
	info := analyzeVideo(&models.Video{
		FileID:   "f1",
		FileName: "holiday",
		MimeType: "video/quicktime",
	})

	assert.Equal(t, "holiday.mov", info.FileName)
}

func TestAnalyzeVideoKeepsExistingName(t *testing.T) {
	info := analyzeVideo(&models.Video{
		FileID:   "f1",
		FileName: "holiday.mp4",
		MimeType: "video/mp4",
	})

	assert.Equal(t, "holiday.mp4", info.FileName)
}

func TestAnalyzeAudioFileNameFallback(t *testing.T) {
	info := analyzeAudio(&models.Audio{
		FileID:   "f2",
		MimeType: "audio/ogg",
	})

	require.NotNil(t, info)
	assert.Equal(t, contextkeys.MessageTypeAudio, info.FileType)
	assert.Equal(t, "audio.ogg", info.FileName)
}

func TestAnalyzeMessageClassification(t *testing.T) {
	m := &Middlewares{}

	ctx := m.analyzeMessage(context.Background(), &models.Update{
		Message: &models.Message{Video: &models.Video{FileID: "v"}},
	})
	mt, _ := contextkeys.GetMessageType(ctx)
	assert.Equal(t, contextkeys.MessageTypeVideo, mt)

	ctx = m.analyzeMessage(context.Background(), &models.Update{
		Message: &models.Message{Audio: &models.Audio{FileID: "a"}},
	})
	mt, _ = contextkeys.GetMessageType(ctx)
	assert.Equal(t, contextkeys.MessageTypeAudio, mt)

	ctx = m.analyzeMessage(context.Background(), &models.Update{
		Message: &models.Message{Text: "hello"},
	})
	mt, _ = contextkeys.GetMessageType(ctx)
	assert.Equal(t, contextkeys.MessageTypeText, mt)

	ctx = m.analyzeMessage(context.Background(), &models.Update{
		Message: &models.Message{},
	})
	mt, _ = contextkeys.GetMessageType(ctx)
	assert.Equal(t, contextkeys.MessageTypeUnknown, mt)
}
