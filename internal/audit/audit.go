package audit

import (
	"context"
	"fmt"
	"log"

	"github.com/BatmanBruc/bat-bot-merger/internal/messages"
	"github.com/BatmanBruc/bat-bot-merger/types"
	"github.com/go-telegram/bot"
	"github.com/google/uuid"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Record is the structured summary emitted once per finished merge
// task, success or failure.
type Record struct {
	TaskID     string
	UserID     int64
	Tier       types.Tier
	Mode       types.MergeMode
	VideoSize  int64
	AudioSize  int64
	OutputSize int64
	Status     string
	Error      string
}

func NewRecord(userID int64, tier types.Tier, mode types.MergeMode, videoSize, audioSize int64) Record {
	return Record{
		TaskID:    uuid.New().String(),
		UserID:    userID,
		Tier:      tier,
		Mode:      mode,
		VideoSize: videoSize,
		AudioSize: audioSize,
	}
}

type Sink interface {
	Emit(ctx context.Context, rec Record)
}

// ChannelSink posts records to the operator log channel. With no
// channel configured it degrades to process logs only.
type ChannelSink struct {
	botClient *bot.Bot
	channelID int64
}

func NewChannelSink(botClient *bot.Bot, channelID int64) *ChannelSink {
	return &ChannelSink{
		botClient: botClient,
		channelID: channelID,
	}
}

func (s *ChannelSink) Emit(ctx context.Context, rec Record) {
	log.Printf("Audit %s: user=%d tier=%s mode=%s status=%s error=%q",
		rec.TaskID, rec.UserID, rec.Tier, rec.Mode, rec.Status, rec.Error)

	if s.channelID == 0 {
		return
	}
	_, err := s.botClient.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    s.channelID,
		Text:      formatRecord(rec),
		ParseMode: messages.ParseModeHTML,
	})
	if err != nil {
		log.Printf("Audit %s: failed to post to log channel: %v", rec.TaskID, err)
	}
}

func formatRecord(rec Record) string {
	text := fmt.Sprintf(
		"<b>Task:</b> <code>%s</code>\n<b>User:</b> %d\n<b>Tier:</b> %s\n<b>Mode:</b> %s\n<b>Video size:</b> %d\n<b>Audio size:</b> %d",
		rec.TaskID, rec.UserID, rec.Tier, rec.Mode, rec.VideoSize, rec.AudioSize,
	)
	if rec.Status == StatusSuccess {
		text += fmt.Sprintf("\n<b>Final size:</b> %d\n<b>Status:</b> ✅ Success", rec.OutputSize)
	} else {
		text += fmt.Sprintf("\n<b>Status:</b> ❌ Failed\n<code>%s</code>", messages.Escape(truncate(rec.Error, 2000)))
	}
	return text
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
