package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/BatmanBruc/bat-bot-merger/internal/config"
	"github.com/BatmanBruc/bat-bot-merger/internal/contextkeys"
	"github.com/BatmanBruc/bat-bot-merger/internal/messages"
	"github.com/BatmanBruc/bat-bot-merger/internal/policy"
	"github.com/BatmanBruc/bat-bot-merger/internal/validate"
	"github.com/BatmanBruc/bat-bot-merger/store"
	"github.com/BatmanBruc/bat-bot-merger/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (bh *Handlers) HandleVideo(ctx context.Context, b *bot.Bot, update *models.Update) {
	fileInfo, ok := contextkeys.GetFileInfo(ctx)
	if !ok || update.Message == nil || update.Message.From == nil {
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	limits := policy.TierLimits(bh.tiers.Resolve(userID))
	if err := validate.Check(fileInfo.FileName, fileInfo.FileSize, fileInfo.MimeType, config.VideoFormats, limits.Video); err != nil {
		log.Printf("Rejected video from user %d: %v", userID, err)
		bh.reply(ctx, b, update, validationText(err))
		return
	}

	_, err := bh.sessions.SetVideo(userID, chatID, fileInfo.FileID, fileInfo.FileSize)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyProcessing) {
			bh.reply(ctx, b, update, messages.AlreadyProcessing())
			return
		}
		log.Printf("Error saving video for user %d: %v", userID, err)
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}

	bh.recordFile(userID, fileInfo, types.FileTypeVideo)
	bh.reply(ctx, b, update, messages.VideoReceived())
}

func (bh *Handlers) HandleAudio(ctx context.Context, b *bot.Bot, update *models.Update) {
	fileInfo, ok := contextkeys.GetFileInfo(ctx)
	if !ok || update.Message == nil || update.Message.From == nil {
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	limits := policy.TierLimits(bh.tiers.Resolve(userID))
	if err := validate.Check(fileInfo.FileName, fileInfo.FileSize, fileInfo.MimeType, config.AudioFormats, limits.Audio); err != nil {
		log.Printf("Rejected audio from user %d: %v", userID, err)
		bh.reply(ctx, b, update, validationText(err))
		return
	}

	_, err := bh.sessions.SetAudio(userID, fileInfo.FileID, fileInfo.FileSize)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNoVideo):
			bh.reply(ctx, b, update, messages.SendVideoFirst())
		case errors.Is(err, store.ErrAlreadyProcessing):
			bh.reply(ctx, b, update, messages.AlreadyProcessing())
		case errors.Is(err, store.ErrInvalidTransition):
			bh.reply(ctx, b, update, messages.InvalidState())
		default:
			log.Printf("Error saving audio for user %d: %v", userID, err)
			bh.reply(ctx, b, update, messages.ErrorDefault())
		}
		return
	}

	bh.recordFile(userID, fileInfo, types.FileTypeAudio)

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        messages.AudioReceivedChooseMode(),
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: modeKeyboard(),
	})
	if err != nil {
		log.Printf("Error sending mode keyboard to chat %d: %v", chatID, err)
	}
}

// recordFile is best-effort bookkeeping for /stats and the janitor; the
// merge flow does not depend on it. It runs only for uploads the
// session accepted, so rejected uploads leave no rows behind.
func (bh *Handlers) recordFile(userID int64, fileInfo *contextkeys.FileInfo, fileType string) {
	err := bh.files.SaveFileRecord(types.FileRecord{
		UserID:   userID,
		FileID:   fileInfo.FileID,
		FileType: fileType,
		FileSize: fileInfo.FileSize,
	})
	if err != nil {
		log.Printf("Error recording file for user %d: %v", userID, err)
	}
}

func modeKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: messages.ButtonReplace(), CallbackData: string(types.ModeReplace)},
			},
			{
				{Text: messages.ButtonMix(), CallbackData: string(types.ModeMix)},
			},
		},
	}
}
