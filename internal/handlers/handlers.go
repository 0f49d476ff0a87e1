package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/BatmanBruc/bat-bot-merger/internal/config"
	"github.com/BatmanBruc/bat-bot-merger/internal/contextkeys"
	"github.com/BatmanBruc/bat-bot-merger/internal/messages"
	"github.com/BatmanBruc/bat-bot-merger/internal/orchestrator"
	"github.com/BatmanBruc/bat-bot-merger/internal/policy"
	"github.com/BatmanBruc/bat-bot-merger/internal/validate"
	"github.com/BatmanBruc/bat-bot-merger/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type Handlers struct {
	sessions types.SessionStore
	users    types.UserStore
	files    types.FileStore
	tiers    *policy.Resolver
	orch     *orchestrator.Orchestrator
	cfg      *config.Config
}

func NewHandlers(sessions types.SessionStore, users types.UserStore, files types.FileStore, tiers *policy.Resolver, orch *orchestrator.Orchestrator, cfg *config.Config) *Handlers {
	return &Handlers{
		sessions: sessions,
		users:    users,
		files:    files,
		tiers:    tiers,
		orch:     orch,
		cfg:      cfg,
	}
}

func (bh *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	messageType, _ := contextkeys.GetMessageType(ctx)

	switch messageType {
	case contextkeys.MessageTypeCommand:
		bh.HandleCommand(ctx, b, update)
	case contextkeys.MessageTypeVideo:
		bh.HandleVideo(ctx, b, update)
	case contextkeys.MessageTypeAudio:
		bh.HandleAudio(ctx, b, update)
	case contextkeys.MessageTypeClickButton:
		bh.HandleModeClick(ctx, b, update)
	case contextkeys.MessageTypeText:
		bh.reply(ctx, b, update, messages.Help())
	default:
		bh.reply(ctx, b, update, messages.ErrorUnsupportedMessageType())
	}
}

func (bh *Handlers) reply(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	chatID := chatIDFromUpdate(update)
	if chatID == 0 {
		return
	}
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	if err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}

func (bh *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		log.Printf("Error answering callback %s: %v", callbackID, err)
	}
}

func chatIDFromUpdate(update *models.Update) int64 {
	if update == nil {
		return 0
	}
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil {
		if update.CallbackQuery.Message.Message != nil {
			return update.CallbackQuery.Message.Message.Chat.ID
		}
		if update.CallbackQuery.Message.InaccessibleMessage != nil {
			return update.CallbackQuery.Message.InaccessibleMessage.Chat.ID
		}
	}
	return 0
}

// validationText maps a validation failure to the message shown to the
// user.
func validationText(err error) string {
	var verr *validate.Error
	if !errors.As(err, &verr) {
		return messages.ErrorDefault()
	}
	switch verr.Reason {
	case validate.ReasonUnsupportedFormat:
		return messages.ValidationUnsupportedFormat(verr.Ext)
	case validate.ReasonSizeExceeded:
		return messages.ValidationSizeExceeded(verr.Size, verr.Limit)
	case validate.ReasonMimeMismatch:
		return messages.ValidationMimeMismatch(verr.Declared, verr.Inferred)
	default:
		return messages.ErrorDefault()
	}
}

// statusMessage rewrites one status message in place; it is the single
// user-visible progress line for a running task.
type statusMessage struct {
	b         *bot.Bot
	chatID    int64
	messageID int
}

func (s *statusMessage) Status(ctx context.Context, text string) {
	_, _ = s.b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    s.chatID,
		MessageID: s.messageID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
}
