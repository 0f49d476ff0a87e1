package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/BatmanBruc/bat-bot-merger/internal/contextkeys"
	"github.com/BatmanBruc/bat-bot-merger/internal/messages"
	"github.com/BatmanBruc/bat-bot-merger/internal/orchestrator"
	"github.com/BatmanBruc/bat-bot-merger/store"
	"github.com/BatmanBruc/bat-bot-merger/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleModeClick turns a mode button press into a running merge task.
// The keyboard message is reused as the task's status message.
func (bh *Handlers) HandleModeClick(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	data, _ := contextkeys.GetCallbackData(ctx)
	userID := cq.From.ID

	msg := cq.Message.Message
	if msg == nil {
		bh.answerCallback(ctx, b, cq.ID, messages.InvalidState())
		return
	}

	mode, ok := types.ParseMergeMode(data)
	if !ok {
		bh.answerCallback(ctx, b, cq.ID, messages.ErrorDefault())
		return
	}

	if bh.orch.Active(userID) {
		bh.answerCallback(ctx, b, cq.ID, messages.AlreadyProcessing())
		return
	}

	session, err := bh.sessions.SetMode(userID, mode)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyProcessing):
			bh.answerCallback(ctx, b, cq.ID, messages.AlreadyProcessing())
		case errors.Is(err, store.ErrInvalidTransition):
			bh.answerCallback(ctx, b, cq.ID, messages.InvalidState())
		default:
			log.Printf("Error setting mode for user %d: %v", userID, err)
			bh.answerCallback(ctx, b, cq.ID, messages.ErrorDefault())
		}
		return
	}

	bh.answerCallback(ctx, b, cq.ID, "")

	_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      messages.StartingMerge(),
		ParseMode: messages.ParseModeHTML,
	})
	if err != nil {
		log.Printf("Error editing status message for user %d: %v", userID, err)
	}

	task := orchestrator.Task{
		UserID:      userID,
		ChatID:      msg.Chat.ID,
		Tier:        bh.tiers.Resolve(userID),
		VideoFileID: session.VideoFileID,
		VideoSize:   session.VideoSize,
		AudioFileID: session.AudioFileID,
		AudioSize:   session.AudioSize,
		Mode:        mode,
	}

	notifier := &statusMessage{b: b, chatID: msg.Chat.ID, messageID: msg.ID}

	// The update context dies with the handler; the task outlives it.
	go func() {
		if err := bh.orch.Run(context.Background(), task, notifier); err != nil {
			log.Printf("Merge task for user %d finished with error: %v", userID, err)
		}
	}()
}
