package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/BatmanBruc/bat-bot-merger/internal/crypto"
	"github.com/BatmanBruc/bat-bot-merger/internal/messages"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (bh *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	fields := strings.Fields(update.Message.Text)
	if len(fields) == 0 {
		return
	}

	command := strings.TrimPrefix(fields[0], "/")
	if idx := strings.IndexByte(command, '@'); idx >= 0 {
		command = command[:idx]
	}
	args := fields[1:]

	switch command {
	case "start":
		bh.reply(ctx, b, update, messages.StartWelcome())
	case "help":
		bh.reply(ctx, b, update, messages.Help())
	case "premium":
		bh.handlePremium(ctx, b, update, args)
	case "setpremium":
		bh.adminOnly(ctx, b, update, func() { bh.handleSetPremium(ctx, b, update, args) })
	case "stats":
		bh.adminOnly(ctx, b, update, func() { bh.handleStats(ctx, b, update) })
	case "clean":
		bh.adminOnly(ctx, b, update, func() { bh.handleClean(ctx, b, update) })
	case "broadcast":
		bh.adminOnly(ctx, b, update, func() { bh.handleBroadcast(ctx, b, update) })
	case "maintenance":
		bh.adminOnly(ctx, b, update, func() { bh.handleMaintenance(ctx, b, update) })
	default:
		bh.reply(ctx, b, update, messages.ErrorUnknownCommand())
	}
}

func (bh *Handlers) adminOnly(ctx context.Context, b *bot.Bot, update *models.Update, fn func()) {
	if !bh.cfg.IsAdmin(update.Message.From.ID) {
		bh.reply(ctx, b, update, messages.NotAdmin())
		return
	}
	fn()
}

func (bh *Handlers) handlePremium(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	switch len(args) {
	case 0:
		bh.premiumStatus(ctx, b, update)
	case 1:
		bh.activatePremium(ctx, b, update, args[0])
	default:
		bh.reply(ctx, b, update, messages.PremiumUsage())
	}
}

// premiumStatus reports whether the caller's premium is active. The
// stored credential must still decrypt with the current key; a key
// rotation invalidates it.
func (bh *Handlers) premiumStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID

	user, err := bh.users.GetUser(userID)
	if err != nil {
		log.Printf("Error loading user %d: %v", userID, err)
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}
	if user == nil || !user.Premium || user.EncryptedSession == "" {
		bh.reply(ctx, b, update, messages.PremiumUsage())
		return
	}

	if _, err := crypto.Decrypt(bh.cfg.EncryptionKey, user.EncryptedSession); err != nil {
		bh.reply(ctx, b, update, messages.PremiumInvalidCredential(err))
		return
	}
	bh.reply(ctx, b, update, messages.PremiumAlreadyActive())
}

// activatePremium validates a bot credential against the Telegram API
// and stores it encrypted. The credential never touches the database in
// the clear.
func (bh *Handlers) activatePremium(ctx context.Context, b *bot.Bot, update *models.Update, credential string) {
	userID := update.Message.From.ID

	client, err := bot.New(credential, bot.WithSkipGetMe())
	if err != nil {
		bh.reply(ctx, b, update, messages.PremiumInvalidCredential(err))
		return
	}
	if _, err := client.GetMe(ctx); err != nil {
		bh.reply(ctx, b, update, messages.PremiumInvalidCredential(err))
		return
	}

	encrypted, err := crypto.Encrypt(bh.cfg.EncryptionKey, credential)
	if err != nil {
		log.Printf("Error encrypting credential for user %d: %v", userID, err)
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}

	if err := bh.users.ActivatePremium(userID, update.Message.From.Username, encrypted); err != nil {
		log.Printf("Error activating premium for user %d: %v", userID, err)
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}

	log.Printf("Premium activated for user %d", userID)
	bh.reply(ctx, b, update, messages.PremiumActivated())
}

func (bh *Handlers) handleSetPremium(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	if len(args) != 1 {
		bh.reply(ctx, b, update, messages.SetPremiumUsage())
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || targetID <= 0 {
		bh.reply(ctx, b, update, messages.SetPremiumInvalidID())
		return
	}

	if err := bh.users.SetPremium(targetID); err != nil {
		log.Printf("Error granting premium to user %d: %v", targetID, err)
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}

	log.Printf("Premium granted to user %d by admin %d", targetID, update.Message.From.ID)
	bh.reply(ctx, b, update, messages.SetPremiumDone(targetID))
}

func (bh *Handlers) handleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	stats, err := bh.users.Stats()
	if err != nil {
		log.Printf("Error collecting stats: %v", err)
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}
	bh.reply(ctx, b, update, messages.StatsText(stats))
}

func (bh *Handlers) handleClean(ctx context.Context, b *bot.Bot, update *models.Update) {
	cutoff := time.Now().Add(-24 * time.Hour)
	deleted, err := bh.files.DeleteFileRecordsBefore(cutoff)
	if err != nil {
		log.Printf("Error cleaning file records: %v", err)
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}
	bh.reply(ctx, b, update, messages.Cleaned(deleted))
}

func (bh *Handlers) handleBroadcast(ctx context.Context, b *bot.Bot, update *models.Update) {
	replyTo := update.Message.ReplyToMessage
	if replyTo == nil {
		bh.reply(ctx, b, update, messages.BroadcastUsage())
		return
	}

	text := replyTo.Text
	if text == "" {
		text = replyTo.Caption
	}
	if text == "" {
		bh.reply(ctx, b, update, messages.BroadcastUsage())
		return
	}

	ids, err := bh.users.AllUserIDs()
	if err != nil {
		log.Printf("Error listing users for broadcast: %v", err)
		bh.reply(ctx, b, update, messages.ErrorDefault())
		return
	}

	sent := 0
	for _, id := range ids {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: id,
			Text:   text,
		})
		if err != nil {
			// Blocked bots and deleted accounts are expected here.
			log.Printf("Broadcast to user %d failed: %v", id, err)
			continue
		}
		sent++
	}

	log.Printf("Broadcast delivered to %d of %d users", sent, len(ids))
	bh.reply(ctx, b, update, messages.BroadcastDone(sent))
}

func (bh *Handlers) handleMaintenance(ctx context.Context, b *bot.Bot, update *models.Update) {
	on := bh.orch.ToggleMaintenance()
	log.Printf("Maintenance mode toggled to %v by admin %d", on, update.Message.From.ID)
	bh.reply(ctx, b, update, messages.MaintenanceState(on))
}
