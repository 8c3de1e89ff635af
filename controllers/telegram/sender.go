package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"giftbot/services"
)

// SenderController is the secondary delivery session. A winner confirms by
// sending it a sticker in private chat; the oldest pending win is then
// fulfilled and the gift message goes out.
type SenderController struct {
	users      *services.Users
	allocation *services.Allocation
	client     *Client
}

func NewSenderController(users *services.Users, allocation *services.Allocation) *SenderController {
	return &SenderController{
		users:      users,
		allocation: allocation,
		client:     NewClient(os.Getenv("SENDER_BOT_TOKEN")),
	}
}

// Webhook POST /telegram/sender/webhook
func (c *SenderController) Webhook(w http.ResponseWriter, r *http.Request) {
	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("[sender] bad update payload: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	c.handleUpdate(r, &update)
	w.WriteHeader(http.StatusOK)
}

func (c *SenderController) handleUpdate(r *http.Request, update *Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.Chat == nil {
		return
	}
	// Only private confirmations count; group stickers are noise.
	if msg.Chat.Type != "private" || msg.Sticker == nil {
		return
	}

	if _, err := c.users.EnsureUser(r.Context(), msg.From.ID, msg.From.Username, msg.From.FirstName); err != nil {
		log.Printf("[sender] ensure user %d: %v", msg.From.ID, err)
	}

	win, err := c.allocation.FulfillOldestPending(r.Context(), msg.From.ID)
	switch {
	case err == nil:
		name := "your gift"
		if win.Gift != nil {
			name = fmt.Sprintf("%s %s", win.Gift.Icon, win.Gift.Name)
		}
		log.Printf("[sender] win %d fulfilled for user %d", win.ID, msg.From.ID)
		c.reply(msg, fmt.Sprintf(
			"🎁 Congratulations!\n\nYou won: <b>%s</b>\n\nYour gift has been sent! Check your profile.", name))
	case errors.Is(err, services.ErrNotFound):
		// No pending win: either no jackpot yet or every gift was already
		// sent. A repeated sticker lands here and stays a no-op.
		c.reply(msg, "✅ Thanks! You have no gifts waiting right now.\nRoll 777 with the main bot to win one! 🎰")
	default:
		log.Printf("[sender] fulfill for user %d: %v", msg.From.ID, err)
		c.reply(msg, "⚠️ Something went wrong, please send the sticker again in a moment.")
	}
}

func (c *SenderController) reply(msg *Message, text string) {
	if err := c.client.SendMessage(msg.Chat.ID, text, msg.MessageID, nil); err != nil {
		log.Printf("[sender] send to chat %d: %v", msg.Chat.ID, err)
	}
}
