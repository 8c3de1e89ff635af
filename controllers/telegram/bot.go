package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"giftbot/services"
)

const slotMachineEmoji = "🎰"

// BotController is the main giveaway bot session: it watches slot-machine
// rolls, hands jackpot winners the Mini App, and takes the prize pick
// back from the Mini App. All wording lives here; services only return
// error kinds.
type BotController struct {
	users      *services.Users
	allocation *services.Allocation
	stats      *services.Stats
	client     *Client

	miniAppURL  string
	botUsername string
	adminIDs    map[int64]bool
}

func NewBotController(users *services.Users, allocation *services.Allocation, stats *services.Stats) *BotController {
	return &BotController{
		users:       users,
		allocation:  allocation,
		stats:       stats,
		client:      NewClient(os.Getenv("BOT_TOKEN")),
		miniAppURL:  getenv("MINI_APP_URL", "https://example.com"),
		botUsername: strings.TrimPrefix(os.Getenv("BOT_USERNAME"), "@"),
		adminIDs:    parseAdminIDs(os.Getenv("TELEGRAM_ADMIN_IDS")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseAdminIDs(raw string) map[int64]bool {
	ids := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids[id] = true
		}
	}
	return ids
}

// isAdmin is the single authorization gate for chat-side admin commands.
func (c *BotController) isAdmin(telegramID int64) bool {
	return c.adminIDs[telegramID]
}

// Webhook POST /telegram/webhook. Always answers 200; Telegram re-delivers
// updates on any other status and the bot handles duplicates gracefully
// anyway.
func (c *BotController) Webhook(w http.ResponseWriter, r *http.Request) {
	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("[telegram] bad update payload: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	c.handleUpdate(r, &update)
	w.WriteHeader(http.StatusOK)
}

func (c *BotController) handleUpdate(r *http.Request, update *Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.Chat == nil {
		return
	}

	switch {
	case strings.HasPrefix(msg.Text, "/start"):
		c.handleStart(r, msg)
	case strings.HasPrefix(msg.Text, "/addgift"):
		c.handleAddGift(r, msg)
	case strings.HasPrefix(msg.Text, "/stats"):
		c.handleStats(r, msg)
	case msg.Dice != nil && msg.Dice.Emoji == slotMachineEmoji:
		c.handleRoll(r, msg)
	case msg.WebAppData != nil:
		c.handleWebAppData(r, msg)
	}
}

func (c *BotController) handleStart(r *http.Request, msg *Message) {
	if _, err := c.users.EnsureUser(r.Context(), msg.From.ID, msg.From.Username, msg.From.FirstName); err != nil {
		log.Printf("[telegram] ensure user %d: %v", msg.From.ID, err)
	}

	args := strings.Fields(msg.Text)
	if len(args) > 1 && args[1] == "jackpot" {
		markup := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
			{Text: "🎰 Open the prize roulette", WebApp: &WebAppInfo{URL: c.miniAppURL}},
		}}}
		c.reply(msg, fmt.Sprintf(
			"🎉 Congratulations, %s!\n\nYou hit the JACKPOT! 777 🎰\nSpin the prize roulette and claim your guaranteed gift!",
			msg.From.FirstName), markup)
		return
	}

	c.reply(msg, fmt.Sprintf(
		"👋 Hi, %s!\n\n🎰 Send the slot machine emoji to try your luck!\nRoll 777 and the prize roulette is yours! 🎁",
		msg.From.FirstName), nil)
}

func (c *BotController) handleRoll(r *http.Request, msg *Message) {
	user, err := c.users.EnsureUser(r.Context(), msg.From.ID, msg.From.Username, msg.From.FirstName)
	if err != nil {
		log.Printf("[telegram] ensure user %d: %v", msg.From.ID, err)
		return
	}

	result, err := services.Evaluate(msg.Dice.Value)
	if err != nil {
		// Telegram only sends 1..64 for the slot machine; anything else
		// means a malformed update, not a miss.
		log.Printf("[telegram] roll value %d from user %d: %v", msg.Dice.Value, msg.From.ID, err)
		return
	}

	if err := c.stats.RecordRoll(r.Context(), user.ID, result == services.Jackpot); err != nil {
		log.Printf("[telegram] record roll for user %d: %v", user.ID, err)
	}
	log.Printf("[telegram] user %d (@%s) rolled %d (%s)", msg.From.ID, msg.From.Username, msg.Dice.Value, result)

	if result == services.Jackpot {
		deepLink := fmt.Sprintf("https://t.me/%s?start=jackpot", c.botUsername)
		markup := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
			{Text: "🎁 Claim your prize", URL: deepLink},
		}}}
		c.reply(msg, fmt.Sprintf(
			"🎰🎰🎰 JACKPOT! 777! 🎰🎰🎰\n\n🎉 Congratulations, %s!\nYou won access to the prize roulette!\n\n👇 Tap the button below to claim your prize:",
			msg.From.FirstName), markup)
		return
	}

	c.reply(msg, fmt.Sprintf(
		"😔 No luck... You rolled %d.\nTry again, you need 777! 🎰", msg.Dice.Value), nil)
}

type webAppPayload struct {
	GiftID uint `json:"gift_id"`
}

func (c *BotController) handleWebAppData(r *http.Request, msg *Message) {
	var payload webAppPayload
	if err := json.Unmarshal([]byte(msg.WebAppData.Data), &payload); err != nil || payload.GiftID == 0 {
		log.Printf("[telegram] bad web app payload from user %d: %q", msg.From.ID, msg.WebAppData.Data)
		c.reply(msg, "⚠️ Could not read your prize pick. Open the roulette and try again.", nil)
		return
	}

	user, err := c.users.EnsureUser(r.Context(), msg.From.ID, msg.From.Username, msg.From.FirstName)
	if err != nil {
		log.Printf("[telegram] ensure user %d: %v", msg.From.ID, err)
		c.reply(msg, "⚠️ Something went wrong, please try again.", nil)
		return
	}

	win, err := c.allocation.Reserve(r.Context(), user, payload.GiftID)
	switch {
	case err == nil:
		log.Printf("[telegram] win %d reserved for user %d", win.ID, user.ID)
		c.reply(msg, "✅ Your prize is reserved!\nSend a sticker to the sender account and your gift is on its way. 🎁", nil)
	case errors.Is(err, services.ErrOutOfStock):
		c.reply(msg, "😔 That prize just ran out. Open the roulette again and pick another one!", nil)
	case errors.Is(err, services.ErrNotFound):
		c.reply(msg, "⚠️ That prize does not exist anymore. Open the roulette again.", nil)
	default:
		log.Printf("[telegram] reserve gift %d for user %d: %v", payload.GiftID, user.ID, err)
		c.reply(msg, "⚠️ Something went wrong, please try again in a moment.", nil)
	}
}

func (c *BotController) handleAddGift(r *http.Request, msg *Message) {
	if !c.isAdmin(msg.From.ID) {
		return
	}

	// /addgift <icon> <rarity> <quantity> <name...>
	args := strings.Fields(msg.Text)
	if len(args) < 5 {
		c.reply(msg, "Usage: /addgift <icon> <rarity> <quantity> <name>", nil)
		return
	}
	quantity, err := strconv.Atoi(args[3])
	if err != nil {
		c.reply(msg, "Quantity must be a number.", nil)
		return
	}

	gift, err := c.allocation.AddPrize(r.Context(), args[1], strings.Join(args[4:], " "), quantity, args[2])
	if err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			c.reply(msg, "❌ "+err.Error(), nil)
			return
		}
		log.Printf("[telegram] add gift: %v", err)
		c.reply(msg, "⚠️ Failed to add the gift.", nil)
		return
	}
	c.reply(msg, fmt.Sprintf("✅ Added %s %s (%s) x%d", gift.Icon, gift.Name, gift.Rarity, gift.Quantity), nil)
}

func (c *BotController) handleStats(r *http.Request, msg *Message) {
	if !c.isAdmin(msg.From.ID) {
		return
	}

	total, jackpots, err := c.stats.RollStats(r.Context())
	if err != nil {
		log.Printf("[telegram] roll stats: %v", err)
		c.reply(msg, "⚠️ Failed to load stats.", nil)
		return
	}
	pending, fulfilled, err := c.allocation.WinCounts(r.Context())
	if err != nil {
		log.Printf("[telegram] win counts: %v", err)
		c.reply(msg, "⚠️ Failed to load stats.", nil)
		return
	}
	c.reply(msg, fmt.Sprintf(
		"📊 Rolls: %d\n🎰 Jackpots: %d\n⏳ Pending gifts: %d\n✅ Sent gifts: %d",
		total, jackpots, pending, fulfilled), nil)
}

func (c *BotController) reply(msg *Message, text string, markup *InlineKeyboardMarkup) {
	if err := c.client.SendMessage(msg.Chat.ID, text, msg.MessageID, markup); err != nil {
		log.Printf("[telegram] send to chat %d: %v", msg.Chat.ID, err)
	}
}
