package routes

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"giftbot/controllers"
	"giftbot/controllers/telegram"
	"giftbot/middleware"
	"giftbot/services"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// InitRouter wires every HTTP surface: Mini App read API, both Telegram
// webhooks and the admin API.
func InitRouter(db *gorm.DB) *mux.Router {
	users := services.NewUsers(db)
	allocation := services.NewAllocation(db)
	stats := services.NewStats(db)

	r := mux.NewRouter()

	// CORS for the Mini App; the original front end calls the catalog from
	// a browser context, ngrok header included.
	origins := []string{"*"}
	if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
		origins = origins[:0]
		for _, o := range strings.Split(env, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "ngrok-skip-browser-warning", "X-Request-ID"}),
		)(next)
	})

	// Health check, root level for container probes.
	r.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
			"service":   "giftbot-api",
		})
	})).Methods(http.MethodGet)

	gifts := controllers.NewGiftsController(allocation)
	r.Handle("/api/gifts", http.HandlerFunc(gifts.List)).Methods(http.MethodGet)

	// Telegram webhooks, rate limited per IP; Telegram's own retry policy
	// means a 429 just delays redelivery.
	webhookLimiter := middleware.NewIPRateLimiter(600, time.Minute)

	bot := telegram.NewBotController(users, allocation, stats)
	sender := telegram.NewSenderController(users, allocation)
	r.Handle("/telegram/webhook", webhookLimiter.Middleware(http.HandlerFunc(bot.Webhook))).Methods(http.MethodPost)
	r.Handle("/telegram/sender/webhook", webhookLimiter.Middleware(http.HandlerFunc(sender.Webhook))).Methods(http.MethodPost)

	AdminRoutes(r, db, allocation, stats)

	return r
}
