package routes

import (
	"net/http"
	"time"

	"giftbot/controllers/admins"
	"giftbot/middleware"
	"giftbot/services"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// AdminRoutes registers the operator API under /admin.
func AdminRoutes(r *mux.Router, db *gorm.DB, allocation *services.Allocation, stats *services.Stats) {
	auth := admins.NewAuthController(db)
	catalog := admins.NewCatalogController(allocation)
	ledger := admins.NewLedgerController(allocation, stats)

	loginLimiter := middleware.NewIPRateLimiter(30, 5*time.Minute)

	api := r.PathPrefix("/admin").Subrouter()
	api.Handle("/login", loginLimiter.Middleware(http.HandlerFunc(auth.Login))).Methods(http.MethodPost)
	api.Handle("/logout", middleware.AdminAuthMiddleware(http.HandlerFunc(auth.Logout))).Methods(http.MethodPost)

	api.Handle("/gifts", middleware.AdminAuthMiddleware(http.HandlerFunc(catalog.AddGift))).Methods(http.MethodPost)
	api.Handle("/gifts", middleware.AdminAuthMiddleware(http.HandlerFunc(catalog.ListGifts))).Methods(http.MethodGet)
	api.Handle("/gifts/{id}", middleware.AdminAuthMiddleware(http.HandlerFunc(catalog.SetAvailability))).Methods(http.MethodPatch)

	api.Handle("/wins", middleware.AdminAuthMiddleware(http.HandlerFunc(ledger.ListWins))).Methods(http.MethodGet)
	api.Handle("/stats", middleware.AdminAuthMiddleware(http.HandlerFunc(ledger.Stats))).Methods(http.MethodGet)
}
