package admins

import (
	"log"
	"net/http"
	"strings"

	"giftbot/models"
	"giftbot/services"
	"giftbot/utils"
)

// LedgerController exposes the win ledger and roll telemetry.
type LedgerController struct {
	allocation *services.Allocation
	stats      *services.Stats
}

func NewLedgerController(allocation *services.Allocation, stats *services.Stats) *LedgerController {
	return &LedgerController{allocation: allocation, stats: stats}
}

// ListWins GET /admin/wins?status=pending|fulfilled
func (c *LedgerController) ListWins(w http.ResponseWriter, r *http.Request) {
	status := models.WinStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && status != models.WinPending && status != models.WinFulfilled {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Unknown status filter",
		})
		return
	}

	page, limit := pagination(r)
	wins, total, err := c.allocation.Wins(r.Context(), status, limit, (page-1)*limit)
	if err != nil {
		log.Printf("[admin/wins] list failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load wins",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data: map[string]interface{}{
			"items": wins,
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// Stats GET /admin/stats - roll attempts and claim totals.
func (c *LedgerController) Stats(w http.ResponseWriter, r *http.Request) {
	total, jackpots, err := c.stats.RollStats(r.Context())
	if err != nil {
		log.Printf("[admin/stats] roll stats failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load stats",
		})
		return
	}
	pending, fulfilled, err := c.allocation.WinCounts(r.Context())
	if err != nil {
		log.Printf("[admin/stats] win counts failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load stats",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data: map[string]interface{}{
			"rolls":          total,
			"jackpots":       jackpots,
			"wins_pending":   pending,
			"wins_fulfilled": fulfilled,
		},
	})
}
