package controllers

import (
	"log"
	"net/http"

	"giftbot/models"
	"giftbot/services"
	"giftbot/utils"
)

// GiftsController serves the Mini App read API.
type GiftsController struct {
	allocation *services.Allocation
}

func NewGiftsController(allocation *services.Allocation) *GiftsController {
	return &GiftsController{allocation: allocation}
}

// catalogEntry is the wire format consumed by the Mini App roulette.
type catalogEntry struct {
	ID       uint   `json:"id"`
	Icon     string `json:"icon"`
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Quantity int    `json:"quantity"`
}

// List GET /api/gifts - available gifts only; depleted and disabled
// entries never show up here.
func (c *GiftsController) List(w http.ResponseWriter, r *http.Request) {
	gifts, err := c.allocation.ListAvailable(r.Context())
	if err != nil {
		log.Printf("[gifts] list failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load gifts",
		})
		return
	}

	entries := make([]catalogEntry, 0, len(gifts))
	for _, g := range gifts {
		entries = append(entries, toCatalogEntry(g))
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data:    entries,
	})
}

func toCatalogEntry(g models.Gift) catalogEntry {
	return catalogEntry{
		ID:       g.ID,
		Icon:     g.Icon,
		Name:     g.Name,
		Rarity:   g.Rarity,
		Quantity: g.Quantity,
	}
}
