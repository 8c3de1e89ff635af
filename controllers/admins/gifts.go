package admins

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"giftbot/services"
	"giftbot/utils"

	"github.com/gorilla/mux"
)

// CatalogController is the admin surface over the prize pool.
type CatalogController struct {
	allocation *services.Allocation
}

func NewCatalogController(allocation *services.Allocation) *CatalogController {
	return &CatalogController{allocation: allocation}
}

type addGiftRequest struct {
	Icon     string `json:"icon"`
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Quantity int    `json:"quantity"`
}

// AddGift POST /admin/gifts
func (c *CatalogController) AddGift(w http.ResponseWriter, r *http.Request) {
	var req addGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid JSON body",
		})
		return
	}

	gift, err := c.allocation.AddPrize(r.Context(), req.Icon, req.Name, req.Quantity, req.Rarity)
	if err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
				Success: false,
				Message: err.Error(),
			})
			return
		}
		log.Printf("[admin/gifts] add failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to add gift",
		})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Gift added",
		Data:    gift,
	})
}

// ListGifts GET /admin/gifts - whole catalog, depleted and disabled
// entries included.
func (c *CatalogController) ListGifts(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	gifts, total, err := c.allocation.Gifts(r.Context(), limit, (page-1)*limit)
	if err != nil {
		log.Printf("[admin/gifts] list failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load gifts",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data: map[string]interface{}{
			"items": gifts,
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

// SetAvailability PATCH /admin/gifts/{id} - soft enable/disable; rows are
// never deleted.
func (c *CatalogController) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid gift id",
		})
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid JSON body",
		})
		return
	}

	gift, err := c.allocation.SetAvailability(r.Context(), uint(id), req.Available)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
				Success: false,
				Message: "Gift not found",
			})
			return
		}
		log.Printf("[admin/gifts] availability update failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to update gift",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Gift updated",
		Data:    gift,
	})
}

func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
