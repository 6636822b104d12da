package outlet_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"campusbites/internal/apperr"
	"campusbites/internal/auth"
	"campusbites/internal/logger"
	"campusbites/internal/outlet"
	"campusbites/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OutletService *outlet.OutletService
	Logger        *logger.Logger
}

func (h *Handler) GetOutlet(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "outletID")

	view, err := h.OutletService.GetOutlet(r.Context(), outletID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOutlet: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "outlet", view)
}

func (h *Handler) ListOutlets(w http.ResponseWriter, r *http.Request) {
	universityID := r.URL.Query().Get("university_id")
	if universityID == "" {
		utils.WriteError(w, apperr.Validation("university_id query parameter is required"))
		return
	}

	views, err := h.OutletService.ListOutlets(r.Context(), universityID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "outlets", views)
}

func (h *Handler) ActivateChill(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "outletID")

	var req struct {
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	endsAt, err := h.OutletService.ActivateChill(r.Context(), outletID, auth.UserID(r.Context()), req.Minutes)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ActivateChill: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, "chill period activated", map[string]interface{}{
		"outlet_id":     outletID,
		"chill_ends_at": endsAt,
	})
}

func (h *Handler) DeactivateChill(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "outletID")

	if err := h.OutletService.DeactivateChill(r.Context(), outletID, auth.UserID(r.Context())); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeactivateChill: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "chill period deactivated", nil)
}
