package pickup_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"campusbites/internal/apperr"
	"campusbites/internal/auth"
	"campusbites/internal/logger"
	"campusbites/internal/pickup"
	"campusbites/internal/pickup/qr"
	"campusbites/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	PickupService *pickup.PickupService
	Logger        *logger.Logger
}

func (h *Handler) VerifyByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	details, err := h.PickupService.VerifyByCode(r.Context(), code)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("VerifyByCode: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "pickup details", details)
}

func (h *Handler) ConfirmPickup(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	details, err := h.PickupService.VerifyByCode(r.Context(), code)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	err = h.PickupService.ConfirmPickup(r.Context(), details.Order.ID, auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ConfirmPickup: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "pickup confirmed", map[string]string{"order_id": details.Order.ID})
}

func (h *Handler) ScanByOutlet(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "outletID")

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ScanByOutlet: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	order, err := h.PickupService.ScanByOutlet(r.Context(), req.Code, outletID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ScanByOutlet: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "pickup confirmed", order)
}

// QRCode renders the credential as a PNG for display.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	// Resolve first so unknown codes 404 instead of rendering garbage.
	if _, err := h.PickupService.VerifyByCode(r.Context(), code); err != nil {
		utils.WriteError(w, err)
		return
	}

	png, err := qr.Render(code)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
