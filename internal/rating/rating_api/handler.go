package rating_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"campusbites/internal/apperr"
	"campusbites/internal/auth"
	"campusbites/internal/logger"
	"campusbites/internal/rating"
	"campusbites/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	RatingService *rating.RatingService
	Logger        *logger.Logger
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req rating.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Submit: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	req.OrderID = chi.URLParam(r, "orderID")

	result, err := h.RatingService.Submit(r.Context(), userID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Submit: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, "rating recorded", result)
}

func (h *Handler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	result, err := h.RatingService.GetByOrder(r.Context(), orderID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "rating", result)
}

func (h *Handler) OutletRatings(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "outletID")

	result, err := h.RatingService.OutletRatings(r.Context(), outletID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("OutletRatings: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "outlet ratings", result)
}
