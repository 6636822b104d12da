package rewards_api

import (
	"fmt"
	"net/http"

	"campusbites/internal/auth"
	"campusbites/internal/logger"
	"campusbites/internal/rewards"
	"campusbites/internal/utils"
)

type Handler struct {
	RewardsService *rewards.RewardsService
	Logger         *logger.Logger
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.RewardsService.Catalog(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Catalog: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "reward catalog", catalog)
}

func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	result, err := h.RewardsService.Spin(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Spin: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "spin result", result)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	claims, err := h.RewardsService.History(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("History: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "reward claims", claims)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	balance, err := h.RewardsService.Balance(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Balance: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "token balance", map[string]int{"tokens": balance})
}
