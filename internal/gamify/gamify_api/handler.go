package gamify_api

import (
	"fmt"
	"net/http"
	"strconv"

	"campusbites/internal/auth"
	"campusbites/internal/gamify"
	"campusbites/internal/logger"
	"campusbites/internal/utils"
)

type Handler struct {
	GamifyService *gamify.GamifyService
	Logger        *logger.Logger
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := h.GamifyService.Leaderboard(r.Context(), limit)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Leaderboard: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "leaderboard", entries)
}

func (h *Handler) Badges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.GamifyService.Badges(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Badges: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "badge catalog", badges)
}

func (h *Handler) MyBadges(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	awards, err := h.GamifyService.UserBadges(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyBadges: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "user badges", awards)
}

func (h *Handler) ComfortFood(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	entries, err := h.GamifyService.ComfortFood(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ComfortFood: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "comfort food", entries)
}
