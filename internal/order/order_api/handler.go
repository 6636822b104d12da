package order_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"campusbites/internal/apperr"
	"campusbites/internal/auth"
	"campusbites/internal/logger"
	"campusbites/internal/models"
	"campusbites/internal/order"
	"campusbites/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req order.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	result, err := h.OrderService.CreateOrder(r.Context(), userID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, "order created", result)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	h.Logger.Info("API", fmt.Sprintf("GetOrder: orderID=%s", orderID))

	result, err := h.OrderService.GetOrder(r.Context(), orderID, auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, "order", result)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOrders: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "orders", orders)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	next, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		utils.WriteError(w, apperr.Validation("%v", err))
		return
	}

	err = h.OrderService.UpdateStatus(r.Context(), orderID, next, auth.UserID(r.Context()), auth.Role(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateStatus: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, "status updated", map[string]string{
		"order_id": orderID,
		"status":   string(next),
	})
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	if err := h.OrderService.CancelOrder(r.Context(), orderID, auth.UserID(r.Context())); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelOrder: %v", err))
		utils.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ---------------- GROUP ORDERS ----------------

func (h *Handler) CreateGroupOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OutletID string `json:"outlet_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	group, err := h.OrderService.CreateGroupOrder(r.Context(), auth.UserID(r.Context()), req.OutletID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, "group order created", group)
}

func (h *Handler) GetGroupOrder(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "shareToken")

	group, members, err := h.OrderService.GetGroupOrder(r.Context(), token)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "group order", map[string]interface{}{
		"group":  group,
		"orders": members,
	})
}

func (h *Handler) CloseGroupOrder(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	if err := h.OrderService.CloseGroupOrder(r.Context(), groupID, auth.UserID(r.Context())); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "group order closed", nil)
}
