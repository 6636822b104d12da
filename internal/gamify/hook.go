package gamify

import (
	"context"
	"fmt"
)

// OrderHook adapts badge awarding to the order pipeline's fire-and-forget
// shape: a failed award is logged, never surfaced to the order.
type OrderHook struct {
	Service *GamifyService
}

func (h *OrderHook) OnOrderCreated(ctx context.Context, userID string, orderCount int) {
	if err := h.Service.OnOrderCreated(ctx, userID, orderCount); err != nil {
		h.Service.Logger.Warn("GAMIFY", fmt.Sprintf("badge award failed for user %s: %v", userID, err))
	}
}
