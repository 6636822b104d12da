package outlet

import (
	"context"
	"fmt"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/config"
	"campusbites/internal/logger"
	"campusbites/internal/models"
)

type DBLayer interface {
	GetOutlet(ctx context.Context, id string) (*models.Outlet, error)
	ListOutletsByUniversity(ctx context.Context, universityID string) ([]models.Outlet, error)
	SetChill(ctx context.Context, outletID string, endsAt time.Time) error
	ClearChill(ctx context.Context, outletID string) error
}

// ChillMirror keeps a TTL key per active chill period so expiry is
// observable. Mirror failures are logged, never propagated; the database
// timestamp is authoritative.
type ChillMirror interface {
	MarkChilled(outletID string, ttl time.Duration) error
	ClearChilled(outletID string) error
}

type Notifier interface {
	NotifyChillChange(outletID string, active bool)
}

type OutletService struct {
	DB       DBLayer
	Mirror   ChillMirror
	Notifier Notifier
	Logger   *logger.Logger
	Config   config.ChillConfig

	now func() time.Time
}

func NewOutletService(db DBLayer, mirror ChillMirror, notifier Notifier, log *logger.Logger, cfg config.ChillConfig) *OutletService {
	return &OutletService{
		DB:       db,
		Mirror:   mirror,
		Notifier: notifier,
		Logger:   log,
		Config:   cfg,
		now:      time.Now,
	}
}

// EvaluateAfterOrder is called with the post-increment active-order count
// of every successful order creation. Crossing the threshold activates the
// default cool-down; an already-running chill period is left alone.
func (s *OutletService) EvaluateAfterOrder(ctx context.Context, outlet *models.Outlet, postCount int) {
	if postCount < outlet.MaxActiveOrders {
		return
	}
	if outlet.EffectivelyChilled(s.now()) {
		return
	}

	endsAt := s.now().Add(s.Config.DefaultCooldown)
	if err := s.applyChill(ctx, outlet.ID, endsAt); err != nil {
		// The order itself already succeeded; the throttle is advisory.
		s.Logger.Error("CHILL", fmt.Sprintf("auto-activation failed for outlet %s: %v", outlet.ID, err))
		return
	}
	s.Logger.Info("CHILL", fmt.Sprintf("outlet %s auto-chilled until %s (%d/%d active orders)",
		outlet.ID, endsAt.Format(time.RFC3339), postCount, outlet.MaxActiveOrders))
}

// ActivateChill is the owner's manual trigger with an explicit duration.
func (s *OutletService) ActivateChill(ctx context.Context, outletID, actorID string, minutes int) (time.Time, error) {
	if minutes < s.Config.MinMinutes || minutes > s.Config.MaxMinutes {
		return time.Time{}, apperr.Validation("chill duration must be between %d and %d minutes",
			s.Config.MinMinutes, s.Config.MaxMinutes)
	}

	outlet, err := s.DB.GetOutlet(ctx, outletID)
	if err != nil {
		return time.Time{}, err
	}
	if outlet.OwnerID != actorID {
		return time.Time{}, apperr.Forbidden("outlet belongs to another owner")
	}

	endsAt := s.now().Add(time.Duration(minutes) * time.Minute)
	if err := s.applyChill(ctx, outletID, endsAt); err != nil {
		return time.Time{}, err
	}
	s.Logger.Info("CHILL", fmt.Sprintf("outlet %s manually chilled for %d minutes", outletID, minutes))
	return endsAt, nil
}

// DeactivateChill lifts the chill period immediately regardless of
// counters.
func (s *OutletService) DeactivateChill(ctx context.Context, outletID, actorID string) error {
	outlet, err := s.DB.GetOutlet(ctx, outletID)
	if err != nil {
		return err
	}
	if outlet.OwnerID != actorID {
		return apperr.Forbidden("outlet belongs to another owner")
	}

	if err := s.DB.ClearChill(ctx, outletID); err != nil {
		return fmt.Errorf("clear chill: %w", err)
	}

	if s.Mirror != nil {
		if err := s.Mirror.ClearChilled(outletID); err != nil {
			s.Logger.Warn("CHILL", fmt.Sprintf("failed to clear mirror key for %s: %v", outletID, err))
		}
	}
	if s.Notifier != nil {
		s.Notifier.NotifyChillChange(outletID, false)
	}
	return nil
}

// HandleChillExpiry runs when an outlet's mirror key expires. The stored
// timestamp is re-checked so a chill period that was extended after the
// key was written is not cut short.
func (s *OutletService) HandleChillExpiry(ctx context.Context, outletID string) {
	outlet, err := s.DB.GetOutlet(ctx, outletID)
	if err != nil {
		s.Logger.Error("CHILL", fmt.Sprintf("expiry handling failed, outlet %s lookup: %v", outletID, err))
		return
	}
	if !outlet.ChillActive {
		return
	}
	if outlet.EffectivelyChilled(s.now()) {
		// Extended since the mirror key was set; re-mirror the remainder.
		if s.Mirror != nil {
			if err := s.Mirror.MarkChilled(outletID, outlet.ChillEndsAt.Sub(s.now())); err != nil {
				s.Logger.Warn("CHILL", fmt.Sprintf("failed to re-mirror chill key for %s: %v", outletID, err))
			}
		}
		return
	}

	if err := s.DB.ClearChill(ctx, outletID); err != nil {
		s.Logger.Error("CHILL", fmt.Sprintf("failed to clear expired chill for %s: %v", outletID, err))
		return
	}
	s.Logger.Info("CHILL", fmt.Sprintf("chill period expired for outlet %s", outletID))
	if s.Notifier != nil {
		s.Notifier.NotifyChillChange(outletID, false)
	}
}

// GetOutlet returns the outlet with its chill state computed against now.
func (s *OutletService) GetOutlet(ctx context.Context, outletID string) (*models.OutletView, error) {
	outlet, err := s.DB.GetOutlet(ctx, outletID)
	if err != nil {
		return nil, err
	}
	view := outlet.ToView(s.now())
	return &view, nil
}

func (s *OutletService) ListOutlets(ctx context.Context, universityID string) ([]models.OutletView, error) {
	outlets, err := s.DB.ListOutletsByUniversity(ctx, universityID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]models.OutletView, len(outlets))
	for i, o := range outlets {
		views[i] = o.ToView(now)
	}
	return views, nil
}

func (s *OutletService) applyChill(ctx context.Context, outletID string, endsAt time.Time) error {
	if err := s.DB.SetChill(ctx, outletID, endsAt); err != nil {
		return fmt.Errorf("persist chill period: %w", err)
	}

	if s.Mirror != nil {
		if err := s.Mirror.MarkChilled(outletID, time.Until(endsAt)); err != nil {
			s.Logger.Warn("CHILL", fmt.Sprintf("failed to mirror chill key for %s: %v", outletID, err))
		}
	}
	if s.Notifier != nil {
		s.Notifier.NotifyChillChange(outletID, true)
	}
	return nil
}
