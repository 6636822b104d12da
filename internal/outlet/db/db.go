package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"campusbites/internal/apperr"
	"campusbites/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetOutlet(ctx context.Context, id string) (*models.Outlet, error) {
	var outlet models.Outlet
	err := d.Bun.NewSelect().
		Model(&outlet).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("outlet %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &outlet, nil
}

func (d *DB) ListOutletsByUniversity(ctx context.Context, universityID string) ([]models.Outlet, error) {
	outlets := []models.Outlet{}
	err := d.Bun.NewSelect().
		Model(&outlets).
		Where("university_id = ?", universityID).
		Order("name").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return outlets, nil
}

// SetChill activates the chill period until endsAt. The stored timestamp is
// the source of truth; readers compute effective state against "now".
func (d *DB) SetChill(ctx context.Context, outletID string, endsAt time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Outlet)(nil)).
		Set("chill_active = ?", true).
		Set("chill_ends_at = ?", endsAt).
		Where("id = ?", outletID).
		Exec(ctx)
	return err
}

func (d *DB) ClearChill(ctx context.Context, outletID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Outlet)(nil)).
		Set("chill_active = ?", false).
		Set("chill_ends_at = NULL").
		Where("id = ?", outletID).
		Exec(ctx)
	return err
}
