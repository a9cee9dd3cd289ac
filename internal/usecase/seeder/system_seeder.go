package seeder

import (
	"context"
	"errors"
	"strconv"

	"github.com/binrental/binrental-backend/internal/domain"
	"github.com/binrental/binrental-backend/internal/usecase/settlement"
)

// SystemSeeder ensures the platform settings the engine depends on exist
// before the first request is served.
type SystemSeeder struct {
	repo domain.SettingRepository
}

// NewSystemSeeder creates a new SystemSeeder instance.
func NewSystemSeeder(repo domain.SettingRepository) *SystemSeeder {
	return &SystemSeeder{
		repo: repo,
	}
}

// Seed writes the default commission percentage if no value has been
// configured yet. An existing value is left untouched.
func (s *SystemSeeder) Seed(ctx context.Context) error {
	_, err := s.repo.Get(ctx, settlement.CommissionSettingKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return s.repo.Set(ctx, settlement.CommissionSettingKey, strconv.Itoa(settlement.DefaultCommissionPercent))
}
