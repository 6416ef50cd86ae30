// Package settings resolves runtime-tunable system settings with configured fallbacks.
package settings

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/repository"
)

const (
	// FarmerConfirmationWindowDaysKey is the setting holding the farmer confirmation window.
	FarmerConfirmationWindowDaysKey = "FarmerConfirmationWindowDays"
	// DefaultFarmerConfirmationWindowDays applies when the setting is unset or unusable.
	DefaultFarmerConfirmationWindowDays = 3
)

// Service looks settings up in the store first, then in the static fallbacks.
type Service struct {
	repo      repository.SettingsRepository
	fallbacks map[string]string
	logger    *zap.Logger
}

// NewService wires a settings resolver. repo may be nil when only fallbacks are used.
func NewService(repo repository.SettingsRepository, fallbacks map[string]string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallbacks == nil {
		fallbacks = map[string]string{}
	}
	return &Service{repo: repo, fallbacks: fallbacks, logger: logger}
}

// Lookup returns the raw value stored under key.
func (s *Service) Lookup(ctx context.Context, key string) (string, bool) {
	if s.repo != nil {
		value, found, err := s.repo.GetSetting(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("setting lookup failed, using fallback", zap.String("key", key), zap.Error(err))
		case found:
			return value, true
		}
	}

	value, ok := s.fallbacks[key]
	return value, ok
}

// FarmerConfirmationWindowDays returns the number of days a farmer has to confirm
// reception after the supervisor confirmed a distribution.
func (s *Service) FarmerConfirmationWindowDays(ctx context.Context) int {
	raw, ok := s.Lookup(ctx, FarmerConfirmationWindowDaysKey)
	if !ok {
		return DefaultFarmerConfirmationWindowDays
	}

	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days <= 0 {
		s.logger.Debug("unusable farmer confirmation window, using default",
			zap.String("value", raw), zap.Int("default", DefaultFarmerConfirmationWindowDays))
		return DefaultFarmerConfirmationWindowDays
	}
	return days
}
