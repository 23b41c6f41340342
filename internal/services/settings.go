package services

import (
	"fmt"
	"sync"

	"github.com/mkale-dev/rollcall/internal/models"
)

type settingsRepository interface {
	Load() (models.EscalationSettings, error)
	Save(settings *models.EscalationSettings) error
}

// SettingsService caches the escalation settings row and keeps the cache
// coherent across updates. The scheduler reads it every tick, so admin
// changes take effect without a restart.
type SettingsService struct {
	repository settingsRepository

	mu      sync.RWMutex
	current models.EscalationSettings
}

// NewSettingsService loads the settings row, seeding defaults on first boot.
func NewSettingsService(repository settingsRepository) (*SettingsService, error) {
	settings, err := repository.Load()
	if err != nil {
		return nil, fmt.Errorf("load escalation settings: %w", err)
	}
	return &SettingsService{repository: repository, current: settings}, nil
}

func (service *SettingsService) Current() models.EscalationSettings {
	service.mu.RLock()
	defer service.mu.RUnlock()
	return service.current
}

// Update validates and persists new settings, then swaps the cache.
func (service *SettingsService) Update(updated models.EscalationSettings) (models.EscalationSettings, error) {
	if err := validateSettings(updated); err != nil {
		return models.EscalationSettings{}, err
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	updated.ID = service.current.ID
	if err := service.repository.Save(&updated); err != nil {
		return models.EscalationSettings{}, fmt.Errorf("save escalation settings: %w", err)
	}
	service.current = updated
	return updated, nil
}

func validateSettings(settings models.EscalationSettings) error {
	if settings.CheckIntervalMinutes < 1 {
		return fmt.Errorf("check interval must be at least 1 minute")
	}
	if settings.MaxSelfNotifications < 0 {
		return fmt.Errorf("max self notifications must not be negative")
	}
	if settings.SupervisorEscalationMinutes < 1 {
		return fmt.Errorf("supervisor escalation window must be at least 1 minute")
	}
	if settings.SupervisorNotificationIntervalMinutes < 1 {
		return fmt.Errorf("supervisor notification interval must be at least 1 minute")
	}
	return nil
}
