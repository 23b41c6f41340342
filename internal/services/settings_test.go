package services

import (
	"path/filepath"
	"testing"

	"github.com/mkale-dev/rollcall/internal/db"
	"github.com/mkale-dev/rollcall/internal/models"
)

func newSettingsFixture(t *testing.T) *SettingsService {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "rollcall-settings.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	service, err := NewSettingsService(db.NewSettingsRepository(database))
	if err != nil {
		t.Fatalf("new settings service: %v", err)
	}
	return service
}

func TestSettingsUpdateTakesEffect(t *testing.T) {
	t.Parallel()
	service := newSettingsFixture(t)

	updated := service.Current()
	updated.MaxSelfNotifications = 1
	updated.SupervisorNotificationIntervalMinutes = 10

	if _, err := service.Update(updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	current := service.Current()
	if current.MaxSelfNotifications != 1 || current.SupervisorNotificationIntervalMinutes != 10 {
		t.Fatalf("expected updated settings, got %+v", current)
	}
}

func TestSettingsUpdateRejectsInvalidValues(t *testing.T) {
	t.Parallel()
	service := newSettingsFixture(t)
	before := service.Current()

	cases := []struct {
		name   string
		mutate func(settings *models.EscalationSettings)
	}{
		{"zero check interval", func(s *models.EscalationSettings) { s.CheckIntervalMinutes = 0 }},
		{"negative self limit", func(s *models.EscalationSettings) { s.MaxSelfNotifications = -1 }},
		{"zero escalation window", func(s *models.EscalationSettings) { s.SupervisorEscalationMinutes = 0 }},
		{"zero notification interval", func(s *models.EscalationSettings) { s.SupervisorNotificationIntervalMinutes = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			invalid := before
			tc.mutate(&invalid)
			if _, err := service.Update(invalid); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if service.Current() != before {
		t.Fatal("rejected updates must not change the cached settings")
	}
}
