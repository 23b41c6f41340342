package models

import "time"

const (
	DefaultCheckIntervalMinutes                  = 2
	DefaultMaxSelfNotifications                  = 3
	DefaultSupervisorEscalationMinutes           = 2
	DefaultSupervisorNotificationIntervalMinutes = 30
)

// EscalationSettings is the single operator-editable configuration row. It is
// loaded once at startup and refreshed in memory when the admin API saves it;
// source text is never rewritten.
type EscalationSettings struct {
	ID uint `gorm:"primaryKey"`

	CheckIntervalMinutes                  int  `gorm:"not null"`
	MaxSelfNotifications                  int  `gorm:"not null"`
	SupervisorEscalationMinutes           int  `gorm:"not null"`
	SupervisorNotificationIntervalMinutes int  `gorm:"not null"`
	EmailNotificationsEnabled             bool `gorm:"not null;default:true"`

	UpdatedAt time.Time
}

// DefaultEscalationSettings mirrors the timings the system shipped with.
func DefaultEscalationSettings() EscalationSettings {
	return EscalationSettings{
		CheckIntervalMinutes:                  DefaultCheckIntervalMinutes,
		MaxSelfNotifications:                  DefaultMaxSelfNotifications,
		SupervisorEscalationMinutes:           DefaultSupervisorEscalationMinutes,
		SupervisorNotificationIntervalMinutes: DefaultSupervisorNotificationIntervalMinutes,
		EmailNotificationsEnabled:             true,
	}
}

// CheckInterval returns the scheduler period as a duration.
func (settings EscalationSettings) CheckInterval() time.Duration {
	return time.Duration(settings.CheckIntervalMinutes) * time.Minute
}

// EscalationWindow returns how long an unacknowledged primary-supervisor
// notification may stand before the second tier is engaged.
func (settings EscalationSettings) EscalationWindow() time.Duration {
	return time.Duration(settings.SupervisorEscalationMinutes) * time.Minute
}

// NotificationInterval returns the minimum spacing between repeated
// supervisor notifications for the same record.
func (settings EscalationSettings) NotificationInterval() time.Duration {
	return time.Duration(settings.SupervisorNotificationIntervalMinutes) * time.Minute
}
