package models

import "time"

// WorkdayFormat is the canonical calendar-date form used for audit keys.
const WorkdayFormat = "2006-01-02"

// TimeOfDayFormat is the canonical "HH:MM" form for expected login/logout times.
const TimeOfDayFormat = "15:04"

// AuditRecord is the per-(user, workday) attendance ledger entry. Exactly one
// record may exist per key; creation is idempotent. Notification counters are
// split by delivery channel because chat and email can fail independently.
type AuditRecord struct {
	ID         uint   `gorm:"primaryKey"`
	UserChatID string `gorm:"not null;uniqueIndex:uidx_audit_user_workday"`
	Workday    string `gorm:"not null;uniqueIndex:uidx_audit_user_workday"`

	LoginAt  *time.Time
	LogoutAt *time.Time

	// Copied from the user at creation so later edits to the user do not
	// retroactively change history.
	ExpectedLoginSnapshot string

	SelfNotified                  int `gorm:"not null;default:0"`
	SupervisorNotified            int `gorm:"not null;default:0"`
	SecondSupervisorNotified      int `gorm:"not null;default:0"`
	EmailSupervisorNotified       int `gorm:"not null;default:0"`
	EmailSecondSupervisorNotified int `gorm:"not null;default:0"`

	SupervisorAcked       bool `gorm:"not null;default:false"`
	SecondSupervisorAcked bool `gorm:"not null;default:false"`

	LastSupervisorNotifyAt       *time.Time
	LastSecondSupervisorNotifyAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SupervisorNotifiedAny reports whether the primary supervisor has been
// notified on any channel.
func (record AuditRecord) SupervisorNotifiedAny() bool {
	return record.SupervisorNotified > 0 || record.EmailSupervisorNotified > 0
}

// SecondSupervisorNotifiedAny reports whether the second supervisor has been
// notified on any channel.
func (record AuditRecord) SecondSupervisorNotifiedAny() bool {
	return record.SecondSupervisorNotified > 0 || record.EmailSecondSupervisorNotified > 0
}

// Acknowledged reports whether either supervisor tier has closed out the
// escalation for this workday.
func (record AuditRecord) Acknowledged() bool {
	return record.SupervisorAcked || record.SecondSupervisorAcked
}
