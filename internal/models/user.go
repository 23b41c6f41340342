package models

import "time"

// User is a tracked person. Rows are written only through the admin API;
// the escalation engine treats them as read-only.
type User struct {
	ID     uint   `gorm:"primaryKey"`
	ChatID string `gorm:"uniqueIndex;not null"`
	Name   string `gorm:"not null"`
	Email  string
	Phone  string

	// Expected times of day in "15:04" form; empty means not tracked.
	ExpectedLogin  string
	ExpectedLogout string

	SupervisorChatID       string
	SupervisorEmail        string
	SecondSupervisorChatID string
	SecondSupervisorEmail  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSupervisor reports whether any primary supervisor contact is configured.
func (user User) HasSupervisor() bool {
	return user.SupervisorChatID != "" || user.SupervisorEmail != ""
}

// HasSecondSupervisor reports whether a second escalation tier exists for this user.
func (user User) HasSecondSupervisor() bool {
	return user.SecondSupervisorChatID != "" || user.SecondSupervisorEmail != ""
}
