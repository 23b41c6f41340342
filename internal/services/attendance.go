package services

import (
	"fmt"
	"time"

	"github.com/mkale-dev/rollcall/internal/models"
)

type attendanceUserRepository interface {
	FindByChatID(chatID string) (models.User, bool, error)
}

type attendanceAuditRepository interface {
	RecordLogin(userChatID string, workday string, at time.Time, expectedLogin string) error
	RecordLogout(userChatID string, workday string, at time.Time, expectedLogin string) error
}

// AttendanceService records login and logout events coming in from the chat
// boundary. A login stamp is what stops escalation for the day.
type AttendanceService struct {
	users  attendanceUserRepository
	audits attendanceAuditRepository
	clock  Clock
}

func NewAttendanceService(users attendanceUserRepository, audits attendanceAuditRepository, clock Clock) *AttendanceService {
	return &AttendanceService{users: users, audits: audits, clock: clock}
}

func (service *AttendanceService) RecordLogin(chatID string) error {
	return service.record(chatID, true)
}

func (service *AttendanceService) RecordLogout(chatID string) error {
	return service.record(chatID, false)
}

func (service *AttendanceService) record(chatID string, login bool) error {
	user, found, err := service.users.FindByChatID(chatID)
	if err != nil {
		return fmt.Errorf("look up user %s: %w", chatID, err)
	}
	if !found {
		return ErrUserNotFound
	}

	now := service.clock.Now()
	workday := now.Format(models.WorkdayFormat)
	if login {
		return service.audits.RecordLogin(user.ChatID, workday, now, user.ExpectedLogin)
	}
	return service.audits.RecordLogout(user.ChatID, workday, now, user.ExpectedLogin)
}
