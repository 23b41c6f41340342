package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkale-dev/rollcall/internal/db"
	"github.com/mkale-dev/rollcall/internal/models"
)

func TestAttendanceRecordsLoginForKnownUser(t *testing.T) {
	t.Parallel()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "rollcall-attendance.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	repos := db.NewRepositories(database)
	clock := &fakeClock{now: time.Date(2026, 8, 31, 9, 45, 0, 0, time.UTC)}
	service := NewAttendanceService(repos.Users, repos.Audits, clock)

	user := models.User{ChatID: "U600", Name: "Vic", ExpectedLogin: "09:00"}
	if err := repos.Users.Create(&user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := service.RecordLogin("U600"); err != nil {
		t.Fatalf("RecordLogin: %v", err)
	}

	record, found, err := repos.Audits.FindByUserAndWorkday("U600", "2026-08-31")
	if err != nil || !found {
		t.Fatalf("load record: found=%t err=%v", found, err)
	}
	if record.LoginAt == nil {
		t.Fatal("expected login stamp")
	}
	if record.ExpectedLoginSnapshot != "09:00" {
		t.Fatalf("expected snapshot 09:00, got %q", record.ExpectedLoginSnapshot)
	}

	if err := service.RecordLogin("stranger"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
