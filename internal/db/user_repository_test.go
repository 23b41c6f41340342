package db

import (
	"testing"
	"time"

	"github.com/mkale-dev/rollcall/internal/models"
)

func TestListPastExpectedLogin(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	users := NewUserRepository(database)
	audits := NewAuditRepository(database)

	noRecord := seedUser(t, database, models.User{ChatID: "U200", Name: "NoRecord", ExpectedLogin: "09:00"})
	loggedIn := seedUser(t, database, models.User{ChatID: "U201", Name: "LoggedIn", ExpectedLogin: "09:00"})
	logoutOnly := seedUser(t, database, models.User{ChatID: "U202", Name: "LogoutOnly", ExpectedLogin: "09:00"})
	notDue := seedUser(t, database, models.User{ChatID: "U203", Name: "NotDue", ExpectedLogin: "17:00"})
	untracked := seedUser(t, database, models.User{ChatID: "U204", Name: "Untracked"})

	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	workday := now.Format(models.WorkdayFormat)

	if err := audits.RecordLogin(loggedIn.ChatID, workday, now.Add(-30*time.Minute), "09:00"); err != nil {
		t.Fatalf("record login: %v", err)
	}
	if err := audits.RecordLogout(logoutOnly.ChatID, workday, now.Add(-20*time.Minute), "09:00"); err != nil {
		t.Fatalf("record logout: %v", err)
	}

	due, err := users.ListPastExpectedLogin(now)
	if err != nil {
		t.Fatalf("ListPastExpectedLogin: %v", err)
	}

	dueByChatID := make(map[string]bool, len(due))
	for _, user := range due {
		dueByChatID[user.ChatID] = true
	}

	if !dueByChatID[noRecord.ChatID] {
		t.Error("user with no record past expected time must be due")
	}
	if !dueByChatID[logoutOnly.ChatID] {
		t.Error("user with a logout but no login must be due")
	}
	if dueByChatID[loggedIn.ChatID] {
		t.Error("user who logged in must not be due")
	}
	if dueByChatID[notDue.ChatID] {
		t.Error("user before their expected time must not be due")
	}
	if dueByChatID[untracked.ChatID] {
		t.Error("user without an expected login must not be due")
	}
}

func TestDeleteByChatIDReportsMisses(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	users := NewUserRepository(database)
	seedUser(t, database, models.User{ChatID: "U210", Name: "Tam"})

	deleted, err := users.DeleteByChatID("U210")
	if err != nil {
		t.Fatalf("delete existing: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted row, got %d", deleted)
	}

	deleted, err = users.DeleteByChatID("U210")
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected 0 deleted rows, got %d", deleted)
	}
}
