package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkale-dev/rollcall/internal/models"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "rollcall-test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return database
}

func seedUser(t *testing.T, database *gorm.DB, user models.User) models.User {
	t.Helper()
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", user.ChatID, err)
	}
	return user
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	repo := NewAuditRepository(database)
	user := seedUser(t, database, models.User{ChatID: "U100", Name: "Dana", ExpectedLogin: "09:00"})

	first, err := repo.GetOrCreate(user, "2026-08-31")
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected created record to carry an identifier")
	}
	if first.ExpectedLoginSnapshot != "09:00" {
		t.Fatalf("expected login snapshot 09:00, got %q", first.ExpectedLoginSnapshot)
	}

	second, err := repo.GetOrCreate(user, "2026-08-31")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same record, got ids %d and %d", first.ID, second.ID)
	}

	count, err := repo.CountRecords()
	if err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
}

func TestGetOrCreateSnapshotSurvivesExpectedTimeChange(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	repo := NewAuditRepository(database)
	user := seedUser(t, database, models.User{ChatID: "U101", Name: "Noor", ExpectedLogin: "09:00"})

	if _, err := repo.GetOrCreate(user, "2026-08-31"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	user.ExpectedLogin = "10:30"
	record, err := repo.GetOrCreate(user, "2026-08-31")
	if err != nil {
		t.Fatalf("GetOrCreate after change: %v", err)
	}
	if record.ExpectedLoginSnapshot != "09:00" {
		t.Fatalf("expected snapshot to stay 09:00, got %q", record.ExpectedLoginSnapshot)
	}
}

func TestRecordLoginCreatesAndUpdates(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	repo := NewAuditRepository(database)
	seedUser(t, database, models.User{ChatID: "U102", Name: "Iris", ExpectedLogin: "09:00"})

	loginAt := time.Date(2026, 8, 31, 9, 17, 0, 0, time.UTC)
	if err := repo.RecordLogin("U102", "2026-08-31", loginAt, "09:00"); err != nil {
		t.Fatalf("RecordLogin on fresh day: %v", err)
	}

	record, found, err := repo.FindByUserAndWorkday("U102", "2026-08-31")
	if err != nil || !found {
		t.Fatalf("find record: found=%t err=%v", found, err)
	}
	if record.LoginAt == nil || !timesClose(*record.LoginAt, loginAt) {
		t.Fatalf("expected login stamp %v, got %v", loginAt, record.LoginAt)
	}

	logoutAt := loginAt.Add(8 * time.Hour)
	if err := repo.RecordLogout("U102", "2026-08-31", logoutAt, "09:00"); err != nil {
		t.Fatalf("RecordLogout on existing record: %v", err)
	}

	record, _, err = repo.FindByUserAndWorkday("U102", "2026-08-31")
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if record.LogoutAt == nil || !timesClose(*record.LogoutAt, logoutAt) {
		t.Fatalf("expected logout stamp %v, got %v", logoutAt, record.LogoutAt)
	}
	if record.LoginAt == nil {
		t.Fatal("logout must not clear the login stamp")
	}
}

func TestApplyIncrementsAndVerifies(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	repo := NewAuditRepository(database)
	user := seedUser(t, database, models.User{ChatID: "U103", Name: "Femi", ExpectedLogin: "09:00"})

	record, err := repo.GetOrCreate(user, "2026-08-31")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	stamp := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	updated, err := repo.Apply(record.ID, []AuditChange{
		IncrementSelfNotified(),
		IncrementSupervisorNotified(),
		StampSupervisorNotifiedAt(stamp),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if updated.SelfNotified != 1 || updated.SupervisorNotified != 1 {
		t.Fatalf("expected counters 1/1, got %d/%d", updated.SelfNotified, updated.SupervisorNotified)
	}
	if updated.LastSupervisorNotifyAt == nil || !timesClose(*updated.LastSupervisorNotifyAt, stamp) {
		t.Fatalf("expected notify stamp %v, got %v", stamp, updated.LastSupervisorNotifyAt)
	}

	updated, err = repo.Apply(record.ID, []AuditChange{IncrementSelfNotified()})
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if updated.SelfNotified != 2 {
		t.Fatalf("expected self counter 2, got %d", updated.SelfNotified)
	}
}

func TestApplyRejectsZeroRecordID(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	repo := NewAuditRepository(database)

	if _, err := repo.Apply(0, []AuditChange{IncrementSelfNotified()}); !errors.Is(err, ErrInvalidRecordID) {
		t.Fatalf("expected ErrInvalidRecordID, got %v", err)
	}
}

func TestApplyEnforcesTierOrder(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	repo := NewAuditRepository(database)
	user := seedUser(t, database, models.User{ChatID: "U104", Name: "Sol", ExpectedLogin: "09:00"})

	record, err := repo.GetOrCreate(user, "2026-08-31")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if _, err := repo.Apply(record.ID, []AuditChange{IncrementSecondSupervisorNotified()}); !errors.Is(err, ErrTierOrderViolation) {
		t.Fatalf("expected ErrTierOrderViolation, got %v", err)
	}

	reloaded, _, err := repo.FindByUserAndWorkday("U104", "2026-08-31")
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.SecondSupervisorNotified != 0 {
		t.Fatalf("rejected change must not persist, got counter %d", reloaded.SecondSupervisorNotified)
	}
}

func TestFindLatestNotifiedUnacked(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	repo := NewAuditRepository(database)
	user := seedUser(t, database, models.User{ChatID: "U105", Name: "Kim", ExpectedLogin: "09:00"})

	older, err := repo.GetOrCreate(user, "2026-08-30")
	if err != nil {
		t.Fatalf("GetOrCreate older: %v", err)
	}
	newer, err := repo.GetOrCreate(user, "2026-08-31")
	if err != nil {
		t.Fatalf("GetOrCreate newer: %v", err)
	}
	for _, id := range []uint{older.ID, newer.ID} {
		if _, err := repo.Apply(id, []AuditChange{IncrementSupervisorNotified()}); err != nil {
			t.Fatalf("Apply on %d: %v", id, err)
		}
	}

	record, found, err := repo.FindLatestNotifiedUnacked("U105", false)
	if err != nil || !found {
		t.Fatalf("find latest: found=%t err=%v", found, err)
	}
	if record.ID != newer.ID {
		t.Fatalf("expected latest record %d, got %d", newer.ID, record.ID)
	}

	if _, err := repo.Apply(newer.ID, []AuditChange{SetSupervisorAcked()}); err != nil {
		t.Fatalf("ack newer: %v", err)
	}
	record, found, err = repo.FindLatestNotifiedUnacked("U105", false)
	if err != nil || !found {
		t.Fatalf("find after ack: found=%t err=%v", found, err)
	}
	if record.ID != older.ID {
		t.Fatalf("expected fallback to record %d, got %d", older.ID, record.ID)
	}
}

func TestFindUnacknowledgedEscalationBySupervisor(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	repo := NewAuditRepository(database)
	user := seedUser(t, database, models.User{
		ChatID: "U106", Name: "Ade", ExpectedLogin: "09:00",
		SupervisorChatID: "U900", SecondSupervisorChatID: "U901",
	})

	record, err := repo.GetOrCreate(user, "2026-08-31")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := repo.Apply(record.ID, []AuditChange{IncrementSupervisorNotified()}); err != nil {
		t.Fatalf("notify supervisor: %v", err)
	}

	found, ok, err := repo.FindUnacknowledgedEscalation("U900", false)
	if err != nil || !ok {
		t.Fatalf("find by supervisor: ok=%t err=%v", ok, err)
	}
	if found.ID != record.ID {
		t.Fatalf("expected record %d, got %d", record.ID, found.ID)
	}

	if _, ok, _ := repo.FindUnacknowledgedEscalation("U901", true); ok {
		t.Fatal("second supervisor has nothing pending before second tier engages")
	}
}
