package db

import (
	"testing"
	"time"

	"github.com/mkale-dev/rollcall/internal/models"
	"gorm.io/gorm"
)

func TestReportOnCleanStore(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	integrity := NewIntegrityRepository(database)

	report, err := integrity.Report("2026-08-31", time.Now())
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if !report.Clean() {
		t.Fatalf("expected a clean report, got %+v", report)
	}
}

func TestStuckDetectionAndReset(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	audits := NewAuditRepository(database)
	integrity := NewIntegrityRepository(database)
	user := seedUser(t, database, models.User{ChatID: "U400", Name: "Pat", ExpectedLogin: "09:00", SupervisorChatID: "U940"})

	record, err := audits.GetOrCreate(user, "2026-08-31")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	staleStamp := time.Now().Add(-2 * time.Hour)
	if _, err := audits.Apply(record.ID, []AuditChange{
		IncrementSupervisorNotified(),
		StampSupervisorNotifiedAt(staleStamp),
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	stuckBefore := time.Now().Add(-time.Hour)
	report, err := integrity.Report("2026-08-31", stuckBefore)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.StuckRecords != 1 {
		t.Fatalf("expected 1 stuck record, got %d", report.StuckRecords)
	}

	now := time.Now()
	reset, err := integrity.ResetStuckRecords("2026-08-31", stuckBefore, now)
	if err != nil {
		t.Fatalf("ResetStuckRecords: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset record, got %d", reset)
	}

	reloaded, _, err := audits.FindByUserAndWorkday("U400", "2026-08-31")
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.LastSupervisorNotifyAt == nil || !timesClose(*reloaded.LastSupervisorNotifyAt, now) {
		t.Fatalf("expected notify stamp restamped to now, got %v", reloaded.LastSupervisorNotifyAt)
	}

	report, err = integrity.Report("2026-08-31", stuckBefore)
	if err != nil {
		t.Fatalf("Report after reset: %v", err)
	}
	if report.StuckRecords != 0 {
		t.Fatalf("expected 0 stuck records after reset, got %d", report.StuckRecords)
	}
}

// seedDriftedAuditTable replaces the canonical table with one where id is a
// plain nullable column and a legacy column lingers, the shape old deployments
// left behind.
func seedDriftedAuditTable(t *testing.T, database *gorm.DB) {
	t.Helper()
	statements := []string{
		`DROP TABLE audit_records`,
		`CREATE TABLE audit_records (
  id INTEGER,
  user_chat_id TEXT NOT NULL,
  workday TEXT NOT NULL,
  login_at DATETIME,
  logout_at DATETIME,
  expected_login_snapshot TEXT NOT NULL DEFAULT '',
  self_notified INTEGER NOT NULL DEFAULT 0,
  supervisor_notified INTEGER NOT NULL DEFAULT 0,
  second_supervisor_notified INTEGER NOT NULL DEFAULT 0,
  email_supervisor_notified INTEGER NOT NULL DEFAULT 0,
  email_second_supervisor_notified INTEGER NOT NULL DEFAULT 0,
  supervisor_acked BOOLEAN NOT NULL DEFAULT 0,
  second_supervisor_acked BOOLEAN NOT NULL DEFAULT 0,
  last_supervisor_notify_at DATETIME,
  last_second_supervisor_notify_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  legacy_reminder_flag INTEGER
)`,
		`INSERT INTO audit_records (id, user_chat_id, workday, self_notified) VALUES (1, 'U410', '2026-08-30', 3)`,
		`INSERT INTO audit_records (id, user_chat_id, workday, self_notified) VALUES (NULL, 'U411', '2026-08-30', 2)`,
		`INSERT INTO audit_records (id, user_chat_id, workday, self_notified) VALUES (2, 'U412', '2026-08-30', 1)`,
		`INSERT INTO audit_records (id, user_chat_id, workday, self_notified) VALUES (3, 'U412', '2026-08-30', 1)`,
	}
	for _, statement := range statements {
		if err := database.Exec(statement).Error; err != nil {
			t.Fatalf("seed drifted table: %v", err)
		}
	}
}

func TestReportFlagsDriftedTable(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	integrity := NewIntegrityRepository(database)
	seedDriftedAuditTable(t, database)

	report, err := integrity.Report("2026-08-30", time.Now())
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(report.LegacyColumns) != 1 || report.LegacyColumns[0] != "legacy_reminder_flag" {
		t.Fatalf("expected legacy_reminder_flag flagged, got %v", report.LegacyColumns)
	}
	if report.OrphanedRecords != 1 {
		t.Fatalf("expected 1 orphaned record, got %d", report.OrphanedRecords)
	}
	if report.DuplicateKeys != 1 {
		t.Fatalf("expected 1 duplicate key, got %d", report.DuplicateKeys)
	}
}

func TestRepairOrphanedRecords(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	integrity := NewIntegrityRepository(database)
	seedDriftedAuditTable(t, database)

	repaired, err := integrity.RepairOrphanedRecords()
	if err != nil {
		t.Fatalf("RepairOrphanedRecords: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("expected 1 repaired record, got %d", repaired)
	}

	var recreated struct {
		ID           *int64 `gorm:"column:id"`
		SelfNotified int    `gorm:"column:self_notified"`
	}
	if err := database.Table("audit_records").
		Select("id", "self_notified").
		Where("user_chat_id = ?", "U411").
		First(&recreated).Error; err != nil {
		t.Fatalf("load recreated record: %v", err)
	}
	if recreated.ID == nil || *recreated.ID == 0 {
		t.Fatal("recreated record must carry an identifier")
	}
	if recreated.SelfNotified != 2 {
		t.Fatalf("expected counters preserved, got self_notified %d", recreated.SelfNotified)
	}

	var orphans int64
	if err := database.Raw(`SELECT COUNT(*) FROM audit_records WHERE id IS NULL`).Scan(&orphans).Error; err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected no orphans left, got %d", orphans)
	}
}

func TestRebuildAuditTable(t *testing.T) {
	t.Parallel()
	database := openTestDatabase(t)
	integrity := NewIntegrityRepository(database)
	seedDriftedAuditTable(t, database)

	if err := integrity.RebuildAuditTable(); err != nil {
		t.Fatalf("RebuildAuditTable: %v", err)
	}

	report, err := integrity.Report("2026-08-30", time.Now())
	if err != nil {
		t.Fatalf("Report after rebuild: %v", err)
	}
	if !report.Clean() {
		t.Fatalf("expected a clean report after rebuild, got %+v", report)
	}

	var keys int64
	if err := database.Raw(
		`SELECT COUNT(DISTINCT user_chat_id || '|' || workday) FROM audit_records`,
	).Scan(&keys).Error; err != nil {
		t.Fatalf("count keys: %v", err)
	}
	var rows int64
	if err := database.Raw(`SELECT COUNT(*) FROM audit_records`).Scan(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if keys != rows {
		t.Fatalf("expected one row per key after rebuild, got %d rows for %d keys", rows, keys)
	}
	if rows != 3 {
		t.Fatalf("expected 3 rows after rebuild, got %d", rows)
	}
}
