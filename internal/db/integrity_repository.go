package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// requiredAuditColumns is the canonical audit_records schema. Integrity
// checks compare the live table against this list.
var requiredAuditColumns = []string{
	"id", "user_chat_id", "workday", "login_at", "logout_at",
	"expected_login_snapshot",
	"self_notified", "supervisor_notified", "second_supervisor_notified",
	"email_supervisor_notified", "email_second_supervisor_notified",
	"supervisor_acked", "second_supervisor_acked",
	"last_supervisor_notify_at", "last_second_supervisor_notify_at",
	"created_at", "updated_at",
}

// IntegrityReport summarizes the structural problems found in the audit
// table. All counts refer to the state at the time of the check.
type IntegrityReport struct {
	MissingColumns  []string `json:"missingColumns"`
	LegacyColumns   []string `json:"legacyColumns"`
	OrphanedRecords int64    `json:"orphanedRecords"`
	DuplicateKeys   int64    `json:"duplicateKeys"`
	StuckRecords    int64    `json:"stuckRecords"`
}

// Clean reports whether no repair action is warranted.
func (report IntegrityReport) Clean() bool {
	return len(report.MissingColumns) == 0 &&
		len(report.LegacyColumns) == 0 &&
		report.OrphanedRecords == 0 &&
		report.DuplicateKeys == 0 &&
		report.StuckRecords == 0
}

// IntegrityRepository detects and repairs structurally invalid audit state.
// Repair methods use the same transactional discipline as normal mutations
// and are idempotent, so running them repeatedly or alongside the scheduler
// is safe. They intentionally bypass the closed AuditOp set: repair is the
// only caller allowed to reset notification state.
type IntegrityRepository struct {
	database *gorm.DB
}

func NewIntegrityRepository(database *gorm.DB) *IntegrityRepository {
	return &IntegrityRepository{database: database}
}

// Report inspects the audit table for schema drift, identifier-less rows,
// duplicate (user, workday) keys, and records stuck at the primary
// supervisor tier past the escalation window.
func (repo *IntegrityRepository) Report(workday string, stuckBefore time.Time) (IntegrityReport, error) {
	report := IntegrityReport{
		MissingColumns: make([]string, 0),
		LegacyColumns:  make([]string, 0),
	}

	liveColumns, err := repo.loadAuditColumns(repo.database)
	if err != nil {
		return IntegrityReport{}, err
	}
	required := make(map[string]struct{}, len(requiredAuditColumns))
	for _, column := range requiredAuditColumns {
		required[column] = struct{}{}
		if _, exists := liveColumns[column]; !exists {
			report.MissingColumns = append(report.MissingColumns, column)
		}
	}
	for column := range liveColumns {
		if _, expected := required[column]; !expected {
			report.LegacyColumns = append(report.LegacyColumns, column)
		}
	}

	if err := repo.database.Raw(
		`SELECT COUNT(*) FROM audit_records WHERE id IS NULL`,
	).Scan(&report.OrphanedRecords).Error; err != nil {
		return IntegrityReport{}, err
	}

	if err := repo.database.Raw(`
SELECT COUNT(*) FROM (
  SELECT user_chat_id, workday, COUNT(*) AS occurrences
  FROM audit_records
  GROUP BY user_chat_id, workday
  HAVING occurrences > 1
)`).Scan(&report.DuplicateKeys).Error; err != nil {
		return IntegrityReport{}, err
	}

	// The stuck query touches notification columns a drifted table may lack;
	// schema drift has to be repaired first.
	if len(report.MissingColumns) > 0 {
		return report, nil
	}

	if err := repo.database.Raw(`
SELECT COUNT(*) FROM audit_records
WHERE workday = ?
  AND (supervisor_notified > 0 OR email_supervisor_notified > 0)
  AND second_supervisor_notified = 0 AND email_second_supervisor_notified = 0
  AND supervisor_acked = 0
  AND (last_supervisor_notify_at IS NULL OR last_supervisor_notify_at <= ?)`,
		workday, stuckBefore,
	).Scan(&report.StuckRecords).Error; err != nil {
		return IntegrityReport{}, err
	}

	return report, nil
}

// RepairOrphanedRecords deletes rows that carry no identifier and recreates
// them with their recoverable counters, leaving exactly one valid row per
// (user, workday). Patch-in-place is deliberately not offered.
func (repo *IntegrityRepository) RepairOrphanedRecords() (int64, error) {
	type orphanRow struct {
		RowID                         int64      `gorm:"column:rowid"`
		UserChatID                    string     `gorm:"column:user_chat_id"`
		Workday                       string     `gorm:"column:workday"`
		LoginAt                       *time.Time `gorm:"column:login_at"`
		LogoutAt                      *time.Time `gorm:"column:logout_at"`
		ExpectedLoginSnapshot         string     `gorm:"column:expected_login_snapshot"`
		SelfNotified                  int        `gorm:"column:self_notified"`
		SupervisorNotified            int        `gorm:"column:supervisor_notified"`
		SecondSupervisorNotified      int        `gorm:"column:second_supervisor_notified"`
		EmailSupervisorNotified       int        `gorm:"column:email_supervisor_notified"`
		EmailSecondSupervisorNotified int        `gorm:"column:email_second_supervisor_notified"`
		SupervisorAcked               bool       `gorm:"column:supervisor_acked"`
		SecondSupervisorAcked         bool       `gorm:"column:second_supervisor_acked"`
		LastSupervisorNotifyAt        *time.Time `gorm:"column:last_supervisor_notify_at"`
		LastSecondSupervisorNotifyAt  *time.Time `gorm:"column:last_second_supervisor_notify_at"`
	}

	var repaired int64
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		// Orphans exist only on drifted tables where id is not a rowid
		// alias, so identifiers are assigned explicitly.
		var maxID int64
		if err := tx.Raw(`SELECT COALESCE(MAX(id), 0) FROM audit_records`).Scan(&maxID).Error; err != nil {
			return err
		}

		orphans := make([]orphanRow, 0)
		if err := tx.Raw(`
SELECT rowid,
  user_chat_id, workday, login_at, logout_at,
  COALESCE(expected_login_snapshot, '') AS expected_login_snapshot,
  COALESCE(self_notified, 0) AS self_notified,
  COALESCE(supervisor_notified, 0) AS supervisor_notified,
  COALESCE(second_supervisor_notified, 0) AS second_supervisor_notified,
  COALESCE(email_supervisor_notified, 0) AS email_supervisor_notified,
  COALESCE(email_second_supervisor_notified, 0) AS email_second_supervisor_notified,
  COALESCE(supervisor_acked, 0) AS supervisor_acked,
  COALESCE(second_supervisor_acked, 0) AS second_supervisor_acked,
  last_supervisor_notify_at, last_second_supervisor_notify_at
FROM audit_records
WHERE id IS NULL`).Scan(&orphans).Error; err != nil {
			return err
		}

		for _, orphan := range orphans {
			if err := tx.Exec(
				`DELETE FROM audit_records WHERE rowid = ?`, orphan.RowID,
			).Error; err != nil {
				return err
			}

			var existing int64
			if err := tx.Raw(
				`SELECT COUNT(*) FROM audit_records WHERE user_chat_id = ? AND workday = ? AND id IS NOT NULL`,
				orphan.UserChatID, orphan.Workday,
			).Scan(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				repaired++
				continue
			}

			maxID++
			if err := tx.Exec(`
INSERT INTO audit_records (
  id, user_chat_id, workday, login_at, logout_at, expected_login_snapshot,
  self_notified, supervisor_notified, second_supervisor_notified,
  email_supervisor_notified, email_second_supervisor_notified,
  supervisor_acked, second_supervisor_acked,
  last_supervisor_notify_at, last_second_supervisor_notify_at,
  created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				maxID, orphan.UserChatID, orphan.Workday, orphan.LoginAt, orphan.LogoutAt,
				orphan.ExpectedLoginSnapshot,
				orphan.SelfNotified, orphan.SupervisorNotified, orphan.SecondSupervisorNotified,
				orphan.EmailSupervisorNotified, orphan.EmailSecondSupervisorNotified,
				orphan.SupervisorAcked, orphan.SecondSupervisorAcked,
				orphan.LastSupervisorNotifyAt, orphan.LastSecondSupervisorNotifyAt,
				time.Now(), time.Now(),
			).Error; err != nil {
				return err
			}
			repaired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return repaired, nil
}

// ResetStuckRecords clears the second-tier state of records that sat at the
// primary supervisor tier past the escalation window without acknowledgment,
// restamping the supervisor notification time so the next scheduler tick
// re-evaluates them cleanly.
func (repo *IntegrityRepository) ResetStuckRecords(workday string, stuckBefore time.Time, now time.Time) (int64, error) {
	var reset int64
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
UPDATE audit_records SET
  second_supervisor_notified = 0,
  email_second_supervisor_notified = 0,
  second_supervisor_acked = 0,
  last_supervisor_notify_at = ?
WHERE workday = ?
  AND (supervisor_notified > 0 OR email_supervisor_notified > 0)
  AND second_supervisor_notified = 0 AND email_second_supervisor_notified = 0
  AND supervisor_acked = 0
  AND (last_supervisor_notify_at IS NULL OR last_supervisor_notify_at <= ?)`,
			now, workday, stuckBefore,
		)
		if result.Error != nil {
			return result.Error
		}
		reset = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reset, nil
}

// RebuildAuditTable copies every salvageable row into a freshly created
// table with the canonical schema and swaps it in, all inside one
// transaction. This removes legacy columns and identifier-less rows in a
// single pass and is the deep-repair counterpart of the versioned rebuild
// migration.
func (repo *IntegrityRepository) RebuildAuditTable() error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		liveColumns, err := repo.loadAuditColumns(tx)
		if err != nil {
			return err
		}

		if err := tx.Exec(`
CREATE TABLE audit_records_repair (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
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
  updated_at DATETIME
)`).Error; err != nil {
			return err
		}

		selectList := buildRebuildSelectList(liveColumns)
		if err := tx.Exec(fmt.Sprintf(`
INSERT INTO audit_records_repair (
  user_chat_id, workday, login_at, logout_at, expected_login_snapshot,
  self_notified, supervisor_notified, second_supervisor_notified,
  email_supervisor_notified, email_second_supervisor_notified,
  supervisor_acked, second_supervisor_acked,
  last_supervisor_notify_at, last_second_supervisor_notify_at,
  created_at, updated_at
)
SELECT %s FROM audit_records source
GROUP BY source.user_chat_id, source.workday`, selectList)).Error; err != nil {
			return err
		}

		if err := tx.Exec(`DROP TABLE audit_records`).Error; err != nil {
			return err
		}
		if err := tx.Exec(`ALTER TABLE audit_records_repair RENAME TO audit_records`).Error; err != nil {
			return err
		}
		return tx.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS uidx_audit_user_workday ON audit_records (user_chat_id, workday)`,
		).Error
	})
}

// buildRebuildSelectList maps canonical columns onto whatever the drifted
// table actually has, substituting defaults for columns it lacks.
func buildRebuildSelectList(liveColumns map[string]struct{}) string {
	type rebuildColumn struct {
		name     string
		fallback string
	}
	wanted := []rebuildColumn{
		{"user_chat_id", "''"},
		{"workday", "''"},
		{"login_at", "NULL"},
		{"logout_at", "NULL"},
		{"expected_login_snapshot", "''"},
		{"self_notified", "0"},
		{"supervisor_notified", "0"},
		{"second_supervisor_notified", "0"},
		{"email_supervisor_notified", "0"},
		{"email_second_supervisor_notified", "0"},
		{"supervisor_acked", "0"},
		{"second_supervisor_acked", "0"},
		{"last_supervisor_notify_at", "NULL"},
		{"last_second_supervisor_notify_at", "NULL"},
		{"created_at", "NULL"},
		{"updated_at", "NULL"},
	}

	parts := make([]string, 0, len(wanted))
	for _, column := range wanted {
		if _, exists := liveColumns[column.name]; exists {
			parts = append(parts, fmt.Sprintf("COALESCE(source.%s, %s)", column.name, column.fallback))
		} else {
			parts = append(parts, column.fallback)
		}
	}
	return strings.Join(parts, ", ")
}

func (repo *IntegrityRepository) loadAuditColumns(database *gorm.DB) (map[string]struct{}, error) {
	columns := make([]pragmaTableColumn, 0)
	if err := database.Raw(`PRAGMA table_info("audit_records")`).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("load table_info for audit_records: %w", err)
	}

	names := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		names[strings.ToLower(strings.TrimSpace(column.Name))] = struct{}{}
	}
	return names, nil
}
