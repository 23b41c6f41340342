package services

import (
	"fmt"
	"log"
	"time"

	"github.com/mkale-dev/rollcall/internal/db"
	"github.com/mkale-dev/rollcall/internal/models"
)

type integrityRepository interface {
	Report(workday string, stuckBefore time.Time) (db.IntegrityReport, error)
	RepairOrphanedRecords() (int64, error)
	ResetStuckRecords(workday string, stuckBefore time.Time, now time.Time) (int64, error)
	RebuildAuditTable() error
}

// IntegrityAuditor surfaces structural problems in the audit store. Startup
// only reports; every repair runs on an explicit operator request through the
// admin API, so the store is never silently rewritten.
type IntegrityAuditor struct {
	integrity integrityRepository
	settings  settingsProvider
	clock     Clock
	logger    *log.Logger
}

func NewIntegrityAuditor(integrity integrityRepository, settings settingsProvider, clock Clock, logger *log.Logger) *IntegrityAuditor {
	return &IntegrityAuditor{integrity: integrity, settings: settings, clock: clock, logger: logger}
}

// Report inspects today's audit state. A record counts as stuck when its
// primary supervisor notification has stood unacknowledged longer than the
// escalation window without the second tier engaging.
func (auditor *IntegrityAuditor) Report() (db.IntegrityReport, error) {
	now := auditor.clock.Now()
	workday := now.Format(models.WorkdayFormat)
	stuckBefore := now.Add(-auditor.settings.Current().EscalationWindow())

	report, err := auditor.integrity.Report(workday, stuckBefore)
	if err != nil {
		return db.IntegrityReport{}, fmt.Errorf("build integrity report: %w", err)
	}
	return report, nil
}

// CheckAtStartup logs the current report without repairing anything.
func (auditor *IntegrityAuditor) CheckAtStartup() error {
	report, err := auditor.Report()
	if err != nil {
		return err
	}
	if report.Clean() {
		auditor.logger.Printf("integrity: audit store clean")
		return nil
	}
	auditor.logger.Printf(
		"integrity: missing columns %v, legacy columns %v, %d orphaned, %d duplicate keys, %d stuck (repair via admin API)",
		report.MissingColumns, report.LegacyColumns,
		report.OrphanedRecords, report.DuplicateKeys, report.StuckRecords,
	)
	return nil
}

// RepairOrphans recreates identifier-less rows and returns how many were fixed.
func (auditor *IntegrityAuditor) RepairOrphans() (int64, error) {
	repaired, err := auditor.integrity.RepairOrphanedRecords()
	if err != nil {
		return 0, fmt.Errorf("repair orphaned records: %w", err)
	}
	auditor.logger.Printf("integrity: repaired %d orphaned records", repaired)
	return repaired, nil
}

// ResetStuck unblocks today's records stalled at the first supervisor tier.
func (auditor *IntegrityAuditor) ResetStuck() (int64, error) {
	now := auditor.clock.Now()
	workday := now.Format(models.WorkdayFormat)
	stuckBefore := now.Add(-auditor.settings.Current().EscalationWindow())

	reset, err := auditor.integrity.ResetStuckRecords(workday, stuckBefore, now)
	if err != nil {
		return 0, fmt.Errorf("reset stuck records: %w", err)
	}
	auditor.logger.Printf("integrity: reset %d stuck records for %s", reset, workday)
	return reset, nil
}

// Rebuild replaces the audit table with a clean copy, shedding schema drift
// and invalid rows in one pass.
func (auditor *IntegrityAuditor) Rebuild() error {
	if err := auditor.integrity.RebuildAuditTable(); err != nil {
		return fmt.Errorf("rebuild audit table: %w", err)
	}
	auditor.logger.Printf("integrity: audit table rebuilt")
	return nil
}
