package services

import (
	"fmt"
	"os"
)

type healthUserRepository interface {
	CountUsers() (int64, error)
}

type healthAuditRepository interface {
	CountRecords() (int64, error)
}

// HealthReport is the operator-facing snapshot of store vitals.
type HealthReport struct {
	Users          int64 `json:"users"`
	AuditRecords   int64 `json:"auditRecords"`
	StoreSizeBytes int64 `json:"storeSizeBytes"`
}

// HealthService reports store vitals for the admin API.
type HealthService struct {
	users  healthUserRepository
	audits healthAuditRepository
	dbPath string
}

func NewHealthService(users healthUserRepository, audits healthAuditRepository, dbPath string) *HealthService {
	return &HealthService{users: users, audits: audits, dbPath: dbPath}
}

func (service *HealthService) Report() (HealthReport, error) {
	userCount, err := service.users.CountUsers()
	if err != nil {
		return HealthReport{}, fmt.Errorf("count users: %w", err)
	}
	recordCount, err := service.audits.CountRecords()
	if err != nil {
		return HealthReport{}, fmt.Errorf("count audit records: %w", err)
	}

	report := HealthReport{Users: userCount, AuditRecords: recordCount}
	if info, err := os.Stat(service.dbPath); err == nil {
		report.StoreSizeBytes = info.Size()
	}
	return report, nil
}
