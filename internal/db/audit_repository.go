package db

import (
	"errors"
	"time"

	"github.com/mkale-dev/rollcall/internal/models"
	"gorm.io/gorm"
)

type AuditRepository struct {
	database *gorm.DB
}

func NewAuditRepository(database *gorm.DB) *AuditRepository {
	return &AuditRepository{database: database}
}

// GetOrCreate returns the audit record for (user, workday), creating it with
// the user's current expected login snapshot when absent. Creation is
// idempotent: a second call returns the existing record. A row observed
// without a valid identifier is reported as corrupt, not patched here; the
// repair path owns delete-and-recreate.
func (repo *AuditRepository) GetOrCreate(user models.User, workday string) (models.AuditRecord, error) {
	var record models.AuditRecord
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_chat_id = ? AND workday = ?", user.ChatID, workday).
			Limit(1).Find(&record)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			if record.ID == 0 {
				return ErrInvalidRecordID
			}
			return nil
		}

		record = models.AuditRecord{
			UserChatID:            user.ChatID,
			Workday:               workday,
			ExpectedLoginSnapshot: user.ExpectedLogin,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if record.ID == 0 {
			return ErrInvalidRecordID
		}
		return nil
	})
	if err != nil {
		return models.AuditRecord{}, err
	}
	return record, nil
}

// RecordLogin upserts today's login timestamp: creates the record carrying
// the stamp when none exists, updates it otherwise, and verifies the stored
// value before committing. A mismatch rolls the transaction back and is
// surfaced as a definite failure.
func (repo *AuditRepository) RecordLogin(userChatID string, workday string, at time.Time, expectedLogin string) error {
	return repo.upsertStamp("login_at", userChatID, workday, at, expectedLogin)
}

// RecordLogout mirrors RecordLogin for the logout timestamp.
func (repo *AuditRepository) RecordLogout(userChatID string, workday string, at time.Time, expectedLogin string) error {
	return repo.upsertStamp("logout_at", userChatID, workday, at, expectedLogin)
}

func (repo *AuditRepository) upsertStamp(column string, userChatID string, workday string, at time.Time, expectedLogin string) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		stamp := at
		var record models.AuditRecord
		result := tx.Where("user_chat_id = ? AND workday = ?", userChatID, workday).
			Limit(1).Find(&record)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			record = models.AuditRecord{
				UserChatID:            userChatID,
				Workday:               workday,
				ExpectedLoginSnapshot: expectedLogin,
			}
			if column == "login_at" {
				record.LoginAt = &stamp
			} else {
				record.LogoutAt = &stamp
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		} else {
			if record.ID == 0 {
				return ErrInvalidRecordID
			}
			if err := tx.Model(&models.AuditRecord{}).
				Where("id = ?", record.ID).
				Update(column, &stamp).Error; err != nil {
				return err
			}
		}

		var verification models.AuditRecord
		if err := tx.Where("user_chat_id = ? AND workday = ?", userChatID, workday).
			First(&verification).Error; err != nil {
			return err
		}
		stored := verification.LoginAt
		if column == "logout_at" {
			stored = verification.LogoutAt
		}
		if stored == nil || !timesClose(*stored, at) {
			return ErrVerificationFailed
		}
		return nil
	})
}

// Apply executes a closed set of tagged update operations against one record
// in a single transaction, verifying every changed field after the write. It
// returns the record as verified.
func (repo *AuditRepository) Apply(recordID uint, changes []AuditChange) (models.AuditRecord, error) {
	if recordID == 0 {
		return models.AuditRecord{}, ErrInvalidRecordID
	}

	var updated models.AuditRecord
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		var record models.AuditRecord
		if err := tx.First(&record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRecordID
			}
			return err
		}

		updates := make(map[string]any, len(changes))
		for _, change := range changes {
			if err := applyChange(&record, change, updates); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			updated = record
			return nil
		}

		if err := tx.Model(&models.AuditRecord{}).
			Where("id = ?", record.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		var verification models.AuditRecord
		if err := tx.First(&verification, record.ID).Error; err != nil {
			return err
		}
		if !verifiedFieldsMatch(record, verification, updates) {
			return ErrVerificationFailed
		}
		updated = verification
		return nil
	})
	if err != nil {
		return models.AuditRecord{}, err
	}
	return updated, nil
}

func (repo *AuditRepository) FindByUserAndWorkday(userChatID string, workday string) (models.AuditRecord, bool, error) {
	var record models.AuditRecord
	result := repo.database.
		Where("user_chat_id = ? AND workday = ?", userChatID, workday).
		Limit(1).Find(&record)
	if result.Error != nil {
		return models.AuditRecord{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.AuditRecord{}, false, nil
	}
	return record, true, nil
}

// FindLatestNotifiedUnacked returns the most recent record for the user
// where the given tier was notified on some channel but not yet acknowledged.
func (repo *AuditRepository) FindLatestNotifiedUnacked(userChatID string, secondTier bool) (models.AuditRecord, bool, error) {
	query := repo.database.Where("user_chat_id = ?", userChatID)
	if secondTier {
		query = query.
			Where("second_supervisor_notified > 0 OR email_second_supervisor_notified > 0").
			Where("second_supervisor_acked = ?", false)
	} else {
		query = query.
			Where("supervisor_notified > 0 OR email_supervisor_notified > 0").
			Where("supervisor_acked = ?", false)
	}

	var record models.AuditRecord
	result := query.Order("id DESC").Limit(1).Find(&record)
	if result.Error != nil {
		return models.AuditRecord{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.AuditRecord{}, false, nil
	}
	return record, true, nil
}

// FindUnacknowledgedEscalation resolves the most recent record awaiting the
// given supervisor's acknowledgment. Used when an acknowledgment request
// arrives without an explicit token.
func (repo *AuditRepository) FindUnacknowledgedEscalation(supervisorChatID string, secondTier bool) (models.AuditRecord, bool, error) {
	supervisorColumn := "supervisor_chat_id"
	notifiedClause := "(a.supervisor_notified > 0 OR a.email_supervisor_notified > 0) AND a.supervisor_acked = 0"
	if secondTier {
		supervisorColumn = "second_supervisor_chat_id"
		notifiedClause = "(a.second_supervisor_notified > 0 OR a.email_second_supervisor_notified > 0) AND a.second_supervisor_acked = 0"
	}

	records := make([]models.AuditRecord, 0, 1)
	err := repo.database.Raw(`
SELECT a.*
FROM audit_records a
JOIN users u ON a.user_chat_id = u.chat_id
WHERE u.`+supervisorColumn+` = ? AND `+notifiedClause+`
ORDER BY a.id DESC
LIMIT 1`, supervisorChatID).Scan(&records).Error
	if err != nil {
		return models.AuditRecord{}, false, err
	}
	if len(records) == 0 {
		return models.AuditRecord{}, false, nil
	}
	return records[0], true, nil
}

func (repo *AuditRepository) ListByWorkday(workday string) ([]models.AuditRecord, error) {
	records := make([]models.AuditRecord, 0)
	if err := repo.database.
		Where("workday = ?", workday).
		Order("user_chat_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (repo *AuditRepository) CountRecords() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.AuditRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// verifiedFieldsMatch compares the changed columns of the expected in-memory
// record against the re-read row. Timestamps tolerate sub-second storage
// truncation.
func verifiedFieldsMatch(expected models.AuditRecord, actual models.AuditRecord, updates map[string]any) bool {
	for column := range updates {
		switch column {
		case "login_at":
			if !optionalTimesClose(expected.LoginAt, actual.LoginAt) {
				return false
			}
		case "logout_at":
			if !optionalTimesClose(expected.LogoutAt, actual.LogoutAt) {
				return false
			}
		case "self_notified":
			if expected.SelfNotified != actual.SelfNotified {
				return false
			}
		case "supervisor_notified":
			if expected.SupervisorNotified != actual.SupervisorNotified {
				return false
			}
		case "second_supervisor_notified":
			if expected.SecondSupervisorNotified != actual.SecondSupervisorNotified {
				return false
			}
		case "email_supervisor_notified":
			if expected.EmailSupervisorNotified != actual.EmailSupervisorNotified {
				return false
			}
		case "email_second_supervisor_notified":
			if expected.EmailSecondSupervisorNotified != actual.EmailSecondSupervisorNotified {
				return false
			}
		case "supervisor_acked":
			if expected.SupervisorAcked != actual.SupervisorAcked {
				return false
			}
		case "second_supervisor_acked":
			if expected.SecondSupervisorAcked != actual.SecondSupervisorAcked {
				return false
			}
		case "last_supervisor_notify_at":
			if !optionalTimesClose(expected.LastSupervisorNotifyAt, actual.LastSupervisorNotifyAt) {
				return false
			}
		case "last_second_supervisor_notify_at":
			if !optionalTimesClose(expected.LastSecondSupervisorNotifyAt, actual.LastSecondSupervisorNotifyAt) {
				return false
			}
		}
	}
	return true
}

func optionalTimesClose(expected *time.Time, actual *time.Time) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	return timesClose(*expected, *actual)
}

func timesClose(left time.Time, right time.Time) bool {
	difference := left.Sub(right)
	if difference < 0 {
		difference = -difference
	}
	return difference < time.Second
}
