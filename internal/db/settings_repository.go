package db

import (
	"github.com/mkale-dev/rollcall/internal/models"
	"gorm.io/gorm"
)

type SettingsRepository struct {
	database *gorm.DB
}

func NewSettingsRepository(database *gorm.DB) *SettingsRepository {
	return &SettingsRepository{database: database}
}

// Load returns the single settings row, seeding it with defaults on first
// boot so the engine always has an explicit configuration record.
func (repo *SettingsRepository) Load() (models.EscalationSettings, error) {
	var settings models.EscalationSettings
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		result := tx.Order("id ASC").Limit(1).Find(&settings)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		settings = models.DefaultEscalationSettings()
		return tx.Create(&settings).Error
	})
	if err != nil {
		return models.EscalationSettings{}, err
	}
	return settings, nil
}

func (repo *SettingsRepository) Save(settings *models.EscalationSettings) error {
	return repo.database.Save(settings).Error
}
