package db

import (
	"github.com/mkale-dev/rollcall/internal/models"
	"gorm.io/gorm"
)

type TokenRepository struct {
	database *gorm.DB
}

func NewTokenRepository(database *gorm.DB) *TokenRepository {
	return &TokenRepository{database: database}
}

func (repo *TokenRepository) Create(token *models.AcknowledgmentToken) error {
	return repo.database.Create(token).Error
}

// Consume atomically marks the token used and returns its payload. The
// guarded UPDATE makes concurrent consumption attempts of the same token
// succeed exactly once; unknown and already-used tokens collapse into the
// same ErrTokenInvalid.
func (repo *TokenRepository) Consume(token string) (models.AcknowledgmentToken, error) {
	var consumed models.AcknowledgmentToken
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.AcknowledgmentToken{}).
			Where("token = ? AND used = ?", token, false).
			Update("used", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrTokenInvalid
		}
		return tx.Where("token = ?", token).First(&consumed).Error
	})
	if err != nil {
		return models.AcknowledgmentToken{}, err
	}
	return consumed, nil
}
