package db

import (
	"time"

	"github.com/mkale-dev/rollcall/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

func (repo *UserRepository) CountUsers() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *UserRepository) FindByChatID(chatID string) (models.User, bool, error) {
	var user models.User
	result := repo.database.Where("chat_id = ?", chatID).Limit(1).Find(&user)
	if result.Error != nil {
		return models.User{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.User{}, false, nil
	}
	return user, true, nil
}

func (repo *UserRepository) List() ([]models.User, error) {
	users := make([]models.User, 0)
	if err := repo.database.Order("name ASC, id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *UserRepository) Create(user *models.User) error {
	return repo.database.Create(user).Error
}

func (repo *UserRepository) Save(user *models.User) error {
	return repo.database.Save(user).Error
}

func (repo *UserRepository) DeleteByChatID(chatID string) (int64, error) {
	result := repo.database.Where("chat_id = ?", chatID).Delete(&models.User{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListPastExpectedLogin returns the users whose expected login time-of-day
// has passed without a login recorded for the given day. Users with a
// pre-existing record (for example from a logout-first event) whose login is
// still unset are included alongside users with no record at all.
func (repo *UserRepository) ListPastExpectedLogin(now time.Time) ([]models.User, error) {
	currentTime := now.Format(models.TimeOfDayFormat)
	workday := now.Format(models.WorkdayFormat)

	users := make([]models.User, 0)
	err := repo.database.Raw(`
SELECT u.*
FROM users u
WHERE u.expected_login <> '' AND u.expected_login <= ?
  AND (
    u.chat_id NOT IN (
      SELECT user_chat_id FROM audit_records WHERE workday = ? AND login_at IS NOT NULL
    )
    OR u.chat_id IN (
      SELECT user_chat_id FROM audit_records WHERE workday = ? AND login_at IS NULL
    )
  )
ORDER BY u.expected_login ASC, u.id ASC`,
		currentTime, workday, workday,
	).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
