package services

import (
	"fmt"

	"github.com/mkale-dev/rollcall/internal/models"
)

type userRepository interface {
	FindByChatID(chatID string) (models.User, bool, error)
	List() ([]models.User, error)
	Create(user *models.User) error
	Save(user *models.User) error
	DeleteByChatID(chatID string) (int64, error)
}

// UserService owns the tracked-user roster exposed through the admin API.
type UserService struct {
	users userRepository
}

func NewUserService(users userRepository) *UserService {
	return &UserService{users: users}
}

func (service *UserService) List() ([]models.User, error) {
	return service.users.List()
}

func (service *UserService) Get(chatID string) (models.User, error) {
	user, found, err := service.users.FindByChatID(chatID)
	if err != nil {
		return models.User{}, fmt.Errorf("look up user %s: %w", chatID, err)
	}
	if !found {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (service *UserService) Create(user models.User) (models.User, error) {
	if user.ChatID == "" || user.Name == "" {
		return models.User{}, fmt.Errorf("chat ID and name are required")
	}
	if _, found, err := service.users.FindByChatID(user.ChatID); err != nil {
		return models.User{}, fmt.Errorf("look up user %s: %w", user.ChatID, err)
	} else if found {
		return models.User{}, ErrUserExists
	}

	if err := service.users.Create(&user); err != nil {
		return models.User{}, fmt.Errorf("create user %s: %w", user.ChatID, err)
	}
	return user, nil
}

// Update replaces the mutable fields of an existing user. The chat ID is the
// identity and cannot change.
func (service *UserService) Update(chatID string, updated models.User) (models.User, error) {
	existing, err := service.Get(chatID)
	if err != nil {
		return models.User{}, err
	}

	updated.ID = existing.ID
	updated.ChatID = existing.ChatID
	updated.CreatedAt = existing.CreatedAt
	if err := service.users.Save(&updated); err != nil {
		return models.User{}, fmt.Errorf("update user %s: %w", chatID, err)
	}
	return updated, nil
}

func (service *UserService) Delete(chatID string) error {
	deleted, err := service.users.DeleteByChatID(chatID)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", chatID, err)
	}
	if deleted == 0 {
		return ErrUserNotFound
	}
	return nil
}
