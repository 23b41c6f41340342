package services

import (
	"errors"
	"fmt"

	"github.com/mkale-dev/rollcall/internal/db"
	"github.com/mkale-dev/rollcall/internal/models"
	"github.com/mkale-dev/rollcall/internal/security"
)

const tokenLength = 48

type tokenRepository interface {
	Create(token *models.AcknowledgmentToken) error
	Consume(token string) (models.AcknowledgmentToken, error)
}

// TokenService issues and consumes one-time acknowledgment tokens.
type TokenService struct {
	tokens tokenRepository
	clock  Clock
}

func NewTokenService(tokens tokenRepository, clock Clock) *TokenService {
	return &TokenService{tokens: tokens, clock: clock}
}

// Issue mints a fresh token bound to the escalated user and tier. Every
// notification carries its own token; earlier tokens stay valid until one
// of them is consumed.
func (service *TokenService) Issue(userChatID string, secondTier bool) (string, error) {
	value, err := security.Token(tokenLength)
	if err != nil {
		return "", fmt.Errorf("generate acknowledgment token: %w", err)
	}

	token := models.AcknowledgmentToken{
		Token:      value,
		UserChatID: userChatID,
		SecondTier: secondTier,
		CreatedAt:  service.clock.Now(),
	}
	if err := service.tokens.Create(&token); err != nil {
		return "", fmt.Errorf("store acknowledgment token: %w", err)
	}
	return value, nil
}

// Consume atomically spends the token and returns what it was bound to.
// Unknown and already-used tokens are indistinguishable to the caller.
func (service *TokenService) Consume(value string) (models.AcknowledgmentToken, error) {
	token, err := service.tokens.Consume(value)
	if err != nil {
		if errors.Is(err, db.ErrTokenInvalid) {
			return models.AcknowledgmentToken{}, ErrTokenInvalid
		}
		return models.AcknowledgmentToken{}, err
	}
	return token, nil
}
