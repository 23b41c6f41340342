package db

import "gorm.io/gorm"

type Repositories struct {
	Users     *UserRepository
	Audits    *AuditRepository
	Tokens    *TokenRepository
	Settings  *SettingsRepository
	Integrity *IntegrityRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:     NewUserRepository(database),
		Audits:    NewAuditRepository(database),
		Tokens:    NewTokenRepository(database),
		Settings:  NewSettingsRepository(database),
		Integrity: NewIntegrityRepository(database),
	}
}
