package models

import "time"

// AcknowledgmentToken is a single-use capability mailed or messaged to a
// supervisor; consuming it closes out the escalation tier it was issued for.
type AcknowledgmentToken struct {
	Token      string `gorm:"primaryKey"`
	UserChatID string `gorm:"not null"`
	SecondTier bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
	Used       bool `gorm:"not null;default:false"`
}
