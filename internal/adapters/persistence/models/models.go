package models

import (
	"time"

	"investorconnect/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Identity provider tables
// ============================================================

// Account represents accounts table
type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"uid"`
	Email        string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	DisplayName  string    `gorm:"size:100" json:"display_name"`
	Disabled     bool      `gorm:"default:false" json:"disabled"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// ToIdentity returns the public view of the account
func (a *Account) ToIdentity() domain.Identity {
	return domain.Identity{
		UID:         a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AccountID string     `gorm:"index;size:36;not null" json:"account_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	Account   Account    `gorm:"foreignKey:AccountID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Document store table
// ============================================================

// Document is one schema-less record. Payload holds the JSON object.
type Document struct {
	Collection string    `gorm:"primaryKey;size:64" json:"collection"`
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Payload    string    `gorm:"type:json;not null" json:"payload"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}

// AutoMigrate creates or updates every table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&RefreshToken{},
		&Document{},
	)
}
