package models

import (
	"time"
)

type UserRole string

const (
	RoleFree  UserRole = "free"
	RolePro   UserRole = "pro"
	RoleAdmin UserRole = "admin"
)

// Valid reports whether r is one of the known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleFree, RolePro, RoleAdmin:
		return true
	}
	return false
}

// Normalize maps unknown or empty roles to RoleFree
func (r UserRole) Normalize() UserRole {
	if r.Valid() {
		return r
	}
	return RoleFree
}

// User is the local account record. Identity lives in the identity provider;
// role and generation counters live here.
type User struct {
	ID        string   `json:"id" gorm:"primaryKey;size:255"`
	Name      string   `json:"name" gorm:"size:255"`
	Email     string   `json:"email" gorm:"index;size:255"`
	AvatarURL *string  `json:"avatar_url" gorm:"size:500"`
	Role      UserRole `json:"role" gorm:"not null;size:20;index"`

	// Lifetime credit policy
	CreditsUsed    int  `json:"credits_used" gorm:"not null;default:0"`
	CreditsGranted *int `json:"credits_granted"`

	// Daily credit policy
	DailyGenerationCount int        `json:"daily_generation_count" gorm:"not null;default:0"`
	LastGenerationDate   *time.Time `json:"last_generation_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Identity is the authenticated principal as reported by the identity provider
type Identity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
	IsAdmin     bool   `json:"is_admin"`
}
