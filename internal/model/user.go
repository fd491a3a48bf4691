package model

import (
	"time"

	"casino-maintenance-backend/internal/patch"
)

// User is an account allowed to use the API.
type User struct {
	ID             int64     `gorm:"primaryKey"`
	Username       string    `gorm:"uniqueIndex;size:64;not null"`
	Email          string    `gorm:"uniqueIndex;size:255;not null"`
	HashedPassword string    `gorm:"not null"`
	IsActive       bool      `gorm:"not null"`
	IsAdmin        bool      `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false;not null"`
}

// NewUser builds an active, non-admin user stamped with now.
func NewUser(username, email, hashedPassword string, now time.Time) User {
	return User{
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// UserPatch holds the account flags an administrator may toggle.
type UserPatch struct {
	IsActive patch.Field[bool] `json:"is_active"`
	IsAdmin  patch.Field[bool] `json:"is_admin"`
}

// Apply returns u with every present flag of p written over it.
func (p UserPatch) Apply(u User, now time.Time) (User, error) {
	if err := setBool(&u.IsActive, p.IsActive, "is_active"); err != nil {
		return u, err
	}
	if err := setBool(&u.IsAdmin, p.IsAdmin, "is_admin"); err != nil {
		return u, err
	}
	u.UpdatedAt = now
	return u, nil
}

// All lists every model for migrations, parents before children.
func All() []any {
	return []any{
		&User{},
		&Technician{},
		&Machine{},
		&MaintenanceRecord{},
	}
}
