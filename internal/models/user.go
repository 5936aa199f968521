// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account that authors feeds, likes and comments.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Name         string         `gorm:"not null" json:"name"`
	Password     string         `gorm:"not null" json:"-"`
	ProfileImage string         `json:"profile_image"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserSummary is the public projection of a user embedded in feed payloads.
type UserSummary struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image"`
}

// Summary returns the public projection of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, ProfileImage: u.ProfileImage}
}
