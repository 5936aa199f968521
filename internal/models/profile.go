package models

import "time"

// Profile extends a user with public details.
type Profile struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	UserID      uint                `gorm:"not null;uniqueIndex" json:"user_id"`
	User        User                `gorm:"foreignKey:UserID" json:"user"`
	Headline    string              `gorm:"size:120" json:"headline"`
	About       string              `gorm:"type:text" json:"about"`
	Location    string              `gorm:"size:120" json:"location"`
	Experiences []ProfileExperience `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"experiences"`
	Websites    []ProfileWebsite    `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"websites"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ProfileExperience is one entry of a profile's work history.
// A nil EndDate marks the current position.
type ProfileExperience struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProfileID   uint       `gorm:"not null;index" json:"profile_id"`
	Title       string     `gorm:"size:120;not null" json:"title"`
	Company     string     `gorm:"size:120;not null" json:"company"`
	StartDate   time.Time  `gorm:"not null" json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProfileWebsite is a link shown on a profile.
type ProfileWebsite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProfileID uint      `gorm:"not null;index" json:"profile_id"`
	URL       string    `gorm:"column:url;not null" json:"url"`
	Label     string    `gorm:"size:60" json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileView is the API shape of a profile.
type ProfileView struct {
	ID          uint                `json:"id"`
	UserID      uint                `json:"user_id"`
	User        UserSummary         `json:"user"`
	Headline    string              `json:"headline"`
	About       string              `json:"about"`
	Location    string              `json:"location"`
	Experiences []ProfileExperience `json:"experiences"`
	Websites    []ProfileWebsite    `json:"websites"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
