package models

import "time"

// UserConnection is a connection request from User to ConnectedUser.
// It becomes mutual once the connected user accepts it.
type UserConnection struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_user_connections_pair" json:"user_id"`
	ConnectedUserID uint      `gorm:"not null;uniqueIndex:idx_user_connections_pair;index" json:"connected_user_id"`
	IsAccepted      bool      `gorm:"not null;default:false;index" json:"is_accepted"`
	Message         string    `gorm:"size:300" json:"message"`
	User            User      `gorm:"foreignKey:UserID" json:"user"`
	ConnectedUser   User      `gorm:"foreignKey:ConnectedUserID" json:"connected_user"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserConnection) TableName() string {
	return "user_connections"
}

// Other returns the party of the connection that is not userID.
func (c *UserConnection) Other(userID uint) User {
	if c.UserID == userID {
		return c.ConnectedUser
	}
	return c.User
}

// ConnectionView is the API shape of a connection seen from one side.
type ConnectionView struct {
	ID            uint        `json:"id"`
	IsAccepted    bool        `json:"is_accepted"`
	Message       string      `json:"message"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	ConnectedUser UserSummary `json:"connected_user"`
}
