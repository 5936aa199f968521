package database

import "feedhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.ProfileExperience{},
		&models.ProfileWebsite{},
		&models.UserConnection{},
		&models.FeedVideo{},
		&models.Feed{},
		&models.FeedImage{},
		&models.Tag{},
		&models.FeedTag{},
		&models.FeedLike{},
		&models.FeedComment{},
	}
}
