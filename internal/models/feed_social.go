package models

import "time"

// FeedLike records that Liker liked Feed. A (feed, liker) pair is unique.
type FeedLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FeedID    uint      `gorm:"not null;uniqueIndex:idx_feed_likes_pair" json:"feed_id"`
	LikerID   uint      `gorm:"not null;uniqueIndex:idx_feed_likes_pair;index" json:"liker_id"`
	Liker     User      `gorm:"foreignKey:LikerID" json:"liker"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedComment is a comment left on a feed.
type FeedComment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	FeedID      uint      `gorm:"not null;index" json:"feed_id"`
	CommenterID uint      `gorm:"not null;index" json:"commenter_id"`
	Commenter   User      `gorm:"foreignKey:CommenterID" json:"commenter"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tag is a hashtag string shared across feeds, stored with its leading '#'.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"column:tag;size:255;uniqueIndex;not null" json:"tag"`
}

// FeedTag attaches a Tag to a Feed.
type FeedTag struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	FeedID uint `gorm:"not null;uniqueIndex:idx_feed_tags_pair" json:"-"`
	TagID  uint `gorm:"not null;uniqueIndex:idx_feed_tags_pair;index" json:"-"`
	Tag    Tag  `gorm:"foreignKey:TagID" json:"tag"`
}
