package models

import "time"

// FeedContentMaxLength is the column width of feeds.content.
const FeedContentMaxLength = 1000

// Feed is a post authored by a user. Images, video and tags are owned by the
// feed and written together with it.
type Feed struct {
	ID       uint          `gorm:"primaryKey" json:"id"`
	Content  string        `gorm:"type:varchar(1000);not null;default:''" json:"content"`
	AuthorID uint          `gorm:"not null;index" json:"author_id"`
	Author   User          `gorm:"foreignKey:AuthorID" json:"author"`
	Images   []FeedImage   `gorm:"foreignKey:FeedID;constraint:OnDelete:CASCADE" json:"images"`
	VideoID  *uint         `gorm:"index" json:"video_id,omitempty"`
	Video    *FeedVideo    `gorm:"foreignKey:VideoID;constraint:OnDelete:SET NULL" json:"video,omitempty"`
	Comments []FeedComment `gorm:"foreignKey:FeedID;constraint:OnDelete:CASCADE" json:"comments"`
	Likes    []FeedLike    `gorm:"foreignKey:FeedID;constraint:OnDelete:CASCADE" json:"likes"`
	FeedTags []FeedTag     `gorm:"foreignKey:FeedID;constraint:OnDelete:CASCADE" json:"feed_tags"`

	// Computed per request, never persisted.
	LikesCount    int  `gorm:"-" json:"likes_count"`
	CommentsCount int  `gorm:"-" json:"comments_count"`
	IsLiked       bool `gorm:"-" json:"is_liked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeedImage is an image URL attached to a feed.
type FeedImage struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FeedID   uint   `gorm:"not null;index" json:"feed_id"`
	ImageURL string `gorm:"not null" json:"image_url"`
}

// FeedVideo is the optional video attached to a feed.
type FeedVideo struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	VideoURL string `gorm:"not null" json:"video_url"`
}

// TagNames returns the tag strings attached to the feed in attachment order.
func (f *Feed) TagNames() []string {
	names := make([]string, 0, len(f.FeedTags))
	for _, ft := range f.FeedTags {
		names = append(names, ft.Tag.Name)
	}
	return names
}

// IsLikedBy reports whether userID appears among the loaded likes.
func (f *Feed) IsLikedBy(userID uint) bool {
	if userID == 0 {
		return false
	}
	for _, like := range f.Likes {
		if like.LikerID == userID {
			return true
		}
	}
	return false
}

// FeedSort enumerates the accepted listing orders.
type FeedSort string

const (
	FeedSortRecent   FeedSort = "recent"
	FeedSortTrending FeedSort = "trending"
)

// FeedQuery is a feed listing request. Zero values add no constraint.
type FeedQuery struct {
	Sort   FeedSort
	Search string
	Tag    string
	Offset int
	Limit  int
	// UserID is the viewer used for the is_liked flag.
	UserID uint
}
