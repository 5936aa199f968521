package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"feedhub/internal/database"
	"feedhub/internal/models"
	"feedhub/internal/observability"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// jsonDialect holds the JSON aggregation functions of one SQL dialect.
type jsonDialect struct {
	object string
	// agg wraps an object expression into a JSON array aggregate ordered by order.
	agg       func(expr, order string) string
	timestamp func(col string) string
}

var (
	postgresJSON = jsonDialect{
		object:    "json_build_object",
		agg:       func(expr, order string) string { return fmt.Sprintf("json_agg(%s ORDER BY %s)", expr, order) },
		timestamp: func(col string) string { return col },
	}
	sqliteJSON = jsonDialect{
		object: "json_object",
		// json_group_array takes rows in the order of the ordered derived
		// table it reads from.
		agg: func(expr, _ string) string { return fmt.Sprintf("json_group_array(%s)", expr) },
		// gorm's sqlite driver stores timestamps as text with a numeric
		// offset; normalise them to RFC 3339 in UTC.
		timestamp: func(col string) string { return fmt.Sprintf("strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', %s)", col) },
	}
)

func jsonDialectFor(db *gorm.DB) jsonDialect {
	if database.Dialect(db) == "sqlite" {
		return sqliteJSON
	}
	return postgresJSON
}

// Likes and comments aggregate oldest first, images in insertion order.

func (d jsonDialect) likesSubquery() string {
	item := fmt.Sprintf("%s('id', l.id, 'liker_id', l.liker_id, 'name', l.name, 'profile_image', l.profile_image, 'created_at', %s)",
		d.object, d.timestamp("l.created_at"))
	return fmt.Sprintf(`SELECT l.feed_id, %s AS items, COUNT(*) AS total
		FROM (SELECT feed_likes.id, feed_likes.feed_id, feed_likes.created_at, users.id AS liker_id,
				users.name, COALESCE(users.profile_image, '') AS profile_image
			FROM feed_likes JOIN users ON users.id = feed_likes.liker_id
			ORDER BY feed_likes.created_at, feed_likes.id) l
		GROUP BY l.feed_id`,
		d.agg(item, "l.created_at, l.id"))
}

func (d jsonDialect) commentsSubquery() string {
	item := fmt.Sprintf(`%s('id', c.id, 'content', c.content, 'commenter_id', c.commenter_id, 'name', c.name,
			'profile_image', c.profile_image, 'created_at', %s, 'updated_at', %s)`,
		d.object, d.timestamp("c.created_at"), d.timestamp("c.updated_at"))
	return fmt.Sprintf(`SELECT c.feed_id, %s AS items, COUNT(*) AS total
		FROM (SELECT feed_comments.id, feed_comments.feed_id, feed_comments.content,
				feed_comments.created_at, feed_comments.updated_at, users.id AS commenter_id,
				users.name, COALESCE(users.profile_image, '') AS profile_image
			FROM feed_comments JOIN users ON users.id = feed_comments.commenter_id
			ORDER BY feed_comments.created_at, feed_comments.id) c
		GROUP BY c.feed_id`,
		d.agg(item, "c.created_at, c.id"))
}

func (d jsonDialect) imagesSubquery() string {
	item := fmt.Sprintf("%s('id', i.id, 'image_url', i.image_url)", d.object)
	return fmt.Sprintf(`SELECT i.feed_id, %s AS items
		FROM (SELECT id, feed_id, image_url FROM feed_images ORDER BY id) i
		GROUP BY i.feed_id`,
		d.agg(item, "i.id"))
}

// aggregatedFeedRow is one result row of the aggregation query.
type aggregatedFeedRow struct {
	ID                 uint
	Content            string
	AuthorID           uint
	VideoID            *uint
	CreatedAt          time.Time
	UpdatedAt          time.Time
	AuthorName         string
	AuthorProfileImage string
	VideoURL           *string
	Likes              datatypes.JSON
	LikesCount         int
	Comments           datatypes.JSON
	CommentsCount      int
	Images             datatypes.JSON
}

type aggregatedLike struct {
	ID           uint      `json:"id"`
	LikerID      uint      `json:"liker_id"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

type aggregatedComment struct {
	ID           uint      `json:"id"`
	Content      string    `json:"content"`
	CommenterID  uint      `json:"commenter_id"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FindAggregated lists feeds with author, media, likes and comments in a
// single round trip. Counts and IsLiked are computed by the store.
func (r *feedRepository) FindAggregated(ctx context.Context, spec FeedQuerySpec, viewerID uint) ([]*models.Feed, error) {
	db := readDB(r.db)
	ctx, done := observability.StartQuery(ctx, database.Dialect(db), "find_aggregated", "feeds")

	d := jsonDialectFor(db)
	query := db.WithContext(ctx).
		Table("feeds").
		Select(`feeds.id, feeds.content, feeds.author_id, feeds.video_id, feeds.created_at, feeds.updated_at,
			users.name AS author_name, COALESCE(users.profile_image, '') AS author_profile_image,
			feed_videos.video_url AS video_url,
			COALESCE(likes.items, '[]') AS likes, COALESCE(likes.total, 0) AS likes_count,
			COALESCE(comments.items, '[]') AS comments, COALESCE(comments.total, 0) AS comments_count,
			COALESCE(images.items, '[]') AS images`).
		Joins("JOIN users ON users.id = feeds.author_id").
		Joins("LEFT JOIN feed_videos ON feed_videos.id = feeds.video_id").
		Joins(fmt.Sprintf("LEFT JOIN (%s) likes ON likes.feed_id = feeds.id", d.likesSubquery())).
		Joins(fmt.Sprintf("LEFT JOIN (%s) comments ON comments.feed_id = feeds.id", d.commentsSubquery())).
		Joins(fmt.Sprintf("LEFT JOIN (%s) images ON images.feed_id = feeds.id", d.imagesSubquery()))

	query = spec.applyFilters(query)
	query = applyOrdering(query, "feeds", spec.Order)
	query = spec.applyPage(query)

	var rows []aggregatedFeedRow
	err := query.Scan(&rows).Error
	done(err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	feeds := make([]*models.Feed, 0, len(rows))
	for i := range rows {
		feed, err := rows[i].toFeed(len(spec.CommentOrder) > 0)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		feed.IsLiked = feed.IsLikedBy(viewerID)
		feeds = append(feeds, feed)
	}
	return feeds, nil
}

func (row *aggregatedFeedRow) toFeed(newestCommentsFirst bool) (*models.Feed, error) {
	feed := &models.Feed{
		ID:       row.ID,
		Content:  row.Content,
		AuthorID: row.AuthorID,
		Author: models.User{
			ID:           row.AuthorID,
			Name:         row.AuthorName,
			ProfileImage: row.AuthorProfileImage,
		},
		VideoID:       row.VideoID,
		LikesCount:    row.LikesCount,
		CommentsCount: row.CommentsCount,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.VideoID != nil && row.VideoURL != nil {
		feed.Video = &models.FeedVideo{ID: *row.VideoID, VideoURL: *row.VideoURL}
	}

	if err := json.Unmarshal(row.Images, &feed.Images); err != nil {
		return nil, fmt.Errorf("decode images of feed %d: %w", row.ID, err)
	}
	for i := range feed.Images {
		feed.Images[i].FeedID = row.ID
	}

	var likes []aggregatedLike
	if err := json.Unmarshal(row.Likes, &likes); err != nil {
		return nil, fmt.Errorf("decode likes of feed %d: %w", row.ID, err)
	}
	feed.Likes = make([]models.FeedLike, 0, len(likes))
	for _, l := range likes {
		feed.Likes = append(feed.Likes, models.FeedLike{
			ID:        l.ID,
			FeedID:    row.ID,
			LikerID:   l.LikerID,
			Liker:     models.User{ID: l.LikerID, Name: l.Name, ProfileImage: l.ProfileImage},
			CreatedAt: l.CreatedAt,
		})
	}

	var comments []aggregatedComment
	if err := json.Unmarshal(row.Comments, &comments); err != nil {
		return nil, fmt.Errorf("decode comments of feed %d: %w", row.ID, err)
	}
	feed.Comments = make([]models.FeedComment, 0, len(comments))
	for _, c := range comments {
		feed.Comments = append(feed.Comments, models.FeedComment{
			ID:          c.ID,
			Content:     c.Content,
			FeedID:      row.ID,
			CommenterID: c.CommenterID,
			Commenter:   models.User{ID: c.CommenterID, Name: c.Name, ProfileImage: c.ProfileImage},
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		})
	}
	if newestCommentsFirst {
		sort.SliceStable(feed.Comments, func(i, j int) bool {
			a, b := feed.Comments[i], feed.Comments[j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		})
	}

	return feed, nil
}
