// Package notifications publishes feed events over Redis and fans them out
// to websocket subscribers.
package notifications

import "time"

// FeedEventsChannel is the Redis pub/sub channel carrying FeedEvent payloads.
const FeedEventsChannel = "feed:events"

// Feed event types.
const (
	EventFeedCreated    = "feed.created"
	EventFeedUpdated    = "feed.updated"
	EventFeedDeleted    = "feed.deleted"
	EventLikeCreated    = "like.created"
	EventLikeDeleted    = "like.deleted"
	EventCommentCreated = "comment.created"
	EventCommentUpdated = "comment.updated"
	EventCommentDeleted = "comment.deleted"
)

// FeedEvent describes a change to a feed or its likes and comments.
type FeedEvent struct {
	Type      string    `json:"type"`
	FeedID    uint      `json:"feed_id"`
	ActorID   uint      `json:"actor_id"`
	CommentID uint      `json:"comment_id,omitempty"`
	At        time.Time `json:"at"`
}
