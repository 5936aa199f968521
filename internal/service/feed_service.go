// Package service holds the business rules between HTTP handlers and repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"feedhub/internal/featureflags"
	"feedhub/internal/middleware"
	"feedhub/internal/models"
	"feedhub/internal/notifications"
	"feedhub/internal/observability"
	"feedhub/internal/repository"

	"golang.org/x/sync/errgroup"
)

// FeedEventPublisher delivers feed events to realtime subscribers.
type FeedEventPublisher interface {
	PublishFeedEvent(ctx context.Context, ev notifications.FeedEvent) error
}

// FeedService orchestrates feeds, likes, comments and tags.
type FeedService struct {
	feedRepo    repository.FeedRepository
	likeRepo    repository.FeedLikeRepository
	commentRepo repository.FeedCommentRepository
	tagRepo     repository.TagRepository
	userRepo    repository.UserRepository
	flags       *featureflags.Manager
	events      FeedEventPublisher
}

// FeedServiceDeps groups the collaborators of a FeedService. Flags and
// Events may be nil.
type FeedServiceDeps struct {
	Feeds    repository.FeedRepository
	Likes    repository.FeedLikeRepository
	Comments repository.FeedCommentRepository
	Tags     repository.TagRepository
	Users    repository.UserRepository
	Flags    *featureflags.Manager
	Events   FeedEventPublisher
}

// NewFeedService returns a new FeedService.
func NewFeedService(deps FeedServiceDeps) *FeedService {
	return &FeedService{
		feedRepo:    deps.Feeds,
		likeRepo:    deps.Likes,
		commentRepo: deps.Comments,
		tagRepo:     deps.Tags,
		userRepo:    deps.Users,
		flags:       deps.Flags,
		events:      deps.Events,
	}
}

type CreateFeedInput struct {
	UserID  uint
	Content string
	Images  []string
	Video   string
}

// UpdateFeedInput replaces the non-empty fields of a feed.
type UpdateFeedInput struct {
	UserID  uint
	FeedID  uint
	Content string
	Images  []string
	Video   string
}

type DeleteFeedInput struct {
	UserID uint
	FeedID uint
}

type FeedCommentInput struct {
	UserID    uint
	FeedID    uint
	CommentID uint
	Content   string
}

type FeedLikeInput struct {
	LikerID uint
	FeedID  uint
}

// observe records the outcome of one operation.
func observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = models.CodeInternalError
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			outcome = appErr.Code
		}
	}
	observability.RecordFeedOperation(operation, outcome)
}

func (s *FeedService) publish(ctx context.Context, ev notifications.FeedEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishFeedEvent(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "feed event publish failed",
			slog.String("type", ev.Type),
			slog.Uint64("feed_id", uint64(ev.FeedID)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *FeedService) requireUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUserNotFoundError(id)
	}
	return user, nil
}

func (s *FeedService) requireFeed(ctx context.Context, id uint) (*models.Feed, error) {
	feed, err := s.feedRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, models.NewContentNotFoundError("Feed", id)
	}
	return feed, nil
}

func requireIDs(ids ...uint) error {
	for _, id := range ids {
		if id == 0 {
			return models.NewKeyError("Identifiers must be positive integers")
		}
	}
	return nil
}

// decorate fills the read-time fields of feed for viewerID.
func decorate(feed *models.Feed, viewerID uint) {
	feed.LikesCount = len(feed.Likes)
	feed.CommentsCount = len(feed.Comments)
	feed.IsLiked = viewerID != 0 && feed.IsLikedBy(viewerID)
}

// GetList returns a page of feeds. Viewers in the feed_aggregation rollout
// are served by the single-query aggregation path.
func (s *FeedService) GetList(ctx context.Context, in models.FeedQuery) (feeds []*models.Feed, err error) {
	defer func() { observe("list", err) }()

	spec, err := s.feedRepo.BuildQuery(in)
	if err != nil {
		return nil, err
	}
	if s.flags.Enabled(featureflags.FeedAggregation, in.UserID) {
		return s.feedRepo.FindAggregated(ctx, spec, in.UserID)
	}
	return s.feedRepo.FindAll(ctx, spec, in.UserID)
}

// GetOne returns a feed with every relation loaded.
func (s *FeedService) GetOne(ctx context.Context, feedID, viewerID uint) (feed *models.Feed, err error) {
	defer func() { observe("get", err) }()

	if err := requireIDs(feedID); err != nil {
		return nil, err
	}
	feed, err = s.feedRepo.FindWithRelations(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, models.NewContentNotFoundError("Feed", feedID)
	}
	decorate(feed, viewerID)
	return feed, nil
}

func validateContent(content string) error {
	if utf8.RuneCountInString(content) > models.FeedContentMaxLength {
		return models.NewInvalidInputError(fmt.Sprintf("Content must not exceed %d characters", models.FeedContentMaxLength))
	}
	return nil
}

func toImages(urls []string) []models.FeedImage {
	images := make([]models.FeedImage, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, models.FeedImage{ImageURL: u})
		}
	}
	return images
}

// resolveTags diffs previous against the hashtags of content and attaches
// already stored Tag rows to the added names.
func (s *FeedService) resolveTags(ctx context.Context, previous []models.FeedTag, content string) ([]models.FeedTag, error) {
	diff := DiffTags(previous, ExtractTags(content))
	existing, err := s.tagRepo.FindByNames(ctx, diff.Added)
	if err != nil {
		return nil, err
	}
	return diff.Attach(existing), nil
}

func (s *FeedService) CreateFeed(ctx context.Context, in CreateFeedInput) (feed *models.Feed, err error) {
	defer func() { observe("create", err) }()

	if err := requireIDs(in.UserID); err != nil {
		return nil, err
	}
	if _, err := s.requireUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	images := toImages(in.Images)
	video := strings.TrimSpace(in.Video)
	if strings.TrimSpace(in.Content) == "" && len(images) == 0 && video == "" {
		return nil, models.NewInvalidInputError("A feed needs content, images or a video")
	}

	feed = &models.Feed{Content: in.Content, AuthorID: in.UserID, Images: images}
	if video != "" {
		feed.Video = &models.FeedVideo{VideoURL: video}
	}
	if in.Content != "" {
		if feed.FeedTags, err = s.resolveTags(ctx, nil, in.Content); err != nil {
			return nil, err
		}
	}

	if err := s.feedRepo.Create(ctx, feed); err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.FeedEvent{Type: notifications.EventFeedCreated, FeedID: feed.ID, ActorID: in.UserID})

	created, err := s.feedRepo.FindWithRelations(ctx, feed.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, models.NewContentNotFoundError("Feed", feed.ID)
	}
	decorate(created, in.UserID)
	return created, nil
}

func (s *FeedService) UpdateFeed(ctx context.Context, in UpdateFeedInput) (feed *models.Feed, err error) {
	defer func() { observe("update", err) }()

	if err := requireIDs(in.UserID, in.FeedID); err != nil {
		return nil, err
	}
	current, err := s.feedRepo.FindWithAuthorAndTags(ctx, in.FeedID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, models.NewContentNotFoundError("Feed", in.FeedID)
	}
	if current.AuthorID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own feeds")
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	var changes repository.FeedChanges
	if in.Content != "" {
		content := in.Content
		changes.Content = &content
		if changes.Tags, err = s.resolveTags(ctx, current.FeedTags, content); err != nil {
			return nil, err
		}
	}
	if images := toImages(in.Images); len(images) > 0 {
		changes.Images = images
	}
	if video := strings.TrimSpace(in.Video); video != "" {
		changes.Video = &models.FeedVideo{VideoURL: video}
	}

	if err := s.feedRepo.Update(ctx, current, changes); err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.FeedEvent{Type: notifications.EventFeedUpdated, FeedID: in.FeedID, ActorID: in.UserID})

	updated, err := s.feedRepo.FindWithRelations(ctx, in.FeedID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewContentNotFoundError("Feed", in.FeedID)
	}
	decorate(updated, in.UserID)
	return updated, nil
}

func (s *FeedService) DeleteFeed(ctx context.Context, in DeleteFeedInput) (err error) {
	defer func() { observe("delete", err) }()

	if err := requireIDs(in.UserID, in.FeedID); err != nil {
		return err
	}
	feed, err := s.requireFeed(ctx, in.FeedID)
	if err != nil {
		return err
	}
	if feed.AuthorID != in.UserID {
		return models.NewUnauthorizedError("You can only delete your own feeds")
	}

	if err := s.feedRepo.Delete(ctx, feed); err != nil {
		return err
	}
	s.publish(ctx, notifications.FeedEvent{Type: notifications.EventFeedDeleted, FeedID: in.FeedID, ActorID: in.UserID})
	return nil
}

func (s *FeedService) ListComments(ctx context.Context, feedID uint) (comments []*models.FeedComment, err error) {
	defer func() { observe("list_comments", err) }()

	if err := requireIDs(feedID); err != nil {
		return nil, err
	}
	if _, err := s.requireFeed(ctx, feedID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByFeed(ctx, feedID)
}

func (s *FeedService) CreateComment(ctx context.Context, in FeedCommentInput) (comment *models.FeedComment, err error) {
	defer func() { observe("create_comment", err) }()

	if err := requireIDs(in.UserID, in.FeedID); err != nil {
		return nil, err
	}
	if _, err := s.requireFeed(ctx, in.FeedID); err != nil {
		return nil, err
	}
	if _, err := s.requireUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}

	comment = &models.FeedComment{Content: in.Content, FeedID: in.FeedID, CommenterID: in.UserID}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.FeedEvent{
		Type: notifications.EventCommentCreated, FeedID: in.FeedID, ActorID: in.UserID, CommentID: comment.ID,
	})
	return s.commentRepo.FindByID(ctx, comment.ID)
}

// loadComment runs the shared checks of comment mutations: user, feed, then
// comment, which must belong to that feed.
func (s *FeedService) loadComment(ctx context.Context, in FeedCommentInput) (*models.FeedComment, error) {
	if err := requireIDs(in.UserID, in.FeedID, in.CommentID); err != nil {
		return nil, err
	}
	if _, err := s.requireUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	if _, err := s.requireFeed(ctx, in.FeedID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.FindByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	// A comment is only addressable under the feed it was left on.
	if comment == nil || comment.FeedID != in.FeedID {
		return nil, models.NewContentNotFoundError("Comment", in.CommentID)
	}
	return comment, nil
}

func (s *FeedService) UpdateComment(ctx context.Context, in FeedCommentInput) (comment *models.FeedComment, err error) {
	defer func() { observe("update_comment", err) }()

	comment, err = s.loadComment(ctx, in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}

	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.FeedEvent{
		Type: notifications.EventCommentUpdated, FeedID: comment.FeedID, ActorID: in.UserID, CommentID: comment.ID,
	})
	return comment, nil
}

func (s *FeedService) DeleteComment(ctx context.Context, in FeedCommentInput) (comment *models.FeedComment, err error) {
	defer func() { observe("delete_comment", err) }()

	comment, err = s.loadComment(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.Delete(ctx, comment); err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.FeedEvent{
		Type: notifications.EventCommentDeleted, FeedID: comment.FeedID, ActorID: in.UserID, CommentID: comment.ID,
	})
	return comment, nil
}

// CreateLike records that the liker likes the feed. Liking twice succeeds
// without a second row.
func (s *FeedService) CreateLike(ctx context.Context, in FeedLikeInput) (err error) {
	defer func() { observe("create_like", err) }()

	if err := requireIDs(in.LikerID, in.FeedID); err != nil {
		return err
	}

	var (
		user *models.User
		feed *models.Feed
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.userRepo.FindByID(gctx, in.LikerID)
		return err
	})
	g.Go(func() error {
		var err error
		feed, err = s.feedRepo.FindByID(gctx, in.FeedID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if user == nil {
		return models.NewUserNotFoundError(in.LikerID)
	}
	if feed == nil {
		return models.NewContentNotFoundError("Feed", in.FeedID)
	}

	created, err := s.likeRepo.Create(ctx, &models.FeedLike{FeedID: in.FeedID, LikerID: in.LikerID})
	if err != nil {
		return err
	}
	if created {
		s.publish(ctx, notifications.FeedEvent{Type: notifications.EventLikeCreated, FeedID: in.FeedID, ActorID: in.LikerID})
	}
	return nil
}

func (s *FeedService) DeleteLike(ctx context.Context, in FeedLikeInput) (err error) {
	defer func() { observe("delete_like", err) }()

	if err := requireIDs(in.LikerID, in.FeedID); err != nil {
		return err
	}
	if _, err := s.requireFeed(ctx, in.FeedID); err != nil {
		return err
	}
	if _, err := s.requireUser(ctx, in.LikerID); err != nil {
		return err
	}
	like, err := s.likeRepo.Find(ctx, in.FeedID, in.LikerID)
	if err != nil {
		return err
	}
	if like == nil {
		return models.NewContentNotFoundError("Like", in.FeedID)
	}

	if err := s.likeRepo.Delete(ctx, like); err != nil {
		return err
	}
	s.publish(ctx, notifications.FeedEvent{Type: notifications.EventLikeDeleted, FeedID: in.FeedID, ActorID: in.LikerID})
	return nil
}
