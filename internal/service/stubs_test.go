package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"feedhub/internal/models"
	"feedhub/internal/notifications"
	"feedhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	findByIDFn    func(context.Context, uint) (*models.User, error)
	findByEmailFn func(context.Context, string) (*models.User, error)
	createFn      func(context.Context, *models.User) error
	updateFn      func(context.Context, *models.User) error
}

func (s *userRepoStub) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.findByIDFn(ctx, id)
}
func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		findByIDFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		findByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:      func(context.Context, *models.User) error { return nil },
		updateFn:      func(context.Context, *models.User) error { return nil },
	}
}

// feedRepoStub is a stub for repository.FeedRepository.
type feedRepoStub struct {
	findAllFn               func(context.Context, repository.FeedQuerySpec, uint) ([]*models.Feed, error)
	findAggregatedFn        func(context.Context, repository.FeedQuerySpec, uint) ([]*models.Feed, error)
	findByIDFn              func(context.Context, uint) (*models.Feed, error)
	findWithAuthorAndTagsFn func(context.Context, uint) (*models.Feed, error)
	findWithRelationsFn     func(context.Context, uint) (*models.Feed, error)
	createFn                func(context.Context, *models.Feed) error
	updateFn                func(context.Context, *models.Feed, repository.FeedChanges) error
	deleteFn                func(context.Context, *models.Feed) error
}

func (s *feedRepoStub) BuildQuery(q models.FeedQuery) (repository.FeedQuerySpec, error) {
	return repository.BuildFeedQuery(q)
}
func (s *feedRepoStub) FindAll(ctx context.Context, spec repository.FeedQuerySpec, viewerID uint) ([]*models.Feed, error) {
	return s.findAllFn(ctx, spec, viewerID)
}
func (s *feedRepoStub) FindAggregated(ctx context.Context, spec repository.FeedQuerySpec, viewerID uint) ([]*models.Feed, error) {
	return s.findAggregatedFn(ctx, spec, viewerID)
}
func (s *feedRepoStub) FindByID(ctx context.Context, id uint) (*models.Feed, error) {
	return s.findByIDFn(ctx, id)
}
func (s *feedRepoStub) FindWithAuthorAndTags(ctx context.Context, id uint) (*models.Feed, error) {
	return s.findWithAuthorAndTagsFn(ctx, id)
}
func (s *feedRepoStub) FindWithRelations(ctx context.Context, id uint) (*models.Feed, error) {
	return s.findWithRelationsFn(ctx, id)
}
func (s *feedRepoStub) Create(ctx context.Context, feed *models.Feed) error {
	return s.createFn(ctx, feed)
}
func (s *feedRepoStub) Update(ctx context.Context, feed *models.Feed, changes repository.FeedChanges) error {
	return s.updateFn(ctx, feed, changes)
}
func (s *feedRepoStub) Delete(ctx context.Context, feed *models.Feed) error {
	return s.deleteFn(ctx, feed)
}

// noopFeedRepo returns a repository in which every feed exists and belongs to user 1.
func noopFeedRepo() *feedRepoStub {
	owned := func(_ context.Context, id uint) (*models.Feed, error) {
		return &models.Feed{ID: id, AuthorID: 1}, nil
	}
	return &feedRepoStub{
		findAllFn:               func(context.Context, repository.FeedQuerySpec, uint) ([]*models.Feed, error) { return nil, nil },
		findAggregatedFn:        func(context.Context, repository.FeedQuerySpec, uint) ([]*models.Feed, error) { return nil, nil },
		findByIDFn:              owned,
		findWithAuthorAndTagsFn: owned,
		findWithRelationsFn:     owned,
		createFn: func(_ context.Context, f *models.Feed) error {
			f.ID = 100
			return nil
		},
		updateFn: func(context.Context, *models.Feed, repository.FeedChanges) error { return nil },
		deleteFn: func(context.Context, *models.Feed) error { return nil },
	}
}

// likeRepoStub is a stub for repository.FeedLikeRepository.
type likeRepoStub struct {
	createFn func(context.Context, *models.FeedLike) (bool, error)
	findFn   func(context.Context, uint, uint) (*models.FeedLike, error)
	deleteFn func(context.Context, *models.FeedLike) error
}

func (s *likeRepoStub) Create(ctx context.Context, like *models.FeedLike) (bool, error) {
	return s.createFn(ctx, like)
}
func (s *likeRepoStub) Find(ctx context.Context, feedID, likerID uint) (*models.FeedLike, error) {
	return s.findFn(ctx, feedID, likerID)
}
func (s *likeRepoStub) Delete(ctx context.Context, like *models.FeedLike) error {
	return s.deleteFn(ctx, like)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		createFn: func(context.Context, *models.FeedLike) (bool, error) { return true, nil },
		findFn: func(_ context.Context, feedID, likerID uint) (*models.FeedLike, error) {
			return &models.FeedLike{ID: 5, FeedID: feedID, LikerID: likerID}, nil
		},
		deleteFn: func(context.Context, *models.FeedLike) error { return nil },
	}
}

// commentRepoStub is a stub for repository.FeedCommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.FeedComment) error
	findByIDFn   func(context.Context, uint) (*models.FeedComment, error)
	listByFeedFn func(context.Context, uint) ([]*models.FeedComment, error)
	updateFn     func(context.Context, *models.FeedComment) error
	deleteFn     func(context.Context, *models.FeedComment) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.FeedComment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) FindByID(ctx context.Context, id uint) (*models.FeedComment, error) {
	return s.findByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByFeed(ctx context.Context, feedID uint) ([]*models.FeedComment, error) {
	return s.listByFeedFn(ctx, feedID)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.FeedComment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, comment *models.FeedComment) error {
	return s.deleteFn(ctx, comment)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.FeedComment) error {
			c.ID = 42
			return nil
		},
		findByIDFn: func(_ context.Context, id uint) (*models.FeedComment, error) {
			return &models.FeedComment{ID: id, FeedID: 1, CommenterID: 1, Content: "stored"}, nil
		},
		listByFeedFn: func(context.Context, uint) ([]*models.FeedComment, error) { return nil, nil },
		updateFn:     func(context.Context, *models.FeedComment) error { return nil },
		deleteFn:     func(context.Context, *models.FeedComment) error { return nil },
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	findByNamesFn func(context.Context, []string) ([]models.Tag, error)
}

func (s *tagRepoStub) FindByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	return s.findByNamesFn(ctx, names)
}

func noopTagRepo() *tagRepoStub {
	return &tagRepoStub{
		findByNamesFn: func(context.Context, []string) ([]models.Tag, error) { return nil, nil },
	}
}

// eventRecorder collects published feed events.
type eventRecorder struct {
	mu     sync.Mutex
	events []notifications.FeedEvent
	err    error
}

func (r *eventRecorder) PublishFeedEvent(_ context.Context, ev notifications.FeedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// assertCode asserts that err is an AppError carrying code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidationError)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeUnauthorized)
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	findByIDFn         func(context.Context, uint) (*models.Profile, error)
	findByUserIDFn     func(context.Context, uint) (*models.Profile, error)
	saveFn             func(context.Context, *models.Profile) error
	listExperiencesFn  func(context.Context, uint) ([]models.ProfileExperience, error)
	findExperienceFn   func(context.Context, uint) (*models.ProfileExperience, error)
	createExperienceFn func(context.Context, *models.ProfileExperience) error
	updateExperienceFn func(context.Context, *models.ProfileExperience) error
	deleteExperienceFn func(context.Context, *models.ProfileExperience) error
	listWebsitesFn     func(context.Context, uint) ([]models.ProfileWebsite, error)
	createWebsiteFn    func(context.Context, *models.ProfileWebsite) error
}

func (s *profileRepoStub) FindByID(ctx context.Context, id uint) (*models.Profile, error) {
	return s.findByIDFn(ctx, id)
}
func (s *profileRepoStub) FindByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.findByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) Save(ctx context.Context, profile *models.Profile) error {
	return s.saveFn(ctx, profile)
}
func (s *profileRepoStub) ListExperiences(ctx context.Context, profileID uint) ([]models.ProfileExperience, error) {
	return s.listExperiencesFn(ctx, profileID)
}
func (s *profileRepoStub) FindExperience(ctx context.Context, id uint) (*models.ProfileExperience, error) {
	return s.findExperienceFn(ctx, id)
}
func (s *profileRepoStub) CreateExperience(ctx context.Context, exp *models.ProfileExperience) error {
	return s.createExperienceFn(ctx, exp)
}
func (s *profileRepoStub) UpdateExperience(ctx context.Context, exp *models.ProfileExperience) error {
	return s.updateExperienceFn(ctx, exp)
}
func (s *profileRepoStub) DeleteExperience(ctx context.Context, exp *models.ProfileExperience) error {
	return s.deleteExperienceFn(ctx, exp)
}
func (s *profileRepoStub) ListWebsites(ctx context.Context, profileID uint) ([]models.ProfileWebsite, error) {
	return s.listWebsitesFn(ctx, profileID)
}
func (s *profileRepoStub) CreateWebsite(ctx context.Context, site *models.ProfileWebsite) error {
	return s.createWebsiteFn(ctx, site)
}

// noopProfileRepo returns a repository in which user N owns profile N and
// experience N belongs to profile N.
func noopProfileRepo() *profileRepoStub {
	byOwner := func(_ context.Context, id uint) (*models.Profile, error) {
		return &models.Profile{ID: id, UserID: id, User: models.User{ID: id, Name: "owner"}}, nil
	}
	return &profileRepoStub{
		findByIDFn:     byOwner,
		findByUserIDFn: byOwner,
		saveFn: func(_ context.Context, p *models.Profile) error {
			if p.ID == 0 {
				p.ID = 77
			}
			return nil
		},
		listExperiencesFn: func(context.Context, uint) ([]models.ProfileExperience, error) { return nil, nil },
		findExperienceFn: func(_ context.Context, id uint) (*models.ProfileExperience, error) {
			return &models.ProfileExperience{ID: id, ProfileID: id}, nil
		},
		createExperienceFn: func(context.Context, *models.ProfileExperience) error { return nil },
		updateExperienceFn: func(context.Context, *models.ProfileExperience) error { return nil },
		deleteExperienceFn: func(context.Context, *models.ProfileExperience) error { return nil },
		listWebsitesFn:     func(context.Context, uint) ([]models.ProfileWebsite, error) { return nil, nil },
		createWebsiteFn:    func(context.Context, *models.ProfileWebsite) error { return nil },
	}
}

// connectionRepoStub is a stub for repository.ConnectionRepository.
type connectionRepoStub struct {
	createFn      func(context.Context, *models.UserConnection) error
	findByIDFn    func(context.Context, uint) (*models.UserConnection, error)
	findBetweenFn func(context.Context, uint, uint) (*models.UserConnection, error)
	listFn        func(context.Context, uint, bool) ([]models.UserConnection, error)
	acceptFn      func(context.Context, uint) error
	deleteFn      func(context.Context, uint) error
}

func (s *connectionRepoStub) Create(ctx context.Context, conn *models.UserConnection) error {
	return s.createFn(ctx, conn)
}
func (s *connectionRepoStub) FindByID(ctx context.Context, id uint) (*models.UserConnection, error) {
	return s.findByIDFn(ctx, id)
}
func (s *connectionRepoStub) FindBetween(ctx context.Context, userID1, userID2 uint) (*models.UserConnection, error) {
	return s.findBetweenFn(ctx, userID1, userID2)
}
func (s *connectionRepoStub) ListForUser(ctx context.Context, userID uint, accepted bool) ([]models.UserConnection, error) {
	return s.listFn(ctx, userID, accepted)
}
func (s *connectionRepoStub) Accept(ctx context.Context, id uint) error {
	return s.acceptFn(ctx, id)
}
func (s *connectionRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

// noopConnectionRepo returns a repository holding one pending request from
// user 1 to user 2 under every id.
func noopConnectionRepo() *connectionRepoStub {
	return &connectionRepoStub{
		createFn: func(_ context.Context, c *models.UserConnection) error {
			c.ID = 30
			return nil
		},
		findByIDFn: func(_ context.Context, id uint) (*models.UserConnection, error) {
			return &models.UserConnection{
				ID:              id,
				UserID:          1,
				ConnectedUserID: 2,
				User:            models.User{ID: 1, Name: "alice"},
				ConnectedUser:   models.User{ID: 2, Name: "bob"},
			}, nil
		},
		findBetweenFn: func(context.Context, uint, uint) (*models.UserConnection, error) { return nil, nil },
		listFn:        func(context.Context, uint, bool) ([]models.UserConnection, error) { return nil, nil },
		acceptFn:      func(context.Context, uint) error { return nil },
		deleteFn:      func(context.Context, uint) error { return nil },
	}
}
