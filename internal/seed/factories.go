package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"feedhub/internal/models"
	"feedhub/internal/repository"
	"feedhub/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "Password123!"

var hashtagPool = []string{
	"#golang", "#backend", "#devops", "#frontend", "#design", "#career",
	"#remote", "#startups", "#opensource", "#databases", "#cloud", "#testing",
	"#music", "#travel", "#books", "#fitness", "#food", "#photography",
}

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	db       *gorm.DB
	opts     Options
	rnd      *rand.Rand
	password string

	users    repository.UserRepository
	profiles repository.ProfileRepository
	feeds    repository.FeedRepository
	likes    repository.FeedLikeRepository
	comments repository.FeedCommentRepository
	conns    repository.ConnectionRepository
}

// NewFactory creates a Factory bound to db. A non-zero opts.RandomSeed makes
// the generated content reproducible.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	password := DefaultPassword
	if !opts.SkipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		password = string(hashed)
	}

	return &Factory{
		db:       db,
		opts:     opts,
		rnd:      rand.New(rand.NewSource(seed)), // #nosec G404: acceptable for seeding
		password: password,
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db),
		feeds:    repository.NewFeedRepository(db),
		likes:    repository.NewFeedLikeRepository(db),
		comments: repository.NewFeedCommentRepository(db),
		conns:    repository.NewConnectionRepository(db),
	}, nil
}

// pastTime returns a random instant within the configured window.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// CreateUser persists a user with a fake name. The email is derived from
// index so repeated runs do not collide.
func (f *Factory) CreateUser(ctx context.Context, index int, overrides ...func(*models.User)) (*models.User, error) {
	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	user := &models.User{
		Name:         first + " " + last,
		Email:        fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), index),
		Password:     f.password,
		ProfileImage: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateProfile persists a profile with a short work history and one website.
func (f *Factory) CreateProfile(ctx context.Context, user *models.User) (*models.Profile, error) {
	profile := &models.Profile{
		UserID:   user.ID,
		Headline: gofakeit.JobTitle() + " at " + gofakeit.Company(),
		About:    gofakeit.Paragraph(1, 2, 12, " "),
		Location: gofakeit.City(),
	}
	if err := f.profiles.Save(ctx, profile); err != nil {
		return nil, err
	}

	start := time.Now().AddDate(-1-f.rnd.Intn(8), -f.rnd.Intn(12), 0)
	jobs := 1 + f.rnd.Intn(3)
	for i := 0; i < jobs; i++ {
		exp := &models.ProfileExperience{
			ProfileID:   profile.ID,
			Title:       gofakeit.JobTitle(),
			Company:     gofakeit.Company(),
			StartDate:   start,
			Description: gofakeit.Sentence(12),
		}
		if i > 0 {
			end := start.AddDate(1+f.rnd.Intn(3), 0, 0)
			exp.StartDate = start.AddDate(-3, 0, 0)
			exp.EndDate = &end
		}
		if err := f.profiles.CreateExperience(ctx, exp); err != nil {
			return nil, err
		}
		start = exp.StartDate
	}

	site := &models.ProfileWebsite{ProfileID: profile.ID, URL: gofakeit.URL(), Label: "Website"}
	if err := f.profiles.CreateWebsite(ctx, site); err != nil {
		return nil, err
	}
	return profile, nil
}

// BuildFeed constructs an unsaved feed with hashtags, and sometimes images or
// a video.
func (f *Factory) BuildFeed(author *models.User) *models.Feed {
	content := gofakeit.Sentence(6 + f.rnd.Intn(12))
	tags := f.rnd.Intn(4)
	for i := 0; i < tags; i++ {
		content += " " + hashtagPool[f.rnd.Intn(len(hashtagPool))]
	}
	if len([]rune(content)) > models.FeedContentMaxLength {
		content = string([]rune(content)[:models.FeedContentMaxLength])
	}

	at := f.pastTime()
	feed := &models.Feed{
		Content:   content,
		AuthorID:  author.ID,
		CreatedAt: at,
		UpdatedAt: at,
	}
	feed.FeedTags = service.DiffTags(nil, service.ExtractTags(content)).Attach(nil)

	switch r := f.rnd.Float32(); {
	case r < 0.35:
		images := 1 + f.rnd.Intn(3)
		for i := 0; i < images; i++ {
			feed.Images = append(feed.Images, models.FeedImage{
				ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
			})
		}
	case r < 0.45:
		feed.Video = &models.FeedVideo{VideoURL: fmt.Sprintf("https://cdn.example.com/videos/%s.mp4", gofakeit.UUID())}
	}
	return feed
}

// CreateFeed persists a feed built by BuildFeed.
func (f *Factory) CreateFeed(ctx context.Context, author *models.User, overrides ...func(*models.Feed)) (*models.Feed, error) {
	feed := f.BuildFeed(author)
	for _, override := range overrides {
		override(feed)
	}
	if err := f.feeds.Create(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// CreateLike reports whether a new like row was written.
func (f *Factory) CreateLike(ctx context.Context, liker *models.User, feed *models.Feed) (bool, error) {
	return f.likes.Create(ctx, &models.FeedLike{FeedID: feed.ID, LikerID: liker.ID})
}

func (f *Factory) CreateComment(ctx context.Context, commenter *models.User, feed *models.Feed) (*models.FeedComment, error) {
	comment := &models.FeedComment{
		FeedID:      feed.ID,
		CommenterID: commenter.ID,
		Content:     gofakeit.Sentence(4 + f.rnd.Intn(10)),
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateConnection persists a request from user to target. It returns nil
// when the pair is already connected in either direction.
func (f *Factory) CreateConnection(ctx context.Context, user, target *models.User, accepted bool) (*models.UserConnection, error) {
	existing, err := f.conns.FindBetween(ctx, user.ID, target.ID)
	if err != nil || existing != nil {
		return nil, err
	}
	conn := &models.UserConnection{
		UserID:          user.ID,
		ConnectedUserID: target.ID,
		IsAccepted:      accepted,
		Message:         gofakeit.Sentence(6),
	}
	if err := f.conns.Create(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}
