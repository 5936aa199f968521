package repository

import (
	"fmt"

	"feedhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PredicateKind identifies a feed listing filter.
type PredicateKind int

const (
	// PredicateContentContains matches feeds whose content contains Value.
	PredicateContentContains PredicateKind = iota + 1
	// PredicateHasTag matches feeds with an attached tag equal to Value.
	PredicateHasTag
)

// Predicate is one filter of a FeedQuerySpec. Predicates are ANDed.
type Predicate struct {
	Kind  PredicateKind
	Value string
}

// Ordering sorts by a column of the queried table.
type Ordering struct {
	Column string
	Desc   bool
}

// Relations that can be eager-loaded with a feed.
const (
	RelationAuthor   = "Author"
	RelationImages   = "Images"
	RelationVideo    = "Video"
	RelationLikes    = "Likes.Liker"
	RelationComments = "Comments.Commenter"
	RelationTags     = "FeedTags.Tag"
)

// ListRelations is the eager-load set used for feed listings.
func ListRelations() []string {
	return []string{RelationAuthor, RelationImages, RelationVideo, RelationLikes, RelationComments}
}

// FeedQuerySpec is a storage-independent description of a feed listing.
// An empty Order leaves row order to the store; zero Limit and Offset
// leave the result unpaginated.
type FeedQuerySpec struct {
	Predicates   []Predicate
	Order        []Ordering
	CommentOrder []Ordering
	Limit        int
	Offset       int
	Relations    []string
}

var newestFirst = []Ordering{{Column: "created_at", Desc: true}}

// BuildFeedQuery translates a listing request into a FeedQuerySpec.
// "trending" currently orders the same way as "recent".
func BuildFeedQuery(q models.FeedQuery) (FeedQuerySpec, error) {
	spec := FeedQuerySpec{Relations: ListRelations()}

	switch q.Sort {
	case "":
	case models.FeedSortRecent, models.FeedSortTrending:
		spec.Order = append([]Ordering(nil), newestFirst...)
		spec.CommentOrder = append([]Ordering(nil), newestFirst...)
	default:
		return FeedQuerySpec{}, models.NewInvalidInputError(fmt.Sprintf("unsupported sort %q", q.Sort))
	}

	if q.Search != "" {
		spec.Predicates = append(spec.Predicates, Predicate{Kind: PredicateContentContains, Value: q.Search})
	}
	if q.Tag != "" {
		spec.Predicates = append(spec.Predicates, Predicate{Kind: PredicateHasTag, Value: q.Tag})
	}
	if q.Limit > 0 {
		spec.Limit = q.Limit
	}
	if q.Offset > 0 {
		spec.Offset = q.Offset
	}

	return spec, nil
}

func (s FeedQuerySpec) applyFilters(db *gorm.DB) *gorm.DB {
	for _, p := range s.Predicates {
		switch p.Kind {
		case PredicateContentContains:
			db = db.Where("feeds.content LIKE ?", "%"+p.Value+"%")
		case PredicateHasTag:
			db = db.Where(
				"EXISTS (SELECT 1 FROM feed_tags JOIN tags ON tags.id = feed_tags.tag_id WHERE feed_tags.feed_id = feeds.id AND tags.tag = ?)",
				p.Value,
			)
		}
	}
	return db
}

func applyOrdering(db *gorm.DB, table string, order []Ordering) *gorm.DB {
	for _, o := range order {
		db = db.Order(clause.OrderByColumn{
			Column: clause.Column{Table: table, Name: o.Column},
			Desc:   o.Desc,
		})
	}
	return db
}

func (s FeedQuerySpec) applyPage(db *gorm.DB) *gorm.DB {
	if s.Limit > 0 {
		db = db.Limit(s.Limit)
	}
	if s.Offset > 0 {
		db = db.Offset(s.Offset)
	}
	return db
}

func (s FeedQuerySpec) applyRelations(db *gorm.DB) *gorm.DB {
	for _, rel := range s.Relations {
		if rel == RelationComments && len(s.CommentOrder) > 0 {
			order := s.CommentOrder
			db = db.Preload("Comments", func(tx *gorm.DB) *gorm.DB {
				return applyOrdering(tx, "feed_comments", order)
			})
		}
		db = db.Preload(rel)
	}
	return db
}

// apply narrows, orders, paginates and eager-loads db from s.
func (s FeedQuerySpec) apply(db *gorm.DB) *gorm.DB {
	db = s.applyFilters(db)
	db = applyOrdering(db, "feeds", s.Order)
	db = s.applyPage(db)
	return s.applyRelations(db)
}
