package service

import (
	"regexp"

	"feedhub/internal/models"
)

var hashtagRegex = regexp.MustCompile(`#\w+`)

// ExtractTags returns the hashtags in content, leading '#' included, in
// first-seen order without duplicates.
func ExtractTags(content string) []string {
	matches := hashtagRegex.FindAllString(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		tags = append(tags, m)
	}
	return tags
}

// TagDiff is the result of comparing a feed's attached tags with the tags of
// its new content.
type TagDiff struct {
	// Kept are previous rows still present, unchanged.
	Kept []models.FeedTag
	// Added are candidate strings with no previous row, in candidate order.
	Added []string
	// Dropped are previous rows no longer present.
	Dropped []models.FeedTag
}

// DiffTags partitions previous and candidates into kept, added and dropped.
func DiffTags(previous []models.FeedTag, candidates []string) TagDiff {
	wanted := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		wanted[c] = struct{}{}
	}

	var diff TagDiff
	have := make(map[string]struct{}, len(previous))
	for _, ft := range previous {
		if _, ok := wanted[ft.Tag.Name]; ok {
			diff.Kept = append(diff.Kept, ft)
			have[ft.Tag.Name] = struct{}{}
		} else {
			diff.Dropped = append(diff.Dropped, ft)
		}
	}
	for _, c := range candidates {
		if _, ok := have[c]; ok {
			continue
		}
		have[c] = struct{}{}
		diff.Added = append(diff.Added, c)
	}
	return diff
}

// Attach returns the new tag set: the kept rows followed by one new row per
// added string. Added strings reuse a matching row from existing; others get
// a new Tag with a zero ID.
func (d TagDiff) Attach(existing []models.Tag) []models.FeedTag {
	byName := make(map[string]models.Tag, len(existing))
	for _, t := range existing {
		byName[t.Name] = t
	}

	out := make([]models.FeedTag, 0, len(d.Kept)+len(d.Added))
	out = append(out, d.Kept...)
	for _, name := range d.Added {
		tag, ok := byName[name]
		if !ok {
			tag = models.Tag{Name: name}
		}
		out = append(out, models.FeedTag{TagID: tag.ID, Tag: tag})
	}
	return out
}
