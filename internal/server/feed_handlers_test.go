package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"feedhub/internal/models"
	"feedhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) createFeed(t *testing.T, token string, body feedRequest) models.Feed {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/feeds", body, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var feed models.Feed
	decode(t, resp, &feed)
	return feed
}

func TestFeedHandlers_CreateAndGet(t *testing.T) {
	ts := newTestServer(t, "")
	alice := testutil.CreateUser(t, ts.db, "alice")
	token := ts.login(t, alice)

	created := ts.createFeed(t, token, feedRequest{
		Content: "shipping #go and #fiber #go",
		Images:  []string{"https://cdn.example.com/a.png"},
	})
	assert.Equal(t, alice.ID, created.AuthorID)
	assert.Equal(t, "alice", created.Author.Name)
	assert.ElementsMatch(t, []string{"#go", "#fiber"}, created.TagNames())
	require.Len(t, created.Images, 1)

	resp := ts.do(t, http.MethodGet, fmt.Sprintf("/api/feeds/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.Feed
	decode(t, resp, &got)
	assert.Equal(t, created.Content, got.Content)
	assert.False(t, got.IsLiked)
}

func TestFeedHandlers_CreateRejectsEmptyFeed(t *testing.T) {
	ts := newTestServer(t, "")
	alice := testutil.CreateUser(t, ts.db, "alice")

	resp := ts.do(t, http.MethodPost, "/api/feeds", feedRequest{Content: "   "}, ts.login(t, alice))
	requireErrorCode(t, resp, http.StatusBadRequest, models.CodeInvalidInput)

	resp = ts.do(t, http.MethodPost, "/api/feeds",
		feedRequest{Content: strings.Repeat("x", models.FeedContentMaxLength+1)}, ts.login(t, alice))
	requireErrorCode(t, resp, http.StatusBadRequest, models.CodeInvalidInput)
}

func TestFeedHandlers_InvalidIDIsKeyError(t *testing.T) {
	ts := newTestServer(t, "")
	alice := testutil.CreateUser(t, ts.db, "alice")
	token := ts.login(t, alice)

	for _, path := range []string{"/api/feeds/abc", "/api/feeds/0", "/api/feeds/-3"} {
		t.Run(path, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, path, nil, "")
			requireErrorCode(t, resp, http.StatusBadRequest, models.CodeKeyError)
		})
	}

	resp := ts.do(t, http.MethodDelete, "/api/feeds/1/comments/x", nil, token)
	requireErrorCode(t, resp, http.StatusBadRequest, models.CodeKeyError)
}

func TestFeedHandlers_GetMissingFeed(t *testing.T) {
	ts := newTestServer(t, "")

	resp := ts.do(t, http.MethodGet, "/api/feeds/404", nil, "")
	requireErrorCode(t, resp, http.StatusNotFound, models.CodeContentNotFound)
}

func TestFeedHandlers_ListFilters(t *testing.T) {
	ts := newTestServer(t, "")
	alice := testutil.CreateUser(t, ts.db, "alice")
	token := ts.login(t, alice)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first #go", "second #rust", "third about go"} {
		feed := ts.createFeed(t, token, feedRequest{Content: content})
		require.NoError(t, ts.db.Model(&models.Feed{}).Where("id = ?", feed.ID).
			Update("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"recent by default", "", []string{"third about go", "second #rust", "first #go"}},
		{"empty sort is recent", "?sort=", []string{"third about go", "second #rust", "first #go"}},
		{"tag", "?tag=%23go", []string{"first #go"}},
		{"search", "?search=go", []string{"third about go", "first #go"}},
		{"limit", "?limit=1", []string{"third about go"}},
		{"offset", "?limit=1&offset=2", []string{"first #go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, "/api/feeds"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var feeds []models.Feed
			decode(t, resp, &feeds)
			contents := make([]string, 0, len(feeds))
			for _, f := range feeds {
				contents = append(contents, f.Content)
			}
			assert.Equal(t, tt.expected, contents)
		})
	}
}

func TestFeedHandlers_ListRejectsUnknownSort(t *testing.T) {
	ts := newTestServer(t, "")

	resp := ts.do(t, http.MethodGet, "/api/feeds?sort=oldest", nil, "")
	requireErrorCode(t, resp, http.StatusBadRequest, models.CodeInvalidInput)
}

func TestFeedHandlers_UpdateAndDeleteOwnership(t *testing.T) {
	ts := newTestServer(t, "")
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	aliceToken, bobToken := ts.login(t, alice), ts.login(t, bob)

	feed := ts.createFeed(t, aliceToken, feedRequest{Content: "hello #a #b"})
	path := fmt.Sprintf("/api/feeds/%d", feed.ID)

	resp := ts.do(t, http.MethodPut, path, feedRequest{Content: "hijack"}, bobToken)
	requireErrorCode(t, resp, http.StatusForbidden, models.CodeUnauthorized)

	resp = ts.do(t, http.MethodPut, path, feedRequest{Content: "hello #b #c"}, aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Feed
	decode(t, resp, &updated)
	assert.Equal(t, "hello #b #c", updated.Content)
	assert.ElementsMatch(t, []string{"#b", "#c"}, updated.TagNames())

	resp = ts.do(t, http.MethodDelete, path, nil, bobToken)
	requireErrorCode(t, resp, http.StatusForbidden, models.CodeUnauthorized)

	resp = ts.do(t, http.MethodDelete, path, nil, aliceToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, path, nil, "")
	requireErrorCode(t, resp, http.StatusNotFound, models.CodeContentNotFound)
}

func TestLikeHandlers(t *testing.T) {
	ts := newTestServer(t, "")
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	bobToken := ts.login(t, bob)

	feed := ts.createFeed(t, ts.login(t, alice), feedRequest{Content: "like me"})
	likes := fmt.Sprintf("/api/feeds/%d/likes", feed.ID)

	// A repeated like succeeds without a second row.
	for i := 0; i < 2; i++ {
		resp := ts.do(t, http.MethodPost, likes, nil, bobToken)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := ts.do(t, http.MethodGet, fmt.Sprintf("/api/feeds/%d", feed.ID), nil, bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var liked models.Feed
	decode(t, resp, &liked)
	assert.Equal(t, 1, liked.LikesCount)
	assert.True(t, liked.IsLiked)

	resp = ts.do(t, http.MethodDelete, likes, nil, bobToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, likes, nil, bobToken)
	requireErrorCode(t, resp, http.StatusNotFound, models.CodeContentNotFound)

	resp = ts.do(t, http.MethodPost, "/api/feeds/999/likes", nil, bobToken)
	requireErrorCode(t, resp, http.StatusNotFound, models.CodeContentNotFound)
}

func TestCommentHandlers(t *testing.T) {
	ts := newTestServer(t, "")
	alice := testutil.CreateUser(t, ts.db, "alice")
	bob := testutil.CreateUser(t, ts.db, "bob")
	aliceToken, bobToken := ts.login(t, alice), ts.login(t, bob)

	feed := ts.createFeed(t, aliceToken, feedRequest{Content: "discuss"})
	comments := fmt.Sprintf("/api/feeds/%d/comments", feed.ID)

	resp := ts.do(t, http.MethodPost, comments, commentRequest{Content: "first!"}, bobToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.FeedComment
	decode(t, resp, &comment)
	assert.Equal(t, bob.ID, comment.CommenterID)

	resp = ts.do(t, http.MethodPost, comments, commentRequest{Content: ""}, bobToken)
	requireErrorCode(t, resp, http.StatusBadRequest, models.CodeValidationError)

	one := fmt.Sprintf("%s/%d", comments, comment.ID)
	resp = ts.do(t, http.MethodPut, one, commentRequest{Content: "edited"}, aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var edited models.FeedComment
	decode(t, resp, &edited)
	assert.Equal(t, "edited", edited.Content)

	resp = ts.do(t, http.MethodGet, comments, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []models.FeedComment
	decode(t, resp, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "edited", listed[0].Content)
	assert.Equal(t, "bob", listed[0].Commenter.Name)

	other := ts.createFeed(t, aliceToken, feedRequest{Content: "elsewhere"})
	wrongFeed := fmt.Sprintf("/api/feeds/%d/comments/%d", other.ID, comment.ID)
	resp = ts.do(t, http.MethodPut, wrongFeed, commentRequest{Content: "hijack"}, aliceToken)
	requireErrorCode(t, resp, http.StatusNotFound, models.CodeContentNotFound)
	resp = ts.do(t, http.MethodDelete, wrongFeed, nil, aliceToken)
	requireErrorCode(t, resp, http.StatusNotFound, models.CodeContentNotFound)

	resp = ts.do(t, http.MethodDelete, one, nil, bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, one, nil, bobToken)
	requireErrorCode(t, resp, http.StatusNotFound, models.CodeContentNotFound)
}
