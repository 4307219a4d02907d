package gitee

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prPayload = `{
	"id": 100,
	"number": 7,
	"title": "mejorar el parser",
	"state": "open",
	"user": {"id": 1, "login": "alice"},
	"head": {"ref": "feature/parser", "sha": "abc"},
	"base": {
		"ref": "master",
		"sha": "def",
		"repo": {
			"id": 55,
			"name": "bar",
			"full_name": "foo/bar",
			"owner": {"id": 2, "login": "foo"}
		}
	},
	"labels": [{"id": 9, "name": "bug", "color": "d73a4a"}],
	"html_url": "https://gitee.com/foo/bar/pulls/7"
}`

func TestGetPRDetails(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/foo/bar/pulls/7", r.URL.Path)
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(prPayload))
	}))
	defer server.Close()

	client := NewGiteeClient("secret", server.URL)

	// Act
	pr, err := client.GetPRDetails(context.Background(), "foo", "bar", 7)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, "alice", pr.User.Login)
	assert.Equal(t, "gitee", pr.Platform)
	assert.Equal(t, "foo", pr.Owner)
	assert.Equal(t, "bar", pr.Repo)
	assert.Equal(t, "gitee:foo/bar#7", pr.CacheKey())
	require.Len(t, pr.Labels, 1)
	assert.Equal(t, "bug", pr.Labels[0].Name)
}

func TestGetPRDetailsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	client := NewGiteeClient("", server.URL)

	_, err := client.GetPRDetails(context.Background(), "foo", "bar", 99)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGetAuthorPRsFiltersClientSide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		assert.Equal(t, "created", r.URL.Query().Get("sort"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"number": 1, "state": "open", "user": {"login": "alice"}},
			{"number": 2, "state": "open", "user": {"login": "bob"}},
			{"number": 3, "state": "open", "user": {"login": "ALICE"}}
		]`))
	}))
	defer server.Close()

	client := NewGiteeClient("", server.URL)

	prs, err := client.GetAuthorPRs(context.Background(), "foo", "bar", "alice", "open", 1, 100)

	require.NoError(t, err)
	require.Len(t, prs, 2, "the author match ignores case")
	assert.Equal(t, 1, prs[0].Number)
	assert.Equal(t, 3, prs[1].Number)
}

func TestAddLabelsPostsNameArray(t *testing.T) {
	var body []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/foo/bar/pulls/7/labels", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1, "name": "urgent"}]`))
	}))
	defer server.Close()

	client := NewGiteeClient("", server.URL)

	labels, err := client.AddLabels(context.Background(), "foo", "bar", 7, []string{"urgent"})

	require.NoError(t, err)
	assert.Equal(t, []string{"urgent"}, body)
	require.Len(t, labels, 1)
	assert.Equal(t, "urgent", labels[0].Name)
}

func TestRemoveLabelEscapesName(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		path = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewGiteeClient("", server.URL)

	err := client.RemoveLabel(context.Background(), "foo", "bar", 7, "needs review")

	require.NoError(t, err)
	assert.Equal(t, "/repos/foo/bar/pulls/7/labels/needs%20review", path)
}

func TestAddComment(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/foo/bar/pulls/7/comments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewGiteeClient("", server.URL)

	err := client.AddComment(context.Background(), "foo", "bar", 7, "/retest")

	require.NoError(t, err)
	assert.Equal(t, "/retest", payload["body"])
}

func TestClosePR(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/repos/foo/bar/pulls/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(prPayload))
	}))
	defer server.Close()

	client := NewGiteeClient("", server.URL)

	err := client.ClosePR(context.Background(), "foo", "bar", 7)

	require.NoError(t, err)
	assert.Equal(t, "closed", payload["state"])
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewGiteeClient("", server.URL)

	_, err := client.GetPRLabels(context.Background(), "foo", "bar", 7)
	require.NoError(t, err)
}
