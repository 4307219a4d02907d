package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func executorPR() *models.PullRequest {
	return &models.PullRequest{
		Number:  21,
		Title:   "add retries",
		State:   models.StateOpen,
		User:    models.User{Login: "alice"},
		HTMLURL: "https://gitee.com/foo/bar/pulls/21",
		Head:    &models.Branch{Ref: "feature/retries"},
		Base: &models.Branch{
			Ref:  "main",
			Repo: &models.Repository{FullName: "foo/bar"},
		},
		Platform: "gitee",
		Owner:    "foo",
		Repo:     "bar",
	}
}

func TestExecuteCommentExpandsTemplate(t *testing.T) {
	// Arrange
	mutator := new(MockMutator)
	mutator.On("AddComment", mock.Anything, mock.Anything, "PR #21 by alice on gitee").Return(nil)

	executor := NewActionExecutor(WithMutator(mutator))
	action := models.Action{
		Type: models.ActionComment,
		Parameters: map[string]any{
			"message": "PR #{{pr.number}} by {{pr.author}} on {{platform}}",
		},
	}

	// Act
	ok := executor.Execute(context.Background(), action, executorPR())

	// Assert
	assert.True(t, ok)
	mutator.AssertExpectations(t)
}

func TestExecuteCommentWithoutMessageFails(t *testing.T) {
	mutator := new(MockMutator)
	executor := NewActionExecutor(WithMutator(mutator))

	ok := executor.Execute(context.Background(), models.Action{
		Type:       models.ActionComment,
		Parameters: map[string]any{},
	}, executorPR())

	assert.False(t, ok)
	mutator.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	// Arrange: two failures, then success.
	mutator := new(MockMutator)
	mutator.On("AddComment", mock.Anything, mock.Anything, "/retest").
		Return(errors.New("boom")).Twice()
	mutator.On("AddComment", mock.Anything, mock.Anything, "/retest").
		Return(nil).Once()

	executor := NewActionExecutor(WithMutator(mutator))
	action := models.Action{
		Type:          models.ActionComment,
		Parameters:    map[string]any{"message": "/retest"},
		RetryCount:    2,
		RetryInterval: 1,
	}

	// Act
	ok := executor.Execute(context.Background(), action, executorPR())

	// Assert
	assert.True(t, ok)
	mutator.AssertNumberOfCalls(t, "AddComment", 3)
}

func TestExecuteRetriesExhausted(t *testing.T) {
	mutator := new(MockMutator)
	mutator.On("AddComment", mock.Anything, mock.Anything, "/retest").Return(errors.New("boom"))

	executor := NewActionExecutor(WithMutator(mutator))
	action := models.Action{
		Type:          models.ActionComment,
		Parameters:    map[string]any{"message": "/retest"},
		RetryCount:    1,
		RetryInterval: 1,
	}

	ok := executor.Execute(context.Background(), action, executorPR())

	assert.False(t, ok)
	mutator.AssertNumberOfCalls(t, "AddComment", 2)
}

func TestExecuteDelayRespectsContext(t *testing.T) {
	mutator := new(MockMutator)
	executor := NewActionExecutor(WithMutator(mutator))
	action := models.Action{
		Type:       models.ActionComment,
		Parameters: map[string]any{"message": "hi"},
		Delay:      5,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	ok := executor.Execute(ctx, action, executorPR())

	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second, "a cancelled delay should return early")
	mutator.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteAddAndRemoveLabels(t *testing.T) {
	mutator := new(MockMutator)
	mutator.On("AddLabels", mock.Anything, mock.Anything, []string{"urgent", "review"}).Return(nil)
	mutator.On("RemoveLabel", mock.Anything, mock.Anything, "stale").Return(nil)

	executor := NewActionExecutor(WithMutator(mutator))
	pr := executorPR()

	okAdd := executor.Execute(context.Background(), models.Action{
		Type:       models.ActionAddLabel,
		Parameters: map[string]any{"labels": []any{"urgent", "review"}},
	}, pr)
	okRemove := executor.Execute(context.Background(), models.Action{
		Type:       models.ActionRemoveLabel,
		Parameters: map[string]any{"labels": []string{"stale"}},
	}, pr)

	assert.True(t, okAdd)
	assert.True(t, okRemove)
	mutator.AssertExpectations(t)
}

func TestExecuteClosePR(t *testing.T) {
	mutator := new(MockMutator)
	mutator.On("ClosePR", mock.Anything, executorPR().Ref()).Return(nil)

	executor := NewActionExecutor(WithMutator(mutator))

	ok := executor.Execute(context.Background(), models.Action{Type: models.ActionClosePR}, executorPR())

	assert.True(t, ok)
	mutator.AssertExpectations(t)
}

func TestExecuteWebhookPostsExpandedPayload(t *testing.T) {
	// Arrange
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	executor := NewActionExecutor(WithMutator(new(MockMutator)))
	action := models.Action{
		Type: models.ActionWebhook,
		Parameters: map[string]any{
			"url": server.URL,
			"payload": map[string]any{
				"pr":   "{{pr.number}}",
				"repo": "{{repo.full_name}}",
			},
		},
	}

	// Act
	ok := executor.Execute(context.Background(), action, executorPR())

	// Assert
	assert.True(t, ok)
	assert.Equal(t, "21", received["pr"])
	assert.Equal(t, "foo/bar", received["repo"])
}

func TestExecuteWebhookGetSendsQueryParams(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		query = r.URL.Query().Get("pr")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	executor := NewActionExecutor(WithMutator(new(MockMutator)))
	action := models.Action{
		Type: models.ActionWebhook,
		Parameters: map[string]any{
			"url":     server.URL,
			"method":  "GET",
			"payload": map[string]any{"pr": "{{pr.number}}"},
		},
	}

	ok := executor.Execute(context.Background(), action, executorPR())

	assert.True(t, ok)
	assert.Equal(t, "21", query)
}

func TestExecuteWebhookNonSuccessStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	executor := NewActionExecutor(WithMutator(new(MockMutator)))
	action := models.Action{
		Type:       models.ActionWebhook,
		Parameters: map[string]any{"url": server.URL},
	}

	ok := executor.Execute(context.Background(), action, executorPR())

	assert.False(t, ok)
}

func TestExecuteWebhookWithoutURLFails(t *testing.T) {
	executor := NewActionExecutor(WithMutator(new(MockMutator)))

	ok := executor.Execute(context.Background(), models.Action{
		Type:       models.ActionWebhook,
		Parameters: map[string]any{},
	}, executorPR())

	assert.False(t, ok)
}

func TestExecuteLogAlwaysSucceeds(t *testing.T) {
	executor := NewActionExecutor(WithMutator(new(MockMutator)))

	ok := executor.Execute(context.Background(), models.Action{
		Type: models.ActionLog,
		Parameters: map[string]any{
			"message": "PR {{pr.number}} checked",
			"level":   "warning",
		},
	}, executorPR())

	assert.True(t, ok)
}

func TestExecuteUnsupportedActionFailsCleanly(t *testing.T) {
	executor := NewActionExecutor(WithMutator(new(MockMutator)))

	ok := executor.Execute(context.Background(), models.Action{
		Type: models.ActionType("send_fax"),
	}, executorPR())

	assert.False(t, ok)
}

func TestExpandTemplateVariables(t *testing.T) {
	pr := executorPR()

	out := expandTemplate("{{pr.title}} ({{branch.head}} -> {{branch.base}}) at {{repo.owner}}/{{repo.name}}", pr)

	assert.Equal(t, "add retries (feature/retries -> main) at foo/bar", out)
}
