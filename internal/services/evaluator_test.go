package services

import (
	"context"
	"testing"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluatorPR() *models.PullRequest {
	return &models.PullRequest{
		Number: 10,
		Title:  "fix: resolve login timeout",
		Body:   "closes the session bug",
		State:  models.StateOpen,
		Draft:  false,
		User:   models.User{Login: "alice"},
		Head:   &models.Branch{Ref: "feature/login-fix"},
		Base: &models.Branch{
			Ref:  "main",
			Repo: &models.Repository{FullName: "foo/bar"},
		},
		Labels: []models.Label{
			{Name: "bug"},
			{Name: "pipeline-failed"},
		},
		Platform: "gitee",
		Owner:    "foo",
		Repo:     "bar",
	}
}

func TestEvaluateConditions(t *testing.T) {
	evaluator := NewEvaluator()
	ctx := context.Background()
	pr := evaluatorPR()

	tests := []struct {
		name      string
		condition models.Condition
		expected  bool
	}{
		{
			name: "has_label contains matches",
			condition: models.Condition{
				Type:     models.ConditionHasLabel,
				Operator: models.OperatorContains,
				Value:    "pipeline-failed",
			},
			expected: true,
		},
		{
			name: "not_has_label uses not_contains",
			condition: models.Condition{
				Type:     models.ConditionNotHasLabel,
				Operator: models.OperatorNotContains,
				Value:    "wip",
			},
			expected: true,
		},
		{
			name: "status_is equals",
			condition: models.Condition{
				Type:     models.ConditionStatusIs,
				Operator: models.OperatorEquals,
				Value:    "open",
			},
			expected: true,
		},
		{
			name: "status_not not_equals",
			condition: models.Condition{
				Type:     models.ConditionStatusNot,
				Operator: models.OperatorNotEquals,
				Value:    "merged",
			},
			expected: true,
		},
		{
			name: "author_is mismatch",
			condition: models.Condition{
				Type:     models.ConditionAuthorIs,
				Operator: models.OperatorEquals,
				Value:    "bob",
			},
			expected: false,
		},
		{
			name: "author in list",
			condition: models.Condition{
				Type:     models.ConditionAuthorIs,
				Operator: models.OperatorIn,
				Value:    []any{"alice", "carol"},
			},
			expected: true,
		},
		{
			name: "branch matches regex",
			condition: models.Condition{
				Type:     models.ConditionBranchMatches,
				Operator: models.OperatorMatches,
				Value:    `^feature/.+`,
			},
			expected: true,
		},
		{
			name: "invalid regex never matches",
			condition: models.Condition{
				Type:     models.ConditionBranchMatches,
				Operator: models.OperatorMatches,
				Value:    `[unclosed`,
			},
			expected: false,
		},
		{
			name: "platform_is",
			condition: models.Condition{
				Type:     models.ConditionPlatformIs,
				Operator: models.OperatorEquals,
				Value:    "gitee",
			},
			expected: true,
		},
		{
			name: "repo_is",
			condition: models.Condition{
				Type:     models.ConditionRepoIs,
				Operator: models.OperatorEquals,
				Value:    "foo/bar",
			},
			expected: true,
		},
		{
			name: "title_contains",
			condition: models.Condition{
				Type:     models.ConditionTitleContains,
				Operator: models.OperatorContains,
				Value:    "timeout",
			},
			expected: true,
		},
		{
			name: "body_contains miss",
			condition: models.Condition{
				Type:     models.ConditionBodyContains,
				Operator: models.OperatorContains,
				Value:    "breaking",
			},
			expected: false,
		},
		{
			name: "is_not_draft negates via the operator",
			condition: models.Condition{
				Type:     models.ConditionIsNotDraft,
				Operator: models.OperatorNotEquals,
				Value:    true,
			},
			expected: true,
		},
		{
			name: "unknown type compares the empty default",
			condition: models.Condition{
				Type:     models.ConditionType("full_moon"),
				Operator: models.OperatorEquals,
				Value:    "yes",
			},
			expected: false,
		},
		{
			name: "missing field resolves to the empty string",
			condition: models.Condition{
				Type:     models.ConditionType("custom"),
				Field:    "not_present",
				Operator: models.OperatorEquals,
				Value:    "",
			},
			expected: true,
		},
		{
			name: "field lookup falls back to the snapshot",
			condition: models.Condition{
				Type:     models.ConditionType("custom"),
				Field:    "title",
				Operator: models.OperatorContains,
				Value:    "login",
			},
			expected: true,
		},
		{
			name: "unknown operator is false",
			condition: models.Condition{
				Type:     models.ConditionStatusIs,
				Operator: models.Operator("sorta"),
				Value:    "open",
			},
			expected: false,
		},
		{
			name: "numeric comparison with type mismatch is false",
			condition: models.Condition{
				Type:     models.ConditionStatusIs,
				Operator: models.OperatorGreaterThan,
				Value:    5,
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := evaluator.Evaluate(ctx, tt.condition, pr, EventContext{})
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEvaluateTimeRange(t *testing.T) {
	evaluator := NewEvaluator()
	ctx := context.Background()
	pr := evaluatorPR()

	noon, err := time.Parse(time.RFC3339, "2024-05-01T12:00:00Z")
	require.NoError(t, err)

	condition := models.Condition{
		Type:     models.ConditionTimeRange,
		Operator: models.OperatorGreaterOrEqual,
		Value:    "09:00:00",
	}

	assert.True(t, evaluator.Evaluate(ctx, condition, pr, EventContext{Now: noon}))

	early, err := time.Parse(time.RFC3339, "2024-05-01T06:00:00Z")
	require.NoError(t, err)
	assert.False(t, evaluator.Evaluate(ctx, condition, pr, EventContext{Now: early}))
}

func TestEvaluateExtraContextField(t *testing.T) {
	evaluator := NewEvaluator()
	ctx := context.Background()
	pr := evaluatorPR()

	condition := models.Condition{
		Type:     models.ConditionType("custom"),
		Field:    "labels_added",
		Operator: models.OperatorContains,
		Value:    "urgent",
	}

	ectx := EventContext{
		Extra: map[string]any{"labels_added": []string{"urgent"}},
	}
	assert.True(t, evaluator.Evaluate(ctx, condition, pr, ectx))
	assert.False(t, evaluator.Evaluate(ctx, condition, pr, EventContext{}))
}

func TestEvaluateAllRequiresEveryCondition(t *testing.T) {
	evaluator := NewEvaluator()
	ctx := context.Background()
	pr := evaluatorPR()

	conditions := []models.Condition{
		{Type: models.ConditionStatusIs, Operator: models.OperatorEquals, Value: "open"},
		{Type: models.ConditionAuthorIs, Operator: models.OperatorEquals, Value: "bob"},
	}

	assert.False(t, evaluator.EvaluateAll(ctx, conditions, pr, EventContext{}))
	assert.True(t, evaluator.EvaluateAll(ctx, nil, pr, EventContext{}))
}

func TestEvaluateNumericComparisons(t *testing.T) {
	evaluator := NewEvaluator()
	ctx := context.Background()
	pr := evaluatorPR()

	condition := models.Condition{
		Type:     models.ConditionType("custom"),
		Field:    "poll_count",
		Operator: models.OperatorGreaterThan,
		Value:    3,
	}

	ectx := EventContext{Extra: map[string]any{"poll_count": 5}}
	assert.True(t, evaluator.Evaluate(ctx, condition, pr, ectx))

	ectx = EventContext{Extra: map[string]any{"poll_count": 2}}
	assert.False(t, evaluator.Evaluate(ctx, condition, pr, ectx))
}
