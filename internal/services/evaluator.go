package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/Tomas-vilte/MateWatch/internal/logger"
)

// EventContext carries per-event data the conditions can reference beyond
// the PR snapshot itself.
type EventContext struct {
	Trigger models.TriggerType
	Now     time.Time
	Extra   map[string]any
}

// Evaluator decides whether a rule's conditions hold for a PR snapshot.
// Evaluation is total: malformed conditions, type mismatches and unknown
// condition types all evaluate to false instead of failing the rule run.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// EvaluateAll reports whether every condition holds. An empty condition
// list always matches.
func (e *Evaluator) EvaluateAll(ctx context.Context, conditions []models.Condition, pr *models.PullRequest, ectx EventContext) bool {
	for _, cond := range conditions {
		if !e.Evaluate(ctx, cond, pr, ectx) {
			return false
		}
	}
	return true
}

// Evaluate resolves a single condition against the snapshot.
func (e *Evaluator) Evaluate(ctx context.Context, cond models.Condition, pr *models.PullRequest, ectx EventContext) (result bool) {
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Warn("condition evaluation panicked, treating as no match",
				"condition_type", string(cond.Type),
				"panic", fmt.Sprint(r))
			result = false
		}
	}()

	actual := e.extractField(cond, pr, ectx)
	return e.applyOperator(ctx, cond.Operator, actual, cond.Value)
}

// extractField picks the value a condition compares against. Unknown
// condition types resolve Field against the event context and then the
// snapshot, defaulting to the empty string so evaluation stays total.
func (e *Evaluator) extractField(cond models.Condition, pr *models.PullRequest, ectx EventContext) any {
	switch cond.Type {
	case models.ConditionHasLabel, models.ConditionNotHasLabel:
		return pr.LabelNames()
	case models.ConditionStatusIs, models.ConditionStatusNot:
		return pr.State
	case models.ConditionAuthorIs, models.ConditionAuthorNot:
		return pr.User.Login
	case models.ConditionBranchMatches:
		return pr.HeadRef()
	case models.ConditionPlatformIs:
		return pr.Platform
	case models.ConditionRepoIs:
		return pr.BaseFullName()
	case models.ConditionTitleContains:
		return pr.Title
	case models.ConditionBodyContains:
		return pr.Body
	case models.ConditionIsDraft, models.ConditionIsNotDraft:
		// The negation lives in the operator, same as not_has_label.
		return pr.Draft
	case models.ConditionTimeRange:
		now := ectx.Now
		if now.IsZero() {
			now = time.Now()
		}
		return now.Format("15:04:05")
	default:
		if ectx.Extra != nil {
			if v, ok := ectx.Extra[cond.Field]; ok {
				return v
			}
		}
		return snapshotField(pr, cond.Field)
	}
}

// snapshotField resolves a named PR field for conditions that address the
// snapshot directly. Unknown names resolve to the empty string.
func snapshotField(pr *models.PullRequest, field string) any {
	switch field {
	case "number":
		return pr.Number
	case "title":
		return pr.Title
	case "body":
		return pr.Body
	case "state":
		return pr.State
	case "author":
		return pr.User.Login
	case "platform":
		return pr.Platform
	case "repo":
		return pr.BaseFullName()
	case "url":
		return pr.HTMLURL
	case "head":
		return pr.HeadRef()
	case "base":
		return pr.BaseRef()
	case "draft":
		return pr.Draft
	default:
		return ""
	}
}

// applyOperator runs the comparison. Negated condition types carry their
// negation in the operator, not in the type.
func (e *Evaluator) applyOperator(ctx context.Context, op models.Operator, actual, expected any) bool {
	switch op {
	case models.OperatorEquals:
		return stringify(actual) == stringify(expected)
	case models.OperatorNotEquals:
		return stringify(actual) != stringify(expected)
	case models.OperatorContains:
		return contains(actual, expected)
	case models.OperatorNotContains:
		return !contains(actual, expected)
	case models.OperatorIn:
		return within(actual, expected)
	case models.OperatorNotIn:
		return !within(actual, expected)
	case models.OperatorMatches:
		return matches(ctx, actual, expected)
	case models.OperatorNotMatches:
		return !matches(ctx, actual, expected)
	case models.OperatorGreaterThan:
		return ordered(actual, expected, func(c int) bool { return c > 0 })
	case models.OperatorLessThan:
		return ordered(actual, expected, func(c int) bool { return c < 0 })
	case models.OperatorGreaterOrEqual:
		return ordered(actual, expected, func(c int) bool { return c >= 0 })
	case models.OperatorLessOrEqual:
		return ordered(actual, expected, func(c int) bool { return c <= 0 })
	default:
		return false
	}
}

// contains handles both membership in a string slice and substring search.
func contains(actual, expected any) bool {
	needle := stringify(expected)
	switch v := actual.(type) {
	case []string:
		for _, item := range v {
			if item == needle {
				return true
			}
		}
		return false
	case string:
		return strings.Contains(v, needle)
	default:
		return strings.Contains(stringify(actual), needle)
	}
}

// within checks that actual is one of the expected values.
func within(actual, expected any) bool {
	target := stringify(actual)
	switch v := expected.(type) {
	case []any:
		for _, item := range v {
			if stringify(item) == target {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if item == target {
				return true
			}
		}
	}
	return false
}

func matches(ctx context.Context, actual, expected any) bool {
	re, err := regexp.Compile(stringify(expected))
	if err != nil {
		logger.FromContext(ctx).Warn("invalid regex in condition",
			"pattern", stringify(expected),
			"error", err)
		return false
	}
	return re.MatchString(stringify(actual))
}

// ordered compares numerically when both sides parse as numbers and falls
// back to lexicographic order otherwise, which is what clock strings like
// "12:30:00" need.
func ordered(actual, expected any, accept func(int) bool) bool {
	if a, okA := toFloat(actual); okA {
		if b, okB := toFloat(expected); okB {
			switch {
			case a > b:
				return accept(1)
			case a < b:
				return accept(-1)
			default:
				return accept(0)
			}
		}
		return false
	}

	as, aIsString := actual.(string)
	bs, bIsString := expected.(string)
	if !aIsString || !bIsString {
		return false
	}
	return accept(strings.Compare(as, bs))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		// JSON decodes every number as float64; render integers without
		// the trailing ".0" so eq comparisons against ints behave.
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
