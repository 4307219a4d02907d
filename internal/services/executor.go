package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/Tomas-vilte/MateWatch/internal/logger"
)

const defaultRetryInterval = 60 * time.Second

// prMutator defines the platform mutations the executor needs from the fetcher.
type prMutator interface {
	AddComment(ctx context.Context, ref models.PRRef, body string) error
	AddLabels(ctx context.Context, ref models.PRRef, labels []string) error
	RemoveLabel(ctx context.Context, ref models.PRRef, label string) error
	ClosePR(ctx context.Context, ref models.PRRef) error
}

// ActionExecutor runs a rule's actions against a PR snapshot. Every action
// reports success or failure; an unsupported action type is a clean failure,
// never a panic.
type ActionExecutor struct {
	mutator    prMutator
	httpClient *http.Client
}

type ExecutorOption func(*ActionExecutor)

func WithMutator(m prMutator) ExecutorOption {
	return func(e *ActionExecutor) {
		e.mutator = m
	}
}

func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *ActionExecutor) {
		e.httpClient = c
	}
}

func NewActionExecutor(opts ...ExecutorOption) *ActionExecutor {
	e := &ActionExecutor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one action with its configured delay and retries. A failed
// attempt is retried up to RetryCount times, sleeping RetryInterval between
// attempts.
func (e *ActionExecutor) Execute(ctx context.Context, action models.Action, pr *models.PullRequest) bool {
	log := logger.FromContext(ctx)

	if action.Delay > 0 {
		log.Info("delaying action",
			"action_type", string(action.Type),
			"delay_seconds", action.Delay)
		if !sleepCtx(ctx, time.Duration(action.Delay)*time.Second) {
			return false
		}
	}

	success := e.dispatch(ctx, action, pr)

	if !success && action.RetryCount > 0 {
		interval := time.Duration(action.RetryInterval) * time.Second
		if interval <= 0 {
			interval = defaultRetryInterval
		}
		for retry := 1; retry <= action.RetryCount; retry++ {
			log.Info("retrying action",
				"action_type", string(action.Type),
				"attempt", retry)
			if !sleepCtx(ctx, interval) {
				return false
			}
			success = e.dispatch(ctx, action, pr)
			if success {
				break
			}
		}
	}

	return success
}

func (e *ActionExecutor) dispatch(ctx context.Context, action models.Action, pr *models.PullRequest) (result bool) {
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("action panicked",
				"action_type", string(action.Type),
				"panic", fmt.Sprint(r))
			result = false
		}
	}()

	switch action.Type {
	case models.ActionComment:
		return e.executeComment(ctx, action, pr)
	case models.ActionAddLabel:
		return e.executeAddLabel(ctx, action, pr)
	case models.ActionRemoveLabel:
		return e.executeRemoveLabel(ctx, action, pr)
	case models.ActionClosePR:
		return e.executeClosePR(ctx, pr)
	case models.ActionWebhook:
		return e.executeWebhook(ctx, action, pr)
	case models.ActionLog:
		return e.executeLog(ctx, action, pr)
	default:
		log.Warn("unsupported action type",
			"action_type", string(action.Type))
		return false
	}
}

func (e *ActionExecutor) executeComment(ctx context.Context, action models.Action, pr *models.PullRequest) bool {
	log := logger.FromContext(ctx)

	message := stringParam(action.Parameters, "message")
	if message == "" {
		log.Error("comment action requires a message")
		return false
	}
	message = expandTemplate(message, pr)

	if err := e.mutator.AddComment(ctx, pr.Ref(), message); err != nil {
		log.Error("failed to add comment",
			"error", err,
			"pr", pr.CacheKey())
		return false
	}

	log.Info("comment added",
		"pr", pr.CacheKey())
	return true
}

func (e *ActionExecutor) executeAddLabel(ctx context.Context, action models.Action, pr *models.PullRequest) bool {
	log := logger.FromContext(ctx)

	labels := stringSliceParam(action.Parameters, "labels")
	if len(labels) == 0 {
		log.Error("add_label action requires labels")
		return false
	}

	if err := e.mutator.AddLabels(ctx, pr.Ref(), labels); err != nil {
		log.Error("failed to add labels",
			"error", err,
			"pr", pr.CacheKey())
		return false
	}

	log.Info("labels added",
		"pr", pr.CacheKey(),
		"labels", labels)
	return true
}

func (e *ActionExecutor) executeRemoveLabel(ctx context.Context, action models.Action, pr *models.PullRequest) bool {
	log := logger.FromContext(ctx)

	labels := stringSliceParam(action.Parameters, "labels")
	if len(labels) == 0 {
		log.Error("remove_label action requires labels")
		return false
	}

	for _, label := range labels {
		if err := e.mutator.RemoveLabel(ctx, pr.Ref(), label); err != nil {
			log.Error("failed to remove label",
				"error", err,
				"pr", pr.CacheKey(),
				"label", label)
			return false
		}
	}

	log.Info("labels removed",
		"pr", pr.CacheKey(),
		"labels", labels)
	return true
}

func (e *ActionExecutor) executeClosePR(ctx context.Context, pr *models.PullRequest) bool {
	log := logger.FromContext(ctx)

	if err := e.mutator.ClosePR(ctx, pr.Ref()); err != nil {
		log.Error("failed to close PR",
			"error", err,
			"pr", pr.CacheKey())
		return false
	}

	log.Info("PR closed",
		"pr", pr.CacheKey())
	return true
}

// executeWebhook calls an external HTTP endpoint. The payload goes through
// template expansion as JSON text; GET requests send it as query parameters
// instead of a body.
func (e *ActionExecutor) executeWebhook(ctx context.Context, action models.Action, pr *models.PullRequest) bool {
	log := logger.FromContext(ctx)

	webhookURL := stringParam(action.Parameters, "url")
	if webhookURL == "" {
		log.Error("webhook action requires a url")
		return false
	}

	method := strings.ToUpper(stringParam(action.Parameters, "method"))
	if method == "" {
		method = http.MethodPost
	}

	payload := map[string]any{}
	if raw, ok := action.Parameters["payload"].(map[string]any); ok {
		data, err := json.Marshal(raw)
		if err != nil {
			log.Error("failed to serialize webhook payload", "error", err)
			return false
		}
		expanded := expandTemplate(string(data), pr)
		if err := json.Unmarshal([]byte(expanded), &payload); err != nil {
			log.Error("webhook payload invalid after template expansion", "error", err)
			return false
		}
	}

	var req *http.Request
	var err error
	if method == http.MethodGet {
		query := url.Values{}
		for k, v := range payload {
			query.Set(k, fmt.Sprint(v))
		}
		target := webhookURL
		if len(query) > 0 {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + query.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	} else {
		data, merr := json.Marshal(payload)
		if merr != nil {
			log.Error("failed to serialize webhook payload", "error", merr)
			return false
		}
		req, err = http.NewRequestWithContext(ctx, method, webhookURL, bytes.NewReader(data))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		log.Error("failed to build webhook request", "error", err)
		return false
	}

	if headers, ok := action.Parameters["headers"].(map[string]any); ok {
		for k, v := range headers {
			req.Header.Set(k, fmt.Sprint(v))
		}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		log.Error("webhook call failed",
			"error", err,
			"url", webhookURL)
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error("webhook returned non-success status",
			"url", webhookURL,
			"status", resp.StatusCode)
		return false
	}

	log.Info("webhook called",
		"method", method,
		"url", webhookURL,
		"status", resp.StatusCode)
	return true
}

func (e *ActionExecutor) executeLog(ctx context.Context, action models.Action, pr *models.PullRequest) bool {
	log := logger.FromContext(ctx)

	message := expandTemplate(stringParam(action.Parameters, "message"), pr)
	level := strings.ToUpper(stringParam(action.Parameters, "level"))

	switch level {
	case "DEBUG":
		log.Debug(message, "pr", pr.CacheKey())
	case "WARNING", "WARN":
		log.Warn(message, "pr", pr.CacheKey())
	case "ERROR":
		log.Error(message, "pr", pr.CacheKey())
	default:
		log.Info(message, "pr", pr.CacheKey())
	}
	return true
}

// expandTemplate substitutes the {{...}} placeholders a rule author can use
// in comment messages, log lines and webhook payloads.
func expandTemplate(text string, pr *models.PullRequest) string {
	if pr == nil {
		return text
	}

	replacements := map[string]string{
		"{{pr.number}}":      strconv.Itoa(pr.Number),
		"{{pr.title}}":       pr.Title,
		"{{pr.author}}":      pr.User.Login,
		"{{pr.state}}":       pr.State,
		"{{pr.url}}":         pr.HTMLURL,
		"{{repo.full_name}}": pr.BaseFullName(),
		"{{repo.name}}":      pr.Repo,
		"{{repo.owner}}":     pr.Owner,
		"{{branch.head}}":    pr.HeadRef(),
		"{{branch.base}}":    pr.BaseRef(),
		"{{platform}}":       pr.Platform,
		"{{timestamp}}":      time.Now().Format(time.RFC3339),
	}

	for placeholder, value := range replacements {
		text = strings.ReplaceAll(text, placeholder, value)
	}
	return text
}

func stringParam(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceParam(params map[string]any, key string) []string {
	if params == nil {
		return nil
	}
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		labels := make([]string, 0, len(v))
		for _, item := range v {
			labels = append(labels, fmt.Sprint(item))
		}
		return labels
	default:
		return nil
	}
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
