package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/domain/errors"
	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/Tomas-vilte/MateWatch/internal/domain/ports"
	"github.com/Tomas-vilte/MateWatch/internal/logger"
)

const (
	historyHighWater = 1000
	historyLowWater  = 800
)

// actionRunner defines what Engine needs from the action executor.
type actionRunner interface {
	Execute(ctx context.Context, action models.Action, pr *models.PullRequest) bool
}

// Engine matches incoming PR events against the configured rules and runs
// the matching ones on a bounded worker pool. Rules persist through the
// store on every mutation and after every execution.
type Engine struct {
	mu        sync.Mutex
	rules     []*models.AutomationRule
	history   []models.ExecutionRecord
	config    models.AutomationConfig
	store     ports.RuleStore
	evaluator *Evaluator
	executor  actionRunner
	workers   chan struct{}
	wg        sync.WaitGroup
}

type EngineOption func(*Engine)

func WithRuleStore(store ports.RuleStore) EngineOption {
	return func(e *Engine) {
		e.store = store
	}
}

func WithExecutor(executor actionRunner) EngineOption {
	return func(e *Engine) {
		e.executor = executor
	}
}

func WithAutomationConfig(cfg models.AutomationConfig) EngineOption {
	return func(e *Engine) {
		e.config = cfg
	}
}

// NewEngine builds the engine and loads rules from the store. An empty
// store gets seeded with the default rules, disabled so nothing fires
// until the user opts in.
func NewEngine(ctx context.Context, opts ...EngineOption) *Engine {
	e := &Engine{
		config:    models.DefaultAutomationConfig(),
		evaluator: NewEvaluator(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.config.MaxParallelExecutions <= 0 {
		e.config.MaxParallelExecutions = 1
	}
	e.workers = make(chan struct{}, e.config.MaxParallelExecutions)

	e.loadRules(ctx)
	return e
}

func (e *Engine) loadRules(ctx context.Context) {
	log := logger.FromContext(ctx)

	stored := e.store.AutomationRules()
	if len(stored) == 0 {
		log.Info("no automation rules configured, seeding defaults")
		e.rules = defaultRules()
		e.persist(ctx)
		return
	}

	e.rules = make([]*models.AutomationRule, 0, len(stored))
	for i := range stored {
		rule := stored[i]
		e.rules = append(e.rules, &rule)
	}
	log.Info("automation rules loaded",
		"count", len(e.rules))
}

// ProcessEvent runs every enabled rule that matches the event. Matching
// rules execute asynchronously; the returned slice lists their IDs in
// dispatch order, highest priority first.
func (e *Engine) ProcessEvent(ctx context.Context, trigger models.TriggerType, pr *models.PullRequest, ectx EventContext) []string {
	if !e.config.Enabled {
		return nil
	}
	ectx.Trigger = trigger

	e.mu.Lock()
	enabled := make([]*models.AutomationRule, 0, len(e.rules))
	for _, rule := range e.rules {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}
	e.mu.Unlock()

	// Stable sort keeps insertion order among rules with equal priority.
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority > enabled[j].Priority
	})

	var executed []string
	for _, rule := range enabled {
		if !e.shouldExecute(ctx, rule, trigger, pr, ectx) {
			continue
		}
		executed = append(executed, rule.ID)

		e.wg.Add(1)
		go func(rule *models.AutomationRule) {
			defer e.wg.Done()
			e.workers <- struct{}{}
			defer func() { <-e.workers }()
			e.executeRule(ctx, rule, pr)
		}(rule)
	}
	return executed
}

func (e *Engine) shouldExecute(ctx context.Context, rule *models.AutomationRule, trigger models.TriggerType, pr *models.PullRequest, ectx EventContext) bool {
	if rule.Trigger != trigger {
		return false
	}

	if !e.evaluator.EvaluateAll(ctx, rule.Conditions, pr, ectx) {
		return false
	}

	now := ectx.Now
	if now.IsZero() {
		now = time.Now()
	}

	if rule.TimeWindow != nil && !rule.TimeWindow.Contains(now) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if rule.Cooldown > 0 && rule.LastExecuted != nil {
		elapsed := now.Sub(*rule.LastExecuted).Seconds()
		if elapsed < float64(rule.Cooldown) {
			return false
		}
	}

	if rule.MaxExecutionsPerDay > 0 {
		if e.todayExecutionsLocked(rule.ID, now) >= rule.MaxExecutionsPerDay {
			return false
		}
	}

	return true
}

// todayExecutionsLocked counts history entries for a rule on the calendar
// day of now. Caller holds e.mu.
func (e *Engine) todayExecutionsLocked(ruleID string, now time.Time) int {
	year, month, day := now.Date()
	count := 0
	for i := range e.history {
		record := &e.history[i]
		if record.RuleID != ruleID {
			continue
		}
		ry, rm, rd := record.ExecutedAt.Date()
		if ry == year && rm == month && rd == day {
			count++
		}
	}
	return count
}

func (e *Engine) executeRule(ctx context.Context, rule *models.AutomationRule, pr *models.PullRequest) {
	log := logger.FromContext(ctx)
	start := time.Now()

	var executedActions []string
	success := true
	var errorMessage string

	func() {
		defer func() {
			if r := recover(); r != nil {
				success = false
				errorMessage = fmt.Sprint(r)
				log.Error("rule execution panicked",
					"rule_id", rule.ID,
					"panic", errorMessage)
			}
		}()

		log.Info("executing automation rule",
			"rule_id", rule.ID,
			"rule_name", rule.Name)

		for _, action := range rule.Actions {
			ok := e.executor.Execute(ctx, action, pr)
			executedActions = append(executedActions, fmt.Sprintf("%s:%t", action.Type, ok))
			if !ok {
				success = false
				log.Error("action failed",
					"rule_id", rule.ID,
					"action_type", string(action.Type))
			}
		}
	}()

	elapsed := time.Since(start).Seconds()
	record := models.ExecutionRecord{
		RuleID:     rule.ID,
		ExecutedAt: time.Now(),
		PRInfo: models.PRInfo{
			Platform: pr.Platform,
			Repo:     pr.BaseFullName(),
			PRNumber: pr.Number,
			Title:    pr.Title,
			Author:   pr.User.Login,
		},
		ActionsExecuted: executedActions,
		Success:         success,
		ErrorMessage:    errorMessage,
		ExecutionTime:   elapsed,
	}

	e.mu.Lock()
	rule.RecordExecution(success)
	e.history = append(e.history, record)
	if len(e.history) > historyHighWater {
		e.history = e.history[len(e.history)-historyLowWater:]
	}
	e.mu.Unlock()

	e.persist(ctx)

	if success {
		log.Info("rule executed",
			"rule_id", rule.ID,
			"duration_seconds", elapsed)
	} else {
		log.Error("rule execution failed",
			"rule_id", rule.ID,
			"error", errorMessage)
	}
}

// AddRule registers a new rule and persists it.
func (e *Engine) AddRule(ctx context.Context, rule models.AutomationRule) error {
	e.mu.Lock()
	for _, existing := range e.rules {
		if existing.ID == rule.ID {
			e.mu.Unlock()
			return errors.NewDuplicateRuleError(rule.ID)
		}
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}
	rule.UpdatedAt = time.Now()
	e.rules = append(e.rules, &rule)
	e.mu.Unlock()

	e.persist(ctx)
	logger.FromContext(ctx).Info("automation rule added",
		"rule_id", rule.ID,
		"rule_name", rule.Name)
	return nil
}

// UpdateRule replaces an existing rule by ID.
func (e *Engine) UpdateRule(ctx context.Context, rule models.AutomationRule) error {
	e.mu.Lock()
	found := false
	for i, existing := range e.rules {
		if existing.ID == rule.ID {
			rule.UpdatedAt = time.Now()
			e.rules[i] = &rule
			found = true
			break
		}
	}
	e.mu.Unlock()

	if !found {
		return errors.NewRuleNotFoundError(rule.ID)
	}
	e.persist(ctx)
	return nil
}

// RemoveRule deletes a rule by ID.
func (e *Engine) RemoveRule(ctx context.Context, ruleID string) error {
	e.mu.Lock()
	found := false
	for i, rule := range e.rules {
		if rule.ID == ruleID {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			found = true
			break
		}
	}
	e.mu.Unlock()

	if !found {
		return errors.NewRuleNotFoundError(ruleID)
	}
	e.persist(ctx)
	return nil
}

// Rule returns a copy of the rule with the given ID.
func (e *Engine) Rule(ruleID string) (models.AutomationRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, rule := range e.rules {
		if rule.ID == ruleID {
			return *rule, nil
		}
	}
	return models.AutomationRule{}, errors.NewRuleNotFoundError(ruleID)
}

// Rules returns copies of the rules, optionally only the enabled ones.
func (e *Engine) Rules(enabledOnly bool) []models.AutomationRule {
	e.mu.Lock()
	defer e.mu.Unlock()

	rules := make([]models.AutomationRule, 0, len(e.rules))
	for _, rule := range e.rules {
		if enabledOnly && !rule.Enabled {
			continue
		}
		rules = append(rules, *rule)
	}
	return rules
}

// EnableRule marks a rule as enabled.
func (e *Engine) EnableRule(ctx context.Context, ruleID string) error {
	return e.setEnabled(ctx, ruleID, true)
}

// DisableRule marks a rule as disabled.
func (e *Engine) DisableRule(ctx context.Context, ruleID string) error {
	return e.setEnabled(ctx, ruleID, false)
}

func (e *Engine) setEnabled(ctx context.Context, ruleID string, enabled bool) error {
	e.mu.Lock()
	found := false
	for _, rule := range e.rules {
		if rule.ID == ruleID {
			rule.Enabled = enabled
			rule.UpdatedAt = time.Now()
			found = true
			break
		}
	}
	e.mu.Unlock()

	if !found {
		return errors.NewRuleNotFoundError(ruleID)
	}
	e.persist(ctx)
	return nil
}

// History returns the most recent execution records, optionally filtered
// by rule ID.
func (e *Engine) History(ruleID string, limit int) []models.ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	var filtered []models.ExecutionRecord
	for _, record := range e.history {
		if ruleID != "" && record.RuleID != ruleID {
			continue
		}
		filtered = append(filtered, record)
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered
}

// Statistics summarizes rule and execution counters.
type Statistics struct {
	TotalRules      int     `json:"total_rules"`
	EnabledRules    int     `json:"enabled_rules"`
	TotalExecutions int     `json:"total_executions"`
	TotalSuccesses  int     `json:"total_successes"`
	SuccessRate     float64 `json:"success_rate"`
	HistoryCount    int     `json:"execution_history_count"`
}

func (e *Engine) Statistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Statistics{
		TotalRules:   len(e.rules),
		HistoryCount: len(e.history),
	}
	for _, rule := range e.rules {
		if rule.Enabled {
			stats.EnabledRules++
		}
		stats.TotalExecutions += rule.ExecutionCount
		stats.TotalSuccesses += rule.SuccessCount
	}
	if stats.TotalExecutions > 0 {
		stats.SuccessRate = float64(stats.TotalSuccesses) / float64(stats.TotalExecutions)
	}
	return stats
}

// Shutdown waits for in-flight rule executions to drain and persists the
// rules one last time.
func (e *Engine) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("shutting down automation engine")

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.persist(ctx)
	log.Info("automation engine stopped")
	return nil
}

// persist snapshots the rules into the store. Never called with e.mu held
// since the store does its own locking and disk I/O.
func (e *Engine) persist(ctx context.Context) {
	e.mu.Lock()
	rules := make([]models.AutomationRule, 0, len(e.rules))
	for _, rule := range e.rules {
		rules = append(rules, *rule)
	}
	e.mu.Unlock()

	if err := e.store.SetAutomationRules(rules); err != nil {
		logger.FromContext(ctx).Error("failed to persist automation rules",
			"error", err)
	}
}

func defaultRules() []*models.AutomationRule {
	now := time.Now()
	return []*models.AutomationRule{
		{
			ID:          "auto-build-new-pr",
			Name:        "Auto build on new PR",
			Description: "Triggers a build when a PR starts being tracked",
			Trigger:     models.TriggerPRAdded,
			Conditions: []models.Condition{
				{
					Type:     models.ConditionPlatformIs,
					Operator: models.OperatorEquals,
					Value:    "gitee",
				},
			},
			Actions: []models.Action{
				{
					Type:       models.ActionComment,
					Parameters: map[string]any{"message": "/build"},
				},
			},
			Enabled:   false,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "retest-failed-pipeline",
			Name:        "Retest failed pipeline",
			Description: "Retries the pipeline when the pipeline-failed label shows up",
			Trigger:     models.TriggerLabelChanged,
			Conditions: []models.Condition{
				{
					Type:     models.ConditionHasLabel,
					Operator: models.OperatorContains,
					Value:    "pipeline-failed",
				},
			},
			Actions: []models.Action{
				{
					Type:       models.ActionComment,
					Parameters: map[string]any{"message": "/retest"},
					Delay:      300,
				},
			},
			Cooldown:            3600,
			MaxExecutionsPerDay: 3,
			Enabled:             false,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
	}
}
