package models

import (
	"time"
)

// TriggerType identifica el evento que puede disparar una regla.
type TriggerType string

const (
	TriggerPRAdded       TriggerType = "pr_added"
	TriggerPRUpdated     TriggerType = "pr_updated"
	TriggerLabelChanged  TriggerType = "label_changed"
	TriggerStatusChanged TriggerType = "status_changed"
	TriggerScheduled     TriggerType = "scheduled"
	TriggerManual        TriggerType = "manual"
)

// ConditionType identifica qué campo del snapshot examina una condición.
type ConditionType string

const (
	ConditionHasLabel      ConditionType = "has_label"
	ConditionNotHasLabel   ConditionType = "not_has_label"
	ConditionStatusIs      ConditionType = "status_is"
	ConditionStatusNot     ConditionType = "status_not"
	ConditionTimeRange     ConditionType = "time_range"
	ConditionAuthorIs      ConditionType = "author_is"
	ConditionAuthorNot     ConditionType = "author_not"
	ConditionBranchMatches ConditionType = "branch_matches"
	ConditionPlatformIs    ConditionType = "platform_is"
	ConditionRepoIs        ConditionType = "repo_is"
	ConditionTitleContains ConditionType = "title_contains"
	ConditionBodyContains  ConditionType = "body_contains"
	ConditionIsDraft       ConditionType = "is_draft"
	ConditionIsNotDraft    ConditionType = "is_not_draft"
)

// ActionType identifica la operación que ejecuta una acción.
type ActionType string

const (
	ActionComment        ActionType = "comment"
	ActionAddLabel       ActionType = "add_label"
	ActionRemoveLabel    ActionType = "remove_label"
	ActionClosePR        ActionType = "close_pr"
	ActionApprovePR      ActionType = "approve_pr"
	ActionRequestChanges ActionType = "request_changes"
	ActionSendEmail      ActionType = "send_email"
	ActionWebhook        ActionType = "webhook"
	ActionLog            ActionType = "log"
)

// Operator identifica cómo se compara el valor extraído con el esperado.
type Operator string

const (
	OperatorEquals         Operator = "eq"
	OperatorNotEquals      Operator = "ne"
	OperatorContains       Operator = "contains"
	OperatorNotContains    Operator = "not_contains"
	OperatorIn             Operator = "in"
	OperatorNotIn          Operator = "not_in"
	OperatorMatches        Operator = "matches"
	OperatorNotMatches     Operator = "not_matches"
	OperatorGreaterThan    Operator = "gt"
	OperatorLessThan       Operator = "lt"
	OperatorGreaterOrEqual Operator = "ge"
	OperatorLessOrEqual    Operator = "le"
)

type (
	// Condition es una condición sin estado evaluada contra un snapshot.
	Condition struct {
		Type     ConditionType `json:"type"`
		Operator Operator      `json:"operator"`
		Value    any           `json:"value"`
		Field    string        `json:"field,omitempty"`
	}

	// Action describe una operación con efectos, con delay opcional y
	// política de reintentos.
	Action struct {
		Type          ActionType     `json:"type"`
		Parameters    map[string]any `json:"parameters"`
		Delay         int            `json:"delay,omitempty"`          // segundos antes de ejecutar
		RetryCount    int            `json:"retry_count,omitempty"`    // reintentos ante fallo
		RetryInterval int            `json:"retry_interval,omitempty"` // segundos entre reintentos
	}

	// TimeWindow limita una regla a una franja horaria diaria, inclusive
	// en ambos extremos. Las horas se expresan como "HH:MM:SS".
	TimeWindow struct {
		Start    string `json:"start"`
		End      string `json:"end"`
		Timezone string `json:"timezone,omitempty"`
	}

	// PRInfo es la identidad del PR que disparó una ejecución.
	PRInfo struct {
		Platform string `json:"platform"`
		Repo     string `json:"repo"`
		PRNumber int    `json:"pr_number"`
		Title    string `json:"title"`
		Author   string `json:"author"`
	}

	// ExecutionRecord registra el resultado de una ejecución de regla.
	ExecutionRecord struct {
		RuleID          string    `json:"rule_id"`
		ExecutedAt      time.Time `json:"executed_at"`
		PRInfo          PRInfo    `json:"pr_info"`
		ActionsExecuted []string  `json:"actions_executed"`
		Success         bool      `json:"success"`
		ErrorMessage    string    `json:"error_message,omitempty"`
		ExecutionTime   float64   `json:"execution_time"` // segundos
	}

	// AutomationRule es una regla de automatización completa.
	AutomationRule struct {
		ID                  string      `json:"id"`
		Name                string      `json:"name"`
		Description         string      `json:"description"`
		Trigger             TriggerType `json:"trigger"`
		Conditions          []Condition `json:"conditions"`
		Actions             []Action    `json:"actions"`
		Enabled             bool        `json:"enabled"`
		Priority            int         `json:"priority"` // mayor número, mayor prioridad
		TimeWindow          *TimeWindow `json:"time_range,omitempty"`
		Cooldown            int         `json:"cooldown,omitempty"` // segundos entre ejecuciones
		MaxExecutionsPerDay int         `json:"max_executions_per_day,omitempty"`
		Tags                []string    `json:"tags,omitempty"`
		CreatedAt           time.Time   `json:"created_at"`
		UpdatedAt           time.Time   `json:"updated_at"`
		LastExecuted        *time.Time  `json:"last_executed,omitempty"`
		ExecutionCount      int         `json:"execution_count"`
		SuccessCount        int         `json:"success_count"`
		FailureCount        int         `json:"failure_count"`
	}

	// AutomationConfig son los parámetros globales del motor de reglas.
	AutomationConfig struct {
		Enabled               bool `json:"enabled"`
		MaxParallelExecutions int  `json:"max_parallel_executions"`
		DefaultCooldown       int  `json:"default_cooldown"`
		MaxExecutionsPerDay   int  `json:"max_executions_per_day"`
	}
)

const timeWindowLayout = "15:04:05"

// Contains indica si el instante t cae dentro de la franja horaria,
// comparando solo la hora del día; ambos extremos son inclusivos.
func (w *TimeWindow) Contains(t time.Time) bool {
	start, err := time.Parse(timeWindowLayout, w.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse(timeWindowLayout, w.End)
	if err != nil {
		return false
	}
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	startSecs := start.Hour()*3600 + start.Minute()*60 + start.Second()
	endSecs := end.Hour()*3600 + end.Minute()*60 + end.Second()
	return secs >= startSecs && secs <= endSecs
}

// RecordExecution actualiza los contadores de la regla tras una ejecución.
// El llamador debe sostener el lock del motor.
func (r *AutomationRule) RecordExecution(success bool) {
	now := time.Now()
	r.ExecutionCount++
	if success {
		r.SuccessCount++
	} else {
		r.FailureCount++
	}
	r.LastExecuted = &now
	r.UpdatedAt = now
}

// DefaultAutomationConfig retorna la configuración por defecto del motor.
func DefaultAutomationConfig() AutomationConfig {
	return AutomationConfig{
		Enabled:               true,
		MaxParallelExecutions: 5,
		DefaultCooldown:       300,
		MaxExecutionsPerDay:   100,
	}
}
