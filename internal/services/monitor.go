package services

import (
	"context"
	"sync"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/config"
	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/Tomas-vilte/MateWatch/internal/logger"
)

// eventSink defines what Monitor needs from the automation engine.
type eventSink interface {
	ProcessEvent(ctx context.Context, trigger models.TriggerType, pr *models.PullRequest, ectx EventContext) []string
}

// prSnapshot keeps the last observed state of a tracked PR so the next
// poll can diff against it.
type prSnapshot struct {
	labels    map[string]struct{}
	state     string
	updatedAt time.Time
}

// Monitor polls the tracked PRs on a fixed interval, diffs each snapshot
// against the previous one and turns the differences into events for the
// automation engine. The first sighting of a PR only records its state;
// diff events start on the second poll.
type Monitor struct {
	config  *config.Config
	fetcher *Fetcher
	engine  eventSink

	mu        sync.Mutex
	snapshots map[string]prSnapshot
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

type MonitorOption func(*Monitor)

func WithMonitorConfig(cfg *config.Config) MonitorOption {
	return func(m *Monitor) {
		m.config = cfg
	}
}

func WithFetcher(f *Fetcher) MonitorOption {
	return func(m *Monitor) {
		m.fetcher = f
	}
}

func WithEngine(engine eventSink) MonitorOption {
	return func(m *Monitor) {
		m.engine = engine
	}
}

func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{
		snapshots: make(map[string]prSnapshot),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the poll loop. Calling Start on a running monitor is a
// no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	logger.FromContext(ctx).Info("monitor started",
		"poll_interval", m.config.PollInterval().String())
	go m.pollLoop(ctx)
}

// Stop signals the poll loop and waits for the current cycle to finish.
func (m *Monitor) Stop(ctx context.Context) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
	}
	logger.FromContext(ctx).Info("monitor stopped")
}

func (m *Monitor) pollLoop(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.config.PollInterval())
	defer ticker.Stop()

	// First check runs right away instead of waiting a full interval.
	m.checkAll(ctx)

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

// checkAll refreshes every tracked PR and feeds the derived events into
// the engine.
func (m *Monitor) checkAll(ctx context.Context) {
	log := logger.FromContext(ctx)

	m.expandFollowedAuthors(ctx)

	refs := m.config.PRs()
	if len(refs) == 0 {
		return
	}

	results := m.fetcher.FetchPRs(ctx, refs, true)
	for _, result := range results {
		if result.Err != nil {
			log.Warn("failed to refresh PR",
				"error", result.Err,
				"pr", result.Ref.CacheKey())
			continue
		}
		m.handleSnapshot(ctx, result.PR)
	}
}

// handleSnapshot diffs the fresh snapshot against the previous one and
// emits the matching events.
func (m *Monitor) handleSnapshot(ctx context.Context, pr *models.PullRequest) {
	log := logger.FromContext(ctx)
	key := pr.CacheKey()

	fresh := prSnapshot{
		labels:    make(map[string]struct{}, len(pr.Labels)),
		state:     pr.State,
		updatedAt: pr.UpdatedAt,
	}
	for _, label := range pr.Labels {
		fresh.labels[label.Name] = struct{}{}
	}

	m.mu.Lock()
	previous, seen := m.snapshots[key]
	m.snapshots[key] = fresh
	m.mu.Unlock()

	ectx := EventContext{Now: time.Now()}

	if !seen {
		log.Debug("tracking new PR snapshot",
			"pr", key,
			"state", pr.State)
		m.engine.ProcessEvent(ctx, models.TriggerScheduled, pr, ectx)
		return
	}

	if added, removed, changed := diffLabels(previous.labels, fresh.labels); changed {
		log.Info("PR labels changed",
			"pr", key,
			"added", added,
			"removed", removed)
		if m.config.EnableNotifications {
			log.Info("label change notification",
				"pr", key,
				"title", pr.Title)
		}
		ectx.Extra = map[string]any{
			"labels_added":   added,
			"labels_removed": removed,
		}
		m.engine.ProcessEvent(ctx, models.TriggerLabelChanged, pr, ectx)
		ectx.Extra = nil
	}

	if previous.state != fresh.state {
		log.Info("PR state changed",
			"pr", key,
			"from", previous.state,
			"to", fresh.state)
		m.engine.ProcessEvent(ctx, models.TriggerStatusChanged, pr, ectx)
	} else if !previous.updatedAt.Equal(fresh.updatedAt) {
		m.engine.ProcessEvent(ctx, models.TriggerPRUpdated, pr, ectx)
	}

	// Every poll cycle also counts as a scheduled tick for time-based rules.
	m.engine.ProcessEvent(ctx, models.TriggerScheduled, pr, ectx)
}

// diffLabels compares two label name sets.
func diffLabels(old, fresh map[string]struct{}) (added, removed []string, changed bool) {
	for name := range fresh {
		if _, ok := old[name]; !ok {
			added = append(added, name)
		}
	}
	for name := range old {
		if _, ok := fresh[name]; !ok {
			removed = append(removed, name)
		}
	}
	return added, removed, len(added) > 0 || len(removed) > 0
}

// AddPR starts tracking a PR. The snapshot is fetched immediately and a
// pr_added event fires for it.
func (m *Monitor) AddPR(ctx context.Context, ref models.PRRef) (*models.PullRequest, error) {
	if err := m.config.AddPR(ref); err != nil {
		return nil, err
	}

	pr, err := m.fetcher.FetchPR(ctx, ref, true)
	if err != nil {
		return nil, err
	}

	m.recordSnapshot(pr)
	m.engine.ProcessEvent(ctx, models.TriggerPRAdded, pr, EventContext{Now: time.Now()})

	logger.FromContext(ctx).Info("PR tracked",
		"pr", ref.CacheKey(),
		"title", pr.Title)
	return pr, nil
}

// RemovePR stops tracking a PR and drops its snapshot.
func (m *Monitor) RemovePR(ctx context.Context, ref models.PRRef) error {
	if err := m.config.RemovePR(ref); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.snapshots, ref.CacheKey())
	m.mu.Unlock()

	logger.FromContext(ctx).Info("PR untracked",
		"pr", ref.CacheKey())
	return nil
}

// TrackedLabels returns the last observed label names per tracked PR.
func (m *Monitor) TrackedLabels() map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string][]string, len(m.snapshots))
	for key, snapshot := range m.snapshots {
		names := make([]string, 0, len(snapshot.labels))
		for name := range snapshot.labels {
			names = append(names, name)
		}
		result[key] = names
	}
	return result
}

// recordSnapshot stores the state of a PR without diffing.
func (m *Monitor) recordSnapshot(pr *models.PullRequest) {
	fresh := prSnapshot{
		labels:    make(map[string]struct{}, len(pr.Labels)),
		state:     pr.State,
		updatedAt: pr.UpdatedAt,
	}
	for _, label := range pr.Labels {
		fresh.labels[label.Name] = struct{}{}
	}

	m.mu.Lock()
	m.snapshots[pr.CacheKey()] = fresh
	m.mu.Unlock()
}

// expandFollowedAuthors looks up open PRs of followed authors and starts
// tracking any that are not tracked yet.
func (m *Monitor) expandFollowedAuthors(ctx context.Context) {
	log := logger.FromContext(ctx)

	for _, followed := range m.config.Followed() {
		owner, repo, ok := followed.Split()
		if !ok {
			log.Warn("followed author has invalid repo",
				"author", followed.Author,
				"repo", followed.Repo)
			continue
		}

		prs, err := m.fetcher.AuthorPRs(ctx, followed.Platform, owner, repo, followed.Author, models.StateOpen)
		if err != nil {
			log.Warn("failed to list PRs for followed author",
				"error", err,
				"author", followed.Author)
			continue
		}

		for _, pr := range prs {
			ref := pr.Ref()
			if m.config.IsTracked(ref) {
				continue
			}
			if err := m.config.AddPR(ref); err != nil {
				log.Warn("failed to track PR for followed author",
					"error", err,
					"pr", ref.CacheKey())
				continue
			}
			m.recordSnapshot(pr)
			m.engine.ProcessEvent(ctx, models.TriggerPRAdded, pr, EventContext{Now: time.Now()})
			log.Info("tracking PR from followed author",
				"pr", ref.CacheKey(),
				"author", followed.Author)
		}
	}
}
