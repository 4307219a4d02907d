package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/config"
	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/Tomas-vilte/MateWatch/internal/infrastructure/cache"
	"github.com/Tomas-vilte/MateWatch/internal/infrastructure/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type monitorFixture struct {
	monitor *Monitor
	cfg     *config.Config
	client  *MockPlatformClient
	engine  *MockEventSink
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	client := new(MockPlatformClient)
	registry := new(MockRegistry)
	registry.On("Get", "gitee").Return(client, nil)

	fetcher := NewFetcher(
		WithRegistry(registry),
		WithCache(cache.New(time.Minute)),
		WithGate(ratelimit.NewGate(0, 10)),
	)

	engine := new(MockEventSink)
	engine.On("ProcessEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	monitor := NewMonitor(
		WithMonitorConfig(cfg),
		WithFetcher(fetcher),
		WithEngine(engine),
	)

	return &monitorFixture{monitor: monitor, cfg: cfg, client: client, engine: engine}
}

func monitorPR(labels []string, state string, updatedAt time.Time) *models.PullRequest {
	pr := &models.PullRequest{
		Number:    8,
		Title:     "watch me",
		State:     state,
		User:      models.User{Login: "alice"},
		UpdatedAt: updatedAt,
		Platform:  "gitee",
		Owner:     "foo",
		Repo:      "bar",
	}
	for _, name := range labels {
		pr.Labels = append(pr.Labels, models.Label{Name: name})
	}
	return pr
}

func TestAddPREmitsPRAddedEvent(t *testing.T) {
	// Arrange
	f := newMonitorFixture(t)
	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).
		Return(monitorPR(nil, models.StateOpen, time.Now()), nil)
	ref := models.PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 8}

	// Act
	pr, err := f.monitor.AddPR(context.Background(), ref)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 8, pr.Number)
	assert.True(t, f.cfg.IsTracked(ref))
	f.engine.AssertCalled(t, "ProcessEvent", mock.Anything, models.TriggerPRAdded, mock.Anything, mock.Anything)
}

func TestAddPRFetchFailureDoesNotEmit(t *testing.T) {
	f := newMonitorFixture(t)
	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).
		Return(nil, assert.AnError)
	ref := models.PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 8}

	_, err := f.monitor.AddPR(context.Background(), ref)

	require.Error(t, err)
	f.engine.AssertNotCalled(t, "ProcessEvent", mock.Anything, models.TriggerPRAdded, mock.Anything, mock.Anything)
}

func TestLabelDiffEmitsLabelChanged(t *testing.T) {
	// Arrange: first poll sees one label, second poll sees a new one.
	f := newMonitorFixture(t)
	updated := time.Now()

	first := monitorPR([]string{"bug"}, models.StateOpen, updated)
	second := monitorPR([]string{"bug", "pipeline-failed"}, models.StateOpen, updated)

	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).Return(first, nil).Once()
	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).Return(second, nil).Once()

	ref := models.PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 8}
	require.NoError(t, f.cfg.AddPR(ref))

	ctx := context.Background()

	// Act: first cycle records, second cycle diffs.
	f.monitor.checkAll(ctx)
	f.engine.AssertNotCalled(t, "ProcessEvent", mock.Anything, models.TriggerLabelChanged, mock.Anything, mock.Anything)
	f.monitor.checkAll(ctx)

	// Assert
	f.engine.AssertCalled(t, "ProcessEvent", mock.Anything, models.TriggerLabelChanged, mock.Anything, mock.Anything)
}

func TestLabelColorChangeAloneIsNotAChange(t *testing.T) {
	f := newMonitorFixture(t)
	updated := time.Now()

	first := monitorPR(nil, models.StateOpen, updated)
	first.Labels = []models.Label{{Name: "bug", Color: "ff0000"}}
	second := monitorPR(nil, models.StateOpen, updated)
	second.Labels = []models.Label{{Name: "bug", Color: "00ff00"}}

	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).Return(first, nil).Once()
	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).Return(second, nil).Once()

	ref := models.PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 8}
	require.NoError(t, f.cfg.AddPR(ref))

	ctx := context.Background()
	f.monitor.checkAll(ctx)
	f.monitor.checkAll(ctx)

	// Only the label NAMES matter for the diff.
	f.engine.AssertNotCalled(t, "ProcessEvent", mock.Anything, models.TriggerLabelChanged, mock.Anything, mock.Anything)
}

func TestStateDiffEmitsStatusChanged(t *testing.T) {
	f := newMonitorFixture(t)
	updated := time.Now()

	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).
		Return(monitorPR(nil, models.StateOpen, updated), nil).Once()
	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).
		Return(monitorPR(nil, models.StateMerged, updated), nil).Once()

	ref := models.PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 8}
	require.NoError(t, f.cfg.AddPR(ref))

	ctx := context.Background()
	f.monitor.checkAll(ctx)
	f.monitor.checkAll(ctx)

	f.engine.AssertCalled(t, "ProcessEvent", mock.Anything, models.TriggerStatusChanged, mock.Anything, mock.Anything)
}

func TestUpdatedAtDiffEmitsPRUpdated(t *testing.T) {
	f := newMonitorFixture(t)
	updated := time.Now()

	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).
		Return(monitorPR(nil, models.StateOpen, updated), nil).Once()
	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).
		Return(monitorPR(nil, models.StateOpen, updated.Add(time.Minute)), nil).Once()

	ref := models.PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 8}
	require.NoError(t, f.cfg.AddPR(ref))

	ctx := context.Background()
	f.monitor.checkAll(ctx)
	f.monitor.checkAll(ctx)

	f.engine.AssertCalled(t, "ProcessEvent", mock.Anything, models.TriggerPRUpdated, mock.Anything, mock.Anything)
}

func TestEveryCycleEmitsScheduled(t *testing.T) {
	f := newMonitorFixture(t)
	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).
		Return(monitorPR(nil, models.StateOpen, time.Now()), nil)

	ref := models.PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 8}
	require.NoError(t, f.cfg.AddPR(ref))

	ctx := context.Background()
	f.monitor.checkAll(ctx)
	f.monitor.checkAll(ctx)

	calls := 0
	for _, call := range f.engine.Calls {
		if call.Arguments[1] == models.TriggerScheduled {
			calls++
		}
	}
	assert.Equal(t, 2, calls)
}

func TestRemovePRDropsSnapshot(t *testing.T) {
	f := newMonitorFixture(t)
	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).
		Return(monitorPR([]string{"bug"}, models.StateOpen, time.Now()), nil)
	ref := models.PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 8}

	_, err := f.monitor.AddPR(context.Background(), ref)
	require.NoError(t, err)
	require.Contains(t, f.monitor.TrackedLabels(), ref.CacheKey())

	require.NoError(t, f.monitor.RemovePR(context.Background(), ref))

	assert.NotContains(t, f.monitor.TrackedLabels(), ref.CacheKey())
	assert.False(t, f.cfg.IsTracked(ref))
}

func TestFollowedAuthorPRsGetTracked(t *testing.T) {
	f := newMonitorFixture(t)

	authored := monitorPR(nil, models.StateOpen, time.Now())
	f.client.On("GetAuthorPRs", mock.Anything, "foo", "bar", "alice", models.StateOpen, 1, 100).
		Return([]*models.PullRequest{authored}, nil)
	f.client.On("GetPRDetails", mock.Anything, "foo", "bar", 8).Return(authored, nil)

	require.NoError(t, f.cfg.AddFollowedAuthor(config.FollowedAuthor{
		Platform: "gitee",
		Author:   "alice",
		Repo:     "foo/bar",
	}))

	f.monitor.checkAll(context.Background())

	ref := models.PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 8}
	assert.True(t, f.cfg.IsTracked(ref))
	f.engine.AssertCalled(t, "ProcessEvent", mock.Anything, models.TriggerPRAdded, mock.Anything, mock.Anything)
}

func TestStartAndStop(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	f.monitor.Start(ctx)
	// Second Start is a no-op instead of a second loop.
	f.monitor.Start(ctx)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	f.monitor.Stop(stopCtx)
	// Stopping twice must not panic.
	f.monitor.Stop(stopCtx)
}
