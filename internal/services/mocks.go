package services

import (
	"context"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/Tomas-vilte/MateWatch/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

type (
	MockPlatformClient struct {
		mock.Mock
	}

	MockRegistry struct {
		mock.Mock
	}

	MockMutator struct {
		mock.Mock
	}

	MockRuleStore struct {
		mock.Mock
	}

	MockActionRunner struct {
		mock.Mock
	}

	MockEventSink struct {
		mock.Mock
	}
)

func (m *MockPlatformClient) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlatformClient) GetPRDetails(ctx context.Context, owner, repo string, number int) (*models.PullRequest, error) {
	args := m.Called(ctx, owner, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PullRequest), args.Error(1)
}

func (m *MockPlatformClient) GetPRLabels(ctx context.Context, owner, repo string, number int) ([]models.Label, error) {
	args := m.Called(ctx, owner, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Label), args.Error(1)
}

func (m *MockPlatformClient) GetAuthorPRs(ctx context.Context, owner, repo, author, state string, page, perPage int) ([]*models.PullRequest, error) {
	args := m.Called(ctx, owner, repo, author, state, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PullRequest), args.Error(1)
}

func (m *MockPlatformClient) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) ([]models.Label, error) {
	args := m.Called(ctx, owner, repo, number, labels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Label), args.Error(1)
}

func (m *MockPlatformClient) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	args := m.Called(ctx, owner, repo, number, label)
	return args.Error(0)
}

func (m *MockPlatformClient) AddComment(ctx context.Context, owner, repo string, number int, body string) error {
	args := m.Called(ctx, owner, repo, number, body)
	return args.Error(0)
}

func (m *MockPlatformClient) ClosePR(ctx context.Context, owner, repo string, number int) error {
	args := m.Called(ctx, owner, repo, number)
	return args.Error(0)
}

func (m *MockRegistry) Get(name string) (ports.PlatformClient, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.PlatformClient), args.Error(1)
}

func (m *MockMutator) AddComment(ctx context.Context, ref models.PRRef, body string) error {
	args := m.Called(ctx, ref, body)
	return args.Error(0)
}

func (m *MockMutator) AddLabels(ctx context.Context, ref models.PRRef, labels []string) error {
	args := m.Called(ctx, ref, labels)
	return args.Error(0)
}

func (m *MockMutator) RemoveLabel(ctx context.Context, ref models.PRRef, label string) error {
	args := m.Called(ctx, ref, label)
	return args.Error(0)
}

func (m *MockMutator) ClosePR(ctx context.Context, ref models.PRRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockRuleStore) AutomationRules() []models.AutomationRule {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.AutomationRule)
}

func (m *MockRuleStore) SetAutomationRules(rules []models.AutomationRule) error {
	args := m.Called(rules)
	return args.Error(0)
}

func (m *MockActionRunner) Execute(ctx context.Context, action models.Action, pr *models.PullRequest) bool {
	args := m.Called(ctx, action, pr)
	return args.Bool(0)
}

func (m *MockEventSink) ProcessEvent(ctx context.Context, trigger models.TriggerType, pr *models.PullRequest, ectx EventContext) []string {
	args := m.Called(ctx, trigger, pr, ectx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}
