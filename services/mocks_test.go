package services

import (
	"context"

	"kbconsole/filter"
	"kbconsole/models"
	"kbconsole/repository"

	"github.com/stretchr/testify/mock"
)

// MockArticleRepository is a mock type for the ArticleRepository interface
type MockArticleRepository struct {
	mock.Mock
}

func (m *MockArticleRepository) List(ctx context.Context, q filter.Query) ([]models.KnowledgeArticle, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.KnowledgeArticle), args.Error(1)
}

func (m *MockArticleRepository) Get(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so the caller can mutate it like a freshly loaded row.
	a := *args.Get(0).(*models.KnowledgeArticle)
	return &a, args.Error(1)
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.KnowledgeArticle) error {
	args := m.Called(ctx, article)
	return args.Error(0)
}

func (m *MockArticleRepository) Update(ctx context.Context, id string, in models.ArticleInput, editorID string) (*models.KnowledgeArticle, error) {
	args := m.Called(ctx, id, in, editorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeArticle), args.Error(1)
}

func (m *MockArticleRepository) SaveApproval(ctx context.Context, article *models.KnowledgeArticle, from models.ApprovalStatus) error {
	args := m.Called(ctx, article, from)
	return args.Error(0)
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockArticleRepository) ListVersions(ctx context.Context, articleID string) ([]models.ArticleVersion, error) {
	args := m.Called(ctx, articleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ArticleVersion), args.Error(1)
}

func (m *MockArticleRepository) IncrementCounter(ctx context.Context, id string, counter repository.Counter) error {
	args := m.Called(ctx, id, counter)
	return args.Error(0)
}

func (m *MockArticleRepository) RecordView(ctx context.Context, view *models.ArticleView) error {
	args := m.Called(ctx, view)
	return args.Error(0)
}

func (m *MockArticleRepository) ListStats(ctx context.Context, organizationID string) ([]repository.ArticleStats, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ArticleStats), args.Error(1)
}

// MockFavoriteRepository is a mock type for the FavoriteRepository interface
type MockFavoriteRepository struct {
	mock.Mock
}

func (m *MockFavoriteRepository) Exists(ctx context.Context, userID, articleID string) (bool, error) {
	args := m.Called(ctx, userID, articleID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepository) Create(ctx context.Context, userID, articleID string) error {
	args := m.Called(ctx, userID, articleID)
	return args.Error(0)
}

func (m *MockFavoriteRepository) Delete(ctx context.Context, userID, articleID string) (bool, error) {
	args := m.Called(ctx, userID, articleID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepository) ListFavoriteArticleIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockMetricsRepository is a mock type for the MetricsRepository interface
type MockMetricsRepository struct {
	mock.Mock
}

func (m *MockMetricsRepository) ListCostMetrics(ctx context.Context, organizationID, from, to string) ([]models.CostMetric, error) {
	args := m.Called(ctx, organizationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CostMetric), args.Error(1)
}

func (m *MockMetricsRepository) ListSecurityAlerts(ctx context.Context, organizationID string, status models.AlertStatus) ([]models.SecurityAlert, error) {
	args := m.Called(ctx, organizationID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SecurityAlert), args.Error(1)
}

func (m *MockMetricsRepository) CreateCostMetrics(ctx context.Context, metrics []models.CostMetric) error {
	return m.Called(ctx, metrics).Error(0)
}

func (m *MockMetricsRepository) CreateSecurityAlerts(ctx context.Context, alerts []models.SecurityAlert) error {
	return m.Called(ctx, alerts).Error(0)
}

// MockArticleService is a mock type for the ArticleService interface
type MockArticleService struct {
	mock.Mock
}

func (m *MockArticleService) List(ctx context.Context, p filter.Params) ([]models.KnowledgeArticle, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.KnowledgeArticle), args.Error(1)
}

func (m *MockArticleService) Get(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeArticle), args.Error(1)
}

func (m *MockArticleService) ListVersions(ctx context.Context, id string) ([]models.ArticleVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ArticleVersion), args.Error(1)
}

func (m *MockArticleService) Create(ctx context.Context, in models.ArticleInput) (*models.KnowledgeArticle, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeArticle), args.Error(1)
}

func (m *MockArticleService) Update(ctx context.Context, id string, in models.ArticleInput) (*models.KnowledgeArticle, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeArticle), args.Error(1)
}

func (m *MockArticleService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockArticleService) SubmitForReview(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeArticle), args.Error(1)
}

func (m *MockArticleService) Approve(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeArticle), args.Error(1)
}

func (m *MockArticleService) Reject(ctx context.Context, id string, reason string) (*models.KnowledgeArticle, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeArticle), args.Error(1)
}
