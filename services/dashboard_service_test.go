package services

import (
	"context"
	"errors"
	"testing"

	"kbconsole/identity"
	"kbconsole/models"
	"kbconsole/querycache"
	"kbconsole/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dashboardFixture struct {
	svc      *dashboardService
	articles *MockArticleRepository
	metrics  *MockMetricsRepository
	cache    *querycache.Cache
}

func newDashboardFixture(pr *identity.Principal) *dashboardFixture {
	articles := new(MockArticleRepository)
	metrics := new(MockMetricsRepository)
	cache := querycache.New()
	svc := NewDashboardService(articles, metrics, identity.Static{Principal: pr}, cache, DefaultCachePolicies, zap.NewNop()).(*dashboardService)
	return &dashboardFixture{svc: svc, articles: articles, metrics: metrics, cache: cache}
}

func TestDashboardService_Summary(t *testing.T) {
	f := newDashboardFixture(alice)
	f.metrics.On("ListCostMetrics", mock.Anything, "acme", "", "").Return([]models.CostMetric{
		{Service: "AmazonEC2", Period: "2026-01", Amount: 600, PotentialSavings: 120},
		{Service: "AmazonEC2", Period: "2026-02", Amount: 400, PotentialSavings: 80},
		{Service: "AmazonS3", Period: "2026-02", Amount: 200},
		{Service: "AmazonRDS", Period: "2026-02", Amount: 300},
		{Service: "AWSLambda", Period: "2026-02", Amount: 50},
		{Service: "AmazonCloudFront", Period: "2026-02", Amount: 50},
		{Service: "AmazonVPC", Period: "2026-02", Amount: 10},
	}, nil).Once()
	f.metrics.On("ListSecurityAlerts", mock.Anything, "acme", models.AlertStatus("")).Return([]models.SecurityAlert{
		{Severity: models.SeverityCritical, Status: models.AlertOpen},
		{Severity: models.SeverityHigh, Status: models.AlertOpen},
		{Severity: models.SeverityLow, Status: models.AlertOpen},
		{Severity: models.SeverityCritical, Status: models.AlertResolved},
	}, nil).Once()
	f.articles.On("ListStats", mock.Anything, "acme").Return([]repository.ArticleStats{
		{ID: "a1", Title: "Tagging", ApprovalStatus: models.ApprovalApproved, ViewCount: 10},
		{ID: "a2", Title: "GuardDuty", ApprovalStatus: models.ApprovalApproved, ViewCount: 25},
		{ID: "a3", Title: "Draft", ApprovalStatus: models.ApprovalDraft},
		{ID: "a4", Title: "Pending", ApprovalStatus: models.ApprovalPendingReview, ViewCount: 1},
		{ID: "a5", Title: "Rejected", ApprovalStatus: models.ApprovalRejected},
	}, nil).Once()

	sum, err := f.svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "acme", sum.OrganizationID)
	assert.InDelta(t, 1610.0, sum.Cost.TotalCost, 1e-9)
	assert.InDelta(t, 200.0, sum.Cost.PotentialSavings, 1e-9)
	assert.InDelta(t, 200.0/1610.0, sum.Cost.SavingsRate, 1e-9)
	assert.InDelta(t, 600.0, sum.Cost.CostByMonth["2026-01"], 1e-9)
	require.Len(t, sum.Cost.TopServices, 5)
	assert.Equal(t, models.ServiceCost{Service: "AmazonEC2", Amount: 1000}, sum.Cost.TopServices[0])
	assert.Equal(t, "AWSLambda", sum.Cost.TopServices[3].Service, "ties break by name")
	assert.Equal(t, "AmazonCloudFront", sum.Cost.TopServices[4].Service)

	assert.Equal(t, 3, sum.Security.OpenAlerts)
	assert.Equal(t, 2, sum.Security.CriticalAlerts)
	assert.Equal(t, 1, sum.Security.ResolvedAlerts)
	assert.Equal(t, 1, sum.Security.BySeverity[models.SeverityLow])

	assert.Equal(t, models.KnowledgeSummary{
		TotalArticles: 5, Approved: 2, PendingReview: 1, Drafts: 1, Rejected: 1,
		TotalViews: 36, MostViewedID: "a2", MostViewed: "GuardDuty",
	}, sum.Knowledge)

	_, err = f.svc.Summary(context.Background())
	require.NoError(t, err)
	f.articles.AssertNumberOfCalls(t, "ListStats", 1)
}

func TestDashboardService_SummaryDependsOnArticles(t *testing.T) {
	f := newDashboardFixture(alice)
	f.metrics.On("ListCostMetrics", mock.Anything, "acme", "", "").Return([]models.CostMetric{}, nil)
	f.metrics.On("ListSecurityAlerts", mock.Anything, "acme", models.AlertStatus("")).Return([]models.SecurityAlert{}, nil)
	f.articles.On("ListStats", mock.Anything, "acme").Return([]repository.ArticleStats{}, nil)

	_, err := f.svc.Summary(context.Background())
	require.NoError(t, err)
	f.cache.Invalidate("articles")
	sum, err := f.svc.Summary(context.Background())
	require.NoError(t, err)

	f.articles.AssertNumberOfCalls(t, "ListStats", 2)
	assert.Zero(t, sum.Cost.SavingsRate, "no spend, no rate")
	assert.Empty(t, sum.Knowledge.MostViewedID)
}

func TestDashboardService_SummaryErrorIsNotCached(t *testing.T) {
	f := newDashboardFixture(alice)
	f.metrics.On("ListCostMetrics", mock.Anything, "acme", "", "").Return(nil, errors.New("db down")).Once()
	_, err := f.svc.Summary(context.Background())
	assert.Error(t, err)
	assert.Zero(t, f.cache.Len())
}

func TestDashboardService_ListCostMetrics(t *testing.T) {
	f := newDashboardFixture(alice)
	f.metrics.On("ListCostMetrics", mock.Anything, "acme", "2026-01", "2026-03").Return([]models.CostMetric{{Period: "2026-02"}}, nil).Once()

	got, err := f.svc.ListCostMetrics(context.Background(), "2026-01", "2026-03")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.ListCostMetrics(context.Background(), "2026-13", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.ListCostMetrics(context.Background(), "2026-04", "2026-01")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDashboardService_ListSecurityAlerts(t *testing.T) {
	f := newDashboardFixture(alice)
	f.metrics.On("ListSecurityAlerts", mock.Anything, "acme", models.AlertStatus("")).Return([]models.SecurityAlert{{}, {}}, nil).Once()
	f.metrics.On("ListSecurityAlerts", mock.Anything, "acme", models.AlertOpen).Return([]models.SecurityAlert{{}}, nil).Once()

	all, err := f.svc.ListSecurityAlerts(context.Background(), "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := f.svc.ListSecurityAlerts(context.Background(), "open")
	require.NoError(t, err)
	assert.Len(t, open, 1)

	_, err = f.svc.ListSecurityAlerts(context.Background(), "snoozed")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = newDashboardFixture(nil).svc.ListSecurityAlerts(context.Background(), "")
	assert.ErrorIs(t, err, identity.ErrNotAuthenticated)
}
