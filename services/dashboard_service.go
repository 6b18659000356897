package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kbconsole/filter"
	"kbconsole/identity"
	"kbconsole/models"
	"kbconsole/querycache"
	"kbconsole/repository"

	"go.uber.org/zap"
)

const (
	periodFormat = "2006-01"
	topServices  = 5
)

// DashboardService derives the overview KPIs and serves the cost and security feeds.
type DashboardService interface {
	Summary(ctx context.Context) (*models.DashboardSummary, error)
	// ListCostMetrics returns metrics with period in [from, to] (YYYY-MM, both optional).
	ListCostMetrics(ctx context.Context, from, to string) ([]models.CostMetric, error)
	// ListSecurityAlerts filters by status; "" or "all" returns every alert.
	ListSecurityAlerts(ctx context.Context, status string) ([]models.SecurityAlert, error)
}

type dashboardService struct {
	articles repository.ArticleRepository
	metrics  repository.MetricsRepository
	ids      identity.Provider
	cache    *querycache.Cache
	policies CachePolicies
	now      func() time.Time
	log      *zap.Logger
}

// NewDashboardService creates a new instance of DashboardService.
func NewDashboardService(
	articles repository.ArticleRepository,
	metrics repository.MetricsRepository,
	ids identity.Provider,
	cache *querycache.Cache,
	policies CachePolicies,
	log *zap.Logger,
) DashboardService {
	return &dashboardService{
		articles: articles,
		metrics:  metrics,
		ids:      ids,
		cache:    cache,
		policies: policies,
		now:      time.Now,
		log:      log.Named("DashboardService"),
	}
}

func (s *dashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	pr, err := s.ids.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	org := pr.OrganizationID
	key := querycache.NewKey(TagDashboard).With("org", org)
	policy := s.policies.stats(filter.TagArticles, TagCostMetrics, TagSecurityAlerts)

	return querycache.GetOrFetch(ctx, s.cache, key, policy, func(ctx context.Context) (*models.DashboardSummary, error) {
		costs, err := s.metrics.ListCostMetrics(ctx, org, "", "")
		if err != nil {
			return nil, err
		}
		alerts, err := s.metrics.ListSecurityAlerts(ctx, org, "")
		if err != nil {
			return nil, err
		}
		articles, err := s.articles.ListStats(ctx, org)
		if err != nil {
			return nil, err
		}

		summary := &models.DashboardSummary{
			OrganizationID: org,
			Cost:           summarizeCosts(costs),
			Security:       summarizeAlerts(alerts),
			Knowledge:      summarizeArticles(articles),
			GeneratedAt:    s.now().UTC(),
		}
		s.log.Debug("dashboard summary computed",
			zap.String("org", org),
			zap.Int("cost_rows", len(costs)),
			zap.Int("alerts", len(alerts)),
			zap.Int("articles", len(articles)))
		return summary, nil
	})
}

func summarizeCosts(rows []models.CostMetric) models.CostSummary {
	sum := models.CostSummary{CostByMonth: make(map[string]float64), TopServices: []models.ServiceCost{}}
	byService := make(map[string]float64)
	for _, m := range rows {
		sum.TotalCost += m.Amount
		sum.PotentialSavings += m.PotentialSavings
		sum.CostByMonth[m.Period] += m.Amount
		byService[m.Service] += m.Amount
	}
	if sum.TotalCost > 0 {
		sum.SavingsRate = sum.PotentialSavings / sum.TotalCost
	}

	for service, amount := range byService {
		sum.TopServices = append(sum.TopServices, models.ServiceCost{Service: service, Amount: amount})
	}
	sort.Slice(sum.TopServices, func(i, j int) bool {
		a, b := sum.TopServices[i], sum.TopServices[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Service < b.Service
	})
	if len(sum.TopServices) > topServices {
		sum.TopServices = sum.TopServices[:topServices]
	}
	return sum
}

func summarizeAlerts(alerts []models.SecurityAlert) models.SecuritySummary {
	sum := models.SecuritySummary{BySeverity: make(map[models.AlertSeverity]int)}
	for _, a := range alerts {
		if a.Status == models.AlertResolved {
			sum.ResolvedAlerts++
			continue
		}
		sum.OpenAlerts++
		sum.BySeverity[a.Severity]++
		if a.Severity == models.SeverityHigh || a.Severity == models.SeverityCritical {
			sum.CriticalAlerts++
		}
	}
	return sum
}

func summarizeArticles(rows []repository.ArticleStats) models.KnowledgeSummary {
	var sum models.KnowledgeSummary
	best := -1
	for _, a := range rows {
		sum.TotalArticles++
		sum.TotalViews += a.ViewCount
		switch a.ApprovalStatus {
		case models.ApprovalApproved:
			sum.Approved++
		case models.ApprovalPendingReview:
			sum.PendingReview++
		case models.ApprovalDraft:
			sum.Drafts++
		case models.ApprovalRejected:
			sum.Rejected++
		}
		if a.ViewCount > best || (a.ViewCount == best && a.ID < sum.MostViewedID) {
			best = a.ViewCount
			sum.MostViewedID = a.ID
			sum.MostViewed = a.Title
		}
	}
	return sum
}

func validPeriod(p string) error {
	if p == "" {
		return nil
	}
	if _, err := time.Parse(periodFormat, p); err != nil {
		return fmt.Errorf("%w: period %q is not YYYY-MM", ErrInvalidInput, p)
	}
	return nil
}

func (s *dashboardService) ListCostMetrics(ctx context.Context, from, to string) ([]models.CostMetric, error) {
	pr, err := s.ids.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validPeriod(from); err != nil {
		return nil, err
	}
	if err := validPeriod(to); err != nil {
		return nil, err
	}
	if from != "" && to != "" && from > to {
		return nil, fmt.Errorf("%w: from %s is after to %s", ErrInvalidInput, from, to)
	}

	org := pr.OrganizationID
	key := querycache.NewKey(TagCostMetrics).With("org", org).With("from", from).With("to", to)
	return querycache.GetOrFetch(ctx, s.cache, key, s.policies.list(), func(ctx context.Context) ([]models.CostMetric, error) {
		return s.metrics.ListCostMetrics(ctx, org, from, to)
	})
}

func (s *dashboardService) ListSecurityAlerts(ctx context.Context, status string) ([]models.SecurityAlert, error) {
	pr, err := s.ids.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	var st models.AlertStatus
	switch status {
	case "", filter.All:
	case string(models.AlertOpen), string(models.AlertResolved):
		st = models.AlertStatus(status)
	default:
		return nil, fmt.Errorf("%w: unknown alert status %q", ErrInvalidInput, status)
	}

	org := pr.OrganizationID
	key := querycache.NewKey(TagSecurityAlerts).With("org", org).With("status", string(st))
	return querycache.GetOrFetch(ctx, s.cache, key, s.policies.list(), func(ctx context.Context) ([]models.SecurityAlert, error) {
		return s.metrics.ListSecurityAlerts(ctx, org, st)
	})
}
