package repository

import (
	"context"
	"fmt"

	"kbconsole/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricsRepository reads the cost and security feeds of an organization.
type MetricsRepository interface {
	// ListCostMetrics returns metrics whose period lies in [from, to]. Empty bounds are open.
	ListCostMetrics(ctx context.Context, organizationID, from, to string) ([]models.CostMetric, error)
	// ListSecurityAlerts returns alerts in status, or every alert when status is empty.
	ListSecurityAlerts(ctx context.Context, organizationID string, status models.AlertStatus) ([]models.SecurityAlert, error)
	// CreateCostMetrics inserts metrics. A row for an existing (org, service, region, period)
	// replaces that row's amounts, so re-importing a billing export is idempotent.
	CreateCostMetrics(ctx context.Context, metrics []models.CostMetric) error
	CreateSecurityAlerts(ctx context.Context, alerts []models.SecurityAlert) error
}

type metricsRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewMetricsRepository creates a new instance of MetricsRepository.
func NewMetricsRepository(db *gorm.DB, log *zap.Logger) MetricsRepository {
	return &metricsRepository{db: db, log: log.Named("MetricsRepository")}
}

func (r *metricsRepository) ListCostMetrics(ctx context.Context, organizationID, from, to string) ([]models.CostMetric, error) {
	metrics := []models.CostMetric{}
	tx := r.db.WithContext(ctx).Where("organization_id = ?", organizationID)
	if from != "" {
		tx = tx.Where("period >= ?", from)
	}
	if to != "" {
		tx = tx.Where("period <= ?", to)
	}
	if err := tx.Order("period").Order("service").Find(&metrics).Error; err != nil {
		r.log.Error("failed to list cost metrics", zap.String("org", organizationID), zap.Error(err))
		return nil, fmt.Errorf("failed to list cost metrics for %s: %w", organizationID, err)
	}
	return metrics, nil
}

func (r *metricsRepository) ListSecurityAlerts(ctx context.Context, organizationID string, status models.AlertStatus) ([]models.SecurityAlert, error) {
	alerts := []models.SecurityAlert{}
	tx := r.db.WithContext(ctx).Where("organization_id = ?", organizationID)
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if err := tx.Order("detected_at desc").Find(&alerts).Error; err != nil {
		r.log.Error("failed to list security alerts", zap.String("org", organizationID), zap.Error(err))
		return nil, fmt.Errorf("failed to list security alerts for %s: %w", organizationID, err)
	}
	return alerts, nil
}

func (r *metricsRepository) CreateCostMetrics(ctx context.Context, metrics []models.CostMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "organization_id"}, {Name: "service"}, {Name: "region"}, {Name: "period"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "potential_savings"}),
	}).CreateInBatches(&metrics, 100).Error
	if err != nil {
		r.log.Error("failed to insert cost metrics", zap.Int("count", len(metrics)), zap.Error(err))
		return fmt.Errorf("failed to insert cost metrics: %w", err)
	}
	return nil
}

func (r *metricsRepository) CreateSecurityAlerts(ctx context.Context, alerts []models.SecurityAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&alerts, 100).Error; err != nil {
		r.log.Error("failed to insert security alerts", zap.Int("count", len(alerts)), zap.Error(err))
		return fmt.Errorf("failed to insert security alerts: %w", err)
	}
	return nil
}
