package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CostMetric is the monthly spend of one service in one region.
type CostMetric struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrganizationID   string    `gorm:"index;uniqueIndex:idx_cost_metrics_key;not null" json:"organization_id"`
	Service          string    `gorm:"uniqueIndex:idx_cost_metrics_key;not null" json:"service"` // e.g. "AmazonEC2"
	Region           string    `gorm:"uniqueIndex:idx_cost_metrics_key;not null;default:''" json:"region"`
	Period           string    `gorm:"type:varchar(7);index;uniqueIndex:idx_cost_metrics_key;not null" json:"period"` // YYYY-MM
	Amount           float64   `json:"amount"`
	PotentialSavings float64   `json:"potential_savings"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for the CostMetric model.
func (CostMetric) TableName() string {
	return "cost_metrics"
}

func (m *CostMetric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// AlertSeverity ranks a security finding.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AlertStatus is the triage state of a security finding.
type AlertStatus string

const (
	AlertOpen     AlertStatus = "open"
	AlertResolved AlertStatus = "resolved"
)

// SecurityAlert is a security posture finding on one resource.
type SecurityAlert struct {
	ID             string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrganizationID string        `gorm:"index;not null" json:"organization_id"`
	Title          string        `gorm:"not null" json:"title"`
	Severity       AlertSeverity `gorm:"type:varchar(16);index;not null" json:"severity"`
	Status         AlertStatus   `gorm:"type:varchar(16);index;default:'open';not null" json:"status"`
	Resource       string        `json:"resource"` // ARN or resource id
	DetectedAt     time.Time     `json:"detected_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName specifies the table name for the SecurityAlert model.
func (SecurityAlert) TableName() string {
	return "security_alerts"
}

func (s *SecurityAlert) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = AlertOpen
	}
	if s.DetectedAt.IsZero() {
		s.DetectedAt = time.Now()
	}
	return nil
}
