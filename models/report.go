package models

import "time"

// CostSummary aggregates the cost metrics of the reporting window.
type CostSummary struct {
	TotalCost        float64            `json:"total_cost"`
	PotentialSavings float64            `json:"potential_savings"`
	SavingsRate      float64            `json:"savings_rate"`       // PotentialSavings / TotalCost
	TopServices      []ServiceCost      `json:"top_services"`       // Highest spend first
	CostByMonth      map[string]float64 `json:"cost_by_month"`      // "YYYY-MM" -> amount
}

// ServiceCost is the spend attributed to one AWS service.
type ServiceCost struct {
	Service string  `json:"service"`
	Amount  float64 `json:"amount"`
}

// SecuritySummary counts alerts by state.
type SecuritySummary struct {
	OpenAlerts     int                   `json:"open_alerts"`
	CriticalAlerts int                   `json:"critical_alerts"` // Open alerts with severity high or critical
	ResolvedAlerts int                   `json:"resolved_alerts"`
	BySeverity     map[AlertSeverity]int `json:"by_severity"`     // Open alerts only
}

// KnowledgeSummary counts articles per approval status.
type KnowledgeSummary struct {
	TotalArticles int    `json:"total_articles"`
	Approved      int    `json:"approved"`
	PendingReview int    `json:"pending_review"`
	Drafts        int    `json:"drafts"`
	Rejected      int    `json:"rejected"`
	TotalViews    int    `json:"total_views"`
	MostViewedID  string `json:"most_viewed_id,omitempty"`
	MostViewed    string `json:"most_viewed,omitempty"`
}

// DashboardSummary is the payload of the dashboard overview tab.
type DashboardSummary struct {
	OrganizationID string           `json:"organization_id"`
	Cost           CostSummary      `json:"cost"`
	Security       SecuritySummary  `json:"security"`
	Knowledge      KnowledgeSummary `json:"knowledge"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
