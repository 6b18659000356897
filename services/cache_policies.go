package services

import (
	"time"

	"kbconsole/config"
	"kbconsole/querycache"
)

// Cache tags beyond the ones owned by the filter package.
const (
	TagArticleVersions querycache.Tag = "article-versions"
	TagDashboard       querycache.Tag = "dashboard"
	TagCostMetrics     querycache.Tag = "cost-metrics"
	TagSecurityAlerts  querycache.Tag = "security-alerts"
)

// CachePolicies are the windows applied to list reads and to aggregate reads.
type CachePolicies struct {
	List  querycache.Policy
	Stats querycache.Policy
}

// DefaultCachePolicies mirrors the configuration defaults.
var DefaultCachePolicies = CachePolicies{
	List:  querycache.Policy{StaleAfter: 30 * time.Second, RetainFor: 60 * time.Second},
	Stats: querycache.Policy{StaleAfter: 60 * time.Second, RetainFor: 120 * time.Second},
}

// NewCachePolicies converts the configured windows.
func NewCachePolicies(list, stats config.CachePolicy) CachePolicies {
	return CachePolicies{
		List:  querycache.Policy{StaleAfter: list.Stale, RetainFor: list.Retain},
		Stats: querycache.Policy{StaleAfter: stats.Stale, RetainFor: stats.Retain},
	}
}

func (p CachePolicies) list(dependsOn ...querycache.Tag) querycache.Policy {
	pol := p.List
	pol.DependsOn = dependsOn
	return pol
}

func (p CachePolicies) stats(dependsOn ...querycache.Tag) querycache.Policy {
	pol := p.Stats
	pol.DependsOn = dependsOn
	return pol
}
