package models

// InitResponse defines the structure for the /api/init endpoint response.
type InitResponse struct {
	UserID           string            `json:"user_id"`
	Email            string            `json:"email"`
	OrganizationID   string            `json:"organization_id"`
	Role             string            `json:"role"`
	CanReview        bool              `json:"can_review"`
	Categories       []ArticleCategory `json:"categories"`
	ApprovalStatuses []ApprovalStatus  `json:"approval_statuses"`
	Tabs             []string          `json:"tabs"`
	ExportFormats    []string          `json:"export_formats"`
	SearchDebounceMS int64             `json:"search_debounce_ms"`
	Cache            CacheInfo         `json:"cache"`
}

// CacheInfo advertises the server-side cache windows in seconds.
type CacheInfo struct {
	ListStaleSeconds   float64 `json:"list_stale_seconds"`
	ListRetainSeconds  float64 `json:"list_retain_seconds"`
	StatsStaleSeconds  float64 `json:"stats_stale_seconds"`
	StatsRetainSeconds float64 `json:"stats_retain_seconds"`
}
