package filter

import (
	"kbconsole/models"
	"kbconsole/querycache"
)

// Tab is a predefined filter preset over the article list.
type Tab string

const (
	TabAll        Tab = "all"
	TabFavorites  Tab = "favorites"
	TabMyArticles Tab = "my-articles"
	TabPending    Tab = "pending"
)

// Tabs lists the presets in display order.
var Tabs = []Tab{TabAll, TabFavorites, TabMyArticles, TabPending}

// All is the sentinel selector value meaning "do not filter on this facet".
const All = "all"

// TagArticles is the cache tag of every article read.
const TagArticles querycache.Tag = "articles"

// TagFavorites is the cache tag of reads that depend on favorite pairs.
const TagFavorites querycache.Tag = "favorites"

// State is the client-held filter state of the article list.
type State struct {
	Query          string `json:"query"`           // as typed
	DebouncedQuery string `json:"debounced_query"` // what the list is filtered by
	Category       string `json:"category"`
	Tab            Tab    `json:"tab"`
	ApprovalStatus string `json:"approval_status"`
}

// DefaultState is the list's initial state: everything, no search.
func DefaultState() State {
	return State{Category: All, Tab: TabAll, ApprovalStatus: All}
}

// Params converts the state into composer input for an organization.
func (s State) Params(organizationID string) Params {
	return Params{
		OrganizationID: organizationID,
		Search:         s.DebouncedQuery,
		Category:       s.Category,
		Tab:            s.Tab,
		ApprovalStatus: s.ApprovalStatus,
	}
}

// Params are the independent facets the composer resolves into a Query.
type Params struct {
	OrganizationID string `form:"-" json:"organization_id"`
	Search         string `form:"q" json:"q"`
	Category       string `form:"category" json:"category"`
	Tab            Tab    `form:"tab" json:"tab"`
	ApprovalStatus string `form:"approval_status" json:"approval_status"`
}

// Normalized fills empty selectors with their "all" sentinel.
func (p Params) Normalized() Params {
	if p.Category == "" {
		p.Category = All
	}
	if p.Tab == "" {
		p.Tab = TabAll
	}
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = All
	}
	return p
}

// Key is the cache key of the list these params select for userID. Every facet that
// can change the result is part of it, including the user for the user-scoped tabs.
func (p Params) Key(userID string) querycache.Key {
	p = p.Normalized()
	return querycache.NewKey(TagArticles).
		With("org", p.OrganizationID).
		With("user", userID).
		With("q", p.Search).
		With("category", p.Category).
		With("tab", p.Tab).
		With("approval_status", p.ApprovalStatus)
}

// Query is the filter description handed to the article store.
type Query struct {
	OrganizationID string
	Category       models.ArticleCategory // empty: any
	ApprovalStatus models.ApprovalStatus  // empty: any
	AuthorID       string                 // empty: any
	ArticleIDs     []string               // nil: unconstrained
	Search         *Search                // nil: no free-text facet
	// Empty short-circuits the store: the result is known to be empty.
	Empty bool
}
