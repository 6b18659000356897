// Package filter turns the independent article-list facets into a store query and
// keeps the client-side filter state with a debounced free-text facet.
package filter

import (
	"context"
	"errors"
	"fmt"

	"kbconsole/identity"
	"kbconsole/models"
)

// ErrInvalidFacet is returned for a category or status selector outside its enum.
var ErrInvalidFacet = errors.New("invalid filter facet")

// FavoriteLister resolves the ids of the articles a user has favorited.
type FavoriteLister interface {
	ListFavoriteArticleIDs(ctx context.Context, userID string) ([]string, error)
}

// Compose resolves p into a Query.
//
// The tab facet is resolved first: favorites costs one lookup through favs and
// short-circuits to an empty query when the user has none; my-articles scopes to the
// author; pending forces pending_review; any other non-all tab forces approved. The
// approval facet applies only where the tab did not force a status. A failed identity
// lookup on a user-scoped tab yields an empty query rather than an error.
func Compose(ctx context.Context, p Params, ids identity.Provider, favs FavoriteLister) (Query, error) {
	p = p.Normalized()
	q := Query{OrganizationID: p.OrganizationID}

	if p.Category != All {
		c := models.ArticleCategory(p.Category)
		if !c.Valid() {
			return Query{}, fmt.Errorf("%w: category %q", ErrInvalidFacet, p.Category)
		}
		q.Category = c
	}

	var approval models.ApprovalStatus
	if p.ApprovalStatus != All {
		approval = models.ApprovalStatus(p.ApprovalStatus)
		if !approval.Valid() {
			return Query{}, fmt.Errorf("%w: approval status %q", ErrInvalidFacet, p.ApprovalStatus)
		}
	}

	forced := false
	switch p.Tab {
	case TabAll:
	case TabFavorites:
		pr, err := ids.CurrentUser(ctx)
		if err != nil {
			return Query{Empty: true}, nil
		}
		favorites, err := favs.ListFavoriteArticleIDs(ctx, pr.ID)
		if err != nil {
			return Query{}, fmt.Errorf("resolving favorites for user %s: %w", pr.ID, err)
		}
		if len(favorites) == 0 {
			return Query{Empty: true}, nil
		}
		q.ArticleIDs = favorites
	case TabMyArticles:
		pr, err := ids.CurrentUser(ctx)
		if err != nil {
			return Query{Empty: true}, nil
		}
		q.AuthorID = pr.ID
	case TabPending:
		q.ApprovalStatus = models.ApprovalPendingReview
		forced = true
	default:
		q.ApprovalStatus = models.ApprovalApproved
		forced = true
	}

	if !forced && approval != "" {
		q.ApprovalStatus = approval
	}
	q.Search = NewSearch(p.Search)
	return q, nil
}
