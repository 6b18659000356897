package services

import (
	"context"
	"errors"

	"kbconsole/filter"
	"kbconsole/identity"
	"kbconsole/querycache"
	"kbconsole/repository"

	"go.uber.org/zap"
)

// FavoriteService flips the current user's favorite mark on an article.
type FavoriteService interface {
	// Toggle reports whether the article is favorited after the call.
	Toggle(ctx context.Context, articleID string) (bool, error)
}

type favoriteService struct {
	articles  ArticleService
	favorites repository.FavoriteRepository
	ids       identity.Provider
	cache     *querycache.Cache
	log       *zap.Logger
}

// NewFavoriteService creates a new instance of FavoriteService.
func NewFavoriteService(articles ArticleService, favorites repository.FavoriteRepository, ids identity.Provider, cache *querycache.Cache, log *zap.Logger) FavoriteService {
	return &favoriteService{
		articles:  articles,
		favorites: favorites,
		ids:       ids,
		cache:     cache,
		log:       log.Named("FavoriteService"),
	}
}

func (s *favoriteService) Toggle(ctx context.Context, articleID string) (bool, error) {
	pr, err := s.ids.CurrentUser(ctx)
	if err != nil {
		return false, err
	}
	if _, err := s.articles.Get(ctx, articleID); err != nil {
		return false, err
	}

	exists, err := s.favorites.Exists(ctx, pr.ID, articleID)
	if err != nil {
		return false, err
	}

	favorited := !exists
	if exists {
		if _, err := s.favorites.Delete(ctx, pr.ID, articleID); err != nil {
			return false, err
		}
	} else if err := s.favorites.Create(ctx, pr.ID, articleID); err != nil {
		// Lost a race with another toggle that created the pair.
		if !errors.Is(err, repository.ErrDuplicateFavorite) {
			return false, err
		}
		s.log.Debug("favorite already present", zap.String("user", pr.ID), zap.String("article", articleID))
	}

	s.cache.Invalidate(filter.TagFavorites)
	return favorited, nil
}
