package repository

import (
	"context"
	"errors"
	"fmt"

	"kbconsole/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FavoriteRepository defines the interface for the (user, article) favorite set.
type FavoriteRepository interface {
	Exists(ctx context.Context, userID, articleID string) (bool, error)
	// Create returns ErrDuplicateFavorite when the pair is already present.
	Create(ctx context.Context, userID, articleID string) error
	// Delete reports whether a pair was removed.
	Delete(ctx context.Context, userID, articleID string) (bool, error)
	ListFavoriteArticleIDs(ctx context.Context, userID string) ([]string, error)
}

type favoriteRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewFavoriteRepository creates a new instance of FavoriteRepository.
func NewFavoriteRepository(db *gorm.DB, log *zap.Logger) FavoriteRepository {
	return &favoriteRepository{db: db, log: log.Named("FavoriteRepository")}
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, articleID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ArticleFavorite{}).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&count).Error
	if err != nil {
		r.log.Error("failed to check favorite", zap.String("user", userID), zap.String("article", articleID), zap.Error(err))
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

func (r *favoriteRepository) Create(ctx context.Context, userID, articleID string) error {
	fav := models.ArticleFavorite{UserID: userID, ArticleID: articleID}
	if err := r.db.WithContext(ctx).Create(&fav).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateFavorite
		}
		r.log.Error("failed to create favorite", zap.String("user", userID), zap.String("article", articleID), zap.Error(err))
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	return nil
}

func (r *favoriteRepository) Delete(ctx context.Context, userID, articleID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&models.ArticleFavorite{})
	if res.Error != nil {
		r.log.Error("failed to delete favorite", zap.String("user", userID), zap.String("article", articleID), zap.Error(res.Error))
		return false, fmt.Errorf("failed to delete favorite: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *favoriteRepository) ListFavoriteArticleIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.ArticleFavorite{}).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Pluck("article_id", &ids).Error
	if err != nil {
		r.log.Error("failed to list favorites", zap.String("user", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list favorites of user %s: %w", userID, err)
	}
	return ids, nil
}
