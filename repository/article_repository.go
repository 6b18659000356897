package repository

import (
	"context"
	"errors"
	"fmt"

	"kbconsole/filter"
	"kbconsole/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Counter names an integer column that can be bumped atomically.
type Counter string

const (
	CounterViews   Counter = "view_count"
	CounterHelpful Counter = "helpful_count"
)

// ArticleStats is the slice of an article the dashboard aggregates over.
type ArticleStats struct {
	ID             string
	Title          string
	ApprovalStatus models.ApprovalStatus
	ViewCount      int
}

// ArticleRepository defines the interface for interacting with knowledge articles.
type ArticleRepository interface {
	List(ctx context.Context, q filter.Query) ([]models.KnowledgeArticle, error)
	Get(ctx context.Context, id string) (*models.KnowledgeArticle, error)
	Create(ctx context.Context, article *models.KnowledgeArticle) error
	// Update snapshots the stored article as a version, applies in and bumps Version.
	Update(ctx context.Context, id string, in models.ArticleInput, editorID string) (*models.KnowledgeArticle, error)
	// SaveApproval persists the workflow fields of article, provided its stored status
	// is still from.
	SaveApproval(ctx context.Context, article *models.KnowledgeArticle, from models.ApprovalStatus) error
	// Delete removes the article together with its versions, favorites and views.
	Delete(ctx context.Context, id string) error
	ListVersions(ctx context.Context, articleID string) ([]models.ArticleVersion, error)
	IncrementCounter(ctx context.Context, id string, counter Counter) error
	// RecordView stores view and bumps the article's view counter in one transaction.
	RecordView(ctx context.Context, view *models.ArticleView) error
	ListStats(ctx context.Context, organizationID string) ([]ArticleStats, error)
}

type articleRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewArticleRepository creates a new instance of ArticleRepository.
func NewArticleRepository(db *gorm.DB, log *zap.Logger) ArticleRepository {
	return &articleRepository{db: db, log: log.Named("ArticleRepository")}
}

// List runs q. An Empty query returns no rows without touching the database.
func (r *articleRepository) List(ctx context.Context, q filter.Query) ([]models.KnowledgeArticle, error) {
	articles := []models.KnowledgeArticle{}
	if q.Empty {
		return articles, nil
	}

	tx := r.db.WithContext(ctx).Model(&models.KnowledgeArticle{})
	if q.OrganizationID != "" {
		tx = tx.Where("organization_id = ?", q.OrganizationID)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.ApprovalStatus != "" {
		tx = tx.Where("approval_status = ?", q.ApprovalStatus)
	}
	if q.AuthorID != "" {
		tx = tx.Where("author_id = ?", q.AuthorID)
	}
	if q.ArticleIDs != nil {
		tx = tx.Where("id IN ?", q.ArticleIDs)
	}
	if s := q.Search; s != nil {
		tx = tx.Where(
			"LOWER(title) LIKE ? ESCAPE '"+filter.LikeEscape+"' OR LOWER(content) LIKE ? ESCAPE '"+filter.LikeEscape+"' OR LOWER(tags) LIKE ? ESCAPE '"+filter.LikeEscape+"'",
			s.TextPattern, s.TextPattern, s.TagPattern,
		)
	}

	if err := tx.Order("updated_at desc").Order("id").Find(&articles).Error; err != nil {
		r.log.Error("failed to list articles", zap.String("org", q.OrganizationID), zap.Error(err))
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	r.log.Debug("listed articles", zap.String("org", q.OrganizationID), zap.Int("count", len(articles)))
	return articles, nil
}

func (r *articleRepository) Get(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	var article models.KnowledgeArticle
	err := r.db.WithContext(ctx).First(&article, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
		}
		r.log.Error("failed to retrieve article", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve article %s: %w", id, err)
	}
	return &article, nil
}

func (r *articleRepository) Create(ctx context.Context, article *models.KnowledgeArticle) error {
	if article == nil {
		return errors.New("article cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		r.log.Error("failed to create article", zap.String("author", article.AuthorID), zap.Error(err))
		return fmt.Errorf("failed to create article: %w", err)
	}
	r.log.Info("created article", zap.String("id", article.ID), zap.String("author", article.AuthorID))
	return nil
}

func (r *articleRepository) Update(ctx context.Context, id string, in models.ArticleInput, editorID string) (*models.KnowledgeArticle, error) {
	var updated models.KnowledgeArticle
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.KnowledgeArticle
		if err := tx.First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("article %s: %w", id, ErrNotFound)
			}
			return err
		}

		snapshot := models.ArticleVersion{
			ArticleID: current.ID,
			Version:   current.Version,
			Title:     current.Title,
			Content:   current.Content,
			Category:  current.Category,
			Tags:      current.Tags,
			EditorID:  editorID,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return fmt.Errorf("failed to snapshot version %d: %w", current.Version, err)
		}

		// Struct updates so the tags serializer applies; Select writes the zero-valued flags too.
		res := tx.Model(&models.KnowledgeArticle{ID: current.ID}).
			Where("version = ?", current.Version).
			Select("title", "content", "category", "tags", "is_public", "is_restricted", "version", "updated_at").
			Updates(&models.KnowledgeArticle{
				Title:        in.Title,
				Content:      in.Content,
				Category:     in.Category,
				Tags:         models.NormalizeTags(in.Tags),
				IsPublic:     in.IsPublic,
				IsRestricted: in.IsRestricted,
				Version:      current.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("article %s: %w", id, ErrStaleWrite)
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Error("failed to update article", zap.String("id", id), zap.Error(err))
		}
		return nil, fmt.Errorf("failed to update article %s: %w", id, err)
	}
	r.log.Info("updated article", zap.String("id", id), zap.Int("version", updated.Version), zap.String("editor", editorID))
	return &updated, nil
}

func (r *articleRepository) SaveApproval(ctx context.Context, article *models.KnowledgeArticle, from models.ApprovalStatus) error {
	res := r.db.WithContext(ctx).Model(&models.KnowledgeArticle{}).
		Where("id = ? AND approval_status = ?", article.ID, from).
		Updates(map[string]interface{}{
			"approval_status":  article.ApprovalStatus,
			"approved_by":      article.ApprovedBy,
			"approved_at":      article.ApprovedAt,
			"rejection_reason": article.RejectionReason,
		})
	if res.Error != nil {
		r.log.Error("failed to save approval state", zap.String("id", article.ID), zap.Error(res.Error))
		return fmt.Errorf("failed to save approval state of article %s: %w", article.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("article %s is no longer %s: %w", article.ID, from, ErrStaleWrite)
	}
	r.log.Info("approval state changed",
		zap.String("id", article.ID),
		zap.String("from", string(from)),
		zap.String("to", string(article.ApprovalStatus)))
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleFavorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleView{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.KnowledgeArticle{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("article %s: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		r.log.Error("failed to delete article", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete article %s: %w", id, err)
	}
	r.log.Info("deleted article", zap.String("id", id))
	return nil
}

func (r *articleRepository) ListVersions(ctx context.Context, articleID string) ([]models.ArticleVersion, error) {
	versions := []models.ArticleVersion{}
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("version desc").
		Find(&versions).Error
	if err != nil {
		r.log.Error("failed to list versions", zap.String("article", articleID), zap.Error(err))
		return nil, fmt.Errorf("failed to list versions of article %s: %w", articleID, err)
	}
	return versions, nil
}

func (r *articleRepository) IncrementCounter(ctx context.Context, id string, counter Counter) error {
	switch counter {
	case CounterViews, CounterHelpful:
	default:
		return fmt.Errorf("unknown counter %q", counter)
	}
	res := r.db.WithContext(ctx).Model(&models.KnowledgeArticle{}).
		Where("id = ?", id).
		UpdateColumn(string(counter), gorm.Expr(string(counter)+" + 1"))
	if res.Error != nil {
		r.log.Error("failed to increment counter", zap.String("id", id), zap.String("counter", string(counter)), zap.Error(res.Error))
		return fmt.Errorf("failed to increment %s of article %s: %w", counter, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *articleRepository) RecordView(ctx context.Context, view *models.ArticleView) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.KnowledgeArticle{}).
			Where("id = ?", view.ArticleID).
			UpdateColumn(string(CounterViews), gorm.Expr(string(CounterViews)+" + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("article %s: %w", view.ArticleID, ErrNotFound)
		}
		return tx.Create(view).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		r.log.Error("failed to record view", zap.String("article", view.ArticleID), zap.Error(err))
		return fmt.Errorf("failed to record view of article %s: %w", view.ArticleID, err)
	}
	return nil
}

func (r *articleRepository) ListStats(ctx context.Context, organizationID string) ([]ArticleStats, error) {
	var rows []ArticleStats
	err := r.db.WithContext(ctx).Model(&models.KnowledgeArticle{}).
		Select("id", "title", "approval_status", "view_count").
		Where("organization_id = ?", organizationID).
		Scan(&rows).Error
	if err != nil {
		r.log.Error("failed to load article stats", zap.String("org", organizationID), zap.Error(err))
		return nil, fmt.Errorf("failed to load article stats for %s: %w", organizationID, err)
	}
	return rows, nil
}
