package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kbconsole/filter"
	"kbconsole/identity"
	"kbconsole/models"
	"kbconsole/querycache"
	"kbconsole/repository"

	"go.uber.org/zap"
)

// ArticleService defines the knowledge-base operations available to a signed-in user.
// Every operation is scoped to the principal's organization.
type ArticleService interface {
	List(ctx context.Context, p filter.Params) ([]models.KnowledgeArticle, error)
	Get(ctx context.Context, id string) (*models.KnowledgeArticle, error)
	ListVersions(ctx context.Context, id string) ([]models.ArticleVersion, error)
	Create(ctx context.Context, in models.ArticleInput) (*models.KnowledgeArticle, error)
	Update(ctx context.Context, id string, in models.ArticleInput) (*models.KnowledgeArticle, error)
	Delete(ctx context.Context, id string) error

	SubmitForReview(ctx context.Context, id string) (*models.KnowledgeArticle, error)
	Approve(ctx context.Context, id string) (*models.KnowledgeArticle, error)
	Reject(ctx context.Context, id string, reason string) (*models.KnowledgeArticle, error)
}

type articleService struct {
	articles  repository.ArticleRepository
	favorites repository.FavoriteRepository
	ids       identity.Provider
	cache     *querycache.Cache
	policies  CachePolicies
	now       func() time.Time
	log       *zap.Logger
}

// NewArticleService creates a new instance of ArticleService.
func NewArticleService(
	articles repository.ArticleRepository,
	favorites repository.FavoriteRepository,
	ids identity.Provider,
	cache *querycache.Cache,
	policies CachePolicies,
	log *zap.Logger,
) ArticleService {
	return &articleService{
		articles:  articles,
		favorites: favorites,
		ids:       ids,
		cache:     cache,
		policies:  policies,
		now:       time.Now,
		log:       log.Named("ArticleService"),
	}
}

// List composes p for the current user and serves the result through the cache.
// The organization always comes from the principal.
func (s *articleService) List(ctx context.Context, p filter.Params) ([]models.KnowledgeArticle, error) {
	pr, err := s.ids.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	p.OrganizationID = pr.OrganizationID
	p = p.Normalized()

	policy := s.policies.list()
	if p.Tab == filter.TabFavorites {
		policy = s.policies.list(filter.TagFavorites)
	}

	return querycache.GetOrFetch(ctx, s.cache, p.Key(pr.ID), policy, func(ctx context.Context) ([]models.KnowledgeArticle, error) {
		q, err := filter.Compose(ctx, p, s.ids, s.favorites)
		if err != nil {
			return nil, err
		}
		return s.articles.List(ctx, q)
	})
}

func (s *articleService) Get(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	pr, err := s.ids.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	key := querycache.NewKey(filter.TagArticles).With("id", id)
	article, err := querycache.GetOrFetch(ctx, s.cache, key, s.policies.list(), func(ctx context.Context) (*models.KnowledgeArticle, error) {
		return s.articles.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if article.OrganizationID != pr.OrganizationID {
		return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	// Callers may mutate the result; the cached pointer stays untouched.
	out := *article
	return &out, nil
}

func (s *articleService) ListVersions(ctx context.Context, id string) ([]models.ArticleVersion, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	key := querycache.NewKey(TagArticleVersions).With("article", id)
	return querycache.GetOrFetch(ctx, s.cache, key, s.policies.list(), func(ctx context.Context) ([]models.ArticleVersion, error) {
		return s.articles.ListVersions(ctx, id)
	})
}

func validateInput(in *models.ArticleInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	in.Tags = models.NormalizeTags(in.Tags)
	return nil
}

// Create stores a new draft authored by the current user.
func (s *articleService) Create(ctx context.Context, in models.ArticleInput) (*models.KnowledgeArticle, error) {
	pr, err := s.ids.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	article := &models.KnowledgeArticle{
		OrganizationID: pr.OrganizationID,
		Title:          in.Title,
		Content:        in.Content,
		Category:       in.Category,
		Tags:           in.Tags,
		IsPublic:       in.IsPublic,
		IsRestricted:   in.IsRestricted,
		ApprovalStatus: models.ApprovalDraft,
		AuthorID:       pr.ID,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}
	s.cache.Invalidate(filter.TagArticles)
	s.log.Info("article created", zap.String("id", article.ID), zap.String("author", pr.ID))
	return article, nil
}

// editable loads the article for a write by its author or an admin.
func (s *articleService) editable(ctx context.Context, id string) (*identity.Principal, *models.KnowledgeArticle, error) {
	pr, err := s.ids.CurrentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	article, err := s.load(ctx, pr, id)
	if err != nil {
		return nil, nil, err
	}
	if article.AuthorID != pr.ID && !pr.IsAdmin() {
		return nil, nil, fmt.Errorf("user %s may not modify article %s: %w", pr.ID, id, ErrForbidden)
	}
	return pr, article, nil
}

// load reads the article live from the store, bypassing the cache, for a write.
func (s *articleService) load(ctx context.Context, pr *identity.Principal, id string) (*models.KnowledgeArticle, error) {
	article, err := s.articles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.OrganizationID != pr.OrganizationID {
		return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return article, nil
}

func (s *articleService) Update(ctx context.Context, id string, in models.ArticleInput) (*models.KnowledgeArticle, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	pr, _, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.articles.Update(ctx, id, in, pr.ID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(filter.TagArticles, TagArticleVersions)
	return updated, nil
}

func (s *articleService) Delete(ctx context.Context, id string) error {
	if _, _, err := s.editable(ctx, id); err != nil {
		return err
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(filter.TagArticles, TagArticleVersions, filter.TagFavorites)
	s.log.Info("article deleted", zap.String("id", id))
	return nil
}

// SubmitForReview moves the caller's draft to pending_review.
func (s *articleService) SubmitForReview(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	_, article, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, article, models.ActionSubmit, "", "")
}

func (s *articleService) Approve(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	pr, article, err := s.reviewable(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, article, models.ActionApprove, pr.ID, "")
}

func (s *articleService) Reject(ctx context.Context, id string, reason string) (*models.KnowledgeArticle, error) {
	pr, article, err := s.reviewable(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, article, models.ActionReject, pr.ID, reason)
}

func (s *articleService) reviewable(ctx context.Context, id string) (*identity.Principal, *models.KnowledgeArticle, error) {
	pr, err := s.ids.CurrentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !pr.CanReview() {
		return nil, nil, fmt.Errorf("user %s may not review articles: %w", pr.ID, ErrForbidden)
	}
	article, err := s.load(ctx, pr, id)
	if err != nil {
		return nil, nil, err
	}
	return pr, article, nil
}

func (s *articleService) transition(ctx context.Context, article *models.KnowledgeArticle, action models.ApprovalAction, actorID, reason string) (*models.KnowledgeArticle, error) {
	from := article.ApprovalStatus
	if err := models.Transition(article, action, actorID, reason, s.now()); err != nil {
		s.log.Info("transition refused",
			zap.String("id", article.ID),
			zap.String("action", string(action)),
			zap.String("from", string(from)),
			zap.Error(err))
		return nil, err
	}
	if err := s.articles.SaveApproval(ctx, article, from); err != nil {
		return nil, err
	}
	s.cache.Invalidate(filter.TagArticles)
	return article, nil
}
