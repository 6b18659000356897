package services

import (
	"context"
	"regexp"

	"kbconsole/filter"
	"kbconsole/identity"
	"kbconsole/models"
	"kbconsole/querycache"
	"kbconsole/repository"

	"go.uber.org/zap"
)

var mobileAgent = regexp.MustCompile(`(?i)Mobile|Android|iPhone`)

// ClassifyDevice derives the device type recorded with a view from a user agent.
func ClassifyDevice(userAgent string) models.DeviceType {
	if mobileAgent.MatchString(userAgent) {
		return models.DeviceMobile
	}
	return models.DeviceDesktop
}

// TrackingService records reader engagement with articles.
type TrackingService interface {
	RecordView(ctx context.Context, articleID, userAgent string) error
	MarkHelpful(ctx context.Context, articleID string) error
}

type trackingService struct {
	articles ArticleService
	repo     repository.ArticleRepository
	ids      identity.Provider
	cache    *querycache.Cache
	log      *zap.Logger
}

// NewTrackingService creates a new instance of TrackingService.
func NewTrackingService(articles ArticleService, repo repository.ArticleRepository, ids identity.Provider, cache *querycache.Cache, log *zap.Logger) TrackingService {
	return &trackingService{
		articles: articles,
		repo:     repo,
		ids:      ids,
		cache:    cache,
		log:      log.Named("TrackingService"),
	}
}

// RecordView stores one detailed view. Views do not invalidate cached reads; the
// counter catches up when the list entry goes stale.
func (s *trackingService) RecordView(ctx context.Context, articleID, userAgent string) error {
	if _, err := s.articles.Get(ctx, articleID); err != nil {
		return err
	}
	view := &models.ArticleView{
		ArticleID:  articleID,
		DeviceType: ClassifyDevice(userAgent),
		UserAgent:  userAgent,
	}
	if pr, err := s.ids.CurrentUser(ctx); err == nil {
		viewer := pr.ID
		view.ViewerID = &viewer
	}
	if err := s.repo.RecordView(ctx, view); err != nil {
		return err
	}
	s.log.Debug("view recorded", zap.String("article", articleID), zap.String("device", string(view.DeviceType)))
	return nil
}

func (s *trackingService) MarkHelpful(ctx context.Context, articleID string) error {
	if _, err := s.articles.Get(ctx, articleID); err != nil {
		return err
	}
	if err := s.repo.IncrementCounter(ctx, articleID, repository.CounterHelpful); err != nil {
		return err
	}
	s.cache.Invalidate(filter.TagArticles)
	return nil
}
