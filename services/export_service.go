package services

import (
	"context"

	"kbconsole/export"

	"go.uber.org/zap"
)

// ExportService renders articles the caller can read as downloadable documents.
type ExportService interface {
	Export(ctx context.Context, articleID string, format export.Format) (*export.Result, error)
}

type exportService struct {
	articles ArticleService
	log      *zap.Logger
}

// NewExportService creates a new instance of ExportService.
func NewExportService(articles ArticleService, log *zap.Logger) ExportService {
	return &exportService{articles: articles, log: log.Named("ExportService")}
}

func (s *exportService) Export(ctx context.Context, articleID string, format export.Format) (*export.Result, error) {
	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	res, err := export.Render(article, format)
	if err != nil {
		s.log.Error("export failed", zap.String("article", articleID), zap.String("format", string(format)), zap.Error(err))
		return nil, err
	}
	s.log.Info("article exported",
		zap.String("article", articleID),
		zap.String("format", string(format)),
		zap.Int("bytes", len(res.Content)))
	return res, nil
}
