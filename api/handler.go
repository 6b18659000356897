package api

import (
	"errors"
	"fmt"
	"net/http"

	"kbconsole/config"
	"kbconsole/export"
	"kbconsole/filter"
	"kbconsole/identity"
	"kbconsole/models"
	"kbconsole/services"
	"kbconsole/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIHandler holds all dependencies for API handlers.
type APIHandler struct {
	articles  services.ArticleService
	favorites services.FavoriteService
	tracking  services.TrackingService
	exports   services.ExportService
	dashboard services.DashboardService
	ids       identity.Provider
	cfg       config.Config
	log       *zap.Logger
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(
	articles services.ArticleService,
	favorites services.FavoriteService,
	tracking services.TrackingService,
	exports services.ExportService,
	dashboard services.DashboardService,
	ids identity.Provider,
	cfg config.Config,
	log *zap.Logger,
) *APIHandler {
	return &APIHandler{
		articles:  articles,
		favorites: favorites,
		tracking:  tracking,
		exports:   exports,
		dashboard: dashboard,
		ids:       ids,
		cfg:       cfg,
		log:       log.Named("APIHandler"),
	}
}

// sendServiceError maps a service error onto a status code. publicMsg is used for
// server errors only; client errors show the error itself.
func sendServiceError(c *gin.Context, err error, publicMsg string) {
	switch {
	case errors.Is(err, identity.ErrNotAuthenticated):
		utils.SendJSONError(c, http.StatusUnauthorized, "Authentication required.", err)
	case errors.Is(err, services.ErrForbidden):
		utils.SendJSONError(c, http.StatusForbidden, "You are not allowed to do this.", err)
	case errors.Is(err, services.ErrNotFound):
		utils.SendJSONError(c, http.StatusNotFound, "Article not found.", err)
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, filter.ErrInvalidFacet),
		errors.Is(err, models.ErrRejectionReasonRequired),
		errors.Is(err, export.ErrUnsupportedFormat):
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request.", err, err.Error())
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, services.ErrConflict):
		utils.SendJSONError(c, http.StatusConflict, "The article is not in a state that allows this.", err, err.Error())
	default:
		utils.SendJSONError(c, http.StatusInternalServerError, publicMsg, err)
	}
}

// InitHandler returns the signed-in user and the static facets a client needs to
// render the knowledge base.
// GET /api/init
func (h *APIHandler) InitHandler(c *gin.Context) {
	pr, err := h.ids.CurrentUser(c.Request.Context())
	if err != nil {
		sendServiceError(c, err, "")
		return
	}

	tabs := make([]string, len(filter.Tabs))
	for i, t := range filter.Tabs {
		tabs[i] = string(t)
	}
	response := models.InitResponse{
		UserID:           pr.ID,
		Email:            pr.Email,
		OrganizationID:   pr.OrganizationID,
		Role:             string(pr.Role),
		CanReview:        pr.CanReview(),
		Categories:       models.Categories,
		ApprovalStatuses: models.ApprovalStatuses,
		Tabs:             tabs,
		ExportFormats:    []string{string(export.FormatMarkdown), string(export.FormatHTML), string(export.FormatPDF)},
		SearchDebounceMS: h.cfg.Search.Debounce.Milliseconds(),
		Cache: models.CacheInfo{
			ListStaleSeconds:   h.cfg.Cache.List.Stale.Seconds(),
			ListRetainSeconds:  h.cfg.Cache.List.Retain.Seconds(),
			StatsStaleSeconds:  h.cfg.Cache.Stats.Stale.Seconds(),
			StatsRetainSeconds: h.cfg.Cache.Stats.Retain.Seconds(),
		},
	}
	utils.SendJSON(c, http.StatusOK, "Success", response)
}

// SignOutHandler revokes the caller's token.
// POST /api/auth/signout
func (h *APIHandler) SignOutHandler(c *gin.Context) {
	if err := h.ids.SignOut(c.Request.Context()); err != nil {
		sendServiceError(c, err, "Failed to sign out.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Signed out", nil)
}

// ListArticlesHandler lists articles for the filter in the query string.
// GET /api/articles?q=&category=&tab=&approval_status=
func (h *APIHandler) ListArticlesHandler(c *gin.Context) {
	var params filter.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid query parameters.", err)
		return
	}
	articles, err := h.articles.List(c.Request.Context(), params)
	if err != nil {
		sendServiceError(c, err, "Failed to list articles.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Articles retrieved successfully", articles)
}

// CreateArticleHandler creates a draft.
// POST /api/articles
func (h *APIHandler) CreateArticleHandler(c *gin.Context) {
	var in models.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	article, err := h.articles.Create(c.Request.Context(), in)
	if err != nil {
		sendServiceError(c, err, "Failed to create article.")
		return
	}
	utils.SendJSON(c, http.StatusCreated, "Article created", article)
}

// GetArticleHandler returns one article.
// GET /api/articles/:id
func (h *APIHandler) GetArticleHandler(c *gin.Context) {
	article, err := h.articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err, "Failed to fetch article.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Article retrieved successfully", article)
}

// UpdateArticleHandler edits an article and snapshots the previous version.
// PUT /api/articles/:id
func (h *APIHandler) UpdateArticleHandler(c *gin.Context) {
	var in models.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	article, err := h.articles.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		sendServiceError(c, err, "Failed to update article.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Article updated", article)
}

// DeleteArticleHandler removes an article with its versions, favorites and views.
// DELETE /api/articles/:id
func (h *APIHandler) DeleteArticleHandler(c *gin.Context) {
	if err := h.articles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		sendServiceError(c, err, "Failed to delete article.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Article deleted", nil)
}

// ListVersionsHandler returns the edit history, newest first.
// GET /api/articles/:id/versions
func (h *APIHandler) ListVersionsHandler(c *gin.Context) {
	versions, err := h.articles.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err, "Failed to fetch versions.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Versions retrieved successfully", versions)
}

// SubmitArticleHandler POST /api/articles/:id/submit
func (h *APIHandler) SubmitArticleHandler(c *gin.Context) {
	article, err := h.articles.SubmitForReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err, "Failed to submit article.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Article submitted for review", article)
}

// ApproveArticleHandler POST /api/articles/:id/approve
func (h *APIHandler) ApproveArticleHandler(c *gin.Context) {
	article, err := h.articles.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err, "Failed to approve article.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Article approved", article)
}

// RejectArticleHandler POST /api/articles/:id/reject
// Request body: { "reason": "string" }
func (h *APIHandler) RejectArticleHandler(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
			return
		}
	}
	article, err := h.articles.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		sendServiceError(c, err, "Failed to reject article.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Article rejected", article)
}

// ToggleFavoriteHandler POST /api/articles/:id/favorite
func (h *APIHandler) ToggleFavoriteHandler(c *gin.Context) {
	favorited, err := h.favorites.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendServiceError(c, err, "Failed to update favorite.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Favorite updated", gin.H{"favorited": favorited})
}

// RecordViewHandler POST /api/articles/:id/view
func (h *APIHandler) RecordViewHandler(c *gin.Context) {
	if err := h.tracking.RecordView(c.Request.Context(), c.Param("id"), c.Request.UserAgent()); err != nil {
		sendServiceError(c, err, "Failed to record view.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "View recorded", nil)
}

// MarkHelpfulHandler POST /api/articles/:id/helpful
func (h *APIHandler) MarkHelpfulHandler(c *gin.Context) {
	if err := h.tracking.MarkHelpful(c.Request.Context(), c.Param("id")); err != nil {
		sendServiceError(c, err, "Failed to record feedback.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Feedback recorded", nil)
}

// ExportArticleHandler sends the rendered article as a download.
// GET /api/articles/:id/export?format=markdown|html|pdf
func (h *APIHandler) ExportArticleHandler(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		sendServiceError(c, err, "")
		return
	}
	res, err := h.exports.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		sendServiceError(c, err, "Failed to export article.")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Filename))
	c.Data(http.StatusOK, res.MimeType, res.Content)
}

// DashboardSummaryHandler GET /api/dashboard/summary
func (h *APIHandler) DashboardSummaryHandler(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		sendServiceError(c, err, "Failed to build dashboard summary.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Summary generated successfully", summary)
}

// CostMetricsHandler GET /api/cost-metrics?from=YYYY-MM&to=YYYY-MM
func (h *APIHandler) CostMetricsHandler(c *gin.Context) {
	metrics, err := h.dashboard.ListCostMetrics(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		sendServiceError(c, err, "Failed to fetch cost metrics.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Cost metrics retrieved successfully", metrics)
}

// SecurityAlertsHandler GET /api/security-alerts?status=open|resolved|all
func (h *APIHandler) SecurityAlertsHandler(c *gin.Context) {
	alerts, err := h.dashboard.ListSecurityAlerts(c.Request.Context(), c.Query("status"))
	if err != nil {
		sendServiceError(c, err, "Failed to fetch security alerts.")
		return
	}
	utils.SendJSON(c, http.StatusOK, "Security alerts retrieved successfully", alerts)
}
