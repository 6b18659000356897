package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kbconsole/config"
	"kbconsole/database"
	"kbconsole/identity"
	"kbconsole/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Issuer = "kbconsole"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Cache.List = config.CachePolicy{Stale: 30 * time.Second, Retain: time.Minute}
	cfg.Cache.Stats = config.CachePolicy{Stale: time.Minute, Retain: 2 * time.Minute}
	cfg.Cache.JanitorInterval = time.Minute
	cfg.Search.Debounce = 500 * time.Millisecond
	return cfg
}

func TestTokenCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: cli-secret\n"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", path, "token", "--user", "rita", "--org", "acme", "--role", "reviewer"})
	require.NoError(t, rootCmd.Execute())

	jwtp, err := identity.NewJWTProvider([]byte("cli-secret"), "kbconsole", time.Hour)
	require.NoError(t, err)
	pr, err := jwtp.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "rita", pr.ID)
	assert.Equal(t, "acme", pr.OrganizationID)
	assert.True(t, pr.CanReview())
}

func TestSeedAndServeDashboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := zap.NewNop()
	require.NoError(t, seed(context.Background(), db, "demo", "author-1", log))

	var approved models.KnowledgeArticle
	require.NoError(t, db.Where("approval_status = ?", models.ApprovalApproved).First(&approved).Error)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, seedReviewer, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	cfg := testConfig()
	r, cache, err := newRouter(cfg, db, log)
	require.NoError(t, err)
	defer cache.Close()

	jwtp, err := identity.NewJWTProvider([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	require.NoError(t, err)
	token, err := jwtp.Issue(identity.Principal{ID: "viewer", OrganizationID: "demo"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data models.DashboardSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.Knowledge.TotalArticles)
	assert.Equal(t, 1, body.Data.Knowledge.Approved)
	assert.Equal(t, 1, body.Data.Knowledge.PendingReview)
	assert.Equal(t, 2, body.Data.Security.OpenAlerts)
	assert.Equal(t, 2, body.Data.Security.CriticalAlerts)
	assert.InDelta(t, 3*(1240+215+680), body.Data.Cost.TotalCost, 1e-6)
	require.NotEmpty(t, body.Data.Cost.TopServices)
	assert.Equal(t, "AmazonEC2", body.Data.Cost.TopServices[0].Service)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
