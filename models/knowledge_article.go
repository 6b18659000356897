package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArticleCategory is the subject area an article is filed under.
type ArticleCategory string

const (
	CategoryGeneral         ArticleCategory = "general"
	CategorySecurity        ArticleCategory = "security"
	CategoryCost            ArticleCategory = "cost"
	CategoryOperations      ArticleCategory = "operations"
	CategoryCompliance      ArticleCategory = "compliance"
	CategoryTroubleshooting ArticleCategory = "troubleshooting"
)

// Categories lists every category in display order.
var Categories = []ArticleCategory{
	CategoryGeneral,
	CategorySecurity,
	CategoryCost,
	CategoryOperations,
	CategoryCompliance,
	CategoryTroubleshooting,
}

// Valid reports whether c is one of the known categories.
func (c ArticleCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// KnowledgeArticle represents an article in the knowledge base.
type KnowledgeArticle struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrganizationID  string          `gorm:"index;not null" json:"organization_id"`
	Title           string          `gorm:"not null" json:"title"`
	Content         string          `gorm:"type:text" json:"content"`
	Category        ArticleCategory `gorm:"type:varchar(32);index;not null" json:"category"`
	Tags            []string        `gorm:"serializer:json;type:text" json:"tags"`
	IsPublic        bool            `gorm:"default:false" json:"is_public"`
	IsRestricted    bool            `gorm:"default:false" json:"is_restricted"`
	ApprovalStatus  ApprovalStatus  `gorm:"type:varchar(32);index;default:'draft';not null" json:"approval_status"`
	ViewCount       int             `gorm:"default:0" json:"view_count"`
	HelpfulCount    int             `gorm:"default:0" json:"helpful_count"`
	Version         int             `gorm:"default:1;not null" json:"version"`
	AuthorID        string          `gorm:"index;not null" json:"author_id"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the KnowledgeArticle model.
func (KnowledgeArticle) TableName() string {
	return "knowledge_articles"
}

// BeforeCreate assigns an id and fills the lifecycle defaults.
func (a *KnowledgeArticle) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.ApprovalStatus == "" {
		a.ApprovalStatus = ApprovalDraft
	}
	if a.Version == 0 {
		a.Version = 1
	}
	a.Tags = NormalizeTags(a.Tags)
	return nil
}

// NormalizeTags trims every tag, drops empty ones and removes repeats,
// keeping the first occurrence of each.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ArticleInput carries the author-editable fields of an article.
type ArticleInput struct {
	Title        string          `json:"title" binding:"required"`
	Content      string          `json:"content"`
	Category     ArticleCategory `json:"category" binding:"required"`
	Tags         []string        `json:"tags"`
	IsPublic     bool            `json:"is_public"`
	IsRestricted bool            `json:"is_restricted"`
}

// ArticleVersion is a snapshot of an article taken right before an edit.
type ArticleVersion struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ArticleID string          `gorm:"index;not null" json:"article_id"`
	Version   int             `gorm:"not null" json:"version"`
	Title     string          `gorm:"not null" json:"title"`
	Content   string          `gorm:"type:text" json:"content"`
	Category  ArticleCategory `gorm:"type:varchar(32)" json:"category"`
	Tags      []string        `gorm:"serializer:json;type:text" json:"tags"`
	EditorID  string          `json:"editor_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName specifies the table name for the ArticleVersion model.
func (ArticleVersion) TableName() string {
	return "article_versions"
}

func (v *ArticleVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// ArticleFavorite marks an article as favorited by one user. The pair is unique.
type ArticleFavorite struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_favorite_user_article;not null" json:"user_id"`
	ArticleID string    `gorm:"uniqueIndex:idx_favorite_user_article;index;not null" json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the ArticleFavorite model.
func (ArticleFavorite) TableName() string {
	return "article_favorites"
}

func (f *ArticleFavorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// DeviceType is the coarse client classification recorded with a view.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
)

// ArticleView records a single detailed view of an article.
type ArticleView struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ArticleID  string     `gorm:"index;not null" json:"article_id"`
	ViewerID   *string    `gorm:"index" json:"viewer_id,omitempty"`
	DeviceType DeviceType `gorm:"type:varchar(16);not null" json:"device_type"`
	UserAgent  string     `json:"user_agent"`
	ViewedAt   time.Time  `gorm:"index" json:"viewed_at"`
}

// TableName specifies the table name for the ArticleView model.
func (ArticleView) TableName() string {
	return "article_views"
}

func (v *ArticleView) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.ViewedAt.IsZero() {
		v.ViewedAt = time.Now()
	}
	return nil
}
