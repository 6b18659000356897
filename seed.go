package main

import (
	"context"
	"fmt"
	"time"

	"kbconsole/config"
	"kbconsole/database"
	"kbconsole/models"
	"kbconsole/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const seedReviewer = "demo-reviewer"

var (
	flagSeedOrg    string
	flagSeedAuthor string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo articles, cost metrics and security alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := database.Init(config.AppConfig, log)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		return seed(cmd.Context(), db, flagSeedOrg, flagSeedAuthor, log)
	},
}

func init() {
	seedCmd.Flags().StringVar(&flagSeedOrg, "org", "demo", "organization to seed")
	seedCmd.Flags().StringVar(&flagSeedAuthor, "author", "demo-author", "author id of the seeded articles")
}

func seed(ctx context.Context, db *gorm.DB, org, author string, log *zap.Logger) error {
	articles := repository.NewArticleRepository(db, log)
	metrics := repository.NewMetricsRepository(db, log)

	demo := []models.KnowledgeArticle{
		{
			Title:          "Finding idle EC2 instances",
			Content:        "Filter CloudWatch `CPUUtilization` below 5% over 14 days and stop or rightsize the instances.",
			Category:       models.CategoryCost,
			Tags:           []string{"ec2", "rightsizing"},
			ApprovalStatus: models.ApprovalPendingReview,
		},
		{
			Title:          "Responding to a public S3 bucket alert",
			Content:        "1. Enable *Block Public Access*.\n2. Review the bucket policy.\n3. Check access logs for reads.",
			Category:       models.CategorySecurity,
			Tags:           []string{"s3", "incident"},
			ApprovalStatus: models.ApprovalPendingReview,
		},
		{
			Title:    "Tagging policy for cost allocation",
			Content:  "Every resource carries `team`, `env` and `service` tags.",
			Category: models.CategoryCompliance,
			Tags:     []string{"tagging"},
		},
	}
	// The first article goes through review so its approver fields are set.
	if err := models.Transition(&demo[0], models.ActionApprove, seedReviewer, "", time.Now()); err != nil {
		return fmt.Errorf("approving demo article: %w", err)
	}
	for i := range demo {
		demo[i].OrganizationID = org
		demo[i].AuthorID = author
		if err := articles.Create(ctx, &demo[i]); err != nil {
			return fmt.Errorf("seeding article %q: %w", demo[i].Title, err)
		}
	}

	var costs []models.CostMetric
	for _, period := range []string{"2026-07", "2026-08", "2026-09"} {
		costs = append(costs,
			models.CostMetric{OrganizationID: org, Service: "AmazonEC2", Region: "us-east-1", Period: period, Amount: 1240, PotentialSavings: 310},
			models.CostMetric{OrganizationID: org, Service: "AmazonS3", Region: "us-east-1", Period: period, Amount: 215, PotentialSavings: 40},
			models.CostMetric{OrganizationID: org, Service: "AmazonRDS", Region: "eu-west-1", Period: period, Amount: 680, PotentialSavings: 95},
		)
	}
	if err := metrics.CreateCostMetrics(ctx, costs); err != nil {
		return fmt.Errorf("seeding cost metrics: %w", err)
	}

	alerts := []models.SecurityAlert{
		{OrganizationID: org, Title: "S3 bucket allows public read", Severity: models.SeverityCritical, Resource: "arn:aws:s3:::demo-assets"},
		{OrganizationID: org, Title: "Root account used in the last 24h", Severity: models.SeverityHigh},
		{OrganizationID: org, Title: "Access key older than 90 days", Severity: models.SeverityMedium, Status: models.AlertResolved},
	}
	if err := metrics.CreateSecurityAlerts(ctx, alerts); err != nil {
		return fmt.Errorf("seeding security alerts: %w", err)
	}

	log.Info("seeded demo data",
		zap.String("org", org),
		zap.Int("articles", len(demo)),
		zap.Int("cost_metrics", len(costs)),
		zap.Int("security_alerts", len(alerts)))
	return nil
}
