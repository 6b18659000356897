package main

import (
	"fmt"
	"os"
	"time"

	"kbconsole/config"
	"kbconsole/database"
	"kbconsole/identity"
	"kbconsole/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "kbconsole",
	Short: "Knowledge base admin backend",
	Long:  "kbconsole serves the knowledge base, approval workflow and cost/security dashboard API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadConfig(flagConfig)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
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
		log.Info("database migration completed")
		return nil
	},
}

var (
	flagTokenUser  string
	flagTokenOrg   string
	flagTokenRole  string
	flagTokenEmail string
	flagTokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local use",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.AppConfig
		ttl := cfg.Auth.TokenTTL
		if flagTokenTTL > 0 {
			ttl = flagTokenTTL
		}
		jwtp, err := identity.NewJWTProvider([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, ttl)
		if err != nil {
			return err
		}
		token, err := jwtp.Issue(identity.Principal{
			ID:             flagTokenUser,
			Email:          flagTokenEmail,
			OrganizationID: flagTokenOrg,
			Role:           identity.Role(flagTokenRole),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")

	tokenCmd.Flags().StringVar(&flagTokenUser, "user", "", "user id (required)")
	tokenCmd.Flags().StringVar(&flagTokenOrg, "org", "", "organization id (required)")
	tokenCmd.Flags().StringVar(&flagTokenRole, "role", string(identity.RoleMember), "member, reviewer or admin")
	tokenCmd.Flags().StringVar(&flagTokenEmail, "email", "", "email address")
	tokenCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("org")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(seedCmd)
}

// newLogger builds the process logger from the loaded configuration and installs it
// as the zap global, which utils.SendJSONError logs through.
func newLogger() (*zap.Logger, error) {
	log, err := logging.New(config.AppConfig.Log.Level)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
