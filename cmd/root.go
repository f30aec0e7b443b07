package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bugboard/bugboard/internal/comments"
	"github.com/bugboard/bugboard/internal/issues"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/output"
	"github.com/bugboard/bugboard/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	asEmail string

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "bugboard",
	Short: "BugBoard - issue tracking with roles, archival, and history",
	Long: `bugboard tracks issues through their lifecycle: reporting, triage,
assignment, status changes, archival, and comments. Every mutation is
permission-checked against the acting account and recorded in an
append-only history log.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&asEmail, "as", "", "Act as this account (email); overrides actor_email config")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/bugboard/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "bugboard")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BUGBOARD")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "bugboard")

	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "bugboard.db"))
	viper.SetDefault("actor_email", "")
	viper.SetDefault("auth.secret", "")
	viper.SetDefault("issues.allow_closed", false)
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	// Store is initialized lazily so config/version commands run without
	// a database.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getIssueService builds the issue service on top of the shared store.
func getIssueService() (*issues.Service, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	return issues.NewService(s, notify.NewService(s), allowClosed()), nil
}

func getCommentService() (*comments.Service, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	return comments.NewService(s), nil
}

func allowClosed() bool {
	return viper.GetBool("issues.allow_closed")
}

// getActor resolves the acting account from --as or the actor_email config
// key. Every permission check runs against it.
func getActor(ctx context.Context) (*models.User, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}

	email := asEmail
	if email == "" {
		email = viper.GetString("actor_email")
	}
	if email == "" {
		return nil, fmt.Errorf("no acting account: pass --as <email> or set actor_email in config")
	}

	actor, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("account not found: %s (create it with 'bugboard user add')", email)
	}
	return actor, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(ui.Out, "bugboard %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
