package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/asana-dump/internal/asana"
	"github.com/joescharf/asana-dump/internal/output"
	"github.com/joescharf/asana-dump/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui       *output.UI
	logger   *slog.Logger
	runStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "asana-dump <output-file>",
	Short: "Export Asana projects to CSV",
	Long: `asana-dump walks every workspace, team and unarchived project visible
to an Asana personal access token and writes one CSV row per project:
workspace, team, project id, name, status, owner, start and due date.

The token is read from ASANA_DUMP_TOKEN or asana.token in the config file.
The exit status is non-zero whenever the export is incomplete.`,
	Args:              requireOutputArg,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd.Context(), args[0])
	},
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/asana-dump/config.yaml)")
	addExportFlags(rootCmd)
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ASANA_DUMP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("asana.token", "ASANA_DUMP_TOKEN")

	dir, _ := configDirFunc()
	setDefaults(dir)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default value.
func setDefaults(configDir string) {
	viper.SetDefault("asana.token", "")
	viper.SetDefault("asana.base_url", asana.DefaultBaseURL)
	viper.SetDefault("asana.timeout", "0s")
	viper.SetDefault("asana.page_size", 0)
	viper.SetDefault("export.raw", false)
	viper.SetDefault("export.remarks", false)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("db_path", filepath.Join(configDir, "asana-dump.db"))
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	logger = output.NewLogger(os.Stderr, verbose)

	// The history store is opened lazily; config and version commands
	// run without a database.
}

// newAPIClient builds the Asana session from configuration.
func newAPIClient() (*asana.Client, error) {
	token := viper.GetString("asana.token")
	if token == "" {
		return nil, fmt.Errorf("no Asana token configured: set ASANA_DUMP_TOKEN or asana.token (see 'asana-dump config show')")
	}

	return asana.NewClient(viper.GetString("asana.base_url"), token,
		asana.WithTimeout(viper.GetDuration("asana.timeout")),
		asana.WithPageSize(viper.GetInt("asana.page_size")),
		asana.WithLogger(logger),
	), nil
}

// getStore returns the shared history store, initializing it on first call.
func getStore() (store.Store, error) {
	if runStore != nil {
		return runStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	runStore = s
	return runStore, nil
}

// historyStore returns the store exports are recorded in, or nil when
// history is disabled or unavailable.
func historyStore() store.Store {
	if exportNoHistory || !viper.GetBool("history.enabled") {
		return nil
	}
	s, err := getStore()
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		return nil
	}
	return s
}
