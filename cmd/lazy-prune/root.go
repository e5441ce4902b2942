package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	prune "github.com/vfa-khuongdv/lazy-prune"
	"github.com/vfa-khuongdv/lazy-prune/internal/config"
)

var (
	// Global flags
	cfgFile         string
	keep            int
	dryRun          bool
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "lazy-prune",
	Short: "Keep the newest backups in a Drive folder and delete the rest",
	Long: `lazy-prune lists the backups in a Google Drive folder, keeps the newest
ones and deletes everything older, one file at a time.

Credentials and the folder come from the environment:
  GDRIVE_CREDENTIALS_JSON  service account key (JSON)
  GDRIVE_FOLDER_ID         folder to prune

Examples:
  # Prune once
  lazy-prune

  # Keep the newest 14 backups
  lazy-prune --keep 14

  # Report what would be deleted
  lazy-prune --dry-run`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnce,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "optional YAML config file")
	rootCmd.PersistentFlags().IntVar(&keep, "keep", 0, "number of newest backups to keep (default 7)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report deletions without performing them")
	rootCmd.PersistentFlags().BoolVar(&continueOnError, "continue-on-error", false, "attempt every deletion even after a failure")
}

// loadConfig reads the config file and environment, then applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.FromEnv(cfgFile, os.LookupEnv)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("keep") {
		cfg.Keep = keep
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if flags.Changed("continue-on-error") {
		cfg.ContinueOnError = continueOnError
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newManager(cmd *cobra.Command) (*prune.PruneManager, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newManagerFromConfig(cmd, cfg)
}

func newManagerFromConfig(cmd *cobra.Command, cfg *config.Config) (*prune.PruneManager, error) {
	return prune.NewPruneManager(cfg, cmd.OutOrStdout())
}

func runOnce(cmd *cobra.Command, args []string) error {
	manager, err := newManager(cmd)
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx, stop := signalContext()
	defer stop()

	_, err = manager.RunOnce(ctx)
	return err
}
