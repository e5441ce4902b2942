package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var scheduleFlags struct {
	schedule    string
	metricsAddr string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Prune on a cron schedule until interrupted",
	Long: `Run the prune on a cron schedule (with seconds) until SIGINT or SIGTERM.

Examples:
  # Every night at 02:00
  lazy-prune schedule --schedule "0 0 2 * * *"

  # Expose Prometheus metrics
  lazy-prune schedule --schedule @daily --metrics-addr :9090`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleFlags.schedule, "schedule", "", "cron expression, overrides PRUNE_SCHEDULE")
	scheduleCmd.Flags().StringVar(&scheduleFlags.metricsAddr, "metrics-addr", "", "listen address for /metrics, overrides PRUNE_METRICS_ADDR")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if scheduleFlags.schedule != "" {
		cfg.Schedule = scheduleFlags.schedule
	}
	if scheduleFlags.metricsAddr != "" {
		cfg.MetricsAddr = scheduleFlags.metricsAddr
	}

	manager, err := newManagerFromConfig(cmd, cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	if err := manager.Initialize(); err != nil {
		return err
	}

	if next, err := manager.GetNextRunTimes(3); err == nil {
		for _, t := range next {
			log.Printf("Next prune at %s", t.Format(time.RFC3339))
		}
	}

	var server *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", manager.Metrics().Handler())
		server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("Serving metrics on %s/metrics", cfg.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()
	log.Println("Shutdown signal received")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
	}
	return nil
}
