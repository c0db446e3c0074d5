package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-gate/internal/config"
	"github.com/kozaktomas/face-gate/internal/platform"
	"github.com/kozaktomas/face-gate/internal/store/postgres"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync users from the platform database to the local cache",
	Long: `Sync user accounts and face descriptors from the platform's MariaDB
into the local PostgreSQL cache that the gate matches against.

Run this after users are created, deleted, or re-enrolled on the
platform side, or on a schedule.

Examples:
  # Run a full sync
  face-gate sync

  # JSON output for scripting
  face-gate sync --json`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// SyncResult represents the result of a sync operation
type SyncResult struct {
	Success       bool   `json:"success"`
	UsersScanned  int    `json:"users_scanned"`
	UsersEnrolled int    `json:"users_enrolled"`
	Errors        int    `json:"errors"`
	DurationMs    int64  `json:"duration_ms"`
	DurationHuman string `json:"duration_human,omitempty"`
}

func runSync(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	cfg := config.Load()
	startTime := time.Now()

	if cfg.Platform.DatabaseDSN == "" {
		return errors.New("PLATFORM_DATABASE_DSN environment variable is required")
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	userRepo := postgres.NewUserRepository(postgres.GetGlobalPool())

	if !jsonOutput {
		fmt.Println("Connecting to platform database...")
	}
	pool, err := platform.NewPool(cfg.Platform.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to platform database: %w", err)
	}
	defer pool.Close()

	source := platform.NewUserSource(pool, cfg.Platform.UserTable)
	users, err := source.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list platform users: %w", err)
	}

	if !jsonOutput {
		fmt.Printf("Found %d platform users to sync\n\n", len(users))
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(users),
			progressbar.OptionSetDescription("Syncing users"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
		)
	}

	result := SyncResult{Success: true}
	for i := range users {
		result.UsersScanned++
		if users[i].Enrolled() {
			result.UsersEnrolled++
		}
		if err := userRepo.Upsert(ctx, users[i]); err != nil {
			result.Errors++
			if !jsonOutput {
				fmt.Printf("\nfailed to sync user id=%d: %v\n", users[i].ID, err)
			}
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	result.Success = result.Errors == 0
	result.DurationMs = time.Since(startTime).Milliseconds()
	result.DurationHuman = time.Since(startTime).Round(time.Millisecond).String()

	if jsonOutput {
		return outputJSON(result)
	}

	fmt.Printf("\n\nSynced %d users (%d enrolled) in %s\n",
		result.UsersScanned, result.UsersEnrolled, result.DurationHuman)
	if result.Errors > 0 {
		return fmt.Errorf("%d users failed to sync", result.Errors)
	}
	return nil
}
