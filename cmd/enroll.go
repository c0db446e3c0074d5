package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-gate/internal/config"
	"github.com/kozaktomas/face-gate/internal/constants"
	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/platform"
	"github.com/kozaktomas/face-gate/internal/store"
	"github.com/kozaktomas/face-gate/internal/store/postgres"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll or clear a face descriptor for a platform user",
	Long: `Enroll a face descriptor for a platform user, or clear an existing one.

The user is looked up in the platform database by email or by display
name (diacritics-insensitive). The descriptor is a JSON array of 128
floats, as produced by face-api.js in the browser.

Examples:
  # Enroll from a descriptor file
  face-gate enroll --email admin@example.com --file descriptor.json

  # Look the user up by name instead
  face-gate enroll --name "Jan Novak" --file descriptor.json

  # Remove an enrollment
  face-gate enroll --email admin@example.com --clear`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("email", "", "Platform user email")
	enrollCmd.Flags().String("name", "", "Platform user display name")
	enrollCmd.Flags().String("file", "", "Path to a JSON descriptor file")
	enrollCmd.Flags().Bool("clear", false, "Remove the user's enrollment instead of adding one")
}

// resolveEnrollUser finds the target user in the platform database.
func resolveEnrollUser(ctx context.Context, source *platform.UserSource, email, name string) (*store.EnrolledUser, error) {
	if email != "" {
		return source.GetByEmail(ctx, email)
	}
	return source.FindByDisplayName(ctx, name)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	email := mustGetString(cmd, "email")
	name := mustGetString(cmd, "name")
	file := mustGetString(cmd, "file")
	clear := mustGetBool(cmd, "clear")

	if email == "" && name == "" {
		return errors.New("either --email or --name is required")
	}
	if !clear && file == "" {
		return errors.New("--file is required unless --clear is set")
	}

	ctx := context.Background()
	cfg := config.Load()

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

	pool, err := platform.NewPool(cfg.Platform.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to platform database: %w", err)
	}
	defer pool.Close()

	source := platform.NewUserSource(pool, cfg.Platform.UserTable)
	user, err := resolveEnrollUser(ctx, source, email, name)
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return errors.New("no matching platform user found")
	}

	// Mirror the platform record into the cache before touching its descriptor.
	if err := userRepo.Upsert(ctx, *user); err != nil {
		return fmt.Errorf("caching user: %w", err)
	}

	if clear {
		if err := userRepo.ClearDescriptor(ctx, user.ID); err != nil {
			return fmt.Errorf("clearing descriptor: %w", err)
		}
		fmt.Printf("Cleared enrollment for %s (id=%d)\n", user.Email, user.ID)
		return nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading descriptor file: %w", err)
	}
	d, err := descriptor.ParseJSON(data)
	if err != nil {
		return fmt.Errorf("parsing descriptor: %w", err)
	}
	if !d.ValidDim() {
		return fmt.Errorf("descriptor must have %d components, got %d", constants.DescriptorDim, len(d))
	}

	if err := userRepo.SetDescriptor(ctx, user.ID, d); err != nil {
		return fmt.Errorf("storing descriptor: %w", err)
	}

	fmt.Printf("Enrolled %s (id=%d)\n", user.Email, user.ID)
	return nil
}
