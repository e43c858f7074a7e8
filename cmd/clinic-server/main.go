package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/ml/dataset"
	"github.com/clinic/clinic/internal/ml/generator"
	"github.com/clinic/clinic/internal/ml/training"
	"github.com/clinic/clinic/internal/platform/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clinic-server",
		Short:         "Clinic patient portal and disease risk classifier",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(migrateCmd())
	return rootCmd
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// loadConfig loads and validates configuration and builds the logger for it.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg, logger)
		},
	}
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the synthetic disease-risk dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			gen := generator.Config{Rows: cfg.GeneratorRows, Seed: cfg.GeneratorSeed}
			out := cfg.DatasetPath
			if cmd.Flags().Changed("rows") {
				gen.Rows, _ = cmd.Flags().GetInt("rows")
			}
			if cmd.Flags().Changed("seed") {
				gen.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("out") {
				out, _ = cmd.Flags().GetString("out")
			}

			logger.Info().Int("rows", gen.Rows).Int64("seed", gen.Seed).Msg("generating dataset")
			res, err := generator.Generate(gen)
			if err != nil {
				return err
			}
			if err := dataset.WriteFile(out, res.Samples); err != nil {
				return err
			}

			ev := logger.Info().
				Str("path", out).
				Int("requested", res.Requested).
				Int("written", res.Unique()).
				Int("duplicates_removed", res.Removed).
				Dur("duration", res.Duration)
			counts := zerolog.Dict()
			for _, label := range dataset.Labels {
				counts.Int(label, res.LabelCounts[label])
			}
			ev.Dict("labels", counts).Msg("dataset written")
			return nil
		},
	}
	cmd.Flags().Int("rows", 0, "Number of rows to draw before de-duplication (default from GENERATOR_ROWS)")
	cmd.Flags().Int64("seed", 0, "Random seed (default from GENERATOR_SEED)")
	cmd.Flags().String("out", "", "Output CSV path (default from DATASET_PATH)")
	return cmd
}

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the unified classifier and write the model artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			tc := training.Config{
				DatasetPath: cfg.DatasetPath,
				ArtifactDir: cfg.ArtifactDir,
				TestSize:    cfg.TrainTestSize,
				Seed:        cfg.TrainSeed,
				Trees:       cfg.TrainTrees,
			}
			if cmd.Flags().Changed("dataset") {
				tc.DatasetPath, _ = cmd.Flags().GetString("dataset")
			}
			if cmd.Flags().Changed("artifacts") {
				tc.ArtifactDir, _ = cmd.Flags().GetString("artifacts")
			}
			if cmd.Flags().Changed("trees") {
				tc.Trees, _ = cmd.Flags().GetInt("trees")
			}
			if cmd.Flags().Changed("seed") {
				tc.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("test-size") {
				tc.TestSize, _ = cmd.Flags().GetFloat64("test-size")
			}
			tc.Workers, _ = cmd.Flags().GetInt("workers")

			res, err := training.Run(cmd.Context(), tc, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Report.String())
			return nil
		},
	}
	cmd.Flags().String("dataset", "", "Dataset CSV path (default from DATASET_PATH)")
	cmd.Flags().String("artifacts", "", "Artifact directory (default from ARTIFACT_DIR)")
	cmd.Flags().Int("trees", 0, "Number of trees (default from TRAIN_TREES)")
	cmd.Flags().Int64("seed", 0, "Split and forest seed (default from TRAIN_SEED)")
	cmd.Flags().Float64("test-size", 0, "Held-out fraction (default from TRAIN_TEST_SIZE)")
	cmd.Flags().Int("workers", 0, "Parallel tree builders, 0 means one per CPU")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
				for _, s := range statuses {
					status := "pending"
					appliedAt := ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func withMigrator(dir string, fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.UsePostgres() {
		return fmt.Errorf("DATABASE_URL is required for migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, dir))
}
