package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/rainfall-etl/internal/adapter/jsonstore"
	"github.com/couchcryptid/rainfall-etl/internal/adapter/minio"
	"github.com/couchcryptid/rainfall-etl/internal/config"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
	"github.com/couchcryptid/rainfall-etl/internal/observability"
)

// app carries the state shared by every subcommand. It is filled in by the
// root command's PersistentPreRunE.
type app struct {
	metrics   *observability.Metrics
	outputDir string

	cfg    *config.Config
	logger *slog.Logger
	store  *minio.Store // nil unless MINIO_ENDPOINT is set
}

func newRootCmd(metrics *observability.Metrics) *cobra.Command {
	a := &app{metrics: metrics}

	root := &cobra.Command{
		Use:   "rainfall",
		Short: "Reshape, analyse, and serve daily rainfall measurements",
		Long: `rainfall turns a headerless CSV of (year, day, rainfall) readings into a
year-keyed Dataset persisted as JSON, then plots, corrects, exports, or serves it.

Configuration is read from the environment (and a .env file when present).
Kafka publishing and MinIO uploads are enabled by KAFKA_BROKERS and
MINIO_ENDPOINT respectively.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.outputDir, "output-dir", "", "directory for generated files (overrides OUTPUT_DIR)")

	root.AddCommand(
		a.buildCmd(),
		a.plotYearCmd(),
		a.plotAnnualCmd(),
		a.correctCmd(),
		a.exportCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = a.outputDir
		if os.Getenv("DATA_DIR") == "" {
			cfg.DataDir = a.outputDir
		}
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(cfg)

	if cfg.MinioEnabled {
		store, err := minio.NewStore(cfg, a.logger)
		if err != nil {
			return err
		}
		a.store = store
		a.logger.Info("minio uploads enabled", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	}
	return nil
}

// loadDataset reads the persisted Dataset at path.
func (a *app) loadDataset(path string) (domain.Dataset, error) {
	ds, err := jsonstore.Load(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("dataset loaded", "path", path, "years", len(ds))
	return ds, nil
}

// publish records a generated artifact, uploads it when object storage is
// configured, and prints its path.
func (a *app) publish(ctx context.Context, out io.Writer, kind, path string) error {
	a.metrics.ArtifactsWritten.WithLabelValues(kind).Inc()
	a.logger.Info("artifact written", "kind", kind, "path", path)
	if a.store != nil {
		if err := a.store.UploadFile(ctx, path); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(out, path)
	return err
}
