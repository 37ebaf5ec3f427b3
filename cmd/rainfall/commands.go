package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/rainfall-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/rainfall-etl/internal/adapter/excel"
	httpadapter "github.com/couchcryptid/rainfall-etl/internal/adapter/http"
	"github.com/couchcryptid/rainfall-etl/internal/adapter/jsonstore"
	kafkaadapter "github.com/couchcryptid/rainfall-etl/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-etl/internal/adapter/plot"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
	"github.com/couchcryptid/rainfall-etl/internal/pipeline"
)

func (a *app) buildCmd() *cobra.Command {
	var input string
	var r domain.YearRange

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Reshape a CSV of readings into a year-keyed Dataset",
		Long: `build reads every (year, day, rainfall) row from --input, keeps the years in
[--start, --end], and writes rainfall_<start>_<end>.json to the output
directory. Years without readings are kept as empty tables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.Validate(); err != nil {
				return err
			}

			p, closeSinks := a.newPipeline(input, a.cfg.OutputDir)
			defer closeSinks()
			if _, err := p.Run(cmd.Context(), r); err != nil {
				return err
			}
			a.metrics.ArtifactsWritten.WithLabelValues("json").Inc()
			_, err := fmt.Fprintln(cmd.OutOrStdout(), jsonstore.DatasetPath(a.cfg.OutputDir, r))
			return err
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "CSV file of year,day,rainfall rows")
	cmd.Flags().IntVar(&r.Start, "start", 0, "first year to keep")
	cmd.Flags().IntVar(&r.End, "end", 0, "last year to keep")
	mustMarkRequired(cmd, "input", "start", "end")
	return cmd
}

// newPipeline wires the CSV source at input to the JSON file sink under dir
// plus the Kafka and MinIO sinks when configured. The returned func closes
// the sinks that hold connections.
func (a *app) newPipeline(input, dir string) (*pipeline.Pipeline, func()) {
	sinks := []pipeline.DatasetSink{jsonstore.NewFileSink(dir, a.logger)}
	closeSinks := func() {}
	if a.cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(a.cfg, a.logger)
		closeSinks = func() {
			if err := writer.Close(); err != nil {
				a.logger.Error("kafka writer close error", "error", err)
			}
		}
		sinks = append(sinks, writer)
	}
	if a.store != nil {
		sinks = append(sinks, a.store)
	}

	p := pipeline.New(csvfile.NewSource(input, a.logger), sinks, a.logger, a.metrics)
	p.SetRetry(a.cfg.SinkMaxAttempts, 200*time.Millisecond, 5*time.Second)
	return p, closeSinks
}

func (a *app) plotYearCmd() *cobra.Command {
	var dataset, colour string
	var year int

	cmd := &cobra.Command{
		Use:   "plot-year",
		Short: "Plot one year's daily rainfall to rainfall_<year>.png",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.loadDataset(dataset)
			if err != nil {
				return err
			}
			t, err := ds.Year(year)
			if err != nil {
				return err
			}
			path := plot.YearPath(a.cfg.OutputDir, year)
			if err := plot.YearSeries(t, year, colour, path); err != nil {
				return err
			}
			return a.publish(cmd.Context(), cmd.OutOrStdout(), "png", path)
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset JSON file")
	cmd.Flags().IntVar(&year, "year", 0, "year to plot")
	cmd.Flags().StringVar(&colour, "colour", "b", "line colour: r g b c m y k or its name")
	mustMarkRequired(cmd, "dataset", "year")
	return cmd
}

func (a *app) plotAnnualCmd() *cobra.Command {
	var dataset string
	var r domain.YearRange

	cmd := &cobra.Command{
		Use:   "plot-annual",
		Short: "Plot the annual mean rainfall of a year range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.Validate(); err != nil {
				return err
			}
			ds, err := a.loadDataset(dataset)
			if err != nil {
				return err
			}
			means, err := ds.AnnualMeans(r.Start, r.End)
			if err != nil {
				return err
			}
			path := plot.AnnualPath(a.cfg.OutputDir, r)
			if err := plot.AnnualMeanSeries(means, path); err != nil {
				return err
			}
			return a.publish(cmd.Context(), cmd.OutOrStdout(), "png", path)
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset JSON file")
	cmd.Flags().IntVar(&r.Start, "start", 0, "first year")
	cmd.Flags().IntVar(&r.End, "end", 0, "last year")
	mustMarkRequired(cmd, "dataset", "start", "end")
	return cmd
}

type correction struct {
	Year   int       `json:"year"`
	Style  string    `json:"style"`
	Factor float64   `json:"factor"`
	Values []float64 `json:"values"`
}

func (a *app) correctCmd() *cobra.Command {
	var dataset, styleName string
	var year int

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Print one year's values scaled by the gauge correction factor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			style, err := domain.ParseCorrectionStyle(styleName)
			if err != nil {
				return err
			}
			ds, err := a.loadDataset(dataset)
			if err != nil {
				return err
			}
			values, err := ds.Corrected(year, style)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(correction{
				Year:   year,
				Style:  string(style),
				Factor: domain.CorrectionFactor,
				Values: values,
			})
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset JSON file")
	cmd.Flags().IntVar(&year, "year", 0, "year to correct")
	cmd.Flags().StringVar(&styleName, "style", string(domain.StyleLoop), "loop or functional")
	mustMarkRequired(cmd, "dataset", "year")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var dataset string
	var r domain.YearRange

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a year range to an Excel workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.Validate(); err != nil {
				return err
			}
			ds, err := a.loadDataset(dataset)
			if err != nil {
				return err
			}
			path := excel.ExportPath(a.cfg.OutputDir, r)
			if err := excel.Export(ds, r, path); err != nil {
				return err
			}
			return a.publish(cmd.Context(), cmd.OutOrStdout(), "xlsx", path)
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset JSON file")
	cmd.Flags().IntVar(&r.Start, "start", 0, "first year")
	cmd.Flags().IntVar(&r.End, "end", 0, "last year")
	mustMarkRequired(cmd, "dataset", "start", "end")
	return cmd
}

// readinessChecks is ready once every check passes.
type readinessChecks []sharedobs.ReadinessChecker

func (c readinessChecks) CheckReadiness(ctx context.Context) error {
	for _, check := range c {
		if err := check.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) serveCmd() *cobra.Command {
	var input string
	var r domain.YearRange

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve persisted Datasets over HTTP",
		Long: `serve exposes every <name>.json Dataset under DATA_DIR through a read-only
JSON API, plus /healthz, /readyz, and /metrics, until SIGINT or SIGTERM.

With --input, serve first builds rainfall_<start>_<end>.json into DATA_DIR
in the background and reports not ready until that build has been stored.
A failed build stops the server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input != "" {
				if err := r.Validate(); err != nil {
					return err
				}
			}

			loader, err := httpadapter.NewDatasetLoader(a.cfg.DataDir, a.cfg.DatasetCacheSize, a.metrics)
			if err != nil {
				return err
			}
			ready := readinessChecks{loader}

			var p *pipeline.Pipeline
			if input != "" {
				var closeSinks func()
				p, closeSinks = a.newPipeline(input, a.cfg.DataDir)
				defer closeSinks()
				ready = append(ready, p)
			}
			srv := httpadapter.NewServer(a.cfg.HTTPAddr, ready, loader, a.metrics, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var wg sync.WaitGroup
			buildErr := make(chan error, 1)
			if p != nil {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := p.Run(ctx, r); err != nil && ctx.Err() == nil {
						buildErr <- fmt.Errorf("initial build: %w", err)
					}
				}()
			}

			var runErr error
			select {
			case <-ctx.Done():
			case runErr = <-errCh:
			case runErr = <-buildErr:
				a.logger.Error("initial build failed", "error", runErr)
			}
			a.logger.Info("shutting down")
			stop()
			wg.Wait()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http server shutdown error", "error", err)
				return err
			}
			a.logger.Info("shutdown complete")
			return runErr
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "CSV file to build into DATA_DIR before reporting ready")
	cmd.Flags().IntVar(&r.Start, "start", 0, "first year to keep when building")
	cmd.Flags().IntVar(&r.End, "end", 0, "last year to keep when building")
	cmd.MarkFlagsRequiredTogether("input", "start", "end")
	return cmd
}

func mustMarkRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}
