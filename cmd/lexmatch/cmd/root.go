package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/cognicore/lexmatch/internal/logging"
	"github.com/cognicore/lexmatch/internal/metrics"
	"github.com/cognicore/lexmatch/pkg/lexmatch/catalog"
	"github.com/cognicore/lexmatch/pkg/lexmatch/config"
	"github.com/cognicore/lexmatch/pkg/lexmatch/store"
	"github.com/cognicore/lexmatch/pkg/lexmatch/store/memstore"
	"github.com/cognicore/lexmatch/pkg/lexmatch/store/sqlite"
	"github.com/cognicore/lexmatch/pkg/lexmatch/textnorm"
)

var (
	configPath string
	logLevel   string
	metricsOut string
)

var rootCmd = &cobra.Command{
	Use:           "lexmatch",
	Short:         "Dictionary entity annotation",
	Long:          "Build a surface-form database from an entity catalog and annotate text with exact, fuzzy and partial matches.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "lexmatch.yaml", "configuration file (defaults apply when missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics", "", "write Prometheus text metrics to this file on exit (- for stderr)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(statsCmd)
}

// env is what every subcommand needs: configuration, a logger and the
// command's metrics.
type env struct {
	cfg      config.Config
	logger   logging.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func loadEnv() (*env, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &env{cfg: cfg, logger: logger, registry: reg, metrics: metrics.New(reg)}, nil
}

// normalizer returns the catalog normalizer for the configured language.
// Documents must be tokenized with its lemmatizer and stemmer.
func (e *env) normalizer() *catalog.Normalizer {
	return catalog.NewNormalizer(textnorm.RuleLemmatizer{}, textnorm.NewSnowball(e.cfg.Build.Language))
}

// writeMetrics dumps the registry when --metrics is set.
func (e *env) writeMetrics(stderr io.Writer) error {
	if metricsOut == "" {
		return nil
	}
	families, err := e.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	w := stderr
	if metricsOut != "-" {
		f, err := os.Create(metricsOut)
		if err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		defer f.Close()
		w = f
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// openStore opens the configured snapshot store. The memory driver only
// lives for the duration of the command.
func (e *env) openStore(ctx context.Context) (store.Store, error) {
	switch e.cfg.Store.Driver {
	case "", "memory":
		return memstore.New(), nil
	case "sqlite":
		return sqlite.OpenSQLite(ctx, e.cfg.Store.DSN)
	}
	return nil, fmt.Errorf("unknown store driver %q", e.cfg.Store.Driver)
}

// persistentStore returns the store only when it outlives the process.
func (e *env) persistentStore(ctx context.Context) (store.Store, error) {
	if e.cfg.Store.Driver != "sqlite" {
		return nil, nil
	}
	return e.openStore(ctx)
}
