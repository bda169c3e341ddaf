package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/lexmatch/internal/fetch"
	"github.com/cognicore/lexmatch/pkg/lexmatch/artifact"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

var (
	buildRaw     string
	buildOut     string
	buildNoFetch bool
	buildKeep    int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch the catalog and build the surface-form database",
	Long: `Runs fetch, normalize, token distribution and surface-form generation in order.
When the fetch fails, the existing raw catalog is used instead.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildRaw, "raw", "", "raw catalog path (overrides paths.raw)")
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "surface db path (overrides paths.surface_db)")
	buildCmd.Flags().BoolVar(&buildNoFetch, "no-fetch", false, "build from the raw catalog on disk")
	buildCmd.Flags().IntVar(&buildKeep, "keep", 0, "prune stored snapshots to the newest N (0 keeps all)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.logger.Sync()
	ctx := cmd.Context()

	cfg := e.cfg
	if buildRaw != "" {
		cfg.Paths.Raw = buildRaw
	}
	if buildOut != "" {
		cfg.Paths.SurfaceDB = buildOut
	}

	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runner := &artifact.Runner{
		Normalizer: e.normalizer(),
		Builder:    surface.NewBuilder(cfg.BuildOptions()),
		Store:      st,
		Paths:      cfg.Paths,
		Logger:     e.logger,
		Metrics:    e.metrics,
	}
	if cfg.Fetch.URL != "" && !buildNoFetch {
		runner.Fetcher = &fetch.Client{
			URL:          cfg.Fetch.URL,
			TokenURL:     cfg.Fetch.TokenURL,
			ClientID:     cfg.Fetch.ClientID,
			ClientSecret: cfg.Fetch.ClientSecret,
			Scope:        cfg.Fetch.Scope,
			Timeout:      cfg.Fetch.Timeout,
		}
	}

	res, err := runner.Run(ctx)
	if werr := e.writeMetrics(cmd.ErrOrStderr()); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		return err
	}
	if buildKeep > 0 {
		if _, err := st.Prune(ctx, buildKeep); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "version:  %s\n", res.Snapshot.Version)
	fmt.Fprint(out, formatStats(res.Snapshot.Entries.Stats()))
	fmt.Fprintf(out, "skipped:  %d normalize, %d build\n", res.Normalize.Skipped, res.Build.Skipped)
	if res.Fallback {
		fmt.Fprintln(out, "note:     fetch failed, built from existing raw catalog")
	}
	return nil
}
