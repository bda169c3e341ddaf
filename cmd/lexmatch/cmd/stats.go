package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/lexmatch/pkg/lexmatch/artifact"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
	"github.com/cognicore/lexmatch/pkg/lexmatch/tokendist"
)

var (
	statsDB   string
	statsTop  int
	statsDist string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize a surface-form database",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsDB, "db", "", "surface db path (overrides paths.surface_db)")
	statsCmd.Flags().StringVar(&statsDist, "dist", "", "token distribution path (overrides paths.token_dist)")
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "most frequent tokens to list")
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.logger.Sync()
	ctx := cmd.Context()

	path := e.cfg.Paths.SurfaceDB
	if statsDB != "" {
		path = statsDB
	}
	st, err := e.persistentStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}
	db, err := artifact.LoadDB(ctx, path, st)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, formatStats(db.Stats()))

	if st != nil {
		versions, err := st.Versions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "snapshots: %d\n", len(versions))
		for _, v := range versions {
			fmt.Fprintf(out, "  %s  %s  %d entries\n", v.Version, v.BuiltAt.Format("2006-01-02 15:04:05"), v.Stats.Total)
		}
	}

	distPath := e.cfg.Paths.TokenDist
	if statsDist != "" {
		distPath = statsDist
	}
	if distPath == "" || statsTop <= 0 {
		return nil
	}
	dist, err := tokendist.Load(distPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "top tokens:\n%s", formatTop(dist.Top(statsTop)))
	return nil
}

func formatStats(s surface.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "entries:  %d\n", s.Total)
	fmt.Fprintf(&b, "  with abbreviation: %d\n", s.WithAbbreviation)
	fmt.Fprintf(&b, "  with low forms:    %d\n", s.WithLowForms)
	fmt.Fprintf(&b, "  match on tokens:   %d\n", s.MatchOnTokens)
	return b.String()
}

func formatTop(entries []tokendist.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "  %-20s %d\n", e.Token, e.Count)
	}
	return b.String()
}
