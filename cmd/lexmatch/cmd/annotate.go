package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/lexmatch/pkg/lexmatch"
	"github.com/cognicore/lexmatch/pkg/lexmatch/artifact"
	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
)

var (
	annotateDB        string
	annotateThreshold float64
	annotateHTML      bool
	annotateNoFuzzy   bool
	annotateWorkers   int
)

var annotateCmd = &cobra.Command{
	Use:   "annotate [text...]",
	Short: "Annotate text with catalog entities",
	Long:  "Annotates each argument, or each line of stdin when no arguments are given, and prints one JSON result per line.",
	RunE:  runAnnotate,
}

func init() {
	annotateCmd.Flags().StringVar(&annotateDB, "db", "", "surface db path (overrides paths.surface_db)")
	annotateCmd.Flags().Float64VarP(&annotateThreshold, "threshold", "t", -1, "score threshold (default tokens.threshold)")
	annotateCmd.Flags().BoolVar(&annotateHTML, "html", false, "strip HTML markup before tokenizing")
	annotateCmd.Flags().BoolVar(&annotateNoFuzzy, "no-fuzzy", false, "disable fuzzy phrase matching")
	annotateCmd.Flags().IntVarP(&annotateWorkers, "workers", "w", 0, "parallel documents (default tokens.workers)")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.logger.Sync()
	ctx := cmd.Context()

	path := e.cfg.Paths.SurfaceDB
	if annotateDB != "" {
		path = annotateDB
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

	matching, err := e.cfg.Matching()
	if err != nil {
		return err
	}
	if annotateNoFuzzy {
		matching.FuzzyEnabled = false
	}
	opts := lexmatch.DefaultOptions(db)
	opts.Matching = matching
	opts.Resolve = e.cfg.Resolve
	opts.Logger = e.logger
	opts.Metrics = e.metrics
	n := e.normalizer()
	opts.Tokenizer = document.NewTokenizer(n.Lemmatizer(), n.Stemmer())
	ann, err := lexmatch.New(opts)
	if err != nil {
		return err
	}

	texts := args
	if len(texts) == 0 {
		if texts, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	if annotateHTML {
		for i, t := range texts {
			texts[i] = document.StripHTML(t)
		}
	}

	threshold := e.cfg.Tokens.Threshold
	if annotateThreshold >= 0 {
		threshold = annotateThreshold
	}
	workers := e.cfg.Tokens.Workers
	if annotateWorkers > 0 {
		workers = annotateWorkers
	}

	results, err := ann.AnnotateBatch(ctx, texts, threshold, workers)
	if err != nil {
		return err
	}
	if err := e.writeMetrics(cmd.ErrOrStderr()); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}
