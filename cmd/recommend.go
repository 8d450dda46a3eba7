package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kamusis/reel/internal/recommend"
)

var (
	flagRecommendJSON bool
	flagRecommendK    int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <title>",
	Short: "Show the movies most similar to a title, with poster URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecommend,
}

func init() {
	recommendCmd.Flags().BoolVar(&flagRecommendJSON, "json", false, "Print results as JSON")
	recommendCmd.Flags().IntVar(&flagRecommendK, "k", 0, "Number of results (default recommend.top_k)")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("k") {
		cfg.Recommend.TopK = flagRecommendK
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	title := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	engine, closeFn, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := engine.Recommend(ctx, title)
	if errors.Is(err, recommend.ErrNotFound) {
		printErr("", fmt.Sprintf("%q is not in the catalog (see 'reel titles')", title))
		return err
	}
	if err != nil {
		return err
	}

	if flagRecommendJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(toJSON(res))
	}
	printRecommendations(res)
	return nil
}

type recommendationOut struct {
	Rank      int     `json:"rank"`
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	PosterURL string  `json:"poster_url"`
	PosterErr string  `json:"poster_error,omitempty"`
}

func toJSON(res recommend.Result) []recommendationOut {
	out := make([]recommendationOut, 0, len(res.Items))
	for i, it := range res.Items {
		r := recommendationOut{Rank: i + 1, ID: it.Movie.ID, Title: it.Movie.Title, Score: it.Score, PosterURL: it.PosterURL}
		if it.PosterErr != nil {
			r.PosterErr = it.PosterErr.Error()
		}
		out = append(out, r)
	}
	return out
}

func printRecommendations(res recommend.Result) {
	fmt.Printf("\nreel recommend %q\n\n", res.Query)
	fmt.Printf("Results (%d found):\n\n", len(res.Items))
	if len(res.Items) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	var fallbacks int
	for i, it := range res.Items {
		fmt.Fprintf(w, "  %d.\t[%.3f]\t%s\t%s\n", i+1, it.Score, it.Movie.Title, it.PosterURL)
		if it.PosterErr != nil {
			fallbacks++
		}
	}
	_ = w.Flush()
	if fallbacks > 0 {
		fmt.Println()
		printWarn("", fmt.Sprintf("%d poster(s) unavailable; placeholder shown", fallbacks))
	}
}
