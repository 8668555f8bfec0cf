package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mdtracker/mdtrack/pkg/chart"
	"github.com/mdtracker/mdtrack/pkg/stats"
	"github.com/mdtracker/mdtrack/pkg/tracker"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Analyze recorded matches",
	Long:  `Provides commands for win-rate KPIs, tag usage, the deck matchup matrix, and rating charts.`,
}

func filterModeFromFlags(cmd *cobra.Command) (stats.FilterMode, error) {
	mode, _ := cmd.Flags().GetString("filter-mode")
	switch mode {
	case "", "or":
		return stats.FilterOr, nil
	case "and":
		return stats.FilterAnd, nil
	default:
		return stats.FilterOr, fmt.Errorf("filter-mode must be 'or' or 'and'")
	}
}

// loadFilteredMatches fetches a project's live matches and applies the
// optional tag filter shared by all stats subcommands.
func loadFilteredMatches(cmd *cobra.Command) ([]tracker.Match, error) {
	projectIDStr, _ := cmd.Flags().GetString("project-id")
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid project-id format: %w", err)
	}
	mode, err := filterModeFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	dbConn, err := openDB()
	if err != nil {
		return nil, err
	}
	defer dbConn.Close()

	matches, err := tracker.ListMatchesByProject(cmd.Context(), dbConn, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	tagsStr, _ := cmd.Flags().GetString("tags")
	if selected := splitList(tagsStr); len(selected) > 0 {
		matches = stats.FilterByTags(matches, selected, mode)
	}
	return matches, nil
}

var statsKPIsCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Show win-rate KPIs for a project",
	Long:  `Computes total matches, wins, overall win rate, first/second-turn split, and the going-first win rate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		matches, err := loadFilteredMatches(cmd)
		if err != nil {
			return err
		}
		return printJSON(stats.ComputeKPIs(matches))
	},
}

var statsTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show tag usage and per-tag win rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		matches, err := loadFilteredMatches(cmd)
		if err != nil {
			return err
		}
		rows := stats.TagStats(matches)
		if len(rows) == 0 {
			fmt.Println("No tagged matches found.")
			return nil
		}
		return printJSON(rows)
	},
}

var statsMatrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show the deck matchup matrix",
	Long:  `Builds the my-deck versus opponent-deck win-rate matrix from a project's live matches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		matches, err := loadFilteredMatches(cmd)
		if err != nil {
			return err
		}
		return printJSON(stats.MatchupMatrix(matches))
	},
}

var statsChartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render the rating-over-time chart as an SVG file",
	Long:  `Builds a project's rating series and renders it as a smoothed SVG line chart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("out")
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")

		matches, err := loadFilteredMatches(cmd)
		if err != nil {
			return err
		}

		series := stats.RateSeries(matches)
		points := make([]chart.Point, len(series))
		for i, p := range series {
			points[i] = chart.Point{X: float64(p.X), Y: p.Y}
		}

		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()

		opts := chart.Options{
			Width:  width,
			Height: height,
			Fill:   "#1a2035",
			Mode:   chart.ModeTime,
		}
		c := chart.New(&chart.SVGRenderer{Target: out}, opts)
		if err := c.Update(points, opts); err != nil {
			return fmt.Errorf("failed to render chart: %w", err)
		}

		fmt.Printf("Chart with %d points written to %s\n", len(points), outPath)
		return nil
	},
}

func initStatsCmds() {
	for _, c := range []*cobra.Command{statsKPIsCmd, statsTagsCmd, statsMatrixCmd, statsChartCmd} {
		c.Flags().StringP("project-id", "p", "", "ID of the project to analyze (required)")
		c.MarkFlagRequired("project-id")
		c.Flags().StringP("tags", "t", "", "Comma-separated tag names to filter matches by")
		c.Flags().String("filter-mode", "or", "Tag filter combination: 'or' or 'and'")
	}

	statsChartCmd.Flags().String("out", "rating.svg", "Path of the SVG file to write")
	statsChartCmd.Flags().Int("width", 600, "Chart width in pixels")
	statsChartCmd.Flags().Int("height", 200, "Chart height in pixels")

	statsCmd.AddCommand(statsKPIsCmd, statsTagsCmd, statsMatrixCmd, statsChartCmd)
}
