package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabops/tabpilot/internal/autopilot"
)

// AnalyzeCmd reports on the current tab set without touching it.
func AnalyzeCmd() *cobra.Command {
	var withAI, aiCategories bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze open tabs and print a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, withAI || aiCategories)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireBrowser(cmd); err != nil {
				return err
			}

			var report *autopilot.Report
			switch {
			case withAI:
				report, err = a.engine.AnalyzeWithAI(cmd.Context())
			case aiCategories:
				report, err = a.engine.AnalyzeWithAICategories(cmd.Context())
			default:
				report, err = a.engine.Analyze(cmd.Context())
			}
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withAI, "ai", false, "include AI insights")
	cmd.Flags().BoolVar(&aiCategories, "ai-categories", false, "categorize tabs with the AI provider instead of rules")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the raw report as JSON")
	return cmd
}

func printReport(r *autopilot.Report) {
	fmt.Printf("Tabs: %d  est. memory: %d MB  stale: %d  duplicates: %d\n\n",
		r.TotalTabs, r.TotalMemoryMB, r.StaleCount, r.DuplicateCount)

	for _, g := range r.CategoryGroups {
		fmt.Printf("%s (%d)\n", g.Name, len(g.Tabs))
		for _, h := range g.Tabs {
			marker := " "
			switch h.Recommendation {
			case autopilot.RecommendClose:
				marker = "x"
			case autopilot.RecommendReview:
				marker = "?"
			}
			fmt.Printf("  [%s] %s\n", marker, truncate(h.Title, 70))
		}
	}

	if n := len(r.Recommendations.CloseSuggestions); n > 0 {
		fmt.Printf("\nSuggest closing %d tabs:\n", n)
		for _, h := range r.Recommendations.CloseSuggestions {
			fmt.Printf("  %s (%s)\n", truncate(h.Title, 60), h.Reason)
		}
	}
	for _, gs := range r.Recommendations.GroupSuggestions {
		fmt.Printf("\nSuggest grouping %d tabs as %q\n", len(gs.TabIDs), gs.Name)
	}
	if n := len(r.Recommendations.MemoryHogs); n > 0 {
		fmt.Printf("\nHeaviest tabs:\n")
		for _, hog := range r.Recommendations.MemoryHogs {
			fmt.Printf("  ~%d MB  %s\n", hog.EstimatedMB, truncate(hog.Title, 60))
		}
	}
	if r.AIInsights != "" {
		fmt.Printf("\n%s\n", strings.TrimSpace(r.AIInsights))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
