package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RunCmd executes one AutoPilot pass with side effects.
func RunCmd() *cobra.Command {
	var closeStale, groupTabs bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one AutoPilot pass, closing and grouping tabs per settings",
		Long: `Run analyzes the open tabs and applies the recommendations. Which
mutations happen is controlled by the stored settings; --close and
--group enable the corresponding automation for this invocation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireBrowser(cmd); err != nil {
				return err
			}

			if closeStale || groupTabs {
				s := a.engine.Settings()
				if closeStale {
					s.AutoCloseStale = true
				}
				if groupTabs {
					s.AutoGroupByCategory = true
				}
				if err := a.engine.SaveSettings(s); err != nil {
					return err
				}
			}

			result, err := a.engine.Execute(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Analyzed %d tabs: closed %d, grouped %d\n",
				result.Report.TotalTabs, result.Closed, result.Grouped)
			if result.Report.AIInsights != "" {
				fmt.Println(result.Report.AIInsights)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&closeStale, "close", false, "enable auto-closing of stale and duplicate tabs")
	cmd.Flags().BoolVar(&groupTabs, "group", false, "enable auto-grouping by category")
	return cmd
}
