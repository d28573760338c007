package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// UsageCmd prints the AI call accounting.
func UsageCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show AI usage counters and estimated cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if reset {
				a.gateway.ResetUsage()
				fmt.Println("Usage counters reset.")
			}

			u := a.gateway.Usage()
			fmt.Printf("Total calls:     %d\n", u.TotalCalls)
			fmt.Printf("Today:           %d\n", u.TodayCalls)
			fmt.Printf("This hour:       %d\n", u.HourCalls)
			fmt.Printf("Estimated cost:  %.1f cents\n", u.EstimatedCostCents)

			d := a.gateway.CanMakeCall()
			if !d.Allowed {
				fmt.Printf("\nCloud calls blocked: %s\n", d.Reason)
			} else if d.Warning != "" {
				fmt.Printf("\n%s\n", d.Warning)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "reset the usage counters")
	return cmd
}
