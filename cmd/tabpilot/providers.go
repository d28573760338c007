package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ProvidersCmd shows the AI provider chain and which one is active.
func ProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show AI provider availability and the active provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			statuses := a.gateway.ChainStatus(cmd.Context())
			if len(statuses) == 0 {
				fmt.Println("No providers configured. Edit", a.configPath())
				return nil
			}

			active := a.gateway.ActiveProviderID()
			for _, st := range statuses {
				marker := " "
				if st.ID == active {
					marker = "*"
				}
				kind := "cloud"
				if st.OnDevice {
					kind = "on-device"
				}
				fmt.Printf("%s %-12s %-10s %s\n", marker, st.ID, kind, st.Status)
			}
			if active == "" {
				fmt.Println("\nNo provider currently available; AI calls will fail.")
			}
			return nil
		},
	}
}
