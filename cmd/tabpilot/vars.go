// Package cli wires the tabpilot commands: analysis, remediation, the
// local API server, and provider/usage/settings management.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tabops/tabpilot/internal/ai"
	"github.com/tabops/tabpilot/internal/autopilot"
	"github.com/tabops/tabpilot/internal/logging"
	"github.com/tabops/tabpilot/internal/store"
	"github.com/tabops/tabpilot/internal/store/migrations"
	"github.com/tabops/tabpilot/internal/tabs"
)

// Shared CLI flags (used across multiple command files)
var (
	cdpURL  string
	dataDir string
	jsonOut bool
	verbose bool
)

// SetupRootCmd configures the root command with all subcommands and flags.
func SetupRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tabpilot",
		Short: "TabPilot - browser tab autopilot",
		Long: `TabPilot analyzes the open tabs of a running Chromium-family browser,
finds duplicates and stale tabs, groups tabs by category, and can close
or group them automatically. Start the browser with
--remote-debugging-port=9222 so TabPilot can reach it.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				logging.Disable()
				migrations.QuietMode = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cdpURL, "cdp", tabs.DefaultCDPURL, "DevTools endpoint of the running browser")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default: ~/.tabpilot, or $TABPILOT_DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(AnalyzeCmd())
	rootCmd.AddCommand(RunCmd())
	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(ProvidersCmd())
	rootCmd.AddCommand(UsageCmd())
	rootCmd.AddCommand(SettingsCmd())

	return rootCmd
}

// resolveDataDir picks the data directory and ensures it exists.
func resolveDataDir() (string, error) {
	dir := dataDir
	if dir == "" {
		dir = os.Getenv("TABPILOT_DATA_DIR")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".tabpilot")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// app holds the wired services a command needs. Close releases them.
type app struct {
	dir     string
	store   *store.Store
	inv     *tabs.CDPInventory
	gateway *ai.Gateway
	engine  *autopilot.Engine
	watcher *ai.ConfigWatcher
}

// newApp opens the store and inventory and, when withAI is set, builds
// the provider gateway with config hot reload.
func newApp(cmd *cobra.Command, withAI bool) (*app, error) {
	dir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(dir, "tabpilot.db"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{
		dir:   dir,
		store: st,
		inv:   tabs.NewCDPInventory(cdpURL, st),
	}

	if withAI {
		cfgPath := a.configPath()
		cfg, err := ai.LoadConfig(cfgPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load providers config: %w", err)
		}
		a.gateway = ai.NewGateway(cmd.Context(), cfg, st)

		if watcher, err := ai.WatchConfig(cfgPath); err == nil {
			watcher.OnReload(func(fresh ai.Config) {
				a.gateway.Reconfigure(cmd.Context(), fresh)
			})
			a.watcher = watcher
		} else {
			logging.Warnf("config watcher unavailable: %v", err)
		}
	}

	a.engine = autopilot.NewEngine(a.inv, a.gateway, st)
	return a, nil
}

func (a *app) configPath() string {
	return filepath.Join(a.dir, "providers.yaml")
}

func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.inv != nil {
		a.inv.Stop()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// requireBrowser fails fast with an actionable message when no browser
// is listening on the DevTools endpoint.
func (a *app) requireBrowser(cmd *cobra.Command) error {
	if !a.inv.Reachable(cmd.Context()) {
		return fmt.Errorf("no browser at %s - start Chrome or Edge with --remote-debugging-port", cdpURL)
	}
	return nil
}
