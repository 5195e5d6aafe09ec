package cli

import (
	"github.com/spf13/cobra"

	"gce-backup/src/config"
)

// addGlobalFlags adds persistent flags shared by every subcommand.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("project", "", "Cloud project ID")
	cmd.PersistentFlags().String("zone", "", "Compute zone (e.g., us-west1-b)")
	cmd.PersistentFlags().String("config", "", "Path to YAML config file")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().Bool("dry-run", false, "Show planned actions without making changes")
	cmd.PersistentFlags().Bool("fake", false, "Use an empty in-memory gateway instead of the compute API")
}

// loadRunConfig merges the optional config file with flag overrides.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	pf := cmd.Root().PersistentFlags()
	path, _ := pf.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if project, _ := pf.GetString("project"); project != "" {
		cfg.Project = project
	}
	if zone, _ := pf.GetString("zone"); zone != "" {
		cfg.Zone = zone
	}
	return cfg, nil
}
