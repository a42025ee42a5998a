package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/zfight/pkg/config"
)

func newSettingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or initialise zfight settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := findConfig(opts)
			if err != nil {
				return err
			}
			s, err := cfg.Settings()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, s)
			}
			printSection(out, "Settings")
			if path == "" {
				path = "(defaults)"
			}
			printLabelValue(out, "Config", path)
			printLabelValue(out, "Tolerance", fmt.Sprintf("%g", s.Tolerance))
			printLabelValue(out, "Detect policy", s.DetectPolicy.String())
			printLabelValue(out, "Fix method", s.Method.String())
			printLabelValue(out, "Amount", fmt.Sprintf("%g", s.Amount))
			printLabelValue(out, "Fix policy", s.FixPolicy.String())
			printLabelValue(out, "Auto-recheck", fmt.Sprintf("%v", s.AutoRecheck))
			printLabelValue(out, "Recheck delay", s.RecheckDelay.String())
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if opts.configPath != "" {
				path = opts.configPath
			}
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Wrote "+path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

// findConfig is loadConfig that also reports which file was used.
func findConfig(opts *options) (*config.Config, string, error) {
	if opts.configPath != "" {
		return config.LoadFromPath(opts.configPath)
	}
	return config.Load()
}
