package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

// options holds the global flags shared by every subcommand.
type options struct {
	jsonOutput bool
	configPath string
	verbose    bool
}

var (
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// newRootCmd builds the command tree. Each call returns an independent tree
// so flag state never leaks between executions.
func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:     "zfight",
		Version: version,
		Short:   "Detect and fix z-fighting between axis-aligned boxes",
		Long: `zfight finds boxes in a scene whose faces coincide or whose volumes
interpenetrate, the geometry that makes a renderer flicker between two
surfaces, and nudges them apart by inflating or separating them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetHelpFunc(customHelpFunc)

	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: search $ZFIGHT_CONFIG, ./zfight.yaml, ~/.config/zfight)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log each change to stderr")

	root.AddGroup(&cobra.Group{ID: "scene", Title: "Scene Commands:"})
	root.AddGroup(&cobra.Group{ID: "cli-tooling", Title: "CLI & Tooling:"})

	for _, c := range []*cobra.Command{newDetectCmd(opts), newFixCmd(opts)} {
		c.GroupID = "scene"
		root.AddCommand(c)
	}

	settings := newSettingsCmd(opts)
	settings.GroupID = "cli-tooling"
	root.AddCommand(settings)

	root.AddCommand(&cobra.Command{
		Use:     "version",
		Short:   "Print the zfight CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	root.SetHelpCommandGroupID("cli-tooling")

	return root
}

// customHelpFunc colours group titles in the help output.
func customHelpFunc(cmd *cobra.Command, args []string) {
	var help strings.Builder

	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	} else if cmd.Short != "" {
		help.WriteString(cmd.Short)
		help.WriteString("\n\n")
	}

	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	help.WriteString("\n")
	fmt.Fprintf(&help, "  %s\n\n", cmd.UseLine())

	for _, group := range cmd.Groups() {
		help.WriteString(groupTitleColor.Sprint(group.Title))
		help.WriteString("\n")
		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && c.IsAvailableCommand() {
				fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
			}
		}
		help.WriteString("\n")
	}
	if len(cmd.Groups()) == 0 && cmd.HasAvailableSubCommands() {
		help.WriteString(groupTitleColor.Sprint("Commands:"))
		help.WriteString("\n")
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
			}
		}
		help.WriteString("\n")
	}

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailableInheritedFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("\n")
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(&help, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	}

	fmt.Fprint(cmd.OutOrStdout(), help.String())
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}
