package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/zfight/pkg/config"
	"github.com/chazu/zfight/pkg/engine"
	"github.com/chazu/zfight/pkg/geom"
	"github.com/chazu/zfight/pkg/resolve"
	"github.com/chazu/zfight/pkg/scene"
)

// loadConfig reads --config if given, otherwise searches the usual places.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, _, err := findConfig(opts)
	return cfg, err
}

// scanFlags are the detection overrides shared by detect and fix.
type scanFlags struct {
	tolerance float64
	policy    string
}

func (f *scanFlags) register(cmd *cobra.Command, policyHelp string) {
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "Coincidence tolerance (default from config)")
	cmd.Flags().StringVar(&f.policy, "policy", "", policyHelp)
}

// loadSettings merges config file values with flags the user set.
func loadSettings(cmd *cobra.Command, opts *options, scan *scanFlags, fixPolicy bool) (resolve.Settings, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return resolve.Settings{}, err
	}
	s, err := cfg.Settings()
	if err != nil {
		return resolve.Settings{}, fmt.Errorf("config: %w", err)
	}

	if cmd.Flags().Changed("tolerance") {
		s.Tolerance = scan.tolerance
	}
	if cmd.Flags().Changed("policy") {
		p, err := geom.ParsePolicy(scan.policy)
		if err != nil {
			return resolve.Settings{}, err
		}
		if fixPolicy {
			s.FixPolicy = p
		} else {
			s.DetectPolicy = p
		}
	}
	if err := s.Validate(); err != nil {
		return resolve.Settings{}, err
	}
	return s, nil
}

// loadScene evaluates a scene script and reports validation warnings.
func loadScene(cmd *cobra.Command, path string) (*scene.Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	g, err := engine.NewEngine().Load(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, f := range scene.Validate(g) {
		if f.Severity == scene.SeverityWarning {
			printWarning(cmd.ErrOrStderr(), f.Error())
		}
	}
	return g, nil
}

// newLogger returns a logger on stderr for --verbose, else a discarding one.
func newLogger(cmd *cobra.Command, opts *options) *log.Logger {
	if !opts.verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "zfight: ", 0)
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReport renders a detection report in the style of the conflict list
// shown after a scan.
func printReport(w io.Writer, rep resolve.Report) {
	title := "Z-Fighting Detection"
	if rep.Recheck {
		title = "Recheck"
	}
	printSection(w, title)

	switch {
	case rep.NoBoxes():
		printEmptyState(w, "No cubes found in the scene.")
	case rep.Clean():
		printSuccess(w, fmt.Sprintf("No z-fighting detected across %s (%s checked).",
			count(rep.BoxCount, "cube", "cubes"), count(rep.Pairs, "pair", "pairs")))
	default:
		printError(w, fmt.Sprintf("Found %s among %s.",
			count(len(rep.Conflicts), "conflict", "conflicts"), count(rep.BoxCount, "cube", "cubes")))
		items := make([]string, len(rep.Conflicts))
		for i, c := range rep.Conflicts {
			items[i] = c.String()
		}
		printList(w, items)
	}
	printLabelValue(w, "Policy", rep.Policy.String())
	printLabelValue(w, "Tolerance", fmt.Sprintf("%g", rep.Tolerance))
}
