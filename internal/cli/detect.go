package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/zfight/pkg/resolve"
	"github.com/chazu/zfight/pkg/scene"
)

// ErrConflictsFound is returned by detect --strict when the scan is not clean.
var ErrConflictsFound = errors.New("z-fighting detected")

func newDetectCmd(opts *options) *cobra.Command {
	var (
		scan   scanFlags
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "detect <scene>",
		Short: "List z-fighting conflicts in a scene",
		Long: `Scan every pair of cubes in a scene script and list the pairs that
z-fight. The default face policy reports coincident faces whose projections
touch; the volumetric policy reports only boxes that interpenetrate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, opts, &scan, false)
			if err != nil {
				return err
			}
			g, err := loadScene(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r := resolve.New(
				resolve.WithSettings(s),
				resolve.WithLogger(newLogger(cmd, opts)),
				resolve.WithReporter(resolve.ReporterFunc(func(rep resolve.Report) {
					if !opts.jsonOutput {
						printReport(out, rep)
					}
				})),
			)
			rep := r.Detect(scene.Flatten(g))

			if opts.jsonOutput {
				if err := outputJSON(out, rep); err != nil {
					return err
				}
			}
			if strict && len(rep.Conflicts) > 0 {
				return fmt.Errorf("%w: %d conflict(s)", ErrConflictsFound, len(rep.Conflicts))
			}
			return nil
		},
	}

	scan.register(cmd, "Detection policy: face or volumetric (default from config)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when conflicts are found")
	return cmd
}
