package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/zfight/pkg/engine"
	"github.com/chazu/zfight/pkg/geom"
	"github.com/chazu/zfight/pkg/resolve"
	"github.com/chazu/zfight/pkg/scene"
)

// snapshotEditor is the CLI's undo transaction: it copies every box the
// resolver is about to touch, so the command can show what changed.
type snapshotEditor struct {
	label  string
	before []geom.Box
	boxes  []*geom.Box
}

func (e *snapshotEditor) BeginEdit(boxes []*geom.Box) {
	e.boxes = boxes
	e.before = make([]geom.Box, len(boxes))
	for i, b := range boxes {
		e.before[i] = *b
	}
}

func (e *snapshotEditor) EndEdit(label string) {
	e.label = label
}

// diff describes each box whose effective bounds changed.
func (e *snapshotEditor) diff() []string {
	var out []string
	for i, b := range e.boxes {
		old := geom.EffectiveBounds(&e.before[i])
		cur := geom.EffectiveBounds(b)
		if old == cur {
			continue
		}
		name := b.Name
		if name == "" {
			name = "(unnamed)"
		}
		out = append(out, fmt.Sprintf("%s: %s..%s → %s..%s", name, old.Min, old.Max, cur.Min, cur.Max))
	}
	return out
}

type fixOutput struct {
	Fix     resolve.FixResult `json:"fix"`
	Recheck *resolve.Report   `json:"recheck,omitempty"`
	Written string            `json:"written,omitempty"`
}

func newFixCmd(opts *options) *cobra.Command {
	var (
		scan      scanFlags
		method    string
		amount    float64
		noRecheck bool
		write     bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "fix <scene>",
		Short: "Resolve z-fighting by inflating or separating cubes",
		Long: `Scan a scene with the fix policy and apply the fix method to every
conflict. inflate-second grows the second cube of each pair, inflate-both
grows both, and separate moves the second cube out along the axis of
deepest overlap. A recheck runs afterwards unless disabled.

Without --write or --output the scene file is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, opts, &scan, true)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("method") {
				m, err := resolve.ParseFixMethod(method)
				if err != nil {
					return err
				}
				s.Method = m
			}
			if cmd.Flags().Changed("amount") {
				s.Amount = amount
			}
			if noRecheck {
				s.AutoRecheck = false
			}
			if err := s.Validate(); err != nil {
				return err
			}

			g, err := loadScene(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var result fixOutput
			queue := resolve.NewQueue()
			editor := &snapshotEditor{}
			r := resolve.New(
				resolve.WithSettings(s),
				resolve.WithScheduler(queue),
				resolve.WithEditor(editor),
				resolve.WithLogger(newLogger(cmd, opts)),
				resolve.WithReporter(resolve.ReporterFunc(func(rep resolve.Report) {
					if rep.Recheck {
						result.Recheck = &rep
					}
					if !opts.jsonOutput {
						printReport(out, rep)
					}
				})),
			)

			res, err := r.Fix(scene.Flatten(g))
			if err != nil {
				return err
			}
			result.Fix = res

			if !opts.jsonOutput && len(res.Changes) > 0 {
				changed := editor.diff()
				printSection(out, editor.label)
				printSuccess(out, fmt.Sprintf("%s: %s changed.", res.Method, count(len(changed), "cube", "cubes")))
				printList(out, changed)
			}

			queue.Drain()

			target := output
			if write {
				target = args[0]
			}
			if target != "" && len(res.Changes) > 0 {
				if err := os.WriteFile(target, []byte(engine.Format(g)), 0644); err != nil {
					return fmt.Errorf("write scene: %w", err)
				}
				result.Written = target
				if !opts.jsonOutput {
					printLabelValue(out, "Saved", target)
				}
			}

			if opts.jsonOutput {
				return outputJSON(out, result)
			}
			return nil
		},
	}

	scan.register(cmd, "Fix policy: volumetric or face (default from config)")
	cmd.Flags().StringVarP(&method, "method", "m", "", "Fix method: inflate-second, inflate-both, inflate-all or separate")
	cmd.Flags().Float64VarP(&amount, "amount", "a", 0, "Inflate amount, or extra gap when separating")
	cmd.Flags().BoolVar(&noRecheck, "no-recheck", false, "Skip the recheck after fixing")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the fixed scene back to the input file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the fixed scene to this file")
	return cmd
}
