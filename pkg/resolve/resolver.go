package resolve

import (
	"fmt"
	"io"
	"log"

	"github.com/chazu/zfight/pkg/geom"
)

// EditLabel names the undo step a fix is recorded under.
const EditLabel = "Fixed Z-Fighting"

// Report is the outcome of a detection pass.
type Report struct {
	Conflicts []Conflict  `json:"conflicts"`
	BoxCount  int         `json:"box_count"`
	Pairs     int         `json:"pairs"`
	Policy    geom.Policy `json:"policy"`
	Tolerance float64     `json:"tolerance"`
	// Recheck is set when the pass ran automatically after a fix.
	Recheck bool `json:"recheck"`
}

// NoBoxes reports whether the scan had nothing to look at, as opposed to
// scanning and finding no conflicts.
func (r Report) NoBoxes() bool {
	return r.BoxCount == 0
}

// Clean reports whether boxes were scanned and none conflict.
func (r Report) Clean() bool {
	return r.BoxCount > 0 && len(r.Conflicts) == 0
}

// Reporter receives detection reports, both from Detect and from rechecks.
type Reporter interface {
	Report(Report)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Report)

func (f ReporterFunc) Report(r Report) { f(r) }

// Editor is the host's undo transaction around a fix.
type Editor interface {
	BeginEdit(boxes []*geom.Box)
	EndEdit(label string)
}

type nopEditor struct{}

func (nopEditor) BeginEdit([]*geom.Box) {}
func (nopEditor) EndEdit(string)        {}

// Resolver runs detection and fixes against a held Settings value.
// It is meant to be driven from a single goroutine.
type Resolver struct {
	settings  Settings
	reporter  Reporter
	scheduler Scheduler
	editor    Editor
	logger    *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSettings replaces the default settings. Invalid settings are ignored;
// use UpdateSettings to get the validation error.
func WithSettings(s Settings) Option {
	return func(r *Resolver) {
		if s.Validate() == nil {
			r.settings = s
		}
	}
}

func WithReporter(rep Reporter) Option {
	return func(r *Resolver) { r.reporter = rep }
}

func WithScheduler(s Scheduler) Option {
	return func(r *Resolver) { r.scheduler = s }
}

func WithEditor(e Editor) Option {
	return func(r *Resolver) { r.editor = e }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver with DefaultSettings, a discarding logger, no
// reporter, no-op undo and a Queue scheduler.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		settings:  DefaultSettings(),
		scheduler: NewQueue(),
		editor:    nopEditor{},
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Settings returns a copy of the current settings.
func (r *Resolver) Settings() Settings {
	return r.settings
}

// UpdateSettings validates and installs new settings.
func (r *Resolver) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.settings = s
	r.logger.Printf("settings updated: tolerance=%g amount=%g method=%s recheck=%v",
		s.Tolerance, s.Amount, s.Method, s.AutoRecheck)
	return nil
}

// Scheduler returns the scheduler rechecks are queued on.
func (r *Resolver) Scheduler() Scheduler {
	return r.scheduler
}

// Detect scans boxes with the detection policy and reports the result.
func (r *Resolver) Detect(boxes []*geom.Box) Report {
	return r.detect(boxes, r.settings, false)
}

func (r *Resolver) detect(boxes []*geom.Box, s Settings, recheck bool) Report {
	rep := Report{
		Conflicts: ScanAllPairs(boxes, s.Tolerance, s.DetectPolicy),
		BoxCount:  countBoxes(boxes),
		Pairs:     PairCount(countBoxes(boxes)),
		Policy:    s.DetectPolicy,
		Tolerance: s.Tolerance,
		Recheck:   recheck,
	}
	if recheck {
		r.logger.Printf("recheck: %d conflict(s) across %d box(es)", len(rep.Conflicts), rep.BoxCount)
	}
	if r.reporter != nil {
		r.reporter.Report(rep)
	}
	return rep
}

// Fix scans boxes with the fix policy and applies the configured method and
// amount.
func (r *Resolver) Fix(boxes []*geom.Box) (FixResult, error) {
	return r.FixWith(boxes, r.settings.Method, r.settings.Amount)
}

// FixWith is Fix with a per-call method and amount override. A zero amount
// falls back to the configured amount.
//
// When no conflicts are found the empty report is delivered to the reporter
// and nothing is mutated. Otherwise the mutation runs inside the editor's
// transaction and, if auto-recheck is on, a Detect pass is scheduled.
func (r *Resolver) FixWith(boxes []*geom.Box, method FixMethod, amount float64) (FixResult, error) {
	s := r.settings
	if amount == 0 {
		amount = s.Amount
	}
	s.Method = method
	s.Amount = amount
	if err := s.Validate(); err != nil {
		return FixResult{Method: method}, fmt.Errorf("fix: %w", err)
	}

	conflicts := ScanAllPairs(boxes, s.Tolerance, s.FixPolicy)
	if len(conflicts) == 0 {
		if r.reporter != nil {
			r.reporter.Report(Report{
				Conflicts: conflicts,
				BoxCount:  countBoxes(boxes),
				Pairs:     PairCount(countBoxes(boxes)),
				Policy:    s.FixPolicy,
				Tolerance: s.Tolerance,
			})
		}
		return FixResult{Method: method}, nil
	}

	r.editor.BeginEdit(Targets(conflicts, method))
	res := ApplyFix(conflicts, method, amount)
	r.editor.EndEdit(EditLabel)

	for _, c := range res.Changes {
		switch {
		case c.Inflated:
			r.logger.Printf("%s: inflate %g → %g", c.Name, c.OldInflate, c.NewInflate)
		case c.Moved:
			r.logger.Printf("%s: moved %+g along %s", c.Name, c.Offset, c.Axis)
		}
	}
	r.logger.Printf("%s: fixed %d across %d conflict(s)", method, res.Fixed, len(conflicts))

	if s.AutoRecheck {
		// Rechecks use the settings in force when they run.
		r.scheduler.Schedule(func() {
			r.detect(boxes, r.settings, true)
		})
	}

	return res, nil
}

func countBoxes(boxes []*geom.Box) int {
	n := 0
	for _, b := range boxes {
		if b != nil {
			n++
		}
	}
	return n
}
