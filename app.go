package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/zfight/pkg/config"
	"github.com/chazu/zfight/pkg/engine"
	"github.com/chazu/zfight/pkg/geom"
	"github.com/chazu/zfight/pkg/kernel"
	"github.com/chazu/zfight/pkg/kernel/manifold"
	"github.com/chazu/zfight/pkg/kernel/sdfx"
	"github.com/chazu/zfight/pkg/resolve"
	"github.com/chazu/zfight/pkg/scene"
	"github.com/chazu/zfight/pkg/tessellate"
)

// ReportEvent is the runtime event carrying every detection report,
// including the automatic recheck after a fix.
const ReportEvent = "zfight:report"

// conflictColor is used for every highlight overlay.
const conflictColor = "#FF3B30"

// colorPalette is a default palette used to assign distinct colors to cubes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// ErrNothingToUndo is returned by Undo when no fix has been applied.
var ErrNothingToUndo = errors.New("nothing to undo")

// App is the Wails backend. It exposes methods to the frontend via bindings.
//
// Bindings arrive on separate goroutines and timer rechecks run on their
// own, so every access to the scene goes through mu.
type App struct {
	ctx context.Context

	mu         sync.Mutex
	engine     *engine.Engine
	kernel     kernel.Kernel
	resolver   *resolve.Resolver
	graph      *scene.Graph
	generation uint64 // bumped whenever graph is replaced
	history    []edit
	pending    *edit
	render     config.RenderConfig
	configPath string
	emit       func(event string, data interface{})
}

// edit is one undo step: the boxes a fix touched and their prior values.
type edit struct {
	label  string
	boxes  []*geom.Box
	before []geom.Box
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Conflict bool      `json:"conflict"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// ConflictData is one row of the conflict list.
type ConflictData struct {
	Label string     `json:"label"`
	NameA string     `json:"nameA"`
	NameB string     `json:"nameB"`
	Faces []string   `json:"faces"`
	Depth [3]float64 `json:"depth"`
}

// ReportData is a detection report plus its highlight overlays.
type ReportData struct {
	Message    string         `json:"message"`
	Conflicts  []ConflictData `json:"conflicts"`
	Highlights []MeshData     `json:"highlights"`
	BoxCount   int            `json:"boxCount"`
	Policy     string         `json:"policy"`
	Recheck    bool           `json:"recheck"`

	// Overlay is every highlight unioned into one mesh, for drawing the
	// conflicts in a single pass. Nil when the scan is clean.
	Overlay *MeshData `json:"overlay,omitempty"`
}

// FixData is returned by Fix and Undo.
type FixData struct {
	Message string     `json:"message"`
	Changes []string   `json:"changes"`
	Meshes  []MeshData `json:"meshes"`
	Source  string     `json:"source"`
	CanUndo bool       `json:"canUndo"`
}

// SettingsData mirrors resolve.Settings with string enums for the frontend.
type SettingsData struct {
	Tolerance      float64 `json:"tolerance"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"method"`
	AutoRecheck    bool    `json:"autoRecheck"`
	DetectPolicy   string  `json:"detectPolicy"`
	FixPolicy      string  `json:"fixPolicy"`
	RecheckDelayMs int64   `json:"recheckDelayMs"`
}

// NewApp creates an App from the user's config file, or defaults.
func NewApp() *App {
	cfg, path, err := config.Load()
	if err != nil {
		log.Printf("config: %v, using defaults", err)
		cfg, path = config.DefaultConfig(), ""
	}
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return newApp(cfg, path)
}

func newApp(cfg *config.Config, configPath string) *App {
	s, err := cfg.Settings()
	if err != nil {
		log.Printf("config: %v, using default settings", err)
		s = resolve.DefaultSettings()
	}

	a := &App{
		engine:     engine.NewEngine(),
		kernel:     newKernel(cfg.Render),
		graph:      scene.New(),
		render:     cfg.Render,
		configPath: configPath,
		emit:       func(string, interface{}) {},
	}
	a.resolver = resolve.New(
		resolve.WithSettings(s),
		resolve.WithScheduler(lockedScheduler{a}),
		resolve.WithEditor(a),
		resolve.WithReporter(resolve.ReporterFunc(a.report)),
		resolve.WithLogger(log.Default()),
	)
	return a
}

// newKernel picks the mesher named in the render config. The manifold
// kernel falls back to sdfx when the binary was built without it.
func newKernel(r config.RenderConfig) kernel.Kernel {
	switch r.Kernel {
	case config.KernelManifold:
		k, err := manifold.New()
		if err == nil {
			return k
		}
		log.Printf("render: %v, falling back to sdfx", err)
	case config.KernelSdfx, "":
	default:
		log.Printf("render: unknown kernel %q, using sdfx", r.Kernel)
	}
	return sdfx.NewWithCells(r.MeshCells)
}

// startup is called by Wails on app startup. The context is saved
// so reports can be emitted as runtime events.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.emit = func(event string, data interface{}) {
		runtime.EventsEmit(ctx, event, data)
	}
}

// lockedScheduler runs deferred rechecks after the configured delay,
// holding the app lock so they never race a binding. Schedule is only
// called from inside Fix, with the lock already held.
//
// A recheck is dropped if the scene was replaced while it waited: its boxes
// belong to the old scene.
type lockedScheduler struct {
	a *App
}

func (s lockedScheduler) Schedule(task func()) {
	delay := s.a.resolver.Settings().RecheckDelay
	gen := s.a.generation
	resolve.AfterFunc{Delay: delay}.Schedule(func() {
		s.a.mu.Lock()
		defer s.a.mu.Unlock()
		if s.a.generation != gen {
			return
		}
		task()
	})
}

// BeginEdit and EndEdit make the App the resolver's undo transaction.
func (a *App) BeginEdit(boxes []*geom.Box) {
	e := &edit{boxes: boxes, before: make([]geom.Box, len(boxes))}
	for i, b := range boxes {
		e.before[i] = *b
	}
	a.pending = e
}

func (a *App) EndEdit(label string) {
	if a.pending == nil {
		return
	}
	a.pending.label = label
	a.history = append(a.history, *a.pending)
	a.pending = nil
}

// report is the resolver's reporter. It is always called with mu held.
func (a *App) report(rep resolve.Report) {
	a.emit(ReportEvent, a.reportData(rep))
}

// Evaluate takes a scene script and returns cube meshes and errors.
// A successful evaluation replaces the scene and clears undo history.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	g, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for _, f := range scene.Validate(g) {
		if f.Severity == scene.SeverityWarning {
			result.Warnings = append(result.Warnings, EvalErrorData{Message: f.Error()})
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	meshes, err := a.meshes(g)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	a.graph = g
	a.generation++
	a.history = nil
	result.Meshes = meshes
	return result
}

// Detect scans the current scene with the detection policy.
func (a *App) Detect() ReportData {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reportData(a.resolver.Detect(scene.Flatten(a.graph)))
}

// Fix applies method with amount to the current scene. An empty method or
// zero amount uses the configured value.
func (a *App) Fix(method string, amount float64) (FixData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := a.resolver.Settings().Method
	if method != "" {
		var err error
		if m, err = resolve.ParseFixMethod(method); err != nil {
			return FixData{}, err
		}
	}

	res, err := a.resolver.FixWith(scene.Flatten(a.graph), m, amount)
	if err != nil {
		return FixData{}, err
	}

	data, err := a.fixData()
	if err != nil {
		return FixData{}, err
	}
	if len(res.Changes) == 0 {
		data.Message = "No z-fighting to fix."
		return data, nil
	}
	data.Message = fmt.Sprintf("%s: fixed %d", res.Method, res.Fixed)
	for _, c := range res.Changes {
		switch {
		case c.Inflated:
			data.Changes = append(data.Changes, fmt.Sprintf("%s: inflate %g → %g", c.Name, c.OldInflate, c.NewInflate))
		case c.Moved:
			data.Changes = append(data.Changes, fmt.Sprintf("%s: moved %+g along %s", c.Name, c.Offset, c.Axis))
		}
	}
	return data, nil
}

// Undo reverts the most recent fix.
func (a *App) Undo() (FixData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.history) == 0 {
		return FixData{}, ErrNothingToUndo
	}
	e := a.history[len(a.history)-1]
	a.history = a.history[:len(a.history)-1]
	for i, b := range e.boxes {
		*b = e.before[i]
	}

	data, err := a.fixData()
	if err != nil {
		return FixData{}, err
	}
	data.Message = "Undid " + e.label
	return data, nil
}

// Source returns the current scene as a script.
func (a *App) Source() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return engine.Format(a.graph)
}

// Settings returns the resolver settings.
func (a *App) Settings() SettingsData {
	a.mu.Lock()
	defer a.mu.Unlock()
	return toSettingsData(a.resolver.Settings())
}

// UpdateSettings validates and installs new settings. Nothing is written to
// disk until SaveSettings.
func (a *App) UpdateSettings(d SettingsData) error {
	s, err := fromSettingsData(d)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolver.UpdateSettings(s)
}

// SaveSettings writes the current settings to the config file.
func (a *App) SaveSettings() (string, error) {
	a.mu.Lock()
	s := a.resolver.Settings()
	a.mu.Unlock()

	cfg := config.FromSettings(s)
	cfg.Render = a.render
	if err := cfg.Save(a.configPath); err != nil {
		return "", err
	}
	return a.configPath, nil
}

// meshes tessellates g into frontend meshes. Callers hold mu.
func (a *App) meshes(g *scene.Graph) ([]MeshData, error) {
	ms, err := tessellate.Tessellate(g, a.kernel)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		return nil, fmt.Errorf("tessellation failed: %w", err)
	}
	out := make([]MeshData, 0, len(ms))
	for i, m := range ms {
		out = append(out, toMeshData(m, colorPalette[i%len(colorPalette)]))
	}
	return out, nil
}

// fixData re-meshes the scene after a mutation. Callers hold mu.
func (a *App) fixData() (FixData, error) {
	meshes, err := a.meshes(a.graph)
	if err != nil {
		return FixData{}, err
	}
	return FixData{
		Changes: []string{},
		Meshes:  meshes,
		Source:  engine.Format(a.graph),
		CanUndo: len(a.history) > 0,
	}, nil
}

func (a *App) reportData(rep resolve.Report) ReportData {
	d := ReportData{
		Conflicts:  make([]ConflictData, 0, len(rep.Conflicts)),
		Highlights: []MeshData{},
		BoxCount:   rep.BoxCount,
		Policy:     rep.Policy.String(),
		Recheck:    rep.Recheck,
	}
	switch {
	case rep.NoBoxes():
		d.Message = "No cubes found in the scene."
	case rep.Clean():
		d.Message = fmt.Sprintf("No z-fighting detected across %d cubes.", rep.BoxCount)
	default:
		d.Message = fmt.Sprintf("Found %d conflicts.", len(rep.Conflicts))
	}

	for _, c := range rep.Conflicts {
		d.Conflicts = append(d.Conflicts, ConflictData{
			Label: c.String(),
			NameA: c.NameA,
			NameB: c.NameB,
			Faces: c.Result.FaceLabels(),
			Depth: [3]float64{c.Result.Depth.X, c.Result.Depth.Y, c.Result.Depth.Z},
		})
	}

	regions, err := tessellate.ConflictRegions(rep.Conflicts, a.kernel)
	if err != nil {
		log.Printf("conflict regions: %v", err)
		return d
	}
	for _, m := range regions {
		d.Highlights = append(d.Highlights, toMeshData(m, conflictColor))
	}
	if len(rep.Conflicts) == 0 {
		return d
	}

	overlay, err := tessellate.Overlay(rep.Conflicts, a.kernel)
	if err != nil {
		log.Printf("conflict overlay: %v", err)
		return d
	}
	m := toMeshData(overlay, conflictColor)
	d.Overlay = &m
	return d
}

func toMeshData(m *kernel.Mesh, color string) MeshData {
	return MeshData{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		Indices:  m.Indices,
		Name:     m.Name,
		Color:    color,
		Conflict: m.Conflict,
	}
}

func toSettingsData(s resolve.Settings) SettingsData {
	return SettingsData{
		Tolerance:      s.Tolerance,
		Amount:         s.Amount,
		Method:         s.Method.String(),
		AutoRecheck:    s.AutoRecheck,
		DetectPolicy:   s.DetectPolicy.String(),
		FixPolicy:      s.FixPolicy.String(),
		RecheckDelayMs: s.RecheckDelay.Milliseconds(),
	}
}

func fromSettingsData(d SettingsData) (resolve.Settings, error) {
	method, err := resolve.ParseFixMethod(d.Method)
	if err != nil {
		return resolve.Settings{}, err
	}
	detect, err := geom.ParsePolicy(d.DetectPolicy)
	if err != nil {
		return resolve.Settings{}, err
	}
	fix, err := geom.ParsePolicy(d.FixPolicy)
	if err != nil {
		return resolve.Settings{}, err
	}
	s := resolve.Settings{
		Tolerance:    d.Tolerance,
		Amount:       d.Amount,
		Method:       method,
		AutoRecheck:  d.AutoRecheck,
		DetectPolicy: detect,
		FixPolicy:    fix,
		RecheckDelay: time.Duration(d.RecheckDelayMs) * time.Millisecond,
	}
	return s, s.Validate()
}
