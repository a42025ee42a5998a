package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const (
	apartScene = `(cube "a" :from (vec3 0 0 0) :to (vec3 1 1 1))
(cube "b" :from (vec3 5 0 0) :to (vec3 6 1 1))
`
	touchingScene = `(cube "a" :from (vec3 0 0 0) :to (vec3 1 1 1))
(cube "b" :from (vec3 1 0 0) :to (vec3 2 1 1))
`
	overlapScene = `(cube "a" :from (vec3 0 0 0) :to (vec3 1 1 1))
(cube "b" :from (vec3 0.5 0 0) :to (vec3 1.5 1 1))
`
)

// setupTestEnv isolates config lookup in a temp dir and returns that dir.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("ZFIGHT_CONFIG", "")
	return dir
}

func writeScene(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("write scene: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	setupTestEnv(t)
	out, _, err := run(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"zfight", "Scene Commands:", "detect", "fix", "settings"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	setupTestEnv(t)
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version output = %q, want %q", out, version)
	}
}

func TestSetVersion(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })

	SetVersion("1.2.3")
	if version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", version)
	}
	SetVersion("")
	if version != "1.2.3" {
		t.Errorf("empty SetVersion changed version to %q", version)
	}
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	setupTestEnv(t)
	if _, _, err := run(t, "frobnicate"); err == nil {
		t.Error("expected error for invalid command")
	}
}

func TestDetect_Clean(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "apart.zf", apartScene)

	out, _, err := run(t, "detect", path)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !strings.Contains(out, "No z-fighting detected across 2 cubes (1 pair checked).") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDetect_Conflict(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "touch.zf", touchingScene)

	out, _, err := run(t, "detect", path)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !strings.Contains(out, "Found 1 conflict among 2 cubes.") {
		t.Errorf("missing summary:\n%s", out)
	}
	if !strings.Contains(out, "a ↔ b (X-axis)") {
		t.Errorf("missing conflict line:\n%s", out)
	}
}

func TestDetect_VolumetricPolicyIgnoresTouching(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "touch.zf", touchingScene)

	out, _, err := run(t, "detect", "--policy", "volumetric", path)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !strings.Contains(out, "No z-fighting detected") {
		t.Errorf("expected clean volumetric scan:\n%s", out)
	}
}

func TestDetect_JSON(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "touch.zf", touchingScene)

	out, _, err := run(t, "--json", "detect", path)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}

	var rep struct {
		Conflicts []struct {
			NameA string `json:"name_a"`
			NameB string `json:"name_b"`
		} `json:"conflicts"`
		BoxCount int    `json:"box_count"`
		Policy   string `json:"policy"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if rep.BoxCount != 2 || rep.Policy != "face" {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Conflicts) != 1 || rep.Conflicts[0].NameA != "a" || rep.Conflicts[0].NameB != "b" {
		t.Errorf("conflicts = %+v", rep.Conflicts)
	}
}

func TestDetect_Strict(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "touch.zf", touchingScene)

	_, _, err := run(t, "detect", "--strict", path)
	if !errors.Is(err, ErrConflictsFound) {
		t.Errorf("err = %v, want ErrConflictsFound", err)
	}
}

func TestDetect_Errors(t *testing.T) {
	dir := setupTestEnv(t)
	bad := writeScene(t, dir, "bad.zf", `(cube "a" :from (vec3 0 0 0))`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"detect", filepath.Join(dir, "nope.zf")}, "read scene"},
		{"eval error", []string{"detect", bad}, ":to is required"},
		{"bad policy", []string{"detect", "--policy", "sideways", bad}, "unknown detection policy"},
		{"no args", []string{"detect"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestDetect_ConfigTolerance(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "gap.zf", `(cube "a" :from (vec3 0 0 0) :to (vec3 1 1 1))
(cube "b" :from (vec3 1.2 0 0) :to (vec3 2 1 1))
`)
	cfg := filepath.Join(dir, "zfight.yaml")
	if err := os.WriteFile(cfg, []byte("detection:\n  tolerance: 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "detect", path)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !strings.Contains(out, "Found 1 conflict") {
		t.Errorf("config tolerance not applied:\n%s", out)
	}

	out, _, err = run(t, "detect", "--tolerance", "0.1", path)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !strings.Contains(out, "No z-fighting detected") {
		t.Errorf("flag did not override config:\n%s", out)
	}
}

func TestFix_SeparateAndWrite(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "overlap.zf", overlapScene)

	out, _, err := run(t, "fix", "--write", path)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	for _, want := range []string{"Fixed Z-Fighting", "separate: 1 cube changed.", "Recheck", "No z-fighting detected", "Saved"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "1.05") {
		t.Errorf("scene was not rewritten with the moved cube:\n%s", data)
	}

	// The rewritten scene is clean under both policies.
	out, _, err = run(t, "detect", path)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !strings.Contains(out, "No z-fighting detected") {
		t.Errorf("fixed scene still conflicts:\n%s", out)
	}
}

func TestFix_DryRunLeavesFile(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "overlap.zf", overlapScene)

	out, _, err := run(t, "fix", "--method", "inflate-second", "--no-recheck", path)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if strings.Contains(out, "Recheck") {
		t.Errorf("recheck ran with --no-recheck:\n%s", out)
	}
	data, _ := os.ReadFile(path)
	if string(data) != overlapScene {
		t.Errorf("dry run modified the scene:\n%s", data)
	}
}

func TestFix_Output(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "overlap.zf", overlapScene)
	dst := filepath.Join(dir, "fixed.zf")

	if _, _, err := run(t, "fix", "-m", "inflate-second", "-a", "0.25", "-o", dst, path); err != nil {
		t.Fatalf("fix: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(data), ":inflate 0.25") {
		t.Errorf("output missing inflate:\n%s", data)
	}
}

func TestFix_NothingToFix(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "touch.zf", touchingScene)

	out, _, err := run(t, "fix", "--write", path)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !strings.Contains(out, "No z-fighting detected") || strings.Contains(out, "Saved") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestFix_JSON(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "overlap.zf", overlapScene)

	out, _, err := run(t, "--json", "fix", path)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	var got struct {
		Fix struct {
			Method  string `json:"method"`
			Fixed   int    `json:"fixed"`
			Changes []struct {
				Name  string `json:"name"`
				Moved bool   `json:"moved"`
				Axis  string `json:"axis"`
			} `json:"changes"`
		} `json:"fix"`
		Recheck *struct {
			Conflicts []json.RawMessage `json:"conflicts"`
			Recheck   bool              `json:"recheck"`
		} `json:"recheck"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Fix.Method != "separate" || got.Fix.Fixed != 1 {
		t.Errorf("fix = %+v", got.Fix)
	}
	if len(got.Fix.Changes) != 1 || got.Fix.Changes[0].Name != "b" || got.Fix.Changes[0].Axis != "Y" {
		t.Errorf("changes = %+v", got.Fix.Changes)
	}
	if got.Recheck == nil || !got.Recheck.Recheck || len(got.Recheck.Conflicts) != 0 {
		t.Errorf("recheck = %+v", got.Recheck)
	}
}

func TestFix_BadMethod(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeScene(t, dir, "overlap.zf", overlapScene)

	_, _, err := run(t, "fix", "--method", "explode", path)
	if err == nil || !strings.Contains(err.Error(), "unknown fix method") {
		t.Errorf("err = %v", err)
	}
	_, _, err = run(t, "fix", "--amount", "-1", path)
	if err == nil || !strings.Contains(err.Error(), "amount must be a positive number") {
		t.Errorf("err = %v", err)
	}
}

func TestSettings_ShowDefaults(t *testing.T) {
	setupTestEnv(t)
	out, _, err := run(t, "settings", "show")
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	for _, want := range []string{"(defaults)", "separate", "face", "volumetric", "500ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSettings_InitThenShow(t *testing.T) {
	dir := setupTestEnv(t)
	path := filepath.Join(dir, "conf", "zfight.yaml")

	if _, _, err := run(t, "settings", "init", path); err != nil {
		t.Fatalf("settings init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, _, err := run(t, "settings", "init", path); err == nil {
		t.Error("expected error when config exists")
	}
	if _, _, err := run(t, "settings", "init", "--force", path); err != nil {
		t.Errorf("init --force: %v", err)
	}

	out, _, err := run(t, "--json", "--config", path, "settings", "show")
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	var s struct {
		Method       string
		DetectPolicy string
		Tolerance    float64
	}
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if s.Method != "separate" || s.DetectPolicy != "face" || s.Tolerance != 0.001 {
		t.Errorf("settings = %+v", s)
	}
}
