package checker

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robert-at-pretension-io/rdl-lint/internal/config"
	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
)

func runForTest(t *testing.T, c *Checker, root string) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	c.Out = &out
	if err := c.Run(root); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return &out
}

func projectChecker(t *testing.T) *Checker {
	t.Helper()
	path := filepath.Join("testdata", "project", "rdl_lint.json")
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Facts.Dir = t.TempDir()
	c := NewWithConfig(cfg)
	c.ConfigPath = path
	return c
}

func countCode(ds []diag.Diagnostic, code string) int {
	n := 0
	for _, d := range ds {
		if d.Code == code {
			n++
		}
	}
	return n
}

func TestRunCleanDesign(t *testing.T) {
	c := NewWithConfig(config.DefaultConfig())
	out := runForTest(t, c, filepath.Join("testdata", "clean"))

	if c.Result.HasErrors() || len(c.Result.Diagnostics) != 0 {
		t.Fatalf("expected a clean result, got %+v", c.Result.Diagnostics)
	}
	if c.Result.Summary.Files != 1 || c.Result.Summary.Instances != 6 {
		t.Fatalf("unexpected summary: %+v", c.Result.Summary)
	}
	text := out.String()
	if !strings.Contains(text, "Checked 1 design files (6 instances)") {
		t.Fatalf("missing header in output:\n%s", text)
	}
	if !strings.Contains(text, "=== Summary ===") || strings.Contains(text, "=== Diagnostics ===") {
		t.Fatalf("unexpected sections in output:\n%s", text)
	}
}

func TestRunSingleFile(t *testing.T) {
	file := filepath.Join("testdata", "clean", "uart.rdl.yaml")
	c := NewWithConfig(config.DefaultConfig())
	runForTest(t, c, file)

	if len(c.Result.Files) != 1 || c.Result.Files[0] != file {
		t.Fatalf("expected only %s, got %v", file, c.Result.Files)
	}
	if len(c.Designs) != 1 || c.Designs[0].Root.Name() != "uart" {
		t.Fatalf("expected the uart design to be built")
	}
}

func TestRunProjectDiagnostics(t *testing.T) {
	c := projectChecker(t)
	out := runForTest(t, c, filepath.Join("testdata", "project"))

	ds := c.Result.Diagnostics
	want := map[string]int{
		diag.CodeDesign:          1,
		diag.CodeUnknownProperty: 1,
		diag.CodeInvalidWidth:    2,
		diag.CodeExceedsWidth:    1,
		diag.CodeMutexGroup:      1,
		diag.CodeUserPolicy:      2,
	}
	for code, n := range want {
		if got := countCode(ds, code); got != n {
			t.Errorf("%s: expected %d diagnostics, got %d", code, n, got)
		}
	}
	if len(ds) != 8 {
		t.Fatalf("expected 8 diagnostics, got %d: %+v", len(ds), ds)
	}

	sum := c.Result.Summary
	if sum.Files != 3 || sum.Instances != 7 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if sum.Fatal != 1 || sum.Errors != 5 || sum.Warnings != 2 || sum.Infos != 0 {
		t.Fatalf("unexpected severities: %+v", sum)
	}
	if !c.Result.HasErrors() {
		t.Fatalf("expected errors")
	}

	for _, d := range ds {
		switch d.Code {
		case diag.CodeExceedsWidth:
			if d.Source.Path != "soc.data.value" || d.Message != "reset value 31 exceeds field width of 4 bits" {
				t.Errorf("unexpected exceeds-width diagnostic: %+v", d)
			}
		case diag.CodeMutexGroup:
			if d.Source.Path != "soc.data.irq" {
				t.Errorf("mutex conflict should be reported on the specialized instance, got %+v", d)
			}
		case diag.CodeUserPolicy:
			if d.Severity != diag.SeverityWarning || d.Source.Path != "soc.data" {
				t.Errorf("unexpected policy diagnostic: %+v", d)
			}
		case diag.CodeUnknownProperty:
			if !strings.Contains(d.Message, "unknown property 'descr'") {
				t.Errorf("unexpected unknown-property message: %q", d.Message)
			}
		case diag.CodeDesign:
			if !strings.HasSuffix(d.Source.File, "broken.rdl.yaml") || d.Severity != diag.SeverityFatal {
				t.Errorf("unexpected design diagnostic: %+v", d)
			}
		}
	}

	text := out.String()
	if !strings.Contains(text, "=== Diagnostics ===") {
		t.Fatalf("missing diagnostics section:\n%s", text)
	}
	if !strings.Contains(text, "⚠ [user-policy]") || !strings.Contains(text, "✗ [exceeds-width]") {
		t.Fatalf("missing severity icons:\n%s", text)
	}
}

func TestRunJSONOutput(t *testing.T) {
	c := projectChecker(t)
	c.JSONOutput = true
	out := runForTest(t, c, filepath.Join("testdata", "project"))

	var got LintResult
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got.Summary != c.Result.Summary {
		t.Fatalf("summary mismatch: %+v vs %+v", got.Summary, c.Result.Summary)
	}
	if len(got.Diagnostics) != len(c.Result.Diagnostics) {
		t.Fatalf("expected %d diagnostics, got %d", len(c.Result.Diagnostics), len(got.Diagnostics))
	}
	if strings.Contains(out.String(), "===") {
		t.Fatalf("JSON mode must not print text sections")
	}
}

func TestRunLoadsProjectConfig(t *testing.T) {
	c := New()
	runForTest(t, c, filepath.Join("testdata", "project"))

	if !strings.HasSuffix(c.ConfigPath, "rdl_lint.json") {
		t.Fatalf("expected the project config to be found, got %q", c.ConfigPath)
	}
	if _, ok := c.Registry.Lookup("secure"); !ok {
		t.Fatalf("user property was not registered")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "rdl_lint.json")
	if err := os.WriteFile(cfgPath, []byte(`{"lint": {"rules": {"mutex-group": "loud"}}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	c := New()
	c.Out = &bytes.Buffer{}
	err := c.Run(dir)
	if err == nil || !strings.Contains(err.Error(), "config") {
		t.Fatalf("expected a config error, got %v", err)
	}
}

func TestRunRejectsBuiltinCollision(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Properties = []config.PropertyDecl{{Name: "sw", Bindings: []string{"field"}, Type: "boolean"}}
	c := NewWithConfig(cfg)
	c.Out = &bytes.Buffer{}
	err := c.Run(filepath.Join("testdata", "clean"))
	if err == nil || !strings.Contains(err.Error(), "user properties") {
		t.Fatalf("expected a registration error, got %v", err)
	}
}

func TestSeverityOverrides(t *testing.T) {
	c := projectChecker(t)
	c.Config.Lint.Rules[diag.CodeInvalidWidth] = "off"
	c.Config.Lint.Rules[diag.CodeMutexGroup] = "info"
	runForTest(t, c, filepath.Join("testdata", "project"))

	if n := countCode(c.Result.Diagnostics, diag.CodeInvalidWidth); n != 0 {
		t.Fatalf("expected invalid-width to be suppressed, got %d", n)
	}
	if c.Result.Summary.Infos != 1 || c.Result.Summary.Errors != 2 {
		t.Fatalf("unexpected summary: %+v", c.Result.Summary)
	}
}

func TestWriteFactsComputesDelta(t *testing.T) {
	c := projectChecker(t)
	c.WriteFacts = true
	c.Verbose = true
	out := runForTest(t, c, filepath.Join("testdata", "project"))

	if c.Delta.Added.Len() == 0 || c.Delta.Removed.Len() != 0 {
		t.Fatalf("first run should only add rows, got +%d -%d", c.Delta.Added.Len(), c.Delta.Removed.Len())
	}
	if _, err := os.Stat(filepath.Join(c.Config.Facts.Dir, FactTablesFile)); err != nil {
		t.Fatalf("fact tables not written: %v", err)
	}
	if !strings.Contains(out.String(), "=== Fact Changes ===") || !strings.Contains(out.String(), "=== Timing Summary ===") {
		t.Fatalf("missing verbose sections:\n%s", out.String())
	}

	again := NewWithConfig(c.Config)
	again.ConfigPath = c.ConfigPath
	again.WriteFacts = true
	runForTest(t, again, filepath.Join("testdata", "project"))
	if !again.Delta.Empty() {
		t.Fatalf("unchanged designs should give an empty delta, got +%d -%d",
			again.Delta.Added.Len(), again.Delta.Removed.Len())
	}
	if len(again.Tables.Instances) != 7 {
		t.Fatalf("expected 7 instance rows, got %d", len(again.Tables.Instances))
	}
}

func TestFormatPipelineErrors(t *testing.T) {
	got := formatPipelineErrors([]error{os.ErrNotExist, os.ErrPermission})
	want := "- file does not exist\n- permission denied"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
