package checker

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robert-at-pretension-io/rdl-lint/internal/config"
)

func TestTimingJSONLWritten(t *testing.T) {
	t.Setenv("RDL_TIMING_JSONL", "")
	timingPath := filepath.Join(t.TempDir(), "timing.jsonl")

	c := NewWithConfig(config.DefaultConfig())
	c.Timing = true
	c.TimingPath = timingPath
	c.JSONOutput = true
	runForTest(t, c, filepath.Join("testdata", "clean"))

	raw, err := os.ReadFile(timingPath)
	if err != nil {
		t.Fatalf("read timing file: %v", err)
	}
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	if len(lines) == 0 {
		t.Fatalf("expected timing events, found none")
	}

	stages := make(map[string]stageTiming)
	perDesign := make(map[string]stageTiming)
	for _, line := range lines {
		var rec stageTiming
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("parse timing record: %v", err)
		}
		if rec.Design == "" {
			stages[rec.Stage] = rec
			continue
		}
		if _, dup := perDesign[rec.Stage]; dup {
			t.Fatalf("expected one %s record for the single design, got another: %+v", rec.Stage, rec)
		}
		perDesign[rec.Stage] = rec
	}
	for _, stage := range []string{"config", "scan", "load", "assign", "mutex", "validate", "facts", "report", "total"} {
		if _, ok := stages[stage]; !ok {
			t.Fatalf("missing %s stage record", stage)
		}
	}
	if got := stages["scan"].Items; got != 1 {
		t.Fatalf("scan should count one design file, got %d", got)
	}
	if got := stages["validate"].Items; got != 6 {
		t.Fatalf("validate should count 6 instances, got %d", got)
	}

	load, ok := perDesign["load"]
	if !ok || load.Failed || load.Items != 5 {
		t.Fatalf("unexpected load record: %+v", load)
	}
	assign := perDesign["assign"]
	if assign.Items == 0 || assign.Diagnostics != 0 || assign.Items != stages["assign"].Items {
		t.Fatalf("unexpected assign record: %+v (stage %+v)", assign, stages["assign"])
	}
	if v := perDesign["validate"]; v.Items != 6 || v.Diagnostics != 0 {
		t.Fatalf("unexpected validate record: %+v", v)
	}
}

func TestStageRecordsCountDiagnostics(t *testing.T) {
	t.Setenv("RDL_TIMING_JSONL", "")
	timingPath := filepath.Join(t.TempDir(), "timing.jsonl")

	c := projectChecker(t)
	c.Timing = true
	c.TimingPath = timingPath
	runForTest(t, c, filepath.Join("testdata", "project"))

	raw, err := os.ReadFile(timingPath)
	if err != nil {
		t.Fatalf("read timing file: %v", err)
	}
	total := 0
	for _, line := range bytes.Split(bytes.TrimSpace(raw), []byte("\n")) {
		var rec stageTiming
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("parse timing record: %v", err)
		}
		if rec.Design == "" && rec.Stage != "total" {
			total += rec.Diagnostics
		}
	}
	if want := len(c.Result.Diagnostics); total != want {
		t.Fatalf("stage diagnostics add up to %d, want %d", total, want)
	}
}

func TestTimingPathResolution(t *testing.T) {
	t.Setenv("RDL_TIMING_JSONL", "")
	t.Setenv("RDL_TIMING", "")

	c := New()
	if got := c.resolveTimingPath("proj"); got != "" {
		t.Fatalf("timing should be off by default, got %q", got)
	}

	c.Timing = true
	if got := c.resolveTimingPath("proj"); got != filepath.Join("proj", "timing.jsonl") {
		t.Fatalf("unexpected default path %q", got)
	}

	c.TimingPath = "custom.jsonl"
	if got := c.resolveTimingPath("proj"); got != "custom.jsonl" {
		t.Fatalf("explicit path ignored, got %q", got)
	}

	t.Setenv("RDL_TIMING_JSONL", "env.jsonl")
	if got := c.resolveTimingPath("proj"); got != "env.jsonl" {
		t.Fatalf("environment should win, got %q", got)
	}

	t.Setenv("RDL_TIMING_JSONL", "")
	c = New()
	t.Setenv("RDL_TIMING", "true")
	if got := c.resolveTimingPath(""); got != "timing.jsonl" {
		t.Fatalf("RDL_TIMING should enable timing, got %q", got)
	}
}

func TestDisabledClockIsNoop(t *testing.T) {
	sc := openStageClock(time.Now(), "")
	sc.Stage("scan", time.Now(), 3, 0)
	sc.Design("load", "a.rdl.yaml", time.Now(), 1, 0, false)
	if sc.active() || len(sc.Records()) != 0 || sc.Err() != nil {
		t.Fatalf("clock without a path must record nothing")
	}
	sc.Close()
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Nanosecond, "500ns"},
		{250 * time.Microsecond, "250us"},
		{1500 * time.Microsecond, "1.50ms"},
		{2 * time.Second, "2.00s"},
		{90 * time.Second, "1.50m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
