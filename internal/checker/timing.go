package checker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// stageTiming is one JSONL line. Without Design it covers a whole pipeline
// stage; with Design it covers one document's pass through that stage.
// Items counts what the pass worked on: files scanned, statements
// replayed, components checked, instances validated or fact rows built.
// Diagnostics counts what the pass added to the collector.
type stageTiming struct {
	Stage       string  `json:"stage"`
	Design      string  `json:"design,omitempty"`
	Items       int     `json:"items"`
	Diagnostics int     `json:"diagnostics"`
	Failed      bool    `json:"failed,omitempty"`
	AtMS        float64 `json:"at_ms"`
	TookMS      float64 `json:"took_ms"`
}

// stageClock writes stageTiming records as they happen. The zero path
// gives a clock that records nothing.
type stageClock struct {
	origin time.Time
	path   string

	mu      sync.Mutex
	records []stageTiming
	out     *os.File
	enc     *json.Encoder
	err     error
}

func openStageClock(origin time.Time, path string) *stageClock {
	sc := &stageClock{origin: origin, path: path}
	if path == "" {
		return sc
	}
	f, err := os.Create(path)
	if err != nil {
		sc.err = err
		return sc
	}
	sc.out = f
	sc.enc = json.NewEncoder(f)
	return sc
}

func (sc *stageClock) active() bool { return sc != nil && sc.out != nil }

// Err reports why the output file could not be created.
func (sc *stageClock) Err() error {
	if sc == nil {
		return nil
	}
	return sc.err
}

func (sc *stageClock) Close() {
	if sc.active() {
		_ = sc.out.Close()
	}
}

// Records returns what has been written so far.
func (sc *stageClock) Records() []stageTiming {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return append([]stageTiming(nil), sc.records...)
}

// Stage records a finished pipeline stage and returns its duration.
func (sc *stageClock) Stage(stage string, since time.Time, items, diagnostics int) time.Duration {
	took := time.Since(since)
	sc.write(stageTiming{Stage: stage, Items: items, Diagnostics: diagnostics}, since, took)
	return took
}

// Design records one document's part of a stage. It is safe to call from
// the load goroutines.
func (sc *stageClock) Design(stage, file string, since time.Time, items, diagnostics int, failed bool) {
	sc.write(stageTiming{Stage: stage, Design: file, Items: items, Diagnostics: diagnostics, Failed: failed},
		since, time.Since(since))
}

func (sc *stageClock) write(rec stageTiming, since time.Time, took time.Duration) {
	if !sc.active() {
		return
	}
	rec.AtMS = millis(since.Sub(sc.origin))
	rec.TookMS = millis(took)

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.records = append(sc.records, rec)
	_ = sc.enc.Encode(rec)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// resolveTimingPath picks the JSONL destination: RDL_TIMING_JSONL wins,
// then --timing-path, then --timing or RDL_TIMING, which write
// timing.jsonl next to the checked designs.
func (c *Checker) resolveTimingPath(rootPath string) string {
	if envPath := os.Getenv("RDL_TIMING_JSONL"); envPath != "" {
		return envPath
	}
	if !c.Timing && !envBool("RDL_TIMING") {
		return ""
	}
	if c.TimingPath != "" {
		return c.TimingPath
	}
	if rootPath == "" {
		return "timing.jsonl"
	}
	if info, err := os.Stat(rootPath); err == nil && !info.IsDir() {
		rootPath = filepath.Dir(rootPath)
	}
	return filepath.Join(rootPath, "timing.jsonl")
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
