package checker

// =============================================================================
// CHECKER PIPELINE: LOAD, REPLAY, VALIDATE
// =============================================================================
//
// The checker drives the property rule engine over a set of design files:
// 1. Load configuration and register user-defined properties
// 2. Read every design document and check it against the CUE contract
// 3. Build each design and replay its assignments through the registry
// 4. Check mutex groups on definitions and on specialized instances
// 5. Validate the resolved value of every bindable property
//
// Diagnostics about the designs go to the collector and never stop the
// run. Only pipeline failures (bad config, an internal rule engine fault,
// unwritable outputs) are returned as errors.
// =============================================================================

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robert-at-pretension-io/rdl-lint/internal/config"
	"github.com/robert-at-pretension-io/rdl-lint/internal/design"
	"github.com/robert-at-pretension-io/rdl-lint/internal/diag"
	"github.com/robert-at-pretension-io/rdl-lint/internal/expr"
	"github.com/robert-at-pretension-io/rdl-lint/internal/facts"
	"github.com/robert-at-pretension-io/rdl-lint/internal/properties"
	"github.com/robert-at-pretension-io/rdl-lint/internal/validator"
)

// Checker runs the rule engine over the design files of a project.
type Checker struct {
	// Configuration loaded from rdl_lint.json
	Config *config.Config

	// ConfigPath is the file Config was read from. When set, the raw file
	// is checked against the config contract before use.
	ConfigPath string

	// Verbose output
	Verbose bool

	// JSON output mode
	JSONOutput bool

	// Timing output (JSONL)
	Timing     bool
	TimingPath string

	// WriteFacts stores the fact tables of this run in the facts dir and
	// computes the delta against the previous run.
	WriteFacts bool

	// Out receives the report. Defaults to stdout.
	Out io.Writer

	Logger *slog.Logger

	// Populated by Run.
	Registry    *properties.Registry
	Designs     []*design.Design
	Diagnostics *diag.Collector
	Tables      facts.Tables
	Delta       facts.Delta
	Result      LintResult
}

// LintResult is the structured result of a check. It is what --json
// prints and it must satisfy the output contract.
type LintResult struct {
	Files       []string          `json:"files"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Summary     ResultSummary     `json:"summary"`
}

// ResultSummary provides aggregate counts
type ResultSummary struct {
	Files     int `json:"files"`
	Instances int `json:"instances"`
	Fatal     int `json:"fatal"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
	Infos     int `json:"infos"`
}

// HasErrors reports whether the check found fatal or error diagnostics.
func (r LintResult) HasErrors() bool {
	return r.Summary.Fatal+r.Summary.Errors > 0
}

// New creates a Checker that loads its configuration from the project.
func New() *Checker {
	return &Checker{}
}

// NewWithConfig creates a Checker with the given configuration
func NewWithConfig(cfg *config.Config) *Checker {
	c := New()
	c.Config = cfg
	return c
}

func (c *Checker) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c *Checker) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return NewLogger(io.Discard, false, false)
}

type loaded struct {
	file string
	doc  *design.Document
	err  error
}

// Run checks every design file under rootPath. rootPath may also name a
// single design file.
func (c *Checker) Run(rootPath string) error {
	ctx := context.Background()
	runStart := time.Now()
	pipelineErrs := make([]error, 0)
	recordPipelineErr := func(err error) {
		pipelineErrs = append(pipelineErrs, err)
	}
	timing := openStageClock(runStart, c.resolveTimingPath(rootPath))
	if err := timing.Err(); err != nil {
		recordPipelineErr(fmt.Errorf("timing output disabled: %w", err))
	}
	defer timing.Close()
	log := c.logger()

	// 0. Configuration and user-defined properties
	stepStart := time.Now()
	if c.Config == nil {
		cfg, path, err := loadConfig(rootPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		c.Config = cfg
		c.ConfigPath = path
	}
	if c.ConfigPath != "" {
		if err := validateConfigFile(c.ConfigPath); err != nil {
			return fmt.Errorf("config %s: %w", c.ConfigPath, err)
		}
		log.Debug("config loaded", "path", c.ConfigPath)
	}

	reg, err := NewRegistry(ctx, c.Config)
	if err != nil {
		return fmt.Errorf("user properties: %w", err)
	}
	c.Registry = reg
	c.Designs = nil
	c.Diagnostics = diag.NewCollector(c.Config.Lint.Rules, log)
	sink := c.Diagnostics
	timing.Stage("config", stepStart, len(reg.Rules()), 0)

	// 1. Find design files
	stepStart = time.Now()
	files, err := c.findDesigns(rootPath)
	if err != nil {
		return fmt.Errorf("scanning designs: %w", err)
	}
	log.Info("designs found", "count", len(files))
	scanDuration := timing.Stage("scan", stepStart, len(files), 0)

	// 2. Parallel load, then the CUE contract for each document
	stepStart = time.Now()
	var wg sync.WaitGroup
	results := make(chan loaded, len(files))
	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()
			fileStart := time.Now()
			doc, err := design.ReadFile(f)
			components := 0
			if doc != nil {
				components = len(doc.Components)
			}
			timing.Design("load", f, fileStart, components, 0, err != nil)
			results <- loaded{file: f, doc: doc, err: err}
		}(file)
	}
	wg.Wait()
	close(results)

	var docs []loaded
	for r := range results {
		docs = append(docs, r)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].file < docs[j].file })

	designValidator, err := validator.NewDesignValidator()
	if err != nil {
		return fmt.Errorf("CRITICAL: Failed to initialize CUE validator: %w", err)
	}
	var valid []*design.Document
	for _, r := range docs {
		if r.err != nil {
			_ = sink.Fatal(diag.CodeDesign, r.err.Error(), diag.Source{File: r.file})
			continue
		}
		if err := designValidator.Validate(r.doc.Raw); err != nil {
			_ = sink.Fatal(diag.CodeDesign, err.Error(), diag.Source{File: r.file})
			continue
		}
		valid = append(valid, r.doc)
	}
	loadDuration := timing.Stage("load", stepStart, len(valid), sink.Len())

	// 3. Build and replay assignments
	stepStart = time.Now()
	suggest := c.Config.ShouldSuggest()
	statements, before := 0, sink.Len()
	for _, doc := range valid {
		docStart, docBefore := time.Now(), sink.Len()
		ev := expr.New()
		d, err := design.Build(doc, reg, ev)
		if err != nil {
			_ = sink.Fatal(diag.CodeDesign, err.Error(), diag.Source{File: doc.File})
			timing.Design("assign", doc.File, docStart, 0, sink.Len()-docBefore, true)
			continue
		}
		if err := d.Assign(properties.Env{Eval: ev, Sink: sink}, suggest); err != nil {
			return fmt.Errorf("assigning %s: %w", doc.File, err)
		}
		statements += len(d.Statements)
		timing.Design("assign", doc.File, docStart, len(d.Statements), sink.Len()-docBefore, false)
		c.Designs = append(c.Designs, d)
	}
	assignDuration := timing.Stage("assign", stepStart, statements, sink.Len()-before)

	// 4. Mutex groups
	stepStart, before = time.Now(), sink.Len()
	checked := 0
	for _, d := range c.Designs {
		checked += checkMutexGroups(reg, d, sink)
	}
	mutexDuration := timing.Stage("mutex", stepStart, checked, sink.Len()-before)

	// 5. Validation of resolved values
	stepStart, before = time.Now(), sink.Len()
	instances := 0
	for _, d := range c.Designs {
		docStart, docBefore := time.Now(), sink.Len()
		n := validateDesign(reg, d, sink)
		timing.Design("validate", d.File, docStart, n, sink.Len()-docBefore, false)
		instances += n
	}
	validateDuration := timing.Stage("validate", stepStart, instances, sink.Len()-before)

	// 6. Fact tables
	stepStart = time.Now()
	c.Tables = facts.BuildTables(reg, c.Designs, sink.Sorted())
	if c.WriteFacts {
		if err := c.storeFacts(rootPath); err != nil {
			recordPipelineErr(err)
		}
	}
	factsDuration := timing.Stage("facts", stepStart, len(c.Tables.Values), 0)

	// 7. Report
	stepStart = time.Now()
	c.Result = LintResult{
		Files:       files,
		Diagnostics: sink.Sorted(),
		Summary: ResultSummary{
			Files:     len(files),
			Instances: instances,
			Fatal:     sink.Count(diag.SeverityFatal),
			Errors:    sink.Count(diag.SeverityError),
			Warnings:  sink.Count(diag.SeverityWarning),
			Infos:     sink.Count(diag.SeverityInfo),
		},
	}
	if c.Result.Files == nil {
		c.Result.Files = []string{}
	}

	if c.JSONOutput {
		outputValidator, err := validator.NewOutputValidator()
		if err != nil {
			return fmt.Errorf("CRITICAL: Failed to initialize CUE validator: %w", err)
		}
		if err := outputValidator.Validate(c.Result); err != nil {
			return fmt.Errorf("CRITICAL: Output contract violation: %w", err)
		}
		enc := json.NewEncoder(c.out())
		enc.SetIndent("", "  ")
		if err := enc.Encode(c.Result); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
	} else {
		c.printText()
	}
	reportDuration := timing.Stage("report", stepStart, len(c.Result.Diagnostics), 0)

	if c.Verbose && !c.JSONOutput {
		w := c.out()
		fmt.Fprintf(w, "\n=== Timing Summary ===\n")
		fmt.Fprintf(w, "  scan:     %s\n", formatDuration(scanDuration))
		fmt.Fprintf(w, "  load:     %s\n", formatDuration(loadDuration))
		fmt.Fprintf(w, "  assign:   %s\n", formatDuration(assignDuration))
		fmt.Fprintf(w, "  mutex:    %s\n", formatDuration(mutexDuration))
		fmt.Fprintf(w, "  validate: %s\n", formatDuration(validateDuration))
		fmt.Fprintf(w, "  facts:    %s\n", formatDuration(factsDuration))
		fmt.Fprintf(w, "  report:   %s\n", formatDuration(reportDuration))
		fmt.Fprintf(w, "  total:    %s\n", formatDuration(time.Since(runStart)))
	}
	timing.Stage("total", runStart, instances, sink.Len())

	if len(pipelineErrs) > 0 {
		return fmt.Errorf("pipeline errors:\n%s", formatPipelineErrors(pipelineErrs))
	}
	return nil
}

func loadConfig(rootPath string) (*config.Config, string, error) {
	path, ok := config.Find(rootPath)
	if !ok {
		return config.DefaultConfig(), "", nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func validateConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	v, err := validator.NewConfigValidator()
	if err != nil {
		return fmt.Errorf("CRITICAL: Failed to initialize CUE validator: %w", err)
	}
	return v.ValidateJSON(data)
}

// findDesigns resolves the design files to check. A file argument is
// checked on its own, ignore patterns included.
func (c *Checker) findDesigns(rootPath string) ([]string, error) {
	if rootPath == "" {
		rootPath = "."
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{rootPath}, nil
	}
	return c.Config.ResolveDesigns(rootPath)
}

// checkMutexGroups checks every definition, then every specialized
// instance for conflicts its dynamic overrides introduced. It returns the
// number of components checked.
func checkMutexGroups(reg *properties.Registry, d *design.Design, sink diag.Sink) int {
	checked := 0
	for _, name := range d.Order {
		reg.CheckMutexGroups(d.Components[name], sink)
		checked++
	}
	for _, in := range d.Instances() {
		if in.Specialized() {
			reg.CheckSpecialized(in.Def(), in.Base(), in.Source(), sink)
			checked++
		}
	}
	return checked
}

// validateDesign resolves and validates every property bindable to each
// instance, alias spellings excepted. It returns the instance count.
func validateDesign(reg *properties.Registry, d *design.Design, sink diag.Sink) int {
	env := properties.Env{Eval: expr.New(), Sink: sink}
	count := 0
	_ = d.Walk(func(in *design.Instance) error {
		count++
		for _, r := range reg.BindableTo(in.Def().Kind) {
			if r.IsAlias() {
				continue
			}
			v, err := in.Property(r.Name)
			if err != nil {
				sink.Error(diag.CodeInvalidValue,
					fmt.Sprintf("cannot resolve property '%s': %v", r.Name, err), in.Source())
				continue
			}
			r.Validate(env, in, v)
		}
		return nil
	})
	return count
}

func (c *Checker) printText() {
	w := c.out()
	fmt.Fprintf(w, "Checked %d design files (%d instances)\n", c.Result.Summary.Files, c.Result.Summary.Instances)

	if len(c.Result.Diagnostics) > 0 {
		fmt.Fprintf(w, "\n=== Diagnostics ===\n")
		for _, d := range c.Result.Diagnostics {
			icon := "ℹ"
			switch d.Severity {
			case diag.SeverityFatal, diag.SeverityError:
				icon = "✗"
			case diag.SeverityWarning:
				icon = "⚠"
			}
			fmt.Fprintf(w, "%s [%s] %s - %s\n", icon, d.Code, d.Source, d.Message)
		}
	}

	if c.Verbose && c.WriteFacts {
		fmt.Fprintf(w, "\n=== Fact Changes ===\n")
		fmt.Fprintf(w, "  Added:   %d\n", c.Delta.Added.Len())
		fmt.Fprintf(w, "  Removed: %d\n", c.Delta.Removed.Len())
	}

	fmt.Fprintf(w, "\n=== Summary ===\n")
	fmt.Fprintf(w, "  Fatal:    %d\n", c.Result.Summary.Fatal)
	fmt.Fprintf(w, "  Errors:   %d\n", c.Result.Summary.Errors)
	fmt.Fprintf(w, "  Warnings: %d\n", c.Result.Summary.Warnings)
	fmt.Fprintf(w, "  Info:     %d\n", c.Result.Summary.Infos)
}

func formatPipelineErrors(errs []error) string {
	var b strings.Builder
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return fmt.Sprintf("%.2fm", d.Minutes())
	}
}

// factsDir resolves the configured facts dir against the project root.
func (c *Checker) factsDir(rootPath string) string {
	dir := c.Config.Facts.Dir
	if dir == "" {
		dir = config.DefaultConfig().Facts.Dir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	if rootPath == "" {
		rootPath = "."
	}
	if info, err := os.Stat(rootPath); err == nil && !info.IsDir() {
		rootPath = filepath.Dir(rootPath)
	}
	return filepath.Join(rootPath, dir)
}
