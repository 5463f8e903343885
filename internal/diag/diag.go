// Package diag records compiler diagnostics.
//
// There are two user-facing severities: fatal diagnostics abort processing
// of the construct being handled, recoverable errors are recorded and
// processing continues so one run reports every defect it can find.
// Recoverable errors may be demoted or silenced per code through the
// lint.rules section of the configuration; fatal diagnostics cannot.
package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Severity of a recorded diagnostic.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic codes.
const (
	CodeInvalidBinding  = "invalid-binding"
	CodeIncompatible    = "incompatible-assignment"
	CodeDynamicAssign   = "dynamic-assignment"
	CodeUnknownProperty = "unknown-property"
	CodeMutexGroup      = "mutex-group"
	CodeExternalOnly    = "external-only"
	CodeSelfReference   = "self-reference"
	CodeExceedsWidth    = "exceeds-width"
	CodeWidthMismatch   = "width-mismatch"
	CodeInvalidWidth    = "invalid-width"
	CodeInvalidValue    = "invalid-value"
	CodeUnresolvedRef   = "unresolved-reference"
	CodeReferenceKind   = "reference-kind"
	CodeUserPolicy      = "user-policy"
	CodeDesign          = "design"
)

// Source locates a diagnostic: the design file and line of the
// offending statement, plus the instance or component path.
type Source struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Path string `json:"path,omitempty"`
}

func (s Source) String() string {
	switch {
	case s.File != "" && s.Path != "":
		return fmt.Sprintf("%s:%d (%s)", s.File, s.Line, s.Path)
	case s.File != "":
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	default:
		return s.Path
	}
}

// Diagnostic is a single recorded message. It implements error so the
// fatal path can hand it back to the caller.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Source   Source   `json:"source"`
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s [%s]", d.Source, d.Message, d.Code)
}

// ErrFatal matches any fatal diagnostic with errors.Is.
var ErrFatal = errors.New("fatal diagnostic")

func (d *Diagnostic) Is(target error) bool {
	return target == ErrFatal && d.Severity == SeverityFatal
}

// IsFatal reports whether err is, or wraps, a fatal diagnostic.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// Sink receives diagnostics from the rule engine.
type Sink interface {
	// Fatal records the diagnostic and returns it as an error. The caller
	// must stop processing the current construct.
	Fatal(code, msg string, src Source) error
	// Error records a recoverable diagnostic.
	Error(code, msg string, src Source)
}

// Collector is the Sink used by the checker. The zero value is usable.
type Collector struct {
	// Severities maps a code to "off", "info", "warning" or "error".
	Severities map[string]string
	Logger     *slog.Logger

	diags []Diagnostic
}

// NewCollector returns a Collector that applies the given overrides.
func NewCollector(severities map[string]string, logger *slog.Logger) *Collector {
	return &Collector{Severities: severities, Logger: logger}
}

func (c *Collector) Fatal(code, msg string, src Source) error {
	d := Diagnostic{Code: code, Severity: SeverityFatal, Message: msg, Source: src}
	c.record(d)
	return &d
}

func (c *Collector) Error(code, msg string, src Source) {
	sev := SeverityError
	switch c.Severities[code] {
	case "off":
		c.debug("diagnostic suppressed", code, src)
		return
	case "warning":
		sev = SeverityWarning
	case "info":
		sev = SeverityInfo
	}
	c.record(Diagnostic{Code: code, Severity: sev, Message: msg, Source: src})
}

func (c *Collector) record(d Diagnostic) {
	c.diags = append(c.diags, d)
	c.debug(d.Message, d.Code, d.Source)
}

func (c *Collector) debug(msg, code string, src Source) {
	if c.Logger == nil {
		return
	}
	c.Logger.Debug(msg, "code", code, "source", src.String())
}

// Diagnostics returns everything recorded so far, in recording order.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int { return len(c.diags) }

// Sorted returns the diagnostics ordered by file, line, path and code.
func (c *Collector) Sorted() []Diagnostic {
	out := c.Diagnostics()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Source, out[j].Source
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Count returns the number of diagnostics with the given severity.
func (c *Collector) Count(sev Severity) int {
	n := 0
	for _, d := range c.diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors reports whether any fatal or error diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	return c.Count(SeverityFatal)+c.Count(SeverityError) > 0
}

// Reset drops all recorded diagnostics.
func (c *Collector) Reset() {
	c.diags = c.diags[:0]
}
