// Package validator guards the JSON and YAML contracts of rdl-lint with
// embedded CUE schemas: the configuration file, design documents before
// they reach the loader, fact tables and the --json lint output.
//
// A payload that does not match its schema is rejected with the full CUE
// error. Definitions are closed, so a misspelled key is an error rather
// than a silently ignored setting.
package validator

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed config_schema.cue design_schema.cue facts_schema.cue output_schema.cue
var schemaFS embed.FS

// Validator checks payloads against one definition of one schema file.
type Validator struct {
	ctx  *cue.Context
	def  cue.Value
	name string
}

func newValidator(file, definition, name string) (*Validator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := schemaFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("loading %s schema: %w", name, err)
	}

	schema := ctx.CompileBytes(schemaBytes, cue.Filename(file))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling %s schema: %w", name, schema.Err())
	}

	def := schema.LookupPath(cue.ParsePath(definition))
	if def.Err() != nil {
		return nil, fmt.Errorf("looking up %s definition: %w", definition, def.Err())
	}

	return &Validator{ctx: ctx, def: def, name: name}, nil
}

// NewConfigValidator validates rdl_lint.json files.
func NewConfigValidator() (*Validator, error) {
	return newValidator("config_schema.cue", "#Config", "config")
}

// NewDesignValidator validates the generic decoding of a design document.
func NewDesignValidator() (*Validator, error) {
	return newValidator("design_schema.cue", "#Design", "design")
}

// NewFactsValidator validates relational fact tables.
func NewFactsValidator() (*Validator, error) {
	return newValidator("facts_schema.cue", "#FactTables", "facts")
}

// NewOutputValidator validates linter output.
func NewOutputValidator() (*Validator, error) {
	return newValidator("output_schema.cue", "#LintOutput", "output")
}

// Validate marshals data to JSON and checks it against the schema.
// Returns nil if valid, or a detailed error explaining what failed.
func (v *Validator) Validate(data any) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s to JSON: %w", v.name, err)
	}
	return v.ValidateJSON(jsonBytes)
}

// ValidateJSON validates JSON bytes directly against the schema.
func (v *Validator) ValidateJSON(jsonBytes []byte) error {
	unified, err := v.unify(jsonBytes)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", v.name, err)
	}
	return nil
}

// ValidationErrors returns every individual validation error.
func (v *Validator) ValidationErrors(data any) []string {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}
	unified, err := v.unify(jsonBytes)
	if err != nil {
		return []string{err.Error()}
	}
	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

func (v *Validator) unify(jsonBytes []byte) (cue.Value, error) {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("compiling %s as CUE: %w", v.name, dataValue.Err())
	}
	return v.def.Unify(dataValue), nil
}
