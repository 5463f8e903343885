// =============================================================================
// RDL Linter - Main Entry Point
// =============================================================================
//
// rdl-lint checks SystemRDL property assignments in elaborated register
// designs. Designs are YAML documents: component definitions carrying local
// property assignments, and an instance tree carrying dynamic ones.
//
// THE PIPELINE:
//   1. CUE validates rdl_lint.json and every design document
//   2. User-defined properties join the built-in catalog (rego policies
//      attached to them become validators)
//   3. Assignments are replayed through the rule registry: binding,
//      castability and dynamic-assignment checks
//   4. Mutex groups and value validators run over every instance
//   5. Diagnostics are reported as text or as contract-checked JSON
//
// Exit status is 1 when any fatal or error diagnostic was found, or when
// the pipeline itself failed.
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errLintFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
