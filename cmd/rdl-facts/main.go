package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/rdl-lint/internal/checker"
	"github.com/robert-at-pretension-io/rdl-lint/internal/config"
	"github.com/robert-at-pretension-io/rdl-lint/internal/facts"
	"github.com/robert-at-pretension-io/rdl-lint/internal/validator"
)

var (
	output    string
	deltaFrom string
	deltaOut  string
	only      []string

	rootCmd = &cobra.Command{
		Use:   "rdl-facts [path]",
		Short: "Dump the relational fact tables of checked designs",
		Long: `rdl-facts checks the designs under path and writes the resulting fact
tables (property catalog, components, instances, assignments, resolved
values and diagnostics) as JSON. With --delta-from it also writes the rows
added and removed since a previous dump.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "write facts JSON to file (default: stdout)")
	rootCmd.Flags().StringVar(&deltaFrom, "delta-from", "", "previous facts JSON to compute delta from")
	rootCmd.Flags().StringVar(&deltaOut, "delta-out", "", "write delta JSON to file (requires --delta-from)")
	rootCmd.Flags().StringSliceVar(&only, "only", nil, "restrict rows to these design files")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if (deltaFrom == "") != (deltaOut == "") {
		return fmt.Errorf("--delta-from and --delta-out must be used together")
	}
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	cfg := config.DefaultConfig()
	cfgPath, found := config.Find(path)
	if found {
		loaded, err := config.LoadFile(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	c := checker.NewWithConfig(cfg)
	if found {
		c.ConfigPath = cfgPath
	}
	c.Out = io.Discard
	c.Logger = checker.NewLogger(cmd.ErrOrStderr(), false, false)
	if err := c.Run(path); err != nil {
		return err
	}

	tables := c.Tables
	var files map[string]bool
	if len(only) > 0 {
		files = make(map[string]bool, len(only))
		for _, f := range only {
			files[f] = true
		}
		tables = facts.FilterTablesByFiles(tables, files)
	}

	v, err := validator.NewFactsValidator()
	if err != nil {
		return fmt.Errorf("CRITICAL: Failed to initialize CUE validator: %w", err)
	}
	if err := v.Validate(tables); err != nil {
		return fmt.Errorf("CRITICAL: Fact tables contract violation: %w", err)
	}

	if output != "" {
		if err := facts.WriteFile(output, tables); err != nil {
			return err
		}
	} else {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(tables); err != nil {
			return fmt.Errorf("encoding facts: %w", err)
		}
	}

	if deltaFrom == "" {
		return nil
	}
	prev, err := facts.ReadFile(deltaFrom)
	if err != nil {
		return fmt.Errorf("reading delta-from: %w", err)
	}
	delta := facts.ComputeDelta(prev, tables)
	if files != nil {
		delta = facts.FilterDeltaByFiles(delta, files)
	}
	if err := writeJSON(deltaOut, delta); err != nil {
		return fmt.Errorf("writing delta: %w", err)
	}
	return nil
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
