package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/rdl-lint/internal/checker"
	"github.com/robert-at-pretension-io/rdl-lint/internal/config"
	"github.com/robert-at-pretension-io/rdl-lint/internal/facts"
)

// errLintFailed signals diagnostics at error severity; they were already
// reported.
var errLintFailed = errors.New("lint failed")

var (
	configPath string
	verbose    bool
	jsonOutput bool
	timing     bool
	timingPath string
	writeFacts bool
	force      bool

	rootCmd = &cobra.Command{
		Use:   "rdl-lint",
		Short: "Check SystemRDL property assignments in register designs",
		Long: `rdl-lint replays the property assignments of register designs through
the SystemRDL property rules and reports invalid bindings, type errors,
mutually exclusive properties and out-of-range values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	checkCmd = &cobra.Command{
		Use:   "check [path]",
		Short: "Check the design files under path (default: current directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create an rdl_lint.json configuration file",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}

	propsCmd = &cobra.Command{
		Use:   "props [name]",
		Short: "List the property catalog, or describe one property",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProps,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: search ./rdl_lint.json, <path>/rdl_lint.json, ~/.config/rdl_lint/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	checkCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	checkCmd.Flags().BoolVar(&timing, "timing", false, "Write per-stage timing as JSONL")
	checkCmd.Flags().StringVar(&timingPath, "timing-path", "", "Timing output file (default: <path>/timing.jsonl)")
	checkCmd.Flags().BoolVar(&writeFacts, "facts", false, "Store fact tables in the facts dir and diff them against the previous run")

	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	propsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the catalog as JSON")

	rootCmd.AddCommand(checkCmd, initCmd, propsCmd)
}

// loadConfig honours --config, then the usual search order. It returns the
// path the configuration came from, or "" for the defaults.
func loadConfig(root string) (*config.Config, string, error) {
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading config %s: %w", configPath, err)
		}
		return cfg, configPath, nil
	}
	path, ok := config.Find(root)
	if !ok {
		return config.DefaultConfig(), "", nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	cfg, path, err := loadConfig(root)
	if err != nil {
		return err
	}

	c := checker.NewWithConfig(cfg)
	c.ConfigPath = path
	c.Verbose = verbose
	c.JSONOutput = jsonOutput
	c.Timing = timing
	c.TimingPath = timingPath
	c.WriteFacts = writeFacts
	c.Out = cmd.OutOrStdout()
	c.Logger = checker.NewLogger(cmd.ErrOrStderr(), verbose, jsonOutput)

	if err := c.Run(root); err != nil {
		return err
	}
	if c.Result.HasErrors() {
		return errLintFailed
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "rdl_lint.json"
	if configPath != "" {
		path = configPath
	}

	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file %s already exists. Overwrite? [y/N]: ", path)
		response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		response = strings.TrimSpace(response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("creating config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", path)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Design file patterns")
	fmt.Fprintln(out, "  - User-defined properties and their policies")
	fmt.Fprintln(out, "  - Diagnostic severities")
	return nil
}

func runProps(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(".")
	if err != nil {
		return err
	}
	reg, err := checker.NewRegistry(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("user properties: %w", err)
	}
	rows := facts.CatalogRows(reg)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		r, ok := reg.Lookup(args[0])
		if !ok {
			msg := fmt.Sprintf("unknown property '%s'", args[0])
			if hints := reg.Suggest(args[0]); len(hints) > 0 {
				msg += fmt.Sprintf("; did you mean '%s'?", strings.Join(hints, "', '"))
			}
			return errors.New(msg)
		}
		for _, row := range rows {
			if row.Name == r.Name {
				rows = []facts.PropertyRow{row}
				break
			}
		}
		if jsonOutput {
			return encodeJSON(cmd, rows[0])
		}
		printProperty(cmd, rows[0], r.Doc)
		return nil
	}

	if jsonOutput {
		return encodeJSON(cmd, rows)
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row.Name))
	}
	for _, row := range rows {
		flags := ""
		if row.Dynamic {
			flags += " dynamic"
		}
		if row.UserDefined {
			flags += " user"
		}
		fmt.Fprintf(out, "%-*s  %-40s  %s%s\n", width, row.Name, row.Bindings, row.Types, flags)
	}
	return nil
}

func printProperty(cmd *cobra.Command, row facts.PropertyRow, doc string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== %s ===\n", row.Name)
	if doc != "" {
		fmt.Fprintf(out, "  %s\n", doc)
	}
	fmt.Fprintf(out, "  bindings: %s\n", row.Bindings)
	fmt.Fprintf(out, "  types:    %s\n", row.Types)
	if row.Default != "" {
		fmt.Fprintf(out, "  default:  %s\n", row.Default)
	}
	fmt.Fprintf(out, "  dynamic:  %t\n", row.Dynamic)
	if row.MutexGroup != "" {
		fmt.Fprintf(out, "  mutex:    %s\n", row.MutexGroup)
	}
	if row.Opposite != "" {
		fmt.Fprintf(out, "  opposite: %s\n", row.Opposite)
	}
	if row.AliasOf != "" {
		fmt.Fprintf(out, "  alias of: %s\n", row.AliasOf)
	}
}

func encodeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
