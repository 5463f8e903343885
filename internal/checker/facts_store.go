package checker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robert-at-pretension-io/rdl-lint/internal/facts"
	"github.com/robert-at-pretension-io/rdl-lint/internal/validator"
)

const factTablesVersion = 1

// FactTablesFile is the snapshot name inside the facts dir.
const FactTablesFile = "fact_tables.json"

type factTablesSnapshot struct {
	Version int          `json:"version"`
	Tables  facts.Tables `json:"tables"`
}

func loadFactTables(dir string) (facts.Tables, bool, error) {
	path := filepath.Join(dir, FactTablesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return facts.Tables{}, false, nil
		}
		return facts.Tables{}, false, fmt.Errorf("read fact tables: %w", err)
	}
	var snap factTablesSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return facts.Tables{}, false, fmt.Errorf("parse fact tables: %w", err)
	}
	if snap.Version != factTablesVersion {
		return facts.Tables{}, false, nil
	}
	return snap.Tables, true, nil
}

func saveFactTables(dir string, tables facts.Tables) error {
	snap := factTablesSnapshot{
		Version: factTablesVersion,
		Tables:  tables,
	}
	if err := writeJSONAtomic(filepath.Join(dir, FactTablesFile), snap); err != nil {
		return fmt.Errorf("write fact tables: %w", err)
	}
	return nil
}

// storeFacts validates this run's tables, diffs them against the previous
// snapshot and replaces it.
func (c *Checker) storeFacts(rootPath string) error {
	v, err := validator.NewFactsValidator()
	if err != nil {
		return fmt.Errorf("CRITICAL: Failed to initialize CUE validator: %w", err)
	}
	if err := v.Validate(c.Tables); err != nil {
		return fmt.Errorf("CRITICAL: Fact tables contract violation: %w", err)
	}

	dir := c.factsDir(rootPath)
	prev, ok, err := loadFactTables(dir)
	if err != nil {
		c.logger().Warn("previous fact tables ignored", "dir", dir, "error", err)
	}
	if !ok {
		prev = facts.Tables{}
	}
	c.Delta = facts.ComputeDelta(prev, c.Tables)
	return saveFactTables(dir, c.Tables)
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("facts dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
