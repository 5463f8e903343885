package facts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile stores tables as indented JSON, creating parent directories.
func WriteFile(path string, tables Tables) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating facts dir: %w", err)
	}
	data, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling facts: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing facts: %w", err)
	}
	return nil
}

// ReadFile loads tables written by WriteFile.
func ReadFile(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("reading facts: %w", err)
	}
	tables := emptyTables()
	if err := json.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("parsing facts %s: %w", path, err)
	}
	return tables, nil
}
