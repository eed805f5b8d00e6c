package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Schema is the validation schema installed via set_validation_schema:
// an ordered list of rules, one per column, optionally shorter than a
// row (excess columns are unvalidated), plus optional column names
// used in error-log output.
//
// Persistence to a JSON sidecar follows internal/schema/manager.go's
// load/save pattern in the teacher repo.
type Schema struct {
	Rules       []Rule   `json:"rules"`
	ColumnNames []string `json:"column_names,omitempty"`

	path string
}

// New builds a Schema from rules with no persisted sidecar.
func New(rules []Rule, columnNames []string) *Schema {
	return &Schema{Rules: rules, ColumnNames: columnNames}
}

// RuleFor returns the rule configured for column index i, or None if
// the schema has no rule at index i.
func (s *Schema) RuleFor(i int) Rule {
	if s == nil || i < 0 || i >= len(s.Rules) {
		return None
	}
	return s.Rules[i]
}

// ColumnIdentifier returns the configured name for column index i, or
// its 1-based index when no name was provided.
func (s *Schema) ColumnIdentifier(i int) string {
	if s != nil && i >= 0 && i < len(s.ColumnNames) && s.ColumnNames[i] != "" {
		return s.ColumnNames[i]
	}
	return fmt.Sprintf("%d", i+1)
}

// sidecarPath mirrors the teacher's getHeaderPath: "<csv>_schema.json"
// alongside the input file.
func sidecarPath(csvPath string) string {
	dir := filepath.Dir(csvPath)
	base := filepath.Base(csvPath)
	return filepath.Join(dir, base+"_schema.json")
}

// LoadSchema reads a previously-saved schema for csvPath. A missing
// sidecar is not an error: it returns an empty Schema ready for Save.
func LoadSchema(csvPath string) (*Schema, error) {
	s := &Schema{path: sidecarPath(csvPath)}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("validate: parsing schema sidecar: %w", err)
	}
	return s, nil
}

// Save persists the schema to its sidecar path.
func (s *Schema) Save() error {
	if s.path == "" {
		return fmt.Errorf("validate: schema has no sidecar path")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
