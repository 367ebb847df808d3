package extracthtml

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadMappingFile loads and validates a JSON mapping file.
func LoadMappingFile(path string) (*MappingFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mappings file: %w", err)
	}

	var mf MappingFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return nil, fmt.Errorf("parse mappings json: %w", err)
	}

	if strings.TrimSpace(mf.RecordSelector) == "" {
		return nil, fmt.Errorf("mappings file has no record_selector")
	}
	if len(mf.Mappings) == 0 {
		return nil, fmt.Errorf("mappings file has no mappings")
	}
	seen := make(map[string]bool, len(mf.Mappings))
	for i, m := range mf.Mappings {
		if m.Column == "" {
			return nil, fmt.Errorf("mapping %d has no column", i)
		}
		if seen[m.Column] {
			return nil, fmt.Errorf("mapping %d repeats column %q", i, m.Column)
		}
		seen[m.Column] = true
	}
	return &mf, nil
}
