package extracthtml

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMappings(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "m.json")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadMappingFile_HappyPath(t *testing.T) {
	t.Parallel()

	p := writeMappings(t, `{"record_selector":".row","mappings":[{"selector":"h1","extract":"text","column":"x"}]}`)
	mf, err := LoadMappingFile(p)
	if err != nil {
		t.Fatalf("LoadMappingFile: %v", err)
	}
	if len(mf.Mappings) != 1 || mf.Mappings[0].Column != "x" {
		t.Fatalf("unexpected mappings: %+v", mf.Mappings)
	}
}

func TestLoadMappingFile_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no_mappings":     `{"record_selector":".row","mappings":[]}`,
		"no_selector":     `{"mappings":[{"selector":"h1","column":"x"}]}`,
		"no_column":       `{"record_selector":".row","mappings":[{"selector":"h1"}]}`,
		"repeated_column": `{"record_selector":".row","mappings":[{"selector":"h1","column":"x"},{"selector":"h2","column":"x"}]}`,
		"bad_json":        `{`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadMappingFile(writeMappings(t, body)); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestLoadMappingFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadMappingFile(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
