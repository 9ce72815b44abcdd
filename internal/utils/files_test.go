package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafeWriteFile_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "report.md")
	if err := SafeWriteFile(path, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("content = %q", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	reserved := map[string]bool{}
	first := UniquePath(dir, "grades.csv", ".summary.md", reserved)
	if filepath.Base(first) != "grades.summary.md" {
		t.Fatalf("first = %s", first)
	}
	second := UniquePath(dir, "grades.xlsx", ".summary.md", reserved)
	if filepath.Base(second) != "grades__2.summary.md" {
		t.Fatalf("second = %s", second)
	}
	if err := os.WriteFile(filepath.Join(dir, "other.summary.md"), nil, 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := UniquePath(dir, "other", ".summary.md", nil); filepath.Base(got) != "other__2.summary.md" {
		t.Fatalf("existing file not skipped: %s", got)
	}
}

func TestPrettyJSONAndYAML(t *testing.T) {
	v := map[string]int{"students": 3}
	j, err := PrettyJSON(v)
	if err != nil || !strings.Contains(string(j), "\n  \"students\": 3") {
		t.Fatalf("json = %q, %v", j, err)
	}
	y, err := YAML(v)
	if err != nil || strings.TrimSpace(string(y)) != "students: 3" {
		t.Fatalf("yaml = %q, %v", y, err)
	}
}
