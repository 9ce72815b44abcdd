package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeBatch_WritesReportsWithoutCollisions(t *testing.T) {
	home := isolatedHome(t)

	// Same basename in different directories
	p1 := filepath.Join(home, "d1", "grades.csv")
	p2 := filepath.Join(home, "d2", "grades.csv")
	writeFile(t, p1, gradesCSV)
	writeFile(t, p2, "姓名,语文\nZed,88\nYan,52\n")

	outDir := filepath.Join(home, "reports")
	runCmd(t, "analyze-batch", filepath.Join(home, "d*", "grades.csv"), "--out-dir", outDir, "--jobs", "2", "--quiet")

	b1 := filepath.Join(outDir, "grades.summary.md")
	b2 := filepath.Join(outDir, "grades__2.summary.md")
	body1 := readFile(t, b1)
	body2 := readFile(t, b2)
	if !strings.Contains(body1, "Students: 3") {
		t.Fatalf("first report should cover d1:\n%s", body1)
	}
	if !strings.Contains(body2, "Students: 2") {
		t.Fatalf("second report should cover d2:\n%s", body2)
	}
}

func TestAnalyzeBatch_JSONAndFailures(t *testing.T) {
	home := isolatedHome(t)
	writeFile(t, filepath.Join(home, "a.csv"), gradesCSV)
	writeFile(t, filepath.Join(home, "b.tsv"), "学号\t姓名\t语文\n1\tA\t70\n")

	outDir := filepath.Join(home, "json")
	runCmd(t, "analyze-batch", filepath.Join(home, "a.csv"), filepath.Join(home, "b.tsv"), "--out-dir", outDir, "--format", "json", "--quiet")
	for _, name := range []string{"a.analysis.json", "b.analysis.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	writeFile(t, filepath.Join(home, "empty.csv"), "学号,姓名,语文\n")
	if err := execute("analyze-batch", filepath.Join(home, "*.csv"), "--quiet"); err == nil {
		t.Fatalf("expected header-only file to fail the batch")
	}
	if err := execute("analyze-batch", filepath.Join(home, "nothing-*.csv")); err == nil {
		t.Fatalf("expected no matches to fail")
	}
}
