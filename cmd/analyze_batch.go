package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
	"github.com/KaramelBytes/gradeboard/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	abOutDir     string
	abFormat     string
	abJobs       int
	abQuiet      bool
	abSheetName  string
	abSheetIndex int
	abPassMark   float64
	abTiePolicy  string
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple grade sheets concurrently",
	Long: `Analyze every file matched by the given paths or glob patterns. Files are decoded
and analyzed concurrently; one summary line is printed per file in name order.
With --out-dir a full report per file is written alongside.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c, err := analysisConfig(cmd)
		if err != nil {
			return err
		}
		ext, err := reportExt(abFormat)
		if err != nil {
			return err
		}

		jobs := abJobs
		if jobs <= 0 {
			jobs = runtime.NumCPU()
		}
		results := make([]*analysis.Dataset, len(files))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		for i, path := range files {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				ds, err := buildDataset(path, c)
				if err != nil {
					return err
				}
				logger.Debug("analyzed", "file", path, "students", len(ds.Students))
				results[i] = ds
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		reserved := map[string]bool{}
		total := len(files)
		for i, ds := range results {
			if !abQuiet {
				fmt.Printf("[%d/%d] %s\n", i+1, total, batchSummary(ds))
			}
			if abOutDir == "" {
				continue
			}
			out, err := renderReport(abFormat, ds, "", "")
			if err != nil {
				return err
			}
			dest := utils.UniquePath(abOutDir, filepath.Base(files[i]), ext, reserved)
			if err := utils.SafeWriteFile(dest, out); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !abQuiet {
				fmt.Printf("✓ Wrote %s\n", dest)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory to write one report per file")
	analyzeBatchCmd.Flags().StringVarP(&abFormat, "format", "f", "markdown", "report format for --out-dir: markdown|json|yaml|html")
	analyzeBatchCmd.Flags().IntVarP(&abJobs, "jobs", "j", 0, "files analyzed in parallel (default: number of CPUs)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	addAnalysisFlags(analyzeBatchCmd, &abSheetName, &abSheetIndex, &abPassMark, &abTiePolicy)
}

// expandInputs resolves globs and literal paths, dropping duplicates, in name order.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func reportExt(format string) (string, error) {
	switch format {
	case "markdown", "md", "":
		return ".summary.md", nil
	case "json":
		return ".analysis.json", nil
	case "yaml", "yml":
		return ".analysis.yaml", nil
	case "html":
		return ".dashboard.html", nil
	}
	return "", fmt.Errorf("unsupported --format: %q (use markdown|json|yaml|html)", format)
}

func batchSummary(ds *analysis.Dataset) string {
	line := fmt.Sprintf("%s: students=%d subjects=%d classes=%d", ds.Source, len(ds.Students), len(ds.Subjects), len(ds.Classes))
	if len(ds.Students) > 0 {
		top := ds.Students[0]
		line += fmt.Sprintf(" top=%s (%.4g)", top.Name, top.Total)
	}
	if n := len(ds.Warnings); n > 0 {
		line += fmt.Sprintf(" warnings=%d", n)
	}
	return line
}
