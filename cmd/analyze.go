package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
	cfgpkg "github.com/KaramelBytes/gradeboard/internal/config"
	"github.com/KaramelBytes/gradeboard/internal/dashboard"
	"github.com/KaramelBytes/gradeboard/internal/parser"
	"github.com/KaramelBytes/gradeboard/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaFormat     string
	anaStudent    string
	anaClass      string
	anaSheetName  string
	anaSheetIndex int
	anaPassMark   float64
	anaTiePolicy  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a grade sheet and print a report",
	Long: `Analyze a CSV/TSV/XLSX grade sheet. By default prints the grade-level report;
use --student or --class to focus on one student or one class.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if anaStudent != "" && anaClass != "" {
			return fmt.Errorf("specify at most one of --student or --class")
		}
		c, err := analysisConfig(cmd)
		if err != nil {
			return err
		}
		ds, err := buildDataset(args[0], c)
		if err != nil {
			return err
		}
		for _, w := range ds.Warnings {
			logger.Warn("data quality", "source", ds.Source, "warning", w)
		}
		out, err := renderReport(anaFormat, ds, anaStudent, anaClass)
		if err != nil {
			return err
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote %s report to %s\n", anaFormat, anaOutputPath)
			return nil
		}
		fmt.Println(strings.TrimRight(string(out), "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "markdown", "report format: markdown|json|yaml|html")
	analyzeCmd.Flags().StringVar(&anaStudent, "student", "", "report on one student id")
	analyzeCmd.Flags().StringVar(&anaClass, "class", "", "report on one class")
	addAnalysisFlags(analyzeCmd, &anaSheetName, &anaSheetIndex, &anaPassMark, &anaTiePolicy)
}

// addAnalysisFlags registers the per-run overrides shared by analyze commands.
func addAnalysisFlags(c *cobra.Command, sheetName *string, sheetIndex *int, passMark *float64, tiePolicy *string) {
	c.Flags().StringVar(sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	c.Flags().IntVar(sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().Float64Var(passMark, "pass-mark", 0, "pass threshold (overrides config)")
	c.Flags().StringVar(tiePolicy, "tie-policy", "", "rank ties: sequential|competition (overrides config)")
}

// analysisConfig copies the loaded configuration and applies the flags that
// were set explicitly, validating each through the config setter.
func analysisConfig(cmd *cobra.Command) (*cfgpkg.Global, error) {
	c := *currentConfig()
	overrides := map[string]string{
		"sheet-name":  "sheet_name",
		"sheet-index": "sheet_index",
		"pass-mark":   "pass_mark",
		"tie-policy":  "tie_policy",
	}
	for flag, key := range overrides {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		val := cmd.Flags().Lookup(flag).Value.String()
		if err := c.Set(key, val); err != nil {
			return nil, fmt.Errorf("--%s: %w", flag, err)
		}
	}
	return &c, nil
}

// buildDataset decodes a file and runs the full analysis pipeline on it.
func buildDataset(path string, c *cfgpkg.Global) (*analysis.Dataset, error) {
	opt, err := c.AnalysisOptions()
	if err != nil {
		return nil, err
	}
	sheet, err := parser.DecodeFile(path, c.ParserOptions())
	if err != nil {
		return nil, err
	}
	ds, err := analysis.ClassifyAndNormalize(sheet, opt)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", filepath.Base(path), err)
	}
	return ds, nil
}

type markdowner interface {
	Markdown() string
}

// renderReport encodes the overall, student or class view in the requested format.
func renderReport(format string, ds *analysis.Dataset, student, class string) ([]byte, error) {
	var (
		view any
		md   markdowner
		page func(*bytes.Buffer) error
	)
	switch {
	case student != "":
		v, err := analysis.BuildPersonalAnalysis(ds, student)
		if err != nil {
			return nil, err
		}
		view, md = v, v
		page = func(b *bytes.Buffer) error { return dashboard.RenderStudent(b, v) }
	case class != "":
		v, err := analysis.BuildClassAnalysis(ds, class)
		if err != nil {
			return nil, err
		}
		view, md = v, v
		page = func(b *bytes.Buffer) error { return dashboard.RenderClass(b, v) }
	default:
		v := analysis.BuildOverallAnalysis(ds)
		view, md = &v, &v
		page = func(b *bytes.Buffer) error { return dashboard.RenderOverall(b, v) }
	}

	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return []byte(md.Markdown()), nil
	case "json":
		return utils.PrettyJSON(view)
	case "yaml", "yml":
		return utils.YAML(view)
	case "html":
		var buf bytes.Buffer
		if err := page(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported --format: %q (use markdown|json|yaml|html)", format)
	}
}
