// Package parser decodes spreadsheet uploads into analysis sheets.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
)

// Options selects which worksheet of a workbook to read. Text formats ignore it.
type Options struct {
	SheetName  string
	SheetIndex int // 1-based; 0 means the first sheet
}

// Decoder turns one spreadsheet format into a Sheet.
type Decoder interface {
	CanDecode(filename string) bool
	Decode(r io.Reader, opt Options) (analysis.Sheet, error)
}

var registry []Decoder

// Register adds a decoder implementation to the registry.
func Register(d Decoder) {
	registry = append(registry, d)
}

func init() {
	Register(csvDecoder{})
	Register(xlsxDecoder{})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported spreadsheet format")

// DecodeError wraps a failure to read a spreadsheet the decoder accepted.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Name, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode selects a decoder by file name and reads the sheet from r.
func Decode(name string, r io.Reader, opt Options) (analysis.Sheet, error) {
	for _, d := range registry {
		if !d.CanDecode(name) {
			continue
		}
		sh, err := d.Decode(r, opt)
		if err != nil {
			return analysis.Sheet{}, &DecodeError{Name: filepath.Base(name), Err: err}
		}
		base := filepath.Base(name)
		if sh.Name != "" {
			base = fmt.Sprintf("%s (sheet: %s)", base, sh.Name)
		}
		sh.Name = base
		return sh, nil
	}
	return analysis.Sheet{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
}

// DecodeFile opens path and decodes it.
func DecodeFile(path string, opt Options) (analysis.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return analysis.Sheet{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Decode(path, f, opt)
}

// Supported reports whether some decoder accepts the file name.
func Supported(name string) bool {
	for _, d := range registry {
		if d.CanDecode(name) {
			return true
		}
	}
	return false
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// sheetFromRecords builds a Sheet from a header record followed by data records.
// Blank headers become Column_N, repeated headers get a numeric suffix, short
// records are padded and long ones trimmed, and fully blank records are skipped.
func sheetFromRecords(records [][]string) (analysis.Sheet, error) {
	var sh analysis.Sheet
	if len(records) == 0 {
		return sh, errors.New("no header row")
	}
	seen := map[string]int{}
	for i, h := range records[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s_%d", h, n)
		}
		sh.Headers = append(sh.Headers, h)
	}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(analysis.RawRow, len(sh.Headers))
		for j, h := range sh.Headers {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			row[h] = v
		}
		sh.Rows = append(sh.Rows, row)
	}
	return sh, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
