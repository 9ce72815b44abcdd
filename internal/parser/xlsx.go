package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
)

type xlsxDecoder struct{}

func (xlsxDecoder) CanDecode(filename string) bool {
	return hasExt(filename, ".xlsx", ".xlsm")
}

// Decode reads the selected worksheet. The sheet name is recorded on the result.
func (xlsxDecoder) Decode(r io.Reader, opt Options) (analysis.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return analysis.Sheet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt)
	if err != nil {
		return analysis.Sheet{}, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return analysis.Sheet{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	sh, err := sheetFromRecords(rows)
	if err != nil {
		return analysis.Sheet{}, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	sh.Name = sheet
	return sh, nil
}

func pickSheet(names []string, opt Options) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if opt.SheetName != "" {
		for _, n := range names {
			if n == opt.SheetName {
				return n, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found (have %v)", opt.SheetName, names)
	}
	if opt.SheetIndex > 0 {
		if opt.SheetIndex > len(names) {
			return "", fmt.Errorf("sheet index %d out of range (1..%d)", opt.SheetIndex, len(names))
		}
		return names[opt.SheetIndex-1], nil
	}
	return names[0], nil
}
