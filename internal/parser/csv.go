package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
)

type csvDecoder struct{}

func (csvDecoder) CanDecode(filename string) bool {
	return hasExt(filename, ".csv", ".tsv")
}

func (csvDecoder) Decode(r io.Reader, _ Options) (analysis.Sheet, error) {
	br := bufio.NewReader(r)
	first, _ := br.Peek(4096)
	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(first)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return analysis.Sheet{}, fmt.Errorf("read csv: %w", err)
	}
	sh, err := sheetFromRecords(records)
	if err != nil {
		return analysis.Sheet{}, err
	}
	return sh, nil
}

// sniffDelimiter picks the most frequent of tab, semicolon and comma on the header line.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestN := ',', bytes.Count(head, []byte{','})
	for _, d := range []rune{'\t', ';'} {
		if n := bytes.Count(head, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
