package analysis

import (
	"strconv"
	"strings"
)

const (
	// typeSampleRows is how many leading rows decide whether a column is numeric.
	typeSampleRows = 5
	// scoreSampleRows is how many leading rows feed the score-range heuristic.
	scoreSampleRows = 10
)

// ClassifyFields assigns a semantic role to every column of the sheet using
// DefaultFieldRules. Ambiguity never fails: unrecognised columns become Other.
func ClassifyFields(sheet Sheet) (*TableAnalysis, error) {
	return DefaultFieldRules.Classify(sheet)
}

// Classify applies the rule set to the sheet.
func (fr FieldRules) Classify(sheet Sheet) (*TableAnalysis, error) {
	if len(sheet.Rows) == 0 {
		return nil, &EmptyDatasetError{Source: sheet.Name}
	}
	headers := headersOf(sheet)
	if len(headers) == 0 {
		return nil, &ClassificationError{Reason: "sheet has no column headers"}
	}

	ta := &TableAnalysis{
		Fields: FieldRoles{
			Subjects: []string{},
			Rankings: []string{},
			Other:    []string{},
		},
		TableType: TableUnknown,
	}
	f := &ta.Fields
	for _, header := range headers {
		lower := strings.ToLower(strings.TrimSpace(header))
		// A header matching an identity role is consumed by that role even when
		// the role is already taken; later duplicates go to Other.
		switch {
		case matchAny(lower, fr.StudentID):
			claim(&f.StudentID, header, &f.Other)
		case matchAny(lower, fr.StudentName):
			claim(&f.StudentName, header, &f.Other)
		case matchAny(lower, fr.ClassName) && !matchAny(lower, fr.Ranking):
			claim(&f.ClassName, header, &f.Other)
		case matchAny(lower, fr.Ranking):
			f.Rankings = append(f.Rankings, header)
		case numericSample(sheet.Rows, header) && fr.IsScoreField(header, sheet.Rows):
			f.Subjects = append(f.Subjects, header)
		default:
			f.Other = append(f.Other, header)
		}
	}

	switch {
	case len(f.Subjects) >= 2:
		ta.TableType = TableMultiSubject
		ta.Confidence = 0.9
	case len(f.Subjects) == 1:
		ta.TableType = TableSingleSubject
		ta.Confidence = 0.8
	}
	return ta, nil
}

func claim(role *string, header string, other *[]string) {
	if *role == "" {
		*role = header
		return
	}
	*other = append(*other, header)
}

// numericSample reports whether the non-empty leading values of a column all parse
// as numbers, with at least one present.
func numericSample(rows []RawRow, header string) bool {
	seen := 0
	for i := 0; i < len(rows) && i < typeSampleRows; i++ {
		v := rows[i][header]
		if cellString(v) == "" {
			continue
		}
		if _, ok := parseScore(v); !ok {
			return false
		}
		seen++
	}
	return seen > 0
}

// IsScoreField decides whether a numeric column holds subject scores rather than
// identifiers, rankings or pre-computed totals.
func (fr FieldRules) IsScoreField(header string, rows []RawRow) bool {
	lower := strings.ToLower(strings.TrimSpace(header))
	if matchAny(lower, fr.Exclude) || matchAny(lower, fr.Aggregate) {
		return false
	}

	var vals []float64
	for i := 0; i < len(rows) && i < scoreSampleRows; i++ {
		if x, ok := parseScore(rows[i][header]); ok {
			vals = append(vals, x)
		}
	}
	if len(vals) == 0 {
		return false
	}
	lo, hi, sum := vals[0], vals[0], 0.0
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		sum += v
	}
	avg := sum / float64(len(vals))

	if hi > 1000 || lo < 0 {
		return false
	}
	// constant large value: likely a duplicated identifier
	if lo == hi && hi > 200 {
		return false
	}
	if avg > 1000 && allWide(vals, 4) {
		return false
	}
	if matchAny(lower, fr.SubjectHint) {
		return true
	}
	return lo >= 0 && hi <= 200 && avg <= 150
}

func allWide(vals []float64, width int) bool {
	for _, v := range vals {
		if len(strconv.FormatFloat(v, 'f', -1, 64)) < width {
			return false
		}
	}
	return true
}
