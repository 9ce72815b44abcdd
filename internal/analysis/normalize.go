package analysis

import (
	"fmt"
	"strconv"
)

// Header names tried when the classifier found no column for a role.
var (
	idFallbackHeaders    = []string{"学号", "ID"}
	nameFallbackHeaders  = []string{"姓名", "学生姓名"}
	classFallbackHeaders = []string{"班级", "所在班级"}
)

// rowFallbacks records which placeholders NormalizeRow had to use.
type rowFallbacks struct {
	id, name, class bool
}

// NormalizeRow converts one raw row into a Student using the classified roles.
// index is the 0-based row position. Total, Rank and computed rankings are
// filled in later by ComputeRankings.
func NormalizeRow(index int, row RawRow, roles FieldRoles, opt Options) *Student {
	s, _ := normalizeRow(index, row, roles, opt.withDefaults())
	return s
}

func normalizeRow(index int, row RawRow, roles FieldRoles, opt Options) (*Student, rowFallbacks) {
	var fb rowFallbacks
	s := &Student{
		ID:               lookup(row, roles.StudentID, idFallbackHeaders),
		Name:             lookup(row, roles.StudentName, nameFallbackHeaders),
		Class:            lookup(row, roles.ClassName, classFallbackHeaders),
		Grades:           map[string]float64{},
		DeclaredRankings: map[string]int{},
	}
	if s.ID == "" {
		s.ID = strconv.Itoa(index + 1)
		fb.id = true
	}
	if s.Name == "" {
		s.Name = fmt.Sprintf(opt.NameFallback, index+1)
		fb.name = true
	}
	if s.Class == "" {
		s.Class = opt.DefaultClass
		fb.class = true
	}
	for _, h := range roles.Subjects {
		if v, ok := parseScore(row[h]); ok {
			s.Grades[CanonicalSubject(h)] = v
		}
	}
	for _, h := range roles.Rankings {
		if r, ok := parseRank(row[h]); ok {
			s.DeclaredRankings[h] = r
		}
	}
	s.Rankings = make(RankingSet, len(s.DeclaredRankings))
	for k, v := range s.DeclaredRankings {
		s.Rankings[k] = v
	}
	return s, fb
}

func lookup(row RawRow, header string, fallbacks []string) string {
	if header != "" {
		if v := cellString(row[header]); v != "" {
			return v
		}
	}
	for _, h := range fallbacks {
		if v := cellString(row[h]); v != "" {
			return v
		}
	}
	return ""
}

// ClassifyAndNormalize runs the whole pipeline on a decoded sheet: field
// classification, row normalization, rankings, statistics and chart
// recommendations. The returned dataset is complete and ready to publish.
func ClassifyAndNormalize(sheet Sheet, opt Options) (*Dataset, error) {
	opt = opt.withDefaults()
	ta, err := ClassifyFields(sheet)
	if err != nil {
		return nil, err
	}
	ta.Columns = ProfileColumns(sheet, ta.Fields)

	ds := &Dataset{
		Source:         sheet.Name,
		Subjects:       []string{},
		Classes:        []string{},
		RankingColumns: append([]string{}, ta.Fields.Rankings...),
		TableAnalysis:  *ta,
		passMark:       opt.PassMark,
		bandWidth:      opt.BandWidth,
		ranks:          opt.Ranks,
	}
	seenSubject := map[string]bool{}
	seenClass := map[string]bool{}
	var idFallbacks, nameFallbacks, classFallbacks int
	students := make([]*Student, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		s, fb := normalizeRow(i, row, ta.Fields, opt)
		// subjects appear in column order, only once some student has a grade
		for _, h := range ta.Fields.Subjects {
			name := CanonicalSubject(h)
			if _, ok := s.Grades[name]; ok && !seenSubject[name] {
				seenSubject[name] = true
				ds.Subjects = append(ds.Subjects, name)
			}
		}
		if !seenClass[s.Class] {
			seenClass[s.Class] = true
			ds.Classes = append(ds.Classes, s.Class)
		}
		if fb.id {
			idFallbacks++
		}
		if fb.name {
			nameFallbacks++
		}
		if fb.class {
			classFallbacks++
		}
		students = append(students, s)
	}

	ds.Students = ComputeRankings(students, ds.Subjects, opt.Ranks)
	ds.Statistics = ComputeStatistics(ds.Students, ds.Subjects, opt.PassMark)
	ds.ChartRecommendations = RecommendCharts(ta.TableType, ds.Subjects)

	if idFallbacks > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%d rows had no student id; row numbers were used", idFallbacks))
	}
	if nameFallbacks > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%d rows had no student name; placeholder names were used", nameFallbacks))
	}
	if classFallbacks > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%d rows had no class; assigned to %q", classFallbacks, opt.DefaultClass))
	}
	if ta.TableType == TableUnknown {
		ds.Warnings = append(ds.Warnings, "no subject score columns recognised")
	}
	return ds, nil
}
