package analysis

import (
	"math"
	"sort"
	"time"
)

// ColumnProfile captures the inferred kind and basic statistics of one column.
type ColumnProfile struct {
	Name    string `json:"name" yaml:"name"`
	Role    string `json:"role" yaml:"role"`
	Kind    string `json:"kind" yaml:"kind"` // numeric|datetime|categorical|text|unknown
	NonNull int    `json:"nonNull" yaml:"non_null"`
	Missing int    `json:"missing" yaml:"missing"`
	Unique  int    `json:"unique,omitempty" yaml:"unique,omitempty"`
	// Numeric stats
	Min  float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Mean float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std  float64 `json:"std,omitempty" yaml:"std,omitempty"`
	// Categorical top values
	TopValues []CategoryCount `json:"topValues,omitempty" yaml:"top_values,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// ProfileColumns scans every row once and summarises each column, tagging it
// with the role the classifier assigned.
func ProfileColumns(sheet Sheet, roles FieldRoles) []ColumnProfile {
	type colAcc struct {
		nonNil int
		miss   int
		// numeric stats via Welford
		n      int
		mean   float64
		m2     float64
		min    float64
		max    float64
		dtCnt  int
		txtCnt int
		cats   map[string]int
	}
	headers := headersOf(sheet)
	cols := make([]*colAcc, len(headers))
	for i := range headers {
		cols[i] = &colAcc{min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
	}
	for _, row := range sheet.Rows {
		for j, h := range headers {
			c := cols[j]
			v := cellString(row[h])
			if v == "" {
				c.miss++
				continue
			}
			c.nonNil++
			if x, ok := parseScore(v); ok {
				c.n++
				c.min = math.Min(c.min, x)
				c.max = math.Max(c.max, x)
				delta := x - c.mean
				c.mean += delta / float64(c.n)
				c.m2 += delta * (x - c.mean)
				continue
			}
			if _, ok := parseTimeMaybe(v); ok {
				c.dtCnt++
				continue
			}
			c.txtCnt++
			if len(c.cats) <= 10000 && len(v) <= 64 { // guard memory
				c.cats[v]++
			}
		}
	}

	roleOf := columnRoles(roles)
	out := make([]ColumnProfile, 0, len(headers))
	for j, h := range headers {
		c := cols[j]
		p := ColumnProfile{Name: h, Role: roleOf[h], NonNull: c.nonNil, Missing: c.miss, Kind: "unknown"}
		switch {
		case c.n > 0 && c.n >= c.dtCnt && c.n >= c.txtCnt:
			p.Kind = "numeric"
			p.Min, p.Max, p.Mean = c.min, c.max, c.mean
			if c.n > 1 {
				p.Std = math.Sqrt(c.m2 / float64(c.n-1))
			}
		case c.dtCnt > 0 && c.dtCnt >= c.txtCnt:
			p.Kind = "datetime"
		case len(c.cats) > 0 && len(c.cats) < c.txtCnt:
			p.Kind = "categorical"
			p.Unique = len(c.cats)
			p.TopValues = topCategories(c.cats, 8)
		case c.txtCnt > 0:
			p.Kind = "text"
			p.Unique = len(c.cats)
		}
		out = append(out, p)
	}
	return out
}

func topCategories(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func columnRoles(r FieldRoles) map[string]string {
	m := map[string]string{}
	for _, h := range r.Other {
		m[h] = "other"
	}
	for _, h := range r.Rankings {
		m[h] = "ranking"
	}
	for _, h := range r.Subjects {
		m[h] = "subject"
	}
	if r.ClassName != "" {
		m[r.ClassName] = "className"
	}
	if r.StudentName != "" {
		m[r.StudentName] = "studentName"
	}
	if r.StudentID != "" {
		m[r.StudentID] = "studentId"
	}
	return m
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "2006年1月2日",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
