package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders a compact, deterministic text report of the overall view.
func (v *OverallView) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if v.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", v.Source))
	}
	b.WriteString(fmt.Sprintf("Students: %d\nSubjects: %d\nClasses: %d\n", v.Summary.TotalStudents, v.Summary.TotalSubjects, v.Summary.TotalClasses))
	b.WriteString(fmt.Sprintf("Table: %s (confidence %.2f)\n\n", v.TableAnalysis.TableType, v.TableAnalysis.Confidence))

	b.WriteString("[SCHEMA]\n")
	for _, c := range v.TableAnalysis.Columns {
		role := c.Role
		if role == "" {
			role = "other"
		}
		b.WriteString(fmt.Sprintf("- %s: %s, %s (non-null %d, missing %d)", safeCell(c.Name), role, c.Kind, c.NonNull, c.Missing))
		if c.Kind == "numeric" {
			b.WriteString(fmt.Sprintf(", min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean))
		}
		b.WriteString("\n")
	}

	if len(v.Subjects) > 0 {
		b.WriteString("\n[SUBJECTS]\n")
		for _, subj := range v.Subjects {
			st, ok := v.SubjectAnalysis[subj]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: avg %.2f, min %.4g, max %.4g, pass %.1f%% (n=%d)\n", subj, st.Average, st.Min, st.Max, st.PassRate, st.Count))
		}
	}

	if len(v.Classes) > 0 {
		b.WriteString("\n[CLASSES]\n")
		classes := append([]string{}, v.Classes...)
		sort.Strings(classes)
		for _, class := range classes {
			cs := v.ClassAnalysis[class]
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", class, cs.StudentCount))
			for _, subj := range v.Subjects {
				if st, ok := cs.Subjects[subj]; ok {
					b.WriteString(fmt.Sprintf("  • %s: avg %.2f, pass %.1f%%\n", subj, st.Average, st.PassRate))
				}
			}
		}
	}

	if len(v.BoxPlots) > 0 {
		b.WriteString("\n[SPREAD]\n")
		for _, bp := range v.BoxPlots {
			b.WriteString(fmt.Sprintf("- %s: q1 %.4g, median %.4g, q3 %.4g, std %.4g", bp.Subject, bp.Q1, bp.Median, bp.Q3, bp.Std))
			if len(bp.Outliers) > 0 {
				b.WriteString(fmt.Sprintf(", outliers %d", len(bp.Outliers)))
			}
			b.WriteString("\n")
		}
	}

	if len(v.Distribution) > 0 {
		b.WriteString("\n[TOTAL DISTRIBUTION]\n")
		for _, band := range v.Distribution {
			b.WriteString(fmt.Sprintf("- %s: %d\n", band.Name, band.Count))
		}
	}

	if n := len(v.Students); n > 0 {
		b.WriteString("\n[TOP STUDENTS]\n")
		if n > topRanked {
			n = topRanked
		}
		for _, s := range v.Students[:n] {
			b.WriteString(fmt.Sprintf("%d. %s (%s, %s): %.4g\n", s.Rank, safeCell(s.Name), s.ID, s.Class, s.Total))
		}
	}

	if len(v.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range v.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

// Markdown renders the personal analysis as text.
func (v *PersonalView) Markdown() string {
	var b strings.Builder
	s := v.Student
	b.WriteString(fmt.Sprintf("[STUDENT] %s (%s), %s\n", safeCell(s.Name), s.ID, s.Class))
	b.WriteString(fmt.Sprintf("Total: %.4g, average %.2f, rank %d\n", s.TotalScore, s.AverageScore, s.Rank))
	b.WriteString(fmt.Sprintf("Class position: %s, grade position: %s\n\n", s.ClassRank, s.GradeRank))
	b.WriteString("[SUBJECTS]\n")
	for i, l := range v.Analysis.Levels {
		d := v.Analysis.Deviations[i]
		b.WriteString(fmt.Sprintf("- %s: %.4g (%s), vs class %+.2f, vs grade %+.2f\n", l.Subject, l.Score, l.Level, d.Deviation, l.Difference))
	}
	if len(s.Rankings) > 0 {
		b.WriteString("\n[RANKINGS]\n")
		keys := make([]string, 0, len(s.Rankings))
		for k := range s.Rankings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("- %s: %d\n", k, s.Rankings[k]))
		}
	}
	return b.String()
}

// Markdown renders the class analysis as text.
func (v *ClassView) Markdown() string {
	var b strings.Builder
	ci := v.ClassInfo
	b.WriteString(fmt.Sprintf("[CLASS] %s (n=%d)\n", ci.Name, ci.StudentCount))
	b.WriteString(fmt.Sprintf("Average %.2f, pass %.1f%%, position %s\n\n", ci.AverageScore, ci.PassRate, ci.Ranking))
	b.WriteString("[SUBJECTS]\n")
	for _, st := range v.SubjectStats {
		b.WriteString(fmt.Sprintf("- %s: avg %.2f, min %.4g, max %.4g, pass %.1f%%\n", st.Subject, st.Average, st.Min, st.Max, st.PassRate))
	}
	b.WriteString("\n[RANKING]\n")
	for i, r := range v.StudentRankings {
		if i == topRanked {
			break
		}
		b.WriteString(fmt.Sprintf("%d. %s (%s): %.4g\n", r.Rank, safeCell(r.Name), r.ID, r.TotalScore))
	}
	b.WriteString("\n[COMPARISON]\n")
	for _, c := range v.Comparison {
		mark := ""
		if c.IsTarget {
			mark = " *"
		}
		b.WriteString(fmt.Sprintf("- %s%s: avg %.2f, pass %.1f%% (n=%d)\n", c.Class, mark, c.Average, c.PassRate, c.StudentCount))
	}
	return b.String()
}

func safeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) > 48 {
		return string([]rune(s)[:48]) + "…"
	}
	return s
}
