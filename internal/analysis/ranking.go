package analysis

import (
	"fmt"
	"sort"
)

// TotalLabel is the subject name used in ranking labels for the total score.
const TotalLabel = "总分"

// RankPolicy assigns 1-based ranks to scores already sorted descending.
// It is the single place where tie handling is decided.
type RankPolicy func(sorted []float64) []int

// SequentialRanks ranks purely by position: equal scores get consecutive ranks.
func SequentialRanks(sorted []float64) []int {
	ranks := make([]int, len(sorted))
	for i := range sorted {
		ranks[i] = i + 1
	}
	return ranks
}

// CompetitionRanks shares a rank between equal scores and skips the next ones (1,1,3).
func CompetitionRanks(sorted []float64) []int {
	ranks := make([]int, len(sorted))
	for i := range sorted {
		if i > 0 && sorted[i] == sorted[i-1] {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// RankPolicyByName resolves a configured tie policy name.
func RankPolicyByName(name string) (RankPolicy, error) {
	switch name {
	case "", "sequential":
		return SequentialRanks, nil
	case "competition":
		return CompetitionRanks, nil
	default:
		return nil, fmt.Errorf("unknown tie policy %q (use sequential or competition)", name)
	}
}

// ClassRankLabel is the ranking label for a class-scoped rank among n students.
func ClassRankLabel(subject string, n int) string {
	return fmt.Sprintf("%s班级排名共%d人", subject, n)
}

// GradeRankLabel is the ranking label for a grade-scoped rank among n students.
func GradeRankLabel(subject string, n int) string {
	return fmt.Sprintf("%s年级排名共%d人", subject, n)
}

// scoreFunc extracts the ranked value; ok is false when the student has none.
type scoreFunc func(s *Student) (float64, bool)

func totalScore(s *Student) (float64, bool) { return s.Total, true }

func subjectScore(subject string) scoreFunc {
	return func(s *Student) (float64, bool) {
		v, ok := s.Grades[subject]
		return v, ok
	}
}

// rankBy stable-sorts the students having a score descending and returns
// each student's rank plus the ranked population size.
func rankBy(students []*Student, score scoreFunc, policy RankPolicy) (map[*Student]int, int) {
	type entry struct {
		s *Student
		v float64
	}
	entries := make([]entry, 0, len(students))
	for _, s := range students {
		if v, ok := score(s); ok {
			entries = append(entries, entry{s, v})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].v > entries[j].v })
	vals := make([]float64, len(entries))
	for i, e := range entries {
		vals[i] = e.v
	}
	ranks := policy(vals)
	out := make(map[*Student]int, len(entries))
	for i, e := range entries {
		out[e.s] = ranks[i]
	}
	return out, len(entries)
}

// ComputeTotals sets Total to the sum of each student's grades.
func ComputeTotals(students []*Student) {
	for _, s := range students {
		s.Total = sumGrades(s.Grades)
	}
}

// sumGrades adds grades in key order so totals are reproducible.
func sumGrades(grades map[string]float64) float64 {
	keys := make([]string, 0, len(grades))
	for k := range grades {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var t float64
	for _, k := range keys {
		t += grades[k]
	}
	return t
}

// ComputeRankings computes totals plus class- and grade-level ranks for the total
// and for every subject, then orders the slice by total and assigns Rank.
// Students with declared rankings keep them untouched; the decision is per student.
func ComputeRankings(students []*Student, subjects []string, policy RankPolicy) []*Student {
	if policy == nil {
		policy = SequentialRanks
	}
	ComputeTotals(students)

	classes := map[string][]*Student{}
	for _, s := range students {
		classes[s.Class] = append(classes[s.Class], s)
	}

	type ranked struct {
		ranks map[*Student]int
		n     int
	}
	compute := func(subject string, score scoreFunc) {
		grade, gradeN := rankBy(students, score, policy)
		byClass := make(map[string]ranked, len(classes))
		for name, members := range classes {
			r, n := rankBy(members, score, policy)
			byClass[name] = ranked{r, n}
		}
		for _, s := range students {
			if len(s.DeclaredRankings) > 0 {
				continue
			}
			cr := byClass[s.Class]
			if r, ok := cr.ranks[s]; ok {
				s.Rankings[ClassRankLabel(subject, cr.n)] = r
			}
			if r, ok := grade[s]; ok {
				s.Rankings[GradeRankLabel(subject, gradeN)] = r
			}
		}
	}

	for _, s := range students {
		if len(s.DeclaredRankings) == 0 {
			s.Rankings = RankingSet{}
		}
	}
	compute(TotalLabel, totalScore)
	for _, subj := range subjects {
		compute(subj, subjectScore(subj))
	}

	AssignOverallRank(students, policy)
	return students
}

// AssignOverallRank stable-sorts students by total descending and sets Rank.
func AssignOverallRank(students []*Student, policy RankPolicy) {
	if policy == nil {
		policy = SequentialRanks
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].Total > students[j].Total })
	totals := make([]float64, len(students))
	for i, s := range students {
		totals[i] = s.Total
	}
	for i, r := range policy(totals) {
		students[i].Rank = r
	}
}
