package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// gradesOf collects the defined grades of a subject in student order.
func gradesOf(students []*Student, subject string) []float64 {
	var out []float64
	for _, s := range students {
		if v, ok := s.Grades[subject]; ok {
			out = append(out, v)
		}
	}
	return out
}

// summarize returns the statistics of a non-empty score slice.
func summarize(subject string, scores []float64, passMark float64) SubjectStatistics {
	lo, hi := scores[0], scores[0]
	for _, v := range scores {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return SubjectStatistics{
		Subject:  subject,
		Average:  stat.Mean(scores, nil),
		Max:      hi,
		Min:      lo,
		PassRate: passRateOf(scores, passMark),
		Count:    len(scores),
	}
}

// SubjectStats computes per-subject statistics over the students that have a grade.
// Subjects without any grade are left out.
func SubjectStats(students []*Student, subjects []string, passMark float64) map[string]SubjectStatistics {
	out := make(map[string]SubjectStatistics, len(subjects))
	for _, subj := range subjects {
		scores := gradesOf(students, subj)
		if len(scores) == 0 {
			continue
		}
		out[subj] = summarize(subj, scores, passMark)
	}
	return out
}

// OrderedSubjectStats is SubjectStats as a slice in subject order.
func OrderedSubjectStats(students []*Student, subjects []string, passMark float64) []SubjectStatistics {
	m := SubjectStats(students, subjects, passMark)
	out := make([]SubjectStatistics, 0, len(m))
	for _, subj := range subjects {
		if st, ok := m[subj]; ok {
			out = append(out, st)
		}
	}
	return out
}

// ComputeStatistics aggregates the dataset by subject and by class.
func ComputeStatistics(students []*Student, subjects []string, passMark float64) Statistics {
	st := Statistics{
		BySubject: SubjectStats(students, subjects, passMark),
		ByClass:   map[string]ClassStatistics{},
	}
	for class, members := range groupByClass(students) {
		st.ByClass[class] = ClassStatistics{
			StudentCount: len(members),
			Subjects:     SubjectStats(members, subjects, passMark),
		}
	}
	return st
}

func groupByClass(students []*Student) map[string][]*Student {
	out := map[string][]*Student{}
	for _, s := range students {
		out[s.Class] = append(out[s.Class], s)
	}
	return out
}

// Percentile returns the p-th percentile (0..100) of an ascending slice using
// linear interpolation at p/100*(n-1). The upper bracket is clamped to the last element.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// BoxPlot computes quartiles, whisker bounds and 1.5*IQR outliers for a subject.
// ok is false when the subject has no grades.
func BoxPlot(students []*Student, subject string) (BoxPlotStatistics, bool) {
	scores := gradesOf(students, subject)
	if len(scores) == 0 {
		return BoxPlotStatistics{}, false
	}
	sort.Float64s(scores)
	q1 := Percentile(scores, 25)
	median := Percentile(scores, 50)
	q3 := Percentile(scores, 75)
	iqr := q3 - q1
	lowerFence := q1 - 1.5*iqr
	upperFence := q3 + 1.5*iqr

	outliers := []float64{}
	for _, v := range scores {
		if v < lowerFence || v > upperFence {
			outliers = append(outliers, v)
		}
	}
	mean, std := stat.PopMeanStdDev(scores, nil)
	return BoxPlotStatistics{
		Subject:  subject,
		Min:      math.Max(scores[0], lowerFence),
		Q1:       q1,
		Median:   median,
		Q3:       q3,
		Max:      math.Min(scores[len(scores)-1], upperFence),
		Outliers: outliers,
		Mean:     mean,
		Count:    len(scores),
		Std:      std,
	}, true
}

// BoxPlots computes BoxPlot for every subject with at least one grade.
func BoxPlots(students []*Student, subjects []string) []BoxPlotStatistics {
	out := make([]BoxPlotStatistics, 0, len(subjects))
	for _, subj := range subjects {
		if bp, ok := BoxPlot(students, subj); ok {
			out = append(out, bp)
		}
	}
	return out
}

// ScoreDistribution buckets student totals into non-overlapping bands of the
// given width, aligned to multiples of width. Bands are returned highest first
// and empty bands are dropped.
func ScoreDistribution(students []*Student, width float64) []ScoreBand {
	if width <= 0 {
		width = DefaultBandWidth
	}
	counts := map[float64]int{}
	for _, s := range students {
		counts[math.Floor(s.Total/width)*width]++
	}
	lows := make([]float64, 0, len(counts))
	for lo := range counts {
		lows = append(lows, lo)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(lows)))
	out := make([]ScoreBand, 0, len(lows))
	for _, lo := range lows {
		out = append(out, ScoreBand{
			Name:  fmt.Sprintf("%g-%g", lo, lo+width),
			Min:   lo,
			Max:   lo + width,
			Count: counts[lo],
		})
	}
	return out
}

// Correlation is the Pearson coefficient of two subjects over the students that
// have both grades. Fewer than two pairs or a constant series yields 0.
func Correlation(students []*Student, a, b string) float64 {
	var xs, ys []float64
	for _, s := range students {
		x, okA := s.Grades[a]
		y, okB := s.Grades[b]
		if okA && okB {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// meanOf returns the mean of vals, or 0 when empty.
func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// passRateOf returns the share of vals >= passMark as a percentage, or 0 when empty.
func passRateOf(vals []float64, passMark float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	passed := 0
	for _, v := range vals {
		if v >= passMark {
			passed++
		}
	}
	return float64(passed) / float64(len(vals)) * 100
}
