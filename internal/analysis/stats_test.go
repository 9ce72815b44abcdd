package analysis

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func scoresOf(subject string, vals ...float64) []*Student {
	out := make([]*Student, 0, len(vals))
	for i, v := range vals {
		out = append(out, student(string(rune('a'+i)), "1班", map[string]float64{subject: v}))
	}
	return out
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	cases := []struct {
		p, want float64
	}{
		{0, 10}, {25, 17.5}, {50, 25}, {75, 32.5}, {100, 40},
	}
	for _, c := range cases {
		if got := Percentile(sorted, c.p); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Percentile(%v) = %v, want %v", c.p, got, c.want)
		}
	}
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("empty percentile = %v", got)
	}
}

func TestBoxPlot_SinglePoint(t *testing.T) {
	bp, ok := BoxPlot(scoresOf("语文", 72), "语文")
	if !ok {
		t.Fatalf("expected box plot")
	}
	for name, v := range map[string]float64{"min": bp.Min, "q1": bp.Q1, "median": bp.Median, "q3": bp.Q3, "max": bp.Max} {
		if v != 72 {
			t.Errorf("%s = %v, want 72", name, v)
		}
	}
	if bp.Std != 0 || len(bp.Outliers) != 0 {
		t.Errorf("unexpected spread: %+v", bp)
	}
}

func TestBoxPlot_FencesAndOutliers(t *testing.T) {
	bp, ok := BoxPlot(scoresOf("数学", 200, 50, 70, 60, 80), "数学")
	if !ok {
		t.Fatalf("expected box plot")
	}
	if !(bp.Q1 <= bp.Median && bp.Median <= bp.Q3) {
		t.Fatalf("quartiles out of order: %+v", bp)
	}
	want := BoxPlotStatistics{
		Subject:  "数学",
		Min:      50,
		Q1:       60,
		Median:   70,
		Q3:       80,
		Max:      110,
		Outliers: []float64{200},
		Mean:     92,
		Count:    5,
	}
	bp.Std = 0
	if diff := cmp.Diff(want, bp); diff != "" {
		t.Fatalf("box plot mismatch (-want +got):\n%s", diff)
	}
	iqr := bp.Q3 - bp.Q1
	for _, o := range bp.Outliers {
		if o >= bp.Q1-1.5*iqr && o <= bp.Q3+1.5*iqr {
			t.Errorf("outlier %v inside fences", o)
		}
	}
}

func TestBoxPlot_PopulationStd(t *testing.T) {
	bp, _ := BoxPlot(scoresOf("英语", 2, 4, 4, 4, 5, 5, 7, 9), "英语")
	if math.Abs(bp.Std-2) > 1e-9 || math.Abs(bp.Mean-5) > 1e-9 {
		t.Fatalf("mean/std = %v/%v, want 5/2", bp.Mean, bp.Std)
	}
	if _, ok := BoxPlot(scoresOf("英语", 1), "物理"); ok {
		t.Fatalf("subject without grades must be omitted")
	}
}

func TestSubjectStats_PassRateBoundary(t *testing.T) {
	st := SubjectStats(scoresOf("语文", 60), []string{"语文", "数学"}, DefaultPassMark)
	if st["语文"].PassRate != 100 {
		t.Fatalf("score of exactly 60 must pass, got %v", st["语文"].PassRate)
	}
	if _, ok := st["数学"]; ok {
		t.Fatalf("subject without grades must be omitted")
	}
}

func TestComputeStatistics_ByClass(t *testing.T) {
	students := []*Student{
		student("1", "1班", map[string]float64{"语文": 90}),
		student("2", "1班", map[string]float64{"语文": 50}),
		student("3", "2班", map[string]float64{"语文": 70}),
	}
	st := ComputeStatistics(students, []string{"语文"}, 60)
	if got := st.ByClass["1班"].StudentCount; got != 2 {
		t.Fatalf("1班 count = %d", got)
	}
	want := SubjectStatistics{Subject: "语文", Average: 70, Max: 90, Min: 50, PassRate: 50, Count: 2}
	if diff := cmp.Diff(want, st.ByClass["1班"].Subjects["语文"]); diff != "" {
		t.Fatalf("class stats mismatch (-want +got):\n%s", diff)
	}
	if st.BySubject["语文"].Count != 3 {
		t.Fatalf("bySubject count = %d", st.BySubject["语文"].Count)
	}
}

func TestScoreDistribution(t *testing.T) {
	students := scoresOf("语文", 0, 0, 0, 0)
	for i, total := range []float64{170, 130, 175, 139.5} {
		students[i].Total = total
	}
	got := ScoreDistribution(students, 20)
	want := []ScoreBand{
		{Name: "160-180", Min: 160, Max: 180, Count: 2},
		{Name: "120-140", Min: 120, Max: 140, Count: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("distribution mismatch (-want +got):\n%s", diff)
	}
	sum := 0
	for _, b := range ScoreDistribution(students, 0) {
		sum += b.Count
	}
	if sum != len(students) {
		t.Fatalf("default width lost students: %d", sum)
	}
}

func TestCorrelation(t *testing.T) {
	students := []*Student{
		student("1", "1班", map[string]float64{"语文": 60, "数学": 70}),
		student("2", "1班", map[string]float64{"语文": 70, "数学": 80}),
		student("3", "1班", map[string]float64{"语文": 80, "数学": 90}),
		student("4", "1班", map[string]float64{"语文": 90}),
	}
	if r := Correlation(students, "语文", "数学"); math.Abs(r-1) > 1e-9 {
		t.Fatalf("perfect correlation = %v", r)
	}
	if r := Correlation(students[:1], "语文", "数学"); r != 0 {
		t.Fatalf("single pair = %v", r)
	}
	flat := []*Student{
		student("1", "1班", map[string]float64{"语文": 60, "数学": 70}),
		student("2", "1班", map[string]float64{"语文": 60, "数学": 80}),
	}
	if r := Correlation(flat, "语文", "数学"); r != 0 {
		t.Fatalf("zero variance = %v", r)
	}
}
