package analysis

import (
	"fmt"
	"sort"
)

// Series is a labelled numeric chart series.
type Series struct {
	Labels []string  `json:"labels" yaml:"labels"`
	Data   []float64 `json:"data" yaml:"data"`
}

// SeriesDataset is one named data row of a grouped chart.
type SeriesDataset struct {
	Label string    `json:"label" yaml:"label"`
	Data  []float64 `json:"data" yaml:"data"`
}

// GroupedSeries is a chart with shared labels and one dataset per group.
type GroupedSeries struct {
	Labels   []string        `json:"labels" yaml:"labels"`
	Datasets []SeriesDataset `json:"datasets" yaml:"datasets"`
}

// Summary holds the dataset-wide counts.
type Summary struct {
	TotalStudents int `json:"totalStudents" yaml:"total_students"`
	TotalSubjects int `json:"totalSubjects" yaml:"total_subjects"`
	TotalClasses  int `json:"totalClasses" yaml:"total_classes"`
}

// OverallCharts are the chart series of the overall view.
type OverallCharts struct {
	SubjectAverage    Series        `json:"subjectAverage" yaml:"subject_average"`
	ClassComparison   GroupedSeries `json:"classComparison" yaml:"class_comparison"`
	PassRateBySubject Series        `json:"passRateBySubject" yaml:"pass_rate_by_subject"`
}

// OverallView is the dataset-wide analysis.
type OverallView struct {
	Source          string                       `json:"source,omitempty" yaml:"source,omitempty"`
	Summary         Summary                      `json:"summary" yaml:"summary"`
	Subjects        []string                     `json:"subjects" yaml:"subjects"`
	Classes         []string                     `json:"classes" yaml:"classes"`
	SubjectAnalysis map[string]SubjectStatistics `json:"subjectAnalysis" yaml:"subject_analysis"`
	ClassAnalysis   map[string]ClassStatistics   `json:"classAnalysis" yaml:"class_analysis"`
	Charts          OverallCharts                `json:"charts" yaml:"charts"`
	BoxPlots        []BoxPlotStatistics          `json:"boxPlotData" yaml:"box_plot_data"`
	Distribution    []ScoreBand                  `json:"scoreDistribution" yaml:"score_distribution"`
	TableAnalysis   TableAnalysis                `json:"tableAnalysis" yaml:"table_analysis"`
	Warnings        []string                     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Students        []*Student                   `json:"data" yaml:"students"`
}

// BuildOverallAnalysis assembles the dataset-wide view.
func BuildOverallAnalysis(ds *Dataset) OverallView {
	v := OverallView{
		Source: ds.Source,
		Summary: Summary{
			TotalStudents: len(ds.Students),
			TotalSubjects: len(ds.Subjects),
			TotalClasses:  len(ds.Classes),
		},
		Subjects:        ds.Subjects,
		Classes:         ds.Classes,
		SubjectAnalysis: ds.Statistics.BySubject,
		ClassAnalysis:   ds.Statistics.ByClass,
		BoxPlots:        BoxPlots(ds.Students, ds.Subjects),
		Distribution:    ScoreDistribution(ds.Students, ds.BandWidth()),
		TableAnalysis:   ds.TableAnalysis,
		Warnings:        ds.Warnings,
		Students:        ds.Students,
	}

	avg := Series{Labels: ds.Subjects, Data: make([]float64, len(ds.Subjects))}
	pass := Series{Labels: ds.Subjects, Data: make([]float64, len(ds.Subjects))}
	for i, subj := range ds.Subjects {
		st := ds.Statistics.BySubject[subj]
		avg.Data[i] = st.Average
		pass.Data[i] = st.PassRate
	}
	cmp := GroupedSeries{Labels: ds.Classes, Datasets: make([]SeriesDataset, 0, len(ds.Subjects))}
	for _, subj := range ds.Subjects {
		row := SeriesDataset{Label: subj, Data: make([]float64, len(ds.Classes))}
		for j, class := range ds.Classes {
			row.Data[j] = ds.Statistics.ByClass[class].Subjects[subj].Average
		}
		cmp.Datasets = append(cmp.Datasets, row)
	}
	v.Charts = OverallCharts{SubjectAverage: avg, ClassComparison: cmp, PassRateBySubject: pass}
	return v
}

// StudentInfo is the header block of a personal analysis.
type StudentInfo struct {
	ID               string         `json:"id" yaml:"id"`
	Name             string         `json:"name" yaml:"name"`
	Class            string         `json:"class" yaml:"class"`
	TotalScore       float64        `json:"totalScore" yaml:"total_score"`
	AverageScore     float64        `json:"averageScore" yaml:"average_score"`
	ClassRank        string         `json:"classRank" yaml:"class_rank"`
	GradeRank        string         `json:"gradeRank" yaml:"grade_rank"`
	Rank             int            `json:"rank" yaml:"rank"`
	DeclaredRankings map[string]int `json:"originalRankings,omitempty" yaml:"original_rankings,omitempty"`
	Rankings         RankingSet     `json:"rankings" yaml:"rankings"`
}

// SubjectAchievement is a student's score and pass state in one subject.
type SubjectAchievement struct {
	Subject string  `json:"subject" yaml:"subject"`
	Score   float64 `json:"score" yaml:"score"`
	Pass    bool    `json:"isPass" yaml:"pass"`
}

// SubjectContribution is a subject's share of a student's total.
type SubjectContribution struct {
	Subject      string  `json:"subject" yaml:"subject"`
	Contribution float64 `json:"contribution" yaml:"contribution"`
}

// SubjectDeviation compares a score with the class average.
type SubjectDeviation struct {
	Subject      string  `json:"subject" yaml:"subject"`
	Score        float64 `json:"score" yaml:"score"`
	ClassAverage float64 `json:"classAverage" yaml:"class_average"`
	Deviation    float64 `json:"deviation" yaml:"deviation"`
	Percentage   float64 `json:"percentage" yaml:"percentage"`
}

// SubjectLevel grades a score and relates it to the grade average.
type SubjectLevel struct {
	Subject      string  `json:"subject" yaml:"subject"`
	Score        float64 `json:"score" yaml:"score"`
	Level        string  `json:"level" yaml:"level"`
	GradeAverage float64 `json:"gradeAverage" yaml:"grade_average"`
	Difference   float64 `json:"difference" yaml:"difference"`
}

// PersonalBreakdown groups the per-subject details of a student.
type PersonalBreakdown struct {
	Subjects      []string              `json:"subjects" yaml:"subjects"`
	Achievement   []SubjectAchievement  `json:"achievementRates" yaml:"achievement"`
	Contributions []SubjectContribution `json:"contributionRates" yaml:"contributions"`
	Deviations    []SubjectDeviation    `json:"subjectDeviations" yaml:"deviations"`
	Levels        []SubjectLevel        `json:"scoreGrades" yaml:"levels"`
}

// PassFail counts passed and failed subjects.
type PassFail struct {
	Labels []string `json:"labels" yaml:"labels"`
	Passed int      `json:"passed" yaml:"passed"`
	Failed int      `json:"failed" yaml:"failed"`
}

// RadarSeries compares a student with the grade average per subject.
type RadarSeries struct {
	Labels       []string  `json:"labels" yaml:"labels"`
	Student      []float64 `json:"studentData" yaml:"student"`
	GradeAverage []float64 `json:"gradeAverageData" yaml:"grade_average"`
}

// PersonalCharts are the chart series of the personal view.
type PersonalCharts struct {
	Achievement  PassFail    `json:"achievement" yaml:"achievement"`
	Contribution Series      `json:"contribution" yaml:"contribution"`
	Radar        RadarSeries `json:"radar" yaml:"radar"`
	Scores       Series      `json:"scores" yaml:"scores"`
}

// PersonalView is the analysis of a single student.
type PersonalView struct {
	Student  StudentInfo       `json:"student" yaml:"student"`
	Analysis PersonalBreakdown `json:"analysis" yaml:"analysis"`
	Charts   PersonalCharts    `json:"charts" yaml:"charts"`
}

// Score levels, checked highest first.
var levels = []struct {
	min  float64
	name string
}{
	{90, "excellent"},
	{80, "good"},
	{70, "average"},
}

func levelOf(score float64) string {
	for _, l := range levels {
		if score >= l.min {
			return l.name
		}
	}
	return "poor"
}

// FindStudent looks a student up by id, compared as a string.
func FindStudent(ds *Dataset, id string) (*Student, error) {
	for _, s := range ds.Students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, &NotFoundError{Kind: "student", Key: id}
}

// BuildPersonalAnalysis assembles the view of one student. The dataset is not modified.
func BuildPersonalAnalysis(ds *Dataset, id string) (*PersonalView, error) {
	s, err := FindStudent(ds, id)
	if err != nil {
		return nil, err
	}
	passMark := ds.PassMark()
	subjects := studentSubjects(ds.Subjects, s)
	total, avg := totalAndAverage(s, subjects)
	classmates := groupByClass(ds.Students)[s.Class]
	classStats := SubjectStats(classmates, subjects, passMark)

	v := &PersonalView{
		Student: StudentInfo{
			ID:               s.ID,
			Name:             s.Name,
			Class:            s.Class,
			TotalScore:       total,
			AverageScore:     avg,
			ClassRank:        positionByAverage(classmates, ds.Subjects, avg),
			GradeRank:        positionByAverage(ds.Students, ds.Subjects, avg),
			Rank:             s.Rank,
			DeclaredRankings: s.DeclaredRankings,
			Rankings:         s.Rankings,
		},
		Analysis: PersonalBreakdown{Subjects: subjects},
	}
	radar := RadarSeries{Labels: subjects}
	scores := Series{Labels: subjects}
	contrib := Series{Labels: subjects}
	pf := PassFail{Labels: subjects}
	for _, subj := range subjects {
		score := s.Grades[subj]
		pass := score >= passMark
		if pass {
			pf.Passed++
		} else {
			pf.Failed++
		}
		share := 0.0
		if total != 0 {
			share = score / total * 100
		}
		classAvg := classStats[subj].Average
		pct := 0.0
		if classAvg != 0 {
			pct = (score - classAvg) / classAvg * 100
		}
		gradeAvg := ds.Statistics.BySubject[subj].Average

		v.Analysis.Achievement = append(v.Analysis.Achievement, SubjectAchievement{Subject: subj, Score: score, Pass: pass})
		v.Analysis.Contributions = append(v.Analysis.Contributions, SubjectContribution{Subject: subj, Contribution: share})
		v.Analysis.Deviations = append(v.Analysis.Deviations, SubjectDeviation{
			Subject: subj, Score: score, ClassAverage: classAvg, Deviation: score - classAvg, Percentage: pct,
		})
		v.Analysis.Levels = append(v.Analysis.Levels, SubjectLevel{
			Subject: subj, Score: score, Level: levelOf(score), GradeAverage: gradeAvg, Difference: score - gradeAvg,
		})
		radar.Student = append(radar.Student, score)
		radar.GradeAverage = append(radar.GradeAverage, gradeAvg)
		scores.Data = append(scores.Data, score)
		contrib.Data = append(contrib.Data, share)
	}
	v.Charts = PersonalCharts{Achievement: pf, Contribution: contrib, Radar: radar, Scores: scores}
	return v, nil
}

// studentSubjects lists the subjects the student has a grade in, in dataset order,
// leaving out a total-like subject.
func studentSubjects(all []string, s *Student) []string {
	out := []string{}
	for _, subj := range all {
		if subj == TotalLabel {
			continue
		}
		if _, ok := s.Grades[subj]; ok {
			out = append(out, subj)
		}
	}
	return out
}

func totalAndAverage(s *Student, subjects []string) (float64, float64) {
	vals := make([]float64, 0, len(subjects))
	var total float64
	for _, subj := range subjects {
		total += s.Grades[subj]
		vals = append(vals, s.Grades[subj])
	}
	return total, meanOf(vals)
}

// positionByAverage returns "k/N" where k is one more than the number of
// students whose average score is strictly higher than avg.
func positionByAverage(students []*Student, subjects []string, avg float64) string {
	k := 1
	for _, o := range students {
		_, a := totalAndAverage(o, studentSubjects(subjects, o))
		if a > avg {
			k++
		}
	}
	return fmt.Sprintf("%d/%d", k, len(students))
}

// ClassInfo is the header block of a class analysis.
type ClassInfo struct {
	Name         string  `json:"name" yaml:"name"`
	StudentCount int     `json:"studentCount" yaml:"student_count"`
	AverageScore float64 `json:"averageScore" yaml:"average_score"`
	PassRate     float64 `json:"passRate" yaml:"pass_rate"`
	Ranking      string  `json:"ranking" yaml:"ranking"`
}

// RankedStudent is a student's place within a class by total score.
type RankedStudent struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	TotalScore   float64 `json:"totalScore" yaml:"total_score"`
	AverageScore float64 `json:"averageScore" yaml:"average_score"`
	Rank         int     `json:"rank" yaml:"rank"`
}

// SubjectRank is a student's place within a class for one subject.
type SubjectRank struct {
	ID    string  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
	Rank  int     `json:"rank" yaml:"rank"`
}

// ClassComparison is one row of the class comparison table.
type ClassComparison struct {
	Class        string  `json:"class" yaml:"class"`
	Average      float64 `json:"average" yaml:"average"`
	PassRate     float64 `json:"passRate" yaml:"pass_rate"`
	StudentCount int     `json:"studentCount" yaml:"student_count"`
	IsTarget     bool    `json:"isTarget" yaml:"is_target"`
	IsReference  bool    `json:"isReference,omitempty" yaml:"is_reference,omitempty"`
}

// ClassSubjectSeries holds the per-subject averages and pass rates of a class.
type ClassSubjectSeries struct {
	Labels    []string  `json:"labels" yaml:"labels"`
	Averages  []float64 `json:"averages" yaml:"averages"`
	PassRates []float64 `json:"passRates" yaml:"pass_rates"`
}

// ClassCharts are the chart series of the class view.
type ClassCharts struct {
	SubjectAverage ClassSubjectSeries `json:"subjectAverage" yaml:"subject_average"`
	Ranking        Series             `json:"ranking" yaml:"ranking"`
}

// ClassView is the analysis of a single class.
type ClassView struct {
	ClassInfo       ClassInfo                `json:"classInfo" yaml:"class_info"`
	SubjectStats    []SubjectStatistics      `json:"subjectStats" yaml:"subject_stats"`
	StudentRankings []RankedStudent          `json:"studentRankings" yaml:"student_rankings"`
	SubjectRankings map[string][]SubjectRank `json:"subjectRankings" yaml:"subject_rankings"`
	Distribution    []ScoreBand              `json:"scoreDistribution" yaml:"score_distribution"`
	BoxPlots        []BoxPlotStatistics      `json:"boxPlotData" yaml:"box_plot_data"`
	Comparison      []ClassComparison        `json:"classComparison" yaml:"class_comparison"`
	Charts          ClassCharts              `json:"charts" yaml:"charts"`
}

// topRanked is how many students the class ranking chart shows.
const topRanked = 10

// BuildClassAnalysis assembles the view of one class.
func BuildClassAnalysis(ds *Dataset, class string) (*ClassView, error) {
	members := groupByClass(ds.Students)[class]
	if len(members) == 0 {
		return nil, &NotFoundError{Kind: "class", Key: class}
	}
	passMark := ds.PassMark()
	policy := ds.rankPolicy()
	all := pooledScores(members, ds.Subjects)

	comparison := CompareClasses(ds, class)
	position, seen := 0, 0
	for _, row := range comparison {
		if row.IsReference {
			continue
		}
		seen++
		if row.Class == class {
			position = seen
		}
	}

	v := &ClassView{
		ClassInfo: ClassInfo{
			Name:         class,
			StudentCount: len(members),
			AverageScore: meanOf(all),
			PassRate:     passRateOf(all, passMark),
			Ranking:      fmt.Sprintf("%d/%d", position, len(ds.Classes)),
		},
		SubjectStats:    OrderedSubjectStats(members, ds.Subjects, passMark),
		SubjectRankings: map[string][]SubjectRank{},
		Distribution:    ScoreDistribution(members, ds.BandWidth()),
		BoxPlots:        BoxPlots(members, ds.Subjects),
		Comparison:      comparison,
	}

	ranked, _ := rankBy(members, totalScore, policy)
	for _, s := range members {
		_, avg := totalAndAverage(s, studentSubjects(ds.Subjects, s))
		v.StudentRankings = append(v.StudentRankings, RankedStudent{
			ID: s.ID, Name: s.Name, TotalScore: s.Total, AverageScore: avg, Rank: ranked[s],
		})
	}
	sort.SliceStable(v.StudentRankings, func(i, j int) bool { return v.StudentRankings[i].Rank < v.StudentRankings[j].Rank })

	for _, subj := range ds.Subjects {
		ranks, n := rankBy(members, subjectScore(subj), policy)
		rows := make([]SubjectRank, 0, n)
		for _, s := range members {
			if r, ok := ranks[s]; ok {
				rows = append(rows, SubjectRank{ID: s.ID, Name: s.Name, Score: s.Grades[subj], Rank: r})
			}
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })
		v.SubjectRankings[subj] = rows
	}

	sa := ClassSubjectSeries{}
	for _, st := range v.SubjectStats {
		sa.Labels = append(sa.Labels, st.Subject)
		sa.Averages = append(sa.Averages, st.Average)
		sa.PassRates = append(sa.PassRates, st.PassRate)
	}
	top := Series{}
	for i, r := range v.StudentRankings {
		if i == topRanked {
			break
		}
		top.Labels = append(top.Labels, r.Name)
		top.Data = append(top.Data, r.TotalScore)
	}
	v.Charts = ClassCharts{SubjectAverage: sa, Ranking: top}
	return v, nil
}

// CompareClasses builds the class comparison table sorted by average descending.
// With a single class a grade-average reference row is appended.
func CompareClasses(ds *Dataset, target string) []ClassComparison {
	passMark := ds.PassMark()
	groups := groupByClass(ds.Students)
	out := make([]ClassComparison, 0, len(ds.Classes)+1)
	for _, class := range ds.Classes {
		scores := pooledScores(groups[class], ds.Subjects)
		out = append(out, ClassComparison{
			Class:        class,
			Average:      meanOf(scores),
			PassRate:     passRateOf(scores, passMark),
			StudentCount: len(groups[class]),
			IsTarget:     class == target,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Average > out[j].Average })
	if len(out) == 1 {
		scores := pooledScores(ds.Students, ds.Subjects)
		out = append(out, ClassComparison{
			Class:        GradeAverageLabel,
			Average:      meanOf(scores),
			PassRate:     passRateOf(scores, passMark),
			StudentCount: len(ds.Students),
			IsReference:  true,
		})
	}
	return out
}

// pooledScores flattens every defined grade of the students over the subjects.
func pooledScores(students []*Student, subjects []string) []float64 {
	var out []float64
	for _, s := range students {
		for _, subj := range subjects {
			if v, ok := s.Grades[subj]; ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// StudentSummary is one entry of the student list.
type StudentSummary struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Class        string  `json:"class" yaml:"class"`
	TotalScore   float64 `json:"totalScore" yaml:"total_score"`
	AverageScore float64 `json:"averageScore" yaml:"average_score"`
}

// ListStudents summarises every student in dataset order.
func ListStudents(ds *Dataset) []StudentSummary {
	out := make([]StudentSummary, 0, len(ds.Students))
	for _, s := range ds.Students {
		total, avg := totalAndAverage(s, studentSubjects(ds.Subjects, s))
		out = append(out, StudentSummary{ID: s.ID, Name: s.Name, Class: s.Class, TotalScore: total, AverageScore: avg})
	}
	return out
}
