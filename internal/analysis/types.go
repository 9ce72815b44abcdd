package analysis

import "time"

// RawRow maps a column header to the decoded cell value (string, number or nil).
type RawRow map[string]any

// Sheet is one decoded table: ordered headers plus one RawRow per record.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []RawRow
}

// TableType tags the inferred shape of a grade table.
type TableType string

const (
	TableMultiSubject  TableType = "multi-subject"
	TableSingleSubject TableType = "single-subject"
	TableUnknown       TableType = "unknown"
)

// FieldRoles is the semantic role assignment for every column of a sheet.
// Empty StudentID/StudentName/ClassName means no column was recognised.
type FieldRoles struct {
	StudentID   string   `json:"studentId,omitempty" yaml:"student_id,omitempty"`
	StudentName string   `json:"studentName,omitempty" yaml:"student_name,omitempty"`
	ClassName   string   `json:"className,omitempty" yaml:"class_name,omitempty"`
	Subjects    []string `json:"subjects" yaml:"subjects"`
	Rankings    []string `json:"rankings" yaml:"rankings"`
	Other       []string `json:"otherFields" yaml:"other_fields"`
}

// TableAnalysis is the classifier result.
type TableAnalysis struct {
	Fields     FieldRoles      `json:"identifiedFields" yaml:"identified_fields"`
	TableType  TableType       `json:"tableType" yaml:"table_type"`
	Confidence float64         `json:"confidence" yaml:"confidence"`
	Columns    []ColumnProfile `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// Student is one normalized record. A missing grade is an absent key, never zero.
type Student struct {
	ID               string             `json:"id" yaml:"id"`
	Name             string             `json:"name" yaml:"name"`
	Class            string             `json:"class" yaml:"class"`
	Grades           map[string]float64 `json:"grades" yaml:"grades"`
	DeclaredRankings map[string]int     `json:"declaredRankings,omitempty" yaml:"declared_rankings,omitempty"`
	Rankings         RankingSet         `json:"rankings" yaml:"rankings"`
	Total            float64            `json:"total" yaml:"total"`
	Rank             int                `json:"rank" yaml:"rank"`
}

// RankingSet maps a ranking label (subject + scope + population) to a 1-based rank.
type RankingSet map[string]int

// SubjectStatistics summarises the defined grades of one subject.
type SubjectStatistics struct {
	Subject  string  `json:"subject" yaml:"subject"`
	Average  float64 `json:"average" yaml:"average"`
	Max      float64 `json:"max" yaml:"max"`
	Min      float64 `json:"min" yaml:"min"`
	PassRate float64 `json:"passRate" yaml:"pass_rate"`
	Count    int     `json:"count" yaml:"count"`
}

// ClassStatistics holds the per-subject statistics restricted to one class.
type ClassStatistics struct {
	StudentCount int                          `json:"studentCount" yaml:"student_count"`
	Subjects     map[string]SubjectStatistics `json:"subjects" yaml:"subjects"`
}

// Statistics is the aggregated view of a dataset.
type Statistics struct {
	BySubject map[string]SubjectStatistics `json:"bySubject" yaml:"by_subject"`
	ByClass   map[string]ClassStatistics   `json:"byClass" yaml:"by_class"`
}

// BoxPlotStatistics carries quartiles and outliers for one subject.
// Min and Max are whisker bounds, not absolute extremes.
type BoxPlotStatistics struct {
	Subject  string    `json:"subject" yaml:"subject"`
	Min      float64   `json:"min" yaml:"min"`
	Q1       float64   `json:"q1" yaml:"q1"`
	Median   float64   `json:"median" yaml:"median"`
	Q3       float64   `json:"q3" yaml:"q3"`
	Max      float64   `json:"max" yaml:"max"`
	Outliers []float64 `json:"outliers" yaml:"outliers"`
	Mean     float64   `json:"mean" yaml:"mean"`
	Count    int       `json:"count" yaml:"count"`
	Std      float64   `json:"std" yaml:"std"`
}

// ScoreBand is one bucket of the total-score distribution.
type ScoreBand struct {
	Name  string  `json:"name" yaml:"name"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Count int     `json:"count" yaml:"count"`
}

// ChartRecommendation suggests a chart suited to the table shape.
type ChartRecommendation struct {
	Type        string `json:"type" yaml:"type"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Priority    string `json:"priority" yaml:"priority"`
}

// Dataset is the complete analysis of one upload. It is never mutated after it
// has been published; a new upload replaces it wholesale.
type Dataset struct {
	ID                   string                `json:"id" yaml:"id"`
	Source               string                `json:"source,omitempty" yaml:"source,omitempty"`
	CreatedAt            time.Time             `json:"createdAt" yaml:"created_at"`
	Students             []*Student            `json:"students" yaml:"students"`
	Subjects             []string              `json:"subjects" yaml:"subjects"`
	Classes              []string              `json:"classes" yaml:"classes"`
	RankingColumns       []string              `json:"rankings" yaml:"rankings"`
	Statistics           Statistics            `json:"statistics" yaml:"statistics"`
	TableAnalysis        TableAnalysis         `json:"tableAnalysis" yaml:"table_analysis"`
	ChartRecommendations []ChartRecommendation `json:"chartRecommendations" yaml:"chart_recommendations"`
	Warnings             []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	passMark  float64
	bandWidth float64
	ranks     RankPolicy
}

// PassMark returns the pass threshold the dataset was built with.
func (d *Dataset) PassMark() float64 {
	if d == nil || d.passMark <= 0 {
		return DefaultPassMark
	}
	return d.passMark
}

// BandWidth returns the width of the total-score distribution bands.
func (d *Dataset) BandWidth() float64 {
	if d == nil || d.bandWidth <= 0 {
		return DefaultBandWidth
	}
	return d.bandWidth
}

func (d *Dataset) rankPolicy() RankPolicy {
	if d == nil || d.ranks == nil {
		return SequentialRanks
	}
	return d.ranks
}

// HasComputedRankings reports whether any student had rankings synthesised,
// i.e. came without declared ones.
func (d *Dataset) HasComputedRankings() bool {
	for _, s := range d.Students {
		if len(s.DeclaredRankings) == 0 {
			return true
		}
	}
	return false
}

// HasDeclaredRankings reports whether any student came with source rankings.
func (d *Dataset) HasDeclaredRankings() bool {
	for _, s := range d.Students {
		if len(s.DeclaredRankings) > 0 {
			return true
		}
	}
	return false
}
