package analysis

import (
	"fmt"
	"strings"
)

// RecommendCharts suggests charts suited to the shape of the table.
func RecommendCharts(table TableType, subjects []string) []ChartRecommendation {
	var recs []ChartRecommendation
	switch table {
	case TableMultiSubject:
		recs = append(recs,
			ChartRecommendation{Type: "bar", Title: "各科目平均分对比", Description: "显示所有科目的平均成绩", Priority: "high"},
			ChartRecommendation{Type: "radar", Title: "科目成绩雷达图", Description: "多维度展示各科目成绩分布", Priority: "high"},
			ChartRecommendation{Type: "heatmap", Title: "成绩热力图", Description: "可视化各班级各科目的成绩表现", Priority: "medium"},
		)
		if len(subjects) >= 2 {
			recs = append(recs, ChartRecommendation{Type: "scatter", Title: "科目相关性分析", Description: "分析不同科目之间的相关关系", Priority: "medium"})
		}
	case TableSingleSubject:
		recs = append(recs,
			ChartRecommendation{Type: "histogram", Title: "成绩分布直方图", Description: "显示成绩的分布情况", Priority: "high"},
			ChartRecommendation{Type: "box", Title: "成绩箱线图", Description: "显示成绩的统计特征（中位数、四分位数等）", Priority: "medium"},
		)
	}
	return append(recs, ChartRecommendation{Type: "pie", Title: "及格率统计", Description: "显示及格与不及格学生的比例", Priority: "medium"})
}

// Joint analysis kinds.
const (
	JointCorrelation = "correlation"
	JointComparison  = "comparison"
)

// JointRequest selects a cross-subject or cross-class analysis.
type JointRequest struct {
	Type     string   `json:"analysisType" yaml:"analysis_type" validate:"required,oneof=correlation comparison"`
	Subjects []string `json:"subjects" yaml:"subjects"`
	Classes  []string `json:"classes" yaml:"classes"`
}

// JointView holds pairwise correlations keyed "a-b" or per-class subject
// statistics, depending on the request type.
type JointView struct {
	Type         string                                  `json:"type" yaml:"type"`
	Correlations map[string]float64                      `json:"correlations" yaml:"correlations"`
	Comparisons  map[string]map[string]SubjectStatistics `json:"comparisons" yaml:"comparisons"`
}

// BuildJointAnalysis computes the requested joint analysis. Correlation needs
// at least two subjects and comparison at least two classes; otherwise the
// result is empty.
func BuildJointAnalysis(ds *Dataset, req JointRequest) JointView {
	v := JointView{
		Type:         req.Type,
		Correlations: map[string]float64{},
		Comparisons:  map[string]map[string]SubjectStatistics{},
	}
	switch req.Type {
	case JointCorrelation:
		if len(req.Subjects) < 2 {
			break
		}
		for i := 0; i < len(req.Subjects); i++ {
			for j := i + 1; j < len(req.Subjects); j++ {
				a, b := req.Subjects[i], req.Subjects[j]
				v.Correlations[a+"-"+b] = Correlation(ds.Students, a, b)
			}
		}
	case JointComparison:
		if len(req.Classes) < 2 {
			break
		}
		for _, class := range req.Classes {
			row := map[string]SubjectStatistics{}
			cs := ds.Statistics.ByClass[class]
			for _, subj := range req.Subjects {
				if st, ok := cs.Subjects[subj]; ok {
					row[subj] = st
				}
			}
			v.Comparisons[class] = row
		}
	}
	return v
}

// Suggestion is one rule-based recommendation.
type Suggestion struct {
	Type    string `json:"type" yaml:"type"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// SuggestionsView bundles suggestions with local insights and the table analysis.
type SuggestionsView struct {
	Suggestions          []Suggestion          `json:"suggestions" yaml:"suggestions"`
	Insights             []string              `json:"insights" yaml:"insights"`
	TableAnalysis        TableAnalysis         `json:"tableAnalysis" yaml:"table_analysis"`
	ChartRecommendations []ChartRecommendation `json:"chartRecommendations" yaml:"chart_recommendations"`
}

const (
	// lowAverage flags subjects needing teaching attention.
	lowAverage = 70.0
	// lowPassRate flags subjects whose pass rate (percent) is too low.
	lowPassRate = 60.0
)

// BuildSuggestions derives rule-based suggestions and insights from the statistics.
func BuildSuggestions(ds *Dataset) SuggestionsView {
	v := SuggestionsView{
		Suggestions:          []Suggestion{},
		Insights:             []string{},
		TableAnalysis:        ds.TableAnalysis,
		ChartRecommendations: ds.ChartRecommendations,
	}
	if ds.TableAnalysis.TableType == TableMultiSubject {
		v.Suggestions = append(v.Suggestions, Suggestion{
			Type: "analysis", Title: "多科目分析建议", Content: "建议进行科目间相关性分析，找出学科之间的关联性",
		})
	}
	if len(ds.ChartRecommendations) > 0 {
		titles := make([]string, 0, len(ds.ChartRecommendations))
		for _, r := range ds.ChartRecommendations {
			titles = append(titles, r.Title)
		}
		v.Suggestions = append(v.Suggestions, Suggestion{
			Type: "visualization", Title: "可视化建议", Content: "推荐使用以下图表类型：" + strings.Join(titles, "、"),
		})
	}

	stats := OrderedSubjectStats(ds.Students, ds.Subjects, ds.PassMark())
	var weak, lowPass []string
	for _, st := range stats {
		if st.Average < lowAverage {
			weak = append(weak, st.Subject)
		}
		if st.PassRate < lowPassRate {
			lowPass = append(lowPass, fmt.Sprintf("%s(%.1f%%)", st.Subject, st.PassRate))
		}
	}
	if len(weak) > 0 {
		v.Suggestions = append(v.Suggestions, Suggestion{
			Type: "teaching", Title: "教学改进建议", Content: "以下科目需要重点关注：" + strings.Join(weak, "、"),
		})
	}

	if len(stats) > 0 {
		best, worst := stats[0], stats[0]
		for _, st := range stats[1:] {
			if st.Average > best.Average {
				best = st
			}
			if st.Average < worst.Average {
				worst = st
			}
		}
		v.Insights = append(v.Insights,
			fmt.Sprintf("表现最好的科目是%s，平均分%.2f分", best.Subject, best.Average),
			fmt.Sprintf("需要重点关注的科目是%s，平均分%.2f分", worst.Subject, worst.Average),
		)
	}
	if len(lowPass) > 0 {
		v.Insights = append(v.Insights, "以下科目及格率偏低："+strings.Join(lowPass, ", "))
	}
	if len(ds.Classes) > 1 {
		v.Insights = append(v.Insights, "建议进行班级间对比分析，找出教学差异")
	}
	return v
}
