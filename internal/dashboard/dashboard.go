// Package dashboard renders analysis views as standalone go-echarts HTML pages.
package dashboard

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
)

const (
	chartWidth  = "100%"
	chartHeight = "420px"
)

func initOpts() charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight})
}

func tooltip(trigger string) charts.GlobalOpts {
	return charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: trigger})
}

func barData(values []float64) []opts.BarData {
	out := make([]opts.BarData, 0, len(values))
	for _, v := range values {
		out = append(out, opts.BarData{Value: round2(v)})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func newBar(title, subtitle string, labels []string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		tooltip("axis"),
	)
	bar.SetXAxis(labels)
	return bar
}

func boxPlot(title string, stats []analysis.BoxPlotStatistics) *charts.BoxPlot {
	labels := make([]string, 0, len(stats))
	data := make([]opts.BoxPlotData, 0, len(stats))
	for _, bp := range stats {
		labels = append(labels, bp.Subject)
		data = append(data, opts.BoxPlotData{
			Name:  bp.Subject,
			Value: []float64{bp.Min, bp.Q1, bp.Median, bp.Q3, bp.Max},
		})
	}
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		initOpts(),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "whiskers at 1.5 IQR"}),
		tooltip("item"),
	)
	box.SetXAxis(labels).AddSeries("scores", data)
	return box
}

func distributionBar(title string, bands []analysis.ScoreBand) *charts.Bar {
	labels := make([]string, 0, len(bands))
	counts := make([]opts.BarData, 0, len(bands))
	// bands arrive highest first; plot low to high
	for i := len(bands) - 1; i >= 0; i-- {
		labels = append(labels, bands[i].Name)
		counts = append(counts, opts.BarData{Value: bands[i].Count})
	}
	bar := newBar(title, "students per total-score band", labels)
	bar.AddSeries("students", counts,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func render(w io.Writer, title string, cs ...components.Charter) error {
	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(cs...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render %s: %w", title, err)
	}
	return nil
}

// RenderOverall writes the grade-level dashboard.
func RenderOverall(w io.Writer, v analysis.OverallView) error {
	subtitle := fmt.Sprintf("students=%d subjects=%d classes=%d",
		v.Summary.TotalStudents, v.Summary.TotalSubjects, v.Summary.TotalClasses)

	avg := newBar("Subject averages", subtitle, v.Charts.SubjectAverage.Labels)
	avg.AddSeries("average", barData(v.Charts.SubjectAverage.Data))

	pass := newBar("Pass rate by subject", "percent", v.Charts.PassRateBySubject.Labels)
	pass.AddSeries("pass rate", barData(v.Charts.PassRateBySubject.Data))

	cmp := newBar("Class comparison", "average per subject", v.Charts.ClassComparison.Labels)
	for _, ds := range v.Charts.ClassComparison.Datasets {
		cmp.AddSeries(ds.Label, barData(ds.Data))
	}

	cs := []components.Charter{avg, pass, cmp}
	if len(v.BoxPlots) > 0 {
		cs = append(cs, boxPlot("Score spread", v.BoxPlots))
	}
	if len(v.Distribution) > 0 {
		cs = append(cs, distributionBar("Total score distribution", v.Distribution))
	}
	title := "Grade overview"
	if v.Source != "" {
		title += " - " + v.Source
	}
	return render(w, title, cs...)
}

// RenderClass writes the dashboard of one class.
func RenderClass(w io.Writer, v *analysis.ClassView) error {
	info := v.ClassInfo
	subtitle := fmt.Sprintf("n=%d avg=%.2f pass=%.1f%% position=%s",
		info.StudentCount, info.AverageScore, info.PassRate, info.Ranking)

	subj := newBar("Subject averages", subtitle, v.Charts.SubjectAverage.Labels)
	subj.AddSeries("average", barData(v.Charts.SubjectAverage.Averages))
	subj.AddSeries("pass rate", barData(v.Charts.SubjectAverage.PassRates))

	top := newBar(fmt.Sprintf("Top %d students", len(v.Charts.Ranking.Labels)), "total score", v.Charts.Ranking.Labels)
	top.AddSeries("total", barData(v.Charts.Ranking.Data),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	cs := []components.Charter{subj, top}
	if len(v.Distribution) > 0 {
		cs = append(cs, distributionBar("Total score distribution", v.Distribution))
	}
	if len(v.BoxPlots) > 0 {
		cs = append(cs, boxPlot("Score spread", v.BoxPlots))
	}
	return render(w, "Class "+info.Name, cs...)
}

// RenderStudent writes the dashboard of one student.
func RenderStudent(w io.Writer, v *analysis.PersonalView) error {
	s := v.Student
	subtitle := fmt.Sprintf("%s class rank %s, grade rank %s", s.Class, s.ClassRank, s.GradeRank)

	radar := charts.NewRadar()
	indicators := make([]*opts.Indicator, 0, len(v.Charts.Radar.Labels))
	for _, l := range v.Charts.Radar.Labels {
		indicators = append(indicators, &opts.Indicator{Name: l, Max: 100})
	}
	radar.SetGlobalOptions(
		initOpts(),
		charts.WithTitleOpts(opts.Title{Title: "Subject profile", Subtitle: subtitle}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithRadarComponentOpts(opts.RadarComponent{Indicator: indicators}),
		tooltip("item"),
	)
	radar.AddSeries(s.Name, []opts.RadarData{{Name: s.Name, Value: v.Charts.Radar.Student}})
	radar.AddSeries(analysis.GradeAverageLabel, []opts.RadarData{{Name: analysis.GradeAverageLabel, Value: v.Charts.Radar.GradeAverage}})

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts(),
		charts.WithTitleOpts(opts.Title{Title: "Pass / fail", Subtitle: fmt.Sprintf("%d subjects", v.Charts.Achievement.Passed+v.Charts.Achievement.Failed)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		tooltip("item"),
	)
	pie.AddSeries("subjects", []opts.PieData{
		{Name: "pass", Value: v.Charts.Achievement.Passed},
		{Name: "fail", Value: v.Charts.Achievement.Failed},
	})

	scores := newBar("Scores", "by subject", v.Charts.Scores.Labels)
	scores.AddSeries(s.Name, barData(v.Charts.Scores.Data))

	return render(w, fmt.Sprintf("Student %s (%s)", s.Name, s.ID), radar, pie, scores)
}
