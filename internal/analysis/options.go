package analysis

const (
	// DefaultPassMark is the inclusive pass threshold for a single score.
	DefaultPassMark = 60.0
	// DefaultBandWidth is the width of a total-score distribution band.
	DefaultBandWidth = 20.0
	// GradeAverageLabel names the synthetic comparison row used when only one class exists.
	GradeAverageLabel = "年级平均"
)

// Options controls how a sheet is turned into a Dataset.
type Options struct {
	// PassMark is the inclusive pass threshold; 0 means DefaultPassMark.
	PassMark float64
	// BandWidth for the total-score distribution; 0 means DefaultBandWidth.
	BandWidth float64
	// Ranks assigns ranks to an ordered population; nil means SequentialRanks.
	Ranks RankPolicy
	// DefaultClass is used when no class column exists or the cell is empty.
	DefaultClass string
	// NameFallback is a fmt pattern fed the 1-based row number when no name is found.
	NameFallback string
}

// DefaultOptions returns reasonable defaults for grade analysis.
func DefaultOptions() Options {
	return Options{
		PassMark:     DefaultPassMark,
		BandWidth:    DefaultBandWidth,
		Ranks:        SequentialRanks,
		DefaultClass: "高一年级",
		NameFallback: "学生%d",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PassMark <= 0 {
		o.PassMark = d.PassMark
	}
	if o.BandWidth <= 0 {
		o.BandWidth = d.BandWidth
	}
	if o.Ranks == nil {
		o.Ranks = d.Ranks
	}
	if o.DefaultClass == "" {
		o.DefaultClass = d.DefaultClass
	}
	if o.NameFallback == "" {
		o.NameFallback = d.NameFallback
	}
	return o
}
