package analysis

import (
	"regexp"
	"strings"
)

// subjectAlias maps a canonical subject label to the tokens that identify it.
type subjectAlias struct {
	Name    string
	Aliases []string
}

// subjectTable is matched in order; the first entry with a matching alias wins.
var subjectTable = []subjectAlias{
	{"语文", []string{"语文", "chinese"}},
	{"数学", []string{"数学", "math", "mathematics"}},
	{"英语", []string{"英语", "english"}},
	{"物理", []string{"物理", "physics"}},
	{"化学", []string{"化学", "chemistry"}},
	{"生物", []string{"生物", "biology"}},
	{"历史", []string{"历史", "history"}},
	{"地理", []string{"地理", "geography"}},
	{"政治", []string{"政治", "politics"}},
	{"总分", []string{"总分", "total"}},
}

var cjkRun = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]+`)

// CanonicalSubject maps a raw subject header to its canonical label. It never
// fails: unknown headers keep their first CJK run, or the header verbatim.
func CanonicalSubject(header string) string {
	lower := strings.ToLower(header)
	for _, s := range subjectTable {
		for _, a := range s.Aliases {
			if strings.Contains(lower, a) {
				return s.Name
			}
		}
	}
	if m := cjkRun.FindString(header); m != "" {
		return m
	}
	return header
}
