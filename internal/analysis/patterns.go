package analysis

import (
	"strings"
	"unicode"
)

// FieldRules holds the declarative pattern tables used by the classifier.
// All tokens are lower case.
type FieldRules struct {
	StudentID   []string
	StudentName []string
	ClassName   []string
	Ranking     []string
	// Exclude rejects numeric columns that are identifiers or demographics.
	Exclude []string
	// Aggregate rejects pre-computed totals and averages.
	Aggregate []string
	// SubjectHint accepts a numeric column outright.
	SubjectHint []string
}

// DefaultFieldRules is the rule set applied by ClassifyFields.
var DefaultFieldRules = FieldRules{
	StudentID:   []string{"学号", "id", "student_id", "studentid", "编号", "考号", "准考证", "exam_id", "学生编号"},
	StudentName: []string{"姓名", "name", "student_name", "studentname", "学生姓名", "学生"},
	ClassName:   []string{"班级", "class", "所在班级"},
	Ranking:     []string{"排名", "rank", "ranking", "名次", "位次"},
	Exclude: []string{
		"学号", "id", "student_id", "studentid", "编号", "number", "no",
		"姓名", "name", "student_name", "studentname", "学生姓名", "学生",
		"班级", "class", "grade", "年级", "所在班级", "classname",
		"序号", "index", "排名", "rank", "ranking", "名次",
		"学校", "school", "院系", "department", "专业", "major",
		"性别", "gender", "sex", "年龄", "age", "出生", "birth",
		"电话", "phone", "tel", "手机", "mobile", "联系", "contact",
		"地址", "address", "邮箱", "email", "mail",
		"考号", "准考证", "ticket", "exam_id", "考试编号",
	},
	Aggregate: []string{"总分", "total", "平均", "average", "avg", "合计", "sum", "总计"},
	SubjectHint: []string{
		"语文", "chinese", "数学", "math", "mathematics", "英语", "english",
		"物理", "physics", "化学", "chemistry", "生物", "biology",
		"历史", "history", "地理", "geography", "政治", "politics",
		"科学", "science", "文科", "liberal", "理科",
	},
}

// matchAny reports whether the lower-cased header contains any of the tokens.
// Short ASCII tokens only match whole words so "language" does not hit "age".
func matchAny(lower string, tokens []string) bool {
	for _, tok := range tokens {
		if matchToken(lower, tok) {
			return true
		}
	}
	return false
}

func matchToken(lower, tok string) bool {
	if !isShortASCII(tok) {
		return strings.Contains(lower, tok)
	}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	}) {
		if w == tok {
			return true
		}
	}
	return false
}

func isShortASCII(tok string) bool {
	if len(tok) > 3 {
		return false
	}
	for _, r := range tok {
		if r >= unicode.MaxASCII {
			return false
		}
	}
	return true
}
