package analysis

import "testing"

func TestCanonicalSubject(t *testing.T) {
	cases := map[string]string{
		"语文":          "语文",
		"Chinese":     "语文",
		"数学成绩":        "数学",
		"MATH":        "数学",
		"English 2":   "英语",
		"physics-lab": "物理",
		"Total":       "总分",
		"信息技术(满分50)":  "信息技术",
		"Art":         "Art",
		"":            "",
	}
	for in, want := range cases {
		if got := CanonicalSubject(in); got != want {
			t.Errorf("CanonicalSubject(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalSubject_Idempotent(t *testing.T) {
	for _, h := range []string{"语文", "Mathematics", "英语听力", "History of Art", "音乐", "PE", "生物（选考）"} {
		once := CanonicalSubject(h)
		if twice := CanonicalSubject(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", h, once, twice)
		}
	}
}
