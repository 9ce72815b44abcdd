package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// cellString renders any decoded cell value as trimmed text.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// parseScore parses a cell as a finite float. Empty or malformed cells report false.
func parseScore(v any) (float64, bool) {
	s := cellString(v)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseRank parses a cell as an integer rank, truncating a fractional part.
func parseRank(v any) (int, bool) {
	f, ok := parseScore(v)
	if !ok {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

// headersOf returns the sheet headers, falling back to the first row's keys.
func headersOf(sheet Sheet) []string {
	if len(sheet.Headers) > 0 {
		return sheet.Headers
	}
	if len(sheet.Rows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(sheet.Rows[0]))
	for k := range sheet.Rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
