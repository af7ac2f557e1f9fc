package node

import (
	"strings"
	"unicode/utf8"
)

func TruncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// CapKeywords 去除空白关键词并保留前 max 个，返回被丢弃的数量
func CapKeywords(keywords []string, max int) ([]string, int) {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out = append(out, k)
	}
	if max <= 0 || len(out) <= max {
		return out, 0
	}
	return out[:max], len(out) - max
}

// Deref 返回指针指向的字符串，nil 视为空
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
