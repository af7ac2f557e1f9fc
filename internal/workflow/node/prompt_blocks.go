package node

import (
	"encoding/json"
	"fmt"
	"strings"
)

// 常见字段名，SERP 提供方之间命名不完全一致
var (
	titleKeys       = []string{"title", "name"}
	urlKeys         = []string{"url", "link"}
	descriptionKeys = []string{"description", "snippet"}
	questionKeys    = []string{"question", "title", "query"}
	answerKeys      = []string{"answer", "snippet", "description"}
	queryKeys       = []string{"query", "title", "text"}
)

// BuildOrganicResultsBlock 渲染自然搜索结果，最多 max 条，max<=0 表示不限制
// 非对象元素整体作为标题输出
func BuildOrganicResultsBlock(records []any, max int) string {
	if len(records) == 0 {
		return "(no organic results provided)"
	}
	lines := make([]string, 0, len(records))
	for i, rec := range records {
		if max > 0 && i >= max {
			break
		}
		r, text := splitRecord(rec)
		if r == nil {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, orDash(text)))
			continue
		}
		pos := firstString(r, "position", "rank")
		if pos == "" {
			pos = fmt.Sprint(i + 1)
		}
		line := fmt.Sprintf("%s. %s", pos, orDash(firstString(r, titleKeys...)))
		if u := firstString(r, urlKeys...); u != "" {
			line += "\n   URL: " + u
		}
		if d := firstString(r, descriptionKeys...); d != "" {
			line += "\n   " + TruncateByRunes(d, 300)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// BuildPeopleAlsoAskBlock 渲染 "people also ask" 问答
func BuildPeopleAlsoAskBlock(records []any) string {
	if len(records) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		r, text := splitRecord(rec)
		if r == nil {
			if text != "" {
				lines = append(lines, "- "+text)
			}
			continue
		}
		q := firstString(r, questionKeys...)
		if q == "" {
			continue
		}
		line := "- " + q
		if a := firstString(r, answerKeys...); a != "" && a != q {
			line += "\n  " + TruncateByRunes(a, 240)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "(none)"
	}
	return strings.Join(lines, "\n")
}

// BuildRelatedQueriesBlock 渲染相关搜索
func BuildRelatedQueriesBlock(records []any) string {
	if len(records) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		r, text := splitRecord(rec)
		if r == nil {
			if text != "" {
				lines = append(lines, "- "+text)
			}
			continue
		}
		if q := firstString(r, queryKeys...); q != "" {
			lines = append(lines, "- "+q)
		}
	}
	if len(lines) == 0 {
		return "(none)"
	}
	return strings.Join(lines, "\n")
}

// BuildOptionalSection 缺省的报告渲染为明确的空段落，保持 prompt 结构稳定
func BuildOptionalSection(title string, body *string) string {
	text := Deref(body)
	if text == "" {
		return fmt.Sprintf("## %s\n(not provided)", title)
	}
	return fmt.Sprintf("## %s\n%s", title, text)
}

// BuildJSONBlock 以缩进 JSON 渲染不透明对象
func BuildJSONBlock(v map[string]any) string {
	if len(v) == 0 {
		return "(not provided)"
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "(not provided)"
	}
	return string(b)
}

// BuildKeywordList 逐行渲染关键词
func BuildKeywordList(keywords []string) string {
	if len(keywords) == 0 {
		return "(none)"
	}
	lines := make([]string, len(keywords))
	for i, k := range keywords {
		lines[i] = fmt.Sprintf("%d. %s", i+1, k)
	}
	return strings.Join(lines, "\n")
}

// splitRecord 对象元素返回 map，其余元素返回其文本形式
func splitRecord(v any) (map[string]any, string) {
	switch t := v.(type) {
	case map[string]any:
		return t, ""
	case nil:
		return nil, ""
	case string:
		return nil, strings.TrimSpace(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Sprint(t)
		}
		return nil, string(b)
	}
}

func firstString(r map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return fmt.Sprint(t)
		case json.Number:
			return t.String()
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
