package node

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个 JSON 对象/数组。
// 模型可能在 JSON 前后夹杂说明文字或 markdown 代码块。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}

	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")
	start := -1
	end := -1
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		start = objStart
		end = strings.LastIndex(raw, "}")
	case arrStart >= 0:
		start = arrStart
		end = strings.LastIndex(raw, "]")
	}
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

// DecodeJSONMap 将模型输出解析为不透明的 JSON 对象
func DecodeJSONMap(s string) (map[string]any, error) {
	raw := ExtractJSONObject(s)
	if raw == "" {
		return nil, fmt.Errorf("empty json output")
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("malformed json output: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("json output is not an object")
	}
	return out, nil
}
