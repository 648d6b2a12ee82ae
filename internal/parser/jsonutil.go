package parser

import (
	"regexp"
	"strings"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	fencedAnyRe  = regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```")
)

// ExtractJSON 从LLM回复中剥离出JSON对象文本。
// 先尝试代码围栏，围栏缺失或不完整时退回到花括号配平扫描。
// 找不到任何候选时返回裁剪后的原文，让上层的json.Unmarshal报告具体错误。
func ExtractJSON(response string) string {
	if m := fencedJSONRe.FindStringSubmatch(response); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if m := fencedAnyRe.FindStringSubmatch(response); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	if obj := scanBalancedObject(response); obj != "" {
		return obj
	}
	return strings.TrimSpace(response)
}

// scanBalancedObject 返回第一个配平的顶层JSON对象，忽略字符串字面量内的花括号
func scanBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
