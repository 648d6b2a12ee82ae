package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// PDF抽取的原始文本常见粘连: 小写紧跟大写、数字紧跟大写、小写紧跟数字。
// 只处理这三种边界，大写到数字、数字到小写保持原样。
var (
	lowerUpperRe = regexp.MustCompile(`([a-z])([A-Z])`)
	digitUpperRe = regexp.MustCompile(`(\d)([A-Z])`)
	lowerDigitRe = regexp.MustCompile(`([a-z])(\d)`)

	multiSpaceRe   = regexp.MustCompile(` +`)
	multiNewlineRe = regexp.MustCompile(`\n\n+`)
)

var bulletChars = []string{"•", "●", "○", "▪", "►"}

// CleanText 规范化抽取出的原始文本，保留大小写。
// 解析路径(LLM和规则回退)统一以此为输入。
func CleanText(raw string) string {
	text := lowerUpperRe.ReplaceAllString(raw, "$1 $2")
	text = digitUpperRe.ReplaceAllString(text, "$1 $2")
	text = lowerDigitRe.ReplaceAllString(text, "$1 $2")

	// 所有项目符号统一重写为规范的"\n• "
	for _, b := range bulletChars {
		text = strings.ReplaceAll(text, b, "\n• ")
	}

	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Normalize 在CleanText之上统一转小写，用于内容哈希和技能匹配
func Normalize(raw string) string {
	return strings.ToLower(CleanText(raw))
}

// ContentHash 对归一化文本取SHA-256十六进制摘要，作为全库唯一的去重键
func ContentHash(raw string) string {
	sum := sha256.Sum256([]byte(Normalize(raw)))
	return hex.EncodeToString(sum[:])
}
