package parser

import (
	"sort"
	"strings"
	"unicode"
)

// NoSkillsDetected 词表匹配全部落空时的哨兵技能项
const NoSkillsDetected = "Manual review required - no skills auto-detected"

// 回退路径的技能词表，全部小写，按子串匹配
var skillDatabase = []string{
	// 编程语言
	"python", "java", "javascript", "typescript", "c++", "c#", "ruby", "php",
	"go", "golang", "rust", "swift", "kotlin", "scala", "r", "matlab",
	// Web框架
	"react", "angular", "vue", "svelte", "next.js", "nuxt", "django", "flask",
	"fastapi", "express", "node.js", "spring boot", "asp.net", "laravel",
	// 数据库
	"mysql", "postgresql", "mongodb", "redis", "elasticsearch", "cassandra",
	"dynamodb", "oracle", "sql server", "sqlite", "neo4j",
	// 云与DevOps
	"aws", "azure", "google cloud", "gcp", "docker", "kubernetes", "jenkins",
	"terraform", "ansible", "ci/cd", "gitlab", "github actions",
	// 数据与机器学习
	"machine learning", "deep learning", "tensorflow", "pytorch", "scikit-learn",
	"pandas", "numpy", "data science", "data analysis", "spark", "hadoop",
	// 其他工具
	"git", "jira", "confluence", "slack", "postman", "graphql", "rest api",
	"microservices", "agile", "scrum", "linux", "bash",
	// 市场营销
	"seo", "sem", "google analytics", "content marketing", "social media",
	"email marketing", "hubspot", "mailchimp", "a/b testing",
}

// ExtractSkills 在小写文本上做词表子串匹配，返回去重排序后的标题格式技能列表。
// 无任何命中时返回单元素哨兵列表，提示人工复核。
func ExtractSkills(textLower string) []string {
	seen := make(map[string]struct{})
	for _, skill := range skillDatabase {
		if strings.Contains(textLower, skill) {
			seen[titleCase(skill)] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return []string{NoSkillsDetected}
	}

	skills := make([]string, 0, len(seen))
	for s := range seen {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills
}

// titleCase 将每个字母段的首字母大写，其余小写，
// 段边界是任何非字母字符，如 "node.js" 得到 "Node.Js"
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevAlpha := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevAlpha {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevAlpha = true
		} else {
			b.WriteRune(r)
			prevAlpha = false
		}
	}
	return b.String()
}
