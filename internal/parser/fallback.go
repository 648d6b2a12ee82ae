package parser

import (
	"regexp"
	"strings"

	"resume-screener-go/internal/types"

	"resume-screener-go/internal/logger"
)

const (
	// UnknownCandidate 回退路径无法识别姓名时的占位名
	UnknownCandidate = "Unknown Candidate"
	// FallbackSummary 回退路径的默认摘要，提示结果需要人工复核
	FallbackSummary = "Parsed with enhanced fallback method - please review and update as needed"
	// UnknownStartDate 回退路径无法识别起始日期时的哨兵值
	UnknownStartDate = "Unknown"
	// FallbackBulletImpact 回退路径统一赋予的低置信度影响分
	FallbackBulletImpact = 0.3
)

var (
	summaryKeywords    = []string{"summary", "objective", "profile", "about"}
	experienceKeywords = []string{"experience", "employment", "work history", "professional experience"}

	expSeparatorRe = regexp.MustCompile(`\s+[-–|]\s+`)
)

// FallbackParse 纯规则的回退解析，LLM两次尝试都失败后的最后一道防线。
// 不依赖任何外部服务，永不失败，产出的记录标记为低置信度来源。
func FallbackParse(text string) *types.ResumeRecord {
	lines := nonEmptyLines(text)
	textLower := strings.ToLower(text)

	skills := ExtractSkills(textLower)
	experiences := extractExperiences(lines)
	summary := extractSummary(lines)

	rec := &types.ResumeRecord{
		Name:           extractName(lines),
		Contact:        ExtractContact(text),
		Summary:        &summary,
		Skills:         skills,
		Experiences:    experiences,
		Education:      []types.Education{},
		Projects:       []types.Project{},
		Certifications: []types.Certification{},
		Achievements:   []string{},
		Languages:      []string{},
		Awards:         []string{},
		Source:         types.SourceFallback,
	}

	logger.Debug().
		Int("skills", len(skills)).
		Int("experiences", len(experiences)).
		Msg("规则回退解析完成")
	return rec
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// extractName 在前5行里找第一条像人名的行: 不含@和http，不超过4个词，不含数字
func extractName(lines []string) string {
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		if strings.Contains(line, "@") || strings.Contains(strings.ToLower(line), "http") {
			continue
		}
		if len(strings.Fields(line)) > 4 {
			continue
		}
		if strings.ContainsAny(line, "0123456789") {
			continue
		}
		return line
	}
	return UnknownCandidate
}

// extractSummary 找到摘要类标题后收集其后至多5行，遇到全大写行停止
func extractSummary(lines []string) string {
	for i, line := range lines {
		lineLower := strings.ToLower(line)
		matched := false
		for _, kw := range summaryKeywords {
			if strings.Contains(lineLower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		var collected []string
		for j := i + 1; j < len(lines) && j < i+6; j++ {
			if isAllUpper(lines[j]) {
				break
			}
			collected = append(collected, lines[j])
		}
		if len(collected) > 0 {
			return strings.Join(collected, " ")
		}
		break
	}
	return FallbackSummary
}

// isAllUpper 与Python的str.isupper语义一致:
// 至少含一个有大小写区分的字符且全部为大写
func isAllUpper(s string) bool {
	hasCased := false
	for _, r := range s {
		lower := strings.ToLower(string(r))
		upper := strings.ToUpper(string(r))
		if lower == upper {
			continue
		}
		hasCased = true
		if string(r) != upper {
			return false
		}
	}
	return hasCased
}

// extractExperiences 在经历段标题和教育段标题之间扫描，
// 把含分隔符的行按 "职位 - 公司 - 地点" 切分
func extractExperiences(lines []string) []types.Experience {
	experiences := []types.Experience{}
	inSection := false

	for _, line := range lines {
		lineLower := strings.ToLower(line)
		wordCount := len(strings.Fields(line))

		entering := false
		for _, kw := range experienceKeywords {
			if strings.Contains(lineLower, kw) && wordCount < 5 {
				entering = true
				break
			}
		}
		if entering {
			inSection = true
			continue
		}

		if strings.Contains(lineLower, "education") && wordCount < 3 {
			inSection = false
		}
		if !inSection {
			continue
		}

		if !strings.Contains(line, "|") && !strings.Contains(line, " - ") && !strings.Contains(line, " – ") {
			continue
		}
		parts := expSeparatorRe.Split(line, -1)
		if len(parts) < 2 {
			continue
		}

		exp := types.Experience{
			Title:             parts[0],
			Company:           parts[1],
			StartDate:         UnknownStartDate,
			Responsibilities:  []string{},
			BulletImpactScore: FallbackBulletImpact,
		}
		if exp.Title == "" {
			exp.Title = "Position"
		}
		if len(parts) > 2 && parts[2] != "" {
			loc := parts[2]
			exp.Location = &loc
		}
		experiences = append(experiences, exp)
	}

	return experiences
}
