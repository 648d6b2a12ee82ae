package scorer

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"resume-screener-go/internal/types"
)

// 四个维度的固定权重
const (
	weightSkills     = 0.4
	weightExperience = 0.3
	weightEducation  = 0.2
	weightSemantic   = 0.1
)

var wordTokenRe = regexp.MustCompile(`\b\w{4,}\b`)

// 语义重合度计算里剔除的高频词
var semanticStopWords = map[string]struct{}{
	"with": {}, "that": {}, "this": {}, "from": {}, "have": {},
	"will": {}, "your": {}, "about": {}, "other": {}, "which": {},
	"their": {}, "there": {}, "would": {}, "could": {}, "should": {},
	"experience": {}, "work": {}, "working": {}, "years": {}, "knowledge": {},
}

// 学历关键词按档位从高到低扫描，命中即定档
var educationTiers = []struct {
	keywords []string
	score    float64
}{
	{[]string{"phd", "doctorate", "doctoral"}, 100.0},
	{[]string{"master", "mba", "msc", "ma", "ms"}, 90.0},
	{[]string{"bachelor", "bsc", "ba", "bs", "btech", "be"}, 80.0},
	{[]string{"associate", "diploma", "certificate"}, 70.0},
}

// HeuristicScorer 纯规则打分器，不依赖任何外部服务，永不失败。
// 同时作为AI打分失败时的兜底
type HeuristicScorer struct {
	// now 可注入，便于测试里固定当前年份
	now func() time.Time
}

// NewHeuristicScorer 创建规则打分器
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{now: time.Now}
}

// Score 对一份简历和一个JD计算四维加权匹配分
func (h *HeuristicScorer) Score(resume *types.ResumeRecord, jd *types.JobDescription) *types.MatchScore {
	years := h.ComputeExperienceYears(resume.Experiences)

	breakdown := types.ScoreBreakdown{
		SkillsScore:     h.scoreSkills(resume.Skills, jd),
		ExperienceScore: h.scoreExperience(resume.Experiences, years, jd),
		EducationScore:  h.scoreEducation(resume.Education),
		SemanticScore:   h.scoreSemantic(resume, jd),
	}

	matched, missing := h.skillOverlap(resume.Skills, jd)

	return &types.MatchScore{
		TotalScore: breakdown.SkillsScore*weightSkills +
			breakdown.ExperienceScore*weightExperience +
			breakdown.EducationScore*weightEducation +
			breakdown.SemanticScore*weightSemantic,
		Breakdown:               breakdown,
		MatchedSkills:           matched,
		MissingSkills:           missing,
		ExperienceYearsComputed: years,
		Strategy:                types.StrategyHeuristic,
	}
}

func toLowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(strings.ToLower(item))
		if trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

func intersectCount(a, b map[string]struct{}) int {
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// scoreSkills JD无技能要求时给中性分50，简历无技能时0，
// 否则必备技能覆盖率与加分技能覆盖率按7:3合成
func (h *HeuristicScorer) scoreSkills(resumeSkills []string, jd *types.JobDescription) float64 {
	required := toLowerSet(jd.RequiredSkills)
	preferred := toLowerSet(jd.PreferredSkills)

	if len(required) == 0 && len(preferred) == 0 {
		return 50.0
	}

	resume := toLowerSet(resumeSkills)
	if len(resume) == 0 {
		return 0.0
	}

	reqRatio := 1.0
	if len(required) > 0 {
		reqRatio = float64(intersectCount(resume, required)) / float64(len(required))
	}
	prefRatio := 0.5
	if len(preferred) > 0 {
		prefRatio = float64(intersectCount(resume, preferred)) / float64(len(preferred))
	}

	return math.Min(100.0*(0.7*reqRatio+0.3*prefRatio), 100.0)
}

// scoreExperience 无经历或计算年限为0时硬性0分，
// JD无年限要求时70，达标后1.5倍带宽内满分、超出后线性衰减但不低于85，
// 未达标时按比例给分且不低于10
func (h *HeuristicScorer) scoreExperience(experiences []types.Experience, years float64, jd *types.JobDescription) float64 {
	if len(experiences) == 0 || years == 0 {
		return 0.0
	}

	required := 0
	if jd.ExperienceYears != nil {
		required = *jd.ExperienceYears
	}
	if required == 0 {
		return 70.0
	}

	req := float64(required)
	if years >= req {
		if years <= 1.5*req {
			return 100.0
		}
		excess := years - 1.5*req
		return math.Max(100.0-1.5*excess, 85.0)
	}
	return math.Max(70.0*years/req, 10.0)
}

// scoreEducation 把所有教育条目拼成一段文本做档位关键词扫描
func (h *HeuristicScorer) scoreEducation(education []types.Education) float64 {
	if len(education) == 0 {
		return 30.0
	}

	var parts []string
	for _, edu := range education {
		field := ""
		if edu.FieldOfStudy != nil {
			field = *edu.FieldOfStudy
		}
		parts = append(parts, edu.Degree+" "+edu.Institution+" "+field)
	}
	text := strings.ToLower(strings.Join(parts, " "))

	for _, tier := range educationTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(text, kw) {
				return tier.score
			}
		}
	}
	return 50.0
}

// scoreSemantic 简历全文与JD文本的词重合度，JD无有效词时中性分50
func (h *HeuristicScorer) scoreSemantic(resume *types.ResumeRecord, jd *types.JobDescription) float64 {
	jobTokens := semanticTokens(jd.Title + " " + jd.Description)
	if len(jobTokens) == 0 {
		return 50.0
	}

	resumeTokens := semanticTokens(resumeText(resume))
	overlap := intersectCount(resumeTokens, jobTokens)
	return math.Min(float64(overlap)/float64(len(jobTokens))*100.0, 100.0)
}

func resumeText(resume *types.ResumeRecord) string {
	var b strings.Builder
	b.WriteString(resume.Name)
	b.WriteString(" ")
	if resume.Summary != nil {
		b.WriteString(*resume.Summary)
		b.WriteString(" ")
	}
	b.WriteString(strings.Join(resume.Skills, " "))
	for _, exp := range resume.Experiences {
		b.WriteString(" ")
		b.WriteString(exp.Title)
		b.WriteString(" ")
		b.WriteString(exp.Company)
		if exp.Description != nil {
			b.WriteString(" ")
			b.WriteString(*exp.Description)
		}
	}
	return b.String()
}

func semanticTokens(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range wordTokenRe.FindAllString(strings.ToLower(text), -1) {
		if _, stop := semanticStopWords[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// skillOverlap 返回匹配和缺失的技能列表，均为小写且排序，
// 缺失技能只统计必备项
func (h *HeuristicScorer) skillOverlap(resumeSkills []string, jd *types.JobDescription) (matched, missing []string) {
	resume := toLowerSet(resumeSkills)
	required := toLowerSet(jd.RequiredSkills)
	preferred := toLowerSet(jd.PreferredSkills)

	matched = []string{}
	missing = []string{}

	for skill := range required {
		if _, ok := resume[skill]; ok {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	for skill := range preferred {
		if _, exists := required[skill]; exists {
			continue
		}
		if _, ok := resume[skill]; ok {
			matched = append(matched, skill)
		}
	}

	sort.Strings(matched)
	sort.Strings(missing)
	return matched, missing
}

// ComputeExperienceYears 粗粒度的工作年限合计: 每段经历按年份差累加，
// 起始年份缺失或无法解析的条目跳过，进行中的经历按当前年份截止。
// 只看年份不看月份，结果保留一位小数
func (h *HeuristicScorer) ComputeExperienceYears(experiences []types.Experience) float64 {
	currentYear := h.now().Year()
	total := 0.0

	for _, exp := range experiences {
		startYear, ok := parseYear(exp.StartDate)
		if !ok {
			continue
		}

		endYear := currentYear
		if exp.EndDate != nil {
			endLower := strings.ToLower(strings.TrimSpace(*exp.EndDate))
			if endLower != "present" && endLower != "current" && endLower != "" {
				if y, ok := parseYear(*exp.EndDate); ok {
					endYear = y
				} else {
					continue
				}
			}
		}

		total += math.Max(float64(endYear-startYear), 0)
	}

	return math.Round(total*10) / 10
}

// parseYear 取日期串'-'分隔的第一段作为年份
func parseYear(date string) (int, bool) {
	part := strings.SplitN(strings.TrimSpace(date), "-", 2)[0]
	if part == "" {
		return 0, false
	}
	year := 0
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, false
		}
		year = year*10 + int(r-'0')
	}
	return year, true
}
