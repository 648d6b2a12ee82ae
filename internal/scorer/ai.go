package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-screener-go/internal/logger"
	"resume-screener-go/internal/parser"
	"resume-screener-go/internal/types"
)

const scoringPromptTemplate = `You are an expert HR professional analyzing resume-job fit. Analyze this resume against the job description and provide accurate matching scores.

**RESUME:**
` + "```json\n%s\n```" + `

**JOB DESCRIPTION:**
` + "```json\n%s\n```" + `

**INSTRUCTIONS:**
Analyze the resume against the job description and provide scores for:

1. **Skills Match (0-100)**:
   - How well do the candidate's skills align with required and preferred skills?
   - Consider both technical and soft skills
   - Give 0 if no relevant skills match

2. **Experience Match (0-100)**:
   - CRITICAL: If the resume has NO work experience listed, score MUST be 0
   - If experience exists, evaluate:
     * Years of experience vs requirement
     * Relevance of past roles to the job
     * Progression and growth
   - Don't give high scores if experience is missing or irrelevant

3. **Education Match (0-100)**:
   - How well does education align with job requirements?
   - Consider degree level, field of study, institution
   - Give reasonable score even if education is not explicitly required

4. **Semantic Match (0-100)**:
   - Overall contextual fit based on job description keywords
   - Industry alignment, domain knowledge indicators
   - Cultural and role fit signals

**RESPONSE FORMAT (JSON only, no other text):**
` + "```json" + `
{
  "skills_score": <number 0-100>,
  "experience_score": <number 0-100>,
  "education_score": <number 0-100>,
  "semantic_score": <number 0-100>,
  "reasoning": {
    "skills": "<brief explanation>",
    "experience": "<brief explanation - mention if NO experience found>",
    "education": "<brief explanation>",
    "semantic": "<brief explanation>"
  },
  "strengths": ["<strength 1>", "<strength 2>", ...],
  "gaps": ["<gap 1>", "<gap 2>", ...],
  "matched_skills": ["<skill 1>", "<skill 2>", ...],
  "missing_skills": ["<skill 1>", "<skill 2>", ...]
}
` + "```" + `

**IMPORTANT RULES:**
- Be realistic and accurate
- Experience score MUST be 0 if no work experience is listed
- Don't be overly generous - match scores should reflect actual fit
- Provide actionable reasoning
- Focus on job-relevance, not just presence of information
`

// aiScoringResult LLM打分响应的结构
type aiScoringResult struct {
	SkillsScore     float64           `json:"skills_score"`
	ExperienceScore float64           `json:"experience_score"`
	EducationScore  float64           `json:"education_score"`
	SemanticScore   float64           `json:"semantic_score"`
	Reasoning       map[string]string `json:"reasoning"`
	Strengths       []string          `json:"strengths"`
	Gaps            []string          `json:"gaps"`
	MatchedSkills   []string          `json:"matched_skills"`
	MissingSkills   []string          `json:"missing_skills"`
}

// 提交给LLM的简历摘要视图
type scoringResumeView struct {
	Name           string                `json:"name"`
	Email          *string               `json:"email"`
	Summary        string                `json:"summary"`
	Skills         []string              `json:"skills"`
	Experiences    []scoringExperience   `json:"experiences"`
	Education      []scoringEducation    `json:"education"`
	Certifications []types.Certification `json:"certifications"`
}

type scoringExperience struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Duration    string  `json:"duration"`
	Description *string `json:"description"`
}

type scoringEducation struct {
	Degree      string  `json:"degree"`
	Institution string  `json:"institution"`
	Year        *string `json:"year"`
}

type scoringJDView struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills"`
	ExperienceYears int      `json:"experience_years"`
}

// AIScorer LLM打分器，单次尝试，任何失败都无条件退回规则打分。
// 总分加权与规则打分一致，策略字段标记实际走了哪条路
type AIScorer struct {
	model    model.ChatModel
	fallback *HeuristicScorer
	timeout  time.Duration
}

// NewAIScorer 创建AI打分器，fallback不可为空
func NewAIScorer(chatModel model.ChatModel, fallback *HeuristicScorer, timeout time.Duration) *AIScorer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AIScorer{model: chatModel, fallback: fallback, timeout: timeout}
}

// Score 优先LLM打分，失败即退回规则打分，永不返回错误
func (a *AIScorer) Score(ctx context.Context, resume *types.ResumeRecord, jd *types.JobDescription) *types.MatchScore {
	if a.model != nil {
		score, err := a.scoreWithLLM(ctx, resume, jd)
		if err == nil {
			return score
		}
		logger.Warn().Err(err).Str("resume", resume.Name).Msg("AI打分失败，退回规则打分")
	}
	return a.fallback.Score(resume, jd)
}

func (a *AIScorer) scoreWithLLM(ctx context.Context, resume *types.ResumeRecord, jd *types.JobDescription) (*types.MatchScore, error) {
	prompt, err := a.buildPrompt(resume, jd)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.model.Generate(callCtx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("LLM打分调用失败: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("LLM打分返回空内容")
	}

	jsonText := parser.ExtractJSON(resp.Content)

	var result aiScoringResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, fmt.Errorf("解析LLM打分响应失败: %w", err)
	}

	breakdown := types.ScoreBreakdown{
		SkillsScore:     clampScore(result.SkillsScore),
		ExperienceScore: clampScore(result.ExperienceScore),
		EducationScore:  clampScore(result.EducationScore),
		SemanticScore:   clampScore(result.SemanticScore),
	}

	matched := result.MatchedSkills
	if matched == nil {
		matched = []string{}
	}
	missing := result.MissingSkills
	if missing == nil {
		missing = []string{}
	}

	return &types.MatchScore{
		TotalScore: breakdown.SkillsScore*weightSkills +
			breakdown.ExperienceScore*weightExperience +
			breakdown.EducationScore*weightEducation +
			breakdown.SemanticScore*weightSemantic,
		Breakdown:               breakdown,
		MatchedSkills:           matched,
		MissingSkills:           missing,
		ExperienceYearsComputed: a.fallback.ComputeExperienceYears(resume.Experiences),
		Strategy:                types.StrategyAI,
	}, nil
}

func (a *AIScorer) buildPrompt(resume *types.ResumeRecord, jd *types.JobDescription) (string, error) {
	view := scoringResumeView{
		Name:           resume.Name,
		Email:          resume.Contact.Email,
		Skills:         resume.Skills,
		Certifications: resume.Certifications,
	}
	if resume.Summary != nil {
		view.Summary = *resume.Summary
	}
	for _, exp := range resume.Experiences {
		end := "Present"
		if exp.EndDate != nil && strings.TrimSpace(*exp.EndDate) != "" {
			end = *exp.EndDate
		}
		view.Experiences = append(view.Experiences, scoringExperience{
			Title:       exp.Title,
			Company:     exp.Company,
			Duration:    fmt.Sprintf("%s to %s", exp.StartDate, end),
			Description: exp.Description,
		})
	}
	for _, edu := range resume.Education {
		view.Education = append(view.Education, scoringEducation{
			Degree:      edu.Degree,
			Institution: edu.Institution,
			Year:        edu.Year,
		})
	}

	jdView := scoringJDView{
		Title:           jd.Title,
		Description:     jd.Description,
		RequiredSkills:  jd.RequiredSkills,
		PreferredSkills: jd.PreferredSkills,
	}
	if jd.ExperienceYears != nil {
		jdView.ExperienceYears = *jd.ExperienceYears
	}

	resumeJSON, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化简历视图失败: %w", err)
	}
	jdJSON, err := json.MarshalIndent(jdView, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化JD视图失败: %w", err)
	}

	return fmt.Sprintf(scoringPromptTemplate, string(resumeJSON), string(jdJSON)), nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
