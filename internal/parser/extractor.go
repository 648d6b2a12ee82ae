package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-screener-go/internal/logger"
	"resume-screener-go/internal/types"
)

const strictInstruction = `
CRITICAL - Previous response was INVALID. Follow these rules EXACTLY:
- Output ONLY valid JSON, absolutely NO markdown, NO code blocks, NO explanations
- All dates MUST be in YYYY-MM-DD or YYYY-MM format
- Every array MUST be properly closed with ]
- Every object MUST be properly closed with }
- Email MUST be valid format with @
- Extract EVERY piece of information from the resume
- Do NOT skip ANY sections
`

const extractionPromptTemplate = `You are an EXPERT resume parser with 99%%+ accuracy. Your task is to extract ALL structured information from the resume text below.

OUTPUT SCHEMA (output ONLY valid JSON):
{
  "name": "string (extract full name from header/contact section)",
  "contact": {
    "email": "string (extract email - look for @domain pattern)",
    "phone": "string (extract phone number - any format)",
    "linkedin": "string (extract LinkedIn URL or username)",
    "website": "string (extract GitHub, portfolio, or personal website)"
  },
  "summary": "string (professional summary/objective - capture complete text)",
  "skills": ["skill1", "skill2", ... (extract ALL skills, technologies, languages, tools, frameworks - be comprehensive)],
  "experiences": [
    {
      "title": "string (exact job title/position)",
      "company": "string (exact company/organization name)",
      "start_date": "string (YYYY-MM or YYYY-MM-DD)",
      "end_date": "string or null (null if 'Present', 'Current', or ongoing)",
      "location": "string (city, state/country)",
      "responsibilities": ["bullet1", "bullet2", ... (extract ALL bullets and achievements)],
      "bullet_impact_score": float (0.0-1.0: high=0.8-1.0 with metrics, medium=0.5-0.7, low=0.0-0.4)
    }
  ],
  "education": [
    {
      "degree": "string (full degree + major: 'Bachelor of Science in Computer Science')",
      "institution": "string (full school name)",
      "field_of_study": "string (major/specialization: 'Computer Science', 'Mechanical Engineering')",
      "start_date": "YYYY (year only)",
      "end_date": "YYYY (year only, or null if ongoing)",
      "gpa": "string (if mentioned: '3.5/4.0', '3.5', '3.5 GPA')",
      "location": "string (if available: 'Boston, MA', 'Cambridge, UK')",
      "honors": "string (if mentioned: 'Summa Cum Laude', 'Dean's List', 'With Honors')",
      "year": "string (graduation year for compatibility)"
    }
  ],
  "projects": [
    {
      "name": "string (project name)",
      "description": "string (project description)",
      "technologies": ["tech1", "tech2"],
      "url": "string (if available)",
      "start_date": "YYYY-MM (optional)",
      "end_date": "YYYY-MM (optional)"
    }
  ],
  "certifications": [
    {
      "name": "string (certification name: 'AWS Certified Solutions Architect', 'PMP')",
      "issuing_organization": "string (issuer: 'Amazon Web Services', 'PMI', 'Google')",
      "issue_date": "YYYY-MM or YYYY (when obtained)",
      "expiry_date": "YYYY-MM or YYYY (if applicable, null otherwise)",
      "credential_id": "string (if mentioned)",
      "credential_url": "string (verification URL if available)"
    }
  ],
  "achievements": ["achievement1", "achievement2", ... (notable accomplishments)],
  "languages": ["language1", "language2", ... (spoken languages with proficiency if mentioned)],
  "awards": ["award1", "award2", ... (awards, honors, recognitions)]
}

EXTRACTION RULES:

1. **NAME** - Look at resume header/top. Extract full name (first + last).

2. **CONTACT INFORMATION**:
   - Email: Search entire resume for patterns with @
   - Phone: Accept all formats: (xxx) xxx-xxxx, xxx-xxx-xxxx, +x xxx-xxx-xxxx
   - LinkedIn: Full URL or username from linkedin.com/in/
   - Website: GitHub links, portfolios, personal domains

3. **SUMMARY** - Extract from sections labeled:
   - Summary, Professional Summary, Objective, Career Objective
   - About, About Me, Profile, Overview, Executive Summary
   - Include COMPLETE text, not truncated

4. **SKILLS** - Be COMPREHENSIVE. Extract from:
   - Dedicated Skills/Technical Skills section
   - Technologies mentioned in experience bullets
   - Programming languages, frameworks, databases, tools
   - Cloud platforms (AWS, Azure, GCP)
   - Soft skills if explicitly listed
   - Extract individual items (separate "Python, Java" into ["Python", "Java"])

5. **WORK EXPERIENCE** - For EACH role:
   - Title: Exact job title as written
   - Company: Full company name
   - Dates: Convert to YYYY-MM format
     * "Jan 2020" -> "2020-01"
     * "January 2020" -> "2020-01"
     * "01/2020" -> "2020-01"
     * "Present", "Current", "Now" -> null for end_date
   - Location: City, State or City, Country
   - Responsibilities: Extract EVERY bullet point
   - Impact Score:
     * 0.9-1.0: Bullets with numbers/metrics and strong impact
     * 0.7-0.8: Bullets with action verbs and clear outcomes
     * 0.5-0.6: Descriptive bullets with moderate detail
     * 0.3-0.4: Basic responsibility descriptions
     * 0.0-0.2: Very basic/vague duties

6. **EDUCATION** - For EACH degree:
   - Degree: Full degree name (e.g., "Bachelor of Science", "Master of Business Administration")
   - Field of Study: Major/specialization (e.g., "Computer Science", "Mechanical Engineering")
   - Institution: Full school/university name
   - Dates: YYYY format for start/end year
   - GPA: Extract if mentioned (e.g., "3.8/4.0", "3.8 GPA", "3.8")
   - Location: City, State/Country if available
   - Honors: Include if mentioned (e.g., "Summa Cum Laude", "Dean's List", "With Honors")
   - Year: Graduation year (for backward compatibility)

7. **PROJECTS** - For EACH project:
   - Name: Project title/name
   - Description: Brief description of the project
   - Technologies: List of technologies/tools used
   - URL: GitHub, live demo, or portfolio link if available
   - Dates: Start and end dates if mentioned

8. **CERTIFICATIONS** - For EACH certification, extract as structured object:
   - Name: Full certification name (e.g., "AWS Certified Solutions Architect", "PMP")
   - Issuing Organization: Who issued it (e.g., "Amazon Web Services", "PMI", "Google")
   - Issue Date: When obtained (YYYY-MM or YYYY format)
   - Expiry Date: When it expires (if applicable, null otherwise)
   - Credential ID: Certificate/credential number if mentioned
   - Credential URL: Verification URL if available

9. **ACHIEVEMENTS** - Extract notable accomplishments:
   - Significant achievements not covered in experience bullets
   - Competition wins, hackathon prizes
   - Publications, patents, research contributions
   - Notable projects or initiatives led

10. **LANGUAGES** - Extract spoken/written languages:
    - Include language name and proficiency if mentioned
    - Examples: "English (Native)", "Spanish (Fluent)", "French (Intermediate)"

11. **AWARDS** - Extract awards, honors, and recognitions:
    - Academic awards (Dean's List, scholarships)
    - Professional awards and recognitions
    - Industry honors and distinctions
    - Include year if mentioned

%s

NOW PARSE THIS RESUME:
---
%s
---

OUTPUT (JSON only - no markdown, no code blocks, no text before/after):`

// Extractor 三段式简历抽取器: 标准LLM抽取、严格模式重试、规则回退。
// Parse永不返回错误，最坏情况下也会产出一条规则回退记录。
type Extractor struct {
	model   model.ChatModel
	timeout time.Duration
}

// NewExtractor 创建抽取器，timeout为单次LLM调用的超时
func NewExtractor(chatModel model.ChatModel, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Extractor{model: chatModel, timeout: timeout}
}

// Parse 把清洗后的简历文本抽取为结构化记录。
// 记录的Source标记产出路径，ContentHash在此一次性盖章，后续环节不再改动。
func (e *Extractor) Parse(ctx context.Context, cleanedText string) *types.ResumeRecord {
	hash := ContentHash(cleanedText)

	if e.model != nil {
		rec, err := e.callLLM(ctx, cleanedText, false)
		if err == nil {
			e.stamp(rec, hash, types.SourceLLM)
			return rec
		}
		logger.Warn().Err(err).Msg("标准LLM抽取失败，进入严格模式重试")

		rec, err = e.callLLM(ctx, cleanedText, true)
		if err == nil {
			e.stamp(rec, hash, types.SourceLLMStrictRetry)
			return rec
		}
		logger.Warn().Err(err).Msg("严格模式LLM抽取失败，进入规则回退")
	} else {
		logger.Warn().Msg("未配置LLM模型，直接使用规则回退解析")
	}

	rec := FallbackParse(cleanedText)
	e.stamp(rec, hash, types.SourceFallback)
	return rec
}

func (e *Extractor) stamp(rec *types.ResumeRecord, hash string, source types.ParseSource) {
	rec.ContentHash = hash
	rec.Source = source
	rec.CreatedAt = time.Now().UTC()
	normalizeCollections(rec)
}

// callLLM 单次LLM抽取尝试，任何阶段的失败都作为错误上抛由状态机决定下一步
func (e *Extractor) callLLM(ctx context.Context, text string, strictMode bool) (*types.ResumeRecord, error) {
	strictPart := ""
	if strictMode {
		strictPart = strictInstruction
	}
	prompt := fmt.Sprintf(extractionPromptTemplate, strictPart, text)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.model.Generate(callCtx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("LLM调用失败: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("LLM返回空内容")
	}

	jsonText := ExtractJSON(resp.Content)

	var rec types.ResumeRecord
	if err := json.Unmarshal([]byte(jsonText), &rec); err != nil {
		return nil, fmt.Errorf("解析LLM响应JSON失败: %w", err)
	}
	if strings.TrimSpace(rec.Name) == "" {
		return nil, fmt.Errorf("LLM响应缺少姓名字段")
	}

	return &rec, nil
}

// normalizeCollections 保证所有集合字段非nil，下游的打分和序列化不必判空
func normalizeCollections(rec *types.ResumeRecord) {
	if rec.Skills == nil {
		rec.Skills = []string{}
	}
	if rec.Experiences == nil {
		rec.Experiences = []types.Experience{}
	}
	for i := range rec.Experiences {
		if rec.Experiences[i].Responsibilities == nil {
			rec.Experiences[i].Responsibilities = []string{}
		}
	}
	if rec.Education == nil {
		rec.Education = []types.Education{}
	}
	if rec.Projects == nil {
		rec.Projects = []types.Project{}
	}
	if rec.Certifications == nil {
		rec.Certifications = []types.Certification{}
	}
	if rec.Achievements == nil {
		rec.Achievements = []string{}
	}
	if rec.Languages == nil {
		rec.Languages = []string{}
	}
	if rec.Awards == nil {
		rec.Awards = []string{}
	}
}
