package types

import (
	"encoding/json"
	"time"
)

// ParseSource 表示简历记录由哪条解析路径产出
type ParseSource string

const (
	// SourceLLM 标准LLM抽取
	SourceLLM ParseSource = "llm"
	// SourceLLMStrictRetry 严格模式重试后的LLM抽取
	SourceLLMStrictRetry ParseSource = "llm-strict-retry"
	// SourceFallback 规则回退抽取，属于低置信度结果，需要人工复核
	SourceFallback ParseSource = "fallback"
)

// ScoreStrategy 表示匹配分数由哪个打分器产出
type ScoreStrategy string

const (
	// StrategyAI LLM打分
	StrategyAI ScoreStrategy = "ai"
	// StrategyHeuristic 规则打分
	StrategyHeuristic ScoreStrategy = "heuristic"
)

// Contact 联系方式，所有字段可空
type Contact struct {
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	LinkedIn *string `json:"linkedin"`
	Website  *string `json:"website"`
}

// Experience 一段工作经历
// StartDate为必填字段，回退解析在无法识别时填入哨兵值 "Unknown" 而不是空值
type Experience struct {
	Title             string   `json:"title"`
	Company           string   `json:"company"`
	StartDate         string   `json:"start_date"`
	EndDate           *string  `json:"end_date"`
	Location          *string  `json:"location,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Responsibilities  []string `json:"responsibilities"`
	BulletImpactScore float64  `json:"bullet_impact_score"` // 0.0-1.0
}

// Education 一段教育经历
type Education struct {
	Degree       string  `json:"degree"`
	Institution  string  `json:"institution"`
	FieldOfStudy *string `json:"field_of_study,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	EndDate      *string `json:"end_date,omitempty"`
	GPA          *string `json:"gpa,omitempty"`
	Location     *string `json:"location,omitempty"`
	Honors       *string `json:"honors,omitempty"`
	Year         *string `json:"year,omitempty"`
}

// Certification 一项认证
type Certification struct {
	Name                string  `json:"name"`
	IssuingOrganization *string `json:"issuing_organization"`
	IssueDate           *string `json:"issue_date"`
	ExpiryDate          *string `json:"expiry_date"`
	CredentialID        *string `json:"credential_id"`
	CredentialURL       *string `json:"credential_url"`
}

// UnmarshalJSON 兼容两种历史形态: 纯字符串和完整对象。
// 字符串会被提升为只有name的对象，其余字段为空，
// 保证库内和LLM返回的两种形态在进入领域模型时统一为对象。
func (c *Certification) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Certification{Name: name}
		return nil
	}

	type certAlias Certification
	var obj certAlias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = Certification(obj)
	return nil
}

// Project 一个项目经历
type Project struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Technologies []string `json:"technologies"`
	URL          *string  `json:"url"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
}

// UnmarshalJSON 与 Certification 相同的字符串提升逻辑
func (p *Project) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = Project{Name: name, Technologies: []string{}}
		return nil
	}

	type projAlias Project
	var obj projAlias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Name == "" {
		obj.Name = "Unnamed Project"
	}
	if obj.Technologies == nil {
		obj.Technologies = []string{}
	}
	*p = Project(obj)
	return nil
}

// ResumeRecord 规范化的简历记录，由任一解析路径产出
type ResumeRecord struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	Contact        Contact         `json:"contact"`
	Summary        *string         `json:"summary"`
	Skills         []string        `json:"skills"`
	Experiences    []Experience    `json:"experiences"`
	Education      []Education     `json:"education"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Achievements   []string        `json:"achievements"`
	Languages      []string        `json:"languages"`
	Awards         []string        `json:"awards"`

	// ContentHash 归一化源文本的SHA-256十六进制摘要，全库唯一，是去重的唯一依据。
	// 注意哈希的是输入文本而不是结构化输出，因此与解析路径无关。
	ContentHash string      `json:"content_hash"`
	Source      ParseSource `json:"source"`
	CreatedAt   time.Time   `json:"created_at"`
}

// JobDescription 打分输入，不由本系统持久化
type JobDescription struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills"`
	ExperienceYears *int     `json:"experience_years"`
}

// ScoreBreakdown 四个维度的子分数，均为0-100
type ScoreBreakdown struct {
	SkillsScore     float64 `json:"skills_score"`
	ExperienceScore float64 `json:"experience_score"`
	EducationScore  float64 `json:"education_score"`
	SemanticScore   float64 `json:"semantic_score"`
}

// MatchScore 一次打分的派生产物，产出后不可变；重新打分生成新记录
type MatchScore struct {
	TotalScore              float64        `json:"total_score"`
	Breakdown               ScoreBreakdown `json:"breakdown"`
	MatchedSkills           []string       `json:"matched_skills"`
	MissingSkills           []string       `json:"missing_skills"`
	ExperienceYearsComputed float64        `json:"experience_years_computed"`
	Strategy                ScoreStrategy  `json:"strategy"`
}

// RankedMatch 批量打分的单条结果
type RankedMatch struct {
	ResumeID string      `json:"resume_id"`
	Name     string      `json:"name"`
	Score    *MatchScore `json:"score"`
}
