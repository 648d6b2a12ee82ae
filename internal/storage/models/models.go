package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"resume-screener-go/internal/types"
)

// Resume 简历记录主表，content_hash唯一索引是去重的最终防线
type Resume struct {
	ResumeID         string         `gorm:"type:char(36);primaryKey"`
	Name             string         `gorm:"type:varchar(255);not null"`
	ContactJSON      datatypes.JSON `gorm:"type:json"`
	Summary          *string        `gorm:"type:text"`
	SkillsJSON       datatypes.JSON `gorm:"type:json"`
	ExperiencesJSON  datatypes.JSON `gorm:"type:json"`
	EducationJSON    datatypes.JSON `gorm:"type:json"`
	ProjectsJSON     datatypes.JSON `gorm:"type:json"`
	CertsJSON        datatypes.JSON `gorm:"type:json"`
	AchievementsJSON datatypes.JSON `gorm:"type:json"`
	LanguagesJSON    datatypes.JSON `gorm:"type:json"`
	AwardsJSON       datatypes.JSON `gorm:"type:json"`
	ContentHash      string         `gorm:"type:char(64);not null;uniqueIndex:idx_resumes_content_hash_unique"`
	Source           string         `gorm:"type:varchar(50);not null;index:idx_resumes_source"`
	SourceChannel    string         `gorm:"type:varchar(100)"`
	OriginalFilename string         `gorm:"type:varchar(255)"`
	OriginalFilePath string         `gorm:"type:varchar(1024)"`
	CreatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Resume) TableName() string {
	return "resumes"
}

// MatchScoreRow 打分结果表，按简历ID加JD指纹定位一次评估。
// 重新打分插入新行，旧行不修改
type MatchScoreRow struct {
	ScoreID       string         `gorm:"type:char(36);primaryKey"`
	ResumeID      string         `gorm:"type:char(36);not null;index:idx_ms_resume_jd,priority:1"`
	JDFingerprint string         `gorm:"type:char(64);not null;index:idx_ms_resume_jd,priority:2"`
	TotalScore    float64        `gorm:"type:double;not null;index:idx_ms_total_score"`
	BreakdownJSON datatypes.JSON `gorm:"type:json"`
	MatchedJSON   datatypes.JSON `gorm:"type:json"`
	MissingJSON   datatypes.JSON `gorm:"type:json"`
	ExperienceYrs float64        `gorm:"type:double"`
	Strategy      string         `gorm:"type:varchar(20);not null"`
	CreatedAt     time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Resume *Resume `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (MatchScoreRow) TableName() string {
	return "match_scores"
}

// FromRecord 把领域记录转换为数据库行，结构化字段序列化为JSON列
func FromRecord(rec *types.ResumeRecord) (*Resume, error) {
	row := &Resume{
		ResumeID:    rec.ID,
		Name:        rec.Name,
		Summary:     rec.Summary,
		ContentHash: rec.ContentHash,
		Source:      string(rec.Source),
	}

	var err error
	if row.ContactJSON, err = marshalJSON(rec.Contact); err != nil {
		return nil, err
	}
	if row.SkillsJSON, err = marshalJSON(rec.Skills); err != nil {
		return nil, err
	}
	if row.ExperiencesJSON, err = marshalJSON(rec.Experiences); err != nil {
		return nil, err
	}
	if row.EducationJSON, err = marshalJSON(rec.Education); err != nil {
		return nil, err
	}
	if row.ProjectsJSON, err = marshalJSON(rec.Projects); err != nil {
		return nil, err
	}
	if row.CertsJSON, err = marshalJSON(rec.Certifications); err != nil {
		return nil, err
	}
	if row.AchievementsJSON, err = marshalJSON(rec.Achievements); err != nil {
		return nil, err
	}
	if row.LanguagesJSON, err = marshalJSON(rec.Languages); err != nil {
		return nil, err
	}
	if row.AwardsJSON, err = marshalJSON(rec.Awards); err != nil {
		return nil, err
	}
	return row, nil
}

// ToRecord 把数据库行还原为领域记录。
// 认证和项目列里可能存有历史遗留的字符串形态，
// 反序列化经由领域类型的UnmarshalJSON统一提升为对象
func (r *Resume) ToRecord() (*types.ResumeRecord, error) {
	rec := &types.ResumeRecord{
		ID:          r.ResumeID,
		Name:        r.Name,
		Summary:     r.Summary,
		ContentHash: r.ContentHash,
		Source:      types.ParseSource(r.Source),
		CreatedAt:   r.CreatedAt,
	}

	if err := unmarshalJSON(r.ContactJSON, &rec.Contact); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.SkillsJSON, &rec.Skills); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.ExperiencesJSON, &rec.Experiences); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.EducationJSON, &rec.Education); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.ProjectsJSON, &rec.Projects); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.CertsJSON, &rec.Certifications); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.AchievementsJSON, &rec.Achievements); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.LanguagesJSON, &rec.Languages); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.AwardsJSON, &rec.Awards); err != nil {
		return nil, err
	}
	return rec, nil
}

// FromMatchScore 把打分产物转换为数据库行
func FromMatchScore(scoreID, resumeID, jdFingerprint string, score *types.MatchScore) (*MatchScoreRow, error) {
	row := &MatchScoreRow{
		ScoreID:       scoreID,
		ResumeID:      resumeID,
		JDFingerprint: jdFingerprint,
		TotalScore:    score.TotalScore,
		ExperienceYrs: score.ExperienceYearsComputed,
		Strategy:      string(score.Strategy),
	}

	var err error
	if row.BreakdownJSON, err = marshalJSON(score.Breakdown); err != nil {
		return nil, err
	}
	if row.MatchedJSON, err = marshalJSON(score.MatchedSkills); err != nil {
		return nil, err
	}
	if row.MissingJSON, err = marshalJSON(score.MissingSkills); err != nil {
		return nil, err
	}
	return row, nil
}

// ToMatchScore 把数据库行还原为打分产物
func (m *MatchScoreRow) ToMatchScore() (*types.MatchScore, error) {
	score := &types.MatchScore{
		TotalScore:              m.TotalScore,
		ExperienceYearsComputed: m.ExperienceYrs,
		Strategy:                types.ScoreStrategy(m.Strategy),
	}
	if err := unmarshalJSON(m.BreakdownJSON, &score.Breakdown); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(m.MatchedJSON, &score.MatchedSkills); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(m.MissingJSON, &score.MissingSkills); err != nil {
		return nil, err
	}
	return score, nil
}

func marshalJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

func unmarshalJSON(data datatypes.JSON, target interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
