package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"resume-screener-go/internal/types"
)

func TestResumeRowRoundTrip(t *testing.T) {
	summary := "Backend engineer"
	email := "jane@example.com"
	rec := &types.ResumeRecord{
		ID:      "11111111-1111-1111-1111-111111111111",
		Name:    "Jane Doe",
		Contact: types.Contact{Email: &email},
		Summary: &summary,
		Skills:  []string{"Go", "MySQL"},
		Experiences: []types.Experience{
			{Title: "Engineer", Company: "Acme", StartDate: "2020-01", Responsibilities: []string{"built stuff"}},
		},
		Education:      []types.Education{{Degree: "BSc", Institution: "State"}},
		Projects:       []types.Project{{Name: "Tool", Technologies: []string{"Go"}}},
		Certifications: []types.Certification{{Name: "CKA"}},
		Achievements:   []string{},
		Languages:      []string{"English"},
		Awards:         []string{},
		ContentHash:    "deadbeef",
		Source:         types.SourceLLM,
	}

	row, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, row.ResumeID)
	assert.Equal(t, "llm", row.Source)
	assert.Equal(t, "deadbeef", row.ContentHash)

	got, err := row.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, rec.Name, got.Name)
	require.NotNil(t, got.Contact.Email)
	assert.Equal(t, email, *got.Contact.Email)
	assert.Equal(t, rec.Skills, got.Skills)
	assert.Equal(t, rec.Experiences[0].Company, got.Experiences[0].Company)
	assert.Equal(t, types.SourceLLM, got.Source)
}

func TestToRecordPromotesLegacyStringShapes(t *testing.T) {
	// 历史数据里认证和项目可能以字符串数组形态落库
	row := &Resume{
		ResumeID:     "22222222-2222-2222-2222-222222222222",
		Name:         "Legacy Person",
		CertsJSON:    datatypes.JSON(`["AWS Certified"]`),
		ProjectsJSON: datatypes.JSON(`["Old Project", {"description": "no name"}]`),
		ContentHash:  "cafebabe",
		Source:       "fallback",
	}

	rec, err := row.ToRecord()
	require.NoError(t, err)

	require.Len(t, rec.Certifications, 1)
	assert.Equal(t, "AWS Certified", rec.Certifications[0].Name)
	assert.Nil(t, rec.Certifications[0].IssuingOrganization)

	require.Len(t, rec.Projects, 2)
	assert.Equal(t, "Old Project", rec.Projects[0].Name)
	assert.Equal(t, "Unnamed Project", rec.Projects[1].Name)
}

func TestMatchScoreRowRoundTrip(t *testing.T) {
	score := &types.MatchScore{
		TotalScore: 78.5,
		Breakdown: types.ScoreBreakdown{
			SkillsScore: 85, ExperienceScore: 70, EducationScore: 80, SemanticScore: 60,
		},
		MatchedSkills:           []string{"go"},
		MissingSkills:           []string{"aws"},
		ExperienceYearsComputed: 5.0,
		Strategy:                types.StrategyAI,
	}

	row, err := FromMatchScore("sid", "rid", "fp", score)
	require.NoError(t, err)
	assert.Equal(t, 78.5, row.TotalScore)
	assert.Equal(t, "ai", row.Strategy)

	got, err := row.ToMatchScore()
	require.NoError(t, err)
	assert.Equal(t, score.Breakdown, got.Breakdown)
	assert.Equal(t, score.MatchedSkills, got.MatchedSkills)
	assert.Equal(t, types.StrategyAI, got.Strategy)
}
