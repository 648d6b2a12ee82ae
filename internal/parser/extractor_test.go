package parser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener-go/internal/agent"
	"resume-screener-go/internal/types"
)

const validLLMResponse = "```json\n" + `{
  "name": "Jane Doe",
  "contact": {"email": "jane@example.com", "phone": null, "linkedin": null, "website": null},
  "summary": "Backend engineer.",
  "skills": ["Go", "MySQL"],
  "experiences": [
    {
      "title": "Engineer",
      "company": "Acme",
      "start_date": "2020-01",
      "end_date": null,
      "responsibilities": ["Built services"],
      "bullet_impact_score": 0.8
    }
  ],
  "education": [],
  "projects": ["Side Project"],
  "certifications": ["AWS Certified"],
  "achievements": [],
  "languages": [],
  "awards": []
}` + "\n```"

func TestExtractorStandardPath(t *testing.T) {
	mock := agent.NewMockChatClient(validLLMResponse, nil)
	ex := NewExtractor(mock, 5*time.Second)

	rec := ex.Parse(context.Background(), "Jane Doe resume text")
	require.NotNil(t, rec)

	assert.Equal(t, types.SourceLLM, rec.Source)
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, ContentHash("Jane Doe resume text"), rec.ContentHash)
	assert.False(t, rec.CreatedAt.IsZero())

	// 字符串形态的项目和认证提升为对象
	require.Len(t, rec.Projects, 1)
	assert.Equal(t, "Side Project", rec.Projects[0].Name)
	require.Len(t, rec.Certifications, 1)
	assert.Equal(t, "AWS Certified", rec.Certifications[0].Name)
	assert.Nil(t, rec.Certifications[0].IssuingOrganization)
}

func TestExtractorStrictRetryPath(t *testing.T) {
	mock := agent.NewMockChatClientSequential([]agent.MockResponse{
		{Content: "I cannot produce JSON for that."},
		{Content: validLLMResponse},
	})
	ex := NewExtractor(mock, 5*time.Second)

	rec := ex.Parse(context.Background(), "Jane Doe resume text")
	assert.Equal(t, types.SourceLLMStrictRetry, rec.Source)
	assert.Equal(t, "Jane Doe", rec.Name)

	// 第二次请求的提示词里必须带严格指令
	msgs := mock.GetReceivedMessages()
	require.Len(t, msgs, 2)
	assert.NotContains(t, msgs[0].Content, "Previous response was INVALID")
	assert.Contains(t, msgs[1].Content, "Previous response was INVALID")
}

func TestExtractorFallbackPath(t *testing.T) {
	mock := agent.NewMockChatClientSequential([]agent.MockResponse{
		{Content: "{broken json"},
		{Error: errors.New("rate limited")},
	})
	ex := NewExtractor(mock, 5*time.Second)

	text := "Jane Doe\njane@example.com\nSKILLS\npython and docker"
	rec := ex.Parse(context.Background(), text)

	require.NotNil(t, rec)
	assert.Equal(t, types.SourceFallback, rec.Source)
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, ContentHash(text), rec.ContentHash)
	assert.Contains(t, rec.Skills, "Python")
}

func TestExtractorNilModelFallsBack(t *testing.T) {
	ex := NewExtractor(nil, 0)
	rec := ex.Parse(context.Background(), "Some Person\nplain text")
	assert.Equal(t, types.SourceFallback, rec.Source)
}

func TestExtractorRejectsMissingName(t *testing.T) {
	noName := strings.Replace(validLLMResponse, `"name": "Jane Doe",`, `"name": "",`, 1)
	mock := agent.NewMockChatClientSequential([]agent.MockResponse{
		{Content: noName},
		{Content: noName},
	})
	ex := NewExtractor(mock, 5*time.Second)

	rec := ex.Parse(context.Background(), "nameless resume text")
	assert.Equal(t, types.SourceFallback, rec.Source)
}

func TestExtractorNormalizesNilCollections(t *testing.T) {
	minimal := "```json\n" + `{"name": "Min Person", "contact": {}}` + "\n```"
	mock := agent.NewMockChatClient(minimal, nil)
	ex := NewExtractor(mock, 5*time.Second)

	rec := ex.Parse(context.Background(), "minimal text")
	assert.NotNil(t, rec.Skills)
	assert.NotNil(t, rec.Experiences)
	assert.NotNil(t, rec.Education)
	assert.NotNil(t, rec.Projects)
	assert.NotNil(t, rec.Certifications)
	assert.NotNil(t, rec.Achievements)
	assert.NotNil(t, rec.Languages)
	assert.NotNil(t, rec.Awards)
}
