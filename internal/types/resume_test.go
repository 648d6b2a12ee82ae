package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificationUnmarshal(t *testing.T) {
	t.Run("字符串提升为对象", func(t *testing.T) {
		var certs []Certification
		err := json.Unmarshal([]byte(`["AWS Certified Solutions Architect", "CKA"]`), &certs)
		require.NoError(t, err)
		require.Len(t, certs, 2)
		assert.Equal(t, "AWS Certified Solutions Architect", certs[0].Name)
		assert.Nil(t, certs[0].IssuingOrganization)
		assert.Nil(t, certs[0].IssueDate)
		assert.Equal(t, "CKA", certs[1].Name)
	})

	t.Run("完整对象原样解析", func(t *testing.T) {
		var c Certification
		err := json.Unmarshal([]byte(`{"name":"PMP","issuing_organization":"PMI","issue_date":"2022-03"}`), &c)
		require.NoError(t, err)
		assert.Equal(t, "PMP", c.Name)
		require.NotNil(t, c.IssuingOrganization)
		assert.Equal(t, "PMI", *c.IssuingOrganization)
		assert.Nil(t, c.ExpiryDate)
	})

	t.Run("混合数组", func(t *testing.T) {
		var certs []Certification
		err := json.Unmarshal([]byte(`["Scrum Master", {"name":"PMP","issuing_organization":"PMI"}]`), &certs)
		require.NoError(t, err)
		require.Len(t, certs, 2)
		assert.Equal(t, "Scrum Master", certs[0].Name)
		assert.Equal(t, "PMP", certs[1].Name)
	})
}

func TestProjectUnmarshal(t *testing.T) {
	t.Run("字符串提升为对象", func(t *testing.T) {
		var p Project
		err := json.Unmarshal([]byte(`"Recommendation Engine"`), &p)
		require.NoError(t, err)
		assert.Equal(t, "Recommendation Engine", p.Name)
		assert.NotNil(t, p.Technologies)
		assert.Empty(t, p.Technologies)
		assert.Nil(t, p.Description)
	})

	t.Run("缺少name的对象补默认名", func(t *testing.T) {
		var p Project
		err := json.Unmarshal([]byte(`{"description":"internal tool","technologies":["Go"]}`), &p)
		require.NoError(t, err)
		assert.Equal(t, "Unnamed Project", p.Name)
		assert.Equal(t, []string{"Go"}, p.Technologies)
	})
}

func TestResumeRecordRoundTrip(t *testing.T) {
	summary := "Backend engineer"
	rec := ResumeRecord{
		Name:    "Jane Doe",
		Summary: &summary,
		Skills:  []string{"Go", "MySQL"},
		Experiences: []Experience{
			{Title: "Engineer", Company: "Acme", StartDate: "2020-01", Responsibilities: []string{}, BulletImpactScore: 0.3},
		},
		ContentHash: "abc123",
		Source:      SourceLLM,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var got ResumeRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, SourceLLM, got.Source)
	assert.Equal(t, rec.Experiences[0].StartDate, got.Experiences[0].StartDate)
	assert.Nil(t, got.Experiences[0].EndDate)
}
