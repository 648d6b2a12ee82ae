package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSkills(t *testing.T) {
	t.Run("词表命中并标题化", func(t *testing.T) {
		got := ExtractSkills("experienced in python, node.js and kubernetes deployments")
		assert.Contains(t, got, "Python")
		assert.Contains(t, got, "Node.Js")
		assert.Contains(t, got, "Kubernetes")
	})

	t.Run("结果去重且有序", func(t *testing.T) {
		// "docker" 里的字母r命中单字母技能"r"
		got := ExtractSkills("python python docker aws")
		assert.Equal(t, []string{"Aws", "Docker", "Python", "R"}, got)
	})

	t.Run("单字母技能r按子串命中", func(t *testing.T) {
		got := ExtractSkills("built weather dashboards")
		assert.Equal(t, []string{"R"}, got)
	})

	t.Run("多词技能", func(t *testing.T) {
		got := ExtractSkills("strong machine learning and data science background")
		assert.Contains(t, got, "Machine Learning")
		assert.Contains(t, got, "Data Science")
	})

	t.Run("无命中返回哨兵", func(t *testing.T) {
		// 文本必须连字母r都不含，否则会命中单字母技能
		got := ExtractSkills("zzz qqq nothing tangible listed")
		assert.Equal(t, []string{NoSkillsDetected}, got)
	})
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Ci/Cd", titleCase("ci/cd"))
	assert.Equal(t, "A/B Testing", titleCase("a/b testing"))
	assert.Equal(t, "Spring Boot", titleCase("spring boot"))
	assert.Equal(t, "C++", titleCase("c++"))
}

func TestExtractContact(t *testing.T) {
	text := "Jane Doe\njane.doe@example.com | +1 555-123-4567\nlinkedin.com/in/janedoe github.com/janedoe"

	c := ExtractContact(text)
	assert.NotNil(t, c.Email)
	assert.Equal(t, "jane.doe@example.com", *c.Email)
	assert.NotNil(t, c.Phone)
	assert.NotNil(t, c.LinkedIn)
	assert.Equal(t, "linkedin.com/in/janedoe", *c.LinkedIn)
	assert.NotNil(t, c.Website)
	assert.Equal(t, "github.com/janedoe", *c.Website)
}

func TestExtractContactMixedCaseLinks(t *testing.T) {
	c := ExtractContact("LinkedIn.com/in/janedoe GitHub.com/janedoe")
	require.NotNil(t, c.LinkedIn)
	assert.Equal(t, "LinkedIn.com/in/janedoe", *c.LinkedIn)
	require.NotNil(t, c.Website)
	assert.Equal(t, "GitHub.com/janedoe", *c.Website)
}

func TestExtractContactSkipsLinkedInAsWebsite(t *testing.T) {
	c := ExtractContact("reach me at https://linkedin.com/in/someone only")
	assert.NotNil(t, c.LinkedIn)
	assert.Nil(t, c.Website)
}

func TestExtractContactEmpty(t *testing.T) {
	c := ExtractContact("no contact details in this text")
	assert.Nil(t, c.Email)
	assert.Nil(t, c.Phone)
	assert.Nil(t, c.LinkedIn)
	assert.Nil(t, c.Website)
}
