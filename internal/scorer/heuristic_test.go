package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener-go/internal/types"
)

func fixedScorer(year int) *HeuristicScorer {
	return &HeuristicScorer{now: func() time.Time {
		return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
	}}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func expSince(startYear string, endYear *string) types.Experience {
	return types.Experience{
		Title:            "Engineer",
		Company:          "Acme",
		StartDate:        startYear,
		EndDate:          endYear,
		Responsibilities: []string{},
	}
}

func TestSkillsScore(t *testing.T) {
	h := NewHeuristicScorer()

	t.Run("JD无技能要求返回中性分", func(t *testing.T) {
		got := h.scoreSkills([]string{"Python"}, &types.JobDescription{})
		assert.Equal(t, 50.0, got)
	})

	t.Run("简历无技能返回0", func(t *testing.T) {
		got := h.scoreSkills(nil, &types.JobDescription{RequiredSkills: []string{"Go"}})
		assert.Equal(t, 0.0, got)
	})

	t.Run("部分覆盖必备技能", func(t *testing.T) {
		// 2/3的必备覆盖率，无加分项时加分比率取0.5
		got := h.scoreSkills(
			[]string{"Python", "React"},
			&types.JobDescription{RequiredSkills: []string{"Python", "React", "AWS"}},
		)
		assert.InDelta(t, 100*(0.7*2.0/3.0+0.3*0.5), got, 1e-9)
	})

	t.Run("技能匹配不区分大小写", func(t *testing.T) {
		full := h.scoreSkills(
			[]string{"PYTHON", "go"},
			&types.JobDescription{RequiredSkills: []string{"python", "Go"}},
		)
		assert.InDelta(t, 100*(0.7*1.0+0.3*0.5), full, 1e-9)
	})

	t.Run("全覆盖封顶100", func(t *testing.T) {
		got := h.scoreSkills(
			[]string{"Go", "MySQL"},
			&types.JobDescription{RequiredSkills: []string{"Go"}, PreferredSkills: []string{"MySQL"}},
		)
		assert.Equal(t, 100.0, got)
	})

	t.Run("添加已具备的必备技能不降低分数", func(t *testing.T) {
		jd := &types.JobDescription{RequiredSkills: []string{"Python", "AWS"}}
		before := h.scoreSkills([]string{"Python", "Go"}, jd)

		jd2 := &types.JobDescription{RequiredSkills: []string{"Python", "AWS", "Go"}}
		after := h.scoreSkills([]string{"Python", "Go"}, jd2)
		assert.GreaterOrEqual(t, after, before)
	})
}

func TestExperienceScore(t *testing.T) {
	h := fixedScorer(2026)

	t.Run("无经历硬性0分", func(t *testing.T) {
		got := h.scoreExperience(nil, 0, &types.JobDescription{ExperienceYears: intPtr(5)})
		assert.Equal(t, 0.0, got)
	})

	t.Run("有经历但年限计算为0同样0分", func(t *testing.T) {
		exps := []types.Experience{expSince("Unknown", nil)}
		years := h.ComputeExperienceYears(exps)
		got := h.scoreExperience(exps, years, &types.JobDescription{ExperienceYears: intPtr(3)})
		assert.Equal(t, 0.0, got)
	})

	t.Run("JD无年限要求给70", func(t *testing.T) {
		exps := []types.Experience{expSince("2020-01", strPtr("2024-01"))}
		got := h.scoreExperience(exps, 4, &types.JobDescription{})
		assert.Equal(t, 70.0, got)
	})

	t.Run("达标且不超出1.5倍给满分", func(t *testing.T) {
		exps := []types.Experience{expSince("2020-01", strPtr("2024-01"))}
		got := h.scoreExperience(exps, 4, &types.JobDescription{ExperienceYears: intPtr(3)})
		assert.Equal(t, 100.0, got)

		// 正好1.5倍仍是满分
		got = h.scoreExperience(exps, 4.5, &types.JobDescription{ExperienceYears: intPtr(3)})
		assert.Equal(t, 100.0, got)
	})

	t.Run("严重超配落在85到100之间", func(t *testing.T) {
		exps := []types.Experience{expSince("2000-01", nil)}
		got := h.scoreExperience(exps, 26, &types.JobDescription{ExperienceYears: intPtr(3)})
		assert.GreaterOrEqual(t, got, 85.0)
		assert.Less(t, got, 100.0)
	})

	t.Run("轻微超配线性衰减", func(t *testing.T) {
		exps := []types.Experience{expSince("2018-01", nil)}
		// 需要4年，拥有8年: 超出1.5*4=6的部分为2，100-1.5*2=97
		got := h.scoreExperience(exps, 8, &types.JobDescription{ExperienceYears: intPtr(4)})
		assert.InDelta(t, 97.0, got, 1e-9)
	})

	t.Run("未达标按比例给分", func(t *testing.T) {
		exps := []types.Experience{expSince("2024-01", nil)}
		got := h.scoreExperience(exps, 2, &types.JobDescription{ExperienceYears: intPtr(5)})
		assert.InDelta(t, 70.0*2.0/5.0, got, 1e-9)
	})

	t.Run("未达标不低于10分", func(t *testing.T) {
		exps := []types.Experience{expSince("2025-01", strPtr("2026-01"))}
		got := h.scoreExperience(exps, 0.5, &types.JobDescription{ExperienceYears: intPtr(20)})
		assert.Equal(t, 10.0, got)
	})
}

func TestEducationScore(t *testing.T) {
	h := NewHeuristicScorer()

	tests := []struct {
		name      string
		education []types.Education
		want      float64
	}{
		{"无教育经历", nil, 30.0},
		{"博士", []types.Education{{Degree: "PhD in Physics", Institution: "MIT"}}, 100.0},
		{"硕士", []types.Education{{Degree: "Master of Science", Institution: "Stanford"}}, 90.0},
		{"MBA按硕士档", []types.Education{{Degree: "MBA", Institution: "Wharton"}}, 90.0},
		{"学士", []types.Education{{Degree: "Bachelor of Arts", Institution: "State University"}}, 80.0},
		{"大专", []types.Education{{Degree: "Associate Degree", Institution: "Community College"}}, 70.0},
		{"无法识别的学历", []types.Education{{Degree: "Bootcamp Graduate", Institution: "Code School"}}, 50.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.scoreEducation(tt.education))
		})
	}

	t.Run("多条记录取最高档", func(t *testing.T) {
		got := h.scoreEducation([]types.Education{
			{Degree: "Associate Degree", Institution: "Community College"},
			{Degree: "Master of Engineering", Institution: "Tech University"},
		})
		assert.Equal(t, 90.0, got)
	})
}

func TestSemanticScore(t *testing.T) {
	h := NewHeuristicScorer()

	t.Run("JD文本无有效词返回中性分", func(t *testing.T) {
		resume := &types.ResumeRecord{Name: "Jane"}
		got := h.scoreSemantic(resume, &types.JobDescription{Title: "a b", Description: "c"})
		assert.Equal(t, 50.0, got)
	})

	t.Run("停用词不参与重合计算", func(t *testing.T) {
		resume := &types.ResumeRecord{
			Name:   "Jane Doe",
			Skills: []string{"golang", "kubernetes"},
		}
		jd := &types.JobDescription{
			Title:       "Golang Developer",
			Description: "experience with kubernetes and years of work",
		}
		// JD有效词: golang, developer, kubernetes; 简历命中golang和kubernetes
		got := h.scoreSemantic(resume, jd)
		assert.InDelta(t, 2.0/3.0*100.0, got, 1e-9)
	})

	t.Run("短于4个字符的词被忽略", func(t *testing.T) {
		resume := &types.ResumeRecord{Name: "Jane", Skills: []string{"go"}}
		got := h.scoreSemantic(resume, &types.JobDescription{Title: "go", Description: "dev"})
		assert.Equal(t, 50.0, got)
	})
}

func TestComputeExperienceYears(t *testing.T) {
	h := fixedScorer(2026)

	t.Run("进行中的经历按当前年截止", func(t *testing.T) {
		got := h.ComputeExperienceYears([]types.Experience{expSince("2020-03", nil)})
		assert.Equal(t, 6.0, got)
	})

	t.Run("Present与Current视作进行中", func(t *testing.T) {
		got := h.ComputeExperienceYears([]types.Experience{expSince("2024-01", strPtr("Present"))})
		assert.Equal(t, 2.0, got)
		got = h.ComputeExperienceYears([]types.Experience{expSince("2024-01", strPtr("current"))})
		assert.Equal(t, 2.0, got)
	})

	t.Run("多段经历求和", func(t *testing.T) {
		got := h.ComputeExperienceYears([]types.Experience{
			expSince("2015-01", strPtr("2018-06")),
			expSince("2018-06", strPtr("2022-01")),
		})
		assert.Equal(t, 7.0, got)
	})

	t.Run("无法解析的起始日期跳过", func(t *testing.T) {
		got := h.ComputeExperienceYears([]types.Experience{
			expSince("Unknown", nil),
			expSince("2022-01", strPtr("2024-01")),
		})
		assert.Equal(t, 2.0, got)
	})

	t.Run("结束早于开始计0不计负", func(t *testing.T) {
		got := h.ComputeExperienceYears([]types.Experience{expSince("2024-01", strPtr("2020-01"))})
		assert.Equal(t, 0.0, got)
	})
}

func TestHeuristicScoreTotal(t *testing.T) {
	h := fixedScorer(2026)
	summary := "Backend engineer building distributed systems in golang"

	resume := &types.ResumeRecord{
		Name:    "Jane Doe",
		Summary: &summary,
		Skills:  []string{"Python", "React"},
		Experiences: []types.Experience{
			expSince("2021-01", nil),
		},
		Education: []types.Education{
			{Degree: "Bachelor of Science", Institution: "State University"},
		},
	}
	jd := &types.JobDescription{
		Title:           "Full Stack Developer",
		Description:     "Build python services and react frontends on aws",
		RequiredSkills:  []string{"Python", "React", "AWS"},
		ExperienceYears: intPtr(3),
	}

	score := h.Score(resume, jd)
	require.NotNil(t, score)

	assert.Equal(t, types.StrategyHeuristic, score.Strategy)
	assert.InDelta(t, 100*(0.7*2.0/3.0+0.3*0.5), score.Breakdown.SkillsScore, 1e-9)
	// 5年对3年要求落入1.5倍过度资历区间: 100 - 1.5*(5-4.5)
	assert.InDelta(t, 99.25, score.Breakdown.ExperienceScore, 1e-9)
	assert.Equal(t, 80.0, score.Breakdown.EducationScore)
	assert.Equal(t, 5.0, score.ExperienceYearsComputed)

	// 加权合成与总分一致
	want := score.Breakdown.SkillsScore*0.4 +
		score.Breakdown.ExperienceScore*0.3 +
		score.Breakdown.EducationScore*0.2 +
		score.Breakdown.SemanticScore*0.1
	assert.InDelta(t, want, score.TotalScore, 1e-9)

	assert.Equal(t, []string{"python", "react"}, score.MatchedSkills)
	assert.Equal(t, []string{"aws"}, score.MissingSkills)
}

func TestHeuristicScoreNoExperience(t *testing.T) {
	h := NewHeuristicScorer()
	resume := &types.ResumeRecord{Name: "New Grad", Skills: []string{"Python"}}
	jd := &types.JobDescription{
		Title:           "Engineer",
		Description:     "python backend development",
		RequiredSkills:  []string{"Python"},
		ExperienceYears: intPtr(10),
	}

	score := h.Score(resume, jd)
	assert.Equal(t, 0.0, score.Breakdown.ExperienceScore)
	assert.Equal(t, 0.0, score.ExperienceYearsComputed)
}
