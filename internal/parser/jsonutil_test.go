package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Run("json围栏", func(t *testing.T) {
		got := ExtractJSON("Here is the result:\n```json\n{\"name\": \"Jane\"}\n```\nDone.")
		assert.Equal(t, `{"name": "Jane"}`, got)
	})

	t.Run("无语言标记的围栏", func(t *testing.T) {
		got := ExtractJSON("```\n{\"a\": 1}\n```")
		assert.Equal(t, `{"a": 1}`, got)
	})

	t.Run("无围栏的裸对象", func(t *testing.T) {
		got := ExtractJSON(`The answer is {"skills": ["Go"]} as requested`)
		assert.Equal(t, `{"skills": ["Go"]}`, got)

		var parsed map[string]any
		require.NoError(t, json.Unmarshal([]byte(got), &parsed))
	})

	t.Run("字符串内花括号不干扰配平", func(t *testing.T) {
		got := ExtractJSON(`{"summary": "worked on {templating} engine", "x": {"y": 1}}`)
		var parsed map[string]any
		require.NoError(t, json.Unmarshal([]byte(got), &parsed))
		assert.Equal(t, "worked on {templating} engine", parsed["summary"])
	})

	t.Run("嵌套对象取最外层", func(t *testing.T) {
		got := ExtractJSON(`prefix {"outer": {"inner": true}} suffix`)
		assert.Equal(t, `{"outer": {"inner": true}}`, got)
	})

	t.Run("无对象时返回原文", func(t *testing.T) {
		got := ExtractJSON("  I could not parse that resume.  ")
		assert.Equal(t, "I could not parse that resume.", got)
	})
}
