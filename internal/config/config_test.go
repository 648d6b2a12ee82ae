package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
llm:
  api_key: "yaml-key"
  api_url: "https://api.example.com/v1/chat/completions"
  model: "gpt-4o-mini"

extractor:
  modelName: "gpt-4o-mini"
  temperature: 0.05
  extractionTimeout: "45s"

scorer:
  defaultStrategy: "heuristic"

mysql:
  host: "db.internal"
  port: 3306
  username: "screener"
  database: "resume_screener"

redis:
  address: "cache.internal:6379"
  hash_record_expire_days: 30

server:
  address: ":9090"
  api_key: "server-secret"

logger:
  level: "debug"
  format: "json"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "yaml-key", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.Address)
	assert.Equal(t, 30, cfg.Redis.HashRecordExpireDays)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "server-secret", cfg.Server.APIKey)
	assert.Equal(t, "heuristic", cfg.Scorer.DefaultStrategy)
	assert.Equal(t, "45s", cfg.Extractor.ExtractionTimeout)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, "logger:\n  level: info\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "60s", cfg.Extractor.ExtractionTimeout)
	assert.Equal(t, "30s", cfg.Scorer.ScoreTimeout)
	assert.Equal(t, "ai", cfg.Scorer.DefaultStrategy)
	assert.Equal(t, "resume-screener", cfg.Tracing.ServiceName)
	assert.InDelta(t, 1.0, cfg.Tracing.SampleRatio, 0.001)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("LLM_MODEL", "env-model")

	cfg, err := LoadConfig(writeTempConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "env-model", cfg.LLM.Model)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	_, err := LoadConfig(writeTempConfig(t, "mysql: [broken"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 45*time.Second, GetDuration("45s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute))
}
