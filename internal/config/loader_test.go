package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("SEO_TEST_HOST", "db.internal")

	assert.Equal(t, "host: db.internal", expandEnv("host: ${SEO_TEST_HOST}"))
	assert.Equal(t, "port: 5432", expandEnv("port: ${SEO_TEST_PORT_UNSET:5432}"))
	assert.Equal(t, "key: ", expandEnv("key: ${SEO_TEST_KEY_UNSET:}"))
	assert.Equal(t, "raw: ${SEO_TEST_RAW_UNSET}", expandEnv("raw: ${SEO_TEST_RAW_UNSET}"))
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	base := `
app:
  name: seo-writer-api
llm:
  default_provider: openai
  providers:
    openai:
      api_key: ${SEO_TEST_API_KEY:sk-default}
      model: gpt-4o-mini
  stages:
    title:
      model: gpt-4o
pipeline:
  max_keywords: 80
`
	staging := `
pipeline:
  stage_timeout: 45s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(base), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte(staging), 0o600))
	t.Setenv("APP_ENV", "staging")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "sk-default", cfg.LLM.Providers["openai"].APIKey)
	assert.Equal(t, 80, cfg.Pipeline.MaxKeywords)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.StageTimeout)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, "stream:pipeline:runs", cfg.Pipeline.Runs.Stream)

	title := cfg.LLM.StageFor("title")
	assert.Equal(t, "openai", title.Provider)
	assert.Equal(t, "gpt-4o", title.Model)

	intent := cfg.LLM.StageFor("user_intent")
	assert.Equal(t, "gpt-4o-mini", intent.Model)
}

func TestLoadFromMissingBase(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.Error(t, err)
}
