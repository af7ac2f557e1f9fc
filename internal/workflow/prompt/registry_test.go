package prompt

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLoadsAllTemplates(t *testing.T) {
	r := NewRegistry()
	for _, id := range All() {
		tpl, err := r.ChatTemplate(id)
		require.NoError(t, err, id)

		again, err := r.ChatTemplate(id)
		require.NoError(t, err)
		assert.Same(t, tpl, again)
	}
}

func TestRegistryUnknownPrompt(t *testing.T) {
	_, err := NewRegistry().ChatTemplate("nope_v9")
	assert.Error(t, err)
}

func TestTitleTemplateFormat(t *testing.T) {
	tpl, err := NewRegistry().ChatTemplate(PromptTitleAnalysisV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"keyword":         "running shoes",
		"organic_results": "1. Best Running Shoes 2024",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "Target keyword: running shoes")
	assert.Contains(t, msgs[1].Content, "1. Best Running Shoes 2024")
}
