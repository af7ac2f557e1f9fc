package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	raw := []byte(`
documents:
  - mainKeyword: "  best running shoes "
    organicResults:
      - title: Top 10 running shoes
        link: https://example.com/shoes
        position: 1
    peopleAlsoAsk: []
    aiOverview: ""
  - mainKeyword: trail shoes
`)

	reqs, err := parseSeed(raw)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "best running shoes", reqs[0].MainKeyword)
	require.Len(t, reqs[0].OrganicResults, 1)
	assert.Equal(t, "Top 10 running shoes", reqs[0].OrganicResults[0].(map[string]any)["title"])
	assert.Nil(t, reqs[0].AIOverview)
	assert.Equal(t, "trail shoes", reqs[1].MainKeyword)
}

func TestParseSeedRejectsInvalidDocument(t *testing.T) {
	raw := []byte(`
documents:
  - mainKeyword: ok
  - organicResults: []
`)

	_, err := parseSeed(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document 1")
}

func TestParseSeedEmpty(t *testing.T) {
	_, err := parseSeed([]byte("documents: []\n"))
	assert.EqualError(t, err, "seed file has no documents")

	_, err = parseSeed([]byte("documents: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid seed file")
}
