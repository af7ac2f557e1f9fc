package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:generation:10.0.0.1", BuildRateLimitKey("10.0.0.1", "generation"))
}

func TestReferencePageKey(t *testing.T) {
	a := referencePageKey("https://example.com/a")
	b := referencePageKey("https://example.com/b")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, referencePageKey("https://example.com/a"))
	assert.Len(t, a, len("ref_page:")+64)
}

func TestSerpDocumentKey(t *testing.T) {
	assert.Equal(t, "serp_doc:abc", serpDocumentKey("abc"))
}
