package version_test

import (
	"testing"

	"fx-agent/internal/version"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey(t *testing.T) {
	assert := assert.New(t)

	key1 := version.CacheKey("fxcache", "100 usd to eur")
	key2 := version.CacheKey("fxcache", "100 usd to eur")
	assert.Equal(key1, key2)

	// Different prompts must never collide on the same key.
	key3 := version.CacheKey("fxcache", "100 usd to gbp")
	assert.NotEqual(key1, key3)

	assert.Contains(key1, "fxcache:")
	assert.Contains(key1, version.ComponentVersions.Tools)
}
