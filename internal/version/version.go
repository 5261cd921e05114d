// Package version centralizes the component versioning used for cache
// invalidation. Response-cache keys embed these strings, so bumping a
// version after changing a tool or the prompt-building logic automatically
// stops stale cached answers from being served.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComponentVersions holds the version strings for the logical parts of the
// agent. Increment the relevant field before deploying a change to that
// component.
var ComponentVersions = struct {
	// Tools should be bumped whenever a tool's schema or behavior changes
	// (e.g. exchange_rate_tool.go).
	Tools string

	// PromptLogic should be bumped whenever the conversation-building logic
	// in the driver changes.
	PromptLogic string
}{
	Tools:       "v1.0",
	PromptLogic: "v1.0",
}

// CacheKey builds a consistent, version-aware key for caching answers. The
// prompt is hashed to a fixed length and the component versions are appended
// so a logic change produces a fresh key.
//
// Example output: "fxcache:a1b2c3d4...:tv1.0_pv1.0"
func CacheKey(prefix, prompt string) string {
	hasher := sha256.New()
	hasher.Write([]byte(prompt))
	promptHash := hex.EncodeToString(hasher.Sum(nil))

	versionString := fmt.Sprintf("tv%s_pv%s",
		ComponentVersions.Tools,
		ComponentVersions.PromptLogic,
	)

	return fmt.Sprintf("%s:%s:%s", prefix, promptHash, versionString)
}
