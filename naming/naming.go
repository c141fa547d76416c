// Package naming defines the cluster-naming provider seam.
//
// A Namer turns a group of semantically related keywords into a short,
// human-readable cluster label. Naming calls may fail per cluster; the
// clustering orchestration isolates each failure with a deterministic
// fallback label instead of aborting the run.
package naming

import (
	"context"
	"strings"
)

// Namer produces a short descriptive label for a group of keywords.
type Namer interface {
	// NameCluster returns a 2-5 word label describing the given keywords.
	NameCluster(ctx context.Context, keywords []string) (string, error)
}

// FallbackLabel derives a deterministic label from a cluster's first
// keyword, used when the naming provider fails or times out.
func FallbackLabel(keywords []string) string {
	if len(keywords) == 0 {
		return "Topic: (empty)"
	}
	return "Topic: " + keywords[0]
}

// SanitizeLabel normalizes a provider-returned label: first line only,
// surrounding quotes and trailing punctuation stripped, capped at maxWords.
func SanitizeLabel(label string, maxWords int) string {
	if i := strings.IndexAny(label, "\r\n"); i >= 0 {
		label = label[:i]
	}
	label = strings.TrimSpace(label)
	label = strings.Trim(label, `"'`)
	label = strings.TrimRight(label, ".:;,")
	label = strings.TrimSpace(label)

	if maxWords > 0 {
		words := strings.Fields(label)
		if len(words) > maxWords {
			words = words[:maxWords]
		}
		label = strings.Join(words, " ")
	}

	return label
}
