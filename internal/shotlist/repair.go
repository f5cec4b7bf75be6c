package shotlist

import (
	"fmt"

	"github.com/ndelia/storycut/internal/types"
)

// Fallback literals used when the generator omits top-level fields or when a
// synthesized entry has no known clip duration.
const (
	FallbackProjectName    = "Video Project"
	FallbackNarrativeTheme = "Compilation of available footage"
	fallbackShotDuration   = "00:01:00"
)

// Repair brings a non-conforming document closer to schema conformance
// without discarding it. Absent top-level fields are filled with fixed
// fallbacks, and every clip in allFilenames that is not yet represented among
// the entries gets a minimal synthesized shot appended, in allFilenames
// order. The pass is total and idempotent: membership is keyed on filename,
// so repairing an already-repaired document appends nothing.
//
// The repaired document is returned regardless of whether it now validates;
// the caller logs the re-validation outcome and persists either way.
func Repair(doc map[string]any, allFilenames []string, info map[string]types.ClipMetadata) map[string]any {
	if doc == nil {
		doc = make(map[string]any)
	}

	shots, ok := doc["shots"].([]any)
	if !ok {
		shots = []any{}
	}
	if _, ok := doc["project_name"]; !ok {
		doc["project_name"] = FallbackProjectName
	}
	if _, ok := doc["narrative_theme"]; !ok {
		doc["narrative_theme"] = FallbackNarrativeTheme
	}

	present := shotFilenames(shots)
	for _, name := range allFilenames {
		if _, ok := present[name]; ok {
			continue
		}
		end := fallbackShotDuration
		if meta, ok := info[name]; ok && meta.DurationFormatted != "" {
			end = meta.DurationFormatted
		}
		shots = append(shots, map[string]any{
			"filename":       name,
			"description":    fmt.Sprintf("Added shot from %s", name),
			"start_time":     "00:00:00",
			"end_time":       end,
			"duration":       end,
			"transition_in":  "cut",
			"transition_out": "cut",
		})
		present[name] = struct{}{}
	}

	doc["shots"] = shots
	return doc
}
