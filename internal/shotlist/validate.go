// Package shotlist validates and repairs the structured edit plan returned by
// the narrative generator. The generator is free-text-driven and unreliable,
// so every malformed shape is reported as a value, never thrown: validation
// yields a SchemaError describing the first violated rule and repair is a
// total, idempotent best-effort pass that never fails.
package shotlist

import (
	"fmt"
	"strconv"
	"strings"
)

// Required document and entry keys, in detection order.
var (
	requiredKeys = []string{"project_name", "narrative_theme", "shots"}
	shotKeys     = []string{
		"filename", "description", "start_time", "end_time", "duration",
		"transition_in", "transition_out",
	}
	timeKeys = []string{"start_time", "end_time", "duration"}
)

// SchemaError describes the first rule a candidate shot-list document
// violates. The message names the offending index and field where applicable
// and drives both logging and the repair step.
type SchemaError struct {
	msg string
}

func (e *SchemaError) Error() string { return e.msg }

func schemaErrorf(format string, args ...any) *SchemaError {
	return &SchemaError{msg: fmt.Sprintf(format, args...)}
}

// Validate checks a decoded shot-list document of unconstrained shape against
// the required schema, short-circuiting on the first failure. When
// knownFilenames is non-empty, every identifier in it must appear as some
// entry's filename; duplicates among entries are tolerated. Returns nil when
// the document conforms.
func Validate(doc map[string]any, knownFilenames []string) error {
	for _, key := range requiredKeys {
		if _, ok := doc[key]; !ok {
			return schemaErrorf("missing required key: '%s'", key)
		}
	}

	shots, ok := doc["shots"].([]any)
	if !ok {
		return schemaErrorf("'shots' must be an array")
	}
	if len(shots) == 0 {
		return schemaErrorf("'shots' array cannot be empty")
	}

	for i, entry := range shots {
		shot, ok := entry.(map[string]any)
		if !ok {
			return schemaErrorf("shot %d must be an object", i+1)
		}
		for _, key := range shotKeys {
			if _, ok := shot[key]; !ok {
				return schemaErrorf("shot %d is missing required key: '%s'", i+1, key)
			}
		}
		for _, key := range timeKeys {
			if err := validateTimecode(i, key, shot[key]); err != nil {
				return err
			}
		}
	}

	if len(knownFilenames) > 0 {
		present := shotFilenames(shots)
		var missing []string
		for _, name := range knownFilenames {
			if _, ok := present[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return schemaErrorf("shot list is missing the following files: %s", strings.Join(missing, ", "))
		}
	}

	return nil
}

// validateTimecode checks one HH:MM:SS field: string type, exactly three
// colon-separated components, each a non-negative integer, minutes and
// seconds below 60. Leading zeros are not required.
func validateTimecode(idx int, key string, v any) error {
	s, ok := v.(string)
	if !ok {
		return schemaErrorf("shot %d: '%s' must be a string", idx+1, key)
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return schemaErrorf("shot %d: '%s' must be in format 'HH:MM:SS'", idx+1, key)
	}

	vals := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return schemaErrorf("shot %d: '%s' must contain numeric values", idx+1, key)
		}
		vals[i] = n
	}

	hours, minutes, seconds := vals[0], vals[1], vals[2]
	if hours < 0 || minutes < 0 || minutes >= 60 || seconds < 0 || seconds >= 60 {
		return schemaErrorf("shot %d: '%s' contains invalid time values", idx+1, key)
	}
	return nil
}

// shotFilenames collects the filename of every well-formed entry. Entries
// that are not objects or lack a string filename are skipped; Validate has
// already reported those on the strict path.
func shotFilenames(shots []any) map[string]struct{} {
	out := make(map[string]struct{}, len(shots))
	for _, entry := range shots {
		shot, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := shot["filename"].(string); ok {
			out[name] = struct{}{}
		}
	}
	return out
}
