package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SnapshotExcludeFields lists fields to exclude when comparing responses for tests
var SnapshotExcludeFields = []string{
	"createdAt",
	"updatedAt",
	"duration",
	"case.createdAt",
	"case.updatedAt",
	"meta.computedAt",
	"meta.durationMs",
}

// NormalizeForSnapshot removes time-varying fields for comparison
func NormalizeForSnapshot(data []byte) ([]byte, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	for _, field := range SnapshotExcludeFields {
		removeNestedField(parsed, field)
	}

	return DeterministicEncode(parsed)
}

// CompareSnapshots returns true if two responses are identical
// (ignoring time-varying fields)
func CompareSnapshots(a, b []byte) (bool, string) {
	normalizedA, err := NormalizeForSnapshot(a)
	if err != nil {
		return false, "failed to normalize snapshot A: " + err.Error()
	}

	normalizedB, err := NormalizeForSnapshot(b)
	if err != nil {
		return false, "failed to normalize snapshot B: " + err.Error()
	}

	if !bytes.Equal(normalizedA, normalizedB) {
		return false, "snapshots differ"
	}
	return true, ""
}

// removeNestedField removes a nested field from a map using dot notation
// e.g., "meta.computedAt" removes "computedAt" from the "meta" object
func removeNestedField(data map[string]interface{}, path string) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return
	}

	current := data
	for i := 0; i < len(parts)-1; i++ {
		nextMap, ok := current[parts[i]].(map[string]interface{})
		if !ok {
			return
		}
		current = nextMap
	}
	delete(current, parts[len(parts)-1])
}

// splitPath splits a dot-separated path into parts
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
