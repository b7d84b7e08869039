package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SnapshotExcludeFields lists the volatile fields excluded when comparing
// plans or responses in tests. Planning the same operation twice differs
// only here.
var SnapshotExcludeFields = []string{
	"id",
	"createdAt",
	"plan.id",
	"plan.createdAt",
}

// NormalizeForSnapshot removes volatile fields and re-encodes canonically
// so snapshots compare byte for byte.
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

// CompareSnapshots returns true if two encoded responses are identical
// (ignoring volatile fields)
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

// SnapshotEqual compares two values for equality after JSON encoding,
// ignoring volatile fields.
func SnapshotEqual(a, b interface{}) bool {
	aJSON, err := json.Marshal(a)
	if err != nil {
		return false
	}

	bJSON, err := json.Marshal(b)
	if err != nil {
		return false
	}

	equal, _ := CompareSnapshots(aJSON, bJSON)
	return equal
}

// removeNestedField removes a field from a parsed object using dot
// notation, e.g. "plan.id" removes "id" from the "plan" object.
func removeNestedField(data map[string]interface{}, path string) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return
	}

	current := data
	for i := 0; i < len(parts)-1; i++ {
		next, ok := current[parts[i]].(map[string]interface{})
		if !ok {
			return
		}
		current = next
	}

	delete(current, parts[len(parts)-1])
}

// splitPath splits a dot-separated path, dropping empty segments.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
