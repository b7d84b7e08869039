package testutil

// Golden files must not depend on where a test ran or when. Before a
// result is compared or written it is scrubbed: volatile fields are
// dropped, scratch-directory paths are masked, and record slices get
// a stable order.

import (
	"bytes"
	"encoding/json"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"testing"
)

// volatileFields are dropped before comparison. Plan IDs and
// timestamps differ per run; content hashes and byte offsets track
// exact file bytes, which the apply tests cover directly.
var volatileFields = map[string]struct{}{
	"id":            {},
	"createdAt":     {},
	"updatedAt":     {},
	"appliedAt":     {},
	"timestamp":     {},
	"duration":      {},
	"contentHashes": {},
	"start":         {},
	"end":           {},
}

// sortKeys orders records inside slices; earlier keys take priority,
// and a record carrying a key sorts before one without it.
var sortKeys = []string{"file", "line", "category", "oldPath", "path", "code", "specifier", "kind", "name"}

// tempDirPattern masks OS scratch locations that leak into messages.
var tempDirPattern = regexp.MustCompile(`(?:/tmp/|/var/folders/[^/]+/[^/]+/[^/]+/|C:\\Users\\[^\\]+\\|C:/Users/[^/]+/)[^/\\]+`)

// MarshalNormalized renders data as stable JSON with two-space indent
// and a trailing newline. encoding/json sorts object keys on its own,
// so alphabetical key order comes for free.
func MarshalNormalized(t *testing.T, fixture *FixtureContext, data any) []byte {
	t.Helper()

	out, err := json.MarshalIndent(scrubValue(roundTrip(t, data), fixture.Root), "", "  ")
	if err != nil {
		t.Fatalf("marshal normalized data: %v", err)
	}
	return append(out, '\n')
}

// DeepEqual reports whether a and b match after scrubbing. Used for
// determinism checks that compare two live results to each other
// instead of to a golden file.
func DeepEqual(t *testing.T, fixture *FixtureContext, a, b any) bool {
	t.Helper()
	return reflect.DeepEqual(
		scrubValue(roundTrip(t, a), fixture.Root),
		scrubValue(roundTrip(t, b), fixture.Root),
	)
}

// StructToMap flattens a typed struct into the map form scrubbing
// works on.
func StructToMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := roundTrip(t, v).(map[string]any)
	if !ok {
		t.Fatalf("value of type %T does not marshal to a JSON object", v)
	}
	return m
}

// SliceToMaps flattens a slice of typed records the same way.
func SliceToMaps(t *testing.T, v any) []any {
	t.Helper()
	switch s := roundTrip(t, v).(type) {
	case nil:
		return nil
	case []any:
		return s
	default:
		t.Fatalf("value of type %T does not marshal to a JSON array", v)
		return nil
	}
}

// roundTrip deep-copies v through JSON so scrubbing never mutates the
// caller's value and typed structs collapse to plain maps.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal for normalization: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal for normalization: %v", err)
	}
	return out
}

func scrubValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if _, drop := volatileFields[k]; drop {
				continue
			}
			out[k] = scrubValue(child, root)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = scrubValue(child, root)
		}
		sortRecords(out)
		return out
	case string:
		return scrubString(val, root)
	default:
		return v
	}
}

func scrubString(s, root string) string {
	if root != "" {
		s = strings.ReplaceAll(s, root, "<fixture>")
	}
	s = tempDirPattern.ReplaceAllString(s, "<tempdir>")
	return strings.ReplaceAll(s, "\\", "/")
}

// sortRecords orders a slice of records deterministically. Slices of
// scalars keep their original order, which is meaningful (edit order
// inside a file, for instance).
func sortRecords(s []any) {
	if len(s) == 0 {
		return
	}
	if _, ok := s[0].(map[string]any); !ok {
		return
	}
	sort.SliceStable(s, func(i, j int) bool {
		a, aok := s[i].(map[string]any)
		b, bok := s[j].(map[string]any)
		if !aok || !bok {
			return false
		}
		return recordLess(a, b)
	})
}

func recordLess(a, b map[string]any) bool {
	for _, key := range sortKeys {
		av, aok := a[key]
		bv, bok := b[key]
		switch {
		case aok && bok:
			if c := orderValues(av, bv); c != 0 {
				return c < 0
			}
		case aok:
			return true
		case bok:
			return false
		}
	}
	return false
}

func orderValues(a, b any) int {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
	}
	if an, ok := a.(float64); ok {
		if bn, ok := b.(float64); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
			return 0
		}
	}
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return bytes.Compare(aj, bj)
}
