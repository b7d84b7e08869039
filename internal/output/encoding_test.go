package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"remap/internal/plan"
	"remap/internal/scope"
)

func TestDeterministicEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		wantJSON string
	}{
		{
			name: "simple struct with floats",
			input: struct {
				Name  string  `json:"name"`
				Score float64 `json:"score"`
				Count int     `json:"count"`
			}{
				Name:  "scan",
				Score: 0.123456789,
				Count: 42,
			},
			wantJSON: `{"count":42,"name":"scan","score":0.123457}`,
		},
		{
			name: "struct with omitted nil fields",
			input: struct {
				File    string  `json:"file"`
				Matched *string `json:"matched,omitempty"`
			}{
				File:    "src/app.ts",
				Matched: nil,
			},
			wantJSON: `{"file":"src/app.ts"}`,
		},
		{
			name: "struct with zero values and omitempty",
			input: struct {
				File string `json:"file"`
				Line int    `json:"line,omitempty"`
			}{
				File: "src/app.ts",
				Line: 0,
			},
			wantJSON: `{"file":"src/app.ts"}`,
		},
		{
			name: "map with sorted keys",
			input: map[string]interface{}{
				"zebra": "last",
				"alpha": "first",
				"beta":  "second",
			},
			wantJSON: `{"alpha":"first","beta":"second","zebra":"last"}`,
		},
		{
			name: "category map keys",
			input: map[plan.Category]int{
				plan.CategoryManifest: 2,
				plan.CategoryImport:   5,
			},
			wantJSON: `{"import":5,"manifest":2}`,
		},
		{
			name: "slice of structs",
			input: []plan.FileMove{
				{OldPath: "src/old-dir/a.ts", NewPath: "src/new-dir/a.ts"},
				{OldPath: "src/old-dir/b.ts", NewPath: "src/new-dir/b.ts"},
			},
			wantJSON: `[{"newPath":"src/new-dir/a.ts","oldPath":"src/old-dir/a.ts"},{"newPath":"src/new-dir/b.ts","oldPath":"src/old-dir/b.ts"}]`,
		},
		{
			name:     "nil value",
			input:    nil,
			wantJSON: `null`,
		},
		{
			name:     "empty slice returns null",
			input:    []string{},
			wantJSON: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeterministicEncode(tt.input)
			if err != nil {
				t.Fatalf("DeterministicEncode() error = %v", err)
			}

			// Compare JSON values, not raw strings
			var gotObj, wantObj interface{}
			if err := json.Unmarshal(got, &gotObj); err != nil {
				t.Fatalf("Failed to unmarshal got: %v", err)
			}
			if err := json.Unmarshal([]byte(tt.wantJSON), &wantObj); err != nil {
				t.Fatalf("Failed to unmarshal want: %v", err)
			}

			gotJSON, _ := json.Marshal(gotObj)
			wantJSON, _ := json.Marshal(wantObj)

			if !bytes.Equal(gotJSON, wantJSON) {
				t.Errorf("DeterministicEncode() = %s, want %s", string(got), tt.wantJSON)
			}
		})
	}
}

func TestDeterministicEncodeTimeFields(t *testing.T) {
	// time.Time has only unexported fields; it must encode through its
	// own MarshalJSON instead of being reflected into nothing.
	input := struct {
		CreatedAt time.Time `json:"createdAt"`
		Name      string    `json:"name"`
	}{
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Name:      "rename",
	}

	got, err := DeterministicEncode(input)
	if err != nil {
		t.Fatalf("DeterministicEncode() error = %v", err)
	}

	if !bytes.Contains(got, []byte(`"createdAt":"2026-03-14T09:30:00Z"`)) {
		t.Errorf("time field missing or mangled: %s", string(got))
	}
}

func TestDeterministicEncodeConsistency(t *testing.T) {
	p := testPlan()

	// Encode 10 times
	var results [][]byte
	for i := 0; i < 10; i++ {
		encoded, err := DeterministicEncode(p)
		if err != nil {
			t.Fatalf("DeterministicEncode() error = %v", err)
		}
		results = append(results, encoded)
	}

	// All results should be byte-identical
	for i := 1; i < len(results); i++ {
		if !bytes.Equal(results[0], results[i]) {
			t.Errorf("Encoding is not deterministic:\nrun 0: %s\nrun %d: %s", string(results[0]), i, string(results[i]))
		}
	}
}

func TestFloatRounding(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{
			name:  "round to 6 decimal places",
			input: 0.123456789,
			want:  0.123457,
		},
		{
			name:  "no rounding needed",
			input: 0.123456,
			want:  0.123456,
		},
		{
			name:  "round up",
			input: 0.1234567,
			want:  0.123457,
		},
		{
			name:  "round down",
			input: 0.1234564,
			want:  0.123456,
		},
		{
			name:  "zero",
			input: 0.0,
			want:  0.0,
		},
		{
			name:  "negative",
			input: -0.123456789,
			want:  -0.123457,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.input)
			if got != tt.want {
				t.Errorf("RoundFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeterministicEncodeIndented(t *testing.T) {
	p := testPlan()

	got, err := DeterministicEncodeIndented(p, "  ")
	if err != nil {
		t.Fatalf("DeterministicEncodeIndented() error = %v", err)
	}

	// Verify it's valid JSON
	var decoded map[string]interface{}
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}

	// Verify indentation is present
	if !bytes.Contains(got, []byte("\n")) {
		t.Error("DeterministicEncodeIndented() should produce indented output")
	}
}

func TestEditPlanEncoding(t *testing.T) {
	p := testPlan()

	result1, err := DeterministicEncode(p)
	if err != nil {
		t.Fatalf("DeterministicEncode() error = %v", err)
	}
	result2, err := DeterministicEncode(p)
	if err != nil {
		t.Fatalf("DeterministicEncode() error = %v", err)
	}

	if !bytes.Equal(result1, result2) {
		t.Errorf("Plan encoding is not deterministic:\n%s\nvs\n%s", string(result1), string(result2))
	}

	// Volatile but required fields survive
	if !bytes.Contains(result1, []byte(`"createdAt":"2026-03-14T09:30:00Z"`)) {
		t.Errorf("createdAt missing from encoded plan: %s", string(result1))
	}
	if !bytes.Contains(result1, []byte(`"id":"3f2a9c1e-77aa-4bd0-9e55-0d3c2a1f6b42"`)) {
		t.Error("id missing from encoded plan")
	}

	// Empty omitempty collections are omitted entirely
	if bytes.Contains(result1, []byte(`"unresolved"`)) {
		t.Error("empty unresolved list should be omitted")
	}
	if bytes.Contains(result1, []byte(`"incomplete"`)) {
		t.Error("false incomplete flag should be omitted")
	}

	// Category map keys encode as their string values
	if !bytes.Contains(result1, []byte(`"editsByCategory":{"import":1}`)) {
		t.Errorf("editsByCategory mangled: %s", string(result1))
	}

	// The canonical form still round-trips into a plan
	var decoded plan.EditPlan
	if err := json.Unmarshal(result1, &decoded); err != nil {
		t.Fatalf("canonical plan does not round-trip: %v", err)
	}
	if decoded.ID != p.ID || len(decoded.Edits) != 1 || !decoded.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("round-trip lost data: %+v", decoded)
	}
}

func testPlan() *plan.EditPlan {
	return &plan.EditPlan{
		ID:        "3f2a9c1e-77aa-4bd0-9e55-0d3c2a1f6b42",
		Version:   plan.SchemaVersion,
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Operation: plan.Operation{
			Kind:    plan.OpRename,
			OldPath: "src/util.ts",
			NewPath: "src/helpers.ts",
		},
		Scope: scope.Default(),
		Edits: []plan.TextEdit{
			{
				File:     "src/app.ts",
				Category: plan.CategoryImport,
				Line:     3,
				Start:    24,
				End:      32,
				OldText:  "./util",
				NewText:  "./helpers",
			},
		},
		Moves: []plan.FileMove{
			{OldPath: "src/util.ts", NewPath: "src/helpers.ts"},
		},
		ContentHashes: map[string]string{
			"src/app.ts":  "9c56cc51b374c3ba189210d5b6d4bf57790d351c96c47c02190ecf1e430635ab",
			"src/util.ts": "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae",
		},
		Summary: plan.Summary{
			TotalEdits:      1,
			FilesToModify:   1,
			AffectedFiles:   []string{"src/app.ts"},
			EditsByCategory: map[plan.Category]int{plan.CategoryImport: 1},
			Moves:           1,
		},
	}
}
