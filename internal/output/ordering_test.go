package output

import (
	"reflect"
	"testing"

	"remap/internal/plan"
)

func TestSortCandidates(t *testing.T) {
	tests := []struct {
		name     string
		input    []plan.CandidateReference
		expected []plan.CandidateReference
	}{
		{
			name: "sort by file ascending",
			input: []plan.CandidateReference{
				{File: "src/c.ts", Line: 1},
				{File: "src/a.ts", Line: 1},
				{File: "src/b.ts", Line: 1},
			},
			expected: []plan.CandidateReference{
				{File: "src/a.ts", Line: 1},
				{File: "src/b.ts", Line: 1},
				{File: "src/c.ts", Line: 1},
			},
		},
		{
			name: "sort by line when file is equal",
			input: []plan.CandidateReference{
				{File: "src/a.ts", Line: 30},
				{File: "src/a.ts", Line: 3},
				{File: "src/a.ts", Line: 12},
			},
			expected: []plan.CandidateReference{
				{File: "src/a.ts", Line: 3},
				{File: "src/a.ts", Line: 12},
				{File: "src/a.ts", Line: 30},
			},
		},
		{
			name: "sort by category rank when file and line are equal",
			input: []plan.CandidateReference{
				{File: "README.md", Line: 5, Category: plan.CategoryGenericText},
				{File: "README.md", Line: 5, Category: plan.CategoryImport},
				{File: "README.md", Line: 5, Category: plan.CategoryManifest},
			},
			expected: []plan.CandidateReference{
				{File: "README.md", Line: 5, Category: plan.CategoryImport},
				{File: "README.md", Line: 5, Category: plan.CategoryManifest},
				{File: "README.md", Line: 5, Category: plan.CategoryGenericText},
			},
		},
		{
			name:     "empty slice",
			input:    []plan.CandidateReference{},
			expected: []plan.CandidateReference{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortCandidates(tt.input)
			if !reflect.DeepEqual(tt.input, tt.expected) {
				t.Errorf("SortCandidates() = %v, want %v", tt.input, tt.expected)
			}
		})
	}
}

func TestSortCandidatesStability(t *testing.T) {
	// Identical sort keys keep their original relative order
	input := []plan.CandidateReference{
		{File: "src/a.ts", Line: 7, Category: plan.CategoryImport, Matched: "first"},
		{File: "src/a.ts", Line: 7, Category: plan.CategoryImport, Matched: "second"},
		{File: "src/a.ts", Line: 7, Category: plan.CategoryImport, Matched: "third"},
	}

	SortCandidates(input)

	if input[0].Matched != "first" || input[1].Matched != "second" || input[2].Matched != "third" {
		t.Errorf("SortCandidates() is not stable: %v", input)
	}
}

func TestSortWarnings(t *testing.T) {
	tests := []struct {
		name     string
		input    []plan.Warning
		expected []plan.Warning
	}{
		{
			name: "sort by code rank",
			input: []plan.Warning{
				{Code: plan.WarnAliasUnresolved, File: "src/a.ts", Message: "$lib/x"},
				{Code: plan.WarnScanIncomplete, Message: "scan stopped"},
				{Code: plan.WarnParseFailure, File: "src/b.ts", Message: "bad syntax"},
			},
			expected: []plan.Warning{
				{Code: plan.WarnScanIncomplete, Message: "scan stopped"},
				{Code: plan.WarnParseFailure, File: "src/b.ts", Message: "bad syntax"},
				{Code: plan.WarnAliasUnresolved, File: "src/a.ts", Message: "$lib/x"},
			},
		},
		{
			name: "sort by file when code is equal",
			input: []plan.Warning{
				{Code: plan.WarnParseFailure, File: "src/c.ts", Message: "m"},
				{Code: plan.WarnParseFailure, File: "src/a.ts", Message: "m"},
				{Code: plan.WarnParseFailure, File: "src/b.ts", Message: "m"},
			},
			expected: []plan.Warning{
				{Code: plan.WarnParseFailure, File: "src/a.ts", Message: "m"},
				{Code: plan.WarnParseFailure, File: "src/b.ts", Message: "m"},
				{Code: plan.WarnParseFailure, File: "src/c.ts", Message: "m"},
			},
		},
		{
			name: "sort by message when code and file are equal",
			input: []plan.Warning{
				{Code: plan.WarnAliasUnresolved, File: "src/a.ts", Message: "$lib/zeta"},
				{Code: plan.WarnAliasUnresolved, File: "src/a.ts", Message: "$lib/alpha"},
			},
			expected: []plan.Warning{
				{Code: plan.WarnAliasUnresolved, File: "src/a.ts", Message: "$lib/alpha"},
				{Code: plan.WarnAliasUnresolved, File: "src/a.ts", Message: "$lib/zeta"},
			},
		},
		{
			name: "unknown codes sort last",
			input: []plan.Warning{
				{Code: "mystery", Message: "m"},
				{Code: plan.WarnOverlapDropped, Message: "m"},
			},
			expected: []plan.Warning{
				{Code: plan.WarnOverlapDropped, Message: "m"},
				{Code: "mystery", Message: "m"},
			},
		},
		{
			name:     "empty slice",
			input:    []plan.Warning{},
			expected: []plan.Warning{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortWarnings(tt.input)
			if !reflect.DeepEqual(tt.input, tt.expected) {
				t.Errorf("SortWarnings() = %v, want %v", tt.input, tt.expected)
			}
		})
	}
}

func TestSortDeterminism(t *testing.T) {
	// Sorting shuffled copies of the same candidates converges on one order
	base := []plan.CandidateReference{
		{File: "src/a.ts", Line: 3, Category: plan.CategoryImport, Matched: "./util"},
		{File: "src/a.ts", Line: 19, Category: plan.CategoryGenericText},
		{File: "docs/guide.md", Line: 4, Category: plan.CategoryGenericText},
		{File: "package.json", Line: 12, Category: plan.CategoryManifest},
	}

	shuffled := []plan.CandidateReference{base[2], base[0], base[3], base[1]}
	reversed := []plan.CandidateReference{base[3], base[2], base[1], base[0]}

	SortCandidates(shuffled)
	SortCandidates(reversed)

	if !reflect.DeepEqual(shuffled, reversed) {
		t.Errorf("orders diverge:\n%v\nvs\n%v", shuffled, reversed)
	}
	if shuffled[0].File != "docs/guide.md" || shuffled[3].File != "src/a.ts" {
		t.Errorf("unexpected final order: %v", shuffled)
	}
}
