package output

import (
	"sort"

	"remap/internal/plan"
)

// CategoryRank defines the display order for edit categories
// Lower numbers print first. Display rank is independent of the overlap
// precedence the plan builder applies.
var CategoryRank = map[plan.Category]int{
	plan.CategoryImport:      1,
	plan.CategoryManifest:    2,
	plan.CategoryGenericText: 3,
	plan.CategoryGitignore:   4,
}

// WarningRank defines the display order for warning codes
// Lower numbers print first (most urgent first).
var WarningRank = map[string]int{
	plan.WarnScanIncomplete:  1,
	plan.WarnParseFailure:    2,
	plan.WarnAliasUnresolved: 3,
	plan.WarnOverlapDropped:  4,
}

// GetCategoryRank returns the display rank for a given category
// Unknown categories sort after every known one.
func GetCategoryRank(c plan.Category) int {
	if rank, ok := CategoryRank[c]; ok {
		return rank
	}
	return len(CategoryRank) + 1
}

// GetWarningRank returns the display rank for a given warning code
// Unknown codes sort after every known one.
func GetWarningRank(code string) int {
	if rank, ok := WarningRank[code]; ok {
		return rank
	}
	return len(WarningRank) + 1
}

// RankedCategories returns every known category in display order.
func RankedCategories() []plan.Category {
	categories := make([]plan.Category, 0, len(CategoryRank))
	for c := range CategoryRank {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return CategoryRank[categories[i]] < CategoryRank[categories[j]]
	})
	return categories
}
