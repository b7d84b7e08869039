package output

import (
	"sort"

	"remap/internal/plan"
)

// SortCandidates sorts scan candidates by file ASC, line ASC, category rank
func SortCandidates(candidates []plan.CandidateReference) {
	sort.SliceStable(candidates, func(i, j int) bool {
		// Primary: file ASC
		if candidates[i].File != candidates[j].File {
			return candidates[i].File < candidates[j].File
		}
		// Secondary: line ASC
		if candidates[i].Line != candidates[j].Line {
			return candidates[i].Line < candidates[j].Line
		}
		// Tertiary: category rank
		return GetCategoryRank(candidates[i].Category) < GetCategoryRank(candidates[j].Category)
	})
}

// SortWarnings sorts warnings by code rank, file ASC, message ASC, so
// scan-stopping problems surface before cosmetic ones.
func SortWarnings(warnings []plan.Warning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		// Primary: code rank
		iRank := GetWarningRank(warnings[i].Code)
		jRank := GetWarningRank(warnings[j].Code)
		if iRank != jRank {
			return iRank < jRank
		}
		// Secondary: file ASC
		if warnings[i].File != warnings[j].File {
			return warnings[i].File < warnings[j].File
		}
		// Tertiary: message ASC
		return warnings[i].Message < warnings[j].Message
	})
}
