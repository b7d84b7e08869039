package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"remap/internal/output"
	"remap/internal/plan"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatText:
		return formatText(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatText formats the response in human-readable format
func formatText(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *PlanResponseCLI:
		return formatPlanText(v)
	case *ApplyResponseCLI:
		return formatApplyText(v)
	case *ScanResponseCLI:
		return formatScanText(v)
	case *AliasesResponseCLI:
		return formatAliasesText(v)
	case *CapabilitiesResponseCLI:
		return formatCapabilitiesText(v)
	case *PlansResponseCLI:
		return formatPlansText(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

// formatPlanText formats a PlanResponseCLI in human-readable format
func formatPlanText(resp *PlanResponseCLI) (string, error) {
	var b strings.Builder
	p := resp.Plan

	b.WriteString(fmt.Sprintf("Edit Plan %s\n", shortID(p.ID)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("Operation: %s %s → %s%s\n",
		p.Operation.Kind, p.Operation.OldPath, p.Operation.NewPath, operationNote(p.Operation)))
	b.WriteString(fmt.Sprintf("Edits: %d across %d files, moves: %d\n",
		p.Summary.TotalEdits, p.Summary.FilesToModify, p.Summary.Moves))
	if len(p.Summary.EditsByCategory) > 0 {
		b.WriteString(fmt.Sprintf("By category: %s\n", categoryCounts(p.Summary.EditsByCategory)))
	}
	if p.Incomplete {
		b.WriteString("! Plan is incomplete: the scan was interrupted before covering every file\n")
	}
	b.WriteString("\n")

	for _, file := range p.EditedFiles() {
		b.WriteString(fmt.Sprintf("%s\n", file))
		for _, e := range p.EditsForFile(file) {
			b.WriteString(fmt.Sprintf("  %4d: %s → %s\n", e.Line, trimText(e.OldText, 36), trimText(e.NewText, 36)))
		}
	}
	if len(p.Edits) > 0 {
		b.WriteString("\n")
	}

	if len(p.Moves) > 0 {
		b.WriteString("Moves:\n")
		for _, m := range p.Moves {
			b.WriteString(fmt.Sprintf("  %s → %s\n", m.OldPath, m.NewPath))
		}
		b.WriteString("\n")
	}

	if len(p.Unresolved) > 0 {
		b.WriteString("Unresolved references:\n")
		for _, u := range p.Unresolved {
			b.WriteString(fmt.Sprintf("  %s:%d %q (%s)\n", u.File, u.Line, u.Specifier, u.Reason))
		}
		b.WriteString("\n")
	}

	if len(p.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range p.Warnings {
			if w.File != "" {
				b.WriteString(fmt.Sprintf("  ! [%s] %s: %s\n", w.Code, w.File, w.Message))
			} else {
				b.WriteString(fmt.Sprintf("  ! [%s] %s\n", w.Code, w.Message))
			}
		}
		b.WriteString("\n")
	}

	if v := resp.Verification; v != nil {
		if v.Checked {
			b.WriteString(fmt.Sprintf("Verification: checked against %s, %d notes\n", v.IndexPath, len(v.Notes)))
			for _, n := range v.Notes {
				b.WriteString(fmt.Sprintf("  ? %s:%d %s\n", n.File, n.Line, n.Message))
			}
		} else if v.Skipped != "" {
			b.WriteString(fmt.Sprintf("Verification: skipped (%s)\n", v.Skipped))
		}
		b.WriteString("\n")
	}

	if resp.SavedToJournal {
		b.WriteString(fmt.Sprintf("Saved to journal. Apply with: remap apply %s\n", p.ID))
	}
	if resp.OutFile != "" {
		b.WriteString(fmt.Sprintf("Plan written to %s\n", resp.OutFile))
	}

	return b.String(), nil
}

// formatApplyText formats an ApplyResponseCLI in human-readable format
func formatApplyText(resp *ApplyResponseCLI) (string, error) {
	var b strings.Builder
	r := resp.Result

	b.WriteString(fmt.Sprintf("Apply Result - plan %s\n", shortID(r.PlanID)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if r.DryRun {
		b.WriteString(fmt.Sprintf("Dry run: %d edits and %d moves would apply\n", r.AppliedEdits, r.AppliedMoves))
	} else {
		icon := "✓"
		if len(r.Conflicts) > 0 {
			icon = "⚠"
		}
		b.WriteString(fmt.Sprintf("%s Applied %d edits and %d moves\n", icon, r.AppliedEdits, r.AppliedMoves))
	}

	if len(r.Conflicts) > 0 {
		b.WriteString("\nConflicts:\n")
		for _, c := range r.Conflicts {
			b.WriteString(fmt.Sprintf("  ✗ %s [%s] %s\n", c.File, c.Code, c.Detail))
		}
	}
	if len(r.SkippedFiles) > 0 {
		b.WriteString("\nSkipped files:\n")
		for _, f := range r.SkippedFiles {
			b.WriteString(fmt.Sprintf("  - %s\n", f))
		}
	}

	return b.String(), nil
}

// formatScanText formats a ScanResponseCLI in human-readable format
func formatScanText(resp *ScanResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Candidate References: %s → %s\n", resp.Operation.OldPath, resp.Operation.NewPath))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Found %d candidates\n\n", resp.Total))

	lastFile := ""
	for _, c := range resp.Candidates {
		if c.File != lastFile {
			b.WriteString(fmt.Sprintf("%s\n", c.File))
			lastFile = c.File
		}
		b.WriteString(fmt.Sprintf("  %4d [%s/%s] %s\n", c.Line, c.Method, c.Category, c.Matched))
		if c.LineText != "" {
			b.WriteString(fmt.Sprintf("       %s\n", trimText(strings.TrimSpace(c.LineText), 72)))
		}
	}

	if len(resp.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range resp.Warnings {
			if w.File != "" {
				b.WriteString(fmt.Sprintf("  ! [%s] %s: %s\n", w.Code, w.File, w.Message))
			} else {
				b.WriteString(fmt.Sprintf("  ! [%s] %s\n", w.Code, w.Message))
			}
		}
	}

	return b.String(), nil
}

// formatAliasesText formats an AliasesResponseCLI in human-readable format
func formatAliasesText(resp *AliasesResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("Alias Rules\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if resp.Message != "" {
		b.WriteString(resp.Message + "\n")
		return b.String(), nil
	}

	b.WriteString(fmt.Sprintf("Source: %s\n", resp.Source))
	b.WriteString(fmt.Sprintf("Base Dir: %s\n\n", resp.BaseDir))

	for _, rule := range resp.Rules {
		b.WriteString(fmt.Sprintf("  %-20s → %s\n", rule.Pattern, strings.Join(rule.Replacements, ", ")))
	}

	return b.String(), nil
}

// formatCapabilitiesText formats a CapabilitiesResponseCLI in human-readable format
func formatCapabilitiesText(resp *CapabilitiesResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("Language Capabilities\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, l := range resp.Languages {
		b.WriteString(fmt.Sprintf("%s\n", l.Language))
		if len(l.Extensions) > 0 {
			b.WriteString(fmt.Sprintf("  Extensions: %s\n", strings.Join(l.Extensions, ", ")))
		}
		if len(l.Filenames) > 0 {
			b.WriteString(fmt.Sprintf("  Filenames: %s\n", strings.Join(l.Filenames, ", ")))
		}
		b.WriteString(fmt.Sprintf("  Supports: %s\n\n", strings.Join(l.Supports, ", ")))
	}

	return b.String(), nil
}

// formatPlansText formats a PlansResponseCLI in human-readable format
func formatPlansText(resp *PlansResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("Journaled Plans\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(resp.Plans) == 0 {
		b.WriteString("(journal is empty)\n")
		return b.String(), nil
	}

	for _, e := range resp.Plans {
		applied := " "
		if e.Applied {
			applied = "✓"
		}
		b.WriteString(fmt.Sprintf("%s %s  %s  %s %s → %s  (%d edits, %d moves)\n",
			applied,
			shortID(e.ID),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Kind,
			e.OldPath,
			e.NewPath,
			e.Edits,
			e.Moves))
	}
	b.WriteString("\nShow one with: remap plans show <id>\n")

	return b.String(), nil
}

// shortID truncates a plan id for display
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// trimText shortens long edit text for single-line display
func trimText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func operationNote(op plan.Operation) string {
	switch {
	case op.IsPackage:
		return " (package)"
	case op.IsDir:
		return " (directory)"
	default:
		return ""
	}
}

func categoryCounts(counts map[plan.Category]int) string {
	var parts []string
	for _, c := range output.RankedCategories() {
		if n := counts[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", c, n))
		}
	}
	return strings.Join(parts, ", ")
}
