// Package output provides deterministic sorting and encoding for plan
// files and machine-readable responses.
//
// Planning the same operation twice over the same tree must produce the
// same bytes, so plan files can be diffed, cached, and compared in tests
// without false positives.
//
// # Ordering Contract
//
// Every collection that reaches a plan file or a JSON response has exactly
// one documented order:
//
//   - edits: file ASC → start offset ASC (enforced by the plan builder)
//   - moves: old path ASC (enforced by the plan builder)
//   - affectedFiles: path ASC (enforced by the plan builder)
//   - candidates: file ASC → line ASC → category rank (SortCandidates)
//   - scan warnings: code rank → file ASC → message ASC (SortWarnings)
//
// Warnings and unresolved references stored inside a plan keep discovery
// order; the scanner indexes results by walk position, so discovery order
// is itself stable for a given tree.
//
// # JSON Encoding Rules
//
// The DeterministicEncode function produces byte-identical outputs by:
//
//  1. Stable key ordering: object keys are sorted alphabetically
//  2. Float formatting: rounded to max 6 decimal places
//  3. Null handling: nil values and empty collections are omitted entirely
//  4. Custom marshalers: types like time.Time encode through their own
//     MarshalJSON unchanged
//
// # Snapshot Testing
//
// Two runs of one operation differ only in plan id and creation time.
// The snapshot helpers exclude those fields so tests can compare complete
// plans byte for byte:
//
//   - id
//   - createdAt
//   - plan.id
//   - plan.createdAt
//
// # Usage Example
//
//	candidates, warnings, _ := scanner.Candidates(ctx, op)
//	output.SortCandidates(candidates)
//	output.SortWarnings(warnings)
//
//	// Encode the plan canonically for a file on disk
//	data, err := output.DeterministicEncodeIndented(p, "  ")
//
//	// Same operation planned twice compares equal modulo id/createdAt
//	json1, _ := output.DeterministicEncode(plan1)
//	json2, _ := output.DeterministicEncode(plan2)
//	equal, msg := output.CompareSnapshots(json1, json2)
package output
