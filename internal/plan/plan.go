package plan

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"

	"remap/internal/scope"
)

// SchemaVersion is bumped when the serialized plan shape changes.
const SchemaVersion = 1

// Category classifies the kind of reference an edit updates. Categories
// form the dedup key together with file and line, and decide which edit
// survives when ranges overlap.
type Category string

const (
	// CategoryImport covers import and module specifier edits in code
	CategoryImport Category = "import"
	// CategoryManifest covers structured manifest fields: dependency names,
	// workspace member lists, module declarations
	CategoryManifest Category = "manifest"
	// CategoryGenericText covers markdown links, string literals, prose,
	// and plain config values
	CategoryGenericText Category = "generic_text"
	// CategoryGitignore covers .gitignore pattern updates
	CategoryGitignore Category = "gitignore"
)

// categoryPrecedence orders categories for overlap resolution. Higher wins.
var categoryPrecedence = map[Category]int{
	CategoryImport:      3,
	CategoryManifest:    2,
	CategoryGenericText: 1,
	CategoryGitignore:   1,
}

// Precedence returns the overlap rank of a category. Unknown categories
// rank below every known one.
func (c Category) Precedence() int {
	return categoryPrecedence[c]
}

// DetectionMethod records which scan pass produced a candidate.
type DetectionMethod string

const (
	// MethodImport means the candidate came from parsed+resolved imports
	MethodImport DetectionMethod = "import"
	// MethodRewrite means a trial rewrite changed the file
	MethodRewrite DetectionMethod = "rewrite"
	// MethodText means a generic text heuristic matched
	MethodText DetectionMethod = "text"
)

// OperationKind distinguishes a rename within a directory from a move.
type OperationKind string

const (
	OpRename OperationKind = "rename"
	OpMove   OperationKind = "move"
)

// Operation describes the rename or move a plan implements. Paths are
// canonical (repo-relative, forward slashes).
type Operation struct {
	Kind    OperationKind `json:"kind"`
	OldPath string        `json:"oldPath"`
	NewPath string        `json:"newPath"`
	// IsDir is true when the target is a directory
	IsDir bool `json:"isDir"`
	// IsPackage is true when the moved directory contains a recognized
	// manifest, which triggers manifest and workspace member updates
	IsPackage bool `json:"isPackage,omitempty"`
	// OldName and NewName are the package names when IsPackage is set
	OldName string `json:"oldName,omitempty"`
	NewName string `json:"newName,omitempty"`
}

// CandidateReference is one raw detection hit, before scope filtering and
// overlap resolution. The scan command prints these directly.
type CandidateReference struct {
	File     string          `json:"file"`
	Line     int             `json:"line"`
	Category Category        `json:"category"`
	Method   DetectionMethod `json:"method"`
	// Matched is the specifier or token that matched the target
	Matched string `json:"matched,omitempty"`
	// LineText is the content of the matched line, for preview output
	LineText string `json:"lineText,omitempty"`
}

// TextEdit is a byte-range replacement in one file. Offsets address the
// content recorded in the plan's hash for that file; Line is the 1-based
// line of Start.
type TextEdit struct {
	File     string   `json:"file"`
	Category Category `json:"category"`
	Line     int      `json:"line"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	OldText  string   `json:"oldText"`
	NewText  string   `json:"newText"`
}

// FileMove is one filesystem rename. Directory moves list one entry per
// contained file even when a file needs no content edits.
type FileMove struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

// Warning is a non-fatal problem recorded during scanning or planning.
type Warning struct {
	File    string `json:"file,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warning codes.
const (
	WarnParseFailure    = "parse_failure"
	WarnAliasUnresolved = "alias_unresolved"
	WarnOverlapDropped  = "overlap_dropped"
	WarnScanIncomplete  = "scan_incomplete"
)

// UnresolvedReference is a specifier that matched the target name but
// whose resolution could not be completed, so no edit was produced.
type UnresolvedReference struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Specifier string `json:"specifier"`
	Reason    string `json:"reason"`
}

// Summary is computed from the edit list, never asserted independently.
type Summary struct {
	TotalEdits           int              `json:"totalEdits"`
	FilesToModify        int              `json:"filesToModify"`
	AffectedFiles        []string         `json:"affectedFiles"`
	EditsByCategory      map[Category]int `json:"editsByCategory"`
	Moves                int              `json:"moves"`
	UnresolvedReferences int              `json:"unresolvedReferences"`
	Warnings             int              `json:"warnings"`
}

// EditPlan is the complete, previewable unit of work for one rename or
// move. Plans serialize deterministically: edits are sorted by
// (file, start offset) and moves by old path before marshaling.
type EditPlan struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`

	Operation Operation    `json:"operation"`
	Scope     *scope.Scope `json:"scope"`

	Edits []TextEdit `json:"edits"`
	Moves []FileMove `json:"moves,omitempty"`

	// ContentHashes maps each touched file, keyed by its on-disk path at
	// plan time, to the BLAKE2b-256 hex digest of its content
	ContentHashes map[string]string `json:"contentHashes"`

	Unresolved []UnresolvedReference `json:"unresolved,omitempty"`
	Warnings   []Warning             `json:"warnings,omitempty"`

	// Incomplete is set when the scan was cancelled before visiting
	// every file; applying an incomplete plan is refused
	Incomplete bool `json:"incomplete,omitempty"`

	Summary Summary `json:"summary"`
}

// HashContent returns the BLAKE2b-256 digest of content as lowercase hex.
func HashContent(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// EditsForFile returns the plan's edits for one file, in plan order.
func (p *EditPlan) EditsForFile(file string) []TextEdit {
	var out []TextEdit
	for _, e := range p.Edits {
		if e.File == file {
			out = append(out, e)
		}
	}
	return out
}

// EditedFiles returns the distinct files with at least one edit, sorted.
func (p *EditPlan) EditedFiles() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range p.Edits {
		if !seen[e.File] {
			seen[e.File] = true
			out = append(out, e.File)
		}
	}
	return out
}

// MoveFor returns the move whose new path is file, if any. Apply uses it
// to locate on-disk content for edits addressed at post-move paths.
func (p *EditPlan) MoveFor(file string) (FileMove, bool) {
	for _, m := range p.Moves {
		if m.NewPath == file {
			return m, true
		}
	}
	return FileMove{}, false
}
