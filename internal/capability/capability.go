package capability

import (
	"context"
)

// ImportSpecifier is one import statement located in a source file.
type ImportSpecifier struct {
	// Specifier is the raw import path text, quotes stripped
	Specifier string
	// Line is 1-based
	Line int
	// Col is the 1-based column where the specifier text starts
	Col int
}

// ImportParser extracts import specifiers from source content. The
// path selects the language dialect; content is what gets parsed.
type ImportParser interface {
	ParseImports(path string, content []byte) ([]ImportSpecifier, error)
}

// ImportRenameSupport rewrites references for a symbol or file rename.
// The boolean reports whether anything changed.
type ImportRenameSupport interface {
	RewriteForRename(content []byte, oldName, newName string) ([]byte, bool)
}

// ImportMoveSupport rewrites references for a file or directory move.
// contextFile is the repo-relative path of the file holding content;
// relative specifiers are recomputed from its directory.
type ImportMoveSupport interface {
	RewriteForMove(content []byte, contextFile, oldPath, newPath string) ([]byte, bool)
}

// SpecifierResolver resolves an import specifier to a repo-relative
// file path, probing the language's extension and index conventions.
// A false return means the specifier is external or unresolvable.
type SpecifierResolver interface {
	ResolveSpecifier(specifier, contextFile string) (string, bool)
}

// ManifestUpdater renames a dependency entry in a package manifest.
type ManifestUpdater interface {
	UpdateDependency(manifest []byte, oldName, newName string) ([]byte, bool, error)
}

// ModuleDeclarationSupport renames module declarations, e.g. `mod x;`
// in Rust or a go.mod module path.
type ModuleDeclarationSupport interface {
	RenameDeclaration(content []byte, oldModule, newModule string) ([]byte, bool)
}

// WorkspaceMemberSupport updates workspace member lists and path
// dependencies in a manifest when a member directory moves.
type WorkspaceMemberSupport interface {
	RenameMember(manifest []byte, oldPath, newPath string) ([]byte, bool, error)
}

// Location is one reference position reported by an external verifier.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// ReferenceFinder is the optional semantic verification capability.
// Implementations are queried with a short deadline and their results
// merged additively; failures and timeouts are discarded, never fatal.
type ReferenceFinder interface {
	FindReferences(ctx context.Context, file string, line, col int) ([]Location, error)
}

// Capabilities describes the subset of operations one language module
// supports. Nil fields mean the capability is absent; the engine falls
// back to generic text heuristics for those files.
type Capabilities struct {
	// Language is a short identifier such as "typescript" or "rust"
	Language string
	// Extensions claimed by this module, with leading dot
	Extensions []string
	// Filenames claimed exactly by base name, e.g. "Cargo.toml"
	Filenames []string

	// StringLiteralPaths declares that string literals in this
	// language meaningfully carry file paths
	StringLiteralPaths bool

	Parser     ImportParser
	Resolver   SpecifierResolver
	Rename     ImportRenameSupport
	Move       ImportMoveSupport
	Manifest   ManifestUpdater
	ModuleDecl ModuleDeclarationSupport
	Workspace  WorkspaceMemberSupport
}
