package verify

import (
	"context"
	"fmt"
	"os"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"remap/internal/capability"
	"remap/internal/errors"
	"remap/internal/paths"
)

// Index is a loaded SCIP index reduced to what plan verification
// needs: which files define which symbols and where symbols occur.
type Index struct {
	docs   []*scippb.Document
	byPath map[string]*scippb.Document
}

// LoadIndex reads and parses a SCIP protobuf index.
func LoadIndex(path string) (*Index, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewRemapError(errors.IndexMissing,
			fmt.Sprintf("no SCIP index at %s", path), err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewRemapError(errors.IOFailure,
			fmt.Sprintf("cannot read SCIP index at %s", path), err)
	}
	var raw scippb.Index
	if err := proto.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewRemapError(errors.ParseFailure,
			fmt.Sprintf("malformed SCIP index at %s", path), err)
	}

	idx := &Index{
		docs:   raw.Documents,
		byPath: make(map[string]*scippb.Document, len(raw.Documents)),
	}
	for _, doc := range raw.Documents {
		idx.byPath[paths.NormalizePath(doc.RelativePath)] = doc
	}
	return idx, nil
}

// SymbolsDefinedUnder collects the symbols whose definition occurrence
// lives at path, or inside it for a directory.
func (i *Index) SymbolsDefinedUnder(path string, isDir bool) map[string]bool {
	symbols := make(map[string]bool)
	for _, doc := range i.docs {
		docPath := paths.NormalizePath(doc.RelativePath)
		if docPath != path && !(isDir && hasDirPrefix(docPath, path)) {
			continue
		}
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0 && occ.Symbol != "" {
				symbols[occ.Symbol] = true
			}
		}
	}
	return symbols
}

// ReferencingFiles maps each document holding a non-definition
// occurrence of any given symbol to one example location.
func (i *Index) ReferencingFiles(symbols map[string]bool) map[string]capability.Location {
	refs := make(map[string]capability.Location)
	for _, doc := range i.docs {
		docPath := paths.NormalizePath(doc.RelativePath)
		if _, seen := refs[docPath]; seen {
			continue
		}
		for _, occ := range doc.Occurrences {
			if !symbols[occ.Symbol] {
				continue
			}
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0 {
				continue
			}
			line, col, _, _, ok := occurrenceRange(occ.Range)
			if !ok {
				continue
			}
			refs[docPath] = capability.Location{File: docPath, Line: line + 1, Col: col + 1}
			break
		}
	}
	return refs
}

// FindReferences implements capability.ReferenceFinder: locate the
// symbol at a position, then report every occurrence of it and of
// symbols related to it (re-export aliases, implementations) across
// the index. Positions are 1-based on both sides.
func (i *Index) FindReferences(ctx context.Context, file string, line, col int) ([]capability.Location, error) {
	doc, ok := i.byPath[paths.NormalizePath(file)]
	if !ok {
		return nil, nil
	}
	symbol := ""
	for _, occ := range doc.Occurrences {
		sl, sc, el, ec, ok := occurrenceRange(occ.Range)
		if !ok {
			continue
		}
		if positionInRange(line-1, col-1, sl, sc, el, ec) {
			symbol = occ.Symbol
			break
		}
	}
	if symbol == "" {
		return nil, nil
	}

	wanted := i.relatedSymbols(symbol)
	wanted[symbol] = true

	var out []capability.Location
	for _, d := range i.docs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		for _, occ := range d.Occurrences {
			if !wanted[occ.Symbol] {
				continue
			}
			sl, sc, _, _, ok := occurrenceRange(occ.Range)
			if !ok {
				continue
			}
			out = append(out, capability.Location{
				File: paths.NormalizePath(d.RelativePath),
				Line: sl + 1,
				Col:  sc + 1,
			})
		}
	}
	return out, nil
}

// relatedSymbols collects symbols linked to symbol by a relationship
// in either direction: symbols whose information names it and symbols
// its own information names. One hop, no transitive closure.
func (i *Index) relatedSymbols(symbol string) map[string]bool {
	related := make(map[string]bool)
	for _, d := range i.docs {
		for _, si := range d.Symbols {
			if si.Symbol == symbol {
				for _, rel := range si.Relationships {
					if rel.Symbol != "" && rel.Symbol != symbol {
						related[rel.Symbol] = true
					}
				}
				continue
			}
			for _, rel := range si.Relationships {
				if rel.Symbol == symbol && si.Symbol != "" {
					related[si.Symbol] = true
					break
				}
			}
		}
	}
	return related
}

// occurrenceRange normalizes a SCIP range to 0-based start/end
// positions. Ranges come as [line, startCol, endCol] when the
// occurrence stays on one line and [startLine, startCol, endLine,
// endCol] otherwise.
func occurrenceRange(r []int32) (startLine, startCol, endLine, endCol int, ok bool) {
	switch len(r) {
	case 3:
		return int(r[0]), int(r[1]), int(r[0]), int(r[2]), true
	case 4:
		return int(r[0]), int(r[1]), int(r[2]), int(r[3]), true
	}
	return 0, 0, 0, 0, false
}

func positionInRange(line, col, startLine, startCol, endLine, endCol int) bool {
	if line < startLine || line > endLine {
		return false
	}
	if line == startLine && col < startCol {
		return false
	}
	if line == endLine && col >= endCol {
		return false
	}
	return true
}

func hasDirPrefix(p, dir string) bool {
	return len(p) > len(dir) && p[:len(dir)] == dir && p[len(dir)] == '/'
}
