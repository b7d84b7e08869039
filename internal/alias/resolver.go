package alias

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"remap/internal/config"
	"remap/internal/errors"
	"remap/internal/paths"
)

// Resolver resolves alias specifiers against the nearest tsconfig.json.
// Parsed maps are cached keyed by manifest path and invalidated when the
// manifest's modification time changes. Safe for concurrent use.
type Resolver struct {
	repoRoot   string
	extensions []string
	indexNames []string

	mu      sync.Mutex
	configs map[string]*cacheEntry
	nearest map[string]string // importing dir -> manifest path, "" for none
}

type cacheEntry struct {
	modTime int64
	m       *Map
	err     error
}

// NewResolver creates a resolver rooted at repoRoot. Probe conventions
// come from the alias config; empty lists fall back to the defaults.
func NewResolver(repoRoot string, cfg config.AliasConfig) *Resolver {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = config.DefaultConfig().Alias.Extensions
	}
	idx := cfg.IndexNames
	if len(idx) == 0 {
		idx = config.DefaultConfig().Alias.IndexNames
	}
	return &Resolver{
		repoRoot:   repoRoot,
		extensions: exts,
		indexNames: idx,
		configs:    make(map[string]*cacheEntry),
		nearest:    make(map[string]string),
	}
}

// Resolve maps an alias specifier to the repo-relative canonical path of
// the file it denotes. The longest matching pattern is selected; its
// replacement templates are probed in declared order with the configured
// extension and index conventions; the first candidate that exists on
// disk wins. When nothing exists the resolution reports no match rather
// than guessing.
func (r *Resolver) Resolve(specifier, importingFile string) (string, bool) {
	m, err := r.MapFor(importingFile)
	if err != nil || m == nil {
		return "", false
	}
	return r.resolveWith(m, specifier)
}

func (r *Resolver) resolveWith(m *Map, specifier string) (string, bool) {
	if !IsPotentialAlias(specifier) {
		return "", false
	}
	pattern, captured, ok := m.Match(specifier)
	if !ok {
		return "", false
	}
	for _, replacement := range pattern.Replacements {
		candidate := filepath.Join(m.BaseDir, filepath.FromSlash(Substitute(replacement, captured)))
		existing, ok := ProbeFile(candidate, r.extensions, r.indexNames)
		if !ok {
			continue
		}
		canonical, err := paths.CanonicalizePath(existing, r.repoRoot)
		if err != nil {
			continue
		}
		return canonical, true
	}
	return "", false
}

// ProbeFile checks a candidate path as-is, with each extension
// appended, and as a directory holding an index file. The first form
// that exists on disk is returned. Bare directories never match; a
// directory import resolves to its index file or not at all.
func ProbeFile(candidate string, extensions, indexNames []string) (string, bool) {
	for _, ext := range extensions {
		withExt := candidate + ext
		if info, err := os.Stat(withExt); err == nil && !info.IsDir() {
			return withExt, true
		}
	}
	for _, idx := range indexNames {
		for _, ext := range extensions {
			if ext == "" {
				continue
			}
			indexFile := filepath.Join(candidate, idx+ext)
			if _, err := os.Stat(indexFile); err == nil {
				return indexFile, true
			}
		}
	}
	return "", false
}

// MapFor returns the alias map governing a file, or nil when no
// tsconfig.json is in scope. A malformed manifest yields a
// ManifestMalformed error; the parse failure is cached alongside
// successful parses so a broken manifest is reported once per change.
func (r *Resolver) MapFor(importingFile string) (*Map, error) {
	manifest, ok := r.nearestTSConfig(importingFile)
	if !ok {
		return nil, nil
	}
	return r.loadMap(manifest)
}

func (r *Resolver) nearestTSConfig(importingFile string) (string, bool) {
	dir := filepath.Dir(importingFile)

	r.mu.Lock()
	cached, ok := r.nearest[dir]
	r.mu.Unlock()
	if ok {
		return cached, cached != ""
	}

	found, ok := FindNearestTSConfig(importingFile, r.repoRoot)
	if !ok {
		found = ""
	}

	r.mu.Lock()
	r.nearest[dir] = found
	r.mu.Unlock()
	return found, found != ""
}

func (r *Resolver) loadMap(manifest string) (*Map, error) {
	info, err := os.Stat(manifest)
	if err != nil {
		return nil, nil
	}
	modTime := info.ModTime().UnixNano()

	r.mu.Lock()
	entry, ok := r.configs[manifest]
	r.mu.Unlock()
	if ok && entry.modTime == modTime {
		return entry.m, entry.err
	}

	m, parseErr := r.buildMap(manifest, info)
	r.mu.Lock()
	r.configs[manifest] = &cacheEntry{modTime: modTime, m: m, err: parseErr}
	r.mu.Unlock()
	return m, parseErr
}

func (r *Resolver) buildMap(manifest string, info os.FileInfo) (*Map, error) {
	content, err := os.ReadFile(manifest)
	if err != nil {
		return nil, errors.NewRemapError(errors.IOFailure,
			fmt.Sprintf("read %s", manifest), err)
	}
	data, err := parseTSConfig(content)
	if err != nil {
		return nil, errors.NewRemapError(errors.ManifestMalformed,
			fmt.Sprintf("parse %s", manifest), err)
	}
	baseDir := filepath.Join(filepath.Dir(manifest), filepath.FromSlash(data.BaseURL))
	return &Map{
		Patterns:   data.Patterns,
		BaseDir:    baseDir,
		Source:     manifest,
		ModTime:    info.ModTime(),
		Extensions: r.extensions,
		IndexNames: r.indexNames,
	}, nil
}

// InvalidateAll drops every cached map and lookup. Used after apply
// moves files around.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.configs = make(map[string]*cacheEntry)
	r.nearest = make(map[string]string)
	r.mu.Unlock()
}

// Extensions returns the probe extension list, shared with language
// modules that resolve relative specifiers under the same conventions.
func (r *Resolver) Extensions() []string { return r.extensions }

// IndexNames returns the index basenames probed for directory imports.
func (r *Resolver) IndexNames() []string { return r.indexNames }
