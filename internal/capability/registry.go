package capability

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry dispatches files to language capabilities by exact filename
// or extension. The engine only ever asks which capabilities govern a
// file; it never inspects concrete language types.
type Registry struct {
	mu         sync.RWMutex
	byFilename map[string]*Capabilities
	byExt      map[string]*Capabilities
	order      []*Capabilities
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byFilename: make(map[string]*Capabilities),
		byExt:      make(map[string]*Capabilities),
	}
}

// Register claims a module's filenames and extensions. The first
// registration wins per filename and per extension; later claims on the
// same key are ignored so module registration order is deterministic.
func (r *Registry) Register(c *Capabilities) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	claimed := false
	for _, name := range c.Filenames {
		if _, taken := r.byFilename[name]; !taken {
			r.byFilename[name] = c
			claimed = true
		}
	}
	for _, ext := range c.Extensions {
		ext = strings.ToLower(ext)
		if _, taken := r.byExt[ext]; !taken {
			r.byExt[ext] = c
			claimed = true
		}
	}
	if claimed {
		r.order = append(r.order, c)
	}
}

// ForFile returns the capabilities governing a path, or nil when no
// module claims it. Exact filenames take priority over extensions.
func (r *Registry) ForFile(path string) *Capabilities {
	base := filepath.Base(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.byFilename[base]; ok {
		return c
	}
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		return nil
	}
	if c, ok := r.byExt[ext]; ok {
		return c
	}
	return nil
}

// Languages lists registered modules sorted by language name.
func (r *Registry) Languages() []*Capabilities {
	r.mu.RLock()
	out := make([]*Capabilities, len(r.order))
	copy(out, r.order)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

// Supports summarizes which operations a module implements, for
// capability listings.
func (c *Capabilities) Supports() []string {
	var ops []string
	if c.Parser != nil {
		ops = append(ops, "import-parse")
	}
	if c.Resolver != nil {
		ops = append(ops, "specifier-resolve")
	}
	if c.Rename != nil {
		ops = append(ops, "import-rename")
	}
	if c.Move != nil {
		ops = append(ops, "import-move")
	}
	if c.Manifest != nil {
		ops = append(ops, "manifest-update")
	}
	if c.ModuleDecl != nil {
		ops = append(ops, "module-declaration")
	}
	if c.Workspace != nil {
		ops = append(ops, "workspace-member")
	}
	if c.StringLiteralPaths {
		ops = append(ops, "string-literal-paths")
	}
	return ops
}
