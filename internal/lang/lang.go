// Package lang assembles the language modules into one capability
// registry. Registration order is fixed so filename and extension
// claims resolve the same way on every run.
package lang

import (
	"remap/internal/alias"
	"remap/internal/capability"
	"remap/internal/config"
	"remap/internal/lang/gitignore"
	"remap/internal/lang/golang"
	"remap/internal/lang/markdown"
	"remap/internal/lang/python"
	"remap/internal/lang/rust"
	"remap/internal/lang/tomlcfg"
	"remap/internal/lang/typescript"
	"remap/internal/lang/yamlcfg"
	"remap/internal/scope"
)

// NewRegistry builds the registry with every built-in language module.
// A nil alias resolver gets the default probing conventions.
func NewRegistry(repoRoot string, aliases *alias.Resolver, sc *scope.Scope) *capability.Registry {
	if aliases == nil {
		aliases = alias.NewResolver(repoRoot, config.AliasConfig{})
	}
	r := capability.NewRegistry()
	r.Register(typescript.New(repoRoot, aliases).Capabilities())
	r.Register(golang.New(repoRoot).Capabilities())
	r.Register(python.New(repoRoot).Capabilities())
	r.Register(rust.New(repoRoot).Capabilities())
	r.Register(tomlcfg.New(sc).Capabilities())
	r.Register(yamlcfg.New(sc).Capabilities())
	r.Register(markdown.New(sc).Capabilities())
	r.Register(gitignore.New().Capabilities())
	return r
}
