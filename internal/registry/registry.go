// Package registry caches one Package object per logical package and sources
// package definitions from yaml documents.
package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/toolshed-sh/toolshed/internal/package_manager"
	"github.com/toolshed-sh/toolshed/internal/pubsub"
	"github.com/toolshed-sh/toolshed/internal/purl"
	"github.com/toolshed-sh/toolshed/internal/result"
)

// Definition is one package definition document.
type Definition struct {
	Name                         string `yaml:"name"`
	package_manager.RegistrySpec `yaml:",inline"`
}

// Registry hands out Package objects, creating each at most once per process.
// It owns the process-wide event bus that package events are mirrored onto.
type Registry struct {
	deps package_manager.Deps
	bus  *pubsub.Emitter

	mu       sync.Mutex
	defs     map[string]Definition
	packages map[string]*package_manager.Package
}

// New builds a registry. deps.Bus is replaced with the registry's own bus.
func New(deps package_manager.Deps) *Registry {
	bus := pubsub.NewEmitter()
	deps.Bus = bus
	return &Registry{
		deps:     deps,
		bus:      bus,
		defs:     make(map[string]Definition),
		packages: make(map[string]*package_manager.Package),
	}
}

// Bus is the registry-wide emitter receiving the mirrored package:* events.
func (r *Registry) Bus() *pubsub.Emitter {
	return r.bus
}

// AddDefinition validates and records a package definition. A definition
// whose source identifier does not parse is rejected.
func (r *Registry) AddDefinition(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("package definition has no name")
	}
	parsed, err := purl.Parse(def.Source)
	if err != nil {
		return fmt.Errorf("package %s has a malformed source: %w", def.Name, err)
	}
	if parsed.Version != "" && !semver.IsValid("v"+parsed.Version) {
		// Upgrade comparison degrades to plain string inequality for these.
		log.Debug().Str("package", def.Name).Str("version", parsed.Version).Msg("source version is not semver")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	return nil
}

// LoadDefinitions reads every yaml document under dir. A missing directory
// is an empty registry, not an error.
func (r *Registry) LoadDefinitions(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read registry directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYaml(entry) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read package definition %s: %w", entry.Name(), err)
		}
		var def Definition
		if err := yaml.Unmarshal(raw, &def); err != nil {
			return fmt.Errorf("failed to parse package definition %s: %w", entry.Name(), err)
		}
		if err := r.AddDefinition(def); err != nil {
			return err
		}
	}
	log.Debug().Int("packages", len(r.defs)).Str("dir", dir).Msg("loaded registry definitions")
	return nil
}

func isYaml(entry fs.DirEntry) bool {
	ext := strings.ToLower(filepath.Ext(entry.Name()))
	return ext == ".yml" || ext == ".yaml"
}

// Get returns the cached Package for the name, constructing it from its
// definition on first use. Absent when the registry has no such package.
func (r *Registry) Get(name string) result.Optional[*package_manager.Package] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pkg, ok := r.packages[name]; ok {
		return result.Some(pkg)
	}
	def, ok := r.defs[name]
	if !ok {
		return result.None[*package_manager.Package]()
	}
	pkg := package_manager.New(name, package_manager.NewRegistrySpec(def.RegistrySpec), r.deps)
	r.packages[name] = pkg
	return result.Some(pkg)
}

// Register caches an externally constructed package, e.g. one with a legacy
// spec. The package must have been built with this registry's bus.
func (r *Registry) Register(pkg *package_manager.Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[pkg.Name()] = pkg
}

// Deps returns the collaborator set packages are constructed with, wired to
// this registry's bus.
func (r *Registry) Deps() package_manager.Deps {
	return r.deps
}

// Names lists every known package name, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
