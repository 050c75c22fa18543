package heuristics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poulsbopete/o11ybot/pkg/heuristics/rules"
)

// rulesFile is the top-level structure of a category rule YAML file.
type rulesFile struct {
	Categories []CategoryRule `yaml:"categories"`
}

// Registry holds indexed category rules. Lookup structures are built once
// at load time; the registry is read-only afterwards.
type Registry struct {
	categories []CategoryRule
	byID       map[string]*CategoryRule
	keywords   map[string][]string
	types      map[string]map[string]bool
}

// Load parses all YAML files from the given filesystem into a Registry.
func Load(fsys fs.FS) (*Registry, error) {
	var all []CategoryRule

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, readErr := fs.ReadFile(fsys, path)
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", path, readErr)
		}

		var rf rulesFile
		if parseErr := yaml.Unmarshal(data, &rf); parseErr != nil {
			return fmt.Errorf("parsing %s: %w", path, parseErr)
		}

		for _, c := range rf.Categories {
			if c.ID == "" {
				return fmt.Errorf("%s: category rule missing id", path)
			}
			all = append(all, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking filesystem: %w", err)
	}

	return buildRegistry(all), nil
}

// LoadEmbedded loads the registry from the built-in category rule YAML files.
func LoadEmbedded() (*Registry, error) {
	return Load(rules.RulesFS)
}

// Category returns the rule with the given ID, or nil if not found.
func (r *Registry) Category(id string) *CategoryRule {
	return r.byID[id]
}

// Categories returns all rules sorted by ID.
func (r *Registry) Categories() []CategoryRule {
	out := append([]CategoryRule(nil), r.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// KeywordsFor returns the lower-cased keywords of a category, or nil if
// the category is unknown.
func (r *Registry) KeywordsFor(id string) []string {
	return r.keywords[id]
}

// TypeAllowed reports whether a declared field type is compatible with
// the given category.
func (r *Registry) TypeAllowed(id, fieldType string) bool {
	return r.types[id][strings.ToLower(fieldType)]
}

// Merge combines two registries into a new one. Rules from other take
// precedence over rules from r with the same ID, so a user-supplied rule
// file can override the built-in keyword sets.
func (r *Registry) Merge(other *Registry) *Registry {
	combined := make([]CategoryRule, 0, len(r.categories)+len(other.categories))
	combined = append(combined, r.categories...)
	combined = append(combined, other.categories...)
	return buildRegistry(combined)
}

// buildRegistry indexes rules by ID. Later rules replace earlier ones
// with the same ID.
func buildRegistry(all []CategoryRule) *Registry {
	byID := make(map[string]*CategoryRule, len(all))
	var order []string
	for i := range all {
		c := all[i]
		if _, seen := byID[c.ID]; !seen {
			order = append(order, c.ID)
		}
		byID[c.ID] = &c
	}

	r := &Registry{
		byID:     byID,
		keywords: make(map[string][]string, len(byID)),
		types:    make(map[string]map[string]bool, len(byID)),
	}
	for _, id := range order {
		c := byID[id]
		r.categories = append(r.categories, *c)

		kws := make([]string, 0, len(c.Keywords.Values))
		for _, kw := range c.Keywords.Values {
			kws = append(kws, strings.ToLower(strings.TrimSpace(kw)))
		}
		r.keywords[id] = kws

		typeSet := make(map[string]bool, len(c.Types))
		for _, t := range c.Types {
			typeSet[strings.ToLower(t)] = true
		}
		r.types[id] = typeSet
	}
	return r
}
