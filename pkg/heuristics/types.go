// Package heuristics loads and indexes the category rule tables used to
// classify index fields into business-signal categories.
package heuristics

import "fmt"

// Keywords holds the name-pattern keywords for a category.
// The YAML may contain a single scalar or a sequence.
type Keywords struct {
	Values []string
}

// UnmarshalYAML handles both a scalar keyword and a sequence of keywords.
func (k *Keywords) UnmarshalYAML(unmarshal func(any) error) error {
	var seq []string
	if err := unmarshal(&seq); err == nil {
		k.Values = seq
		return nil
	}

	var scalar string
	if err := unmarshal(&scalar); err != nil {
		return fmt.Errorf("keywords: expected string or sequence of strings: %w", err)
	}
	k.Values = []string{scalar}
	return nil
}

// CategoryRule defines how one semantic category is recognised: the
// keywords its field names carry and the declared field types it accepts.
type CategoryRule struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Keywords Keywords `yaml:"keywords"`
	Types    []string `yaml:"types"`
}
