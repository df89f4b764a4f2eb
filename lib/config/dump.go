package config

import (
	"gopkg.in/yaml.v3"
)

type scopeView struct {
	Scope    string      `yaml:"scope"`
	Declared []string    `yaml:"declared,omitempty"`
	Resolved []string    `yaml:"resolved,omitempty"`
	Children []scopeView `yaml:"children,omitempty"`
}

type storeView struct {
	MergePolicy MergePolicy `yaml:"merge_policy"`
	Resolved    bool        `yaml:"resolved"`
	Root        scopeView   `yaml:"root"`
}

// Dump renders the scope tree with declared and resolved lists as YAML.
func Dump(store *Store) ([]byte, error) {
	view := storeView{
		MergePolicy: store.Policy(),
		Resolved:    store.Resolved(),
		Root:        viewOf(store.Root(), store.Resolved()),
	}

	return yaml.Marshal(view)
}

func viewOf(scope *Scope, resolved bool) scopeView {
	v := scopeView{
		Scope:    scope.Name(),
		Declared: scope.Declared(),
	}
	if resolved {
		v.Resolved = scope.Extensions
	}

	for _, child := range scope.Children {
		v.Children = append(v.Children, viewOf(child, resolved))
	}

	return v
}
