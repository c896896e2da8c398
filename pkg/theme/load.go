package theme

import (
	"fmt"
	"os"

	gotheme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// Definition is the YAML shape of one theme.
type Definition struct {
	Name      string                       `yaml:"name" mapstructure:"name"`
	Version   string                       `yaml:"version" mapstructure:"version"`
	Variables map[string]string            `yaml:"variables" mapstructure:"variables"`
	Variants  map[string]map[string]string `yaml:"variants" mapstructure:"variants"`
}

// Manifest converts a definition into a go-theme manifest.
func (d Definition) Manifest() *gotheme.Manifest {
	m := &gotheme.Manifest{
		Name:    d.Name,
		Version: d.Version,
		Tokens:  copyVars(d.Variables),
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
	if len(d.Variants) > 0 {
		m.Variants = make(map[string]gotheme.Variant, len(d.Variants))
		for name, vars := range d.Variants {
			m.Variants[name] = gotheme.Variant{Tokens: copyVars(vars)}
		}
	}
	return m
}

// FromDefinitions builds a catalog from definitions.
func FromDefinitions(defs []Definition) (*Catalog, error) {
	manifests := make([]*gotheme.Manifest, 0, len(defs))
	for _, d := range defs {
		manifests = append(manifests, d.Manifest())
	}
	return NewCatalog(manifests...)
}

// ParseYAML reads a document of the form "themes: [...]".
func ParseYAML(raw []byte) ([]Definition, error) {
	var doc struct {
		Themes []Definition `yaml:"themes"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("theme: parse yaml: %w", err)
	}
	return doc.Themes, nil
}

// LoadFile reads theme definitions from a YAML file into a catalog.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("theme: read %s: %w", path, err)
	}
	defs, err := ParseYAML(raw)
	if err != nil {
		return nil, err
	}
	return FromDefinitions(defs)
}

func copyVars(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
