// Package theme resolves cosmetic theme names sent by hosts into the CSS
// variables a view applies. Themes are go-theme manifests held in a Catalog.
package theme

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-surveysync/pkg/render"
)

// ErrUnknownTheme is returned when no registered theme matches a name.
var ErrUnknownTheme = errors.New("theme: unknown theme")

// Catalog holds theme manifests in registration order.
type Catalog struct {
	mu        sync.RWMutex
	manifests []*gotheme.Manifest
}

var _ gotheme.ThemeSelector = (*Catalog)(nil)

// NewCatalog creates a catalog seeded with manifests.
func NewCatalog(manifests ...*gotheme.Manifest) (*Catalog, error) {
	c := &Catalog{}
	for _, m := range manifests {
		if err := c.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a manifest. Names are unique ignoring case.
func (c *Catalog) Register(manifest *gotheme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return fmt.Errorf("theme: manifest name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.manifests {
		if strings.EqualFold(existing.Name, manifest.Name) {
			return fmt.Errorf("theme: %q already registered", manifest.Name)
		}
	}
	c.manifests = append(c.manifests, manifest)
	return nil
}

// Names lists registered theme names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.manifests))
	for _, m := range c.manifests {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a manifest by case-insensitive exact name, then by the first
// registered name containing the query.
func (c *Catalog) Lookup(name string) (*gotheme.Manifest, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.manifests {
		if strings.ToLower(m.Name) == query {
			return m, true
		}
	}
	for _, m := range c.manifests {
		if strings.Contains(strings.ToLower(m.Name), query) {
			return m, true
		}
	}
	return nil, false
}

// Select implements gotheme.ThemeSelector.
func (c *Catalog) Select(name, variant string, _ ...gotheme.QueryOption) (*gotheme.Selection, error) {
	manifest, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %q has no variant %q", ErrUnknownTheme, manifest.Name, variant)
		}
	}
	return &gotheme.Selection{Theme: manifest.Name, Variant: variant, Manifest: manifest}, nil
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Style render.Style
	// Unknown lists override variables the theme does not define. They are
	// still applied.
	Unknown []string
}

// Resolve turns a host theme request into a style. The name may carry a
// variant as "name/variant". A blank name applies vars without a theme.
func (c *Catalog) Resolve(name string, vars map[string]string) (Resolution, error) {
	themeName, variant, _ := strings.Cut(strings.TrimSpace(name), "/")

	tokens := make(map[string]string)
	var res Resolution
	if themeName != "" {
		selection, err := c.Select(themeName, variant)
		if err != nil {
			return Resolution{}, err
		}
		for k, v := range selection.Manifest.Tokens {
			tokens[k] = v
		}
		if selection.Variant != "" {
			for k, v := range selection.Manifest.Variants[selection.Variant].Tokens {
				tokens[k] = v
			}
		}
		res.Style.Theme = selection.Theme
		res.Style.Variant = selection.Variant
	}

	for k, v := range vars {
		key := strings.TrimPrefix(strings.TrimSpace(k), "--")
		if key == "" {
			continue
		}
		if _, known := tokens[key]; !known && themeName != "" {
			res.Unknown = append(res.Unknown, key)
		}
		tokens[key] = v
	}
	sort.Strings(res.Unknown)
	if len(tokens) > 0 {
		res.Style.Vars = tokens
	}
	return res, nil
}
