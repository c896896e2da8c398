package theme

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	gotheme "github.com/goliatone/go-theme"
)

const themesYAML = `
themes:
  - name: DefaultLight
    variables:
      primary: "#19b394"
      background: "#ffffff"
    variants:
      dark:
        background: "#111111"
  - name: flat-dark-panelless
    variables:
      primary: "#ff9814"
`

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	defs, err := ParseYAML([]byte(themesYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := FromDefinitions(defs)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestLookupExactThenSubstring(t *testing.T) {
	c := mustCatalog(t)

	m, ok := c.Lookup("defaultlight")
	if !ok || m.Name != "DefaultLight" {
		t.Fatalf("expected case-insensitive exact match, got %v", m)
	}
	m, ok = c.Lookup("PANELLESS")
	if !ok || m.Name != "flat-dark-panelless" {
		t.Fatalf("expected substring match, got %v", m)
	}
	if _, ok := c.Lookup("sepia"); ok {
		t.Fatalf("expected no match")
	}
}

func TestResolveMergesVariantAndOverrides(t *testing.T) {
	c := mustCatalog(t)
	res, err := c.Resolve("defaultlight/dark", map[string]string{"--primary": "red", "radius": "4px"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := map[string]string{"primary": "red", "background": "#111111", "radius": "4px"}
	if diff := cmp.Diff(want, res.Style.Vars); diff != "" {
		t.Fatalf("vars mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"radius"}, res.Unknown); diff != "" {
		t.Fatalf("unknown mismatch (-want +got):\n%s", diff)
	}
	if res.Style.Theme != "DefaultLight" || res.Style.Variant != "dark" {
		t.Fatalf("unexpected style identity %+v", res.Style)
	}
}

func TestResolveVarsOnly(t *testing.T) {
	c := mustCatalog(t)
	res, err := c.Resolve("", map[string]string{"primary": "blue"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Style.Vars["primary"] != "blue" || len(res.Unknown) != 0 {
		t.Fatalf("unexpected resolution %+v", res)
	}
}

func TestSelectUnknown(t *testing.T) {
	c := mustCatalog(t)
	if _, err := c.Select("sepia", ""); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if _, err := c.Select("DefaultLight", "contrast"); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected unknown variant error, got %v", err)
	}
	if err := c.Register(&gotheme.Manifest{Name: "defaultlight"}); err == nil {
		t.Fatalf("expected duplicate name to fail")
	}
}
