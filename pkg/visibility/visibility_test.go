package visibility

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEval(t *testing.T) {
	values := map[string]any{
		"plan":       "pro",
		"seats":      float64(12),
		"newsletter": true,
		"age":        "17",
		"tags":       []any{"go", "sql"},
		"address":    map[string]any{"country": "DE"},
		"empty":      "",
	}
	cases := []struct {
		rule string
		want bool
	}{
		{rule: "", want: true},
		{rule: "{plan} = 'pro'", want: true},
		{rule: "{plan} == \"basic\"", want: false},
		{rule: "{plan} <> 'basic'", want: true},
		{rule: "{seats} > 5 and {plan} = 'pro'", want: true},
		{rule: "{seats} <= 5 || {newsletter}", want: true},
		{rule: "{age} < 18", want: true},
		{rule: "not ({age} < 18)", want: false},
		{rule: "!{newsletter}", want: false},
		{rule: "{newsletter} = true", want: true},
		{rule: "{tags} contains 'go'", want: true},
		{rule: "{tags} notcontains 'rust'", want: true},
		{rule: "{plan} contains 'ro'", want: true},
		{rule: "{missing} empty", want: true},
		{rule: "{empty} notempty", want: false},
		{rule: "{missing} = null", want: true},
		{rule: "{address.country} = 'DE'", want: true},
		{rule: "{seats} = 12", want: true},
		{rule: "{plan} > 3", want: false},
	}
	for _, tc := range cases {
		got, err := Eval(tc.rule, values)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Errorf("%q: got %v, want %v", tc.rule, got, tc.want)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	for _, rule := range []string{
		"{plan",
		"{}",
		"plan = 'pro'",
		"{plan} = 'pro",
		"({plan} = 'pro'",
		"{plan} =",
		"{plan} & {seats}",
		"{plan} = 'pro' )",
	} {
		if _, err := Compile(rule); err == nil {
			t.Errorf("%q: expected compile error", rule)
		}
	}
}

func TestNames(t *testing.T) {
	cond, err := Compile("{a} = 1 and ({b} notempty or {a} > 2)")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, cond.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if cond, _ := Compile("   "); cond != nil {
		t.Fatalf("blank rule should compile to nil")
	}
}
