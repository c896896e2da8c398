package html

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-surveysync/pkg/render"
	"github.com/goliatone/go-surveysync/pkg/survey"
)

const feedback = `{
  "title": {"default": "Feedback", "de": "Rückmeldung"},
  "elements": [
    {"type": "text", "name": "q1", "title": "Your name", "description": "<em>first</em><script>x()</script>"},
    {"type": "radiogroup", "name": "color", "choices": ["red", "blue"]},
    {"type": "comment", "name": "notes"}
  ]
}`

func newView(t *testing.T, style render.Style) (render.View, *render.Mount, *survey.Model) {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if missing := r.Missing(); len(missing) != 0 {
		t.Fatalf("unexpected missing dependencies %v", missing)
	}
	v, err := r.NewView(render.ViewOptions{InstanceID: "s1", Style: style})
	if err != nil {
		t.Fatalf("new view: %v", err)
	}
	schema, err := survey.ParseSchema(feedback)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	model := survey.New(schema)
	mount := render.NewMount("s1")
	if err := v.Attach(context.Background(), mount, model); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return v, mount, model
}

func TestViewRendersModel(t *testing.T) {
	_, mount, model := newView(t, render.Style{Theme: "flat", Vars: map[string]string{"primary": "#fff"}})
	html := mount.Content()

	for _, want := range []string{
		`<h2 class="surveysync-title">Feedback</h2>`,
		`data-theme="flat"`,
		`style="--primary: #fff"`,
		`<em>first</em>`,
		`value="red"`,
		`<textarea id="s1-notes"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("description not sanitized:\n%s", html)
	}

	if err := model.SetValue("color", "blue"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(mount.Content(), `value="blue" checked`) {
		t.Fatalf("expected re-render after edit:\n%s", mount.Content())
	}
}

func TestViewFollowsModeLocaleAndFocus(t *testing.T) {
	_, mount, model := newView(t, render.Style{})

	if err := model.SetLocale("de"); err != nil {
		t.Fatalf("locale: %v", err)
	}
	if !strings.Contains(mount.Content(), "Rückmeldung") || !strings.Contains(mount.Content(), `lang="de"`) {
		t.Fatalf("expected localized render:\n%s", mount.Content())
	}
	model.FocusFirstQuestion()
	if !strings.Contains(mount.Content(), "is-focused") {
		t.Fatalf("expected focus marker:\n%s", mount.Content())
	}
	if err := model.SetMode(survey.ModeDisplay); err != nil {
		t.Fatalf("mode: %v", err)
	}
	if !strings.Contains(mount.Content(), `data-mode="display"`) || !strings.Contains(mount.Content(), "readonly") {
		t.Fatalf("expected display render:\n%s", mount.Content())
	}
	model.Complete()
	if !strings.Contains(mount.Content(), "surveysync-complete") {
		t.Fatalf("expected completion notice:\n%s", mount.Content())
	}
}

func TestViewDetachStopsRendering(t *testing.T) {
	v, mount, model := newView(t, render.Style{})
	before := mount.Revision()
	v.Detach()
	_ = model.SetValue("q1", "ignored")
	if mount.Revision() != before {
		t.Fatalf("detached view must not render")
	}
	if err := v.SetStyle(render.Style{Theme: "x"}); err != nil {
		t.Fatalf("style on detached view: %v", err)
	}
}

func TestEmbeddedBundleResolvesIncludes(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if missing := r.Missing(); len(missing) != 0 {
		t.Fatalf("embedded bundle reported missing %v", missing)
	}
	out, err := r.engine.RenderTemplate(SurveyTemplate, map[string]any{
		"id":    "s1",
		"pages": []map[string]any{{"name": "p1", "questions": []map[string]any{}}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `data-page="p1"`) {
		t.Fatalf("expected page section in output:\n%s", out)
	}
}

func TestMissingTemplates(t *testing.T) {
	r, err := New(WithTemplatesFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if missing := r.Missing(); len(missing) != 1 {
		t.Fatalf("expected missing template, got %v", missing)
	}
}

func TestViewHidesConditionalQuestions(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	v, err := r.NewView(render.ViewOptions{InstanceID: "s1"})
	if err != nil {
		t.Fatalf("new view: %v", err)
	}
	schema, err := survey.ParseSchema(`{"elements": [
  {"type": "radiogroup", "name": "contact", "choices": ["email", "none"]},
  {"type": "panel", "name": "details", "visibleIf": "{contact} = 'email'", "elements": [
    {"type": "text", "name": "address", "inputType": "email"}
  ]}
]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	model := survey.New(schema)
	mount := render.NewMount("s1")
	if err := v.Attach(context.Background(), mount, model); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if strings.Contains(mount.Content(), `data-name="address"`) {
		t.Fatalf("panel children must be hidden:\n%s", mount.Content())
	}
	if err := model.SetValue("contact", "email"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(mount.Content(), `data-name="address"`) {
		t.Fatalf("panel must appear after the answer:\n%s", mount.Content())
	}
}
