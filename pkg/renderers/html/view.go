package html

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-surveysync/internal/logger"
	"github.com/goliatone/go-surveysync/pkg/render"
	"github.com/goliatone/go-surveysync/pkg/survey"
)

var (
	descriptionPolicyOnce sync.Once
	descriptionPolicy     *bluemonday.Policy
)

func descriptionSanitizer() *bluemonday.Policy {
	descriptionPolicyOnce.Do(func() {
		descriptionPolicy = bluemonday.UGCPolicy()
	})
	return descriptionPolicy
}

type view struct {
	renderer *Renderer
	id       string
	logger   logger.Logger
	style    render.Style

	mount   *render.Mount
	model   *survey.Model
	removes []func()
}

func (v *view) Attach(_ context.Context, mount *render.Mount, model *survey.Model) error {
	if mount == nil || model == nil {
		return fmt.Errorf("html view: mount and model are required")
	}
	v.Detach()
	v.mount = mount
	v.model = model
	v.removes = append(v.removes,
		model.OnChanged.Add(func(survey.Change) { v.refresh() }),
		model.OnFocus.Add(func(string) { v.refresh() }),
	)
	return v.render()
}

func (v *view) SetStyle(style render.Style) error {
	v.style = style
	if v.model == nil {
		return nil
	}
	return v.render()
}

func (v *view) Detach() {
	for _, remove := range v.removes {
		remove()
	}
	v.removes = nil
	v.model = nil
}

func (v *view) refresh() {
	if err := v.render(); err != nil && v.logger != nil {
		v.logger.Error("html view: render failed", map[string]interface{}{
			"instance": v.id,
			"error":    err.Error(),
		})
	}
}

func (v *view) render() error {
	if v.model == nil || v.mount == nil {
		return nil
	}
	out, err := v.renderer.engine.RenderTemplate(SurveyTemplate, v.context())
	if err != nil {
		v.mount.ShowError("Survey could not be rendered.")
		return err
	}
	v.mount.Set(out)
	return nil
}

func (v *view) context() pongo2.Context {
	m := v.model
	schema := m.Schema()

	pages := make([]map[string]any, 0, len(schema.Pages))
	for _, page := range schema.Pages {
		var items []map[string]any
		v.flatten(&items, page.Elements, 0)
		pages = append(pages, map[string]any{
			"name":      page.Name,
			"title":     page.Title.For(m.Locale()),
			"questions": items,
		})
	}

	return pongo2.Context{
		"id":            v.id,
		"title":         m.Title(),
		"mode":          string(m.Mode()),
		"state":         string(m.State()),
		"completed":     m.IsCompleted(),
		"complete_text": v.renderer.completeText,
		"locale":        m.Locale(),
		"theme":         v.style.Theme,
		"variant":       v.style.Variant,
		"style":         cssVarsStyle(v.style.Vars),
		"pages":         pages,
	}
}

func (v *view) flatten(out *[]map[string]any, elements []survey.Question, depth int) {
	m := v.model
	for _, q := range elements {
		switch {
		case !m.IsVisible(q):
			continue
		case q.Type == survey.TypePanel:
			*out = append(*out, map[string]any{
				"panel": true,
				"name":  q.Name,
				"title": m.Text(q.Title, ""),
				"depth": depth,
			})
			v.flatten(out, q.Elements, depth+1)
			continue
		case !q.HasValue():
			continue
		}

		value, _ := m.Value(q.Name)
		item := map[string]any{
			"name":        q.Name,
			"type":        q.Type,
			"title":       m.Text(q.Title, q.Name),
			"required":    q.IsRequired,
			"disabled":    q.ReadOnly || m.Mode() == survey.ModeDisplay || m.IsCompleted(),
			"focused":     m.Focused() == q.Name,
			"depth":       depth,
			"input_type":  inputType(q),
			"multiline":   q.Type == "comment",
			"value":       scalarText(value),
			"description": "",
		}
		if desc := m.Text(q.Description, ""); desc != "" {
			item["description"] = descriptionSanitizer().Sanitize(desc)
		}
		if choices := v.choices(q, value); len(choices) > 0 {
			item["choices"] = choices
			item["choice_input"] = "radio"
			if q.Type == "checkbox" || q.Type == "tagbox" {
				item["choice_input"] = "checkbox"
			}
		}
		*out = append(*out, item)
	}
}

func (v *view) choices(q survey.Question, value any) []map[string]any {
	var options []survey.Choice
	switch q.Type {
	case "boolean":
		options = []survey.Choice{
			{Value: true, Text: survey.LocalizedString{survey.DefaultLocaleKey: "Yes"}},
			{Value: false, Text: survey.LocalizedString{survey.DefaultLocaleKey: "No"}},
		}
	case "rating":
		for i := q.RateMin; i <= q.RateMax; i++ {
			options = append(options, survey.Choice{Value: i})
		}
	default:
		options = q.Choices
	}

	out := make([]map[string]any, 0, len(options))
	for _, c := range options {
		text := fmt.Sprint(c.Value)
		out = append(out, map[string]any{
			"value":    text,
			"text":     v.model.Text(c.Text, text),
			"selected": isSelected(value, c.Value),
		})
	}
	return out
}

func inputType(q survey.Question) string {
	if q.InputType != "" {
		return q.InputType
	}
	return "text"
}

func isSelected(value, candidate any) bool {
	if value == nil {
		return false
	}
	want := fmt.Sprint(candidate)
	switch typed := value.(type) {
	case []any:
		for _, item := range typed {
			if fmt.Sprint(item) == want {
				return true
			}
		}
		return false
	case []string:
		for _, item := range typed {
			if item == want {
				return true
			}
		}
		return false
	default:
		return fmt.Sprint(typed) == want
	}
}

func scalarText(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []any, map[string]any:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, "--"+strings.TrimPrefix(key, "--")+": "+vars[key])
	}
	return strings.Join(parts, "; ")
}
