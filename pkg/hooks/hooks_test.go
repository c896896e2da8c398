package hooks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-surveysync/pkg/survey"
)

func newModel(t *testing.T) *survey.Model {
	t.Helper()
	schema, err := survey.ParseSchema(`{"elements": [{"name": "q1"}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return survey.New(schema)
}

func TestChainJoinsErrors(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	fn := Chain(
		func(context.Context, Context) error { calls = append(calls, "a"); return boom },
		nil,
		func(context.Context, Context) error { calls = append(calls, "b"); return nil },
	)
	err := fn(context.Background(), Context{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Fatalf("unexpected call order %v", calls)
	}
	if Chain(nil, nil) != nil {
		t.Fatalf("expected nil chain for nil hooks")
	}
}

func TestRunRecoversPanics(t *testing.T) {
	err := Run(context.Background(), StagePostRender, func(context.Context, Context) error {
		panic("kaboom")
	}, Context{})
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("expected panic converted to error, got %v", err)
	}
}

func TestScriptEngineMutatesModel(t *testing.T) {
	engine := NewScriptEngine()
	fn, err := engine.Compile(StagePreRender, `survey.setValue("q1", "from-script " + survey.id);`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	model := newModel(t)
	if err := fn(context.Background(), Context{InstanceID: "s1", Model: model}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, _ := model.Value("q1"); got != "from-script s1" {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestScriptEngineTimeout(t *testing.T) {
	engine := NewScriptEngine(WithScriptTimeout(20 * time.Millisecond))
	fn, err := engine.Compile(StageComplete, `for (;;) {}`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	err = fn(context.Background(), Context{InstanceID: "s1"})
	if !errors.Is(err, ErrScriptTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestScriptEngineCompileErrors(t *testing.T) {
	engine := NewScriptEngine()
	if _, err := engine.Compile(StageComplete, `function (`); err == nil {
		t.Fatalf("expected syntax error")
	}
	fn, err := engine.Compile(StageComplete, "   ")
	if err != nil || fn != nil {
		t.Fatalf("expected nil hook for blank source")
	}
}
