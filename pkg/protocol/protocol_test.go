package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestUpdateCommandsOrder(t *testing.T) {
	u := Update{
		ID:     "s1",
		Theme:  "dark",
		Locale: "de",
		Mode:   "display",
		Data:   map[string]any{"q1": "x"},
		Schema: map[string]any{"elements": []any{}},
	}
	var kinds []Kind
	for _, cmd := range u.Commands() {
		if cmd.ID != "s1" {
			t.Fatalf("command lost its id: %+v", cmd)
		}
		kinds = append(kinds, cmd.Kind)
	}
	want := []Kind{KindSchema, KindData, KindMode, KindLocale, KindTheme}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateCommandsSkipsAbsentFields(t *testing.T) {
	cmds := Update{ID: "s1", Locale: "fr"}.Commands()
	if len(cmds) != 1 || cmds[0].Kind != KindLocale {
		t.Fatalf("unexpected commands: %+v", cmds)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"command","id":"s1","kind":"data","data":{"q1":"hello"},"merge":true}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := &Command{ID: "s1", Kind: KindData, Data: map[string]any{"q1": "hello"}, Merge: true}
	if diff := cmp.Diff(want, env.Command); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}

	env, err = DecodeEnvelope([]byte(`{"type":"init","element_id":"s2","read_only":true,"live":true,"schema":"{}"}`))
	if err != nil {
		t.Fatalf("decode init: %v", err)
	}
	if env.Init == nil || env.Init.ElementID != "s2" || !env.Init.ReadOnly || !env.Init.Live {
		t.Fatalf("unexpected init: %+v", env.Init)
	}

	env, err = DecodeEnvelope([]byte(`{"type":"destroy","id":"s2"}`))
	if err != nil || env.DestroyID != "s2" {
		t.Fatalf("unexpected destroy: %+v (%v)", env, err)
	}
}

func TestDecodeEnvelopeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"unknown type":     `{"type":"ping"}`,
		"camel case field": `{"type":"init","readOnly":true}`,
		"unknown kind":     `{"type":"command","id":"s1","kind":"explode"}`,
		"missing id":       `{"type":"command","kind":"clear"}`,
		"update no id":     `{"type":"update","locale":"de"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeEnvelope([]byte(raw)); !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
		})
	}
}

func TestEncodeCommandRoundTrip(t *testing.T) {
	raw, err := EncodeCommand(Command{ID: "s1", Kind: KindFocus})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != EnvelopeCommand || env.Command.Kind != KindFocus {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestNewEventInputNames(t *testing.T) {
	at := time.Unix(0, 0)
	live := NewEvent("s1", EventDataLive, nil, at)
	final := NewEvent("s1", EventDataFinal, map[string]any{"q1": 1}, at)
	if live.Input != "s1_data_live" || final.Input != "s1_data" {
		t.Fatalf("unexpected inputs %q %q", live.Input, final.Input)
	}
	if live.Data == nil {
		t.Fatalf("expected empty snapshot, not nil")
	}
}
