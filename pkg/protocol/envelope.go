package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EnvelopeType discriminates messages on a shared channel.
type EnvelopeType string

const (
	EnvelopeInit    EnvelopeType = "init"
	EnvelopeCommand EnvelopeType = "command"
	EnvelopeUpdate  EnvelopeType = "update"
	EnvelopeDestroy EnvelopeType = "destroy"
)

// Envelope is one decoded host message. Exactly one of the payload fields is
// set, matching Type.
type Envelope struct {
	Type    EnvelopeType
	Init    *InitConfig
	Command *Command
	Update  *Update
	// DestroyID is set for destroy envelopes.
	DestroyID string
}

type envelopeHeader struct {
	Type EnvelopeType `json:"type"`
}

type destroyPayload struct {
	Type EnvelopeType `json:"type"`
	ID   string       `json:"id"`
}

// DecodeEnvelope parses a host message. Unknown fields are rejected so
// alternative payload spellings never reach the runtime.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var header envelopeHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	env := Envelope{Type: header.Type}
	switch header.Type {
	case EnvelopeInit:
		var payload struct {
			Type EnvelopeType `json:"type"`
			InitConfig
		}
		if err := decodeStrict(raw, &payload); err != nil {
			return Envelope{}, err
		}
		env.Init = &payload.InitConfig
	case EnvelopeCommand:
		var payload struct {
			Type EnvelopeType `json:"type"`
			Command
		}
		if err := decodeStrict(raw, &payload); err != nil {
			return Envelope{}, err
		}
		if err := payload.Command.Validate(); err != nil {
			return Envelope{}, err
		}
		env.Command = &payload.Command
	case EnvelopeUpdate:
		var payload struct {
			Type EnvelopeType `json:"type"`
			Update
		}
		if err := decodeStrict(raw, &payload); err != nil {
			return Envelope{}, err
		}
		if payload.Update.ID == "" {
			return Envelope{}, fmt.Errorf("%w: update without id", ErrInvalidMessage)
		}
		env.Update = &payload.Update
	case EnvelopeDestroy:
		var payload destroyPayload
		if err := decodeStrict(raw, &payload); err != nil {
			return Envelope{}, err
		}
		if payload.ID == "" {
			return Envelope{}, fmt.Errorf("%w: destroy without id", ErrInvalidMessage)
		}
		env.DestroyID = payload.ID
	default:
		return Envelope{}, fmt.Errorf("%w: unknown envelope type %q", ErrInvalidMessage, header.Type)
	}
	return env, nil
}

func decodeStrict(raw []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// EncodeCommand wraps a command in an envelope.
func EncodeCommand(cmd Command) ([]byte, error) {
	return encodeWithType(EnvelopeCommand, cmd)
}

// EncodeInit wraps an init payload in an envelope.
func EncodeInit(cfg InitConfig) ([]byte, error) {
	return encodeWithType(EnvelopeInit, cfg)
}

// EncodeDestroy builds a destroy envelope.
func EncodeDestroy(id string) ([]byte, error) {
	return json.Marshal(destroyPayload{Type: EnvelopeDestroy, ID: id})
}

func encodeWithType(typ EnvelopeType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s: %w", typ, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("protocol: marshal %s: %w", typ, err)
	}
	fields["type"], _ = json.Marshal(typ)
	return json.Marshal(fields)
}
