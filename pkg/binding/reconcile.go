package binding

import (
	"context"
	"errors"

	"github.com/goliatone/go-surveysync/pkg/protocol"
	"github.com/goliatone/go-surveysync/pkg/survey"
)

// Host mutations race with user edits under these rules:
//
//  1. Commands apply in arrival order, one at a time, with no batching.
//  2. Nothing is reordered: a host that sends data before the schema defining
//     its fields loses those fields.
//  3. Host data never produces data_live; only organic edits do. The model
//     fires OnValueChanged for SetValue alone.
//  4. While the mode is display, data commands are rejected until a mode
//     edit command arrives.
//  5. Rejected commands are logged and dropped. There is no queue and no
//     retry; the instance keeps serving.
//
// A pending data_live timer survives schema and mode changes and reports the
// snapshot current when it fires.

func (r *Runtime) applyData(_ context.Context, inst *Instance, cmd protocol.Command) error {
	if inst.model.Mode() == survey.ModeDisplay {
		return newError(ErrCodeRejectedMutation, inst.id, errors.New("data command while in display mode"))
	}
	var dropped []string
	if cmd.Merge {
		dropped = inst.model.MergeData(cmd.Data)
	} else {
		dropped = inst.model.SetData(cmd.Data)
	}
	if len(dropped) > 0 {
		r.logger.Debug("binding: data fields not in schema dropped", map[string]interface{}{
			"instance": inst.id,
			"fields":   dropped,
		})
	}
	return nil
}

func (r *Runtime) applyMode(_ context.Context, inst *Instance, cmd protocol.Command) error {
	mode, err := survey.ParseMode(cmd.Mode)
	if err != nil {
		return newError(ErrCodeInvalidCommand, inst.id, err)
	}
	if mode == inst.model.Mode() {
		return nil
	}
	return r.regenerate(inst, inst.model.Schema(), mode)
}

func (r *Runtime) applySchema(_ context.Context, inst *Instance, cmd protocol.Command) error {
	schema, err := survey.ParseSchema(cmd.Schema)
	if err != nil {
		return newError(ErrCodeMalformedSchema, inst.id, err)
	}
	return r.regenerate(inst, schema, inst.model.Mode())
}

func (r *Runtime) applyLocale(_ context.Context, inst *Instance, cmd protocol.Command) error {
	if err := inst.model.SetLocale(cmd.Locale); err != nil {
		return newError(ErrCodeInvalidCommand, inst.id, err)
	}
	return nil
}

func (r *Runtime) applyClear(_ context.Context, inst *Instance, _ protocol.Command) error {
	inst.model.Clear()
	return nil
}

func (r *Runtime) applyComplete(_ context.Context, inst *Instance, _ protocol.Command) error {
	if !inst.model.Complete() {
		r.logger.Debug("binding: instance already completed", map[string]interface{}{"instance": inst.id})
	}
	return nil
}

func (r *Runtime) applyFocus(_ context.Context, inst *Instance, _ protocol.Command) error {
	if _, ok := inst.model.FocusFirstQuestion(); !ok {
		r.logger.Debug("binding: no question can take focus", map[string]interface{}{"instance": inst.id})
	}
	return nil
}

func (r *Runtime) applyTheme(_ context.Context, inst *Instance, cmd protocol.Command) error {
	log := r.logger.WithFields(map[string]interface{}{"instance": inst.id})
	style, ok := r.resolveStyle(log, cmd.Theme, cmd.ThemeVars)
	if !ok {
		return nil
	}
	inst.style = style
	if err := inst.view.SetStyle(style); err != nil {
		log.Warn("binding: theme not rendered", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// regenerate swaps in a new model generation built from schema, carrying
// over answers still defined, locale and completion, and rebinding listeners
// and the view.
func (r *Runtime) regenerate(inst *Instance, schema survey.Schema, mode survey.Mode) error {
	next, dropped := inst.model.Regenerate(schema)
	if err := next.SetMode(mode); err != nil {
		return newError(ErrCodeInvalidCommand, inst.id, err)
	}

	r.unbind(inst)
	if inst.rendered {
		inst.view.Detach()
	}
	inst.model = next
	inst.generation++
	r.bind(inst)

	if len(dropped) > 0 {
		r.logger.Debug("binding: answers dropped by schema change", map[string]interface{}{
			"instance": inst.id,
			"fields":   dropped,
		})
	}
	if !inst.rendered {
		return nil
	}
	if err := inst.view.Attach(inst.ctx, inst.mount, next); err != nil {
		inst.mount.ShowError("Survey could not be rendered.")
		r.logger.Error("binding: render failed", map[string]interface{}{
			"instance": inst.id,
			"error":    err.Error(),
		})
	}
	return nil
}
