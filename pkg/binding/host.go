package binding

import (
	"context"
	"fmt"

	"github.com/goliatone/go-surveysync/pkg/protocol"
)

// Handle applies one decoded host message. Must run on the loop goroutine.
func (r *Runtime) Handle(ctx context.Context, env protocol.Envelope) error {
	switch env.Type {
	case protocol.EnvelopeInit:
		if env.Init == nil {
			return newError(ErrCodeInvalidCommand, "", fmt.Errorf("init envelope without payload"))
		}
		_, err := r.Initialize(ctx, *env.Init)
		return err
	case protocol.EnvelopeCommand:
		if env.Command == nil {
			return newError(ErrCodeInvalidCommand, "", fmt.Errorf("command envelope without payload"))
		}
		return r.Dispatch(ctx, *env.Command)
	case protocol.EnvelopeUpdate:
		if env.Update == nil {
			return newError(ErrCodeInvalidCommand, "", fmt.Errorf("update envelope without payload"))
		}
		return r.ApplyUpdate(ctx, *env.Update)
	case protocol.EnvelopeDestroy:
		if !r.Destroy(env.DestroyID) {
			r.logger.Debug("binding: destroy for unknown instance", map[string]interface{}{"instance": env.DestroyID})
		}
		return nil
	default:
		return newError(ErrCodeInvalidCommand, "", fmt.Errorf("unknown envelope type %q", env.Type))
	}
}

// Deliver posts env to the loop. Safe from any goroutine. It reports false
// when the loop no longer accepts work.
func (r *Runtime) Deliver(ctx context.Context, env protocol.Envelope) bool {
	return r.sched.RunOnLoop(func() {
		_ = r.Handle(ctx, env)
	})
}

// DeliverRaw decodes a wire message and posts it to the loop. Decode errors
// are logged and returned; nothing reaches the runtime.
func (r *Runtime) DeliverRaw(ctx context.Context, raw []byte) error {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		r.logger.Warn("binding: undecodable host message", map[string]interface{}{"error": err.Error()})
		return newError(ErrCodeInvalidCommand, "", err)
	}
	if !r.Deliver(ctx, env) {
		return fmt.Errorf("binding: loop is not accepting work")
	}
	return nil
}
