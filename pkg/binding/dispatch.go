package binding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-surveysync/internal/metrics"
	"github.com/goliatone/go-surveysync/pkg/protocol"
)

func (r *Runtime) dispatchTable() map[protocol.Kind]commandHandler {
	return map[protocol.Kind]commandHandler{
		protocol.KindData:     r.applyData,
		protocol.KindMode:     r.applyMode,
		protocol.KindSchema:   r.applySchema,
		protocol.KindLocale:   r.applyLocale,
		protocol.KindClear:    r.applyClear,
		protocol.KindComplete: r.applyComplete,
		protocol.KindFocus:    r.applyFocus,
		protocol.KindTheme:    r.applyTheme,
	}
}

// Dispatch applies one host command. Commands for unknown instances are
// dropped with a debug log; rejected and invalid commands are logged as
// warnings and leave the instance unchanged. The returned *Error is for
// callers that count outcomes; nothing is sent back to the host. Must run on
// the loop goroutine.
func (r *Runtime) Dispatch(ctx context.Context, cmd protocol.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "binding.dispatch",
		trace.WithAttributes(
			attribute.String("surveysync.instance", cmd.ID),
			attribute.String("surveysync.kind", string(cmd.Kind)),
		),
	)
	defer span.End()

	err := r.dispatch(ctx, cmd)
	outcome := outcomeOf(err)
	metrics.CommandsTotal.WithLabelValues(string(cmd.Kind), outcome).Inc()
	metrics.DispatchDuration.WithLabelValues(string(cmd.Kind)).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("surveysync.outcome", outcome))

	if err == nil {
		return nil
	}
	fields := map[string]interface{}{
		"instance": cmd.ID,
		"kind":     string(cmd.Kind),
		"error":    err.Error(),
	}
	switch CodeOf(err) {
	case ErrCodeUnknownInstance:
		r.logger.Debug("binding: command for unknown instance dropped", fields)
	case ErrCodeRejectedMutation, ErrCodeInvalidCommand, ErrCodeMalformedSchema:
		r.logger.Warn("binding: command not applied", fields)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("binding: command failed", fields)
	}
	return err
}

func (r *Runtime) dispatch(ctx context.Context, cmd protocol.Command) error {
	inst, ok := r.registry.Get(cmd.ID)
	if !ok {
		return newError(ErrCodeUnknownInstance, cmd.ID, nil)
	}
	handler, ok := r.table[cmd.Kind]
	if !ok {
		return newError(ErrCodeInvalidCommand, cmd.ID, fmt.Errorf("unknown command kind %q", cmd.Kind))
	}
	return handler(ctx, inst, cmd)
}

// ApplyUpdate dispatches the commands of a combined update in order. Every
// command is attempted; their errors are joined.
func (r *Runtime) ApplyUpdate(ctx context.Context, update protocol.Update) error {
	var errs []error
	for _, cmd := range update.Commands() {
		if err := r.Dispatch(ctx, cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func outcomeOf(err error) string {
	switch CodeOf(err) {
	case "":
		if err == nil {
			return metrics.OutcomeApplied
		}
		return metrics.OutcomeFailed
	case ErrCodeUnknownInstance:
		return metrics.OutcomeDropped
	case ErrCodeRejectedMutation, ErrCodeInvalidCommand, ErrCodeMalformedSchema:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
