package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/shareserver/internal/envelope"
	"github.com/roach88/shareserver/internal/params"
)

// State names a dispatch step. It appears in logs so a failed call shows
// where it stopped.
type State string

const (
	StateResolving   State = "RESOLVING"
	StateAuthorizing State = "AUTHORIZING"
	StateBinding     State = "BINDING"
	StateExecuting   State = "EXECUTING"
	StateComplete    State = "COMPLETE"
)

// Messages used by dispatcher short-circuits.
const (
	msgNotLoggedIn           = "you are not logged in"
	msgInsufficientPrivilege = "insufficient privilege"
	msgInternalError         = "internal error"
	msgNoResult              = "procedure returned no result"
)

// Dispatcher routes calls to handlers. It holds no per-call state and is
// safe for concurrent use.
type Dispatcher struct {
	table   *Table
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics records every dispatch outcome in m.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher over a built table.
func NewDispatcher(table *Table, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		table:  table,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Table returns the procedure table the dispatcher resolves against.
func (d *Dispatcher) Table() *Table {
	return d.table
}

// Dispatch runs one call to completion and returns its envelope. It never
// panics and never returns without an envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, call *Call) envelope.Envelope {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	env, state := d.dispatch(ctx, call)

	d.observe(call, env, state, time.Since(started))
	return env
}

func (d *Dispatcher) dispatch(ctx context.Context, call *Call) (envelope.Envelope, State) {
	if call == nil {
		return envelope.NewFailureResult("empty call", envelope.CodeUnknownProcedure, nil), StateResolving
	}

	// RESOLVING
	desc, err := d.table.Resolve(call.Service, call.Procedure)
	if err != nil {
		msg := fmt.Sprintf("unknown procedure %s.%s", call.Service, call.Procedure)
		return envelope.NewFailureResult(msg, envelope.CodeUnknownProcedure, err), StateResolving
	}

	// AUTHORIZING: decided from the session alone, before the handler runs.
	if !call.Session.Allows(desc.MinPrivilege) {
		msg := msgInsufficientPrivilege
		if !call.Session.LoggedIn {
			msg = msgNotLoggedIn
		}
		return envelope.NewFailureResult(msg, envelope.CodeAuth, nil), StateAuthorizing
	}

	// Handlers get a non-nil map; the caller's call is left untouched.
	if call.Params == nil {
		local := *call
		local.Params = params.Params{}
		call = &local
	}

	// BINDING and EXECUTING both happen inside the handler body.
	return d.execute(ctx, desc, call)
}

func (d *Dispatcher) execute(ctx context.Context, desc Descriptor, call *Call) (env envelope.Envelope, state State) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in %s: %v", desc.Method(), r)
			env = envelope.NewFailureResult(msgInternalError, envelope.CodeUnknown, err)
			state = StateExecuting
		}
	}()

	result, err := desc.Handler(ctx, call)
	if err != nil {
		if params.IsParameterError(err) {
			return envelope.NewFailureResult(err.Error(), envelope.CodeParameter, err), StateBinding
		}
		return envelope.FromError(err), StateExecuting
	}

	if !result.Success && !envelope.Known(result.ErrorCode) {
		msg := result.Message
		if msg == "" {
			msg = msgNoResult
		}
		return envelope.NewFailureResult(msg, envelope.CodeUnknown, result.Detail()), StateExecuting
	}
	if !result.Success {
		return result, StateExecuting
	}
	return result, StateComplete
}

func (d *Dispatcher) observe(call *Call, env envelope.Envelope, state State, elapsed time.Duration) {
	service, procedure, user := "", "", int64(0)
	if call != nil {
		service, procedure, user = call.Service, call.Procedure, call.Session.UserID
	}

	if d.metrics != nil {
		d.metrics.observe(d.table, service, procedure, env, elapsed)
	}

	attrs := []any{
		"service", service,
		"procedure", procedure,
		"user_id", user,
		"state", string(state),
		"latency_ms", elapsed.Milliseconds(),
	}

	if env.Success {
		d.logger.Debug("procedure completed", attrs...)
		return
	}

	attrs = append(attrs, "code", string(env.ErrorCode))
	switch env.ErrorCode {
	case envelope.CodeAuth, envelope.CodeParameter, envelope.CodeUnknownProcedure:
		if detail := env.Detail(); detail != nil {
			attrs = append(attrs, "error", detail)
		}
		d.logger.Info("procedure rejected", attrs...)
	default:
		if detail := env.Detail(); detail != nil {
			attrs = append(attrs, "error", detail)
		}
		d.logger.Error("procedure failed", attrs...)
	}
}
