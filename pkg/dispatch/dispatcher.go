package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/message-router/pkg/events"
)

const logPrefix = "dispatch:dispatcher"

// DefaultTimeout is the per-dispatch execution budget when Options.Timeout
// is zero.
const DefaultTimeout = 5 * time.Second

// NoTimeout disables the execution budget.
const NoTimeout = time.Duration(-1)

// Options configures a Dispatcher. The zero value is usable. Configuration
// is fixed at construction.
type Options struct {
	// Timeout is the per-dispatch execution budget. Zero means DefaultTimeout;
	// NoTimeout (or any negative value) disables the budget.
	Timeout time.Duration

	// OnUnknownType produces the response for messages whose type has no
	// registered handler. Its output passes through Normalize. Nil means the
	// built-in "Unknown msg.type" error envelope.
	OnUnknownType func(msg *Message) any

	// OnHandlerError produces the response when a handler returns an error,
	// panics, or times out. Its output passes through Normalize. Nil means an
	// error envelope carrying the error text.
	OnHandlerError func(err error, msg *Message, call *Context) any

	// Logger receives warn/error diagnostics. Nil means slog.Default();
	// NopLogger disables diagnostics.
	Logger *slog.Logger

	// Publisher receives a DispatchedEvent after every routed dispatch.
	// Nil means events are dropped.
	Publisher events.Publisher
}

// Dispatcher owns the type→handler registry and runs the dispatch
// lifecycle: validate, route, execute under the timeout budget, normalize,
// finalize. Dispatch never returns a Go error; every failure path ends in a
// well-formed error envelope.
type Dispatcher struct {
	reg            *registry
	timeout        time.Duration
	onUnknownType  func(msg *Message) any
	onHandlerError func(err error, msg *Message, call *Context) any
	logger         *slog.Logger
	publisher      events.Publisher
}

// NewDispatcher creates a Dispatcher from opts.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		reg:            newRegistry(),
		timeout:        opts.Timeout,
		onUnknownType:  opts.OnUnknownType,
		onHandlerError: opts.OnHandlerError,
		logger:         opts.Logger,
		publisher:      opts.Publisher,
	}
	if d.timeout == 0 {
		d.timeout = DefaultTimeout
	}
	if d.timeout < 0 {
		d.timeout = 0
	}
	if d.onUnknownType == nil {
		d.onUnknownType = func(msg *Message) any {
			return Err(fmt.Sprintf("Unknown msg.type: %s", msg.Type))
		}
	}
	if d.onHandlerError == nil {
		d.onHandlerError = func(err error, _ *Message, _ *Context) any {
			return Err(err.Error())
		}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.publisher == nil {
		d.publisher = &events.NoOpPublisher{}
	}
	return d
}

// Register adds or replaces the handler for msgType. Last write wins.
func (d *Dispatcher) Register(msgType string, h HandlerFunc) {
	d.reg.register(msgType, h)
}

// RegisterAll merges handlers into the registry. Keys are merged in sorted
// order so the observable listing order stays deterministic.
func (d *Dispatcher) RegisterAll(handlers map[string]HandlerFunc) {
	keys := make([]string, 0, len(handlers))
	for k := range handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.reg.register(k, handlers[k])
	}
}

// Unregister removes the handler for msgType and reports whether one was
// registered. Dispatches already in flight keep their captured handler.
func (d *Dispatcher) Unregister(msgType string) bool {
	return d.reg.unregister(msgType)
}

// Has reports whether a handler is registered for msgType.
func (d *Dispatcher) Has(msgType string) bool {
	return d.reg.has(msgType)
}

// Types returns the registered type names in registration order.
func (d *Dispatcher) Types() []string {
	return d.reg.types()
}

// Dispatch routes msg to its handler and returns exactly one envelope.
// sender is opaque metadata passed through to the handler; nil is fine.
// ctx cancellation is treated like a handler failure and routed through the
// error collaborator.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message, sender any) (env Envelope) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	var call *Context
	defer func() {
		// Last-resort guard for a panicking collaborator: the caller still
		// gets one well-formed envelope and the signal still fires.
		if r := recover(); r != nil {
			d.logger.Error(fmt.Sprintf("%s - dispatch panic: %v", logPrefix, r))
			env = Err(fmt.Sprintf("Internal dispatch error: %v", r))
			if call != nil {
				call.seal()
				call.signal.trigger()
			}
		}
	}()

	// Validating: short-circuits before the registry is consulted.
	if msg == nil {
		return Err("Invalid message: message must be an object")
	}
	if msg.Type == "" {
		return Err("Invalid message: 'type' must be a non-empty string")
	}

	correlationID := msg.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	call = newContext(msg, sender, correlationID, d.logger)

	// Routing: an unknown type is handled by the collaborator as if it were
	// the handler's own synchronous output.
	handler, found := d.reg.lookup(msg.Type)
	if !found {
		call.deliver(d.onUnknownType(msg))
		return d.finalize(ctx, msg, call, start)
	}

	// Executing: the handler runs under the timeout race. The race settles
	// the dispatch; it cannot stop the handler itself.
	out := runWithTimeout(ctx, func() outcome {
		ret, err := handler(ctx, msg, call)
		return outcome{value: ret, err: err}
	}, d.timeout, func() outcome {
		return outcome{err: &TimeoutError{Type: msg.Type, Timeout: d.timeout}}
	})

	if out.err != nil {
		d.logger.Error(fmt.Sprintf("%s - handler %s failed: %v (correlationId=%s)",
			logPrefix, msg.Type, out.err, correlationID))
		if !call.hasResponse() {
			call.deliver(d.onHandlerError(out.err, msg, call))
		}
	} else if out.value != nil {
		// Return-value delivery is sugar for an implicit Send.
		call.deliver(out.value)
	}

	if !call.hasResponse() {
		call.deliver(Err(fmt.Sprintf("Handler %s returned no response", msg.Type)))
	}

	return d.finalize(ctx, msg, call, start)
}

// finalize seals the call, fires the cancellation signal unconditionally,
// publishes the dispatch event, and returns the captured envelope.
func (d *Dispatcher) finalize(ctx context.Context, msg *Message, call *Context, start time.Time) Envelope {
	env := call.seal()
	call.signal.trigger()

	evt := &events.DispatchedEvent{
		Type:          msg.Type,
		CorrelationID: call.CorrelationID(),
		Ok:            env.OK,
		Error:         env.Error,
		DurationMs:    time.Since(start).Milliseconds(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := d.publisher.PublishDispatched(ctx, evt); err != nil {
		d.logger.Error(fmt.Sprintf("%s - failed to publish dispatch event for %s: %v",
			logPrefix, msg.Type, err))
	}
	return env
}
