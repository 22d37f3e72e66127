package dispatch

import (
	"fmt"
	"log/slog"
	"sync"
)

const contextLogPrefix = "dispatch:context"

// Context is the per-dispatch context handed to a handler. It is created
// fresh for every dispatch and never reused. Send delivers at most one
// response (first response wins); the signal fires once the handler's
// execution window closes, whatever closed it.
type Context struct {
	msgType       string
	correlationID string
	sender        any
	signal        *Signal
	logger        *slog.Logger

	mu        sync.Mutex
	responded bool
	sealed    bool
	envelope  Envelope
}

func newContext(msg *Message, sender any, correlationID string, logger *slog.Logger) *Context {
	return &Context{
		msgType:       msg.Type,
		correlationID: correlationID,
		sender:        sender,
		signal:        newSignal(),
		logger:        logger,
	}
}

// Send normalizes payload and stores it as the dispatch outcome. Only the
// first call per dispatch wins; every later call is a logged no-op. It
// reports whether the payload was accepted.
func (c *Context) Send(payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.responded || c.sealed {
		c.logger.Warn(fmt.Sprintf("%s - duplicate response for %s ignored (correlationId=%s)",
			contextLogPrefix, c.msgType, c.correlationID))
		return false
	}
	c.envelope = Normalize(payload, c.logger)
	c.responded = true
	return true
}

// deliver is the dispatcher-internal Send: same first-wins rule, but a lost
// race is expected on the implicit-send and collaborator paths, so it stays
// silent.
func (c *Context) deliver(payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.responded || c.sealed {
		return false
	}
	c.envelope = Normalize(payload, c.logger)
	c.responded = true
	return true
}

func (c *Context) hasResponse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responded
}

// seal closes the send window and returns the captured envelope. A zombie
// handler calling Send after seal gets the logged no-op, never a re-settled
// dispatch.
func (c *Context) seal() Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
	return c.envelope
}

// Done returns a channel closed when the handler's execution window ends.
func (c *Context) Done() <-chan struct{} {
	return c.signal.Done()
}

// Aborted reports whether the execution window has ended.
func (c *Context) Aborted() bool {
	return c.signal.Aborted()
}

// Signal returns the underlying one-shot signal for handlers that want to
// hand it further down.
func (c *Context) Signal() *Signal {
	return c.signal
}

// CorrelationID returns the correlation id for this dispatch.
func (c *Context) CorrelationID() string {
	return c.correlationID
}

// Sender returns the opaque sender metadata passed to Dispatch.
func (c *Context) Sender() any {
	return c.sender
}
