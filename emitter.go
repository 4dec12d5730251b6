package libemit

// Listener is a caller-supplied callback registered against an event type.
// Go has no implicit receiver binding, so the context value the listener was
// registered with is threaded through as the first parameter; it is nil when
// none was given. The remaining parameters are the arguments passed to Emit.
type Listener func(context any, args ...any)

// Emitter dispatches events synchronously to registered listeners, in
// registration order. It is not safe for concurrent use from multiple
// goroutines; reentrant use from within a listener (adding, removing,
// nested Emit calls) is supported.
type Emitter struct {
	subscriber *Subscriber
	current    *Subscription
	logger     Logger
}

// New creates an Emitter with no registered listeners.
func New() *Emitter {
	return NewWithLogger(noopLogger{})
}

// NewWithLogger creates an Emitter that reports dispatch activity to logger
// at debug level.
func NewWithLogger(logger Logger) *Emitter {
	return &Emitter{
		subscriber: newSubscriber(),
		logger:     logger.WithField("component", "emitter"),
	}
}

// AddListener registers listener under eventType and returns its
// subscription. Listeners are invoked in registration order; registering the
// same function twice yields two independent subscriptions. Any string is a
// valid event type.
func (e *Emitter) AddListener(eventType string, listener Listener, context any) *Subscription {
	return e.subscriber.addSubscription(
		eventType,
		newSubscription(e.subscriber, listener, context),
	)
}

// Once registers listener so that it fires at most once. The registration is
// removed before the listener body runs, so a reentrant Emit of the same
// event type cannot re-trigger it.
func (e *Emitter) Once(eventType string, listener Listener, context any) *Subscription {
	return e.AddListener(eventType, func(context any, args ...any) {
		_ = e.RemoveCurrentListener()
		listener(context, args...)
	}, context)
}

// RemoveAllListeners removes every subscription for the given event types,
// or for all event types when called with none.
func (e *Emitter) RemoveAllListeners(eventTypes ...string) {
	e.subscriber.removeAllSubscriptions(eventTypes...)
}

// RemoveCurrentListener cancels the subscription whose listener is being
// invoked right now. It is only valid from within a listener body during an
// Emit call and returns ErrNotEmitting otherwise.
func (e *Emitter) RemoveCurrentListener() error {
	if e.current == nil {
		return ErrNotEmitting
	}
	e.subscriber.removeSubscription(e.current)
	return nil
}

// Listeners returns the live subscriptions for eventType in registration
// order. Removed subscriptions are excluded and the returned slice does not
// alias internal state.
func (e *Emitter) Listeners(eventType string) []*Subscription {
	table := e.subscriber.subscriptionsForEvent(eventType)
	if table == nil {
		return nil
	}
	return table.live()
}

// Emit synchronously invokes every listener registered for eventType with
// args, in registration order. Emitting a type nobody ever registered for is
// a no-op.
//
// The set of slot keys present when Emit starts is snapshotted before any
// listener runs, and each key is re-checked against live state immediately
// before its invocation. Listeners added during the cycle therefore fire
// starting from the next Emit, while removals, including self-removal via
// RemoveCurrentListener, take effect immediately.
//
// A panicking listener aborts the remainder of the cycle and propagates to
// the caller; the current-subscription tracking is restored regardless, so a
// later Emit starts clean and a nested Emit hands back the outer cycle's
// current subscription when it returns.
func (e *Emitter) Emit(eventType string, args ...any) {
	table := e.subscriber.subscriptionsForEvent(eventType)
	if table == nil {
		return
	}

	keys := table.presentKeys()
	e.logger.Debugf("emit %q to %d listeners", eventType, len(keys))

	prev := e.current
	defer func() {
		e.current = prev
	}()

	for _, key := range keys {
		sub := table.at(key)
		if sub == nil {
			// removed earlier in this cycle
			continue
		}
		e.current = sub
		sub.listener(sub.context, args...)
	}
}
