package libemit

// Subscription is a cancellation handle for one listener registration. It
// carries a non-owning reference to the Subscriber that minted it, so a
// caller can cancel without knowing the event type.
type Subscription struct {
	subscriber *Subscriber
	eventType  string
	key        int
	listener   Listener
	context    any
}

func newSubscription(subscriber *Subscriber, listener Listener, context any) *Subscription {
	return &Subscription{
		subscriber: subscriber,
		listener:   listener,
		context:    context,
	}
}

// EventType returns the event type this subscription was registered under.
func (s *Subscription) EventType() string {
	return s.eventType
}

// Remove cancels the registration. It is idempotent: calling it twice, or
// after RemoveAllListeners already cleared the bucket, is a no-op.
func (s *Subscription) Remove() {
	if s.subscriber == nil {
		return
	}
	s.subscriber.removeSubscription(s)
}
