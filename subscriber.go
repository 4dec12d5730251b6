package libemit

// slotTable is an append-only collection of subscriptions for one event type.
// Slot keys are indices into the slice and are never reused; removal leaves a
// nil hole so that keys captured before the removal stay valid while an
// emission cycle is iterating.
type slotTable struct {
	slots []*Subscription
}

func (t *slotTable) add(sub *Subscription) int {
	t.slots = append(t.slots, sub)
	return len(t.slots) - 1
}

// at returns the subscription stored under key, or nil if the slot has been
// removed. Keys beyond the table are treated as absent.
func (t *slotTable) at(key int) *Subscription {
	if key < 0 || key >= len(t.slots) {
		return nil
	}
	return t.slots[key]
}

func (t *slotTable) remove(key int) {
	if key >= 0 && key < len(t.slots) {
		t.slots[key] = nil
	}
}

// presentKeys returns the keys of the slots that are occupied right now, in
// insertion order.
func (t *slotTable) presentKeys() []int {
	keys := make([]int, 0, len(t.slots))
	for key, sub := range t.slots {
		if sub != nil {
			keys = append(keys, key)
		}
	}
	return keys
}

// live returns a fresh slice with the occupied slots in insertion order.
func (t *slotTable) live() []*Subscription {
	subs := make([]*Subscription, 0, len(t.slots))
	for _, sub := range t.slots {
		if sub != nil {
			subs = append(subs, sub)
		}
	}
	return subs
}

// clear empties the table in place, so holders of a live reference observe
// the removal.
func (t *slotTable) clear() {
	for key := range t.slots {
		t.slots[key] = nil
	}
	t.slots = t.slots[:0]
}

// Subscriber is the single source of truth for which listeners exist per
// event type. It maps event types to slot tables and mints the subscription
// handles that Emitter gives back to callers.
type Subscriber struct {
	subscriptionsForType map[string]*slotTable
}

func newSubscriber() *Subscriber {
	return &Subscriber{
		subscriptionsForType: make(map[string]*slotTable),
	}
}

// addSubscription stores sub under eventType, creating the slot table on
// first use. The same listener may be registered any number of times; every
// call yields an independent subscription.
func (s *Subscriber) addSubscription(eventType string, sub *Subscription) *Subscription {
	table, ok := s.subscriptionsForType[eventType]
	if !ok {
		table = &slotTable{}
		s.subscriptionsForType[eventType] = table
	}

	sub.eventType = eventType
	sub.key = table.add(sub)

	return sub
}

// subscriptionsForEvent returns the live slot table for eventType, holes
// included, or nil if no listener was ever registered for it. The returned
// table aliases internal state: Emit relies on observing removals through it
// without re-fetching.
func (s *Subscriber) subscriptionsForEvent(eventType string) *slotTable {
	return s.subscriptionsForType[eventType]
}

// removeSubscription tombstones the slot owned by sub. Removing an already
// removed subscription is a no-op.
func (s *Subscriber) removeSubscription(sub *Subscription) {
	table, ok := s.subscriptionsForType[sub.eventType]
	if !ok {
		return
	}
	if table.at(sub.key) != sub {
		return
	}
	table.remove(sub.key)
}

// removeAllSubscriptions clears the given event types, or every event type
// when called with none. Tables are emptied in place before being dropped so
// an in-flight emission cycle sees its remaining subscriptions disappear.
func (s *Subscriber) removeAllSubscriptions(eventTypes ...string) {
	if len(eventTypes) == 0 {
		for eventType, table := range s.subscriptionsForType {
			table.clear()
			delete(s.subscriptionsForType, eventType)
		}
		return
	}

	for _, eventType := range eventTypes {
		if table, ok := s.subscriptionsForType[eventType]; ok {
			table.clear()
			delete(s.subscriptionsForType, eventType)
		}
	}
}
