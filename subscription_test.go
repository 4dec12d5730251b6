package libemit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionRemoveDelegatesToSubscriber(t *testing.T) {
	s := newSubscriber()

	sub := s.addSubscription("type1", newSubscription(s, noopListener, nil))
	sub.Remove()

	assert.Nil(t, s.subscriptionsForEvent("type1").at(sub.key))
}

func TestSubscriptionRemoveAfterBulkRemoveIsNoop(t *testing.T) {
	s := newSubscriber()

	sub := s.addSubscription("type1", newSubscription(s, noopListener, nil))
	s.removeAllSubscriptions()

	sub.Remove()
}

func TestSubscriptionRemoveDoesNotTouchReusedSlotOwner(t *testing.T) {
	s := newSubscriber()

	sub1 := s.addSubscription("type1", newSubscription(s, noopListener, nil))
	sub1.Remove()

	sub2 := s.addSubscription("type1", newSubscription(s, noopListener, nil))

	// A stale handle must never evict another subscription.
	sub1.Remove()
	assert.Same(t, sub2, s.subscriptionsForEvent("type1").at(sub2.key))
}

func TestSubscriptionWithoutSubscriber(t *testing.T) {
	var sub Subscription
	sub.Remove()
}
