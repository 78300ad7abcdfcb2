package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToAllSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var first, second int
	d.Subscribe(EventIssueCreated, func(context.Context, Event) error {
		first++
		return nil
	})
	d.Subscribe(EventIssueCreated, func(context.Context, Event) error {
		second++
		return nil
	})
	d.Subscribe(EventIssueBoosted, func(context.Context, Event) error {
		t.Fatal("handler for a different event type must not fire")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIssueCreated}))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	var delivered bool
	d.Subscribe(EventPaymentSettled, func(context.Context, Event) error {
		return errors.New("handler failed")
	})
	d.Subscribe(EventPaymentSettled, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventPaymentSettled}))
	assert.True(t, delivered)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventIssueUpvoted}))
}
