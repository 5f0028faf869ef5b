package events

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	t.Parallel()

	bus := New[int](WithLogger[int](quietLogger()))
	first := bus.Subscribe()
	second := bus.Subscribe()

	bus.Publish(7)

	assert.Equal(t, 7, <-first.C())
	assert.Equal(t, 7, <-second.C())
	assert.Equal(t, 2, bus.Len())
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	bus := New[string](WithBufferSize[string](1), WithLogger[string](quietLogger()))
	sub := bus.Subscribe()

	bus.Publish("a")
	bus.Publish("b")

	require.Equal(t, "a", <-sub.C())
	select {
	case got := <-sub.C():
		t.Fatalf("unexpected second message %q", got)
	default:
	}
}

func TestSubscriptionCloseDetaches(t *testing.T) {
	t.Parallel()

	bus := New[int](WithLogger[int](quietLogger()))
	sub := bus.Subscribe()
	sub.Close()
	sub.Close()

	bus.Publish(1)

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.Equal(t, 0, bus.Len())
}

func TestBusCloseClosesSubscribers(t *testing.T) {
	t.Parallel()

	bus := New[int](WithLogger[int](quietLogger()))
	sub := bus.Subscribe()
	bus.Close()
	sub.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)

	late := bus.Subscribe()
	_, ok = <-late.C()
	assert.False(t, ok)

	bus.Publish(3)
}

func TestSubscribeWithDeliversInitialFirst(t *testing.T) {
	t.Parallel()

	bus := New[int](WithLogger[int](quietLogger()))
	sub := bus.SubscribeWith(1)
	bus.Publish(2)

	assert.Equal(t, 1, <-sub.C())
	assert.Equal(t, 2, <-sub.C())
}
