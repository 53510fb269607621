// ABOUTME: Tests for observer lists and the fan-out broadcaster
// ABOUTME: Covers ordering, removal, fan-out, slow subscribers, cancellation and close

package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers_NotifyInRegistrationOrder(t *testing.T) {
	var obs Observers[string]
	var got []string

	obs.Add(func(v string) { got = append(got, "first:"+v) })
	obs.Add(func(v string) { got = append(got, "second:"+v) })

	obs.Notify("x")

	assert.Equal(t, []string{"first:x", "second:x"}, got)
}

func TestObservers_RemoveStopsDelivery(t *testing.T) {
	var obs Observers[int]
	calls := 0

	remove := obs.Add(func(int) { calls++ })
	obs.Notify(1)
	remove()
	obs.Notify(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, obs.Len())
}

func TestObservers_CallbackMayAddObserver(t *testing.T) {
	var obs Observers[int]
	added := false

	obs.Add(func(int) {
		if !added {
			added = true
			obs.Add(func(int) {})
		}
	})

	require.NotPanics(t, func() { obs.Notify(1) })
	assert.Equal(t, 2, obs.Len())
}

func TestBroadcaster_SingleSubscriberReceives(t *testing.T) {
	b := NewBroadcaster[string](nil)
	defer b.Close()

	ch, _ := b.Subscribe(testContext(t))
	b.Publish("hello")

	select {
	case v := <-ch:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestBroadcaster_MultipleSubscribersReceiveSameValue(t *testing.T) {
	b := NewBroadcaster[int](nil)
	defer b.Close()

	ch1, _ := b.Subscribe(testContext(t))
	ch2, _ := b.Subscribe(testContext(t))

	b.Publish(7)

	for i, ch := range []<-chan int{ch1, ch2} {
		select {
		case v := <-ch:
			assert.Equal(t, 7, v, "subscriber %d got wrong value", i)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestBroadcaster_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroadcaster[int](nil)
	defer b.Close()

	ch, _ := b.Subscribe(testContext(t))

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*2; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, ch, subscriberBufferSize)
}

func TestBroadcaster_ContextCancelUnsubscribes(t *testing.T) {
	b := NewBroadcaster[int](nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(testContext(t))
	ch, _ := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
	assert.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBroadcaster_UnsubscribeIsIdempotent(t *testing.T) {
	b := NewBroadcaster[int](nil)
	defer b.Close()

	_, id := b.Subscribe(testContext(t))
	b.Unsubscribe(id)
	require.NotPanics(t, func() { b.Unsubscribe(id) })
}

func TestBroadcaster_CloseClosesSubscribersAndRejectsNew(t *testing.T) {
	b := NewBroadcaster[int](nil)

	ch, _ := b.Subscribe(testContext(t))
	b.Close()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := b.Subscribe(testContext(t))
	_, ok = <-late
	assert.False(t, ok, "subscribe after close should return a closed channel")

	require.NotPanics(t, func() { b.Publish(1) })
}

func TestBroadcaster_ConcurrentPublishAndSubscribe(t *testing.T) {
	b := NewBroadcaster[int](nil)
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithCancel(testContext(t))
			b.Subscribe(ctx)
			cancel()
		}()
		go func(n int) {
			defer wg.Done()
			b.Publish(n)
		}(i)
	}
	wg.Wait()
}
