// ABOUTME: Tests for the unseen message counter
// ABOUTME: Covers clear-then-increment counts, defaults, snapshots and notifications

package unseen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_DefaultsToZero(t *testing.T) {
	c := NewCounter()
	assert.Equal(t, 0, c.Get("unknown"))
}

func TestCounter_ClearThenIncrementN(t *testing.T) {
	c := NewCounter()
	c.Increment("u1")
	c.Increment("u1")

	c.Clear("u1")
	assert.Equal(t, 0, c.Get("u1"))

	for n := 1; n <= 5; n++ {
		assert.Equal(t, n, c.Increment("u1"))
	}
	assert.Equal(t, 5, c.Get("u1"))
}

func TestCounter_ConversationsAreIndependent(t *testing.T) {
	c := NewCounter()
	c.Increment("u1")
	c.Increment("u2")
	c.Increment("u2")
	c.Clear("u1")

	assert.Equal(t, 0, c.Get("u1"))
	assert.Equal(t, 2, c.Get("u2"))
	assert.Equal(t, 2, c.Total())
	assert.Equal(t, map[string]int{"u2": 2}, c.Snapshot())
}

func TestCounter_SnapshotIsACopy(t *testing.T) {
	c := NewCounter()
	c.Increment("u1")

	snap := c.Snapshot()
	snap["u1"] = 99

	assert.Equal(t, 1, c.Get("u1"))
}

func TestCounter_Notifications(t *testing.T) {
	c := NewCounter()
	var changes []Change
	c.OnChange(func(ch Change) { changes = append(changes, ch) })

	c.Clear("u1") // nothing to clear
	c.Increment("u1")
	c.Clear("u1")
	c.Clear("u1") // already zero
	c.Reset()

	assert.Equal(t, []Change{
		{ConversationID: "u1", Count: 1},
		{ConversationID: "u1", Count: 0},
		{},
	}, changes)
}

func TestCounter_Reset(t *testing.T) {
	c := NewCounter()
	c.Increment("u1")
	c.Reset()
	assert.Equal(t, 0, c.Total())
	assert.Empty(t, c.Snapshot())
}

func TestCounter_ConcurrentIncrements(t *testing.T) {
	c := NewCounter()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Increment("u1")
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, c.Get("u1"))
}
