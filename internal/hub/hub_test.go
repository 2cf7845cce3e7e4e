package hub

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"care_tracker/internal/models"
)

func record(id string) models.HistoryRecord {
	return models.HistoryRecord{ID: id, CaregiverID: "cg-1", Timestamp: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func receive(t *testing.T, sub *Subscription) Update {
	t.Helper()
	select {
	case u, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func assertNothing(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case u, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected update %+v", u)
		}
	default:
	}
}

func TestHub_DeliversToCaregiverSubscribers(t *testing.T) {
	t.Parallel()

	h := New(4)
	a := h.Subscribe("cg-1")
	b := h.Subscribe("cg-1")
	other := h.Subscribe("cg-2")
	assert.Equal(t, 2, h.Count("cg-1"))
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "cg-1", a.CaregiverID())

	events := []models.GeofenceEvent{{ID: "e1", ZoneID: "z", Kind: models.GeofenceEntry}}
	h.Notify("cg-1", record("r1"), events)

	for _, sub := range []*Subscription{a, b} {
		u := receive(t, sub)
		assert.Equal(t, "r1", u.Record.ID)
		assert.Equal(t, events, u.Events)
	}
	assertNothing(t, other)

	// The hub keeps its own copy of the events.
	events[0].ID = "mutated"
	h.Notify("cg-1", record("r2"), events)
	assert.Equal(t, "mutated", receive(t, a).Events[0].ID)
	assert.Equal(t, "mutated", receive(t, b).Events[0].ID)
}

func TestHub_SubscribeAfterNotifyMissesEarlierUpdates(t *testing.T) {
	t.Parallel()

	h := New(4)
	h.Notify("cg-1", record("r1"), nil)
	sub := h.Subscribe("cg-1")
	assertNothing(t, sub)

	h.Notify("cg-1", record("r2"), nil)
	assert.Equal(t, "r2", receive(t, sub).Record.ID)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	h := New(4)
	sub := h.Subscribe("cg-1")
	sub.Close()
	sub.Close()
	assert.Zero(t, h.Count("cg-1"))

	h.Notify("cg-1", record("r1"), nil)
	_, ok := <-sub.C()
	assert.False(t, ok, "channel is closed after unsubscribe")
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	t.Parallel()

	h := New(2)
	slow := h.Subscribe("cg-1")
	fast := h.Subscribe("cg-1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			h.Notify("cg-1", record(fmt.Sprintf("r%d", i)), nil)
			<-fast.C()
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a slow subscriber")
	}

	assert.Equal(t, "r0", receive(t, slow).Record.ID)
	assert.Equal(t, "r1", receive(t, slow).Record.ID)
	assertNothing(t, slow)
}

func TestHub_Close(t *testing.T) {
	t.Parallel()

	h := New(0)
	sub := h.Subscribe("cg-1")
	h.Close()
	h.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)
	sub.Close()

	late := h.Subscribe("cg-1")
	_, ok = <-late.C()
	assert.False(t, ok, "subscriptions after Close are born closed")
	assert.Zero(t, h.Count("cg-1"))
	h.Notify("cg-1", record("r1"), nil)
}

func TestHub_ConcurrentSubscribeAndNotify(t *testing.T) {
	t.Parallel()

	h := New(DefaultBuffer)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sub := h.Subscribe("cg-1")
				sub.Close()
			}
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Notify("cg-1", record(fmt.Sprintf("r%d-%d", i, j)), nil)
			}
		}(i)
	}
	wg.Wait()
	assert.Zero(t, h.Count("cg-1"))
}
