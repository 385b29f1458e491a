package hub

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errStale = errors.New("stale")

func TestDeliverFansOutToEveryHandle(t *testing.T) {
	reg := NewMemoryRegistry()
	router := NewRouter(reg, zap.NewNop())
	a, b := newFakeHandle("a"), newFakeHandle("b")
	other := newFakeHandle("other")
	reg.Register("alice", a)
	reg.Register("alice", b)
	reg.Register("bob", other)

	n := router.Deliver("alice", Event{Name: EventNewMessage, Data: map[string]string{"id": "m1"}})
	assert.Equal(t, 2, n)

	for _, h := range []*fakeHandle{a, b} {
		frames := h.Frames()
		require.Len(t, frames, 1)
		assert.JSONEq(t, `{"event":"new_message","data":{"id":"m1"}}`, string(frames[0]))
	}
	assert.Empty(t, other.Frames())
}

func TestDeliverWithNoSessions(t *testing.T) {
	router := NewRouter(NewMemoryRegistry(), zap.NewNop())
	assert.Zero(t, router.Deliver("nobody", Event{Name: EventNewRequest}))
}

func TestDeliverDropsStaleHandle(t *testing.T) {
	reg := NewMemoryRegistry()
	router := NewRouter(reg, zap.NewNop())
	stale, live := newFakeHandle("stale"), newFakeHandle("live")
	stale.err = errStale
	reg.Register("alice", stale)
	reg.Register("alice", live)

	n := router.Deliver("alice", Event{Name: EventHeReadMessage, Data: map[string]string{"message_id": "m"}})

	assert.Equal(t, 1, n)
	assert.Len(t, live.Frames(), 1)
	assert.True(t, stale.Closed())
	assert.Equal(t, []Handle{live}, reg.HandlesFor("alice"))
}

func TestDeliverEachSkipsRepeats(t *testing.T) {
	reg := NewMemoryRegistry()
	router := NewRouter(reg, zap.NewNop())
	a := newFakeHandle("a")
	reg.Register("alice", a)

	n := router.DeliverEach([]string{"alice", "bob", "alice"}, Event{Name: EventRequestCanceled})
	assert.Equal(t, 1, n)
	assert.Len(t, a.Frames(), 1)
}

func TestDeliverUnencodableEvent(t *testing.T) {
	reg := NewMemoryRegistry()
	router := NewRouter(reg, zap.NewNop())
	a := newFakeHandle("a")
	reg.Register("alice", a)

	assert.Zero(t, router.Deliver("alice", Event{Name: "bad", Data: make(chan int)}))
	assert.Empty(t, a.Frames())
}
