package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CUknot/arena_backend/events"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(h *Hub, userID uint, name string) *Client {
	return newClient(h, nil, userID, name, discard())
}

// recv returns the next frame queued for c.
func recv(t *testing.T, c *Client) inbound {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg inbound
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatalf("no frame for %s", c.username)
		return inbound{}
	}
}

func assertIdle(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected frame for %s: %s", c.username, raw)
	default:
	}
}

func TestHubDeliverRouting(t *testing.T) {
	h := NewHub(discard())
	a := testClient(h, 1, "alice")
	b := testClient(h, 2, "bob")
	c := testClient(h, 3, "carol")
	for _, cl := range []*Client{a, b, c} {
		h.add(cl)
	}
	h.JoinGroup(a.id, "7")
	h.JoinGroup(b.id, "7")

	h.Deliver(events.Event{Type: "direct", Target: b.id, Payload: 1})
	assert.Equal(t, "direct", recv(t, b).Type)
	assertIdle(t, a)
	assertIdle(t, c)

	h.Deliver(events.Event{Type: "tick", Group: "7"})
	assert.Equal(t, "tick", recv(t, a).Type)
	assert.Equal(t, "tick", recv(t, b).Type)
	assertIdle(t, c)

	h.Deliver(events.Event{Type: "add chat", Payload: map[string]string{"name": "general"}})
	for _, cl := range []*Client{a, b, c} {
		msg := recv(t, cl)
		assert.Equal(t, "add chat", msg.Type)
		assert.JSONEq(t, `{"name":"general"}`, string(msg.Payload))
	}

	h.DisbandGroup("7")
	h.Deliver(events.Event{Type: "tick", Group: "7"})
	assertIdle(t, a)
	assertIdle(t, b)

	h.Deliver(events.Event{Type: "direct", Target: "gone"})
	assertIdle(t, a)
}

func TestHubDeliverToUsers(t *testing.T) {
	h := NewHub(discard())
	a1 := testClient(h, 1, "alice")
	a2 := testClient(h, 1, "alice")
	b := testClient(h, 2, "bob")
	c := testClient(h, 3, "carol")
	for _, cl := range []*Client{a1, a2, b, c} {
		h.add(cl)
	}

	h.Deliver(events.Event{Type: "chat message", Users: []uint{1, 2, 1, 9}})
	for _, cl := range []*Client{a1, a2, b} {
		assert.Equal(t, "chat message", recv(t, cl).Type)
		assertIdle(t, cl)
	}
	assertIdle(t, c)

	h.JoinUser(1, "3")
	h.JoinUser(9, "3")
	h.Deliver(events.Event{Type: "tick", Group: "3"})
	assert.Equal(t, "tick", recv(t, a1).Type)
	assert.Equal(t, "tick", recv(t, a2).Type)
	assertIdle(t, b)
	assertIdle(t, c)
}

func TestHubJoinGroupIgnoresUnknownConnection(t *testing.T) {
	h := NewHub(discard())
	h.JoinGroup("nobody", "1")
	h.LeaveGroup("nobody", "1")

	a := testClient(h, 1, "alice")
	h.add(a)
	h.JoinGroup(a.id, "1")
	h.LeaveGroup(a.id, "1")
	h.Deliver(events.Event{Type: "tick", Group: "1"})
	assertIdle(t, a)
}

func TestHubRemoveReportsLastConnection(t *testing.T) {
	h := NewHub(discard())
	first := testClient(h, 1, "alice")
	second := testClient(h, 1, "alice")
	h.add(first)
	h.add(second)
	h.JoinGroup(first.id, "1")
	assert.Equal(t, 2, h.Connections(1))

	removed, last := h.remove(first)
	assert.True(t, removed)
	assert.False(t, last)
	_, open := <-first.send
	assert.False(t, open)

	removed, _ = h.remove(first)
	assert.False(t, removed, "second removal is a no-op")

	removed, last = h.remove(second)
	assert.True(t, removed)
	assert.True(t, last)
	assert.Zero(t, h.Connections(1))
	assert.Empty(t, h.groups)
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub(discard())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})

	slow := testClient(h, 1, "alice")
	require.True(t, h.Register(slow))
	require.Eventually(t, func() bool { return h.Connections(1) == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i <= sendBuffer; i++ {
		h.Deliver(events.Event{Type: "tick"})
	}
	require.Eventually(t, func() bool { return h.Connections(1) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubStopsAcceptingAfterRun(t *testing.T) {
	h := NewHub(discard())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	a := testClient(h, 1, "alice")
	require.True(t, h.Register(a))
	require.Eventually(t, func() bool { return h.Connections(1) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-h.done

	_, open := <-a.send
	assert.False(t, open, "shutdown closes every client")
	assert.False(t, h.Register(testClient(h, 2, "bob")))
	h.Unregister(a)
}
