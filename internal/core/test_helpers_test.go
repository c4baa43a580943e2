package core

import (
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeConn records every frame the hub sends it.
type fakeConn struct {
	mu     sync.Mutex
	open   bool
	frames [][]byte
	reason string
}

func newFakeConn() *fakeConn {
	return &fakeConn{open: true}
}

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrConnClosed
	}
	c.frames = append(c.frames, append([]byte(nil), frame...))
	return nil
}

func (c *fakeConn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeConn) Close(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrConnClosed
	}
	c.open = false
	c.reason = reason
	return nil
}

// drain returns and forgets every frame received so far.
func (c *fakeConn) drain(t *testing.T) []envelope {
	t.Helper()

	c.mu.Lock()
	frames := c.frames
	c.frames = nil
	c.mu.Unlock()

	out := make([]envelope, 0, len(frames))
	for _, f := range frames {
		var env envelope
		if err := json.Unmarshal(f, &env); err != nil {
			t.Fatalf("hub sent invalid json %q: %v", f, err)
		}
		out = append(out, env)
	}
	return out
}

type envelope map[string]json.RawMessage

func (e envelope) str(t *testing.T, key string) string {
	t.Helper()
	raw, ok := e[key]
	if !ok {
		t.Fatalf("envelope has no %q: %v", key, e)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("field %q is not a string: %s", key, raw)
	}
	return s
}

func (e envelope) kind(t *testing.T) string {
	t.Helper()
	return e.str(t, "type")
}

func (e envelope) users(t *testing.T) map[string]string {
	t.Helper()
	var users []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(e["users"], &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Name
	}
	return out
}

// mustFrames asserts conn received exactly the given kinds, in order.
func mustFrames(t *testing.T, c *fakeConn, kinds ...string) []envelope {
	t.Helper()
	got := c.drain(t)
	if len(got) != len(kinds) {
		t.Fatalf("expected %d frames %v, got %d: %v", len(kinds), kinds, len(got), got)
	}
	for i, k := range kinds {
		if got[i].kind(t) != k {
			t.Fatalf("frame %d: expected %s, got %s", i, k, got[i].kind(t))
		}
	}
	return got
}

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newTestHub() *Hub {
	n := 0
	return NewHub(nil,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return "id" + strconv.Itoa(n)
		}),
	)
}

// join connects and authenticates a client, discarding the frames auth produced everywhere.
func join(t *testing.T, h *Hub, name, key string, others ...*fakeConn) (string, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	sess, err := h.Connect(conn)
	if err != nil {
		t.Fatalf("connect %s: %v", name, err)
	}
	h.Dispatch(sess.ID, []byte(`{"type":"auth","name":"`+name+`","publicKey":"`+key+`"}`))
	conn.drain(t)
	for _, o := range others {
		o.drain(t)
	}
	return sess.ID, conn
}
