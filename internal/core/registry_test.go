package core

import (
	"encoding/json"
	"testing"
)

func TestRegistryRegisterLookupUnregister(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn()

	r.Register("a", "alice", json.RawMessage(`"PKA"`), conn)
	rec, ok := r.Lookup("a")
	if !ok || rec.Name != "alice" || rec.Conn != conn {
		t.Fatalf("unexpected lookup result: %+v %v", rec, ok)
	}

	r.Register("a", "alice", json.RawMessage(`"PKA2"`), conn)
	if r.Len() != 1 {
		t.Fatalf("overwrite must not add an entry, got %d", r.Len())
	}
	if rec, _ := r.Lookup("a"); string(rec.PublicKey) != `"PKA2"` {
		t.Fatalf("expected overwritten key, got %s", rec.PublicKey)
	}

	if !r.Unregister("a") {
		t.Fatal("expected unregister to remove entry")
	}
	if r.Unregister("a") {
		t.Fatal("second unregister must be a no-op")
	}
	if _, ok := r.Lookup("a"); ok {
		t.Fatal("entry still present")
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	if users := r.Snapshot(); users == nil || len(users) != 0 {
		t.Fatalf("expected empty non-nil snapshot, got %#v", users)
	}

	r.Register("a", "alice", json.RawMessage(`{"kty":"EC"}`), newFakeConn())
	r.Register("b", "alice", nil, newFakeConn())

	got := make(map[string]string)
	for _, u := range r.Snapshot() {
		got[u.ID] = u.Name + "|" + string(u.PublicKey)
	}
	want := map[string]string{"a": `alice|{"kty":"EC"}`, "b": "alice|"}
	if len(got) != len(want) {
		t.Fatalf("unexpected snapshot: %v", got)
	}
	for id, v := range want {
		if got[id] != v {
			t.Fatalf("snapshot[%s] = %q, want %q", id, got[id], v)
		}
	}
}

func TestRegistryForEachExcept(t *testing.T) {
	r := NewRegistry()
	closed := newFakeConn()
	_ = closed.Close("bye")

	r.Register("a", "alice", nil, newFakeConn())
	r.Register("b", "bob", nil, newFakeConn())
	r.Register("c", "carol", nil, closed)
	r.Register("d", "dave", nil, nil)

	visited := make(map[string]bool)
	r.ForEachExcept("a", func(rec *ClientRecord) {
		visited[rec.ID] = true
	})

	if len(visited) != 1 || !visited["b"] {
		t.Fatalf("expected only b, visited %v", visited)
	}
}

func TestSessionStateMachine(t *testing.T) {
	s := newSession("x", newFakeConn())
	if s.State() != StateUnauthenticated || s.Authenticated() {
		t.Fatalf("unexpected initial state %s", s.State())
	}

	s.authenticate()
	s.authenticate()
	if s.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", s.State())
	}

	if !s.close() {
		t.Fatal("first close should report true")
	}
	if s.close() {
		t.Fatal("second close should report false")
	}
	s.authenticate()
	if s.State() != StateClosed || s.Authenticated() {
		t.Fatalf("closed session must stay closed, got %s", s.State())
	}
}
