package queue

import "testing"

func TestMemoryEnqueueReceive(t *testing.T) {
	q := NewMemory(1)

	if err := q.Enqueue(Update{Values: 1.0}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	update, ok := q.Receive()
	if !ok {
		t.Fatalf("Receive: expected an update")
	}
	if update.Values != 1.0 {
		t.Fatalf("Receive: got %v, want 1.0", update.Values)
	}
}

func TestMemoryDropsWhenFull(t *testing.T) {
	q := NewMemory(1)
	var dropped int
	q.Dropped = func(Update) { dropped++ }

	if err := q.Enqueue(Update{Values: 1}); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	if err := q.Enqueue(Update{Values: 2}); err != nil {
		t.Fatalf("second Enqueue: %v", err)
	}

	if dropped != 1 {
		t.Fatalf("got dropped=%d, want 1", dropped)
	}
}

func TestMemoryEnqueueAfterCloseFails(t *testing.T) {
	q := NewMemory(1)
	q.Close()

	if err := q.Enqueue(Update{}); err == nil {
		t.Fatalf("expected an error enqueueing onto a closed queue")
	}
}

func TestSyncModeString(t *testing.T) {
	cases := map[SyncMode]string{
		Before: "before", First: "first", While: "while",
		Last: "last", After: "after", Unless: "unless",
	}
	for mode, want := range cases {
		if got := mode.String(); got != want {
			t.Errorf("SyncMode(%d).String() = %q, want %q", mode, got, want)
		}
	}
}
