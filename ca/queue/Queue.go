// Package queue defines the external collaborator contract a Channel
// publishes into (spec.md §6 "Collaborator contracts") along with a
// minimal in-memory implementation so the ca package is testable
// without the out-of-scope network server.
//
// Grounded on sttp/transport/SubscriberConnector.go's use of Go
// channels plus tevino/abool atomic flags for connection lifecycle.
package queue

import (
	"github.com/tevino/abool/v2"

	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/flags"
	"github.com/epics-go/cachannel/ca/guid"
)

// SubSpec is a single subscriber's request: the wire type it wants
// values converted to, and an optional sync filter gating delivery.
type SubSpec struct {
	DataTypeName string
	Sync         *SyncTag
}

// SyncMode is one of the six synchronous-filter delivery modes.
type SyncMode int

// The closed set of sync filter modes.
const (
	Before SyncMode = iota
	First
	While
	Last
	After
	Unless
)

// String returns the sync mode's display name.
func (m SyncMode) String() string {
	switch m {
	case Before:
		return "before"
	case First:
		return "first"
	case While:
		return "while"
	case Last:
		return "last"
	case After:
		return "after"
	case Unless:
		return "unless"
	default:
		return "unknown"
	}
}

// SyncTag names the state variable and delivery mode a subscription
// is gated on.
type SyncTag struct {
	State string
	Mode  SyncMode
}

// Update is the payload delivered to a Queue: the specs it satisfies,
// the metadata/value pair converted for their shared wire type, the
// event mask, and (only on the very first delivery after Subscribe) a
// subscription handle.
type Update struct {
	Specs    []SubSpec
	Metadata interface{}
	Values   interface{}
	Flags    flags.EventMask
	Sub      *guid.Guid
}

// Queue is the collaborator a Channel enqueues SubscriptionUpdates
// onto. Implementations must not block the producer beyond bounded
// backpressure.
type Queue interface {
	Enqueue(update Update) error
}

// Memory is a bounded, buffered in-memory Queue. A full buffer drops
// the update and reports it through Dropped rather than blocking the
// publisher, since spec.md §5 requires publish to never block on a
// slow subscriber.
type Memory struct {
	ch     chan Update
	closed abool.AtomicBool

	// Dropped, if non-nil, is invoked (outside of any lock) for every
	// update that could not be enqueued because the buffer was full.
	Dropped func(update Update)
}

// NewMemory creates a Memory queue with the given buffer capacity.
func NewMemory(capacity int) *Memory {
	return &Memory{
		ch: make(chan Update, capacity),
	}
}

// Enqueue implements Queue.
func (m *Memory) Enqueue(update Update) error {
	if m.closed.IsSet() {
		return errClosed
	}

	select {
	case m.ch <- update:
		return nil
	default:
		if m.Dropped != nil {
			m.Dropped(update)
		}
		return nil
	}
}

// Receive blocks until an Update is available or the queue is closed.
// The second return value is false once the queue is closed and
// drained.
func (m *Memory) Receive() (Update, bool) {
	update, ok := <-m.ch
	return update, ok
}

// Close marks the queue closed; no further Enqueue calls will succeed
// and Receive will drain any buffered updates before returning false.
func (m *Memory) Close() {
	if m.closed.SetToIf(false, true) {
		close(m.ch)
	}
}

// DataType resolves a SubSpec's wire type name to a chantype.Type.
func (s SubSpec) DataType() (chantype.Type, bool) {
	return chantype.ByName(s.DataTypeName)
}
