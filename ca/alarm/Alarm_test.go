package alarm

import (
	"testing"

	"github.com/epics-go/cachannel/ca/flags"
	"github.com/epics-go/cachannel/ca/guid"
)

type fakeTarget struct {
	id        guid.Guid
	published []flags.EventMask
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{id: guid.New()}
}

func (f *fakeTarget) ID() guid.Guid                   { return f.id }
func (f *fakeTarget) Publish(mask flags.EventMask)    { f.published = append(f.published, mask) }

func sevPtr(s Severity) *Severity { return &s }
func boolPtr(b bool) *bool        { return &b }

// TestAcknowledgementLatches implements scenario S4 from spec.md §8.
func TestAcknowledgementLatches(t *testing.T) {
	a := New()
	a.Write(WriteOptions{MustAcknowledgeTransient: boolPtr(true), Publish: false})

	a.Write(WriteOptions{Severity: sevPtr(Major), Publish: false})
	if a.Severity() != Major || a.SeverityToAcknowledge() != Major {
		t.Fatalf("after raising severity: got severity=%v toAck=%v", a.Severity(), a.SeverityToAcknowledge())
	}

	a.Write(WriteOptions{Severity: sevPtr(NoAlarm), Publish: false})
	if a.Severity() != NoAlarm || a.SeverityToAcknowledge() != Major {
		t.Fatalf("after clearing severity: got severity=%v toAck=%v, want NO_ALARM/MAJOR (latched)", a.Severity(), a.SeverityToAcknowledge())
	}

	a.Write(WriteOptions{SeverityToAcknowledge: sevPtr(Major), Publish: false})
	if a.SeverityToAcknowledge() != NoAlarm {
		t.Fatalf("after acknowledging: got toAck=%v, want NO_ALARM", a.SeverityToAcknowledge())
	}
}

func TestAcknowledgeBelowCurrentSeverityIsIgnored(t *testing.T) {
	a := New()
	a.Write(WriteOptions{Severity: sevPtr(Major), Publish: false})
	a.Write(WriteOptions{SeverityToAcknowledge: sevPtr(Minor), Publish: false})

	if a.SeverityToAcknowledge() != Major {
		t.Fatalf("got toAck=%v, want MAJOR (ack below current severity must be ignored)", a.SeverityToAcknowledge())
	}
}

func TestPublishSkipsExceptFor(t *testing.T) {
	a := New()
	skip := newFakeTarget()
	keep := newFakeTarget()
	a.Attach(skip)
	a.Attach(keep)

	a.Publish(flags.Alarm, map[guid.Guid]struct{}{skip.id: {}})

	if len(skip.published) != 0 {
		t.Fatalf("expected skip target to receive nothing, got %v", skip.published)
	}
	if len(keep.published) != 1 {
		t.Fatalf("expected keep target to receive one publish, got %v", keep.published)
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	a := New()
	target := newFakeTarget()
	a.Detach(target) // never attached; must not panic
	a.Attach(target)
	a.Detach(target)
	a.Detach(target) // already removed; must not panic
}

func TestMustAcknowledgeTransientFalseResetsPendingAck(t *testing.T) {
	a := New()
	a.Write(WriteOptions{Severity: sevPtr(Major), Publish: false})
	a.Write(WriteOptions{Severity: sevPtr(NoAlarm), Publish: false})
	if a.SeverityToAcknowledge() != Major {
		t.Fatalf("setup: expected latched toAck=MAJOR, got %v", a.SeverityToAcknowledge())
	}

	a.Write(WriteOptions{MustAcknowledgeTransient: boolPtr(false), Publish: false})
	if a.SeverityToAcknowledge() != a.Severity() {
		t.Fatalf("disabling transient ack should drop toAck to current severity; got toAck=%v severity=%v", a.SeverityToAcknowledge(), a.Severity())
	}
}
