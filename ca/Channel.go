package ca

import (
	"sync"

	"github.com/epics-go/cachannel/ca/alarm"
	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/convert"
	"github.com/epics-go/cachannel/ca/epicstime"
	"github.com/epics-go/cachannel/ca/flags"
	"github.com/epics-go/cachannel/ca/guid"
	"github.com/epics-go/cachannel/ca/queue"
)

// Channel is the capability set every channel kind exposes at the
// protocol boundary (spec.md §6 "Operations at the boundary").
type Channel interface {
	ID() guid.Guid
	DataType() chantype.NativeType

	AuthRead(identity Identity, toType chantype.Type) (interface{}, interface{}, error)
	AuthWrite(identity Identity, data interface{}, fromType chantype.Type, metadata interface{}, mask flags.EventMask) error

	Read(toType chantype.Type) (interface{}, interface{}, error)
	Write(value interface{}, mask flags.EventMask, opts WriteOptions) error
	WriteFromDBR(data interface{}, fromType chantype.Type, metadata interface{}, mask flags.EventMask) error
	WriteMetadata(fields MetadataFields) error

	Subscribe(q queue.Queue, spec queue.SubSpec, sub *guid.Guid) error
	Unsubscribe(q queue.Queue, spec queue.SubSpec)
	Publish(mask flags.EventMask)

	PreStateChange(state string, newValue bool)
	PostStateChange(state string, newValue bool)
}

// valueOps is the per-kind hook set a concrete channel type
// implements; channelCore drives the shared pipeline/fan-out/snapshot
// machinery through it. This is the Go analogue of the shared base
// class in original_source/caproto/_data.py (spec.md §9
// "Polymorphism over channel types").
type valueOps interface {
	nativeType() chantype.NativeType
	currentValue() interface{}
	setValue(v interface{})

	// preprocess implements spec.md §4.3 "Preprocess" for this kind:
	// type-specific coercion plus the max-length and empty-scalar
	// checks, which each kind performs itself.
	preprocess(st *state, value interface{}) (interface{}, error)

	// verifyValue implements any type-specific verify_value behavior
	// (numeric limit checking, enum resolution). Returns (nil, nil)
	// when the kind has no special verification: the preprocessed
	// value commits unchanged.
	verifyValue(st *state, value interface{}) (modified interface{}, err error)

	// populateMetadata fills the kind-specific fields of md (limits,
	// enum_strings) for a read under dbrType.
	populateMetadata(st *state, dbrType chantype.Type, md *dbrRecord)

	// cloneValue returns a deep, independent copy of the kind-specific
	// value state for a snapshot (spec.md §4.6, §9 "Deep snapshots").
	cloneValue() valueOps
}

// state is the plain, copyable channel data shared by every kind:
// everything spec.md §3's "Channel" invariants and §4.3's metadata
// fields describe. It is embedded by both the live channelCore and by
// channelSnapshot, so the same pipeline/read code serves both.
type state struct {
	id       guid.Guid
	ops      valueOps
	encoding convert.Encoding

	maxLength          int
	reportedRecordType string

	units     string
	precision int16

	upperDispLimit, lowerDispLimit       float64
	upperAlarmLimit, lowerAlarmLimit     float64
	upperWarningLimit, lowerWarningLimit float64
	upperCtrlLimit, lowerCtrlLimit       float64

	alarmRecord *alarm.Alarm
	timestamp   epicstime.Timestamp
}

// channelCore holds every field and implements every behavior shared
// by all channel kinds: alarm attachment, the read/write pipeline,
// subscription fan-out, and the snapshot/filter engine. Concrete
// channel types embed channelCore and set core.ops to themselves once
// constructed (the standard Go self-reference pattern, since Go has
// no inheritance).
type channelCore struct {
	mu sync.Mutex

	state

	access AccessChecker

	stagedStatus   *alarm.Status
	stagedSeverity *alarm.Severity

	queues       map[queue.Queue]map[syncKey]map[string]map[queue.SubSpec]struct{}
	contentCache map[string]cachedContent

	snapshots       map[string]map[queue.SyncMode]*channelSnapshot
	fillAtNextWrite []fillEntry
}

// syncKey is the comparable grouping key for a subscriber's optional
// sync filter, used in place of *queue.SyncTag so that subscribers
// naming the same (state, mode) are grouped together regardless of
// which SyncTag value they passed in (spec.md §4.5 "queues:
// map<Queue, map<SyncTag?, ...>>").
type syncKey struct {
	hasSync bool
	state   string
	mode    queue.SyncMode
}

func newSyncKey(tag *queue.SyncTag) syncKey {
	if tag == nil {
		return syncKey{}
	}
	return syncKey{hasSync: true, state: tag.State, mode: tag.Mode}
}

type cachedContent struct {
	metadata interface{}
	values   interface{}
}

type fillEntry struct {
	state string
	mode  queue.SyncMode
}

// channelSnapshot is a deep, immutable copy of a channel's state,
// sufficient to serve _read calls against it (spec.md §4.6, §9 "Deep
// snapshots"). It shares the live alarm by reference -- a snapshot
// observes the alarm's current value rather than one frozen at
// capture time; no captured alarm view is taken -- and owns its own
// content cache, per §9 "Conversion cache lifetime".
type channelSnapshot struct {
	state
	contentCache map[string]cachedContent
}

func (s *channelSnapshot) _read(toType chantype.Type) (interface{}, interface{}, error) {
	return readFrom(&s.state, toType)
}

// newChannelCore initializes the shared state; callers (concrete
// constructors) must set core.ops afterward.
func newChannelCore(maxLength int, reportedRecordType string, enc convert.Encoding, a *alarm.Alarm) channelCore {
	if enc == "" {
		enc = convert.DefaultEncoding
	}
	return channelCore{
		state: state{
			id:                 guid.New(),
			encoding:           enc,
			maxLength:          maxLength,
			reportedRecordType: reportedRecordType,
			alarmRecord:        a,
			timestamp:          epicstime.Now(),
		},
		queues:       make(map[queue.Queue]map[syncKey]map[string]map[queue.SubSpec]struct{}),
		contentCache: make(map[string]cachedContent),
		snapshots:    make(map[string]map[queue.SyncMode]*channelSnapshot),
	}
}

// ID implements alarm.Target and Channel.
func (c *channelCore) ID() guid.Guid {
	return c.id
}

// DataType returns the channel's native element type.
func (c *channelCore) DataType() chantype.NativeType {
	return c.ops.nativeType()
}

// AttachAlarm swaps this channel's alarm, detaching from the prior
// alarm and attaching to the new one atomically (spec.md §3, §9
// "Alarm ↔ Channel relation").
func (c *channelCore) AttachAlarm(a *alarm.Alarm) {
	c.mu.Lock()
	prior := c.alarmRecord
	c.alarmRecord = a
	c.mu.Unlock()

	if prior != nil {
		prior.Detach(c.ops.(alarm.Target))
	}
	a.Attach(c.ops.(alarm.Target))
}

func (c *channelCore) takeStagedAlarm() (*alarm.Status, *alarm.Severity) {
	s, sev := c.stagedStatus, c.stagedSeverity
	c.stagedStatus, c.stagedSeverity = nil, nil
	return s, sev
}

func (c *channelCore) stageAlarm(status alarm.Status, severity alarm.Severity) {
	s := status
	sev := severity
	c.stagedStatus = &s
	c.stagedSeverity = &sev
}

// deepSnapshot implements spec.md §9 "Deep snapshots": a clone()
// copying the value buffer and metadata but sharing the alarm by
// reference.
func (c *channelCore) deepSnapshot() *channelSnapshot {
	st := c.state
	st.ops = c.ops.cloneValue()
	return &channelSnapshot{
		state:        st,
		contentCache: make(map[string]cachedContent),
	}
}
