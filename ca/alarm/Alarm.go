// Package alarm implements the shared alarm record attached to one or
// more channels: status, severity, transient-acknowledgement policy,
// and the alarm string, along with the severity acknowledgement state
// machine described in spec.md §4.2.
//
// Grounded on original_source/caproto/_data.py's ChannelAlarm class,
// which this package follows field-for-field and step-for-step.
package alarm

import (
	"sync"

	"github.com/epics-go/cachannel/ca/flags"
	"github.com/epics-go/cachannel/ca/guid"
	"github.com/epics-go/cachannel/ca/internal/metrics"
)

// Target is the capability an Alarm needs from anything attached to
// it: an identity to key the back-reference registry on, and a
// Publish hook to call when the alarm changes. ca.Channel implements
// this interface; alarm does not import the ca package so that
// channels can own an Alarm without an import cycle.
type Target interface {
	ID() guid.Guid
	Publish(mask flags.EventMask)
}

// StsackString is the read-out of an Alarm via DBR_STSACK_STRING.
type StsackString struct {
	Status      Status
	Severity    Severity
	Ackt        bool
	Acks        Severity
	AlarmString string
}

// Alarm is the owned alarm record shared by one or more channels.
type Alarm struct {
	mu sync.Mutex

	status                   Status
	severity                 Severity
	mustAcknowledgeTransient bool
	severityToAcknowledge    Severity
	alarmString              string

	channels map[guid.Guid]Target
}

// New creates an Alarm in the NO_ALARM state.
func New() *Alarm {
	return &Alarm{
		mustAcknowledgeTransient: true,
		channels:                 make(map[guid.Guid]Target),
	}
}

// Attach adds target to the set of channels sharing this alarm.
// Idempotent.
func (a *Alarm) Attach(target Target) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.channels[target.ID()] = target
}

// Detach removes target from the set of channels sharing this alarm.
// A no-op if target was not attached.
func (a *Alarm) Detach(target Target) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.channels, target.ID())
}

// Status returns the current alarm status.
func (a *Alarm) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Severity returns the current alarm severity.
func (a *Alarm) Severity() Severity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.severity
}

// MustAcknowledgeTransient returns whether transient alarms currently
// require acknowledgement.
func (a *Alarm) MustAcknowledgeTransient() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mustAcknowledgeTransient
}

// SeverityToAcknowledge returns the highest severity still pending acknowledgement.
func (a *Alarm) SeverityToAcknowledge() Severity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.severityToAcknowledge
}

// AlarmString returns the current free-form alarm description.
func (a *Alarm) AlarmString() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alarmString
}

// Read returns the alarm as a DBR_STSACK_STRING record.
func (a *Alarm) Read() StsackString {
	a.mu.Lock()
	defer a.mu.Unlock()
	return StsackString{
		Status:      a.status,
		Severity:    a.severity,
		Ackt:        a.mustAcknowledgeTransient,
		Acks:        a.severityToAcknowledge,
		AlarmString: a.alarmString,
	}
}

// WriteOptions names the fields of a Write call that are actually
// present; a nil pointer means "leave this field unchanged", matching
// the Python original's use of None-as-sentinel keyword arguments.
type WriteOptions struct {
	Status                   *Status
	Severity                 *Severity
	MustAcknowledgeTransient *bool
	SeverityToAcknowledge    *Severity
	AlarmString              *string
	Publish                  bool
}

// Write applies the named field updates in the order specified by
// spec.md §4.2 and, unless opts.Publish is false, publishes the
// resulting flags to every attached channel.
func (a *Alarm) Write(opts WriteOptions) {
	mask := a.apply(opts)

	if opts.Publish {
		a.Publish(mask, nil)
	}
}

// WriteExcept applies opts exactly as Write does, but publishes to
// every attached channel other than those named in except. Used by
// the channel write pipeline when it applies alarm fields on behalf
// of one channel (the (WRITE, MAJOR) alarm after a rejected
// verify_value, and status/severity carried in write metadata); that
// channel is left out of the publish.
func (a *Alarm) WriteExcept(opts WriteOptions, except map[guid.Guid]struct{}) flags.EventMask {
	mask := a.apply(opts)

	if opts.Publish {
		a.Publish(mask, except)
	}

	return mask
}

func (a *Alarm) apply(opts WriteOptions) flags.EventMask {
	a.mu.Lock()
	defer a.mu.Unlock()

	var mask flags.EventMask

	if opts.Status != nil {
		a.status = *opts.Status
		mask |= flags.Value
	}

	if opts.Severity != nil {
		if *opts.Severity != a.severity {
			metrics.AlarmTransitions.WithLabelValues(opts.Severity.String()).Inc()
		}
		a.severity = *opts.Severity
		if !a.mustAcknowledgeTransient || a.severityToAcknowledge < a.severity {
			a.severityToAcknowledge = a.severity
		}
		mask |= flags.Alarm
	}

	if opts.MustAcknowledgeTransient != nil {
		a.mustAcknowledgeTransient = *opts.MustAcknowledgeTransient
		if !a.mustAcknowledgeTransient && a.severityToAcknowledge > a.severity {
			a.severityToAcknowledge = a.severity
		}
		mask |= flags.Alarm
	}

	if opts.SeverityToAcknowledge != nil {
		if *opts.SeverityToAcknowledge >= a.severity {
			a.severityToAcknowledge = NoAlarm
			mask |= flags.Alarm
		}
	}

	if opts.AlarmString != nil {
		a.alarmString = *opts.AlarmString
		mask |= flags.Alarm
	}

	return mask
}

// Publish calls Publish(mask) on every attached channel, skipping any
// channel present in except.
func (a *Alarm) Publish(mask flags.EventMask, except map[guid.Guid]struct{}) {
	a.mu.Lock()
	targets := make([]Target, 0, len(a.channels))
	for id, target := range a.channels {
		if except != nil {
			if _, skip := except[id]; skip {
				continue
			}
		}
		targets = append(targets, target)
	}
	a.mu.Unlock()

	for _, target := range targets {
		target.Publish(mask)
	}
}
