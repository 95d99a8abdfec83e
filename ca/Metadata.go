package ca

import (
	"github.com/epics-go/cachannel/ca/alarm"
	"github.com/epics-go/cachannel/ca/epicstime"
)

// dbrRecord is the metadata record carried alongside a value whenever
// a read or write crosses a decorated (STS_/TIME_/GR_/CTRL_) type.
// The wire codec's byte-exact framing is an external collaborator
// (spec.md §1); this core works with the already-parsed/to-be-parsed
// field set, so a plain struct stands in for a zero-copy wire overlay
// (spec.md §9 "Metadata parsing").
type dbrRecord struct {
	Status   alarm.Status
	Severity alarm.Severity
	Stamp    epicstime.Timestamp

	Units     string
	Precision int16

	UpperDispLimit, LowerDispLimit       float64
	UpperAlarmLimit, LowerAlarmLimit     float64
	UpperWarningLimit, LowerWarningLimit float64
	UpperCtrlLimit, LowerCtrlLimit       float64

	EnumStrings []string
}

// MetadataFields is the set of channel metadata fields write_metadata
// (spec.md §4.4) may update. A nil pointer/slice means "leave
// unchanged", matching the Python original's keyword-argument
// defaults.
type MetadataFields struct {
	Units     *string
	Precision *int16

	UpperDispLimit, LowerDispLimit       *float64
	UpperAlarmLimit, LowerAlarmLimit     *float64
	UpperWarningLimit, LowerWarningLimit *float64
	UpperCtrlLimit, LowerCtrlLimit       *float64

	Timestamp *epicstime.Timestamp

	// TimestampText is an operator-entered timestamp (as an IOC
	// console or archiver UI would submit one) routed through
	// epicstime.FromFlexible's free-form string branch. Ignored when
	// Timestamp is also set; Timestamp wins.
	TimestampText *string

	Status   *alarm.Status
	Severity *alarm.Severity

	Publish bool
}
