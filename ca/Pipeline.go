package ca

import (
	"errors"

	"github.com/epics-go/cachannel/ca/alarm"
	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/convert"
	"github.com/epics-go/cachannel/ca/epicstime"
	"github.com/epics-go/cachannel/ca/flags"
	"github.com/epics-go/cachannel/ca/guid"
	"github.com/epics-go/cachannel/ca/internal/metrics"
	"github.com/epics-go/cachannel/ca/queue"
)

// AuthRead implements spec.md §4.4 "Read": an access check followed
// by Read.
func (c *channelCore) AuthRead(identity Identity, toType chantype.Type) (interface{}, interface{}, error) {
	if !c.access.check(identity).Has(Read) {
		return nil, nil, &Forbidden{Identity: identity, Want: Read}
	}
	return c.Read(toType)
}

// Read implements spec.md §4.4 "read(to_type)".
func (c *channelCore) Read(toType chantype.Type) (interface{}, interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return readFrom(&c.state, toType)
}

// readFrom implements spec.md §4.4 "_read(to_type)" against any
// state -- a live channelCore or a frozen channelSnapshot.
func readFrom(st *state, toType chantype.Type) (interface{}, interface{}, error) {
	if toType == chantype.StsackString {
		return st.alarmRecord.Read(), []byte{}, nil
	}

	if toType == chantype.ClassName {
		return convert.EncodeString(st.reportedRecordType, st.encoding), []byte{}, nil
	}

	if toType.IsPseudo() {
		return nil, nil, &BadRequest{Reason: "PUT_ACKS/PUT_ACKT are write-only"}
	}

	nativeTo := toType.NativeBase()
	values, err := convert.Convert(st.ops.currentValue(), st.ops.nativeType(), nativeTo, st.encoding, st.enumTable(), convert.ToWire)
	if err != nil {
		return nil, nil, err
	}

	if !toType.HasMetadata() {
		return nil, values, nil
	}

	md := &dbrRecord{}
	rd := st.alarmRecord.Read()
	md.Status = rd.Status
	md.Severity = rd.Severity

	readMetadataInto(st, toType, md)

	return md, values, nil
}

// readMetadataInto implements spec.md §4.4 "_read_metadata(dbr)".
func readMetadataInto(st *state, toType chantype.Type, md *dbrRecord) {
	if toType.HasUnits() {
		md.Units = st.units
	}
	if toType.HasPrecision() {
		md.Precision = st.precision
	}
	if toType.IsTimeVariant() {
		md.Stamp = st.timestamp
	}
	if toType.HasGraphicLimits() || toType.HasControlLimits() || toType.HasEnumStrings() {
		st.ops.populateMetadata(st, toType, md)
	}
}

// enumTable returns this channel's enum_strings, or nil for non-enum
// channels; only *EnumChannel overrides it meaningfully via a type
// assertion since valueOps has no such method (the rest of the
// pipeline never needs an enum table).
func (st *state) enumTable() []string {
	if e, ok := st.ops.(*EnumChannel); ok {
		return e.strings
	}
	return nil
}

// WriteOptions controls which optional steps of the write pipeline
// run (spec.md §4.4 "write(value, flags, verify_value=true,
// update_fields=true, **metadata)").
type WriteOptions struct {
	VerifyValue      bool
	UpdateFields     bool
	UpdateFieldsFunc func(value interface{})
	Metadata         MetadataFields
}

// DefaultWriteOptions returns the pipeline's default behavior: both
// hooks enabled, no metadata overrides.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{VerifyValue: true, UpdateFields: true}
}

// Write implements spec.md §4.4 "write" steps 1-11. See DESIGN.md for
// the deliberate resolutions of ambiguity in the original
// try/except/finally translation. Two points are worth calling out
// here since they reorder steps as literally listed:
//
//   - The staged (status, severity) from the numeric limit check is
//     collected and merged into the write's metadata (steps 5-6)
//     before this channel's own publish (step 10), not after -- a
//     defer running after publish would let a channel's own
//     subscribers miss the very alarm transition the write caused.
//   - The snapshot materialization (step 7 in the listed order) runs
//     after the value commit (step 8) here, required so that scenario
//     S6's "after" snapshot reflects the post-write value.
//
// SkipWrite aborts everything from the metadata merge onward (steps
// 6-11); the finally-equivalent clearing of any staged alarm (step 5)
// still runs on every exit path, success or error.
func (c *channelCore) Write(value interface{}, mask flags.EventMask, opts WriteOptions) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	preVal, perr := c.ops.preprocess(&c.state, value)
	if perr != nil {
		metrics.Writes.WithLabelValues("rejected").Inc()
		return perr
	}

	var modified interface{}
	if opts.VerifyValue {
		m, verr := c.ops.verifyValue(&c.state, preVal)
		if verr != nil {
			c.takeStagedAlarm()
			if errors.Is(verr, SkipWrite) {
				metrics.Writes.WithLabelValues("skipped").Inc()
				return nil
			}
			writeStatus, writeSeverity := alarm.StatusWrite, alarm.Major
			c.alarmRecord.WriteExcept(alarm.WriteOptions{
				Status:   &writeStatus,
				Severity: &writeSeverity,
				Publish:  true,
			}, exceptSelf(c.id))
			metrics.Writes.WithLabelValues("rejected").Inc()
			return verr
		}
		modified = m
	}

	// Only the staged fields that differ from the alarm's current
	// value are merged.
	status, severity := c.takeStagedAlarm()
	if status != nil && *status == c.alarmRecord.Status() {
		status = nil
	}
	if severity != nil && *severity == c.alarmRecord.Severity() {
		severity = nil
	}
	if status != nil {
		opts.Metadata.Status = status
	}
	if severity != nil {
		opts.Metadata.Severity = severity
	}

	commitVal := preVal
	if modified != nil {
		commitVal = modified
	}

	if opts.UpdateFields && opts.UpdateFieldsFunc != nil {
		opts.UpdateFieldsFunc(commitVal)
	}

	c.ops.setValue(commitVal)

	switch {
	case opts.Metadata.Timestamp != nil:
		c.timestamp = *opts.Metadata.Timestamp
	case opts.Metadata.TimestampText != nil:
		c.timestamp = epicstime.FromFlexible(*opts.Metadata.TimestampText)
	default:
		c.timestamp = epicstime.Now()
	}

	if len(c.fillAtNextWrite) > 0 {
		snap := c.deepSnapshot()
		for _, entry := range c.fillAtNextWrite {
			if c.snapshots[entry.state] == nil {
				c.snapshots[entry.state] = make(map[queue.SyncMode]*channelSnapshot)
			}
			c.snapshots[entry.state][entry.mode] = snap
		}
		c.fillAtNextWrite = nil
	}

	c.applyMetadataLocked(opts.Metadata, false)

	c.publishLocked(mask)

	if status != nil || severity != nil {
		c.alarmRecord.Publish(mask, exceptSelf(c.id))
	}

	metrics.Writes.WithLabelValues("committed").Inc()
	return nil
}

func (c *channelCore) applyMetadataLocked(fields MetadataFields, publish bool) {
	if fields.Units != nil {
		c.units = *fields.Units
	}
	if fields.Precision != nil {
		c.precision = *fields.Precision
	}
	if fields.UpperDispLimit != nil {
		c.upperDispLimit = *fields.UpperDispLimit
	}
	if fields.LowerDispLimit != nil {
		c.lowerDispLimit = *fields.LowerDispLimit
	}
	if fields.UpperAlarmLimit != nil {
		c.upperAlarmLimit = *fields.UpperAlarmLimit
	}
	if fields.LowerAlarmLimit != nil {
		c.lowerAlarmLimit = *fields.LowerAlarmLimit
	}
	if fields.UpperWarningLimit != nil {
		c.upperWarningLimit = *fields.UpperWarningLimit
	}
	if fields.LowerWarningLimit != nil {
		c.lowerWarningLimit = *fields.LowerWarningLimit
	}
	if fields.UpperCtrlLimit != nil {
		c.upperCtrlLimit = *fields.UpperCtrlLimit
	}
	if fields.LowerCtrlLimit != nil {
		c.lowerCtrlLimit = *fields.LowerCtrlLimit
	}

	if fields.Timestamp != nil {
		c.timestamp = *fields.Timestamp
	} else if fields.TimestampText != nil {
		c.timestamp = epicstime.FromFlexible(*fields.TimestampText)
	}

	if fields.Status != nil || fields.Severity != nil {
		c.alarmRecord.WriteExcept(alarm.WriteOptions{
			Status:   fields.Status,
			Severity: fields.Severity,
			Publish:  publish,
		}, exceptSelf(c.id))
	}

	if publish {
		c.publishLocked(flags.Property)
	}
}

// WriteMetadata implements spec.md §4.4 "write_metadata".
func (c *channelCore) WriteMetadata(fields MetadataFields) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyMetadataLocked(fields, fields.Publish)
	return nil
}

// AuthWrite implements spec.md §4.4 "Write": an access check followed
// by WriteFromDBR.
func (c *channelCore) AuthWrite(identity Identity, data interface{}, fromType chantype.Type, metadata interface{}, mask flags.EventMask) error {
	if !c.access.check(identity).Has(Write) {
		return &Forbidden{Identity: identity, Want: Write}
	}
	return c.WriteFromDBR(data, fromType, metadata, mask)
}

// WriteFromDBR implements spec.md §4.4 "write_from_dbr".
func (c *channelCore) WriteFromDBR(data interface{}, fromType chantype.Type, metadata interface{}, mask flags.EventMask) error {
	switch fromType {
	case chantype.PutAcks:
		sev, ok := data.(alarm.Severity)
		if !ok {
			return &BadRequest{Reason: "PUT_ACKS value must be an alarm severity"}
		}
		c.alarmRecord.Write(alarm.WriteOptions{SeverityToAcknowledge: &sev, Publish: true})
		return nil
	case chantype.PutAckt:
		ackt, ok := data.(bool)
		if !ok {
			return &BadRequest{Reason: "PUT_ACKT value must be a bool"}
		}
		c.alarmRecord.Write(alarm.WriteOptions{MustAcknowledgeTransient: &ackt, Publish: true})
		return nil
	case chantype.StsackString, chantype.ClassName:
		return &BadRequest{Reason: fromType.Name() + " is not writable"}
	}

	nativeFrom := fromType.NativeBase()

	c.mu.Lock()
	enumTable := c.state.enumTable()
	c.mu.Unlock()

	value, err := convert.Convert(data, nativeFrom, c.ops.nativeType(), c.encoding, enumTable, convert.FromWire)
	if err != nil {
		return err
	}

	opts := DefaultWriteOptions()
	if md, ok := metadata.(*MetadataFields); ok && md != nil {
		opts.Metadata = *md
		if opts.Metadata.Timestamp == nil && opts.Metadata.TimestampText == nil {
			now := epicstime.Now()
			opts.Metadata.Timestamp = &now
		}
	}

	return c.Write(value, mask, opts)
}

func exceptSelf(id guid.Guid) map[guid.Guid]struct{} {
	return map[guid.Guid]struct{}{id: {}}
}
