package ca

import (
	"github.com/epics-go/cachannel/ca/alarm"
	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/convert"
)

// enumValue is an EnumChannel's committed value: the resolved index
// (-1 when the channel's reported value does not match any table
// entry) plus the exact value verify_value decided to report -- a
// string label on a successful match, or the original int/string
// passed through unchanged otherwise (spec.md §4.3 "Enum verify_value").
type enumValue struct {
	index int
	raw   interface{}
}

// EnumChannel is an ordered, fixed-max table of strings; the "raw"
// form is the index (spec.md §3 "Enum").
type EnumChannel struct {
	channelCore
	strings []string
	value   enumValue
}

// EnumOption configures an EnumChannel at construction.
type EnumOption func(*EnumChannel)

func WithEnumAccessChecker(access AccessChecker) EnumOption {
	return func(e *EnumChannel) { e.access = access }
}

func WithEnumReportedRecordType(name string) EnumOption {
	return func(e *EnumChannel) { e.reportedRecordType = name }
}

// NewEnumChannel creates an enum channel. strings must not exceed
// chantype.MaxEnumStates entries, each at most
// chantype.MaxEnumStringSize bytes (spec.md §6 "Strings").
func NewEnumChannel(strings []string, value interface{}, a *alarm.Alarm, opts ...EnumOption) (*EnumChannel, error) {
	if len(strings) > chantype.MaxEnumStates {
		return nil, &BadRequest{Reason: "enum_strings exceeds MAX_ENUM_STATES"}
	}
	for _, s := range strings {
		if len(s) > chantype.MaxEnumStringSize {
			return nil, &BadRequest{Reason: "enum_strings entry exceeds MAX_ENUM_STRING_SIZE"}
		}
	}

	if a == nil {
		a = alarm.New()
	}

	e := &EnumChannel{strings: append([]string(nil), strings...)}
	e.channelCore = newChannelCore(1, "mbbi", convert.DefaultEncoding, a)
	e.ops = e
	e.value = e.resolveValue(value)

	for _, opt := range opts {
		opt(e)
	}

	a.Attach(e)
	return e, nil
}

func (e *EnumChannel) nativeType() chantype.NativeType {
	return chantype.NativeEnum
}

func (e *EnumChannel) currentValue() interface{} {
	if e.value.index >= 0 {
		return e.value.index
	}
	return e.value.raw
}

func (e *EnumChannel) setValue(v interface{}) {
	if ev, ok := v.(enumValue); ok {
		e.value = ev
	}
}

// Value returns the channel's reported value: the resolved label on a
// valid index/string match, or whatever was passed through unchanged.
func (e *EnumChannel) Value() interface{} {
	return e.value.raw
}

// RawIndex returns the resolved index, or -1 if the current value
// does not match any enum_strings entry.
func (e *EnumChannel) RawIndex() int {
	return e.value.index
}

// preprocess passes the raw int/string through unchanged; resolution
// against enum_strings is verifyValue's job (spec.md §4.3).
func (e *EnumChannel) preprocess(st *state, value interface{}) (interface{}, error) {
	switch value.(type) {
	case int, string:
		return value, nil
	default:
		return nil, &BadRequest{Reason: "enum value must be an int index or a string"}
	}
}

// verifyValue implements spec.md §4.3 "Enum verify_value": an integer
// in range resolves to its label; anything else passes through
// unchanged.
func (e *EnumChannel) verifyValue(st *state, value interface{}) (interface{}, error) {
	return e.resolveValue(value), nil
}

func (e *EnumChannel) resolveValue(value interface{}) enumValue {
	switch x := value.(type) {
	case int:
		if x >= 0 && x < len(e.strings) {
			return enumValue{index: x, raw: e.strings[x]}
		}
		return enumValue{index: -1, raw: x}
	case string:
		for i, s := range e.strings {
			if s == x {
				return enumValue{index: i, raw: x}
			}
		}
		return enumValue{index: -1, raw: x}
	default:
		return enumValue{index: -1, raw: x}
	}
}

func (e *EnumChannel) populateMetadata(st *state, dbrType chantype.Type, md *dbrRecord) {
	if dbrType.HasEnumStrings() {
		md.EnumStrings = append([]string(nil), e.strings...)
	}
}

func (e *EnumChannel) cloneValue() valueOps {
	return &EnumChannel{
		strings: append([]string(nil), e.strings...),
		value:   e.value,
	}
}
