package ca

import (
	"github.com/epics-go/cachannel/ca/alarm"
	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/convert"
)

// ByteChannel is the "char (byte)" kind (spec.md §3 "Char (byte)"): a
// raw byte sequence, with optional trailing-NUL stripping.
type ByteChannel struct {
	channelCore
	data             []byte
	stripTrailingNUL bool
}

// ByteOption configures a ByteChannel at construction.
type ByteOption func(*ByteChannel)

func WithByteAccessChecker(access AccessChecker) ByteOption {
	return func(b *ByteChannel) { b.access = access }
}

func WithTrailingNULStrip(strip bool) ByteOption {
	return func(b *ByteChannel) { b.stripTrailingNUL = strip }
}

func WithByteReportedRecordType(name string) ByteOption {
	return func(b *ByteChannel) { b.reportedRecordType = name }
}

// NewByteChannel creates a byte-array channel holding value.
func NewByteChannel(value []byte, maxLength int, a *alarm.Alarm, opts ...ByteOption) (*ByteChannel, error) {
	if len(value) > maxLength {
		return nil, &OutOfBounds{Length: len(value), MaxLength: maxLength}
	}

	if a == nil {
		a = alarm.New()
	}

	b := &ByteChannel{data: append([]byte(nil), value...)}
	b.channelCore = newChannelCore(maxLength, "waveform", convert.DefaultEncoding, a)
	b.ops = b

	for _, opt := range opts {
		opt(b)
	}

	a.Attach(b)
	return b, nil
}

func (b *ByteChannel) nativeType() chantype.NativeType {
	return chantype.NativeChar
}

func (b *ByteChannel) currentValue() interface{} {
	return b.data
}

func (b *ByteChannel) setValue(v interface{}) {
	if raw, ok := v.([]byte); ok {
		b.data = raw
	}
}

// preprocess coerces bytes|array|scalar into bytes, rejecting decoded
// strings, and strips a single trailing NUL when configured (spec.md
// §4.3 "char (byte)").
func (b *ByteChannel) preprocess(st *state, value interface{}) (interface{}, error) {
	var raw []byte
	switch x := value.(type) {
	case []byte:
		raw = append([]byte(nil), x...)
	case byte:
		raw = []byte{x}
	case string:
		return nil, &BadRequest{Reason: "byte channel cannot accept a decoded string"}
	default:
		return nil, &BadRequest{Reason: "value is not a byte sequence"}
	}

	if b.stripTrailingNUL && len(raw) > 0 && raw[len(raw)-1] == 0 {
		raw = raw[:len(raw)-1]
	}

	if len(raw) > st.maxLength {
		return nil, &OutOfBounds{Length: len(raw), MaxLength: st.maxLength}
	}
	if st.maxLength == 1 && len(raw) == 0 {
		return nil, &EmptyScalar{}
	}

	return raw, nil
}

func (b *ByteChannel) verifyValue(st *state, value interface{}) (interface{}, error) {
	return nil, nil
}

func (b *ByteChannel) populateMetadata(st *state, dbrType chantype.Type, md *dbrRecord) {}

func (b *ByteChannel) cloneValue() valueOps {
	return &ByteChannel{data: append([]byte(nil), b.data...), stripTrailingNUL: b.stripTrailingNUL}
}
