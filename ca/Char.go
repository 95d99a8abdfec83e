package ca

import (
	"github.com/epics-go/cachannel/ca/alarm"
	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/convert"
)

// CharChannel is the "encoded char" kind (spec.md §3 "Char
// (encoded)"): its value is a single decoded string, carried on the
// wire as a CHAR array using the long-string alias, but also readable
// as STRING (truncated to chantype.StringFieldSize bytes; a shorter
// value is returned as is, without NUL padding).
type CharChannel struct {
	channelCore
	data string
}

// CharOption configures a CharChannel at construction.
type CharOption func(*CharChannel)

func WithCharAccessChecker(access AccessChecker) CharOption {
	return func(c *CharChannel) { c.access = access }
}

func WithCharEncoding(enc convert.Encoding) CharOption {
	return func(c *CharChannel) { c.encoding = enc }
}

func WithCharReportedRecordType(name string) CharOption {
	return func(c *CharChannel) { c.reportedRecordType = name }
}

// NewCharChannel creates a long-string CHAR channel holding value.
// maxLength bounds the encoded byte length.
func NewCharChannel(value string, maxLength int, a *alarm.Alarm, opts ...CharOption) (*CharChannel, error) {
	if a == nil {
		a = alarm.New()
	}

	c := &CharChannel{}
	c.channelCore = newChannelCore(maxLength, "waveform", convert.DefaultEncoding, a)
	c.ops = c

	for _, opt := range opts {
		opt(c)
	}

	if len(convert.EncodeString(value, c.encoding)) > maxLength {
		return nil, &OutOfBounds{Length: len(convert.EncodeString(value, c.encoding)), MaxLength: maxLength}
	}
	c.data = value

	a.Attach(c)
	return c, nil
}

func (c *CharChannel) nativeType() chantype.NativeType {
	return chantype.NativeChar
}

func (c *CharChannel) currentValue() interface{} {
	return convert.EncodeString(c.data, c.encoding)
}

func (c *CharChannel) setValue(v interface{}) {
	switch x := v.(type) {
	case string:
		c.data = x
	case []byte:
		c.data = convert.DecodeString(x, c.encoding)
	}
}

// preprocess coerces bytes|array|scalar into a decoded string using
// the channel's encoding (spec.md §4.3 "char (encoded)").
func (c *CharChannel) preprocess(st *state, value interface{}) (interface{}, error) {
	var decoded string
	switch x := value.(type) {
	case string:
		decoded = x
	case []byte:
		decoded = convert.DecodeString(x, st.encoding)
	case byte:
		decoded = convert.DecodeString([]byte{x}, st.encoding)
	default:
		return nil, &BadRequest{Reason: "value is not a string or byte sequence"}
	}

	if len(convert.EncodeString(decoded, st.encoding)) > st.maxLength {
		return nil, &OutOfBounds{Length: len(convert.EncodeString(decoded, st.encoding)), MaxLength: st.maxLength}
	}

	return decoded, nil
}

func (c *CharChannel) verifyValue(st *state, value interface{}) (interface{}, error) {
	return nil, nil
}

func (c *CharChannel) populateMetadata(st *state, dbrType chantype.Type, md *dbrRecord) {}

func (c *CharChannel) cloneValue() valueOps {
	return &CharChannel{data: c.data}
}
