package ca

import (
	"github.com/epics-go/cachannel/ca/alarm"
	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/convert"
)

// StringChannel holds a sequence of encoded strings, each truncated
// to chantype.StringFieldSize bytes (spec.md §3 "String").
type StringChannel struct {
	channelCore
	data []string
}

// StringOption configures a StringChannel at construction.
type StringOption func(*StringChannel)

func WithStringAccessChecker(access AccessChecker) StringOption {
	return func(s *StringChannel) { s.access = access }
}

func WithStringReportedRecordType(name string) StringOption {
	return func(s *StringChannel) { s.reportedRecordType = name }
}

func WithStringEncoding(enc convert.Encoding) StringOption {
	return func(s *StringChannel) { s.encoding = enc }
}

// NewStringChannel creates a string channel holding value (a string
// or []string).
func NewStringChannel(value interface{}, maxLength int, a *alarm.Alarm, opts ...StringOption) (*StringChannel, error) {
	strs, ok := asStringSlice(value)
	if !ok {
		return nil, &BadRequest{Reason: "initial value is not a string or []string"}
	}
	if len(strs) > maxLength {
		return nil, &OutOfBounds{Length: len(strs), MaxLength: maxLength}
	}

	if a == nil {
		a = alarm.New()
	}

	s := &StringChannel{data: truncateAll(strs)}
	s.channelCore = newChannelCore(maxLength, "stringin", convert.DefaultEncoding, a)
	s.ops = s

	for _, opt := range opts {
		opt(s)
	}

	a.Attach(s)
	return s, nil
}

func (s *StringChannel) nativeType() chantype.NativeType {
	return chantype.NativeString
}

func (s *StringChannel) currentValue() interface{} {
	return s.data
}

func (s *StringChannel) setValue(v interface{}) {
	if strs, ok := v.([]string); ok {
		s.data = strs
	}
}

func (s *StringChannel) preprocess(st *state, value interface{}) (interface{}, error) {
	strs, ok := asStringSlice(value)
	if !ok {
		return nil, &BadRequest{Reason: "value is not a string or []string"}
	}

	if len(strs) > st.maxLength {
		return nil, &OutOfBounds{Length: len(strs), MaxLength: st.maxLength}
	}
	if st.maxLength == 1 && len(strs) == 0 {
		return nil, &EmptyScalar{}
	}

	return truncateAll(strs), nil
}

func (s *StringChannel) verifyValue(st *state, value interface{}) (interface{}, error) {
	return nil, nil
}

func (s *StringChannel) populateMetadata(st *state, dbrType chantype.Type, md *dbrRecord) {}

func (s *StringChannel) cloneValue() valueOps {
	return &StringChannel{data: append([]string(nil), s.data...)}
}

func asStringSlice(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case string:
		return []string{v}, true
	case []string:
		return v, true
	}
	return nil, false
}

func truncateAll(strs []string) []string {
	out := make([]string, len(strs))
	for i, s := range strs {
		if len(s) > chantype.StringFieldSize {
			s = s[:chantype.StringFieldSize]
		}
		out[i] = s
	}
	return out
}
