package ca

import (
	"github.com/shopspring/decimal"

	"github.com/epics-go/cachannel/ca/alarm"
	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/convert"
)

// NumericKind tags a NumericChannel with its native wire type. The
// four numeric channel kinds in original_source/caproto/_data.py
// (ChannelShort/ChannelInteger/ChannelFloat/ChannelDouble) differ only
// in this tag (spec.md §9 "Polymorphism over channel types").
type NumericKind int

// The closed set of numeric channel kinds.
const (
	Short NumericKind = iota
	Integer
	FloatKind
	DoubleKind
)

func (k NumericKind) native() chantype.NativeType {
	switch k {
	case Short:
		return chantype.NativeInt
	case Integer:
		return chantype.NativeLong
	case FloatKind:
		return chantype.NativeFloat
	default:
		return chantype.NativeDouble
	}
}

// NumericChannel is a Short/Integer/Float/Double channel: a scalar or
// 1-D array with units, precision, the four limit pairs, and archive
// tolerance thresholds (spec.md §3 "Numeric").
type NumericChannel struct {
	channelCore
	kind NumericKind
	data []float64 // canonical working representation, always the slice form

	// valueAtol/logAtol are the archive/log change-tolerance
	// thresholds (spec.md §3 "Numeric"), which leaves the consuming
	// operation to the external circuit layer; ShouldLog and
	// ShouldArchive are this core's exposed hooks for that decision,
	// using decimal for exact tolerance comparison so repeated small
	// deltas cannot drift past the threshold through accumulated
	// float64 rounding.
	valueAtol decimal.Decimal
	logAtol   decimal.Decimal
}

// NumericOption configures a NumericChannel at construction.
type NumericOption func(*NumericChannel)

func WithUnits(units string) NumericOption {
	return func(n *NumericChannel) { n.units = units }
}

func WithPrecision(p int16) NumericOption {
	return func(n *NumericChannel) { n.precision = p }
}

func WithDisplayLimits(lo, hi float64) NumericOption {
	return func(n *NumericChannel) { n.lowerDispLimit, n.upperDispLimit = lo, hi }
}

func WithWarningLimits(lo, hi float64) NumericOption {
	return func(n *NumericChannel) { n.lowerWarningLimit, n.upperWarningLimit = lo, hi }
}

func WithAlarmLimits(lo, hi float64) NumericOption {
	return func(n *NumericChannel) { n.lowerAlarmLimit, n.upperAlarmLimit = lo, hi }
}

func WithControlLimits(lo, hi float64) NumericOption {
	return func(n *NumericChannel) { n.lowerCtrlLimit, n.upperCtrlLimit = lo, hi }
}

func WithValueAtol(v float64) NumericOption {
	return func(n *NumericChannel) { n.valueAtol = decimal.NewFromFloat(v) }
}

func WithLogAtol(v float64) NumericOption {
	return func(n *NumericChannel) { n.logAtol = decimal.NewFromFloat(v) }
}

func WithNumericAccessChecker(access AccessChecker) NumericOption {
	return func(n *NumericChannel) { n.access = access }
}

func WithReportedRecordType(name string) NumericOption {
	return func(n *NumericChannel) { n.reportedRecordType = name }
}

// NewNumericChannel creates a channel of the given kind holding
// value, attached to a (shared or fresh) Alarm.
func NewNumericChannel(kind NumericKind, value interface{}, maxLength int, a *alarm.Alarm, opts ...NumericOption) (*NumericChannel, error) {
	if a == nil {
		a = alarm.New()
	}

	fs, ok := numericToFloat64Slice(value)
	if !ok {
		return nil, &BadRequest{Reason: "initial value is not numeric"}
	}
	if len(fs) > maxLength {
		return nil, &OutOfBounds{Length: len(fs), MaxLength: maxLength}
	}

	n := &NumericChannel{kind: kind, data: fs}
	n.channelCore = newChannelCore(maxLength, "ai", convert.DefaultEncoding, a)
	n.ops = n

	for _, opt := range opts {
		opt(n)
	}

	a.Attach(n)
	return n, nil
}

func (n *NumericChannel) nativeType() chantype.NativeType {
	return n.kind.native()
}

func (n *NumericChannel) currentValue() interface{} {
	out, err := convert.Convert(n.data, chantype.NativeDouble, n.kind.native(), n.encoding, nil, convert.ToWire)
	if err != nil {
		return n.data
	}
	return out
}

func (n *NumericChannel) setValue(v interface{}) {
	if fs, ok := v.([]float64); ok {
		n.data = fs
		return
	}
	if fs, ok := numericToFloat64Slice(v); ok {
		n.data = fs
	}
}

// preprocess implements spec.md §4.3 "Preprocess" for numeric
// channels: shape/length validation. A scalar or an array is
// normalized to a []float64 slice whatever max_length is -- a
// max_length 1 channel also holds a one-element slice, not a scalar.
// currentValue() casts to the wire native type on demand.
func (n *NumericChannel) preprocess(st *state, value interface{}) (interface{}, error) {
	fs, ok := numericToFloat64Slice(value)
	if !ok {
		return nil, &BadRequest{Reason: "value is not numeric"}
	}

	if len(fs) > st.maxLength {
		return nil, &OutOfBounds{Length: len(fs), MaxLength: st.maxLength}
	}
	if st.maxLength == 1 && len(fs) == 0 {
		return nil, &EmptyScalar{}
	}

	return fs, nil
}

// verifyValue implements spec.md §4.3 "Numeric limit check". Arrays
// bypass the check entirely; a scalar is checked against the control
// limits (a hard error) and then the alarm/warning limits (staged for
// the write pipeline's finally-equivalent merge into the alarm).
func (n *NumericChannel) verifyValue(st *state, value interface{}) (interface{}, error) {
	fs, ok := value.([]float64)
	if !ok || st.maxLength != 1 || len(fs) != 1 {
		return nil, nil
	}

	v := fs[0]

	if st.lowerCtrlLimit != st.upperCtrlLimit && (v < st.lowerCtrlLimit || v > st.upperCtrlLimit) {
		return nil, &CannotExceedLimits{Value: v, Lo: st.lowerCtrlLimit, Hi: st.upperCtrlLimit}
	}

	status, severity := alarm.StatusNoAlarm, alarm.NoAlarm

	if st.lowerAlarmLimit != st.upperAlarmLimit {
		switch {
		case v <= st.lowerAlarmLimit:
			status, severity = alarm.StatusLolo, alarm.Major
		case v >= st.upperAlarmLimit:
			status, severity = alarm.StatusHihi, alarm.Major
		}
	}

	if severity == alarm.NoAlarm && st.lowerWarningLimit != st.upperWarningLimit {
		switch {
		case v <= st.lowerWarningLimit:
			status, severity = alarm.StatusLow, alarm.Minor
		case v >= st.upperWarningLimit:
			status, severity = alarm.StatusHigh, alarm.Minor
		}
	}

	n.stageAlarm(status, severity)
	return nil, nil
}

func (n *NumericChannel) populateMetadata(st *state, dbrType chantype.Type, md *dbrRecord) {
	md.LowerDispLimit, md.UpperDispLimit = st.lowerDispLimit, st.upperDispLimit
	md.LowerAlarmLimit, md.UpperAlarmLimit = st.lowerAlarmLimit, st.upperAlarmLimit
	md.LowerWarningLimit, md.UpperWarningLimit = st.lowerWarningLimit, st.upperWarningLimit

	if dbrType.HasControlLimits() {
		md.LowerCtrlLimit, md.UpperCtrlLimit = st.lowerCtrlLimit, st.upperCtrlLimit
	}
}

func (n *NumericChannel) cloneValue() valueOps {
	return &NumericChannel{
		kind:      n.kind,
		data:      append([]float64(nil), n.data...),
		valueAtol: n.valueAtol,
		logAtol:   n.logAtol,
	}
}

// ShouldLog reports whether the change from prior to next exceeds
// log_atol, using exact decimal subtraction so float64 rounding cannot
// mask or fabricate a tolerance crossing.
func (n *NumericChannel) ShouldLog(prior, next float64) bool {
	return exceedsAtol(prior, next, n.logAtol)
}

// ShouldArchive reports whether the change from prior to next exceeds
// value_atol.
func (n *NumericChannel) ShouldArchive(prior, next float64) bool {
	return exceedsAtol(prior, next, n.valueAtol)
}

func exceedsAtol(prior, next float64, atol decimal.Decimal) bool {
	if atol.IsZero() {
		return prior != next
	}
	delta := decimal.NewFromFloat(next).Sub(decimal.NewFromFloat(prior)).Abs()
	return delta.GreaterThan(atol)
}

func numericToFloat64Slice(value interface{}) ([]float64, bool) {
	switch v := value.(type) {
	case float64:
		return []float64{v}, true
	case []float64:
		return v, true
	case float32:
		return []float64{float64(v)}, true
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	case int:
		return []float64{float64(v)}, true
	case []int:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	case int16:
		return []float64{float64(v)}, true
	case []int16:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	case int32:
		return []float64{float64(v)}, true
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	}
	return nil, false
}
