// Package convert implements the type & conversion layer of the
// channel-data core (spec.md §4.1): stateless, thread-safe functions
// that move a vector of values between any two native Channel Access
// types, respecting string encoding and enum tables. Values stay in
// Go's typed slices; no byte-order conversion is done here.
//
// Grounded on original_source/caproto/_data.py's use of a pluggable
// "backend" module (backend.convert_values) for the same purpose; Go
// idiom (typed errors, explicit Direction) follows
// sttp/transport/CompactMeasurement.go's conversion-table style.
package convert

import (
	"strconv"

	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/internal/metrics"
)

// Convert converts values, a slice or scalar native to from, into the
// native representation of to. enc is used whenever a string boundary
// is crossed; enumTable is consulted whenever from or to is
// chantype.NativeEnum. dir selects wire-boundary-crossing direction,
// which only changes behavior for conversions into ENUM: FromWire
// rejects an out-of-range numeric index and passes an unmatched string
// through, while ToWire passes the index through and rejects the
// unmatched string (see spec.md §4.1 "Numeric ↔ enum").
func Convert(values interface{}, from, to chantype.NativeType, enc Encoding, enumTable []string, dir Direction) (interface{}, error) {
	metrics.Conversions.WithLabelValues(dir.String()).Inc()

	if from == to && from != chantype.NativeEnum {
		return values, nil
	}

	if from == chantype.NativeEnum || to == chantype.NativeEnum {
		return convertEnum(values, from, to, enc, enumTable, dir)
	}

	if from == chantype.NativeString || to == chantype.NativeString {
		return convertString(values, from, to, enc)
	}

	// Both sides are plain numeric/char types.
	fs, ok := toFloat64Slice(from, values)
	if !ok {
		return nil, &BadConversion{From: from.Name(), To: to.Name(), Reason: "unrecognized native representation for source type"}
	}
	return fromFloat64Slice(to, fs), nil
}

func convertString(values interface{}, from, to chantype.NativeType, enc Encoding) (interface{}, error) {
	switch from {
	case chantype.NativeString:
		strs, ok := asStrings(values)
		if !ok {
			return nil, &BadConversion{From: "STRING", To: to.Name(), Reason: "value is not a string or string slice"}
		}
		if to == chantype.NativeString {
			return strs, nil
		}
		if to == chantype.NativeChar {
			if len(strs) == 0 {
				return []byte{}, nil
			}
			return EncodeString(strs[0], enc), nil
		}
		// Numeric target: parse each string as a float64 and cast down.
		fs := make([]float64, len(strs))
		for i, s := range strs {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, &BadConversion{From: "STRING", To: to.Name(), Reason: "value " + strconv.Quote(s) + " is not numeric"}
			}
			fs[i] = v
		}
		return fromFloat64Slice(to, fs), nil

	case chantype.NativeChar:
		b, ok := asBytes(values)
		if !ok {
			return nil, &BadConversion{From: "CHAR", To: "STRING", Reason: "value is not a byte or byte slice"}
		}
		// STRING is a fixed 40-byte field (spec.md §6 "Strings"); a
		// longer CHAR value is truncated, not an error.
		if to == chantype.NativeString && len(b) > chantype.StringFieldSize {
			b = b[:chantype.StringFieldSize]
		}
		return []string{DecodeString(b, enc)}, nil

	default:
		fs, ok := toFloat64Slice(from, values)
		if !ok {
			return nil, &BadConversion{From: from.Name(), To: "STRING", Reason: "unrecognized native representation for source type"}
		}
		out := make([]string, len(fs))
		for i, v := range fs {
			out[i] = formatFloat(from, v)
		}
		return out, nil
	}
}

func formatFloat(native chantype.NativeType, v float64) string {
	switch native {
	case chantype.NativeFloat:
		return strconv.FormatFloat(v, 'g', -1, 32)
	case chantype.NativeDouble:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}

func asStrings(values interface{}) ([]string, bool) {
	switch v := values.(type) {
	case string:
		return []string{v}, true
	case []string:
		return v, true
	}
	return nil, false
}

func asBytes(values interface{}) ([]byte, bool) {
	switch v := values.(type) {
	case byte:
		return []byte{v}, true
	case []byte:
		return v, true
	}
	return nil, false
}

// convertEnum implements spec.md §4.1's "Numeric ↔ enum" and
// "String ↔ enum" rules. The enum native representation is either an
// int index or a string label; see ca.EnumChannel for why both appear.
func convertEnum(values interface{}, from, to chantype.NativeType, enc Encoding, enumTable []string, dir Direction) (interface{}, error) {
	if from == chantype.NativeEnum && to == chantype.NativeEnum {
		return values, nil
	}

	if from == chantype.NativeEnum {
		idx, label, isLabel, err := enumElement(values, enumTable)
		if err != nil {
			return nil, err
		}

		switch to {
		case chantype.NativeString:
			if isLabel {
				return []string{label}, nil
			}
			if idx < 0 || idx >= len(enumTable) {
				return nil, &BadConversion{From: "ENUM", To: "STRING", Reason: "index out of range for enum_strings table"}
			}
			return []string{enumTable[idx]}, nil
		default:
			if isLabel {
				return nil, &BadConversion{From: "ENUM", To: to.Name(), Reason: "enum label cannot be converted to a numeric type"}
			}
			return fromFloat64Slice(to, []float64{float64(idx)}), nil
		}
	}

	// to == NativeEnum, from is numeric or string.
	switch from {
	case chantype.NativeString:
		strs, ok := asStrings(values)
		if !ok || len(strs) == 0 {
			return nil, &BadConversion{From: "STRING", To: "ENUM", Reason: "value is not a string"}
		}
		s := strs[0]
		for i, candidate := range enumTable {
			if candidate == s {
				return i, nil
			}
		}
		if dir == FromWire {
			// Unmatched strings pass through unchanged; the caller's
			// verify_value hook decides what to do with them.
			return s, nil
		}
		return nil, &BadConversion{From: "STRING", To: "ENUM", Reason: "value " + strconv.Quote(s) + " does not match any enum_strings entry"}

	default:
		fs, ok := toFloat64Slice(from, values)
		if !ok || len(fs) == 0 {
			return nil, &BadConversion{From: from.Name(), To: "ENUM", Reason: "unrecognized native representation for source type"}
		}
		idx := int(fs[0])
		if dir == FromWire && (idx < 0 || idx >= len(enumTable)) {
			return nil, &BadConversion{From: from.Name(), To: "ENUM", Reason: "index out of range for enum_strings table"}
		}
		return idx, nil
	}
}

// enumElement normalizes an ENUM-native value (an int index or a
// string label, see ca.EnumChannel) into both forms.
func enumElement(values interface{}, enumTable []string) (idx int, label string, isLabel bool, err error) {
	switch v := values.(type) {
	case int:
		return v, "", false, nil
	case []int:
		if len(v) == 0 {
			return 0, "", false, &BadConversion{From: "ENUM", To: "", Reason: "empty enum value"}
		}
		return v[0], "", false, nil
	case string:
		return 0, v, true, nil
	case []string:
		if len(v) == 0 {
			return 0, "", false, &BadConversion{From: "ENUM", To: "", Reason: "empty enum value"}
		}
		return 0, v[0], true, nil
	}
	return 0, "", false, &BadConversion{From: "ENUM", To: "", Reason: "value is not an enum index or label"}
}
