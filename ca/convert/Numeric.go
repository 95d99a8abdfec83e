package convert

import "github.com/epics-go/cachannel/ca/chantype"

// toFloat64Slice normalizes any supported numeric/char slice (or
// scalar) into a canonical []float64, the pivot representation every
// numeric<->numeric conversion routes through.
func toFloat64Slice(native chantype.NativeType, values interface{}) ([]float64, bool) {
	switch native {
	case chantype.NativeInt:
		switch v := values.(type) {
		case int16:
			return []float64{float64(v)}, true
		case []int16:
			out := make([]float64, len(v))
			for i, x := range v {
				out[i] = float64(x)
			}
			return out, true
		}
	case chantype.NativeLong, chantype.NativeEnum:
		switch v := values.(type) {
		case int32:
			return []float64{float64(v)}, true
		case []int32:
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
		}
	case chantype.NativeFloat:
		switch v := values.(type) {
		case float32:
			return []float64{float64(v)}, true
		case []float32:
			out := make([]float64, len(v))
			for i, x := range v {
				out[i] = float64(x)
			}
			return out, true
		}
	case chantype.NativeDouble:
		switch v := values.(type) {
		case float64:
			return []float64{v}, true
		case []float64:
			return v, true
		}
	case chantype.NativeChar:
		switch v := values.(type) {
		case byte:
			return []float64{float64(v)}, true
		case []byte:
			out := make([]float64, len(v))
			for i, x := range v {
				out[i] = float64(x)
			}
			return out, true
		}
	}
	return nil, false
}

// fromFloat64Slice casts a canonical []float64 into the native
// representation of target, matching "the natural IEEE/two's-complement
// casts" called for by spec.md §4.1. Out-of-range floats get whatever
// Go's own float-to-integer conversion yields, which is
// implementation-dependent; this function does not saturate them.
func fromFloat64Slice(target chantype.NativeType, fs []float64) interface{} {
	switch target {
	case chantype.NativeInt:
		out := make([]int16, len(fs))
		for i, x := range fs {
			out[i] = int16(x)
		}
		return out
	case chantype.NativeLong, chantype.NativeEnum:
		out := make([]int32, len(fs))
		for i, x := range fs {
			out[i] = int32(x)
		}
		return out
	case chantype.NativeFloat:
		out := make([]float32, len(fs))
		for i, x := range fs {
			out[i] = float32(x)
		}
		return out
	case chantype.NativeDouble:
		out := make([]float64, len(fs))
		copy(out, fs)
		return out
	case chantype.NativeChar:
		out := make([]byte, len(fs))
		for i, x := range fs {
			out[i] = byte(int64(x))
		}
		return out
	}
	return nil
}

func isNumeric(native chantype.NativeType) bool {
	switch native {
	case chantype.NativeInt, chantype.NativeLong, chantype.NativeFloat, chantype.NativeDouble, chantype.NativeChar:
		return true
	}
	return false
}
