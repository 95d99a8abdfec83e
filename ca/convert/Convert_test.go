package convert

import (
	"reflect"
	"testing"

	"github.com/epics-go/cachannel/ca/chantype"
)

func TestConvertIdentityPassthrough(t *testing.T) {
	got, err := Convert([]float64{1, 2, 3}, chantype.NativeDouble, chantype.NativeDouble, Latin1, nil, ToWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Fatalf("got %#v", got)
	}
}

func TestConvertNumericRoundTrip(t *testing.T) {
	in := []int32{1, -2, 3}
	out, err := Convert(in, chantype.NativeLong, chantype.NativeDouble, Latin1, nil, ToWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := Convert(out, chantype.NativeDouble, chantype.NativeLong, Latin1, nil, ToWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(back, in) {
		t.Fatalf("round trip mismatch: got %#v want %#v", back, in)
	}
}

func TestConvertEnumToStringByIndex(t *testing.T) {
	table := []string{"off", "on", "tripped"}
	got, err := Convert(2, chantype.NativeEnum, chantype.NativeString, Latin1, table, ToWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"tripped"}) {
		t.Fatalf("got %#v", got)
	}
}

func TestConvertStringToEnumMatched(t *testing.T) {
	table := []string{"off", "on", "tripped"}
	got, err := Convert("on", chantype.NativeString, chantype.NativeEnum, Latin1, table, FromWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("got %#v", got)
	}
}

func TestConvertStringToEnumUnmatchedPassesThroughOnFromWire(t *testing.T) {
	table := []string{"off", "on", "tripped"}
	got, err := Convert("unknown", chantype.NativeString, chantype.NativeEnum, Latin1, table, FromWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "unknown" {
		t.Fatalf("got %#v, want unmatched string to pass through unchanged", got)
	}
}

func TestConvertNumericToEnumOutOfRangeErrorsOnFromWire(t *testing.T) {
	table := []string{"off", "on"}
	_, err := Convert(int32(5), chantype.NativeLong, chantype.NativeEnum, Latin1, table, FromWire)
	if err == nil {
		t.Fatal("expected an out-of-range error")
	}
}

func TestConvertNumericToEnumOutOfRangePassesOnToWire(t *testing.T) {
	table := []string{"off", "on"}
	got, err := Convert(int32(5), chantype.NativeLong, chantype.NativeEnum, Latin1, table, ToWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5 {
		t.Fatalf("got %#v", got)
	}
}

func TestConvertCharStringRoundTrip(t *testing.T) {
	s := "hello"
	bytes, err := Convert(s, chantype.NativeString, chantype.NativeChar, Latin1, nil, ToWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := Convert(bytes, chantype.NativeChar, chantype.NativeString, Latin1, nil, ToWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(back, []string{s}) {
		t.Fatalf("got %#v", back)
	}
}

func TestConvertCharToStringTruncatesToFieldSize(t *testing.T) {
	long := make([]byte, chantype.StringFieldSize+10)
	for i := range long {
		long[i] = 'x'
	}

	got, err := Convert(long, chantype.NativeChar, chantype.NativeString, Latin1, nil, ToWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	strs := got.([]string)
	if len(strs) != 1 || len(strs[0]) != chantype.StringFieldSize {
		t.Fatalf("got length %d, want truncated to %d", len(strs[0]), chantype.StringFieldSize)
	}
}

func TestConvertStringToNumeric(t *testing.T) {
	got, err := Convert("3.5", chantype.NativeString, chantype.NativeDouble, Latin1, nil, ToWire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{3.5}) {
		t.Fatalf("got %#v", got)
	}
}

func TestConvertStringToNumericBadValueErrors(t *testing.T) {
	_, err := Convert("not-a-number", chantype.NativeString, chantype.NativeDouble, Latin1, nil, ToWire)
	if err == nil {
		t.Fatal("expected a conversion error")
	}
	var bc *BadConversion
	if !errorsAs(err, &bc) {
		t.Fatalf("expected *BadConversion, got %T", err)
	}
}

func errorsAs(err error, target **BadConversion) bool {
	if bc, ok := err.(*BadConversion); ok {
		*target = bc
		return true
	}
	return false
}
