package epicstime

import "testing"

func TestRoundTripThroughTime(t *testing.T) {
	now := Now()
	roundTripped := FromTime(now.ToTime())

	if roundTripped != now {
		t.Fatalf("TestRoundTripThroughTime: got %+v, want %+v", roundTripped, now)
	}
}

func TestFromFlexibleTuple(t *testing.T) {
	ts := FromFlexible([2]uint32{100, 200})

	if ts.Seconds != 100 || ts.Nanoseconds != 200 {
		t.Fatalf("TestFromFlexibleTuple: got %+v", ts)
	}
}

func TestFromFlexiblePassesThroughTimestamp(t *testing.T) {
	want := Timestamp{Seconds: 42, Nanoseconds: 7}

	if got := FromFlexible(want); got != want {
		t.Fatalf("TestFromFlexiblePassesThroughTimestamp: got %+v, want %+v", got, want)
	}
}

func TestBeforeOrdersBySecondsThenNanoseconds(t *testing.T) {
	a := Timestamp{Seconds: 1, Nanoseconds: 999}
	b := Timestamp{Seconds: 2, Nanoseconds: 0}

	if !a.Before(b) {
		t.Fatalf("TestBeforeOrdersBySecondsThenNanoseconds: expected a before b")
	}
	if b.Before(a) {
		t.Fatalf("TestBeforeOrdersBySecondsThenNanoseconds: did not expect b before a")
	}
}

func TestEpochIsZeroTimestamp(t *testing.T) {
	if got := FromTime(Epoch); got != (Timestamp{}) {
		t.Fatalf("TestEpochIsZeroTimestamp: got %+v, want zero value", got)
	}
}
