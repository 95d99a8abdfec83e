// Package epicstime implements the EPICS timestamp representation: a
// (seconds, nanoseconds) pair counted from the EPICS epoch
// (1990-01-01T00:00:00Z), grounded on the Ticks type in
// sttp/ticks/Ticks.go (a custom time representation with ToTime/
// FromTime conversions and a documented epoch).
package epicstime

import (
	"time"

	"github.com/araddon/dateparse"
)

// Epoch is the EPICS epoch: midnight UTC on January 1, 1990, the
// reference point for every Timestamp's Seconds field.
var Epoch = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// Timestamp is an EPICS-epoch timestamp: seconds and nanoseconds since
// Epoch, each stored as an unsigned 32-bit wire field.
type Timestamp struct {
	Seconds     uint32
	Nanoseconds uint32
}

// FromTime converts a standard Go time.Time to a Timestamp.
func FromTime(t time.Time) Timestamp {
	delta := t.Sub(Epoch)
	return Timestamp{
		Seconds:     uint32(delta / time.Second),
		Nanoseconds: uint32(delta % time.Second),
	}
}

// FromUnix converts a UNIX timestamp in seconds (as used by time.Now().Unix())
// to a Timestamp.
func FromUnix(unixSeconds float64) Timestamp {
	whole := int64(unixSeconds)
	frac := unixSeconds - float64(whole)
	return FromTime(time.Unix(whole, int64(frac*float64(time.Second))).UTC())
}

// Now returns the Timestamp for the current wall-clock time.
func Now() Timestamp {
	return FromTime(time.Now().UTC())
}

// FromFlexible interprets value as a Timestamp, accepting a
// time.Time, a Timestamp, a (seconds, nanoseconds) 2-tuple, a UNIX
// seconds float64, or a free-form timestamp string (parsed with
// dateparse). Falls back to Now() for nil.
func FromFlexible(value interface{}) Timestamp {
	switch v := value.(type) {
	case nil:
		return Now()
	case Timestamp:
		return v
	case time.Time:
		return FromTime(v)
	case float64:
		return FromUnix(v)
	case [2]uint32:
		return Timestamp{Seconds: v[0], Nanoseconds: v[1]}
	case string:
		parsed, err := dateparse.ParseAny(v)
		if err != nil {
			return Now()
		}
		return FromTime(parsed)
	default:
		return Now()
	}
}

// ToTime converts the Timestamp to a standard Go time.Time.
func (ts Timestamp) ToTime() time.Time {
	return Epoch.Add(time.Duration(ts.Seconds)*time.Second + time.Duration(ts.Nanoseconds))
}

// UnixSeconds returns the Timestamp as a UNIX timestamp in seconds.
func (ts Timestamp) UnixSeconds() float64 {
	return float64(ts.ToTime().UnixNano()) / float64(time.Second)
}

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool {
	if ts.Seconds != other.Seconds {
		return ts.Seconds < other.Seconds
	}
	return ts.Nanoseconds < other.Nanoseconds
}
