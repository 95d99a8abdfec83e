package ca

import (
	"testing"

	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/flags"
)

// TestCharLongStringRoundTrip implements scenario S3 from spec.md §8:
// a CHAR channel carries a decoded string longer than
// chantype.StringFieldSize, readable back as CHAR bytes via the
// long-string alias and truncated when read as plain STRING.
func TestCharLongStringRoundTrip(t *testing.T) {
	long := ""
	for i := 0; i < chantype.StringFieldSize+10; i++ {
		long += "x"
	}

	c, err := NewCharChannel(long, chantype.StringFieldSize+10, nil)
	if err != nil {
		t.Fatalf("NewCharChannel: %v", err)
	}

	_, charValue, err := c.Read(chantype.LongStringType)
	if err != nil {
		t.Fatalf("Read LONG_STRING: %v", err)
	}
	if got := string(charValue.([]byte)); got != long {
		t.Fatalf("long-string round trip got %d bytes, want %d", len(got), len(long))
	}

	_, strValue, err := c.Read(chantype.Native(chantype.NativeString))
	if err != nil {
		t.Fatalf("Read STRING: %v", err)
	}
	got := strValue.([]string)[0]
	if len(got) != chantype.StringFieldSize {
		t.Fatalf("STRING read length = %d, want truncated to %d", len(got), chantype.StringFieldSize)
	}
}

func TestCharChannelRejectsOverLength(t *testing.T) {
	_, err := NewCharChannel("0123456789", 5, nil)
	if _, ok := err.(*OutOfBounds); !ok {
		t.Fatalf("got %v (%T), want *OutOfBounds", err, err)
	}
}

func TestCharChannelWriteReplacesValue(t *testing.T) {
	c, err := NewCharChannel("hello", 40, nil)
	if err != nil {
		t.Fatalf("NewCharChannel: %v", err)
	}

	if err := c.Write("goodbye", flags.Value, DefaultWriteOptions()); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, values, err := c.Read(chantype.LongStringType)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := string(values.([]byte)); got != "goodbye" {
		t.Fatalf("got %q, want %q", got, "goodbye")
	}
}

func TestByteChannelStripsTrailingNUL(t *testing.T) {
	b, err := NewByteChannel([]byte("hi\x00"), 10, nil, WithTrailingNULStrip(true))
	if err != nil {
		t.Fatalf("NewByteChannel: %v", err)
	}

	if err := b.Write([]byte("bye\x00"), flags.Value, DefaultWriteOptions()); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, values, err := b.Read(chantype.Native(chantype.NativeChar))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := values.([]byte); string(got) != "bye" {
		t.Fatalf("got %q, want %q (trailing NUL stripped)", got, "bye")
	}
}

func TestByteChannelRejectsDecodedString(t *testing.T) {
	b, err := NewByteChannel([]byte("hi"), 10, nil)
	if err != nil {
		t.Fatalf("NewByteChannel: %v", err)
	}

	err = b.Write("not bytes", flags.Value, DefaultWriteOptions())
	if _, ok := err.(*BadRequest); !ok {
		t.Fatalf("got %v (%T), want *BadRequest", err, err)
	}
}

func TestStringChannelTruncatesToFieldSize(t *testing.T) {
	long := ""
	for i := 0; i < chantype.StringFieldSize+5; i++ {
		long += "y"
	}

	s, err := NewStringChannel(long, 1, nil)
	if err != nil {
		t.Fatalf("NewStringChannel: %v", err)
	}

	_, values, err := s.Read(chantype.Native(chantype.NativeString))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := values.([]string)[0]
	if len(got) != chantype.StringFieldSize {
		t.Fatalf("got length %d, want %d", len(got), chantype.StringFieldSize)
	}
}

func TestStringChannelArrayOutOfBounds(t *testing.T) {
	s, err := NewStringChannel([]string{"a", "b"}, 2, nil)
	if err != nil {
		t.Fatalf("NewStringChannel: %v", err)
	}

	err = s.Write([]string{"a", "b", "c"}, flags.Value, DefaultWriteOptions())
	if _, ok := err.(*OutOfBounds); !ok {
		t.Fatalf("got %v (%T), want *OutOfBounds", err, err)
	}
}
