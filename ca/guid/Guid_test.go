package guid

import "testing"

func TestNewIsNotEmpty(t *testing.T) {
	g := New()

	if g.IsEmpty() {
		t.Fatalf("TestNewIsNotEmpty: New() returned the empty Guid")
	}
}

func TestParseRoundTrip(t *testing.T) {
	g := New()

	parsed, err := Parse(g.String())
	if err != nil {
		t.Fatalf("TestParseRoundTrip: Parse failed: %v", err)
	}

	if parsed != g {
		t.Fatalf("TestParseRoundTrip: got %s, want %s", parsed, g)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("not-a-guid"); err == nil {
		t.Fatalf("TestParseInvalid: expected an error for a malformed Guid string")
	}
}

func TestEmptyIsEmpty(t *testing.T) {
	if !Empty.IsEmpty() {
		t.Fatalf("TestEmptyIsEmpty: Empty.IsEmpty() returned false")
	}
}
