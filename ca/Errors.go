// Package ca is the channel-data core: typed Channel Access channels
// holding a current value plus alarm and graphic/control metadata,
// a read/write pipeline with conversion and verification, and a
// subscription fan-out with per-wire-type caching and sync filters.
//
// Grounded on original_source/caproto/_data.py's ChannelData hierarchy;
// Go structure (interfaces + embedding instead of class inheritance)
// follows sttp-goapi's transport package texture.
package ca

import "fmt"

// Forbidden is returned by AuthRead/AuthWrite when the caller's
// AccessRights lack the requested right.
type Forbidden struct {
	Identity Identity
	Want     AccessRights
}

func (e *Forbidden) Error() string {
	return fmt.Sprintf("ca: %s@%s lacks %s access", e.Identity.Username, e.Identity.Hostname, e.Want)
}

// BadRequest is returned for a structurally invalid request:
// STSACK_STRING or CLASS_NAME passed to write, a PUT_ACKS/PUT_ACKT
// payload of the wrong type or a read of either, a value of a type the
// channel kind does not accept, or an enum table over its size limits.
// An out-of-range enum index written from a numeric DBR type is
// reported as *convert.BadConversion, not BadRequest.
type BadRequest struct {
	Reason string
}

func (e *BadRequest) Error() string {
	return "ca: bad request: " + e.Reason
}

// OutOfBounds is returned when a written value's length exceeds the
// channel's max length.
type OutOfBounds struct {
	Length, MaxLength int
}

func (e *OutOfBounds) Error() string {
	return fmt.Sprintf("ca: value length %d exceeds max length %d", e.Length, e.MaxLength)
}

// EmptyScalar is returned when a length-0 array is written to a
// scalar (max length 1) channel.
type EmptyScalar struct{}

func (e *EmptyScalar) Error() string {
	return "ca: empty array written to a scalar channel"
}

// CannotExceedLimits is returned when a numeric write falls outside
// the channel's control limits.
type CannotExceedLimits struct {
	Value, Lo, Hi float64
}

func (e *CannotExceedLimits) Error() string {
	return fmt.Sprintf("ca: value %g outside control limits [%g, %g]", e.Value, e.Lo, e.Hi)
}

// skipWrite is the concrete sentinel error behind SkipWrite.
type skipWrite struct{}

func (skipWrite) Error() string { return "ca: write skipped by hook" }

// SkipWrite is the cooperative sentinel a VerifyValue hook returns to
// abort the rest of write silently: no commit, no fan-out publish, no
// error surfaced to the caller. Checked with errors.Is.
var SkipWrite error = skipWrite{}
