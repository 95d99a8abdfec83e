// Package chantype defines the closed set of Channel Access data
// types (native types, pseudo-types, and the decorated DBR variants
// built from them) along with the wire-layout constants that bound
// string and enum encodings.
package chantype

const (
	// MaxEnumStringSize is the maximum encoded length, in bytes, of a
	// single enum_strings table entry.
	MaxEnumStringSize = 26

	// MaxEnumStates is the maximum number of entries an enum_strings
	// table may hold.
	MaxEnumStates = 16

	// StringFieldSize is the fixed wire width, in bytes, of a DBR_STRING
	// value field.
	StringFieldSize = 40
)
