package chantype

import "strings"

var nativeByName = map[string]NativeType{
	"STRING": NativeString,
	"INT":    NativeInt,
	"SHORT":  NativeInt,
	"FLOAT":  NativeFloat,
	"ENUM":   NativeEnum,
	"CHAR":   NativeChar,
	"LONG":   NativeLong,
	"DOUBLE": NativeDouble,
}

var categoryByPrefix = map[string]Category{
	"STS_":  Status,
	"TIME_": Time,
	"GR_":   Graphic,
	"CTRL_": Control,
}

// ByName resolves a CA-style DBR type name (e.g. "DOUBLE", "TIME_DOUBLE",
// "GR_ENUM", "STSACK_STRING", "CLASS_NAME", "LONG_STRING") to a Type.
func ByName(name string) (Type, bool) {
	switch name {
	case "STSACK_STRING":
		return StsackString, true
	case "CLASS_NAME":
		return ClassName, true
	case "PUT_ACKS":
		return PutAcks, true
	case "PUT_ACKT":
		return PutAckt, true
	case "LONG_STRING":
		return LongStringType, true
	}

	category := Plain
	rest := name
	for prefix, cat := range categoryByPrefix {
		if strings.HasPrefix(name, prefix) {
			category = cat
			rest = strings.TrimPrefix(name, prefix)
			break
		}
	}

	base, ok := nativeByName[rest]
	if !ok {
		return Type{}, false
	}

	return Type{Kind: KindNative, Base: base, Category: category}, true
}
