package vm

import "bytes"

// less reports whether a sorts strictly before b under the typed
// ordering of §4.5: Int32 numeric, String lexicographic, Binary
// lexicographic up to the shorter length (bytes.Compare implements
// exactly this rule already). Registers of different types, and Null
// registers, never compare less than anything.
//
// Grounded on virtualmachine/machine.go's less(), generalized from its
// Go-value type switch (data.(int), data.(string), ...) to Register's
// explicit Type tag.
func less(a, b Register) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case RegInt32:
		return a.Int < b.Int
	case RegString:
		return a.Str < b.Str
	case RegBinary:
		return bytes.Compare(a.Bin, b.Bin) < 0
	default:
		return false
	}
}

// eq reports whether a and b compare equal. Per §4.5, Null compares as
// equal to anything (not just to another Null), matching the teacher's
// eq (derived from !less(a,b) && !less(b,a), which is true whenever
// either side is Null since less() never returns true for a Null
// operand).
func eq(a, b Register) bool {
	if a.Type == RegNull || b.Type == RegNull {
		return true
	}
	if a.Type != b.Type {
		return false
	}
	return !less(a, b) && !less(b, a)
}
