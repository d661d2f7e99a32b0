package value

// Kind discriminates the variants of a tagged Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
)

// Value is the universal runtime datum. Undefined, booleans and numbers are
// immediate; strings and objects reference heap objects. An Object value
// with a nil Ref is null.
type Value struct {
	Kind Kind
	Num  float64
	B    bool
	Ref  HeapObject
}

func Undefined() Value { return Value{Kind: KindUndefined} }
func Null() Value      { return Value{Kind: KindObject} }
func Bool(b bool) Value {
	return Value{Kind: KindBool, B: b}
}
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// Str wraps an existing string object.
func Str(s *String) Value {
	return Value{Kind: KindString, Ref: s}
}

// Obj wraps a heap object as an Object value.
func Obj(o HeapObject) Value {
	if o == nil {
		return Null()
	}
	return Value{Kind: KindObject, Ref: o}
}

// IsNull reports whether v is the null object reference.
func (v Value) IsNull() bool {
	return v.Kind == KindObject && v.Ref == nil
}

// IsNullish reports whether v is null or undefined.
func (v Value) IsNullish() bool {
	return v.Kind == KindUndefined || v.IsNull()
}

// IsHeap reports whether v carries a collectable heap reference.
func (v Value) IsHeap() bool {
	return (v.Kind == KindString || v.Kind == KindObject) && v.Ref != nil
}

// Text returns the content of a string value, or "" for other kinds.
func (v Value) Text() string {
	if v.Kind != KindString {
		return ""
	}
	if s, ok := v.Ref.(*String); ok && s != nil {
		return s.S
	}
	return ""
}

// Truthy applies the language's boolean conversion.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindUndefined:
		return false
	case KindBool:
		return v.B
	case KindNumber:
		return v.Num != 0 && v.Num == v.Num
	case KindString:
		return v.Text() != ""
	default:
		return v.Ref != nil
	}
}

// StrictEqual reports whether a and b are the same variant with the same
// payload. Strings compare by content, objects by identity.
func StrictEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUndefined:
		return true
	case KindBool:
		return a.B == b.B
	case KindNumber:
		return a.Num == b.Num
	case KindString:
		return a.Text() == b.Text()
	default:
		return a.Ref == b.Ref
	}
}

// LooseEqual implements the coercing == comparison for primitives.
// Objects are only ever equal to themselves.
func LooseEqual(a, b Value) bool {
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.Kind == b.Kind {
		return StrictEqual(a, b)
	}
	if a.IsNullish() || b.IsNullish() {
		return false
	}
	switch {
	case a.Kind == KindBool:
		return LooseEqual(Number(ToNumber(a)), b)
	case b.Kind == KindBool:
		return LooseEqual(a, Number(ToNumber(b)))
	case a.Kind == KindNumber && b.Kind == KindString:
		return a.Num == ToNumber(b)
	case a.Kind == KindString && b.Kind == KindNumber:
		return ToNumber(a) == b.Num
	}
	return false
}

// Compare orders a and b for the relational operators. Two strings compare
// lexicographically, anything else numerically. ok is false when either
// side is NaN, in which case every relational operator yields false.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.Kind == KindString && b.Kind == KindString {
		as, bs := a.Text(), b.Text()
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}
	x, y := ToNumber(a), ToNumber(b)
	if x != x || y != y {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	default:
		return 0, true
	}
}

// TypeOf returns the typeof name of v.
func TypeOf(v Value) string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		if c, ok := v.Ref.(Callable); ok && c.Callable() {
			return "function"
		}
		return "object"
	}
}
