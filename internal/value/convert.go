package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToNumber applies the numeric conversion. Objects convert to NaN and null
// to 0.
func ToNumber(v Value) float64 {
	switch v.Kind {
	case KindUndefined:
		return math.NaN()
	case KindBool:
		if v.B {
			return 1
		}
		return 0
	case KindNumber:
		return v.Num
	case KindString:
		return ParseNumber(v.Text())
	default:
		if v.Ref == nil {
			return 0
		}
		return math.NaN()
	}
}

// ToString renders v as text. Objects use their Stringer when present.
func ToString(v Value) string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.Num)
	case KindString:
		return v.Text()
	default:
		if v.Ref == nil {
			return "null"
		}
		if s, ok := v.Ref.(fmt.Stringer); ok {
			return s.String()
		}
		return "[object Object]"
	}
}

// ToInt32 converts to a signed 32-bit integer with modular wrap-around.
func ToInt32(v Value) int32 {
	return int32(ToUint32(v))
}

// ToUint32 converts to an unsigned 32-bit integer with modular wrap-around.
func ToUint32(v Value) uint32 {
	n := ToNumber(v)
	if n != n || math.IsInf(n, 0) || n == 0 {
		return 0
	}
	n = math.Trunc(n)
	n = math.Mod(n, 4294967296)
	if n < 0 {
		n += 4294967296
	}
	return uint32(n)
}

// FormatNumber renders n the way the language prints numbers: integers
// without a fraction, exponent notation outside [1e-6, 1e21).
func FormatNumber(n float64) string {
	switch {
	case n != n:
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ParseNumber converts source text to a number. Blank text is 0, malformed
// text is NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		u, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(u)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return math.NaN()
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return n
		}
		return math.NaN()
	}
	return n
}
