package contracts

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Float is an optional float64: either Known(v) or Unknown.
// ⭐ SSOT: 결측값은 0이 아니라 Unknown으로만 표현
//
// The zero value is Unknown, so omitted JSON fields and unset struct
// fields never turn into a silent zero in arithmetic.
type Float struct {
	value float64
	known bool
}

// Known wraps v. NaN and ±Inf are not numbers a scorer can use and
// collapse to Unknown.
func Known(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return Float{value: v, known: true}
}

// Unknown returns the absent value.
func Unknown() Float {
	return Float{}
}

// Get returns the value and whether it is present.
func (f Float) Get() (float64, bool) {
	return f.value, f.known
}

// IsKnown reports whether a value is present.
func (f Float) IsKnown() bool {
	return f.known
}

// OrElse returns the value or def when Unknown.
func (f Float) OrElse(def float64) float64 {
	if !f.known {
		return def
	}
	return f.value
}

// Map applies fn to a known value. The result passes through Known,
// so a non-finite result becomes Unknown.
func (f Float) Map(fn func(float64) float64) Float {
	if !f.known {
		return f
	}
	return Known(fn(f.value))
}

// String implements fmt.Stringer
func (f Float) String() string {
	if !f.known {
		return "n/a"
	}
	return strconv.FormatFloat(f.value, 'f', -1, 64)
}

// MarshalJSON encodes Unknown as null
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.known {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON decodes null as Unknown
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Float{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Known(v)
	return nil
}

// Ratio returns num/den, Unknown when either side is absent or den is zero.
func Ratio(num, den Float) Float {
	n, ok1 := num.Get()
	d, ok2 := den.Get()
	if !ok1 || !ok2 || d == 0 {
		return Unknown()
	}
	return Known(n / d)
}

// Sub returns a-b, Unknown when either side is absent.
func Sub(a, b Float) Float {
	x, ok1 := a.Get()
	y, ok2 := b.Get()
	if !ok1 || !ok2 {
		return Unknown()
	}
	return Known(x - y)
}
