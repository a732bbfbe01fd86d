// Package change detects field-level differences between two versions of a
// weather record.
package change

import "math"

// DefaultTolerance absorbs floating-point noise from storage round trips.
const DefaultTolerance = 0.0001

// Kind classifies how a field's values are compared.
type Kind int

const (
	KindInt Kind = iota
	KindOptionalInt
	KindFloat
	KindOptionalFloat
	KindOptionalString
)

// Comparator decides whether two values of a field differ. Floats are equal
// when they are within the tolerance; everything else uses exact equality.
type Comparator struct {
	tolerance float64
}

// NewComparator returns a Comparator with the given tolerance.
// A non-positive tolerance falls back to DefaultTolerance.
func NewComparator(tolerance float64) Comparator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return Comparator{tolerance: tolerance}
}

// Tolerance returns the float tolerance in use.
func (c Comparator) Tolerance() float64 {
	return c.tolerance
}

// FloatsDiffer reports whether |a-b| exceeds the tolerance.
func (c Comparator) FloatsDiffer(a, b float64) bool {
	return math.Abs(a-b) > c.tolerance
}

// OptionalFloatsDiffer reports a change when presence differs, or when both
// values are present and differ beyond the tolerance.
func (c Comparator) OptionalFloatsDiffer(a, b *float64) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	return a != nil && c.FloatsDiffer(*a, *b)
}

// IntsDiffer reports whether a and b are different.
func (c Comparator) IntsDiffer(a, b int) bool {
	return a != b
}

// OptionalIntsDiffer treats nil as equal only to nil.
func (c Comparator) OptionalIntsDiffer(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	return a != nil && *a != *b
}

// OptionalStringsDiffer treats nil as equal only to nil.
func (c Comparator) OptionalStringsDiffer(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	return a != nil && *a != *b
}

// Differs compares two values of the given kind. Values whose dynamic type
// does not match the kind are reported as different.
func (c Comparator) Differs(kind Kind, oldValue, newValue any) bool {
	switch kind {
	case KindInt:
		a, okA := oldValue.(int)
		b, okB := newValue.(int)
		return !okA || !okB || c.IntsDiffer(a, b)
	case KindOptionalInt:
		a, okA := oldValue.(*int)
		b, okB := newValue.(*int)
		return !okA || !okB || c.OptionalIntsDiffer(a, b)
	case KindFloat:
		a, okA := oldValue.(float64)
		b, okB := newValue.(float64)
		return !okA || !okB || c.FloatsDiffer(a, b)
	case KindOptionalFloat:
		a, okA := oldValue.(*float64)
		b, okB := newValue.(*float64)
		return !okA || !okB || c.OptionalFloatsDiffer(a, b)
	case KindOptionalString:
		a, okA := oldValue.(*string)
		b, okB := newValue.(*string)
		return !okA || !okB || c.OptionalStringsDiffer(a, b)
	default:
		return true
	}
}
