package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthiness(t *testing.T) {
	assert.False(t, Null.IsTruthy())
	assert.False(t, False.IsTruthy())
	assert.True(t, True.IsTruthy())
	assert.True(t, Number(0).IsTruthy(), "zero is truthy")
	assert.False(t, String("").IsTruthy(), "empty string is falsy")
	assert.True(t, String("a").IsTruthy())
	assert.False(t, List(nil).IsTruthy(), "empty list is falsy")
	assert.True(t, List([]Value{Number(1)}).IsTruthy())
}

func TestEqualityIsStructuralAndTagged(t *testing.T) {
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(String("1")), "no cross-type equality")

	nan := Number(nan())
	assert.False(t, nan.Equal(nan), "NaN is never equal to itself")

	a := List([]Value{Number(1), String("x")})
	b := List([]Value{Number(1), String("x")})
	assert.True(t, a.Equal(b), "lists compare element-wise")

	c := List([]Value{Number(1), String("y")})
	assert.False(t, a.Equal(c))
}

func TestEqualityReflexiveAndSymmetric(t *testing.T) {
	values := []Value{Null, True, False, Number(3.5), String("hi"), List([]Value{Number(1)})}
	for _, v := range values {
		require.True(t, v.Equal(v), "reflexive: %v", v)
	}
	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, a.Equal(b), b.Equal(a), "symmetric: %v vs %v", a, b)
		}
	}
}

func TestCalculateIndex(t *testing.T) {
	tests := []struct {
		n      float64
		length int
		want   int
	}{
		{0, 5, 0},
		{-0, 5, 0},
		{1.5, 5, 2},
		{-1, 5, 4},
		{77, 5, 5},
		{-77, 5, 5},
	}
	for _, tc := range tests {
		got := CalculateIndex(tc.n, tc.length)
		assert.Equalf(t, tc.want, got, "CalculateIndex(%v, %v)", tc.n, tc.length)
	}
}

func TestStringIndexing(t *testing.T) {
	s := String("hello")

	v, res := s.GetProperty(Number(-1))
	require.Equal(t, Found, res)
	assert.Equal(t, "o", v.AsString())

	v, res = s.GetProperty(Number(1.5))
	require.Equal(t, Found, res)
	assert.Equal(t, "l", v.AsString())

	_, res = s.GetProperty(Number(77))
	assert.Equal(t, NotFound, res)
}

func TestListHoldsItemsInOrder(t *testing.T) {
	l := *List([]Value{Number(5), Number(6), Number(7), Number(8), Number(9)}).AsList()
	require.Len(t, l, 5)
	assert.Equal(t, float64(5), l[0].AsNumber())
	assert.Equal(t, float64(7), l[2].AsNumber())
}

func TestArityCheck(t *testing.T) {
	fixed := NewArity(2)
	assert.True(t, fixed.Check(2))
	assert.False(t, fixed.Check(1))
	assert.False(t, fixed.Check(3))

	variadic := NewVariadicArity(1)
	assert.True(t, variadic.Check(0))
	assert.True(t, variadic.Check(5))
}

func nan() float64 {
	var zero float64
	return zero / zero
}
