package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueEqualNumericCrossKind(t *testing.T) {
	assert.True(t, IntValue(1).Equal(FloatValue(1.0)))
	assert.False(t, StringValue("1").Equal(IntValue(1)))
	assert.False(t, Null.Equal(Null))
}

func TestValueEqualStructural(t *testing.T) {
	a := ListValue([]Value{IntValue(1), StringValue("x")})
	b := ListValue([]Value{IntValue(1), StringValue("x")})
	c := ListValue([]Value{IntValue(1), StringValue("y")})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	m1 := MapValue(map[string]Value{"k": IntValue(1)})
	m2 := MapValue(map[string]Value{"k": IntValue(1)})
	assert.True(t, m1.Equal(m2))
}

func TestValueCompareNumericPromotion(t *testing.T) {
	assert.Equal(t, -1, IntValue(1).Compare(FloatValue(2.5)))
	assert.Equal(t, 1, FloatValue(3.5).Compare(IntValue(3)))
	assert.Equal(t, 0, IntValue(4).Compare(FloatValue(4.0)))
}

func TestValueTruthy(t *testing.T) {
	assert.False(t, Null.Truthy())
	assert.False(t, IntValue(0).Truthy())
	assert.True(t, IntValue(1).Truthy())
	assert.False(t, StringValue("").Truthy())
	assert.True(t, StringValue("x").Truthy())
	assert.False(t, ListValue(nil).Truthy())
}

func TestValueCloneIsDeep(t *testing.T) {
	orig := ListValue([]Value{StringValue("a")})
	clone := orig.Clone()
	clone.List[0] = StringValue("b")
	assert.Equal(t, "a", orig.List[0].Str)
}
