package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestOrderKeys(t *testing.T) {
	passes := []PassSpec{
		{Name: "g0", Order: OrderSpec{Key: intPtr(0)}},
		{Name: "g1", Order: OrderSpec{Key: intPtr(0)}},
		{Name: "ssao", Order: OrderSpec{After: "g0"}},
		{Name: "blur"},
		{Name: "uv", Order: OrderSpec{After: "g1", Offset: intPtr(5)}},
		{Name: "base", Order: OrderSpec{After: "blur", Min: intPtr(51)}},
		{Name: "combine"},
	}
	keys, auto, err := orderKeys(passes)
	require.NoError(t, err)
	assert.False(t, auto)
	assert.Equal(t, map[string]int{
		"g0":      0,
		"g1":      0,
		"ssao":    1,
		"blur":    2,
		"uv":      5,
		"base":    51,
		"combine": 52,
	}, keys)
}

func TestOrderKeysForwardReference(t *testing.T) {
	passes := []PassSpec{
		{Name: "late", Order: OrderSpec{After: "early", Offset: intPtr(10)}},
		{Name: "early", Order: OrderSpec{Key: intPtr(4)}},
	}
	keys, _, err := orderKeys(passes)
	require.NoError(t, err)
	assert.Equal(t, 14, keys["late"])
}

func TestOrderKeysFirstPassDefaultsToOne(t *testing.T) {
	keys, auto, err := orderKeys([]PassSpec{{Name: "a", Order: OrderSpec{Auto: true}}, {Name: "b"}})
	require.NoError(t, err)
	assert.True(t, auto)
	assert.Equal(t, 1, keys["a"])
	assert.Equal(t, 2, keys["b"])
}

func TestOrderKeysErrors(t *testing.T) {
	t.Run("mixed forms", func(t *testing.T) {
		_, _, err := orderKeys([]PassSpec{{Name: "a", Order: OrderSpec{Key: intPtr(1), Auto: true}}})
		assert.ErrorIs(t, err, ErrInvalidOrder)
	})

	t.Run("unknown predecessor", func(t *testing.T) {
		_, _, err := orderKeys([]PassSpec{{Name: "a", Order: OrderSpec{After: "nope"}}})
		assert.ErrorIs(t, err, ErrUnknownPass)
	})

	t.Run("cycle", func(t *testing.T) {
		_, _, err := orderKeys([]PassSpec{
			{Name: "a", Order: OrderSpec{After: "c"}},
			{Name: "b", Order: OrderSpec{After: "a"}},
			{Name: "c", Order: OrderSpec{After: "b"}},
		})
		require.ErrorIs(t, err, ErrInvalidOrder)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("implicit predecessor cycle", func(t *testing.T) {
		// b follows a implicitly, a is placed after b
		_, _, err := orderKeys([]PassSpec{
			{Name: "a", Order: OrderSpec{After: "b"}},
			{Name: "b"},
		})
		assert.ErrorIs(t, err, ErrInvalidOrder)
	})
}
