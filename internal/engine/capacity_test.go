package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCheckCapacity(t *testing.T) {
	t.Run("third preparation fits inside the shift", func(t *testing.T) {
		// 已有 2 项共 4 小时，新增 2 小时后产生 2 次 0.5 小时间歇：
		// 4 + 2 + 1.0 = 7.0 <= 8
		v := CheckCapacity(2, dec("4"), dec("2"), 3, dec("8"), dec("0.5"))
		require.Nil(t, v)
	})

	t.Run("fourth preparation is rejected regardless of remaining time", func(t *testing.T) {
		v := CheckCapacity(3, dec("6"), dec("0.5"), 3, dec("24"), dec("0.5"))
		require.NotNil(t, v)
		require.Equal(t, RuleMaxPreparations, v.Rule)
	})

	t.Run("break overhead can push the sum over the ceiling", func(t *testing.T) {
		// 4 + 2.5 = 6.5 本身不超，加上 1.0 的间歇后 7.5 > 7
		v := CheckCapacity(2, dec("4"), dec("2.5"), 3, dec("7"), dec("0.5"))
		require.NotNil(t, v)
		require.Equal(t, RuleShiftCapacity, v.Rule)
	})

	t.Run("exactly filling the ceiling passes", func(t *testing.T) {
		v := CheckCapacity(2, dec("4"), dec("3"), 3, dec("8"), dec("0.5"))
		require.Nil(t, v)
	})

	t.Run("first preparation has no break overhead", func(t *testing.T) {
		v := CheckCapacity(0, dec("0"), dec("2"), 3, dec("2"), dec("0.5"))
		require.Nil(t, v)
	})

	t.Run("zero count ceiling disables the count rule", func(t *testing.T) {
		v := CheckCapacity(10, dec("1"), dec("1"), 0, dec("24"), dec("0"))
		require.Nil(t, v)
	})
}
