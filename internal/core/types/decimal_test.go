package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulQty(t *testing.T) {
	assert.True(t, MustMoney("50.00").Equal(MulQty(MustMoney("25.00"), 2)))
}

func TestPercent(t *testing.T) {
	assert.True(t, MustMoney("60").Equal(Percent(MustMoney("30"), MustMoney("50"))))
	assert.True(t, Zero().Equal(Percent(MustMoney("30"), Zero())))
	assert.True(t, MustMoney("33.33").Equal(Percent(MustMoney("1"), MustMoney("3"))))
}

func TestMinMoneyAndRound(t *testing.T) {
	assert.True(t, MustMoney("10").Equal(MinMoney(MustMoney("10"), MustMoney("12.5"))))
	assert.Equal(t, "2.35", RoundMoney(MustMoney("2.345")).StringFixed(2))
}
