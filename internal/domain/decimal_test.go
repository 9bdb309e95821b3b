package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundPrice_RoundsToEightDigits(t *testing.T) {
	assert.Equal(t, 100.12345679, RoundPrice(100.123456789))
}

func TestRoundQty_RoundsToSixDigits(t *testing.T) {
	assert.Equal(t, 1.123457, RoundQty(1.1234567))
}

func TestIsDust_TreatsTinyResidualAsFilled(t *testing.T) {
	assert.True(t, IsDust(1e-7))
	assert.False(t, IsDust(0.01))
}

func TestFee_ComputesRoundedProduct(t *testing.T) {
	assert.Equal(t, 0.1, Fee(0.001, 1, 100))
}
