package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maonamassa/marketplace/internal/money"
)

func TestComputeFee(t *testing.T) {
	type testCase struct {
		name       string
		amount     int64
		feePercent float64
		wantFee    int64
		wantNet    int64
		wantErr    error
	}

	tests := []testCase{
		{
			name:       "TenPercentOfTwoHundredReais",
			amount:     20000,
			feePercent: 10,
			wantFee:    2000,
			wantNet:    18000,
		},
		{
			name:       "ZeroAmount",
			amount:     0,
			feePercent: 10,
			wantFee:    0,
			wantNet:    0,
		},
		{
			name:       "RoundsHalfUp",
			amount:     5, // 10% of 5 centavos = 0.5, rounds to 1
			feePercent: 10,
			wantFee:    1,
			wantNet:    4,
		},
		{
			name:       "FractionalRate",
			amount:     10000,
			feePercent: 2.5,
			wantFee:    250,
			wantNet:    9750,
		},
		{
			name:       "ZeroRate",
			amount:     12345,
			feePercent: 0,
			wantFee:    0,
			wantNet:    12345,
		},
		{
			name:       "FullRate",
			amount:     12345,
			feePercent: 100,
			wantFee:    12345,
			wantNet:    0,
		},
		{
			name:       "NegativeAmount",
			amount:     -1,
			feePercent: 10,
			wantErr:    money.ErrInvalidAmount,
		},
		{
			name:       "RateAboveHundred",
			amount:     100,
			feePercent: 101,
			wantErr:    money.ErrInvalidFeeRate,
		},
		{
			name:       "NegativeRate",
			amount:     100,
			feePercent: -1,
			wantErr:    money.ErrInvalidFeeRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net, err := money.ComputeFee(tt.amount, tt.feePercent)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantNet, net)
		})
	}
}

// The split must be exact for every amount: no centavo may appear or vanish.
func TestComputeFee_SplitIsExact(t *testing.T) {
	for amount := int64(0); amount < 10000; amount++ {
		fee, net, err := money.ComputeFee(amount, money.DefaultFeePercent)
		require.NoError(t, err)
		require.Equal(t, amount, fee+net, "amount %d", amount)
		require.GreaterOrEqual(t, fee, int64(0))
		require.GreaterOrEqual(t, net, int64(0))
	}
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 200,00", money.FormatBRL(20000))
	assert.Equal(t, "R$ 1.234,56", money.FormatBRL(123456))
	assert.Equal(t, "R$ 0,05", money.FormatBRL(5))
}
