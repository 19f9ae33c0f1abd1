package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinor(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    int64
		wantErr error
	}{
		{name: "whole rupees", amount: "500", want: 50000},
		{name: "paise", amount: "10.55", want: 1055},
		{name: "single paisa", amount: "0.01", want: 1},
		{name: "trailing zeros", amount: "12.500", want: 1250},
		{name: "upper bound", amount: "10000000", want: 1_000_000_000},
		{name: "zero", amount: "0", wantErr: ErrNonPositive},
		{name: "negative", amount: "-5", wantErr: ErrNonPositive},
		{name: "fraction of paisa", amount: "1.005", wantErr: ErrTooPrecise},
		{name: "above bound", amount: "10000000.01", wantErr: ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinor(decimal.RequireFromString(tt.amount))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromMinor(t *testing.T) {
	assert.True(t, FromMinor(50000).Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "10.55", FromMinor(1055).StringFixed(2))
	assert.True(t, FromMinor(0).IsZero())
}
