package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		balance string
		want    string
	}{
		{"20", "+$20.00"},
		{"-10", "-$10.00"},
		{"33.333333", "+$33.33"},
		{"0", SettledLabel},
		{"0.01", SettledLabel},
		{"-0.01", SettledLabel},
		{"0.011", "+$0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.balance, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBalance(dec(tt.balance)))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$10.00", FormatAmount(dec("10")))
	assert.Equal(t, "$3.34", FormatAmount(dec("3.335")))
}

func TestAllSettled(t *testing.T) {
	assert.True(t, AllSettled(nil))
	assert.True(t, AllSettled([]BalanceEntry{entry(alice, "0.004"), entry(bob, "-0.004")}))
	assert.False(t, AllSettled([]BalanceEntry{entry(alice, "1"), entry(bob, "-1")}))
}
