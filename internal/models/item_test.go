package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoneyFits(t *testing.T) {
	cases := map[string]bool{
		"0":             true,
		"0.33":          true,
		"0.330":         true,
		"120.5":         true,
		"9999999999.99": true,
		"0.333":         false,
		"1.005":         false,
		"10000000000":   false,
		"-0.001":        false,
	}
	for in, want := range cases {
		assert.Equal(t, want, MoneyFits(decimal.RequireFromString(in)), in)
	}
}
