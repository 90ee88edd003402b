package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func secs(v int64) *int64 { return &v }

func TestCurrency(t *testing.T) {
	assert.Equal(t, "US$ 1.234,56", Currency(ptr(1234.56)))
	assert.Equal(t, "US$ 0,00", Currency(ptr(0)))
	assert.Equal(t, "-US$ 10,50", Currency(ptr(-10.5)))
	assert.Equal(t, "US$ 1.000.000,00", Currency(ptr(1e6)))
	assert.Equal(t, Placeholder, Currency(nil))
}

func TestSignedCurrency(t *testing.T) {
	assert.Equal(t, "+US$ 10,00", SignedCurrency(10))
	assert.Equal(t, "-US$ 2,25", SignedCurrency(-2.25))
}

func TestDecimalAndInteger(t *testing.T) {
	assert.Equal(t, "66,67", Decimal2(ptr(66.666)))
	assert.Equal(t, "-3,50", Decimal2(ptr(-3.5)))
	assert.Equal(t, "1.250", Integer(ptr(1250)))
	assert.Equal(t, "12", Integer(ptr(12)))
	assert.Equal(t, Placeholder, Integer(nil))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "0h 0m 0s", Duration(secs(0)))
	assert.Equal(t, "1h 1m 5s", Duration(secs(3665)))
	assert.Equal(t, "27h 46m 40s", Duration(secs(100000)))
	assert.Equal(t, Placeholder, Duration(secs(-1)))
	assert.Equal(t, Placeholder, Duration(nil))
}

func TestClockAndShortDate(t *testing.T) {
	ts := time.Date(2025, time.March, 7, 9, 5, 3, 0, time.UTC)
	assert.Equal(t, "09:05:03", Clock(ts))
	assert.Equal(t, "07 mar 2025, 09:05", ShortDate(ts))
}
