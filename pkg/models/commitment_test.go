package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrencyIsValid(t *testing.T) {
	assert.True(t, Currency("GBP").IsValid())
	assert.True(t, Currency("USD").IsValid())
	assert.True(t, Currency("EUR").IsValid())
	assert.False(t, Currency("JPY").IsValid())
	assert.False(t, Currency("gbp").IsValid())
	assert.False(t, Currency("").IsValid())
}

func TestDefaultCurrency(t *testing.T) {
	assert.Equal(t, CurrencyGBP, DefaultCurrency)
	assert.True(t, DefaultCurrency.IsValid())
}
