package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculatePrice(t *testing.T) {
	tests := []struct {
		name     string
		lines    []PriceLine
		shipping string
		payment  string
		subtotal string
		total    string
	}{
		{
			name:     "standard cash on delivery",
			lines:    []PriceLine{{ProductID: 1, Quantity: 2, UnitPrice: dec("100")}},
			shipping: "standard",
			payment:  "cash-on-delivery",
			subtotal: "200",
			total:    "325",
		},
		{
			name: "express gcash several lines",
			lines: []PriceLine{
				{ProductID: 1, Quantity: 1, UnitPrice: dec("49.50")},
				{ProductID: 2, Quantity: 3, UnitPrice: dec("10.25")},
			},
			shipping: "express",
			payment:  "gcash",
			subtotal: "80.25",
			total:    "300.25",
		},
		{
			name:     "unknown keys fall back",
			lines:    []PriceLine{{ProductID: 1, Quantity: 1, UnitPrice: dec("10")}},
			shipping: "drone",
			payment:  "barter",
			subtotal: "10",
			total:    "135",
		},
		{
			name:     "unit price rounded before multiplying",
			lines:    []PriceLine{{ProductID: 1, Quantity: 3, UnitPrice: dec("19.999")}},
			shipping: "same_day",
			payment:  "paypal",
			subtotal: "60",
			total:    "460",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := CalculatePrice(tt.lines, tt.shipping, tt.payment, "")
			assert.True(t, dec(tt.subtotal).Equal(b.Subtotal), "subtotal %s", b.Subtotal)
			assert.True(t, dec(tt.total).Equal(b.Total), "total %s", b.Total)
			assert.True(t, b.VoucherDiscount.IsZero())
		})
	}
}

func TestVoucherDiscountIsAlwaysZero(t *testing.T) {
	b := CalculatePrice([]PriceLine{{ProductID: 1, Quantity: 1, UnitPrice: dec("500")}}, "standard", "credit-card", "SAVE50")
	assert.True(t, b.VoucherDiscount.IsZero())
	assert.True(t, dec("675").Equal(b.Total))
}

func TestFeeLookups(t *testing.T) {
	assert.True(t, dec("350").Equal(ShippingFee("same_day")))
	assert.True(t, dec("125").Equal(ShippingFee("")))
	assert.True(t, dec("50").Equal(PaymentFee("credit-card")))
	assert.True(t, PaymentFee("unknown").IsZero())
}
