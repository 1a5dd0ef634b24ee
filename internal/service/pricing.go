package service

import (
	"github.com/shopspring/decimal"
)

// ShippingOption is a named delivery tier with a flat fee
type ShippingOption struct {
	Key         string          `json:"key"`
	Label       string          `json:"label"`
	Fee         decimal.Decimal `json:"-"`
	Description string          `json:"description"`
}

// PaymentMethod is a named payment label with a flat fee
type PaymentMethod struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Fee   decimal.Decimal `json:"-"`
}

const DefaultShippingOption = "standard"

// MaxAmount is the largest money value the NUMERIC(10,2) columns hold
var MaxAmount = decimal.RequireFromString("99999999.99")

var shippingOptions = []ShippingOption{
	{Key: "standard", Label: "Standard Shipping", Fee: decimal.NewFromInt(125), Description: "Delivery within 3-5 business days"},
	{Key: "express", Label: "Express Shipping", Fee: decimal.NewFromInt(200), Description: "Next day delivery"},
	{Key: "same_day", Label: "Same Day Delivery", Fee: decimal.NewFromInt(350), Description: "Delivery within 24 hours"},
}

var paymentMethods = []PaymentMethod{
	{Key: "cash-on-delivery", Label: "Cash on Delivery", Fee: decimal.Zero},
	{Key: "credit-card", Label: "Credit Card", Fee: decimal.NewFromInt(50)},
	{Key: "paypal", Label: "PayPal", Fee: decimal.NewFromInt(50)},
	{Key: "gcash", Label: "GCash", Fee: decimal.NewFromInt(20)},
}

var (
	shippingByKey = make(map[string]ShippingOption, len(shippingOptions))
	paymentByKey  = make(map[string]PaymentMethod, len(paymentMethods))
)

func init() {
	for _, o := range shippingOptions {
		shippingByKey[o.Key] = o
	}
	for _, m := range paymentMethods {
		paymentByKey[m.Key] = m
	}
}

// ShippingOptions lists the delivery tiers in display order
func ShippingOptions() []ShippingOption {
	return append([]ShippingOption(nil), shippingOptions...)
}

// PaymentMethods lists the payment methods in display order
func PaymentMethods() []PaymentMethod {
	return append([]PaymentMethod(nil), paymentMethods...)
}

// ShippingFee looks up a tier fee. Unknown keys cost the standard fee.
func ShippingFee(option string) decimal.Decimal {
	if o, ok := shippingByKey[option]; ok {
		return o.Fee
	}
	return shippingByKey[DefaultShippingOption].Fee
}

// PaymentFee looks up a method fee. Unknown keys are free.
func PaymentFee(method string) decimal.Decimal {
	if m, ok := paymentByKey[method]; ok {
		return m.Fee
	}
	return decimal.Zero
}

// VoucherDiscount always returns zero; vouchers are recorded on the
// order but not redeemed.
func VoucherDiscount(code string, subtotal decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// PriceLine is one priced request line
type PriceLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal is the unit price, rounded to cents, times the quantity.
func (l PriceLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Round(2).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PriceBreakdown is the computed cost of an order
type PriceBreakdown struct {
	Subtotal        decimal.Decimal
	ShippingFee     decimal.Decimal
	PaymentFee      decimal.Decimal
	VoucherDiscount decimal.Decimal
	Total           decimal.Decimal
}

// CalculatePrice prices lines using the unit prices they carry. Callers
// must validate those prices against the catalog beforehand.
func CalculatePrice(lines []PriceLine, shippingOption, paymentMethod, voucherCode string) PriceBreakdown {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}

	b := PriceBreakdown{
		Subtotal:        subtotal,
		ShippingFee:     ShippingFee(shippingOption),
		PaymentFee:      PaymentFee(paymentMethod),
		VoucherDiscount: VoucherDiscount(voucherCode, subtotal),
	}
	b.Total = b.Subtotal.Add(b.ShippingFee).Add(b.PaymentFee).Sub(b.VoucherDiscount)
	return b
}
