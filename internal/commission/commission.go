// Package commission computes vendor commission and net-payable amounts.
//
// Rates are always carried as a Rate, which can only be built from an
// explicit fraction (0.25) or an explicit percentage (25). Nothing else in
// the codebase divides by 100.
package commission

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DefaultPercent is the commission percentage applied when a vendor has no
// rate of its own and the caller supplies none.
const DefaultPercent = 25

// Rate is a commission rate normalized to a 0..1 fraction.
type Rate struct {
	fraction decimal.Decimal
}

// FromFraction builds a rate from a fraction (0.25 == 25%).
func FromFraction(f float64) Rate {
	return Rate{fraction: decimal.NewFromFloat(f)}
}

// FromPercent builds a rate from a percentage (25 == 25%).
func FromPercent(p float64) Rate {
	return Rate{fraction: decimal.NewFromFloat(p).Div(hundred)}
}

// Default returns the fallback 25% rate.
func Default() Rate {
	return FromPercent(DefaultPercent)
}

// VendorRate resolves the rate stored on a vendor: its own percentage when
// set, the default otherwise.
func VendorRate(percent float64) Rate {
	if percent > 0 {
		return FromPercent(percent)
	}
	return Default()
}

// Fraction returns the rate as a decimal fraction.
func (r Rate) Fraction() decimal.Decimal { return r.fraction }

// Float returns the rate as a float64 fraction, for display.
func (r Rate) Float() float64 {
	f, _ := r.fraction.Float64()
	return f
}

// Result holds the output of Compute.
type Result struct {
	Commission decimal.Decimal
	NetPayable decimal.Decimal
}

// Compute returns gross*rate and gross*rate - voucher. The net amount may
// be negative when the vendor already collected more through vouchers than
// the commission owed. No rounding is applied.
func Compute(gross, voucher decimal.Decimal, rate Rate) Result {
	c := gross.Mul(rate.fraction)
	return Result{
		Commission: c,
		NetPayable: c.Sub(voucher),
	}
}

// Totals accumulates order amounts for one vendor and window.
type Totals struct {
	Count        int
	Gross        decimal.Decimal
	Voucher      decimal.Decimal
	VoucherCount int
}

// Add records one order total. voucher marks orders paid by voucher (BP).
func (t *Totals) Add(total int64, voucher bool) {
	amt := decimal.NewFromInt(total)
	t.Count++
	t.Gross = t.Gross.Add(amt)
	if voucher {
		t.VoucherCount++
		t.Voucher = t.Voucher.Add(amt)
	}
}

// Apply runs Compute over the accumulated totals.
func (t Totals) Apply(rate Rate) Result {
	return Compute(t.Gross, t.Voucher, rate)
}

// Units truncates an amount toward zero into whole currency units. Used at
// presentation time only.
func Units(d decimal.Decimal) int64 {
	return d.IntPart()
}
