// Package finance implements the marketplace financial split: per-item
// platform commission and net values, plus per-provider payout
// aggregation. All functions are pure; callers supply the clock.
package finance

import (
	"math"
	"time"

	"tourmarket-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Round2 rounds a money value to cents, half up.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ClampPercent forces a commission percent into [0,100]. Non-finite
// input maps to 0; decimal would panic on it downstream.
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Derive recomputes the fields that follow mechanically from items:
// each item's total (from unitPrice*quantity when the record carried
// none), the order totals, and the per-provider subtotals. Items with a
// non-numeric providerId are excluded from provider aggregation.
func Derive(items []domain.OrderItem) ([]domain.OrderItem, domain.Totals, []domain.ProviderShare) {
	out := make([]domain.OrderItem, len(items))
	gross := decimal.Zero

	subtotals := map[int64]decimal.Decimal{}
	var providerOrder []int64

	for idx, it := range items {
		if !it.TotalSet() {
			it.Total = Round2(it.UnitPrice * float64(it.Quantity))
			it.MarkTotalSet()
		}
		out[idx] = it

		total := decimal.NewFromFloat(it.Total)
		gross = gross.Add(total)

		pid, ok := it.ProviderID.Value()
		if !ok {
			continue
		}
		if _, seen := subtotals[pid]; !seen {
			providerOrder = append(providerOrder, pid)
		}
		subtotals[pid] = subtotals[pid].Add(total)
	}

	providers := make([]domain.ProviderShare, 0, len(providerOrder))
	for _, pid := range providerOrder {
		providers = append(providers, domain.ProviderShare{
			ProviderID: pid,
			Subtotal:   subtotals[pid].Round(2).InexactFloat64(),
		})
	}

	g := gross.Round(2).InexactFloat64()
	return out, domain.Totals{Gross: g, Final: g}, providers
}

// Compute applies the commission split to every item and aggregates the
// per-provider payouts. defaultPercent is clamped to [0,100]; an item
// carrying its own platform.commissionPercent overrides the default for
// that item only. platformCommissionTotal is the running sum of the
// per-item commission values, so it reconciles against item-level
// values even when the percent varies per item. generatedAt is taken
// once by the caller and stamped on the whole result.
func Compute(items []domain.OrderItem, defaultPercent float64, generatedAt time.Time) ([]domain.OrderItem, domain.Financial) {
	defaultPercent = ClampPercent(defaultPercent)

	out := make([]domain.OrderItem, len(items))
	commissionTotal := decimal.Zero

	payouts := map[int64]*domain.ProviderPayout{}
	var payoutOrder []int64

	for idx, it := range items {
		percent := defaultPercent
		if it.Platform != nil && it.Platform.CommissionPercent != nil {
			percent = ClampPercent(*it.Platform.CommissionPercent)
		}

		total := decimal.NewFromFloat(it.Total)
		commission := total.Mul(decimal.NewFromFloat(percent)).Div(decimal.NewFromInt(100)).Round(2)
		net := total.Sub(commission).Round(2)

		commissionTotal = commissionTotal.Add(commission)

		p := percent
		it.Platform = &domain.ItemPlatform{
			CommissionPercent: &p,
			CommissionValue:   commission.InexactFloat64(),
		}
		it.Provider = &domain.ItemProvider{NetValue: net.InexactFloat64()}
		out[idx] = it

		pid, ok := it.ProviderID.Value()
		if !ok {
			// still counted in platformCommissionTotal above
			continue
		}
		agg, seen := payouts[pid]
		if !seen {
			agg = &domain.ProviderPayout{ProviderID: pid}
			payouts[pid] = agg
			payoutOrder = append(payoutOrder, pid)
		}
		agg.Gross = Round2(agg.Gross + total.InexactFloat64())
		agg.PlatformCommissionValue = Round2(agg.PlatformCommissionValue + commission.InexactFloat64())
		agg.Net = Round2(agg.Net + net.InexactFloat64())
	}

	providerPayouts := make([]domain.ProviderPayout, 0, len(payoutOrder))
	for _, pid := range payoutOrder {
		providerPayouts = append(providerPayouts, *payouts[pid])
	}

	return out, domain.Financial{
		PlatformCommissionPercent: defaultPercent,
		PlatformCommissionTotal:   commissionTotal.Round(2).InexactFloat64(),
		ProviderPayouts:           providerPayouts,
		GeneratedAt:               generatedAt,
	}
}
