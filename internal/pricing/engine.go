package pricing

import (
	"math"

	"github.com/callouthq/dispatch/internal/api/domain"
)

// Config holds the platform percentages. One instance is built from
// the application config and injected; call sites never carry their
// own copies of these numbers.
type Config struct {
	PlatformFeePercent          float64
	OOHCustomerSurchargePercent float64
	OOHSupplierPremiumPercent   float64
}

// DefaultConfig matches the production percentages.
func DefaultConfig() Config {
	return Config{
		PlatformFeePercent:          15,
		OOHCustomerSurchargePercent: 50,
		OOHSupplierPremiumPercent:   25,
	}
}

// Engine computes the three-way price split. It is pure: safe to call
// speculatively for quotes without persisting anything.
type Engine struct {
	cfg Config
}

// NewEngine creates a pricing engine with the given percentages.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Quote computes the full breakdown from a supplier hourly rate in
// cents, a total duration in minutes, the whole-job OOH flag, and an
// optional remote-site fee. All intermediate results are rounded
// half-up to whole cents; the per-step rounding order is part of the
// compatibility contract and must not be reordered.
//
// The customer remote share is always derived as supplier share plus
// platform share (full pass-through), which keeps the breakdown
// balanced for any fee input.
func (e *Engine) Quote(hourlyRateCents int64, durationMinutes int, outOfHours bool, remoteFee *domain.RemoteSiteFee, currency string) domain.PriceBreakdown {
	durationHours := float64(durationMinutes) / 60.0

	var regularHours, oohHours float64
	if outOfHours {
		oohHours = durationHours
	} else {
		regularHours = durationHours
	}

	rate := float64(hourlyRateCents)

	supplierBase := roundCents(rate * regularHours)
	supplierOOHBase := roundCents(rate * oohHours)
	supplierOOHPremium := roundCents(float64(supplierOOHBase) * e.cfg.OOHSupplierPremiumPercent / 100.0)

	customerBase := roundCents(float64(supplierBase+supplierOOHBase) * (1 + e.cfg.PlatformFeePercent/100.0))
	customerOOHSurcharge := roundCents(float64(supplierOOHBase) * e.cfg.OOHCustomerSurchargePercent / 100.0)

	// The platform sides are differences of already-rounded values, so
	// the three totals balance exactly.
	platformFee := customerBase - (supplierBase + supplierOOHBase)
	platformOOHMargin := customerOOHSurcharge - supplierOOHPremium

	b := domain.PriceBreakdown{
		Currency:                  currency,
		SupplierBaseCents:         supplierBase,
		SupplierOOHBaseCents:      supplierOOHBase,
		SupplierOOHPremiumCents:   supplierOOHPremium,
		PlatformFeeCents:          platformFee,
		PlatformOOHMarginCents:    platformOOHMargin,
		CustomerBaseCents:         customerBase,
		CustomerOOHSurchargeCents: customerOOHSurcharge,
	}

	if remoteFee != nil {
		b.SupplierRemoteFeeCents = remoteFee.SupplierCents
		b.PlatformRemoteFeeCents = remoteFee.PlatformCents
		b.CustomerRemoteFeeCents = remoteFee.SupplierCents + remoteFee.PlatformCents
	}

	b.SupplierTotalCents = b.SupplierBaseCents + b.SupplierOOHBaseCents + b.SupplierOOHPremiumCents + b.SupplierRemoteFeeCents
	b.PlatformTotalCents = b.PlatformFeeCents + b.PlatformOOHMarginCents + b.PlatformRemoteFeeCents
	b.CustomerTotalCents = b.CustomerBaseCents + b.CustomerOOHSurchargeCents + b.CustomerRemoteFeeCents

	return b
}

// roundCents rounds half-up to the nearest whole cent.
func roundCents(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
