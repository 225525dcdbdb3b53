package domain

// RemoteSiteFee is the distance-based surcharge already split three
// ways. The customer share is the full pass-through of the supplier
// and platform shares.
type RemoteSiteFee struct {
	SupplierCents int64   `json:"supplier_cents"`
	PlatformCents int64   `json:"platform_cents"`
	CustomerCents int64   `json:"customer_cents"`
	DistanceKm    float64 `json:"distance_km"`
}

// PriceBreakdown is the full three-way price split in integer cents.
// Invariant: CustomerTotal == SupplierTotal + PlatformTotal, exactly.
type PriceBreakdown struct {
	Currency string `json:"currency"`

	SupplierBaseCents       int64 `json:"supplier_base_cents"`
	SupplierOOHBaseCents    int64 `json:"supplier_ooh_base_cents"`
	SupplierOOHPremiumCents int64 `json:"supplier_ooh_premium_cents"`
	SupplierRemoteFeeCents  int64 `json:"supplier_remote_fee_cents"`
	SupplierTotalCents      int64 `json:"supplier_total_cents"`

	PlatformFeeCents       int64 `json:"platform_fee_cents"`
	PlatformOOHMarginCents int64 `json:"platform_ooh_margin_cents"`
	PlatformRemoteFeeCents int64 `json:"platform_remote_fee_cents"`
	PlatformTotalCents     int64 `json:"platform_total_cents"`

	CustomerBaseCents         int64 `json:"customer_base_cents"`
	CustomerOOHSurchargeCents int64 `json:"customer_ooh_surcharge_cents"`
	CustomerRemoteFeeCents    int64 `json:"customer_remote_fee_cents"`
	CustomerTotalCents        int64 `json:"customer_total_cents"`
}

// Balanced reports whether the three-way invariant holds.
func (b PriceBreakdown) Balanced() bool {
	return b.CustomerTotalCents == b.SupplierTotalCents+b.PlatformTotalCents
}
