package pricing

import (
	"math"

	"github.com/callouthq/dispatch/internal/api/domain"
)

const earthRadiusKm = 6371.0

// DistanceFeeConfig holds the remote-site fee rate table.
type DistanceFeeConfig struct {
	FreeRadiusKm         float64
	RatePerKmCents       int64
	CapCents             int64
	SupplierSharePercent float64
}

// DefaultDistanceFeeConfig matches the observed production defaults:
// 100 km free radius, supplier 80% / platform 20%, customer pays the
// full fee through.
func DefaultDistanceFeeConfig() DistanceFeeConfig {
	return DistanceFeeConfig{
		FreeRadiusKm:         100,
		RatePerKmCents:       50,
		CapCents:             15000,
		SupplierSharePercent: 80,
	}
}

// DistanceFeeCalculator computes the remote-site fee split for a site
// relative to a supplier base. Pure.
type DistanceFeeCalculator struct {
	cfg DistanceFeeConfig
}

// NewDistanceFeeCalculator creates a calculator with the given rate table.
func NewDistanceFeeCalculator(cfg DistanceFeeConfig) *DistanceFeeCalculator {
	return &DistanceFeeCalculator{cfg: cfg}
}

// Fee returns the split remote-site fee for the great-circle distance
// between the supplier base and the site. Sites inside the free radius
// carry a zero fee. The platform share is the remainder after the
// supplier share, so the split never drifts by a cent.
func (c *DistanceFeeCalculator) Fee(baseLat, baseLon, siteLat, siteLon float64) domain.RemoteSiteFee {
	distance := HaversineKm(baseLat, baseLon, siteLat, siteLon)

	fee := domain.RemoteSiteFee{DistanceKm: distance}
	if distance <= c.cfg.FreeRadiusKm {
		return fee
	}

	total := roundCents(distance * float64(c.cfg.RatePerKmCents))
	if total > c.cfg.CapCents {
		total = c.cfg.CapCents
	}

	fee.SupplierCents = roundCents(float64(total) * c.cfg.SupplierSharePercent / 100.0)
	fee.PlatformCents = total - fee.SupplierCents
	fee.CustomerCents = fee.SupplierCents + fee.PlatformCents

	return fee
}

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
