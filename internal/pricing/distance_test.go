package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceFeeCalculator_Fee(t *testing.T) {
	calc := NewDistanceFeeCalculator(DefaultDistanceFeeConfig())

	t.Run("inside free radius", func(t *testing.T) {
		// London centre to Croydon, well under 100 km
		fee := calc.Fee(51.5074, -0.1278, 51.3762, -0.0982)

		assert.Equal(t, int64(0), fee.SupplierCents)
		assert.Equal(t, int64(0), fee.PlatformCents)
		assert.Equal(t, int64(0), fee.CustomerCents)
		assert.Greater(t, fee.DistanceKm, 0.0)
		assert.Less(t, fee.DistanceKm, 100.0)
	})

	t.Run("beyond free radius", func(t *testing.T) {
		// London to Birmingham, roughly 160 km
		fee := calc.Fee(51.5074, -0.1278, 52.4862, -1.8904)

		assert.Greater(t, fee.DistanceKm, 100.0)
		assert.Greater(t, fee.SupplierCents, int64(0))
		assert.Greater(t, fee.PlatformCents, int64(0))
		assert.Equal(t, fee.SupplierCents+fee.PlatformCents, fee.CustomerCents)
	})

	t.Run("fee is capped", func(t *testing.T) {
		// London to Edinburgh, around 530 km; 530 * 50 cents would far
		// exceed the cap
		fee := calc.Fee(51.5074, -0.1278, 55.9533, -3.1883)

		assert.Equal(t, int64(15000), fee.CustomerCents)
		assert.Equal(t, int64(12000), fee.SupplierCents)
		assert.Equal(t, int64(3000), fee.PlatformCents)
	})

	t.Run("split never drifts", func(t *testing.T) {
		cfg := DefaultDistanceFeeConfig()
		cfg.SupplierSharePercent = 33.3
		odd := NewDistanceFeeCalculator(cfg)

		fee := odd.Fee(51.5074, -0.1278, 52.4862, -1.8904)
		assert.Equal(t, fee.SupplierCents+fee.PlatformCents, fee.CustomerCents)
	})
}

func TestHaversineKm(t *testing.T) {
	t.Run("zero distance", func(t *testing.T) {
		assert.Equal(t, 0.0, HaversineKm(51.5, -0.12, 51.5, -0.12))
	})

	t.Run("london to paris", func(t *testing.T) {
		d := HaversineKm(51.5074, -0.1278, 48.8566, 2.3522)
		assert.InDelta(t, 344, d, 5)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := HaversineKm(51.5074, -0.1278, 52.4862, -1.8904)
		b := HaversineKm(52.4862, -1.8904, 51.5074, -0.1278)
		assert.InDelta(t, a, b, 1e-9)
	})
}
