package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callouthq/dispatch/internal/api/domain"
)

func TestEngine_Quote_RegularHours(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 2 hours at $80.00/hr, in hours, no remote fee
	b := engine.Quote(8000, 120, false, nil, "GBP")

	assert.Equal(t, int64(16000), b.SupplierBaseCents)
	assert.Equal(t, int64(0), b.SupplierOOHBaseCents)
	assert.Equal(t, int64(0), b.SupplierOOHPremiumCents)
	assert.Equal(t, int64(18400), b.CustomerBaseCents)
	assert.Equal(t, int64(2400), b.PlatformFeeCents)

	assert.Equal(t, int64(16000), b.SupplierTotalCents)
	assert.Equal(t, int64(18400), b.CustomerTotalCents)
	assert.Equal(t, int64(2400), b.PlatformTotalCents)
	assert.True(t, b.Balanced())
	assert.Equal(t, "GBP", b.Currency)
}

func TestEngine_Quote_OutOfHoursWithRemoteFee(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// $64.93/hr for 300 minutes, fully out of hours, with a split
	// remote-site fee
	fee := &domain.RemoteSiteFee{
		SupplierCents: 637,
		PlatformCents: 159,
		CustomerCents: 796,
	}

	b := engine.Quote(6493, 300, true, fee, "GBP")

	assert.Equal(t, int64(0), b.SupplierBaseCents)
	assert.Equal(t, int64(32465), b.SupplierOOHBaseCents)
	assert.Equal(t, int64(8116), b.SupplierOOHPremiumCents)
	assert.Equal(t, int64(637), b.SupplierRemoteFeeCents)
	assert.Equal(t, int64(41218), b.SupplierTotalCents)

	assert.Equal(t, int64(37335), b.CustomerBaseCents)
	assert.Equal(t, int64(16233), b.CustomerOOHSurchargeCents)
	assert.Equal(t, int64(796), b.CustomerRemoteFeeCents)
	assert.Equal(t, int64(54364), b.CustomerTotalCents)

	assert.Equal(t, int64(13146), b.PlatformTotalCents)
	assert.True(t, b.Balanced())
}

func TestEngine_Quote_RoundsHalfUpPerStep(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 90 minutes at $99.99/hr: 14998.5 rounds up, and the platform fee
	// is the difference of rounded values
	b := engine.Quote(9999, 90, false, nil, "GBP")

	assert.Equal(t, int64(14999), b.SupplierBaseCents)
	assert.Equal(t, int64(17249), b.CustomerBaseCents)
	assert.Equal(t, int64(2250), b.PlatformFeeCents)
	assert.True(t, b.Balanced())
}

func TestEngine_Quote_BalanceInvariantSweep(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	rates := []int64{1, 99, 1234, 6493, 9999, 150000}
	durations := []int{1, 15, 59, 60, 61, 90, 300, 480}
	fees := []*domain.RemoteSiteFee{
		nil,
		{SupplierCents: 637, PlatformCents: 159, CustomerCents: 796},
		{SupplierCents: 12000, PlatformCents: 3000, CustomerCents: 15000},
	}

	for _, rate := range rates {
		for _, duration := range durations {
			for _, ooh := range []bool{false, true} {
				for _, fee := range fees {
					b := engine.Quote(rate, duration, ooh, fee, "GBP")
					require.True(t, b.Balanced(),
						"rate=%d duration=%d ooh=%v fee=%+v: customer=%d supplier=%d platform=%d",
						rate, duration, ooh, fee,
						b.CustomerTotalCents, b.SupplierTotalCents, b.PlatformTotalCents)
				}
			}
		}
	}
}

func TestEngine_Quote_ZeroDuration(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	b := engine.Quote(6493, 0, false, nil, "GBP")

	assert.Equal(t, int64(0), b.SupplierTotalCents)
	assert.Equal(t, int64(0), b.CustomerTotalCents)
	assert.Equal(t, int64(0), b.PlatformTotalCents)
	assert.True(t, b.Balanced())
}
