package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callouthq/dispatch/internal/api/domain"
	"github.com/callouthq/dispatch/internal/geo"
	"github.com/callouthq/dispatch/internal/pricing"
	"github.com/callouthq/dispatch/internal/schedule"
	"github.com/callouthq/dispatch/internal/token"
)

// fakeRepo is an in-memory Repository with the same conditional-write
// semantics as the real storage layer.
type fakeRepo struct {
	mu       sync.Mutex
	nextID   int64
	jobs     map[int64]*domain.Job
	timeline []domain.TimelineEntry
	samples  []domain.LocationSample
	rates    []domain.SupplierRate

	// staleRead, when set, is returned by the next JobByToken call and
	// then cleared. It simulates a reader that raced a writer.
	staleRead *domain.Job
}

func newFakeRepo(rates ...domain.SupplierRate) *fakeRepo {
	return &fakeRepo{
		jobs:  make(map[int64]*domain.Job),
		rates: rates,
	}
}

func copyJob(job *domain.Job) *domain.Job {
	c := *job
	return &c
}

func (r *fakeRepo) CreateJob(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	job.ID = r.nextID
	r.jobs[job.ID] = copyJob(job)
	return nil
}

func (r *fakeRepo) JobByToken(ctx context.Context, jobToken string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.staleRead != nil {
		stale := r.staleRead
		r.staleRead = nil
		return copyJob(stale), nil
	}

	for _, job := range r.jobs {
		if job.JobToken == jobToken {
			return copyJob(job), nil
		}
	}
	return nil, domain.ErrJobNotFound
}

func (r *fakeRepo) JobByEngineerToken(ctx context.Context, engineerToken string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range r.jobs {
		if job.EngineerToken == engineerToken {
			return copyJob(job), nil
		}
	}
	return nil, domain.ErrJobNotFound
}

func (r *fakeRepo) JobByShortCode(ctx context.Context, shortCode string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range r.jobs {
		if job.ShortCode == shortCode {
			return copyJob(job), nil
		}
	}
	return nil, domain.ErrJobNotFound
}

func (r *fakeRepo) ApplyTransition(ctx context.Context, jobID int64, from domain.Status, update JobUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || job.Status != from {
		return false, nil
	}

	job.Status = update.To
	if update.SupplierID != "" {
		job.SupplierID = nullString(update.SupplierID)
	}
	if update.EngineerName != "" {
		job.EngineerName = nullString(update.EngineerName)
		job.EngineerEmail = nullString(update.EngineerEmail)
		job.EngineerPhone = nullString(update.EngineerPhone)
	}
	if update.ClearEngineer {
		job.EngineerName = nullString("")
		job.EngineerEmail = nullString("")
		job.EngineerPhone = nullString("")
	}
	if update.CancellationReason != "" {
		job.CancellationReason = nullString(update.CancellationReason)
		job.CancelledBy = nullString(update.CancelledBy)
	}
	return true, nil
}

func (r *fakeRepo) AppendTimeline(ctx context.Context, entry domain.TimelineEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = int64(len(r.timeline) + 1)
	r.timeline = append(r.timeline, entry)
	return nil
}

func (r *fakeRepo) AppendLocation(ctx context.Context, sample domain.LocationSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = append(r.samples, sample)
	return nil
}

func (r *fakeRepo) Timeline(ctx context.Context, jobID int64) ([]domain.TimelineEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []domain.TimelineEntry
	for _, entry := range r.timeline {
		if entry.JobID == jobID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r *fakeRepo) SupplierRates(ctx context.Context, serviceType, city, country string) ([]domain.SupplierRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rates []domain.SupplierRate
	for _, rate := range r.rates {
		if rate.ServiceType == serviceType && rate.City == city && rate.Country == country {
			rates = append(rates, rate)
		}
	}
	return rates, nil
}

// fakePublisher records emitted events.
type fakePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *fakePublisher) PublishJobEvent(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fakeGeocoder returns fixed coordinates or a lookup failure.
type fakeGeocoder struct {
	coords geo.Coordinates
	err    error
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address, city, country string) (geo.Coordinates, error) {
	if g.err != nil {
		return geo.Coordinates{}, g.err
	}
	return g.coords, nil
}

var testClock = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func newTestMachine(repo *fakeRepo, publisher *fakePublisher, geocoder geo.Geocoder) *Machine {
	if geocoder == nil {
		geocoder = &fakeGeocoder{coords: geo.Coordinates{Latitude: 51.5, Longitude: -0.12}}
	}

	return NewMachine(Config{
		Repo:      repo,
		Pricing:   pricing.NewEngine(pricing.DefaultConfig()),
		Distance:  pricing.NewDistanceFeeCalculator(pricing.DefaultDistanceFeeConfig()),
		Schedule:  schedule.NewValidator(schedule.DefaultConfig()),
		Tokens:    token.NewAuthority(),
		Geocoder:  geocoder,
		Publisher: publisher,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:     func() time.Time { return testClock },
	})
}

func londonRate(supplierID string, rateCents int64) domain.SupplierRate {
	return domain.SupplierRate{
		SupplierID:      supplierID,
		ServiceType:     "boiler_service",
		City:            "London",
		Country:         "GB",
		HourlyRateCents: rateCents,
		Currency:        "GBP",
		BaseLatitude:    51.5074,
		BaseLongitude:   -0.1278,
	}
}

func createRequest() CreateJobRequest {
	lat, lon := 51.52, -0.10
	return CreateJobRequest{
		CustomerID:      "cust-1",
		CustomerEmail:   "customer@example.com",
		ServiceType:     "boiler_service",
		ServiceLevel:    domain.ServiceLevelScheduled,
		Date:            "2025-03-20",
		Time:            "10:00",
		Timezone:        "Europe/London",
		DurationMinutes: 300,
		SiteAddress:     "1 Example Street",
		SiteCity:        "London",
		SiteCountry:     "GB",
		SiteLatitude:    &lat,
		SiteLongitude:   &lon,
	}
}

func TestMachine_CreateJob(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493), londonRate("sup-2", 8000))
	publisher := &fakePublisher{}
	m := newTestMachine(repo, publisher, nil)

	job, err := m.CreateJob(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPendingSupplierAcceptance, job.Status)
	assert.NotEmpty(t, job.JobToken)
	assert.NotEmpty(t, job.EngineerToken)
	assert.Len(t, job.ShortCode, 8)
	assert.False(t, job.IsOutOfHours)

	// Cheapest covering supplier rate, in-hours, site inside the free
	// radius: labour only at 6493 cents for 5 hours.
	assert.Equal(t, "GBP", job.Currency)
	assert.Equal(t, int64(32465), job.SupplierPayoutCents)
	assert.Equal(t, int64(37335), job.CalculatedPriceCents)
	assert.Equal(t, job.CalculatedPriceCents-job.SupplierPayoutCents, job.PlatformRevenueCents)

	assert.Equal(t, []string{"job.created"}, publisher.types())

	entries, err := repo.Timeline(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionCreate, entries[0].Action)
}

func TestMachine_CreateJob_ScheduleRuleViolation(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)

	req := createRequest()
	req.Date = "2025-03-11" // less than 48h notice

	_, err := m.CreateJob(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrScheduleRuleViolation)
	assert.Empty(t, repo.jobs)
}

func TestMachine_CreateJob_NoCoverage(t *testing.T) {
	repo := newFakeRepo()
	m := newTestMachine(repo, &fakePublisher{}, nil)

	_, err := m.CreateJob(context.Background(), createRequest())
	assert.ErrorIs(t, err, domain.ErrPricingUnavailable)
}

func TestMachine_CreateJob_GeocodeFailureFallsBackToZeroFee(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, &fakeGeocoder{err: domain.ErrExternalLookupFailed})

	req := createRequest()
	req.SiteLatitude = nil
	req.SiteLongitude = nil

	job, err := m.CreateJob(context.Background(), req)
	require.NoError(t, err)

	// The booking still succeeds, priced as labour only.
	assert.Equal(t, int64(37335), job.CalculatedPriceCents)
	assert.Equal(t, float64(0), job.SiteLatitude)
	assert.Equal(t, float64(0), job.SiteLongitude)
}

func TestMachine_CreateJob_RemoteSiteFee(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)

	// Birmingham site, about 160 km from the London base.
	lat, lon := 52.4862, -1.8904
	req := createRequest()
	req.SiteLatitude = &lat
	req.SiteLongitude = &lon

	job, err := m.CreateJob(context.Background(), req)
	require.NoError(t, err)

	assert.Greater(t, job.CalculatedPriceCents, int64(37335))
	assert.Greater(t, job.SupplierPayoutCents, int64(32465))
	assert.Equal(t, job.CalculatedPriceCents-job.SupplierPayoutCents, job.PlatformRevenueCents)
}

func TestMachine_FullLifecycle(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	publisher := &fakePublisher{}
	m := newTestMachine(repo, publisher, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)

	engineerToken := job.EngineerToken
	lockedPrice := job.CalculatedPriceCents

	job, err = m.SupplierAccept(ctx, job.JobToken, "sup-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSupplierAccepted, job.Status)
	assert.Equal(t, "sup-1", job.SupplierID.String)

	job, err = m.AssignEngineer(ctx, job.JobToken, "sup-1", "Dana Fox", "dana@example.com", "+447700900123")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSentToEngineer, job.Status)

	job, err = m.EngineerAccept(ctx, engineerToken)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEngineerAccepted, job.Status)

	job, err = m.EngineerEnRoute(ctx, engineerToken, &domain.LocationSample{Latitude: 51.51, Longitude: -0.11})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnRoute, job.Status)

	job, err = m.EngineerOnSite(ctx, engineerToken, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnSite, job.Status)

	job, err = m.Complete(ctx, engineerToken, domain.SiteReport{
		Signature:   "Dana Fox",
		WorkSummary: "Annual service completed",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.True(t, job.CompletedAt.Valid)

	// Commercial facts never move after creation.
	stored, err := repo.JobByToken(ctx, job.JobToken)
	require.NoError(t, err)
	assert.Equal(t, lockedPrice, stored.CalculatedPriceCents)
	assert.Equal(t, engineerToken, stored.EngineerToken)

	assert.Equal(t, []string{
		"job.created",
		"job.supplier_accepted",
		"job.sent_to_engineer",
		"job.engineer_accepted",
		"job.en_route",
		"job.on_site",
		"job.completed",
	}, publisher.types())

	// One location sample recorded from the en-route transition.
	require.Len(t, repo.samples, 1)
	assert.Equal(t, job.ID, repo.samples[0].JobID)
	assert.Equal(t, testClock, repo.samples[0].RecordedAt)
}

func TestMachine_SupplierAccept_Race(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)

	pending, err := repo.JobByToken(ctx, job.JobToken)
	require.NoError(t, err)

	_, err = m.SupplierAccept(ctx, job.JobToken, "sup-1")
	require.NoError(t, err)

	// The second supplier read the job before the first one's write
	// landed; its conditional update must lose.
	repo.staleRead = pending
	_, err = m.SupplierAccept(ctx, job.JobToken, "sup-2")
	assert.ErrorIs(t, err, domain.ErrAlreadyAccepted)

	stored, err := repo.JobByToken(ctx, job.JobToken)
	require.NoError(t, err)
	assert.Equal(t, "sup-1", stored.SupplierID.String)
	assert.Equal(t, domain.StatusSupplierAccepted, stored.Status)
}

func TestMachine_SupplierAccept_RoutedMismatch(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)

	_, err = m.SupplierAccept(ctx, job.JobToken, "sup-1")
	require.NoError(t, err)

	_, err = m.SupplierAccept(ctx, job.JobToken, "sup-2")
	assert.ErrorIs(t, err, domain.ErrSupplierMismatch)
}

func TestMachine_AssignEngineer_Validation(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)

	_, err = m.SupplierAccept(ctx, job.JobToken, "sup-1")
	require.NoError(t, err)

	t.Run("name and email required", func(t *testing.T) {
		_, err := m.AssignEngineer(ctx, job.JobToken, "sup-1", "", "", "")
		assert.Error(t, err)
	})

	t.Run("only the accepting supplier may assign", func(t *testing.T) {
		_, err := m.AssignEngineer(ctx, job.JobToken, "sup-2", "Dana Fox", "dana@example.com", "")
		assert.ErrorIs(t, err, domain.ErrSupplierMismatch)
	})
}

func TestMachine_EngineerDecline_ReturnsJobToSupplier(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)
	engineerToken := job.EngineerToken

	_, err = m.SupplierAccept(ctx, job.JobToken, "sup-1")
	require.NoError(t, err)
	_, err = m.AssignEngineer(ctx, job.JobToken, "sup-1", "Dana Fox", "dana@example.com", "")
	require.NoError(t, err)

	job, err = m.EngineerDecline(ctx, engineerToken, "double booked")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSupplierAccepted, job.Status)
	assert.False(t, job.EngineerName.Valid)

	// Re-assignment reuses the same engineer credential.
	job, err = m.AssignEngineer(ctx, job.JobToken, "sup-1", "Sam Reed", "sam@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSentToEngineer, job.Status)

	stored, err := repo.JobByEngineerToken(ctx, engineerToken)
	require.NoError(t, err)
	assert.Equal(t, "Sam Reed", stored.EngineerName.String)
}

func TestMachine_InvalidTransitions(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)

	t.Run("complete before on site", func(t *testing.T) {
		_, err := m.Complete(ctx, job.EngineerToken, domain.SiteReport{
			Signature:   "x",
			WorkSummary: "y",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("engineer accept before assignment", func(t *testing.T) {
		_, err := m.EngineerAccept(ctx, job.EngineerToken)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestMachine_Complete_RequiresReport(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)

	_, err = m.Complete(ctx, job.EngineerToken, domain.SiteReport{Signature: "x"})
	assert.ErrorIs(t, err, domain.ErrReportIncomplete)

	_, err = m.Complete(ctx, job.EngineerToken, domain.SiteReport{WorkSummary: "y"})
	assert.ErrorIs(t, err, domain.ErrReportIncomplete)
}

func TestMachine_Cancel(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	t.Run("reason required", func(t *testing.T) {
		job, err := m.CreateJob(ctx, createRequest())
		require.NoError(t, err)

		_, err = m.Cancel(ctx, job.JobToken, "customer:cust-1", "")
		assert.Error(t, err)
	})

	t.Run("cancel pending job", func(t *testing.T) {
		job, err := m.CreateJob(ctx, createRequest())
		require.NoError(t, err)

		job, err = m.Cancel(ctx, job.JobToken, "customer:cust-1", "no longer needed")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, job.Status)
		assert.Equal(t, "no longer needed", job.CancellationReason.String)
		assert.True(t, job.CancelledAt.Valid)
	})

	t.Run("cancel retries a lost write against the fresh status", func(t *testing.T) {
		job, err := m.CreateJob(ctx, createRequest())
		require.NoError(t, err)

		_, err = m.SupplierAccept(ctx, job.JobToken, "sup-1")
		require.NoError(t, err)

		// First read races an already-landed acceptance; the retry
		// re-reads and succeeds from supplier_accepted.
		pending, err := repo.JobByToken(ctx, job.JobToken)
		require.NoError(t, err)
		pending.Status = domain.StatusPendingSupplierAcceptance
		repo.staleRead = pending

		job, err = m.Cancel(ctx, job.JobToken, "customer:cust-1", "changed plans")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, job.Status)
	})

	t.Run("cancel completed job is rejected", func(t *testing.T) {
		job, err := m.CreateJob(ctx, createRequest())
		require.NoError(t, err)

		_, err = m.SupplierAccept(ctx, job.JobToken, "sup-1")
		require.NoError(t, err)
		_, err = m.AssignEngineer(ctx, job.JobToken, "sup-1", "Dana Fox", "dana@example.com", "")
		require.NoError(t, err)
		_, err = m.EngineerAccept(ctx, job.EngineerToken)
		require.NoError(t, err)
		_, err = m.EngineerEnRoute(ctx, job.EngineerToken, nil)
		require.NoError(t, err)
		_, err = m.EngineerOnSite(ctx, job.EngineerToken, nil)
		require.NoError(t, err)
		_, err = m.Complete(ctx, job.EngineerToken, domain.SiteReport{Signature: "d", WorkSummary: "done"})
		require.NoError(t, err)

		_, err = m.Cancel(ctx, job.JobToken, "customer:cust-1", "too late")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestMachine_TokenLookups(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)

	t.Run("engineer token resolves", func(t *testing.T) {
		got, err := m.JobByEngineerToken(ctx, job.EngineerToken)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
	})

	t.Run("short code resolves", func(t *testing.T) {
		got, err := m.JobByShortCode(ctx, job.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
	})

	t.Run("unknown credentials stay generic", func(t *testing.T) {
		_, err := m.JobByEngineerToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)

		_, err = m.JobByShortCode(ctx, "no-such-code")
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}

func TestMachine_Quote(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493), londonRate("sup-2", 8000))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	t.Run("range across covering suppliers", func(t *testing.T) {
		resp, err := m.Quote(ctx, QuoteRequest{
			ServiceType:     "boiler_service",
			ServiceLevel:    domain.ServiceLevelScheduled,
			DurationMinutes: 300,
			City:            "London",
			Country:         "GB",
			Date:            "2025-03-20",
			Time:            "10:00",
			Timezone:        "Europe/London",
		})
		require.NoError(t, err)

		assert.True(t, resp.Available)
		assert.Equal(t, 2, resp.SupplierCount)
		assert.Equal(t, int64(37335), *resp.MinPriceCents)
		assert.Equal(t, int64(46000), *resp.MaxPriceCents)
		assert.Equal(t, *resp.MinPriceCents, *resp.EstimatedPriceCents)
		assert.False(t, resp.OutOfHours)
	})

	t.Run("no coverage", func(t *testing.T) {
		resp, err := m.Quote(ctx, QuoteRequest{
			ServiceType:     "boiler_service",
			ServiceLevel:    domain.ServiceLevelScheduled,
			DurationMinutes: 300,
			City:            "Leeds",
			Country:         "GB",
			Date:            "2025-03-20",
			Time:            "10:00",
			Timezone:        "Europe/London",
		})
		require.NoError(t, err)

		assert.False(t, resp.Available)
		assert.Zero(t, resp.SupplierCount)
	})
}

func TestMachine_Timeline(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	m := newTestMachine(repo, &fakePublisher{}, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)

	_, err = m.SupplierAccept(ctx, job.JobToken, "sup-1")
	require.NoError(t, err)
	_, err = m.Cancel(ctx, job.JobToken, "customer:cust-1", "changed plans")
	require.NoError(t, err)

	views, err := m.Timeline(ctx, job.JobToken)
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, ActionCreate, views[0].Action)
	assert.Equal(t, domain.ActionSupplierAccept, views[1].Action)
	assert.Equal(t, domain.ActionCancel, views[2].Action)
	assert.Equal(t, domain.StatusCancelled, views[2].To)
	assert.Equal(t, "changed plans", views[2].Note)
}

func TestMachine_FullLifecycle_SupplierActorsRecorded(t *testing.T) {
	repo := newFakeRepo(londonRate("sup-1", 6493))
	publisher := &fakePublisher{}
	m := newTestMachine(repo, publisher, nil)
	ctx := context.Background()

	job, err := m.CreateJob(ctx, createRequest())
	require.NoError(t, err)

	_, err = m.SupplierAccept(ctx, job.JobToken, "sup-1")
	require.NoError(t, err)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	require.Len(t, publisher.events, 2)
	assert.Equal(t, "customer:cust-1", publisher.events[0].Actor)
	assert.Equal(t, "supplier:sup-1", publisher.events[1].Actor)
	assert.Equal(t, job.ID, publisher.events[1].JobID)
	assert.Equal(t, job.JobToken, publisher.events[1].JobToken)
}
