package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/callouthq/dispatch/internal/notifier/domain"
	"github.com/callouthq/dispatch/internal/notifier/storage"
	"github.com/callouthq/dispatch/shared/postgresql"
	"github.com/callouthq/dispatch/shared/rabbitmq"
)

// Config holds notifier configuration
type Config struct {
	Logger        *slog.Logger
	DBClient      *postgresql.Client
	RabbitClient  *rabbitmq.Client
	Sender        Sender
	Concurrency   int
	EventTimeout  time.Duration
	MaxAttempts   int
	PrefetchCount int
	QueueName     string
}

// Notifier consumes job lifecycle events and records the customer and
// engineer notifications each event produces
type Notifier struct {
	logger        *slog.Logger
	dbClient      *postgresql.Client
	rabbitClient  *rabbitmq.Client
	storage       *storage.Storage
	sender        Sender
	notifierID    string
	concurrency   int
	eventTimeout  time.Duration
	maxAttempts   int
	prefetchCount int
	queueName     string
	eventsChan    chan *domain.EventMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewNotifier creates a new notifier instance
func NewNotifier(cfg *Config) *Notifier {
	sender := cfg.Sender
	if sender == nil {
		sender = NewLogSender(cfg.Logger)
	}

	return &Notifier{
		logger:        cfg.Logger,
		dbClient:      cfg.DBClient,
		rabbitClient:  cfg.RabbitClient,
		storage:       storage.NewStorage(cfg.DBClient.GetDB(), cfg.Logger),
		sender:        sender,
		notifierID:    fmt.Sprintf("notifier-%s", uuid.New().String()),
		concurrency:   cfg.Concurrency,
		eventTimeout:  cfg.EventTimeout,
		maxAttempts:   cfg.MaxAttempts,
		prefetchCount: cfg.PrefetchCount,
		queueName:     cfg.QueueName,
		eventsChan:    make(chan *domain.EventMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming events. It blocks until the context is
// canceled or the delivery channel closes.
func (n *Notifier) Start(ctx context.Context) error {
	n.logger.Info("Starting notifier",
		slog.String("notifier_id", n.notifierID),
		slog.Int("concurrency", n.concurrency),
		slog.Duration("event_timeout", n.eventTimeout),
		slog.Int("max_attempts", n.maxAttempts),
	)

	deliveries, err := n.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	n.spawnWorkerPool(ctx)
	n.startEventDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the notifier
func (n *Notifier) Stop() {
	n.logger.Info("Stopping notifier...")
	close(n.stopChan)
	n.wg.Wait()
	n.logger.Info("Notifier stopped")
}
