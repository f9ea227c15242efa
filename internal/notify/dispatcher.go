package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"easylist/internal/metrics"
	"easylist/internal/model"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
)

type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Attempts  uint
	Delay     time.Duration
}

// Dispatcher queues notices and delivers them from background workers,
// retrying each delivery. NotifyCompletion never blocks: when the queue is
// full the notice is dropped and logged.
type Dispatcher struct {
	sender Sender
	logger *slog.Logger
	cfg    DispatcherConfig

	mu     sync.RWMutex
	closed bool
	queue  chan Completion
	wg     sync.WaitGroup
}

var _ Notifier = (*Dispatcher)(nil)

func NewDispatcher(sender Sender, logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 1
	}
	return &Dispatcher{
		sender: sender,
		logger: logger,
		cfg:    cfg,
		queue:  make(chan Completion, cfg.QueueSize),
	}
}

// Start launches the workers. ctx bounds every delivery attempt.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for n := range d.queue {
				d.deliver(ctx, n)
			}
		}()
	}
}

// Close stops accepting notices and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) NotifyCompletion(ctx context.Context, n Completion) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ctx, n, "dispatcher closed")
		return
	}
	select {
	case d.queue <- n:
	default:
		d.drop(ctx, n, "queue full")
	}
}

func (d *Dispatcher) drop(ctx context.Context, n Completion, reason string) {
	metrics.RecordNotification(metrics.NotifyDropped)
	d.logger.WarnContext(ctx, "completion notice dropped",
		slog.String("reason", reason),
		slog.String("list", n.ListName),
		slog.String("recipient", n.AuthorUsername))
}

func (d *Dispatcher) deliver(ctx context.Context, n Completion) {
	err := retry.Do(
		func() error {
			return d.sender.Send(ctx, n)
		},
		retry.Context(ctx),
		retry.Attempts(d.cfg.Attempts),
		retry.Delay(d.cfg.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			d.logger.WarnContext(ctx, "retrying completion notice",
				slog.Uint64("attempt", uint64(attempt+1)),
				slog.String("error", err.Error()))
		}),
	)
	if err != nil {
		err = errors.Mark(err, model.ErrNotificationDelivery)
		metrics.RecordNotification(metrics.NotifyFailed)
		d.logger.ErrorContext(ctx, "completion notice not delivered",
			slog.String("list", n.ListName),
			slog.String("recipient", n.AuthorUsername),
			slog.String("error", err.Error()))
		return
	}
	metrics.RecordNotification(metrics.NotifySent)
}
