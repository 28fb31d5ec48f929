package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

const (
	QueueNotify      = "notify"
	QueueMaintenance = "maintenance"
)

// Options configures the River client.
type Options struct {
	MaxWorkers        int
	ReconcileInterval time.Duration
	Notifications     NotificationStore
	Ledger            Reconciler
	Gauge             DriftGauge
	Logger            *slog.Logger
}

// Migrate applies River's own schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return err
	}
	_, err = migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	return err
}

// NewClient registers the outbox workers and the periodic reconciliation.
func NewClient(pool *pgxpool.Pool, opts Options) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewNotifyWorker(opts.Notifications, opts.Logger))
	river.AddWorker(workers, NewReconcileWorker(opts.Ledger, opts.Gauge, opts.Logger))

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
			QueueNotify:        {MaxWorkers: maxWorkers},
			QueueMaintenance:   {MaxWorkers: 1},
		},
		Workers:      workers,
		PeriodicJobs: []*river.PeriodicJob{ReconcileJob(opts.ReconcileInterval)},
		Logger:       opts.Logger,
	})
}

// Inserter hands out an InsertNotifyTxFunc before the River client exists. The
// client is attached once it is built, which breaks the services/client init cycle.
type Inserter struct {
	mu     sync.Mutex
	client *river.Client[pgx.Tx]
}

func (i *Inserter) Attach(c *river.Client[pgx.Tx]) {
	i.mu.Lock()
	i.client = c
	i.mu.Unlock()
}

func (i *Inserter) InsertNotifyTx(ctx context.Context, tx pgx.Tx, args NotifyArgs) error {
	i.mu.Lock()
	c := i.client
	i.mu.Unlock()
	if c == nil {
		panic("river insert not wired")
	}
	_, err := c.InsertTx(ctx, tx, args, nil)
	return err
}
