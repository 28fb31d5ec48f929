package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/workhive/backend/internal/ledger"
)

type ReconcileArgs struct{}

func (ReconcileArgs) Kind() string { return "ledger_reconcile" }

func (ReconcileArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:      QueueMaintenance,
		UniqueOpts: river.UniqueOpts{ByPeriod: time.Minute},
	}
}

// Reconciler is the ledger check the worker runs.
type Reconciler interface {
	Reconcile(ctx context.Context) ([]ledger.Drift, error)
}

// DriftGauge receives the number of drifting balances after every run.
type DriftGauge interface {
	SetLedgerDrift(n int)
}

type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileArgs]
	ledger Reconciler
	gauge  DriftGauge
	logger *slog.Logger
}

func NewReconcileWorker(l Reconciler, gauge DriftGauge, logger *slog.Logger) *ReconcileWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileWorker{ledger: l, gauge: gauge, logger: logger}
}

func (w *ReconcileWorker) Work(ctx context.Context, _ *river.Job[ReconcileArgs]) error {
	drifts, err := w.ledger.Reconcile(ctx)
	if err != nil {
		return err
	}
	if w.gauge != nil {
		w.gauge.SetLedgerDrift(len(drifts))
	}
	for _, d := range drifts {
		w.logger.Error("coin balance drifted from ledger",
			"email", d.Email, "balance", d.Balance, "ledger_sum", d.LedgerSum)
	}
	if len(drifts) == 0 {
		w.logger.Info("ledger reconciled")
	}
	return nil
}

// ReconcileJob schedules the reconciliation every interval, starting at boot.
func ReconcileJob(interval time.Duration) *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return ReconcileArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}
