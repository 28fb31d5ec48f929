package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/ledger"
	"github.com/workhive/backend/internal/models"
	"github.com/workhive/backend/internal/outbox"
)

// ---------------------------------------------------------------------------
// memDB is an in-memory stand-in for Postgres. Transactions are serialized by
// txMu and every write inside one registers an undo step, so a rolled-back
// transaction leaves no trace, the same as the real store.
// ---------------------------------------------------------------------------

type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users         map[string]*models.User
	tasks         map[uuid.UUID]*models.Task
	submissions   map[uuid.UUID]*models.Submission
	withdrawals   map[uuid.UUID]*models.Withdrawal
	payments      map[string]*models.Payment
	entries       []*models.CoinEntry
	notifications []outbox.NotifyArgs

	failNotify error
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[string]*models.User{},
		tasks:       map[uuid.UUID]*models.Task{},
		submissions: map[uuid.UUID]*models.Submission{},
		withdrawals: map[uuid.UUID]*models.Withdrawal{},
		payments:    map[string]*models.Payment{},
	}
}

func (db *memDB) Begin(context.Context) (pgx.Tx, error) {
	db.txMu.Lock()
	return &memTx{db: db}, nil
}

// memTx satisfies pgx.Tx; only Commit/Rollback have behavior.
type memTx struct {
	db   *memDB
	undo []func()
	done bool
}

func (t *memTx) onRollback(fn func()) { t.undo = append(t.undo, fn) }

func (t *memTx) Begin(context.Context) (pgx.Tx, error) { return nil, errors.New("nested tx") }
func (t *memTx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.txMu.Unlock()
	return nil
}
func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.db.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.db.mu.Unlock()
	t.done = true
	t.db.txMu.Unlock()
	return nil
}
func (t *memTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *memTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *memTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (t *memTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *memTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }

func asMem(tx pgx.Tx) *memTx { return tx.(*memTx) }

// ---------------------------------------------------------------------------
// ledger.Store
// ---------------------------------------------------------------------------

type memLedgerStore struct{ db *memDB }

func (s memLedgerStore) AddCoins(_ context.Context, tx pgx.Tx, email string, delta int64) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[email]
	if !ok {
		return 0, apperr.NotFoundf("user %s not found", email)
	}
	if u.Coins+delta < 0 {
		return 0, apperr.ErrInsufficientFunds
	}
	u.Coins += delta
	asMem(tx).onRollback(func() { u.Coins -= delta })
	return u.Coins, nil
}

func (s memLedgerStore) AddTaskSlots(_ context.Context, tx pgx.Tx, id uuid.UUID, delta int) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[id]
	if !ok {
		return 0, apperr.NotFoundf("task %s not found", id)
	}
	if t.RequiredWorkers+delta < 0 {
		return 0, apperr.Conflictf("task %s has no open slots", id)
	}
	t.RequiredWorkers += delta
	asMem(tx).onRollback(func() { t.RequiredWorkers -= delta })
	return t.RequiredWorkers, nil
}

func (s memLedgerStore) InsertEntry(_ context.Context, tx pgx.Tx, e *models.CoinEntry) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *e
	s.db.entries = append(s.db.entries, &cp)
	n := len(s.db.entries)
	asMem(tx).onRollback(func() { s.db.entries = s.db.entries[:n-1] })
	return nil
}

func (s memLedgerStore) ListEntries(_ context.Context, email string, limit int) ([]*models.CoinEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.CoinEntry
	for i := len(s.db.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.db.entries[i].Email == email {
			out = append(out, s.db.entries[i])
		}
	}
	return out, nil
}

func (s memLedgerStore) Drifts(context.Context) ([]ledger.Drift, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sums := map[string]int64{}
	for _, e := range s.db.entries {
		sums[e.Email] += e.Amount
	}
	var out []ledger.Drift
	for email, u := range s.db.users {
		if sums[email] != u.Coins {
			out = append(out, ledger.Drift{Email: email, Balance: u.Coins, LedgerSum: sums[email]})
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// UserStore
// ---------------------------------------------------------------------------

type memUsers struct{ db *memDB }

func (m memUsers) CreateTx(_ context.Context, tx pgx.Tx, u *models.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.users[u.Email]; ok {
		return apperr.Conflictf("user already exists")
	}
	cp := *u
	cp.Coins = 0
	cp.CreatedAt, cp.LastLogIn = time.Now(), time.Now()
	m.db.users[u.Email] = &cp
	asMem(tx).onRollback(func() { delete(m.db.users, u.Email) })
	return nil
}

func (m memUsers) TouchLastLogin(_ context.Context, email string) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[email]
	if !ok {
		return nil, apperr.NotFoundf("user not found")
	}
	u.LastLogIn = time.Now()
	cp := *u
	return &cp, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[email]
	if !ok {
		return nil, apperr.NotFoundf("user not found")
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m memUsers) List(context.Context) ([]*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []*models.User
	for _, u := range m.db.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m memUsers) UpdateRole(_ context.Context, id uuid.UUID, role string) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if u.ID == id {
			u.Role = role
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m memUsers) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.User, error) {
	return m.GetByID(ctx, id)
}

func (m memUsers) DeleteTx(_ context.Context, tx pgx.Tx, id uuid.UUID) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for email, u := range m.db.users {
		if u.ID == id {
			delete(m.db.users, email)
			asMem(tx).onRollback(func() { m.db.users[email] = u })
			return nil
		}
	}
	return apperr.NotFoundf("user not found")
}

func (m memUsers) TopWorkers(_ context.Context, limit int) ([]*models.WorkerSummary, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []*models.WorkerSummary
	for _, u := range m.db.users {
		if u.Role == models.RoleWorker {
			out = append(out, &models.WorkerSummary{Name: u.Name, Email: u.Email, Coins: u.Coins})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coins > out[j].Coins })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memUsers) Stats(context.Context) (*models.AdminStats, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var s models.AdminStats
	for _, u := range m.db.users {
		switch u.Role {
		case models.RoleWorker:
			s.TotalWorkers++
		case models.RoleBuyer:
			s.TotalBuyers++
		}
		s.TotalCoins += u.Coins
	}
	for _, p := range m.db.payments {
		if p.Type == models.PaymentCoinPurchase {
			s.TotalPaymentsCents += p.AmountPaidCents
		}
	}
	for _, w := range m.db.withdrawals {
		if w.Status == models.WithdrawalPending {
			s.PendingWithdrawals++
		}
	}
	return &s, nil
}

// ---------------------------------------------------------------------------
// TaskStore
// ---------------------------------------------------------------------------

type memTasks struct{ db *memDB }

func (m memTasks) CreateTx(_ context.Context, tx pgx.Tx, t *models.Task) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	cp := *t
	m.db.tasks[t.ID] = &cp
	asMem(tx).onRollback(func() { delete(m.db.tasks, t.ID) })
	return nil
}

func (m memTasks) get(id uuid.UUID) (*models.Task, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tasks[id]
	if !ok {
		return nil, apperr.NotFoundf("task not found")
	}
	cp := *t
	return &cp, nil
}

func (m memTasks) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) { return m.get(id) }

func (m memTasks) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return m.get(id)
}

func (m memTasks) ApplyPatch(_ context.Context, id uuid.UUID, p models.TaskPatch) (*models.Task, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tasks[id]
	if !ok {
		return nil, apperr.NotFoundf("task not found")
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Detail != nil {
		t.Detail = *p.Detail
	}
	if p.SubmissionInfo != nil {
		t.SubmissionInfo = *p.SubmissionInfo
	}
	if p.ImageURL != nil {
		t.ImageURL = *p.ImageURL
	}
	if p.CompletionDate != nil {
		t.CompletionDate = *p.CompletionDate
	}
	cp := *t
	return &cp, nil
}

func (m memTasks) DeleteTx(_ context.Context, tx pgx.Tx, id uuid.UUID) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tasks[id]
	if !ok {
		return apperr.NotFoundf("task not found")
	}
	delete(m.db.tasks, id)
	asMem(tx).onRollback(func() { m.db.tasks[id] = t })
	return nil
}

func (m memTasks) filter(keep func(*models.Task) bool) []*models.Task {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []*models.Task
	for _, t := range m.db.tasks {
		if keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

func (m memTasks) List(context.Context) ([]*models.Task, error) {
	return m.filter(func(*models.Task) bool { return true }), nil
}

func (m memTasks) ListByBuyer(_ context.Context, email string) ([]*models.Task, error) {
	return m.filter(func(t *models.Task) bool { return t.BuyerEmail == email }), nil
}

func (m memTasks) ListAvailable(_ context.Context, worker string) ([]*models.Task, error) {
	m.db.mu.Lock()
	live := map[uuid.UUID]bool{}
	for _, s := range m.db.submissions {
		if s.WorkerEmail == worker && s.Status != models.SubmissionRejected {
			live[s.TaskID] = true
		}
	}
	m.db.mu.Unlock()
	out := m.filter(func(t *models.Task) bool { return t.RequiredWorkers > 0 && !live[t.ID] })
	sort.Slice(out, func(i, j int) bool { return out[i].CompletionDate.Before(out[j].CompletionDate) })
	return out, nil
}

// ---------------------------------------------------------------------------
// SubmissionStore
// ---------------------------------------------------------------------------

type memSubmissions struct{ db *memDB }

func (m memSubmissions) CreateTx(_ context.Context, tx pgx.Tx, s *models.Submission) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.submissions {
		if o.TaskID == s.TaskID && o.WorkerEmail == s.WorkerEmail && o.Status != models.SubmissionRejected {
			return apperr.Conflictf("submission already exists")
		}
	}
	s.CreatedAt = time.Now()
	cp := *s
	m.db.submissions[s.ID] = &cp
	asMem(tx).onRollback(func() { delete(m.db.submissions, s.ID) })
	return nil
}

func (m memSubmissions) GetByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.submissions[id]
	if !ok {
		return nil, apperr.NotFoundf("submission not found")
	}
	cp := *s
	return &cp, nil
}

func (m memSubmissions) HasLiveTx(_ context.Context, _ pgx.Tx, taskID uuid.UUID, worker string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, s := range m.db.submissions {
		if s.TaskID == taskID && s.WorkerEmail == worker && s.Status != models.SubmissionRejected {
			return true, nil
		}
	}
	return false, nil
}

func (m memSubmissions) TransitionTx(_ context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (*models.Submission, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.submissions[id]
	if !ok || s.Status != from {
		return nil, apperr.NotFoundf("submission not found")
	}
	s.Status = to
	now := time.Now()
	s.ReviewedAt = &now
	asMem(tx).onRollback(func() { s.Status = from; s.ReviewedAt = nil })
	cp := *s
	return &cp, nil
}

func (m memSubmissions) RejectPendingForTaskTx(_ context.Context, tx pgx.Tx, taskID uuid.UUID) ([]*models.Submission, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []*models.Submission
	for _, s := range m.db.submissions {
		if s.TaskID == taskID && s.Status == models.SubmissionPending {
			s.Status = models.SubmissionRejected
			sub := s
			asMem(tx).onRollback(func() { sub.Status = models.SubmissionPending })
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memSubmissions) ListByWorker(_ context.Context, email string, limit, offset int) ([]*models.Submission, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var all []*models.Submission
	for _, s := range m.db.submissions {
		if s.WorkerEmail == email {
			cp := *s
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m memSubmissions) ListPendingByBuyer(_ context.Context, buyer string) ([]*models.Submission, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []*models.Submission
	for _, s := range m.db.submissions {
		if s.BuyerEmail == buyer && s.Status == models.SubmissionPending {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// WithdrawalStore
// ---------------------------------------------------------------------------

type memWithdrawals struct{ db *memDB }

func (m memWithdrawals) CreateTx(_ context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	w.CreatedAt = time.Now()
	cp := *w
	m.db.withdrawals[w.ID] = &cp
	asMem(tx).onRollback(func() { delete(m.db.withdrawals, w.ID) })
	return nil
}

func (m memWithdrawals) GetByID(_ context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	w, ok := m.db.withdrawals[id]
	if !ok {
		return nil, apperr.NotFoundf("withdrawal not found")
	}
	cp := *w
	return &cp, nil
}

func (m memWithdrawals) ApproveTx(_ context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	w, ok := m.db.withdrawals[id]
	if !ok || w.Status != models.WithdrawalPending {
		return nil, apperr.NotFoundf("withdrawal not found")
	}
	w.Status = models.WithdrawalApproved
	asMem(tx).onRollback(func() { w.Status = models.WithdrawalPending })
	cp := *w
	return &cp, nil
}

func (m memWithdrawals) list(keep func(*models.Withdrawal) bool) []*models.Withdrawal {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []*models.Withdrawal
	for _, w := range m.db.withdrawals {
		if keep(w) {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out
}

func (m memWithdrawals) ListPending(context.Context) ([]*models.Withdrawal, error) {
	return m.list(func(w *models.Withdrawal) bool { return w.Status == models.WithdrawalPending }), nil
}

func (m memWithdrawals) ListByWorker(_ context.Context, email string) ([]*models.Withdrawal, error) {
	return m.list(func(w *models.Withdrawal) bool { return w.WorkerEmail == email }), nil
}

// ---------------------------------------------------------------------------
// PaymentStore
// ---------------------------------------------------------------------------

type memPayments struct{ db *memDB }

func (m memPayments) CreateTx(_ context.Context, tx pgx.Tx, p *models.Payment) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.payments[p.TransactionID]; ok {
		return apperr.Conflictf("payment already exists")
	}
	p.CreatedAt = time.Now()
	cp := *p
	m.db.payments[p.TransactionID] = &cp
	asMem(tx).onRollback(func() { delete(m.db.payments, p.TransactionID) })
	return nil
}

func (m memPayments) ListByEmail(_ context.Context, email string) ([]*models.Payment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []*models.Payment
	for _, p := range m.db.payments {
		if p.Email == email {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (db *memDB) paymentsOfType(typ string) []*models.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*models.Payment
	for _, p := range db.payments {
		if p.Type == typ {
			out = append(out, p)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Outbox
// ---------------------------------------------------------------------------

func (db *memDB) insertNotify(_ context.Context, tx pgx.Tx, args outbox.NotifyArgs) error {
	if db.failNotify != nil {
		return db.failNotify
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.notifications = append(db.notifications, args)
	n := len(db.notifications)
	asMem(tx).onRollback(func() { db.notifications = db.notifications[:n-1] })
	return nil
}

func (db *memDB) notificationsFor(email string) []outbox.NotifyArgs {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []outbox.NotifyArgs
	for _, n := range db.notifications {
		if n.ToEmail == email {
			out = append(out, n)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func (db *memDB) balance(email string) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.users[email].Coins
}

func (db *memDB) slots(id uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.tasks[id].RequiredWorkers
}

func (db *memDB) entriesOfType(typ string) []*models.CoinEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*models.CoinEntry
	for _, e := range db.entries {
		if e.EntryType == typ {
			out = append(out, e)
		}
	}
	return out
}

type counter struct {
	mu     sync.Mutex
	events map[string]int
}

func (c *counter) Event(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events == nil {
		c.events = map[string]int{}
	}
	c.events[name]++
}

func (c *counter) CoinsMoved(string, int64) {}

func (c *counter) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[name]
}

type fakeGateway struct {
	verifyErr error
	verified  []string
}

func (g *fakeGateway) CreateIntent(_ context.Context, _ int64, _ string) (string, error) {
	return "pi_secret_" + uuid.NewString()[:8], nil
}

func (g *fakeGateway) VerifyIntent(_ context.Context, id string, _ int64, _ string) error {
	g.verified = append(g.verified, id)
	return g.verifyErr
}

// world wires every service over one memDB.
type world struct {
	db          *memDB
	ledger      *ledger.Service
	metrics     *counter
	gateway     *fakeGateway
	users       *UserService
	tasks       *TaskService
	submissions *SubmissionService
	withdrawals *WithdrawalService
	payments    *PaymentService
}

var futureDate = time.Now().Add(30 * 24 * time.Hour)

func newWorld() *world {
	db := newMemDB()
	w := &world{db: db, ledger: ledger.NewService(memLedgerStore{db}), metrics: &counter{}, gateway: &fakeGateway{}}
	deps := Deps{DB: db, Ledger: w.ledger, Notify: db.insertNotify, Metrics: w.metrics}
	w.users = NewUserService(deps, memUsers{db}, func(e string) bool { return e == "admin@workhive.io" })
	w.tasks = NewTaskService(deps, memTasks{db}, memSubmissions{db}, memPayments{db})
	w.submissions = NewSubmissionService(deps, memTasks{db}, memSubmissions{db})
	w.withdrawals = NewWithdrawalService(deps, WithdrawalPolicy{CoinsPerDollar: 20, MinCoins: 200}, memWithdrawals{db}, memUsers{db}, memPayments{db})
	w.payments = NewPaymentService(deps, memPayments{db}, w.gateway)
	return w
}

// register creates a user through the real registration path.
func (w *world) register(t *testing.T, email, role string) *models.User {
	t.Helper()
	u, _, err := w.users.Register(context.Background(), email, RegisterInput{Email: email, Name: email, Role: role})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

// topUp buys coins through the payment workflow.
func (w *world) topUp(t *testing.T, u *models.User, cents int64) {
	t.Helper()
	_, err := w.payments.Record(context.Background(), u, RecordPaymentInput{
		Email: u.Email, AmountPaidCents: cents, TransactionID: "pi_" + uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("top up %s: %v", u.Email, err)
	}
}

func (w *world) admin(t *testing.T) *models.User { return w.register(t, "admin@workhive.io", "") }

func (w *world) postTask(t *testing.T, buyer *models.User, workers int, pay int64) *models.Task {
	t.Helper()
	task, err := w.tasks.Create(context.Background(), buyer, CreateTaskInput{
		Title: "Label images", Detail: "Label ten images", RequiredWorkers: workers,
		PayableAmount: pay, CompletionDate: futureDate,
	})
	if err != nil {
		t.Fatalf("post task: %v", err)
	}
	return task
}

func (w *world) assertNoDrift(t *testing.T) {
	t.Helper()
	drifts, err := w.ledger.Reconcile(context.Background())
	if err != nil {
		t.Errorf("reconcile: %v", err)
		return
	}
	for _, d := range drifts {
		t.Errorf("ledger drift for %s: balance %d, ledger sum %d", d.Email, d.Balance, d.LedgerSum)
	}
}
