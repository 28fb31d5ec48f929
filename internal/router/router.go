// Package router maps the HTTP surface onto handlers and their middleware.
package router

import (
	"net/http"

	"github.com/workhive/backend/internal/handlers"
	"github.com/workhive/backend/internal/middleware"
)

type Handlers struct {
	Users         *handlers.UserHandler
	Tasks         *handlers.TaskHandler
	Submissions   *handlers.SubmissionHandler
	Withdrawals   *handlers.WithdrawalHandler
	Payments      *handlers.PaymentHandler
	Notifications *handlers.NotificationHandler
	Ops           *handlers.OpsHandler
	Metrics       http.Handler
}

// Middleware is applied per route. Authenticate runs first so the rate
// limiter can key on the token email.
type Middleware struct {
	Authenticate func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
}

// New returns the API mux.
func New(h Handlers, mw Middleware) http.Handler {
	mux := http.NewServeMux()

	public := func(fn http.HandlerFunc) http.Handler {
		return mw.RateLimit(fn)
	}
	// token only; the caller may not have an account yet
	token := func(fn http.HandlerFunc) http.Handler {
		return mw.Authenticate(mw.RateLimit(fn))
	}
	user := func(fn http.HandlerFunc) http.Handler {
		return mw.Authenticate(mw.RateLimit(middleware.RequireUser(fn)))
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return mw.Authenticate(mw.RateLimit(middleware.RequireAdmin(fn)))
	}

	// ops
	mux.Handle("GET /{$}", public(h.Ops.Root))
	mux.HandleFunc("GET /healthz", h.Ops.Healthz)
	mux.Handle("GET /metrics", h.Metrics)

	// users
	mux.Handle("POST /users", token(h.Users.Register))
	mux.Handle("GET /users", admin(h.Users.List))
	mux.Handle("GET /users/{email}", user(h.Users.Get))
	mux.Handle("PATCH /users/{id}", admin(h.Users.UpdateRole))
	mux.Handle("DELETE /users/{id}", admin(h.Users.Delete))
	mux.Handle("GET /best-workers", public(h.Users.BestWorkers))
	mux.Handle("GET /admin-stats", admin(h.Users.AdminStats))
	mux.Handle("GET /coin-history", user(h.Users.CoinHistory))

	// tasks
	mux.Handle("GET /tasks", user(h.Tasks.ListByBuyer))
	mux.Handle("GET /tasks/all", admin(h.Tasks.ListAll))
	mux.Handle("GET /tasks/{id}", user(h.Tasks.Get))
	mux.Handle("GET /available-tasks", user(h.Tasks.ListAvailable))
	mux.Handle("POST /tasks", user(h.Tasks.Create))
	mux.Handle("PATCH /tasks/{id}", user(h.Tasks.Update))
	mux.Handle("DELETE /tasks/{id}", user(h.Tasks.Delete))
	mux.Handle("DELETE /admin/tasks/{id}", admin(h.Tasks.Delete))

	// submissions
	mux.Handle("GET /submissions", user(h.Submissions.ListByWorker))
	mux.Handle("GET /submissions/pending", user(h.Submissions.ListPending))
	mux.Handle("POST /submissions", user(h.Submissions.Create))
	mux.Handle("PATCH /submissions/approve/{id}", user(h.Submissions.Approve))
	mux.Handle("PATCH /submissions/reject/{id}", user(h.Submissions.Reject))

	// withdrawals
	mux.Handle("POST /withdrawals", user(h.Withdrawals.Create))
	mux.Handle("GET /withdrawals", user(h.Withdrawals.ListByWorker))
	mux.Handle("GET /withdrawals/pending", admin(h.Withdrawals.ListPending))
	mux.Handle("PATCH /withdrawals/approve/{id}", admin(h.Withdrawals.Approve))

	// payments
	mux.Handle("GET /payments", user(h.Payments.ListByEmail))
	mux.Handle("POST /payments", user(h.Payments.Record))
	mux.Handle("POST /create-payment-intent", user(h.Payments.CreateIntent))

	mux.Handle("GET /notifications", user(h.Notifications.List))

	return mux
}
