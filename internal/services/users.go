package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/models"
)

const bestWorkersLimit = 6

type UserStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, u *models.User) error
	TouchLastLogin(ctx context.Context, email string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error)
	DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	TopWorkers(ctx context.Context, limit int) ([]*models.WorkerSummary, error)
	Stats(ctx context.Context) (*models.AdminStats, error)
}

type UserService struct {
	Deps
	users   UserStore
	isAdmin func(email string) bool
}

// NewUserService builds the user service. adminEmail reports which emails
// register with the Admin role; nil means none do.
func NewUserService(deps Deps, users UserStore, adminEmail func(string) bool) *UserService {
	if adminEmail == nil {
		adminEmail = func(string) bool { return false }
	}
	return &UserService{Deps: deps, users: users, isAdmin: adminEmail}
}

type RegisterInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
	Role  string `json:"role"`
}

// Register creates the user on first login and credits the signup bonus. For
// an existing user it only refreshes last_log_in. inserted reports which
// happened.
func (s *UserService) Register(ctx context.Context, tokenEmail string, in RegisterInput) (u *models.User, inserted bool, err error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, false, apperr.Validationf("email is required")
	}
	if email != normalizeEmail(tokenEmail) {
		return nil, false, apperr.Forbiddenf("email does not match the signed-in account")
	}

	u, err = s.users.TouchLastLogin(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}

	role, err := s.registrationRole(email, in.Role)
	if err != nil {
		return nil, false, err
	}
	u = &models.User{
		ID:    uuid.New(),
		Email: email,
		Name:  strings.TrimSpace(in.Name),
		Photo: strings.TrimSpace(in.Photo),
		Role:  role,
	}
	bonus := models.SignupCoins(role)
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.users.CreateTx(ctx, tx, u); err != nil {
			return err
		}
		balance, err := s.Ledger.AdjustBalance(ctx, tx, email, bonus, models.CoinEntrySignupBonus, &u.ID)
		u.Coins = balance
		return err
	})
	if errors.Is(err, apperr.ErrConflict) {
		// a concurrent first login won the insert
		u, err = s.users.TouchLastLogin(ctx, email)
		return u, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("register %s: %w", email, err)
	}
	s.metrics().Event("user_registered")
	s.metrics().CoinsMoved(models.CoinEntrySignupBonus, bonus)
	s.logger().Info("user registered", "email", email, "role", role, "bonus", bonus)
	return u, true, nil
}

func (s *UserService) registrationRole(email, requested string) (string, error) {
	if s.isAdmin(email) {
		return models.RoleAdmin, nil
	}
	switch requested {
	case "":
		return models.RoleWorker, nil
	case models.RoleBuyer, models.RoleWorker:
		return requested, nil
	default:
		return "", apperr.Validationf("role must be %s or %s", models.RoleBuyer, models.RoleWorker)
	}
}

// Lookup returns the stored user for an authenticated email.
func (s *UserService) Lookup(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetByEmail(ctx, normalizeEmail(email))
}

func (s *UserService) Get(ctx context.Context, caller *models.User, email string) (*models.User, error) {
	if err := authorizeSelf(caller, email); err != nil {
		return nil, err
	}
	return s.users.GetByEmail(ctx, normalizeEmail(email))
}

func (s *UserService) List(ctx context.Context, caller *models.User) ([]*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *UserService) UpdateRole(ctx context.Context, caller *models.User, id uuid.UUID, role string) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !models.ValidRole(role) {
		return nil, apperr.Validationf("unknown role %q", role)
	}
	u, err := s.users.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.logger().Info("user role changed", "user_id", id, "role", role, "by", caller.Email)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, caller *models.User, id uuid.UUID) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if caller.ID == id {
		return apperr.Validationf("admins cannot delete their own account")
	}
	// The remaining balance is closed out through the ledger so the email's
	// entries sum to zero if it ever registers again.
	var closed int64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		u, err := s.users.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if u.Coins > 0 {
			if _, err := s.Ledger.AdjustBalance(ctx, tx, u.Email, -u.Coins, models.CoinEntryAccountClosed, &u.ID); err != nil {
				return err
			}
			closed = u.Coins
		}
		return s.users.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if closed > 0 {
		s.metrics().CoinsMoved(models.CoinEntryAccountClosed, closed)
	}
	s.logger().Info("user deleted", "user_id", id, "by", caller.Email, "closed_coins", closed)
	return nil
}

// BestWorkers is the public leaderboard.
func (s *UserService) BestWorkers(ctx context.Context) ([]*models.WorkerSummary, error) {
	return s.users.TopWorkers(ctx, bestWorkersLimit)
}

func (s *UserService) AdminStats(ctx context.Context, caller *models.User) (*models.AdminStats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.users.Stats(ctx)
}

// CoinHistory lists the user's coin ledger, newest first.
func (s *UserService) CoinHistory(ctx context.Context, caller *models.User, email string, limit int) ([]*models.CoinEntry, error) {
	if err := authorizeSelf(caller, email); err != nil {
		return nil, err
	}
	return s.Ledger.History(ctx, normalizeEmail(email), limit)
}
