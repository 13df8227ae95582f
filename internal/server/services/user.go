// Package services contains server-side business logic: account creation
// and profile management (UserService) and the authentication flows built
// on top of it (AuthService).
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/dbx"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/metrics"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const minUsernameLength = 3

// CreateUserInput is the data needed to open an account.
type CreateUserInput struct {
	Email     string
	Username  string
	Password  string
	FirstName *string
	LastName  *string
}

func (in *CreateUserInput) normalize() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)

	var errs []string
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		errs = append(errs, "email is invalid")
	}
	if len(in.Username) < minUsernameLength {
		errs = append(errs, fmt.Sprintf("username must be at least %d characters", minUsernameLength))
	}
	if strings.Contains(in.Username, "@") {
		errs = append(errs, "username must not contain @")
	}
	if in.Password == "" {
		errs = append(errs, "password is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", common.ErrorValidation, strings.Join(errs, "; "))
	}
	return nil
}

// UserService manages accounts and their profiles.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.Hasher, mtr *metrics.Metrics, logger logging.Logger) *UserService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		metrics:     mtr,
		logger:      logger.With("module", "users"),
	}
}

func (s *UserService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}

func (s *UserService) hashPassword(ctx context.Context, plain string) (string, error) {
	defer s.metrics.ObserveHash("hash", time.Now())
	return s.hasher.Hash(ctx, plain)
}

// Create opens a confirmed, unblocked account. An email or username that is
// already taken yields common.ErrorConflict.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(ctx, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, s.internal(ctx, "hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Confirmed:    true,
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByEmailOrUsername(ctx, user.Email, user.Username)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrorConflict
		}

		created, err = repo.Create(ctx, user)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorConflict), errors.Is(err, common.ErrorAlreadyExists):
		return nil, common.ErrorConflict
	default:
		return nil, s.internal(ctx, "create user", err)
	}

	s.logger.Info(ctx, "account created", "user_id", created.ID)
	return created, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list users", err)
	}
	return users, nil
}

// Get returns common.ErrorNotFound for unknown or malformed ids.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "get user", err)
	}
	return user, nil
}

// Update applies a partial profile change. An empty change returns the
// current profile.
func (s *UserService) Update(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if len(name) < minUsernameLength {
			return nil, fmt.Errorf("%w: username must be at least %d characters", common.ErrorValidation, minUsernameLength)
		}
		if strings.Contains(name, "@") {
			return nil, fmt.Errorf("%w: username must not contain @", common.ErrorValidation)
		}
		upd.Username = &name
	}
	if upd.Empty() {
		return s.Get(ctx, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	user, err := s.repomanager.Users(s.db).Update(ctx, id, upd)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return nil, common.ErrorConflict
	default:
		return nil, s.internal(ctx, "update user", err)
	}
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	err := s.repomanager.Users(s.db).Delete(ctx, id)
	switch {
	case err == nil:
		s.logger.Info(ctx, "account deleted", "user_id", id)
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorNotFound
	default:
		return s.internal(ctx, "delete user", err)
	}
}

// SetBlocked blocks or unblocks the account addressed by id, email or
// username. Blocked accounts cannot log in and their tokens stop resolving.
func (s *UserService) SetBlocked(ctx context.Context, ref string, blocked bool) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		var err error
		if _, perr := uuid.Parse(ref); perr == nil {
			user, err = repo.GetByID(ctx, ref)
		} else {
			user, err = repo.GetByIdentifier(ctx, ref)
		}
		if err != nil {
			return err
		}

		if err := repo.SetBlocked(ctx, user.ID, blocked); err != nil {
			return err
		}
		user.Blocked = blocked
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "set blocked", err)
	}

	s.logger.Info(ctx, "account block state changed", "user_id", user.ID, "blocked", blocked)
	return user, nil
}
