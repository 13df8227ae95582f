package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/metrics"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountd/internal/server/revocation"
	"github.com/google/uuid"
)

// RegisterInput is the self-service sign-up payload.
type RegisterInput = CreateUserInput

// LoginResult is returned by successful Login and Register calls.
type LoginResult struct {
	User     *models.User
	Token    string
	Identity auth.Identity
}

// AuthService implements login, registration, logout and token resolution.
type AuthService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	users         *UserService
	hasher        *auth.Hasher
	tokens        *auth.TokenIssuer
	revoked       revocation.Store
	verifyAccount bool
	metrics       *metrics.Metrics
	logger        logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthOptions groups AuthService collaborators.
type AuthOptions struct {
	Users                  *UserService
	Hasher                 *auth.Hasher
	Tokens                 *auth.TokenIssuer
	Revocations            revocation.Store
	VerifyAccountOnResolve bool
	Metrics                *metrics.Metrics
	Logger                 logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, opts AuthOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &AuthService{
		db:            db,
		repomanager:   m,
		users:         opts.Users,
		hasher:        opts.Hasher,
		tokens:        opts.Tokens,
		revoked:       opts.Revocations,
		verifyAccount: opts.VerifyAccountOnResolve,
		metrics:       opts.Metrics,
		logger:        logger.With("module", "auth"),
	}
}

func (s *AuthService) verifyPassword(ctx context.Context, plain, encoded string) (bool, error) {
	defer s.metrics.ObserveHash("verify", time.Now())
	return s.hasher.Verify(ctx, plain, encoded)
}

// burnVerify spends one verification on a throwaway hash so unknown
// identifiers take as long to reject as wrong passwords.
func (s *AuthService) burnVerify(ctx context.Context, plain string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(context.Background(), uuid.NewString())
		if err != nil {
			s.logger.Warn(ctx, "dummy hash unavailable", "error", err)
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_, _ = s.verifyPassword(ctx, plain, s.dummyHash)
	}
}

// Login authenticates by email or username. Unknown accounts, wrong
// passwords and blocked accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(ctx, password)
			s.metrics.Login(metrics.OutcomeInvalidCredentials)
			return nil, common.ErrorInvalidCredentials
		}
		s.metrics.Login(metrics.OutcomeError)
		s.logger.Error(ctx, "lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.verifyPassword(ctx, password, user.PasswordHash)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		s.logger.Error(ctx, "password verification failed", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if !ok || user.Blocked {
		s.metrics.Login(metrics.OutcomeInvalidCredentials)
		s.logger.Info(ctx, "login rejected", "user_id", user.ID, "blocked", user.Blocked)
		return nil, common.ErrorInvalidCredentials
	}

	res, err := s.issue(user, identifier)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		s.logger.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.Login(metrics.OutcomeSuccess)
	s.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	return res, nil
}

// Register creates an account and logs it in. The token identifier is the
// username.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	user, err := s.users.Create(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorConflict):
			s.metrics.Registration(metrics.OutcomeConflict)
		case errors.Is(err, common.ErrorValidation):
			s.metrics.Registration(metrics.OutcomeInvalidInput)
		default:
			s.metrics.Registration(metrics.OutcomeError)
		}
		return nil, err
	}

	res, err := s.issue(user, user.Username)
	if err != nil {
		s.metrics.Registration(metrics.OutcomeError)
		s.logger.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.Registration(metrics.OutcomeSuccess)
	return res, nil
}

func (s *AuthService) issue(user *models.User, identifier string) (*LoginResult, error) {
	token, id, err := s.tokens.Issue(user.ID, identifier)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, Identity: id}, nil
}

// Logout revokes token until its natural expiry. Missing, invalid and
// expired tokens need no revocation and succeed silently.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" || s.revoked == nil {
		return nil
	}

	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil
	}

	if err := s.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		s.logger.Error(ctx, "revocation failed", "user_id", id.Subject, "error", err)
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.metrics.Logout()
	s.logger.Info(ctx, "logged out", "user_id", id.Subject)
	return nil
}

// Resolve turns a presented token into an Identity. Every failure is
// reported as common.ErrorUnauthenticated.
func (s *AuthService) Resolve(ctx context.Context, token string) (auth.Identity, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "error", err)
		return auth.Identity{}, common.ErrorUnauthenticated
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, id.TokenID)
		if err != nil {
			s.logger.Error(ctx, "revocation lookup failed", "error", err)
			return auth.Identity{}, common.ErrorUnauthenticated
		}
		if revoked {
			s.logger.Debug(ctx, "token rejected", "error", common.ErrTokenRevoked)
			return auth.Identity{}, common.ErrorUnauthenticated
		}
	}

	if s.verifyAccount {
		user, err := s.repomanager.Users(s.db).GetByID(ctx, id.Subject)
		if err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				s.logger.Error(ctx, "account lookup failed", "user_id", id.Subject, "error", err)
			}
			return auth.Identity{}, common.ErrorUnauthenticated
		}
		if user.Blocked {
			return auth.Identity{}, common.ErrorUnauthenticated
		}
	}

	return id, nil
}
