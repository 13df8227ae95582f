// Package users declares the account repository contract and its
// PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/accountd/internal/server/models"
)

// Repository persists accounts. Implementations return common.ErrorNotFound
// for missing rows and common.ErrorAlreadyExists on unique-key collisions.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIdentifier matches either the email or the username, case-insensitively.
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	Delete(ctx context.Context, id string) error
}
