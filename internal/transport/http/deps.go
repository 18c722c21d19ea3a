package http

import (
	"context"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/pkg/clock"
	"github.com/go-api-flatfile/internal/pkg/password"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, phone string) error
	Lock(phone string) func()
}

// TokenRepository is the minimal interface the router requires from a token store.
type TokenRepository interface {
	Get(ctx context.Context, id string) (*domain.Token, error)
	Create(ctx context.Context, t *domain.Token) error
	Update(ctx context.Context, t *domain.Token) error
	Delete(ctx context.Context, id string) error
	Lock(id string) func()
}

// CheckRepository is the minimal interface the router requires from a check store.
type CheckRepository interface {
	Get(ctx context.Context, id string) (*domain.Check, error)
	Create(ctx context.Context, c *domain.Check) error
	Update(ctx context.Context, c *domain.Check) error
	Delete(ctx context.Context, id string) error
	Lock(id string) func()
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo  UserRepository
	TokenRepo TokenRepository
	CheckRepo CheckRepository
	Hasher    *password.Hasher
	Clock     clock.Clock
	Logger    logging.Logger
}
