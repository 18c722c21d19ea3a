package repo

import (
	"context"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/pkg/keylock"
)

// UserRepo stores users keyed by phone number.
type UserRepo struct {
	collection[domain.User]
}

func NewUserRepo(store DocumentStore, locks keylock.Locker) *UserRepo {
	return &UserRepo{newCollection[domain.User](store, domain.CollectionUsers, locks)}
}

func (r *UserRepo) Get(ctx context.Context, phone string) (*domain.User, error) {
	return r.get(ctx, phone)
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.create(ctx, u.Phone, u)
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return r.update(ctx, u.Phone, u)
}

func (r *UserRepo) Delete(ctx context.Context, phone string) error {
	return r.delete(ctx, phone)
}
