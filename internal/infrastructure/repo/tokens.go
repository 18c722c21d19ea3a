package repo

import (
	"context"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/pkg/keylock"
)

// TokenRepo stores tokens keyed by token id.
type TokenRepo struct {
	collection[domain.Token]
}

func NewTokenRepo(store DocumentStore, locks keylock.Locker) *TokenRepo {
	return &TokenRepo{newCollection[domain.Token](store, domain.CollectionTokens, locks)}
}

func (r *TokenRepo) Get(ctx context.Context, id string) (*domain.Token, error) {
	return r.get(ctx, id)
}

func (r *TokenRepo) Create(ctx context.Context, t *domain.Token) error {
	return r.create(ctx, t.ID, t)
}

func (r *TokenRepo) Update(ctx context.Context, t *domain.Token) error {
	return r.update(ctx, t.ID, t)
}

func (r *TokenRepo) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}
