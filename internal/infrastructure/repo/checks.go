package repo

import (
	"context"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/pkg/keylock"
)

// CheckRepo stores checks keyed by check id.
type CheckRepo struct {
	collection[domain.Check]
}

func NewCheckRepo(store DocumentStore, locks keylock.Locker) *CheckRepo {
	return &CheckRepo{newCollection[domain.Check](store, domain.CollectionChecks, locks)}
}

func (r *CheckRepo) Get(ctx context.Context, id string) (*domain.Check, error) {
	return r.get(ctx, id)
}

func (r *CheckRepo) Create(ctx context.Context, c *domain.Check) error {
	return r.create(ctx, c.ID, c)
}

func (r *CheckRepo) Update(ctx context.Context, c *domain.Check) error {
	return r.update(ctx, c.ID, c)
}

func (r *CheckRepo) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

// List returns the ids of every stored check.
func (r *CheckRepo) List(ctx context.Context) ([]string, error) {
	return r.list(ctx)
}
