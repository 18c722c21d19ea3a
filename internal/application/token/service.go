package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/pkg/clock"
	"github.com/go-api-flatfile/internal/pkg/password"
	pkgtoken "github.com/go-api-flatfile/internal/pkg/token"
	"github.com/go-api-flatfile/internal/pkg/validate"
)

// createAttempts bounds retries when a freshly generated id is already taken.
const createAttempts = 3

type Service interface {
	Create(ctx context.Context, req domain.CreateTokenRequest) (*domain.Token, error)
	Get(ctx context.Context, id string) (*domain.Token, error)
	Extend(ctx context.Context, req domain.ExtendTokenRequest) (*domain.Token, error)
	Delete(ctx context.Context, id string) error

	// Verify reports whether id names an unexpired token owned by phone.
	// Every failure, including storage errors, is reported as false.
	Verify(ctx context.Context, id, phone string) bool
	// Owner returns the phone bound to id if the token is currently valid.
	Owner(ctx context.Context, id string) (string, bool)
}

type tokenStore interface {
	Get(ctx context.Context, id string) (*domain.Token, error)
	Create(ctx context.Context, t *domain.Token) error
	Update(ctx context.Context, t *domain.Token) error
	Delete(ctx context.Context, id string) error
	Lock(id string) func()
}

type userStore interface {
	Get(ctx context.Context, phone string) (*domain.User, error)
}

type service struct {
	repo     tokenStore
	userRepo userStore
	hasher   *password.Hasher
	clock    clock.Clock
	ttl      time.Duration
	idLen    int
}

type ServiceDeps struct {
	TokenRepo tokenStore
	UserRepo  userStore
	Hasher    *password.Hasher
	Clock     clock.Clock
	TTL       time.Duration
	IDLength  int
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	return &service{
		repo:     deps.TokenRepo,
		userRepo: deps.UserRepo,
		hasher:   deps.Hasher,
		clock:    c,
		ttl:      deps.TTL,
		idLen:    deps.IDLength,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateTokenRequest) (*domain.Token, error) {
	validate.Trim(&req.Phone, &req.Password)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.userRepo.Get(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("could not find the specified user: %w", domain.ErrBadRequest)
		}
		return nil, err
	}
	if !s.hasher.Matches(u.HashedPassword, req.Password) {
		return nil, fmt.Errorf("password did not match the specified user's stored password: %w", domain.ErrBadRequest)
	}

	for attempt := 1; ; attempt++ {
		tid, err := pkgtoken.NewID(s.idLen)
		if err != nil {
			return nil, err
		}
		t := &domain.Token{
			ID:      tid,
			Phone:   u.Phone,
			Expires: s.clock.Now().Add(s.ttl).UnixMilli(),
		}
		err = s.repo.Create(ctx, t)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) || attempt == createAttempts {
			return nil, fmt.Errorf("could not create the new token: %w", err)
		}
	}
}

func (s *service) Get(ctx context.Context, id string) (*domain.Token, error) {
	id, err := s.checkID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *service) Extend(ctx context.Context, req domain.ExtendTokenRequest) (*domain.Token, error) {
	validate.Trim(&req.ID)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.checkID(req.ID); err != nil {
		return nil, err
	}

	unlock := s.repo.Lock(req.ID)
	defer unlock()

	t, err := s.repo.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("specified token does not exist: %w", domain.ErrBadRequest)
		}
		return nil, err
	}
	now := s.clock.Now()
	if !t.ValidAt(now) {
		return nil, fmt.Errorf("token has already expired and cannot be extended: %w", domain.ErrBadRequest)
	}
	t.Expires = now.Add(s.ttl).UnixMilli()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("could not update the token's expiration: %w", err)
	}
	return t, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	id, err := s.checkID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("could not find the specified token: %w", domain.ErrBadRequest)
		}
		return fmt.Errorf("could not delete the specified token: %w", err)
	}
	return nil
}

func (s *service) Verify(ctx context.Context, id, phone string) bool {
	owner, ok := s.Owner(ctx, id)
	return ok && phone != "" && owner == phone
}

func (s *service) Owner(ctx context.Context, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", false
	}
	if !t.ValidAt(s.clock.Now()) {
		return "", false
	}
	return t.Phone, true
}

// checkID trims id and rejects anything that is not a well-formed token id.
func (s *service) checkID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if len(id) != s.idLen {
		return "", fmt.Errorf("token id must be %d characters: %w", s.idLen, domain.ErrBadRequest)
	}
	return id, nil
}
