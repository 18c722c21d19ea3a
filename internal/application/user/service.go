package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/pkg/password"
	"github.com/go-api-flatfile/internal/pkg/validate"
)

// minPhoneLen is the shortest phone number accepted as a user key.
const minPhoneLen = 11

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, token, phone string) (*domain.User, error)
	Update(ctx context.Context, token string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, token, phone string) error
}

type userStore interface {
	Get(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, phone string) error
	Lock(phone string) func()
}

type checkStore interface {
	Delete(ctx context.Context, id string) error
}

type tokenVerifier interface {
	Verify(ctx context.Context, id, phone string) bool
}

type service struct {
	repo      userStore
	checkRepo checkStore
	tokens    tokenVerifier
	hasher    *password.Hasher
	log       logging.Logger
}

type ServiceDeps struct {
	UserRepo  userStore
	CheckRepo checkStore
	Tokens    tokenVerifier
	Hasher    *password.Hasher
	Logger    logging.Logger
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &service{
		repo:      deps.UserRepo,
		checkRepo: deps.CheckRepo,
		tokens:    deps.Tokens,
		hasher:    deps.Hasher,
		log:       log.With("component", "user"),
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	validate.Trim(&req.FirstName, &req.LastName, &req.Phone, &req.Password)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("could not hash the user's password: %w", err)
	}
	u := &domain.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		HashedPassword: hash,
		TOSAgreement:   true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("a user with that phone number already exists: %w", domain.ErrBadRequest)
		}
		return nil, fmt.Errorf("could not create the new user: %w", err)
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, token, phone string) (*domain.User, error) {
	phone, err := checkPhone(phone)
	if err != nil {
		return nil, err
	}
	if !s.tokens.Verify(ctx, token, phone) {
		return nil, fmt.Errorf("missing or invalid token: %w", domain.ErrForbidden)
	}
	return s.repo.Get(ctx, phone)
}

func (s *service) Update(ctx context.Context, token string, req domain.UpdateUserRequest) (*domain.User, error) {
	validate.Trim(&req.Phone)
	validate.TrimOptional(&req.FirstName)
	validate.TrimOptional(&req.LastName)
	validate.TrimOptional(&req.Password)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if !s.tokens.Verify(ctx, token, req.Phone) {
		return nil, fmt.Errorf("missing or invalid token: %w", domain.ErrForbidden)
	}

	unlock := s.repo.Lock(req.Phone)
	defer unlock()

	u, err := s.repo.Get(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("the specified user does not exist: %w", domain.ErrBadRequest)
		}
		return nil, err
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("could not hash the user's password: %w", err)
		}
		u.HashedPassword = hash
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("could not update the user: %w", err)
	}
	return u, nil
}

// Delete removes the user and every check listed on it. Tokens issued to the
// user are left to expire.
func (s *service) Delete(ctx context.Context, token, phone string) error {
	phone, err := checkPhone(phone)
	if err != nil {
		return err
	}
	if !s.tokens.Verify(ctx, token, phone) {
		return fmt.Errorf("missing or invalid token: %w", domain.ErrForbidden)
	}

	unlock := s.repo.Lock(phone)
	defer unlock()

	u, err := s.repo.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("could not find the specified user: %w", domain.ErrBadRequest)
		}
		return err
	}
	if err := s.repo.Delete(ctx, phone); err != nil {
		return fmt.Errorf("could not delete the specified user: %w", err)
	}

	for _, checkID := range u.Checks {
		if err := s.checkRepo.Delete(ctx, checkID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn(ctx, "could not delete check of removed user", "check_id", checkID, "err", err)
		}
	}
	return nil
}

func checkPhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if len(phone) < minPhoneLen {
		return "", fmt.Errorf("missing or invalid phone: %w", domain.ErrBadRequest)
	}
	return phone, nil
}
