package check

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/pkg/id"
	"github.com/go-api-flatfile/internal/pkg/validate"
)

type Service interface {
	Create(ctx context.Context, token string, req domain.CreateCheckRequest) (*domain.Check, error)
	Get(ctx context.Context, token, checkID string) (*domain.Check, error)
	Update(ctx context.Context, token string, req domain.UpdateCheckRequest) (*domain.Check, error)
	Delete(ctx context.Context, token, checkID string) error
}

type checkStore interface {
	Get(ctx context.Context, id string) (*domain.Check, error)
	Create(ctx context.Context, c *domain.Check) error
	Update(ctx context.Context, c *domain.Check) error
	Delete(ctx context.Context, id string) error
	Lock(id string) func()
}

type userStore interface {
	Get(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Lock(phone string) func()
}

type tokenAuthority interface {
	Verify(ctx context.Context, id, phone string) bool
	Owner(ctx context.Context, id string) (string, bool)
}

type service struct {
	repo      checkStore
	userRepo  userStore
	tokens    tokenAuthority
	maxChecks int
	log       logging.Logger
}

type ServiceDeps struct {
	CheckRepo checkStore
	UserRepo  userStore
	Tokens    tokenAuthority
	MaxChecks int
	Logger    logging.Logger
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &service{
		repo:      deps.CheckRepo,
		userRepo:  deps.UserRepo,
		tokens:    deps.Tokens,
		maxChecks: deps.MaxChecks,
		log:       log.With("component", "check"),
	}
}

func (s *service) Create(ctx context.Context, token string, req domain.CreateCheckRequest) (*domain.Check, error) {
	validate.Trim(&req.Protocol, &req.URL, &req.Method)
	req.Protocol = strings.ToLower(req.Protocol)
	req.Method = strings.ToLower(req.Method)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	phone, ok := s.tokens.Owner(ctx, token)
	if !ok {
		return nil, fmt.Errorf("missing or invalid token: %w", domain.ErrForbidden)
	}

	unlock := s.userRepo.Lock(phone)
	defer unlock()

	u, err := s.userRepo.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("token owner no longer exists: %w", domain.ErrForbidden)
		}
		return nil, err
	}
	if len(u.Checks) >= s.maxChecks {
		return nil, fmt.Errorf("the user already has the maximum number of checks (%d): %w", s.maxChecks, domain.ErrBadRequest)
	}

	c := &domain.Check{
		ID:             id.New(),
		UserPhone:      phone,
		Protocol:       req.Protocol,
		URL:            req.URL,
		Method:         req.Method,
		SuccessCodes:   req.SuccessCodes,
		TimeoutSeconds: req.TimeoutSeconds,
		State:          domain.CheckStateDown,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("could not create the new check: %w", err)
	}
	u.Checks = append(u.Checks, c.ID)
	if err := s.userRepo.Update(ctx, u); err != nil {
		if derr := s.repo.Delete(ctx, c.ID); derr != nil {
			s.log.Error(ctx, "could not roll back orphaned check", "check_id", c.ID, "err", derr)
		}
		return nil, fmt.Errorf("could not update the user with the new check: %w", err)
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, token, checkID string) (*domain.Check, error) {
	checkID, err := checkIDParam(checkID)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if !s.tokens.Verify(ctx, token, c.UserPhone) {
		return nil, fmt.Errorf("missing or invalid token: %w", domain.ErrForbidden)
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, token string, req domain.UpdateCheckRequest) (*domain.Check, error) {
	validate.Trim(&req.ID)
	validate.TrimOptional(&req.Protocol)
	validate.TrimOptional(&req.URL)
	validate.TrimOptional(&req.Method)
	lowerOptional(req.Protocol)
	lowerOptional(req.Method)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if _, err := checkIDParam(req.ID); err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}

	unlock := s.repo.Lock(req.ID)
	defer unlock()

	c, err := s.repo.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("check id did not exist: %w", domain.ErrBadRequest)
		}
		return nil, err
	}
	if !s.tokens.Verify(ctx, token, c.UserPhone) {
		return nil, fmt.Errorf("missing or invalid token: %w", domain.ErrForbidden)
	}
	if req.Protocol != nil {
		c.Protocol = *req.Protocol
	}
	if req.URL != nil {
		c.URL = *req.URL
	}
	if req.Method != nil {
		c.Method = *req.Method
	}
	if req.SuccessCodes != nil {
		c.SuccessCodes = req.SuccessCodes
	}
	if req.TimeoutSeconds != nil {
		c.TimeoutSeconds = *req.TimeoutSeconds
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("could not update the check: %w", err)
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, token, checkID string) error {
	checkID, err := checkIDParam(checkID)
	if err != nil {
		return err
	}
	c, err := s.repo.Get(ctx, checkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("the specified check does not exist: %w", domain.ErrBadRequest)
		}
		return err
	}
	if !s.tokens.Verify(ctx, token, c.UserPhone) {
		return fmt.Errorf("missing or invalid token: %w", domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, checkID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("could not delete the check: %w", err)
	}

	unlock := s.userRepo.Lock(c.UserPhone)
	defer unlock()

	u, err := s.userRepo.Get(ctx, c.UserPhone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: could not find the user who created the check", domain.ErrStorage)
		}
		return err
	}
	if !u.RemoveCheck(checkID) {
		s.log.Warn(ctx, "deleted check was not listed on its owner", "check_id", checkID, "phone", c.UserPhone)
		return nil
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return fmt.Errorf("could not update the user: %w", err)
	}
	return nil
}

func checkIDParam(checkID string) (string, error) {
	checkID = strings.TrimSpace(checkID)
	if len(checkID) != id.Len {
		return "", fmt.Errorf("check id must be %d characters: %w", id.Len, domain.ErrBadRequest)
	}
	return checkID, nil
}

func lowerOptional(p *string) {
	if p != nil {
		*p = strings.ToLower(*p)
	}
}
