package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/transport/http/dispatcher"
)

// SafeUser is the public view of a user; it never carries the password hash.
type SafeUser struct {
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Phone        string   `json:"phone"`
	TOSAgreement bool     `json:"tosAgreement"`
	Checks       []string `json:"checks,omitempty"`
}

func toSafeUser(u *domain.User) *SafeUser {
	return &SafeUser{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		TOSAgreement: u.TOSAgreement,
		Checks:       u.Checks,
	}
}

// errorResponse maps a service error onto the client-facing status codes.
// Messages of unexpected failures are logged, not returned.
func errorResponse(ctx context.Context, log logging.Logger, err error) dispatcher.Response {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrAlreadyExists):
		return dispatcher.Error(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return dispatcher.Error(http.StatusForbidden, "missing required token in header, or token is invalid")
	case errors.Is(err, domain.ErrNotFound):
		return dispatcher.Error(http.StatusNotFound, "not found")
	default:
		log.Error(ctx, "request failed", "err", err)
		return dispatcher.Error(http.StatusInternalServerError, "internal server error")
	}
}

func tokenHeader(r *dispatcher.Request) string {
	return r.Headers.Get("token")
}
