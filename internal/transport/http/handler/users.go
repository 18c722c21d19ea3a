package handler

import (
	"context"
	"net/http"

	"github.com/go-api-flatfile/internal/application/user"
	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/transport/http/dispatcher"
)

// UserHandler serves api/users.
type UserHandler struct {
	svc user.Service
	log logging.Logger
}

func NewUserHandler(svc user.Service, log logging.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

func (h *UserHandler) Post(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	u, err := h.svc.Register(ctx, dispatcher.Decode[domain.CreateUserRequest](r))
	if err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, toSafeUser(u))
}

func (h *UserHandler) Get(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	u, err := h.svc.Get(ctx, tokenHeader(r), r.Query.Get("phone"))
	if err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, toSafeUser(u))
}

func (h *UserHandler) Put(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	u, err := h.svc.Update(ctx, tokenHeader(r), dispatcher.Decode[domain.UpdateUserRequest](r))
	if err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, toSafeUser(u))
}

func (h *UserHandler) Delete(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	if err := h.svc.Delete(ctx, tokenHeader(r), r.Query.Get("phone")); err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, nil)
}
