package handler

import (
	"context"
	"net/http"

	"github.com/go-api-flatfile/internal/application/token"
	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/transport/http/dispatcher"
)

// TokenHandler serves api/tokens.
type TokenHandler struct {
	svc token.Service
	log logging.Logger
}

func NewTokenHandler(svc token.Service, log logging.Logger) *TokenHandler {
	return &TokenHandler{svc: svc, log: log}
}

func (h *TokenHandler) Post(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	t, err := h.svc.Create(ctx, dispatcher.Decode[domain.CreateTokenRequest](r))
	if err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, t)
}

func (h *TokenHandler) Get(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	t, err := h.svc.Get(ctx, r.Query.Get("id"))
	if err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, t)
}

func (h *TokenHandler) Put(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	t, err := h.svc.Extend(ctx, dispatcher.Decode[domain.ExtendTokenRequest](r))
	if err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, t)
}

func (h *TokenHandler) Delete(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	if err := h.svc.Delete(ctx, r.Query.Get("id")); err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, nil)
}
