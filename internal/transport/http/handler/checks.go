package handler

import (
	"context"
	"net/http"

	"github.com/go-api-flatfile/internal/application/check"
	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/transport/http/dispatcher"
)

// CheckHandler serves api/checks.
type CheckHandler struct {
	svc check.Service
	log logging.Logger
}

func NewCheckHandler(svc check.Service, log logging.Logger) *CheckHandler {
	return &CheckHandler{svc: svc, log: log}
}

func (h *CheckHandler) Post(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	c, err := h.svc.Create(ctx, tokenHeader(r), dispatcher.Decode[domain.CreateCheckRequest](r))
	if err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, c)
}

func (h *CheckHandler) Get(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	c, err := h.svc.Get(ctx, tokenHeader(r), r.Query.Get("id"))
	if err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, c)
}

func (h *CheckHandler) Put(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	c, err := h.svc.Update(ctx, tokenHeader(r), dispatcher.Decode[domain.UpdateCheckRequest](r))
	if err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, c)
}

func (h *CheckHandler) Delete(ctx context.Context, r *dispatcher.Request) dispatcher.Response {
	if err := h.svc.Delete(ctx, tokenHeader(r), r.Query.Get("id")); err != nil {
		return errorResponse(ctx, h.log, err)
	}
	return dispatcher.JSON(http.StatusOK, nil)
}
