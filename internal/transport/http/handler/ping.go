package handler

import (
	"context"
	"net/http"

	"github.com/go-api-flatfile/internal/transport/http/dispatcher"
)

// Ping answers 200 to any verb.
func Ping(context.Context, *dispatcher.Request) dispatcher.Response {
	return dispatcher.JSON(http.StatusOK, nil)
}
