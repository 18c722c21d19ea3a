package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/go-api-flatfile/internal/application/check"
	"github.com/go-api-flatfile/internal/application/token"
	"github.com/go-api-flatfile/internal/application/user"
	"github.com/go-api-flatfile/internal/config"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/transport/http/dispatcher"
	"github.com/go-api-flatfile/internal/transport/http/handler"
	appmiddleware "github.com/go-api-flatfile/internal/transport/http/middleware"
)

// Routes served by the dispatcher.
const (
	RoutePing   = "ping"
	RouteUsers  = "api/users"
	RouteTokens = "api/tokens"
	RouteChecks = "api/checks"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}

	tokenSvc := token.NewService(token.ServiceDeps{
		TokenRepo: deps.TokenRepo,
		UserRepo:  deps.UserRepo,
		Hasher:    deps.Hasher,
		Clock:     deps.Clock,
		TTL:       cfg.TokenTTL,
		IDLength:  cfg.TokenLength,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:  deps.UserRepo,
		CheckRepo: deps.CheckRepo,
		Tokens:    tokenSvc,
		Hasher:    deps.Hasher,
		Logger:    log,
	})
	checkSvc := check.NewService(check.ServiceDeps{
		CheckRepo: deps.CheckRepo,
		UserRepo:  deps.UserRepo,
		Tokens:    tokenSvc,
		MaxChecks: cfg.MaxChecks,
		Logger:    log,
	})

	reg := dispatcher.NewRegistry()
	reg.Handle(RoutePing, dispatcher.HandlerFunc(handler.Ping))
	reg.Handle(RouteUsers, dispatcher.Verbs(handler.NewUserHandler(userSvc, log)))
	reg.Handle(RouteTokens, dispatcher.Verbs(handler.NewTokenHandler(tokenSvc, log)))
	reg.Handle(RouteChecks, dispatcher.Verbs(handler.NewCheckHandler(checkSvc, log)))
	d := dispatcher.New(reg, cfg.MaxBodyBytes, log)

	// Account creation and login are the endpoints worth throttling per client.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	sensitive := func(r *http.Request) bool {
		if r.Method != http.MethodPost {
			return false
		}
		p := dispatcher.NormalizePath(r.URL.Path)
		return p == RouteUsers || p == RouteTokens
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/*", sensitiveRL.LimitMatching(sensitive)(d))
	return r
}
