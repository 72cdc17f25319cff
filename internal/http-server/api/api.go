package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"myobclient/internal/config"
	"myobclient/internal/http-server/handlers/errors"
	"myobclient/internal/http-server/handlers/item"
	"myobclient/internal/http-server/handlers/salesorder"
	"myobclient/internal/http-server/middleware/authenticate"
	"myobclient/internal/http-server/middleware/idempotency"
	"myobclient/internal/http-server/middleware/timeout"
	"myobclient/internal/lib/sl"
	"myobclient/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	salesorder.Core
	item.Core
}

// NewRouter builds the HTTP routes; claimer may be nil.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, claimer idempotency.Claimer) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(conf.Listen.Timeout))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	if conf.Metrics.Enabled {
		router.Use(metrics.Middleware)
		router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(authenticate.New(log, handler))

		r.Route("/myob", func(v1 chi.Router) {
			v1.With(idempotency.New(log, claimer)).Post("/sales-order", salesorder.Create(log, handler))
			v1.Get("/sales-order/{reference}", salesorder.Log(log, handler))
			v1.Get("/item/{sku}", item.Resolve(log, handler))
			v1.Delete("/item/{sku}", item.Forget(log, handler))
		})
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler, claimer idempotency.Claimer) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  NewRouter(conf, log, handler, claimer),
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
