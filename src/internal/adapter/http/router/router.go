package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router, authMiddleware mux.MiddlewareFunc)
}

// WithAuth registers registrar's routes behind auth instead of
// Config.AuthMiddleware.
func WithAuth(registrar RouteRegistrar, auth mux.MiddlewareFunc) RouteRegistrar {
	return authOverride{registrar: registrar, auth: auth}
}

type authOverride struct {
	registrar RouteRegistrar
	auth      mux.MiddlewareFunc
}

func (o authOverride) RegisterRoutes(router *mux.Router, _ mux.MiddlewareFunc) {
	o.registrar.RegisterRoutes(router, o.auth)
}

type Config struct {
	// Middlewares wrap every matched route, outermost first.
	Middlewares    []mux.MiddlewareFunc
	AuthMiddleware mux.MiddlewareFunc
	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
}

func New(cfg Config, registrars ...RouteRegistrar) *mux.Router {
	r := mux.NewRouter()
	r.Use(cfg.Middlewares...)

	registerSwaggerRoutes(r)
	if cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	for _, registrar := range registrars {
		if registrar != nil {
			registrar.RegisterRoutes(r, cfg.AuthMiddleware)
		}
	}

	return r
}
