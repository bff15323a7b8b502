/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/httpserver"
	"github.com/acronis/go-quotagate/httpserver/middleware"
	"github.com/acronis/go-quotagate/internal/api"
	"github.com/acronis/go-quotagate/internal/ratelimit"
	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/lrucache"
	"github.com/acronis/go-quotagate/profserver"
	"github.com/acronis/go-quotagate/service"
	"github.com/acronis/go-quotagate/session"
)

const metricsNamespace = "quotagate"

// app is a root service unit. All its parts share the same lifetime.
type app struct {
	*service.CompositeUnit

	httpServer       *httpserver.HTTPServer
	controller       *admission.Controller
	sessions         *session.Store
	admissionMetrics *admission.PrometheusMetrics
	sessionsMetrics  *lrucache.PrometheusMetrics
}

var _ service.Unit = (*app)(nil)
var _ service.MetricsRegisterer = (*app)(nil)

func newApp(cfg *AppConfig, logger log.FieldLogger) (*app, error) {
	registry, err := admission.NewRegistry(cfg.Admission.Ceilings(), cfg.Admission.AnonymousCeiling)
	if err != nil {
		return nil, fmt.Errorf("create identity registry: %w", err)
	}
	admissionMetrics := admission.NewPrometheusMetricsWithOpts(admission.PrometheusMetricsOpts{Namespace: metricsNamespace})
	controller, err := admission.NewControllerWithOpts(registry, admission.Opts{
		Window:           cfg.Admission.Window.Duration(),
		ConsumePolicy:    cfg.Admission.ConsumePolicy(),
		MetricsCollector: admissionMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create admission controller: %w", err)
	}

	sessionsMetrics := lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{
		Namespace:   metricsNamespace,
		ConstLabels: prometheus.Labels{"cache": "sessions"},
	})
	sessions, err := session.NewStoreFromConfig(cfg.Session, sessionsMetrics)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	routesV1, err := api.NewRoutesV1(api.Opts{
		Controller: controller,
		Registry:   registry,
		Sessions:   sessions,
		Admission: middleware.AdmissionOpts{
			IncludedIdentities: cfg.Admission.IncludedIdentities,
			ExcludedIdentities: cfg.Admission.ExcludedIdentities,
		},
		AdminToken: cfg.Admin.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("create API routes: %w", err)
	}

	var apiMiddlewares []func(http.Handler) http.Handler
	if cfg.GlobalLimit.Enabled {
		processor, procErr := ratelimit.NewRequestProcessorFromConfig(cfg.GlobalLimit)
		if procErr != nil {
			return nil, fmt.Errorf("create global rate limiter: %w", procErr)
		}
		apiMiddlewares = append(apiMiddlewares, middleware.GlobalRateLimit(processor, api.ErrorDomain))
	}

	httpServer := httpserver.New(cfg.Server, logger, httpserver.Opts{
		ServiceNameInURL:   api.ServiceNameInURL,
		APIRoutes:          map[httpserver.APIVersion]httpserver.APIRoute{1: routesV1},
		APIMiddlewares:     apiMiddlewares,
		ErrorDomain:        api.ErrorDomain,
		HTTPRequestMetrics: httpserver.HTTPRequestMetricsOpts{Namespace: metricsNamespace},
		HealthCheck: func(ctx context.Context) (httpserver.HealthCheckResult, error) {
			return httpserver.HealthCheckResult{"admission": httpserver.HealthCheckStatusOK}, ctx.Err()
		},
	})

	units := []service.Unit{httpServer}
	if cfg.Admission.Sweep.Enabled {
		sweeper := service.NewPeriodicWorker(
			admission.NewSweeper(controller, logger), cfg.Admission.Sweep.Interval.Duration(), logger)
		units = append(units, service.NewWorkerUnit(sweeper))
	}
	cleaner := service.NewPeriodicWorker(session.NewCleaner(sessions, logger), cfg.Session.CleanupInterval.Duration(), logger)
	units = append(units, service.NewWorkerUnit(cleaner))
	if cfg.ProfServer.Enabled {
		units = append(units, profserver.New(cfg.ProfServer, logger))
	}

	return &app{
		CompositeUnit:    service.NewCompositeUnit(units...),
		httpServer:       httpServer,
		controller:       controller,
		sessions:         sessions,
		admissionMetrics: admissionMetrics,
		sessionsMetrics:  sessionsMetrics,
	}, nil
}

// MustRegisterMetrics registers metrics of all units and of the shared admission and session state.
func (a *app) MustRegisterMetrics() {
	a.CompositeUnit.MustRegisterMetrics()
	a.admissionMetrics.MustRegister()
	a.sessionsMetrics.MustRegister()
}

// UnregisterMetrics unregisters all metrics registered by MustRegisterMetrics.
func (a *app) UnregisterMetrics() {
	a.sessionsMetrics.Unregister()
	a.admissionMetrics.Unregister()
	a.CompositeUnit.UnregisterMetrics()
}
