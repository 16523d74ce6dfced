// Package service exposes the synchronized toggle snapshot over HTTP so
// co-located processes can share one upstream connection.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/model"
)

type ProxyServiceConfiguration struct {
	Port int32
}

// ProxyService serves the toggle snapshot of a ToggleSource:
//
//	GET /proxy    -> {"toggles": [...]}, optionally filtered by ?toggles=a,b
//	GET /health   -> 200 ok
//	GET /metrics  -> Prometheus registry
type ProxyService struct {
	ProxyServiceConfiguration *ProxyServiceConfiguration
	Source                    ToggleSource
	Logger                    *log.Logger

	requests    *prometheus.CounterVec
	toggleCount prometheus.GaugeFunc
	registry    *prometheus.Registry
}

func (p *ProxyService) initMetrics() {
	p.registry = prometheus.NewRegistry()
	p.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unleash_proxy_requests_total",
		Help: "Number of requests served, by route.",
	}, []string{"route"})
	p.toggleCount = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "unleash_proxy_toggles",
		Help: "Number of toggles in the current snapshot.",
	}, func() float64 {
		return float64(len(p.Source.GetAllToggles()))
	})
	p.registry.MustRegister(p.requests, p.toggleCount)
}

func (p *ProxyService) handleProxy(w http.ResponseWriter, r *http.Request) {
	p.requests.WithLabelValues("proxy").Inc()

	toggles := p.Source.GetAllToggles()
	if filter := r.URL.Query().Get("toggles"); filter != "" {
		wanted := map[string]bool{}
		for _, name := range strings.Split(filter, ",") {
			wanted[strings.TrimSpace(name)] = true
		}
		filtered := toggles[:0]
		for _, t := range toggles {
			if wanted[t.Name] {
				filtered = append(filtered, t)
			}
		}
		toggles = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(model.ToggleSet{Toggles: toggles}); err != nil {
		p.Logger.Errorf("unable to write proxy response: %v", err)
	}
}

func (p *ProxyService) handleHealth(w http.ResponseWriter, _ *http.Request) {
	p.requests.WithLabelValues("health").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (p *ProxyService) Serve(ctx context.Context) error {
	if p.ProxyServiceConfiguration == nil {
		return errors.New("proxy service configuration has not been initialised")
	}
	if p.Source == nil {
		return errors.New("proxy service requires a toggle source")
	}
	if p.Logger == nil {
		p.Logger = log.StandardLogger()
	}
	p.initMetrics()

	router := chi.NewRouter()
	router.Get("/proxy", p.handleProxy)
	router.Get("/health", p.handleHealth)
	router.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", p.ProxyServiceConfiguration.Port),
		Handler: router,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return server.Shutdown(context.Background())
	}
}
