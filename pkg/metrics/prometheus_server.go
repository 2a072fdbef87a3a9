package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

const httpServerReadHeaderTimeout = 5 * time.Second

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// PrometheusServer exposes /metrics. It serves the default registry unless
// WithRegistry points it elsewhere.
type PrometheusServer struct {
	listenAddress string
	registerer    prometheus.Registerer
	gatherer      prometheus.Gatherer
}

func NewPrometheusServer(listenAddress string) PrometheusServer {
	return PrometheusServer{
		listenAddress: listenAddress,
		registerer:    prometheus.DefaultRegisterer,
		gatherer:      prometheus.DefaultGatherer,
	}
}

func (p PrometheusServer) WithRegistry(reg *prometheus.Registry) PrometheusServer {
	p.registerer = reg
	p.gatherer = reg

	return p
}

// RegisterBuildInfo exposes a constant <namespace>_build_info gauge labeled
// with the application name and version. Repeated registration is a no-op.
func (p PrometheusServer) RegisterBuildInfo(namespace, name, version string) error {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Build information of the running binary.",
		ConstLabels: prometheus.Labels{"name": name, "version": version},
	})
	gauge.Set(1)

	if err := p.registerer.Register(gauge); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}

		return fmt.Errorf("prometheus.Register: %w", err)
	}

	return nil
}

func (p PrometheusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{}))

	return mux
}

func (p PrometheusServer) Run(ctx context.Context) error {
	httpServer := &http.Server{
		//nolint:exhaustruct
		Addr:              p.listenAddress,
		Handler:           p.Handler(),
		ReadHeaderTimeout: httpServerReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		if err := httpServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger(ctx).Error("httpServer.Shutdown", logx.Error(err))
		}
	}()

	logger(ctx).Info("prometheus server started", slog.String("address", p.listenAddress))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer.ListenAndServe: %w", err)
	}

	logger(ctx).Info("prometheus server stopped")

	return nil
}
