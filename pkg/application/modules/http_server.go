package modules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"fareglitch/pkg/logx"
)

const defaultReadHeaderTimeout = 10 * time.Second

// HTTPServer serves Handler until ctx is done, then shuts down gracefully.
// Request contexts derive from ctx without its cancellation, so handlers log
// through the application logger and in-flight requests survive the start
// of shutdown.
type HTTPServer struct {
	ListenAddress     string
	Handler           http.Handler
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

func (h HTTPServer) Run(ctx context.Context, g *errgroup.Group) {
	srv := &http.Server{
		Addr:              h.ListenAddress,
		Handler:           h.Handler,
		ReadHeaderTimeout: h.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	if srv.ReadHeaderTimeout <= 0 {
		srv.ReadHeaderTimeout = defaultReadHeaderTimeout
	}

	g.Go(func() error {
		ln, err := net.Listen("tcp", h.ListenAddress)
		if err != nil {
			return fmt.Errorf("net.Listen: %w", err)
		}

		go func() {
			<-ctx.Done()

			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.ShutdownTimeout) //nolint:govet
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger(ctx).Error("server.Shutdown", logx.Error(err))
			}
		}()

		logger(ctx).Info("http server started", slog.String("address", ln.Addr().String()))

		if err = srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server.Serve: %w", err)
		}

		logger(ctx).Info("http server stopped", slog.String("address", ln.Addr().String()))

		return nil
	})
}
