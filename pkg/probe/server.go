package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	httpServerReadHeaderTimeout = 5 * time.Second
	DefaultCheckTimeout         = 2 * time.Second
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

type Options struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type status struct {
	Options
	Failed map[string]string `json:"failed,omitempty"`
}

// Server answers /healthz while the process is up and /readyz only while
// every named check passes within the check timeout.
type Server struct {
	listenAddress string
	options       Options
	checkTimeout  time.Duration
	checks        map[string]Check
}

func NewServer(listenAddress string, options Options) Server {
	return Server{
		listenAddress: listenAddress,
		options:       options,
		checkTimeout:  DefaultCheckTimeout,
		checks:        make(map[string]Check),
	}
}

func (s Server) WithCheck(name string, check Check) Server {
	checks := make(map[string]Check, len(s.checks)+1)
	for k, v := range s.checks {
		checks[k] = v
	}

	checks[name] = check
	s.checks = checks

	return s
}

func (s Server) WithCheckTimeout(d time.Duration) Server {
	if d > 0 {
		s.checkTimeout = d
	}

	return s
}

func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.write(w, http.StatusOK, status{Options: s.options})
	})
	mux.HandleFunc("GET /readyz", s.handleReady)

	return mux
}

func (s Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		//nolint:exhaustruct
		Addr:              s.listenAddress,
		Handler:           s.Handler(),
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

	logger(ctx).Info("probe server started", slog.String("address", s.listenAddress))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer.ListenAndServe: %w", err)
	}

	logger(ctx).Info("probe server stopped")

	return nil
}

func (s Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.checkTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		failed = make(map[string]string)
		g      errgroup.Group
	)

	for name, check := range s.checks {
		g.Go(func() error {
			if err := check(ctx); err != nil {
				mu.Lock()
				failed[name] = err.Error()
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	if len(failed) == 0 {
		s.write(w, http.StatusOK, status{Options: s.options})
		return
	}

	logger(ctx).Warn("not ready", slog.Any("failed", failed))
	s.write(w, http.StatusServiceUnavailable, status{Options: s.options, Failed: failed})
}

func (s Server) write(w http.ResponseWriter, code int, body status) {
	b, _ := json.Marshal(body) //nolint:errcheck,errchkjson

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b) //nolint:errcheck
}
