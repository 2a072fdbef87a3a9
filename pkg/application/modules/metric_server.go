package modules

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fareglitch/pkg/logx"
	"fareglitch/pkg/metrics"
)

type MetricServer struct {
	ListenAddress string
	Namespace     string
	Name          string
	Version       string
}

func (m MetricServer) Run(ctx context.Context, g *errgroup.Group) {
	prometheusServer := metrics.NewPrometheusServer(m.ListenAddress)

	if m.Version != "" {
		if err := prometheusServer.RegisterBuildInfo(m.Namespace, m.Name, m.Version); err != nil {
			logger(ctx).Warn("build info not registered", logx.Error(err))
		}
	}

	g.Go(func() error {
		if err := prometheusServer.Run(ctx); err != nil {
			return fmt.Errorf("prometheusServer.Run: %w", err)
		}

		return nil
	})
}
