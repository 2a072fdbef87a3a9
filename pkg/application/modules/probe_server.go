package modules

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fareglitch/pkg/probe"
)

// ProbeServer serves liveness and readiness. Checks are keyed by the
// dependency name reported back on failure.
type ProbeServer struct {
	Name          string
	Version       string
	ListenAddress string
	CheckTimeout  time.Duration
	Checks        map[string]probe.Check
}

func (p ProbeServer) Run(ctx context.Context, g *errgroup.Group) {
	s := probe.NewServer(p.ListenAddress, probe.Options{Name: p.Name, Version: p.Version}).
		WithCheckTimeout(p.CheckTimeout)

	for name, check := range p.Checks {
		s = s.WithCheck(name, check)
	}

	g.Go(func() error {
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("probe.Server.Run: %w", err)
		}

		return nil
	})
}
