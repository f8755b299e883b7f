package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nuxleus/directhost/internal/demo"
	"github.com/nuxleus/directhost/pkg/container"
	"github.com/nuxleus/directhost/pkg/fixture"
	"github.com/nuxleus/directhost/pkg/servicetest"
)

// hostOptions select the services a command dispatches to.
type hostOptions struct {
	fixtures []string
	demo     bool
}

func (h *hostOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&h.fixtures, "fixtures", "f", nil, "Fixture files to load (glob, ** allowed; repeatable)")
	cmd.Flags().BoolVar(&h.demo, "demo", false, "Register the built-in SQLite item service")
}

// newFixture builds an in-process fixture with the selected services. The
// returned function releases the demo store.
func (h *hostOptions) newFixture(ctx context.Context, g *globalOptions) (*servicetest.Fixture, func(), error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := g.logger(cfg)

	f := servicetest.NewFixture(servicetest.WithConfig(cfg), servicetest.WithLogger(logger))
	cleanup := func() {}

	err = f.Configure(func(c *container.Container) error {
		if h.demo {
			closeStore, err := demo.Configure(ctx, c)
			if err != nil {
				return fmt.Errorf("demo store: %w", err)
			}
			cleanup = func() {
				if err := closeStore(); err != nil {
					logger.Warn("failed to close demo store", "error", err)
				}
			}
			if err := demo.Register(f.Controller()); err != nil {
				return err
			}
		}
		for _, pattern := range h.fixtures {
			set, err := fixture.LoadGlob(pattern)
			if err != nil {
				return err
			}
			if err := fixture.Register(f.Controller(), set); err != nil {
				return fmt.Errorf("%s: %w", pattern, err)
			}
			logger.Debug("loaded fixtures", "pattern", pattern, "routes", len(set.Routes))
		}
		return nil
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if len(f.Routes()) == 0 {
		cleanup()
		return nil, nil, ErrNoRoutes
	}
	return f, cleanup, nil
}
