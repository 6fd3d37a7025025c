package app

import (
	"fmt"

	"github.com/thushan/relay/internal/core/constants"
	"github.com/thushan/relay/internal/core/domain"
)

func (a *Application) registerRoutes() error {
	register := func(err error) error {
		if err != nil {
			return fmt.Errorf("failed to register route: %w", err)
		}
		return nil
	}

	if err := register(a.registry.Register(constants.DefaultRootPath, a.indexHandler, "Landing page")); err != nil {
		return err
	}

	for _, rc := range a.config.Proxy.Routes {
		route := domain.Route{
			Path:        rc.Path,
			Target:      rc.Target,
			Description: rc.Description,
			Kind:        domain.RouteKindProxy,
		}
		if err := register(a.registry.RegisterProxyRoute(route.Path, route.Target, a.proxyHandler(route), route.Description)); err != nil {
			return err
		}
	}

	if err := register(a.registry.Register(constants.DefaultHealthCheckEndpoint, a.healthHandler, "Health check")); err != nil {
		return err
	}
	if err := register(a.registry.Register(constants.DefaultStatusEndpoint, a.statusHandler, "Route status")); err != nil {
		return err
	}
	return register(a.registry.Register(constants.DefaultVersionEndpoint, a.versionHandler, "Version information"))
}
