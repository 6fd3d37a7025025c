package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/thushan/relay/internal/logger"
)

var (
	ErrDuplicateRoute = errors.New("route already registered")
	ErrRoutesFrozen   = errors.New("route table is frozen")
)

type contextKey string

const routePathKey contextKey = "route_path"

type RouteInfo struct {
	Handler     http.HandlerFunc
	Path        string
	Description string
	Method      string
	Target      string
	Order       int
	IsProxy     bool
}

// RouteRegistry is the ordered route table. Paths are unique and the table is
// frozen the moment it is wired into a mux.
type RouteRegistry struct {
	routes   map[string]RouteInfo
	logger   logger.StyledLogger
	orderSeq int
	wired    bool
	mu       sync.RWMutex
}

func NewRouteRegistry(logger logger.StyledLogger) *RouteRegistry {
	return &RouteRegistry{
		routes: make(map[string]RouteInfo),
		logger: logger,
	}
}

func (r *RouteRegistry) Register(route string, handler http.HandlerFunc, description string) error {
	return r.RegisterWithMethod(route, handler, description, http.MethodGet)
}

func (r *RouteRegistry) RegisterWithMethod(route string, handler http.HandlerFunc, description, method string) error {
	return r.register(RouteInfo{
		Path:        route,
		Handler:     handler,
		Description: description,
		Method:      method,
	})
}

// RegisterProxyRoute registers a GET route that forwards to target. The route
// path is placed on the request context, ahead of any proxy middleware, so
// stats can be attributed to it.
func (r *RouteRegistry) RegisterProxyRoute(route, target string, handler http.HandlerFunc, description string) error {
	return r.register(RouteInfo{
		Path:        route,
		Handler:     handler,
		Description: description,
		Method:      http.MethodGet,
		Target:      target,
		IsProxy:     true,
	})
}

func (r *RouteRegistry) register(info RouteInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.wired {
		return fmt.Errorf("%w: cannot add %s", ErrRoutesFrozen, info.Path)
	}
	if _, exists := r.routes[info.Path]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, info.Path)
	}

	info.Order = r.orderSeq
	r.routes[info.Path] = info
	r.orderSeq++
	return nil
}

// WireUp registers every route on mux and freezes the table
func (r *RouteRegistry) WireUp(mux *http.ServeMux) {
	r.WireUpWithMiddleware(mux)
}

// WireUpWithMiddleware is WireUp with middleware applied to proxy routes only,
// outermost first.
func (r *RouteRegistry) WireUpWithMiddleware(mux *http.ServeMux, proxyMiddleware ...func(http.Handler) http.Handler) {
	r.mu.Lock()
	r.wired = true
	r.mu.Unlock()

	for _, info := range r.GetRoutes() {
		var handler http.Handler = info.Handler
		if info.IsProxy {
			for i := len(proxyMiddleware) - 1; i >= 0; i-- {
				handler = proxyMiddleware[i](handler)
			}
			handler = withRoutePath(info.Path, handler)
		}
		mux.Handle(Pattern(info.Method, info.Path), handler)
	}
	r.logRoutesTable()
}

// Pattern builds the ServeMux pattern for a route. The root is matched exactly
// so it does not swallow every unknown path.
func Pattern(method, route string) string {
	if route == "/" {
		route = "/{$}"
	}
	if method == "" {
		return route
	}
	return strings.ToUpper(method) + " " + route
}

// GetRoutes returns the routes in registration order
func (r *RouteRegistry) GetRoutes() []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]RouteInfo, 0, len(r.routes))
	for _, info := range r.routes {
		routes = append(routes, info)
	}
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Order < routes[j].Order
	})
	return routes
}

func (r *RouteRegistry) IsFrozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.wired
}

func (r *RouteRegistry) logRoutesTable() {
	routes := r.GetRoutes()
	if len(routes) == 0 {
		return
	}

	tableData := [][]string{
		{"ROUTE", "METHOD", "TARGET", "DESCRIPTION"},
	}
	for _, info := range routes {
		target := info.Target
		if target == "" {
			target = "-"
		}
		tableData = append(tableData, []string{info.Path, info.Method, target, info.Description})
	}

	r.logger.InfoWithCount("Registered web routes", len(routes))
	if tableString, err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender(); err == nil {
		r.logger.Debug("Route table\n" + tableString)
	}
}

func withRoutePath(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := context.WithValue(req.Context(), routePathKey, route)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// RoutePathFromContext returns the proxy route that matched the request, if any
func RoutePathFromContext(ctx context.Context) (string, bool) {
	route, ok := ctx.Value(routePathKey).(string)
	return route, ok
}
