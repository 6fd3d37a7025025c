package domain

import "fmt"

type RouteKind int

const (
	RouteKindProxy RouteKind = iota
	RouteKindStatic
)

func (k RouteKind) String() string {
	switch k {
	case RouteKindProxy:
		return "proxy"
	case RouteKindStatic:
		return "static"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Route is a fixed path -> handler pairing known at startup. Target is only
// set for proxy routes.
type Route struct {
	Path        string
	Target      string
	Description string
	Kind        RouteKind
}

func (r Route) IsProxy() bool {
	return r.Kind == RouteKindProxy
}
