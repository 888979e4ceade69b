package handler

import (
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
)

// RouteMatcher matches routes
type RouteMatcher interface {
	Match(r *http.Request) string
}

// MuxRouteMatcher matches routes for a mux router
type MuxRouteMatcher struct {
	Router *mux.Router
}

// Variable patterns such as {tag:[a-zA-Z_]+} are reduced to {tag}
var variablePattern = regexp.MustCompile(`\{([^{}:]+):(?:[^{}]|\{[^{}]*\})*\}`)

// Match returns the mux route name of a given request, falling back to the path template without variable patterns
// Unmatched requests share a single "unknown" label so metrics stay bounded
func (m *MuxRouteMatcher) Match(r *http.Request) string {
	var routeMatch mux.RouteMatch
	// The Route can be nil even on a Match, if a NotFoundHandler is specified
	if m.Router.Match(r, &routeMatch) && routeMatch.Route != nil {
		if routeName := routeMatch.Route.GetName(); routeName != "" {
			return routeName
		}

		if tmpl, err := routeMatch.Route.GetPathTemplate(); err == nil {
			return variablePattern.ReplaceAllString(tmpl, "{$1}")
		}
	}

	return "unknown"
}
