package startup

import (
	"sort"
	"strings"

	"texture-index/internal/logging"

	"github.com/gorilla/mux"
)

// route is one method and path pair registered on the router.
type route struct {
	method string
	path   string
}

// LogHTTPRoutes prints the HTTP setup section. The full route table is
// only interesting when debugging, so it hides behind LOG_LEVEL=debug.
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		logRouteTable(router)
	}

	logging.Info("  Access log: health checks %s, static files %s",
		toggleWord(logHealthChecks), toggleWord(logStaticFiles))
}

func logRouteTable(router *mux.Router) {
	routes, err := collectRoutes(router)
	if err != nil {
		logging.Warn("  Route listing incomplete: %v", err)
	}

	sort.Slice(routes, func(i, j int) bool {
		gi, gj := routeGroup(routes[i].path), routeGroup(routes[j].path)
		if gi != gj {
			return gi < gj
		}
		return routes[i].path < routes[j].path
	})

	logging.Debug("  Registered routes (%d):", len(routes))
	current, opened := "", false
	for _, r := range routes {
		if g := routeGroup(r.path); !opened || g != current {
			current, opened = g, true
			if g == "" {
				g = "root"
			}
			logging.Debug("  [%s]", g)
		}
		logging.Debug("    %-6s %s", r.method, r.path)
	}
}

// collectRoutes flattens the mux route table. Routes registered without
// methods, like static file mounts, come back with a "*" method.
func collectRoutes(router *mux.Router) ([]route, error) {
	var routes []route
	err := router.Walk(func(r *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := r.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := r.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, method := range methods {
			routes = append(routes, route{method: method, path: path})
		}
		return nil
	})
	return routes, err
}

// routeGroup buckets a path for the debug listing. API routes keep their
// second segment so /api/search and /api/textures list separately.
func routeGroup(path string) string {
	segments := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if segments[0] == "api" && len(segments) > 1 {
		return "api/" + segments[1]
	}
	return segments[0]
}

func toggleWord(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
