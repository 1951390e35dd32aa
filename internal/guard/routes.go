package guard

import (
	"strings"

	"campushub/portal/internal/model"
)

// Route attaches an access requirement to a path prefix. A protected route
// with no roles admits any authenticated Principal.
type Route struct {
	Prefix    string
	Protected bool
	Roles     []model.Role
}

// Table is the portal's route map. Longest matching prefix wins.
var Table = []Route{
	{Prefix: "/login"},
	{Prefix: "/register"},
	{Prefix: "/unauthorized"},
	{Prefix: "/admin", Protected: true, Roles: []model.Role{model.RoleAdmin}},
	{Prefix: "/teacher", Protected: true, Roles: []model.Role{model.RoleTeacher}},
	{Prefix: "/student", Protected: true, Roles: []model.Role{model.RoleStudent}},
	{Prefix: "/notifications", Protected: true},
	{Prefix: "/profile", Protected: true},
}

// Resolve finds the route governing path. The second return is false for
// paths outside the table; the portal treats those as public.
func Resolve(path string) (Route, bool) {
	var best Route
	found := false
	for _, route := range Table {
		if !matchesPrefix(path, route.Prefix) {
			continue
		}
		if !found || len(route.Prefix) > len(best.Prefix) {
			best = route
			found = true
		}
	}
	return best, found
}

// RequestFor builds the navigation attempt for a bare path using the route
// table. The second return is false when no guard applies to the path.
func RequestFor(path string) (Request, bool) {
	route, ok := Resolve(path)
	if !ok || !route.Protected {
		return Request{Path: path}, false
	}
	return Request{Path: path, Roles: route.Roles}, true
}

func matchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
