package session

import "github.com/trezcool/maoni/core/account"

// Dashboard is the landing view selector. Invalid is a terminal error
// display, distinct from a not-authorized redirect.
type Dashboard int

const (
	DashboardLogin Dashboard = iota
	DashboardStudent
	DashboardTeacher
	DashboardAdmin
	DashboardInvalid
)

func (d Dashboard) String() string {
	switch d {
	case DashboardLogin:
		return "login"
	case DashboardStudent:
		return "student"
	case DashboardTeacher:
		return "teacher"
	case DashboardAdmin:
		return "admin"
	default:
		return "invalid"
	}
}

// RouteByRole is the deterministic total mapping from a resolved role to its
// dashboard. Anything outside the known set, including an unresolved role,
// maps to DashboardInvalid.
func RouteByRole(role account.Role) Dashboard {
	switch role {
	case account.RoleStudent:
		return DashboardStudent
	case account.RoleTeacher:
		return DashboardTeacher
	case account.RoleAdmin:
		return DashboardAdmin
	default:
		return DashboardInvalid
	}
}

// Router owns the landing dispatch and the history-navigation replay.
type Router struct {
	cache *Store
}

func NewRouter(cache *Store) *Router {
	return &Router{cache: cache}
}

// Replay re-derives the landing view from the warm-start cache on a
// back/forward navigation, without re-running authentication. The caller
// replaces the current history entry with the result so repeated back
// presses cannot loop through intermediate states. No cached role falls
// back to the unauthenticated entry view.
func (rt *Router) Replay() Dashboard {
	sess, ok := rt.cache.Get()
	if !ok {
		return DashboardLogin
	}
	return RouteByRole(sess.Role)
}
