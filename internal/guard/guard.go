package guard

import (
	"net/url"

	"campushub/portal/internal/model"
	"campushub/portal/internal/session"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

type Outcome int

const (
	Allowed Outcome = iota
	DeniedAuth
	DeniedRole
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case DeniedAuth:
		return "denied: not authenticated"
	case DeniedRole:
		return "denied: role not permitted"
	default:
		return "unknown"
	}
}

// Request is a single navigation attempt: the target path, the role set the
// target demands (empty means any authenticated Principal), and the
// originating URL used for post-login return.
type Request struct {
	Path  string
	Roles []model.Role
	From  string
}

// Decision is the outcome of one guard evaluation plus the redirect target
// on denial. Redirect is empty iff the navigation is allowed.
type Decision struct {
	Outcome  Outcome
	Redirect string
}

// Evaluate runs the two checks in fixed order: authentication presence, then
// role membership. It reads only the session store, performs no network I/O,
// and caches nothing; every navigation attempt is judged against current
// session state.
func Evaluate(sessions *session.Store, req Request) Decision {
	if !sessions.IsAuthenticated() {
		return Decision{Outcome: DeniedAuth, Redirect: loginRedirect(req)}
	}

	if len(req.Roles) == 0 {
		return Decision{Outcome: Allowed}
	}

	user := sessions.Current()
	if user == nil {
		// Token present but no cached Principal; nothing to match a role
		// against.
		return Decision{Outcome: DeniedRole, Redirect: UnauthorizedPath}
	}

	for _, role := range req.Roles {
		if role == user.Role {
			return Decision{Outcome: Allowed}
		}
	}

	return Decision{Outcome: DeniedRole, Redirect: HomePath(user.Role)}
}

// HomePath maps a role to its own dashboard. Unknown roles land on the
// unauthorized page.
func HomePath(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return "/admin/dashboard"
	case model.RoleTeacher:
		return "/teacher/dashboard"
	case model.RoleStudent:
		return "/student/dashboard"
	default:
		return UnauthorizedPath
	}
}

func loginRedirect(req Request) string {
	returnURL := req.From
	if returnURL == "" {
		returnURL = req.Path
	}
	if returnURL == "" {
		return LoginPath
	}
	return LoginPath + "?returnUrl=" + url.QueryEscape(returnURL)
}
