// Package gate decides which pages a visitor may reach based on the state of
// their session. Every function here is pure: it reads a state and returns a
// Decision, and never touches the session store.
package gate

import "github.com/mandalnilabja/roboadmin/internal/session"

// Default routes used when a Gate is built with empty paths.
const (
	DefaultLoginPath   = "/login"
	DefaultLandingPath = "/admin"
)

// State is the authentication state a guard is evaluated against.
type State int

const (
	// Unknown means persisted sessions have not been rehydrated yet.
	Unknown State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// StateOf derives the gate state from a session snapshot. Before
// rehydration completes the state is Unknown regardless of the snapshot.
func StateOf(snap session.Session, rehydrated bool) State {
	if !rehydrated {
		return Unknown
	}
	if snap.IsAuthenticated {
		return Authenticated
	}
	return Unauthenticated
}

// Action is what the HTTP layer should do with a request.
type Action int

const (
	Render Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "render"
}

// Decision is the outcome of a guard. Target is set only for redirects.
type Decision struct {
	Action Action
	Target string
}

// RenderPage renders the wrapped content.
func RenderPage() Decision {
	return Decision{Action: Render}
}

// RedirectTo sends the visitor to path.
func RedirectTo(path string) Decision {
	return Decision{Action: Redirect, Target: path}
}

// IsRedirect reports whether d redirects.
func (d Decision) IsRedirect() bool {
	return d.Action == Redirect
}

// Gate holds the two routes guards redirect to.
type Gate struct {
	LoginPath   string
	LandingPath string
}

// New returns a Gate using the default login and landing paths.
func New() Gate {
	return Gate{LoginPath: DefaultLoginPath, LandingPath: DefaultLandingPath}
}

func (g Gate) login() string {
	if g.LoginPath == "" {
		return DefaultLoginPath
	}
	return g.LoginPath
}

func (g Gate) landing() string {
	if g.LandingPath == "" {
		return DefaultLandingPath
	}
	return g.LandingPath
}

// PublicOnly guards pages meant for signed-out visitors, such as the login
// page. Authenticated visitors are sent to the landing page.
func (g Gate) PublicOnly(s State) Decision {
	if s == Authenticated {
		return RedirectTo(g.landing())
	}
	return RenderPage()
}

// RequireSession guards every page that needs a session. Anything other than
// Authenticated is sent to the login page.
func (g Gate) RequireSession(s State) Decision {
	if s != Authenticated {
		return RedirectTo(g.login())
	}
	return RenderPage()
}

// Root resolves "/" which never renders content of its own: it goes wherever
// RequireSession would send the visitor, or to the landing page when the
// session is valid.
func (g Gate) Root(s State) Decision {
	if d := g.RequireSession(s); d.IsRedirect() {
		return d
	}
	return RedirectTo(g.landing())
}
