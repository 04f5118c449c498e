// Package access decides whether a navigation target may proceed for the
// current session state.
package access

import (
	"context"
	"net/url"

	"taxdesk/internal/session"
)

// Requirement declares what a target demands of the caller.
type Requirement struct {
	roles []string // empty means any authenticated principal
}

// Authenticated requires a signed-in principal of any role.
func Authenticated() Requirement {
	return Requirement{}
}

// RoleIn requires the principal's employee role to be one of roles.
func RoleIn(roles ...string) Requirement {
	return Requirement{roles: roles}
}

// DecisionKind enumerates gate outcomes.
type DecisionKind int

const (
	// DecisionWait means the session has not resolved yet; render a
	// placeholder and decide later. Deciding now would flash a redirect
	// at a caller who is actually signed in.
	DecisionWait DecisionKind = iota
	DecisionAllow
	DecisionRedirect
)

// Decision is the gate's verdict. Target is set for redirects.
type Decision struct {
	Kind   DecisionKind
	Target string
}

func wait() Decision            { return Decision{Kind: DecisionWait} }
func allow() Decision           { return Decision{Kind: DecisionAllow} }
func redirect(t string) Decision { return Decision{Kind: DecisionRedirect, Target: t} }

// RoleSource resolves a principal's employee role. An authenticated
// principal with no employee record resolves to the empty role, which fails
// every RoleIn check; the lookup never turns into a gate error.
type RoleSource interface {
	RoleOf(ctx context.Context, principal *session.Principal) (string, error)
}

// Gate authorizes navigation targets against declared requirements.
type Gate struct {
	roles     RoleSource
	loginPath string
	homePath  string
}

func NewGate(roles RoleSource, loginPath, homePath string) *Gate {
	return &Gate{roles: roles, loginPath: loginPath, homePath: homePath}
}

// Authorize evaluates requirement against the session state. requested is
// the originally requested path; when non-empty it rides along on the login
// redirect so the caller can return there after signing in.
func (g *Gate) Authorize(ctx context.Context, req Requirement, st session.State, requested string) Decision {
	switch st.Status {
	case session.StatusLoading:
		return wait()
	case session.StatusAnonymous:
		return redirect(g.loginTarget(requested))
	}

	if len(req.roles) == 0 {
		return allow()
	}

	role, err := g.roles.RoleOf(ctx, st.Principal)
	if err != nil {
		// Treat an unresolvable role as no role: the check fails, the
		// caller lands on home instead of an error page.
		role = ""
	}
	for _, r := range req.roles {
		if r != "" && r == role {
			return allow()
		}
	}
	return redirect(g.homePath)
}

func (g *Gate) loginTarget(requested string) string {
	if requested == "" {
		return g.loginPath
	}
	return g.loginPath + "?next=" + url.QueryEscape(requested)
}
