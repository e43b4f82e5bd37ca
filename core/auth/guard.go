package auth

import "github.com/trezcool/tutorhub/core/profile"

// The guard decides, per navigation, whether the current session may reach
// a requested view. It has no memory across navigations: every decision is
// re-derived from the current state and the view's required roles.

type State struct {
	Loading  bool // session resolution in flight
	LoggedIn bool
	Role     profile.Role // zero value until the profile resolves
}

type Decision int

const (
	// DecisionPending: render a neutral loading state, do not redirect.
	DecisionPending Decision = iota
	// DecisionAllow: render the requested view.
	DecisionAllow
	// DecisionRedirectLogin: no user once loaded.
	DecisionRedirectLogin
	// DecisionRedirectHome: user present but role not allowed; send to the
	// role's home view.
	DecisionRedirectHome
)

// RoleSet is the set of roles a view requires. An empty set admits any
// authenticated user.
type RoleSet []profile.Role

func (rs RoleSet) Contains(r profile.Role) bool {
	for _, allowed := range rs {
		if allowed == r {
			return true
		}
	}
	return false
}

// Resolve evaluates the guard. Denial always redirects; the protected view
// is never rendered for a denied state.
func Resolve(st State, required RoleSet) Decision {
	if st.Loading {
		return DecisionPending
	}
	if !st.LoggedIn {
		return DecisionRedirectLogin
	}
	if len(required) > 0 && !required.Contains(st.Role) {
		return DecisionRedirectHome
	}
	return DecisionAllow
}

// Fallback resolves an unmatched path: same as the wrong-role branch,
// keyed off the current role alone. There is no 404 state.
func Fallback(st State) string {
	if !st.LoggedIn {
		return "/login"
	}
	return st.Role.Home()
}
