// Package gate decides which variant of a page a session may see.
package gate

import (
	"investorconnect/internal/app/session"
	"investorconnect/internal/core/domain"
)

// LoginRoute is where guests are sent
const LoginRoute = "/login"

// Variant is one of the mutually exclusive renderings of a gated page
type Variant int

const (
	// Guest: nobody signed in; show a prompt linking to LoginRoute
	Guest Variant = iota
	// WrongRole: signed in with a role other than the required one
	WrongRole
	// Allowed: render the functional page
	Allowed
	// Redirect: leave the page for RedirectTo
	Redirect
)

func (v Variant) String() string {
	switch v {
	case Guest:
		return "guest"
	case WrongRole:
		return "wrong-role"
	case Allowed:
		return "allowed"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Rule describes who may use a page
type Rule struct {
	// Required is the role needed for the functional page. Empty means
	// any signed-in identity, or anyone when RequireSignIn is false.
	Required      domain.Role
	RequireSignIn bool
	// GuestRedirect sends guests elsewhere instead of showing a prompt
	GuestRedirect string

	GuestMessage     string
	ForbiddenMessage string
}

// Decision is the outcome of evaluating a Rule
type Decision struct {
	Variant    Variant
	Message    string
	LoginRoute string
	RedirectTo string
}

// Public is a rule that admits everyone
func Public() Rule {
	return Rule{}
}

// SignedIn admits any identity and redirects guests to the login page
func SignedIn() Rule {
	return Rule{RequireSignIn: true, GuestRedirect: LoginRoute}
}

// ForCreator guards the submission form of a listing kind
func ForCreator(k domain.KindSpec) Rule {
	return Rule{
		Required:         k.CreatorRole,
		RequireSignIn:    true,
		GuestMessage:     k.LoginRequired,
		ForbiddenMessage: k.SubmitForbidden,
	}
}

// Evaluate reads st and yields exactly one variant
func (r Rule) Evaluate(st session.State) Decision {
	if !r.RequireSignIn && r.Required == "" {
		return Decision{Variant: Allowed}
	}

	if !st.SignedIn() {
		if r.GuestRedirect != "" {
			return Decision{Variant: Redirect, RedirectTo: r.GuestRedirect}
		}
		return Decision{Variant: Guest, Message: r.GuestMessage, LoginRoute: LoginRoute}
	}

	if r.Required != "" && !st.HasRole(r.Required) {
		return Decision{Variant: WrongRole, Message: r.ForbiddenMessage, LoginRoute: LoginRoute}
	}

	return Decision{Variant: Allowed}
}
