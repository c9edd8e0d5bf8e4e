package views

import (
	"fmt"
	"net/url"
	"strings"

	"investorconnect/internal/app/diagnostics"
	"investorconnect/internal/app/listing"
	"investorconnect/internal/core/domain"
)

// PageName identifies a page of the route surface
type PageName string

const (
	PageHome        PageName = "home"
	PageLogin       PageName = "login"
	PageRegister    PageName = "register"
	PageDashboard   PageName = "dashboard"
	PageList        PageName = "list"
	PageNew         PageName = "new"
	PageDetail      PageName = "detail"
	PageDiagnostics PageName = "diagnostics"
	PageNotFound    PageName = "not-found"
)

// Route is a parsed client route
type Route struct {
	Path   string
	Page   PageName
	Kind   domain.KindSpec
	ID     string
	Params listing.Params
}

// Match parses a route such as "/loan-details?category=MSME%20Loan" or
// "/info/abc123". Unknown paths yield PageNotFound.
func Match(raw string) (Route, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Route{}, fmt.Errorf("parse route %q: %w", raw, err)
	}

	path := "/" + strings.Trim(u.Path, "/")
	q := u.Query()
	r := Route{
		Path:   path,
		Params: listing.Params{Category: q.Get("category"), Search: q.Get("q")},
	}

	switch path {
	case "/":
		r.Page = PageHome
		return r, nil
	case "/login":
		r.Page = PageLogin
		return r, nil
	case "/register":
		r.Page = PageRegister
		return r, nil
	case "/dashboard":
		r.Page = PageDashboard
		return r, nil
	case diagnostics.Route:
		r.Page = PageDiagnostics
		return r, nil
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	k, ok := domain.KindForRoute("/" + segments[0])
	if !ok || len(segments) > 2 {
		r.Page = PageNotFound
		return r, nil
	}
	r.Kind = k

	switch {
	case len(segments) == 1:
		r.Page = PageList
	case segments[1] == "new":
		r.Page = PageNew
	default:
		r.Page = PageDetail
		r.ID = segments[1]
	}
	return r, nil
}
