// Package views renders the client route surface as terminal text.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"investorconnect/internal/app/detail"
	"investorconnect/internal/app/diagnostics"
	"investorconnect/internal/app/gate"
	"investorconnect/internal/app/listing"
	"investorconnect/internal/app/session"
	"investorconnect/internal/app/submission"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/docstore"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// StateReader exposes the session state pages render from
type StateReader interface {
	Current() session.State
}

// Deps are the components pages read from
type Deps struct {
	Session StateReader
	Store   docstore.Store
	Fetcher *listing.Fetcher
	Loader  *detail.Loader
	Form    *submission.Form
	Probe   *diagnostics.Probe
	Log     *zap.Logger
}

// Page is one rendered route
type Page struct {
	Route Route
	Title string
	Body  string
	// Flash is a one-off message carried across a navigation
	Flash string
	// Redirect is set when the route sent the viewer elsewhere
	Redirect string
}

// App renders pages
type App struct {
	deps   Deps
	styles Styles
}

// New creates the renderer; w decides whether colors are used
func New(deps Deps, w io.Writer) *App {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &App{deps: deps, styles: NewStyles(w)}
}

// Open renders raw, following at most one redirect
func (a *App) Open(ctx context.Context, raw string) (Page, error) {
	return a.open(ctx, raw, "")
}

func (a *App) open(ctx context.Context, raw, flash string) (Page, error) {
	r, err := Match(raw)
	if err != nil {
		return Page{}, err
	}
	p := a.page(ctx, r)
	p.Flash = flash
	if p.Redirect == "" {
		return p, nil
	}

	a.deps.Log.Debug("redirect", zap.String("from", r.Path), zap.String("to", p.Redirect))
	next, err := Match(p.Redirect)
	if err != nil {
		return Page{}, err
	}
	out := a.page(ctx, next)
	out.Flash = flash
	out.Redirect = p.Redirect
	return out, nil
}

// Submit posts a listing and, on success, navigates to the dashboard
// with the success message.
func (a *App) Submit(ctx context.Context, k domain.KindSpec, input map[string]string) (Page, error) {
	res, err := a.deps.Form.Submit(ctx, a.deps.Session.Current(), k, input)
	if err != nil {
		return Page{}, err
	}
	return a.open(ctx, res.Navigate, res.Message)
}

func (a *App) page(ctx context.Context, r Route) Page {
	st := a.deps.Session.Current()
	switch r.Page {
	case PageHome:
		return a.home(r, st)
	case PageLogin:
		return a.login(r, st)
	case PageRegister:
		return a.register(r, st)
	case PageDashboard:
		return a.dashboard(ctx, r, st)
	case PageList:
		return a.list(ctx, r, st)
	case PageNew:
		return a.newListing(r, st)
	case PageDetail:
		return a.detail(ctx, r, st)
	case PageDiagnostics:
		return a.diagnostics(ctx, r)
	default:
		return Page{
			Route: r,
			Title: "Page not found",
			Body:  fmt.Sprintf("Nothing lives at %s.\n\n%s", r.Path, a.link("Home", "/")),
		}
	}
}

// Render lays out navigation, flash, title and body
func (a *App) Render(p Page) string {
	s := a.styles
	var b strings.Builder
	b.WriteString(a.Nav(a.deps.Session.Current()))
	b.WriteString("\n\n")
	if p.Flash != "" {
		b.WriteString(s.Success.Render(p.Flash))
		b.WriteString("\n\n")
	}
	b.WriteString(s.Title.Render(p.Title))
	b.WriteString("\n")
	b.WriteString(p.Body)
	b.WriteString("\n")
	return b.String()
}

// Nav renders the navigation bar for st
func (a *App) Nav(st session.State) string {
	s := a.styles
	items := []string{a.link("Home", "/")}
	if !st.SignedIn() {
		items = append(items, a.link("Login", "/login"), a.link("Register", "/register"))
	} else {
		items = append(items,
			a.link("Dashboard", "/dashboard"),
			a.link("Business Ideas", "/business-proposals"),
			a.link("Investment Opportunities", "/investor-proposals"),
			a.link("Loan Options", "/loan-details"),
			a.link("Business Info", "/info"),
		)
		if label, route, ok := postLink(st.RoleOrEmpty()); ok {
			items = append(items, a.link(label, route))
		}
		items = append(items, s.Nav.Render("Logout (investorconnect logout)"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, s.Brand.Render("InvestorConnect"), "  ", s.Nav.Render(strings.Join(items, " | ")))
}

func postLink(r domain.Role) (label, route string, ok bool) {
	k, ok := domain.KindForCreator(r)
	if !ok {
		return "", "", false
	}
	switch r {
	case domain.RoleInvestor:
		label = "Post Investment"
	case domain.RoleBusiness:
		label = "Post Idea"
	case domain.RoleBanker:
		label = "Post Loan Details"
	default:
		label = "Post Information"
	}
	return label, k.NewRoute(), true
}

func (a *App) link(label, route string) string {
	return label + " " + a.styles.Link.Render("("+route+")")
}

func (a *App) home(r Route, st session.State) Page {
	s := a.styles
	var b strings.Builder
	b.WriteString("InvestorConnect bridges the gap between investors looking for high-return opportunities\n")
	b.WriteString("and entrepreneurs with innovative business ideas.\n\n")
	if st.SignedIn() {
		b.WriteString(a.link("Go to Dashboard", "/dashboard"))
	} else {
		b.WriteString(a.link("Get Started", "/register") + "   " + a.link("Sign In", "/login"))
	}
	b.WriteString("\n\n")

	b.WriteString(s.Heading.Render("How It Works") + "\n")
	steps := [][2]string{
		{"Register as an Investor or Business Owner", "Create your account, set up your profile, and specify your interests or business details."},
		{"Post Ideas or Investment Opportunities", "Business owners can share their ideas and funding needs, while investors can post their investment criteria."},
		{"Connect and Collaborate", "Browse proposals, connect with potential partners, and start building successful businesses together."},
	}
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, step[0], s.Muted.Render(step[1]))
	}

	b.WriteString("\n" + s.Heading.Render("Platform Features") + "\n")
	features := [][2]string{
		{"Networking", "Connect with investors and entrepreneurs across India"},
		{"Opportunity Matching", "Find the perfect match for your business or investment needs"},
		{"Financial Resources", "Access loan information and banking resources"},
		{"Expert Advice", "Get guidance from business advisors and industry experts"},
	}
	for _, f := range features {
		fmt.Fprintf(&b, "- %s: %s\n", f[0], s.Muted.Render(f[1]))
	}

	b.WriteString("\n" + s.Heading.Render("Ready to Start Your Journey?") + "\n")
	b.WriteString("Join our platform today and be part of India's growing entrepreneurial ecosystem.\n")
	if st.SignedIn() {
		b.WriteString(a.link("Go to Dashboard", "/dashboard"))
	} else {
		b.WriteString(a.link("Register Now", "/register"))
	}

	return Page{Route: r, Title: "Connect Investors with Promising Business Ideas", Body: b.String()}
}

func (a *App) login(r Route, st session.State) Page {
	var b strings.Builder
	if st.SignedIn() {
		fmt.Fprintf(&b, "Signed in as %s.\n\n", st.Identity.Email)
	}
	b.WriteString("Sign in with:\n\n")
	b.WriteString("  investorconnect login --email you@example.com\n\n")
	b.WriteString("The password is read from --password, or from the first line of standard input.\n")
	b.WriteString("Don't have an account? " + a.link("Register", "/register"))
	return Page{Route: r, Title: "Sign in to your account", Body: b.String()}
}

func (a *App) register(r Route, st session.State) Page {
	s := a.styles
	var b strings.Builder
	b.WriteString("Create an account with:\n\n")
	b.WriteString("  investorconnect register --name \"Your Name\" --email you@example.com --role investor\n\n")
	b.WriteString(s.Label.Render("Roles") + "\n")
	for _, role := range domain.Roles() {
		fmt.Fprintf(&b, "  %-9s %s\n", role, s.Muted.Render("Register as "+role.Label()))
	}
	b.WriteString("\nPasswords need at least 6 characters.\n")
	b.WriteString("Already have an account? " + a.link("Sign in", "/login"))
	return Page{Route: r, Title: "Create a new account", Body: b.String()}
}

func (a *App) list(ctx context.Context, r Route, st session.State) Page {
	s := a.styles
	k := r.Kind
	res := a.deps.Fetcher.Load(ctx, k, r.Params)

	var b strings.Builder
	category := r.Params.Category
	if category == "" {
		category = k.AllCategoriesLabel
	}
	fmt.Fprintf(&b, "%s %s", s.Label.Render("Filter:"), category)
	if r.Params.Search != "" {
		fmt.Fprintf(&b, "  %s %q", s.Label.Render("Search:"), r.Params.Search)
	}
	b.WriteString("\n" + s.Muted.Render(fmt.Sprintf("Add ?category=<name> or ?q=<text> to %s. Categories: %s", k.Route, strings.Join(k.Categories, ", "))) + "\n\n")

	if res.Message != "" {
		style := s.Warning
		if res.Outcome.Status == listing.StatusFailed {
			style = s.Error
		}
		b.WriteString(style.Render(res.Message) + "\n")
		if res.CreateRoute != "" {
			b.WriteString(a.link("Add "+k.Noun, res.CreateRoute) + "\n")
		}
		return Page{Route: r, Title: listTitle(k), Body: b.String()}
	}

	for _, d := range res.Documents {
		b.WriteString(s.Card.Render(a.summary(k, d)))
		b.WriteString("\n\n")
	}
	if st.HasRole(k.CreatorRole) {
		b.WriteString(a.link("Post new", k.NewRoute()))
	}
	return Page{Route: r, Title: listTitle(k), Body: strings.TrimRight(b.String(), "\n")}
}

func listTitle(k domain.KindSpec) string {
	switch k.Kind {
	case domain.KindBusinessProposal:
		return "Business Proposals"
	case domain.KindInvestorProposal:
		return "Investment Opportunities"
	case domain.KindLoanDetail:
		return "Loan Options"
	default:
		return "Business Information"
	}
}

// summary is the card shown for one document in a list
func (a *App) summary(k domain.KindSpec, d docstore.Document) string {
	s := a.styles
	lines := []string{s.Heading.Render(d.String("title"))}

	switch k.Kind {
	case domain.KindBusinessProposal:
		var p domain.BusinessProposal
		a.decode(k.Collection, d, &p)
		lines = append(lines,
			p.Category,
			"Required Investment: "+rupees(p.InvestmentAmount),
			fmt.Sprintf("Equity Offered: %s%%", number(p.Equity)),
		)
	case domain.KindInvestorProposal:
		var p domain.InvestorProposal
		a.decode(k.Collection, d, &p)
		lines = append(lines,
			fmt.Sprintf("Investment Range: %s - %s", rupees(p.MinAmount), rupees(p.MaxAmount)),
			"Interested in: "+strings.Join(p.Categories, ", "),
		)
	case domain.KindLoanDetail:
		var l domain.LoanDetail
		a.decode(k.Collection, d, &l)
		lines = append(lines,
			fmt.Sprintf("%s · %s", l.BankName, l.LoanType),
			fmt.Sprintf("Interest Rate: %s%%", number(l.InterestRate)),
			fmt.Sprintf("Amount: %s - %s", rupees(l.MinAmount), rupees(l.MaxAmount)),
		)
	default:
		var info domain.BusinessInfo
		a.decode(k.Collection, d, &info)
		lines = append(lines, info.Category)
		if len(info.Tags) > 0 {
			lines = append(lines, "Tags: "+strings.Join(info.Tags, ", "))
		}
	}

	if by := d.String("creatorName"); by != "" {
		lines = append(lines, s.Muted.Render("Posted by "+by))
	}
	lines = append(lines, a.link("View details", k.DetailRoute(d.ID)))
	return strings.Join(lines, "\n")
}

// decode fills out from d; a malformed document renders with zero values
func (a *App) decode(collection string, d docstore.Document, out interface{}) {
	if err := domain.Decode(d.Data, out); err != nil {
		a.deps.Log.Debug("malformed document",
			zap.String("collection", collection),
			zap.String("id", d.ID),
			zap.Error(err))
	}
}

func (a *App) newListing(r Route, st session.State) Page {
	s := a.styles
	k := r.Kind
	title := "Post " + k.Noun
	d := gate.ForCreator(k).Evaluate(st)

	switch d.Variant {
	case gate.Guest, gate.WrongRole:
		body := s.Error.Render(d.Message) + "\n" + a.link("Go to Login", d.LoginRoute)
		return Page{Route: r, Title: title, Body: body}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Submit with:\n\n  investorconnect submit %s --field title=... --field ...\n\n", k.Kind)
	b.WriteString(s.Label.Render("Fields") + "\n")
	for _, f := range submission.Fields(k.Kind) {
		req := ""
		if f.Required {
			req = " *"
		}
		fmt.Fprintf(&b, "  %-18s %s%s", f.Name, f.Label, req)
		switch f.Type {
		case submission.Number:
			b.WriteString(s.Muted.Render(" (number)"))
		case submission.Choice:
			b.WriteString(s.Muted.Render(" (one of: " + strings.Join(f.Options, ", ") + ")"))
		case submission.MultiChoice:
			b.WriteString(s.Muted.Render(" (comma-separated: " + strings.Join(f.Options, ", ") + ")"))
		case submission.List:
			b.WriteString(s.Muted.Render(" (comma-separated)"))
		}
		b.WriteString("\n")
	}
	b.WriteString(s.Muted.Render("contactEmail defaults to " + st.Identity.Email))
	if a.deps.Form != nil && a.deps.Form.Mode() == submission.PersistLegacy {
		b.WriteString("\n" + s.Warning.Render("forms.persist_mode is legacy: submissions are not saved"))
	}
	return Page{Route: r, Title: title, Body: b.String()}
}

func (a *App) detail(ctx context.Context, r Route, st session.State) Page {
	s := a.styles
	k := r.Kind
	v := a.deps.Loader.Load(ctx, st, k, r.ID)

	var b strings.Builder
	if !v.Loaded() {
		b.WriteString(s.Error.Render(v.Message) + "\n")
		if v.DiagnosticsRoute != "" {
			b.WriteString(a.link("Test connection", v.DiagnosticsRoute) + "\n")
		}
		b.WriteString(a.link("Back", v.BackRoute))
		return Page{Route: r, Title: strings.ToUpper(k.Noun[:1]) + k.Noun[1:], Body: b.String()}
	}

	for _, f := range submission.Fields(k.Kind) {
		if f.Name == "contactEmail" || f.Name == "contactPhone" {
			continue
		}
		val := display(v.Document.Data[f.Name])
		if val == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", s.Label.Render(f.Label+":"), val)
	}
	if by := v.Document.String("creatorName"); by != "" {
		fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Posted by:"), by)
	}
	if at := v.Document.String("createdAt"); at != "" {
		fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Posted on:"), at)
	}

	switch {
	case v.Contact != nil:
		var c strings.Builder
		c.WriteString(s.Heading.Render("Contact Information") + "\n")
		if v.Contact.Email != "" {
			fmt.Fprintf(&c, "Email: %s\n", s.Link.Render(v.Contact.MailTo))
		}
		if v.Contact.Phone != "" {
			fmt.Fprintf(&c, "Phone: %s\n", s.Link.Render(v.Contact.Tel))
		}
		if v.Contact.Compose != "" {
			fmt.Fprintf(&c, "Contact: %s", s.Link.Render(v.Contact.Compose))
		}
		b.WriteString("\n" + s.Card.Render(strings.TrimRight(c.String(), "\n")) + "\n")
	case v.ContactPrompt != "":
		b.WriteString("\n" + s.Info.Render(v.ContactPrompt) + "\n")
		b.WriteString(a.link("Sign In", v.PromptRoutes[0]) + "   " + a.link("Register", v.PromptRoutes[1]) + "\n")
	}

	b.WriteString("\n" + a.link("Back", v.BackRoute))
	if v.EditRoute != "" {
		b.WriteString("   " + a.link("Edit", v.EditRoute))
	}
	return Page{Route: r, Title: v.Document.String("title"), Body: b.String()}
}

func (a *App) diagnostics(ctx context.Context, r Route) Page {
	s := a.styles
	rep := a.deps.Probe.Run(ctx)

	yesNo := func(ok bool) string {
		if ok {
			return s.Success.Render("Success")
		}
		return s.Error.Render("Failed")
	}

	var b strings.Builder
	b.WriteString(s.Heading.Render("Identity") + "\n")
	initialized := "No"
	if rep.IdentityInitialized {
		initialized = "Yes"
	}
	fmt.Fprintf(&b, "Initialized: %s\n\n", initialized)

	b.WriteString(s.Heading.Render("Document store") + "\n")
	fmt.Fprintf(&b, "Write Test: %s\n", yesNo(rep.Write))
	if rep.WriteError != "" {
		fmt.Fprintf(&b, "  %s\n", s.Error.Render(rep.WriteError))
	}
	fmt.Fprintf(&b, "Read Test: %s\n", yesNo(rep.Read))
	if rep.ReadError != "" {
		fmt.Fprintf(&b, "  %s\n", s.Error.Render(rep.ReadError))
	}

	b.WriteString("\n" + s.Heading.Render("Collections") + "\n")
	var hints []string
	for _, c := range rep.Collections {
		if c.Exists {
			fmt.Fprintf(&b, "- %s: Exists (%d documents)\n", c.Name, c.Count)
			continue
		}
		fmt.Fprintf(&b, "- %s: Does not exist\n", c.Name)
		if c.IndexHint != "" {
			hints = append(hints, c.IndexHint)
		}
	}
	if rep.ReadIndexHint != "" {
		hints = append(hints, rep.ReadIndexHint)
	}
	if len(hints) > 0 {
		b.WriteString("\n" + s.Warning.Render("Missing indexes. Declare them on the server with:") + "\n")
		fmt.Fprintf(&b, "  DOCSTORE_INDEXES=%q\n", strings.Join(hints, ";"))
	}
	return Page{Route: r, Title: "Connection Test", Body: strings.TrimRight(b.String(), "\n")}
}

// display formats a field value
func display(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return number(t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rupees renders an amount with thousands separators
func rupees(v float64) string {
	whole := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-₹" + b.String()
	}
	return "₹" + b.String()
}
