package views

import (
	"bytes"
	"context"
	"testing"

	"investorconnect/internal/app/detail"
	"investorconnect/internal/app/diagnostics"
	"investorconnect/internal/app/listing"
	"investorconnect/internal/app/session"
	"investorconnect/internal/app/submission"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fixedState struct {
	st session.State
}

func (f *fixedState) Current() session.State { return f.st }

func as(role domain.Role) session.State {
	return session.State{
		Identity: &domain.Identity{UID: "u-" + string(role), Email: string(role) + "@example.com", DisplayName: "Dee"},
		Role:     &role,
	}
}

func newApp(t *testing.T, store docstore.Store, st session.State) (*App, *fixedState) {
	t.Helper()
	log := zaptest.NewLogger(t)
	state := &fixedState{st: st}
	app := New(Deps{
		Session: state,
		Store:   store,
		Fetcher: listing.NewFetcher(store, log),
		Loader:  detail.NewLoader(store, log),
		Form:    submission.NewForm(store, submission.PersistWrite, log),
		Probe:   diagnostics.NewProbe(store, func() bool { return true }, log),
		Log:     log,
	}, &bytes.Buffer{})
	return app, state
}

func TestMatch(t *testing.T) {
	tests := []struct {
		raw      string
		page     PageName
		kind     domain.Kind
		id       string
		category string
		search   string
	}{
		{raw: "/", page: PageHome},
		{raw: "", page: PageHome},
		{raw: "/login", page: PageLogin},
		{raw: "/register/", page: PageRegister},
		{raw: "/dashboard", page: PageDashboard},
		{raw: "/test-firebase", page: PageDiagnostics},
		{raw: "/business-proposals?category=Food+%26+Beverage", page: PageList, kind: domain.KindBusinessProposal, category: "Food & Beverage"},
		{raw: "/info?q=tax", page: PageList, kind: domain.KindBusinessInfo, search: "tax"},
		{raw: "/loan-details/new", page: PageNew, kind: domain.KindLoanDetail},
		{raw: "/investor-proposals/abc", page: PageDetail, kind: domain.KindInvestorProposal, id: "abc"},
		{raw: "/info/edit/abc", page: PageNotFound},
		{raw: "/nowhere", page: PageNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, err := Match(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.page, r.Page)
			assert.Equal(t, tt.kind, r.Kind.Kind)
			assert.Equal(t, tt.id, r.ID)
			assert.Equal(t, tt.category, r.Params.Category)
			assert.Equal(t, tt.search, r.Params.Search)
		})
	}
}

func TestNav(t *testing.T) {
	app, _ := newApp(t, docstore.NewMemory(nil), session.State{})

	guest := app.Nav(session.State{})
	assert.Contains(t, guest, "Login")
	assert.Contains(t, guest, "Register")
	assert.NotContains(t, guest, "Dashboard")

	banker := app.Nav(as(domain.RoleBanker))
	assert.Contains(t, banker, "Post Loan Details (/loan-details/new)")
	assert.Contains(t, banker, "Logout")
	assert.NotContains(t, banker, "Post Idea")

	user := app.Nav(as(domain.RoleUser))
	assert.NotContains(t, user, "Post ")
}

func TestDashboard_RedirectsGuests(t *testing.T) {
	app, _ := newApp(t, docstore.NewMemory(nil), session.State{})
	p, err := app.Open(context.Background(), "/dashboard")
	require.NoError(t, err)
	assert.Equal(t, "/login", p.Redirect)
	assert.Equal(t, PageLogin, p.Route.Page)
}

func TestDashboard_RecentForInvestor(t *testing.T) {
	store := docstore.NewMemory(nil)
	ctx := context.Background()
	for i, title := range []string{"one", "two", "three", "four", "five", "six"} {
		require.NoError(t, store.Set(ctx, domain.CollectionBusinessProposals, title, map[string]interface{}{
			"title":            title,
			"category":         "Retail",
			"investmentAmount": 1500000,
			"createdAt":        "2024-01-0" + string(rune('1'+i)),
		}))
	}

	app, _ := newApp(t, store, as(domain.RoleInvestor))
	p, err := app.Open(ctx, "/dashboard")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Dee", p.Title)
	assert.Contains(t, p.Body, "Recent Business Proposals")
	assert.Contains(t, p.Body, "six (Retail) Required Investment: ₹1,500,000")
	assert.NotContains(t, p.Body, "- one ")
	assert.Contains(t, p.Body, "Post New Investment Opportunity")

	app, _ = newApp(t, store, as(domain.RoleBusiness))
	p, err = app.Open(ctx, "/dashboard")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "No investor proposals available at the moment.")

	app, _ = newApp(t, store, as(domain.RoleUser))
	p, err = app.Open(ctx, "/dashboard")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "/business-proposals?category=Food+%26+Beverage")
}

func TestListPage(t *testing.T) {
	store := docstore.NewMemory(nil)
	ctx := context.Background()

	app, _ := newApp(t, store, as(domain.RoleBanker))
	p, err := app.Open(ctx, "/loan-details")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "No loan details found. Please add some loan details.")
	assert.Contains(t, p.Body, "/loan-details/new")

	require.NoError(t, store.Set(ctx, domain.CollectionLoanDetails, "l1", map[string]interface{}{
		"title": "Flexi", "bankName": "First Bank", "loanType": "Term Loan", "interestRate": 9.5,
		"status": "active", "createdAt": "2024-01-01",
	}))
	p, err = app.Open(ctx, "/loan-details")
	require.NoError(t, err)
	assert.Equal(t, "Loan Options", p.Title)
	assert.Contains(t, p.Body, "First Bank · Term Loan")
	assert.Contains(t, p.Body, "Interest Rate: 9.5%")
	assert.Contains(t, p.Body, "/loan-details/l1")

	p, err = app.Open(ctx, "/loan-details?category=MSME+Loan")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "No loan details found for this loan type.")
}

func TestListPage_EmptyOffersCreateToEveryViewer(t *testing.T) {
	ctx := context.Background()
	for name, st := range map[string]session.State{
		"guest":    {},
		"investor": as(domain.RoleInvestor),
		"banker":   as(domain.RoleBanker),
	} {
		app, _ := newApp(t, docstore.NewMemory(nil), st)
		p, err := app.Open(ctx, "/loan-details")
		require.NoError(t, err, name)
		assert.Contains(t, p.Body, "No loan details found. Please add some loan details.", name)
		assert.Contains(t, p.Body, "Add loan detail (/loan-details/new)", name)
	}
}

func TestListPage_MalformedDocumentIsLogged(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory(nil)
	require.NoError(t, store.Set(ctx, domain.CollectionBusinessProposals, "bad", map[string]interface{}{
		"title": "Broken", "investmentAmount": "lots", "status": "active", "createdAt": "2024-01-01",
	}))

	app, _ := newApp(t, store, as(domain.RoleInvestor))
	core, logs := observer.New(zapcore.DebugLevel)
	app.deps.Log = zap.New(core)

	p, err := app.Open(ctx, "/business-proposals")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "Broken")

	entries := logs.FilterMessage("malformed document").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bad", entries[0].ContextMap()["id"])
	assert.Equal(t, domain.CollectionBusinessProposals, entries[0].ContextMap()["collection"])
}

func TestNewPage_Gate(t *testing.T) {
	ctx := context.Background()
	app, state := newApp(t, docstore.NewMemory(nil), session.State{})

	p, err := app.Open(ctx, "/business-proposals/new")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "You must be logged in as a business owner to post a business proposal.")
	assert.Contains(t, p.Body, "(/login)")

	state.st = as(domain.RoleInvestor)
	p, err = app.Open(ctx, "/business-proposals/new")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "Only business owners can submit business proposals")

	state.st = as(domain.RoleBusiness)
	p, err = app.Open(ctx, "/business-proposals/new")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "investorconnect submit business-proposal")
	assert.Contains(t, p.Body, "investmentAmount")
}

func TestSubmit_NavigatesToDashboard(t *testing.T) {
	store := docstore.NewMemory(nil)
	app, _ := newApp(t, store, as(domain.RoleAdvisor))
	k, err := domain.LookupKind(domain.KindBusinessInfo)
	require.NoError(t, err)

	p, err := app.Submit(context.Background(), k, map[string]string{
		"title": "GST basics", "category": "Taxation", "content": "How to file", "tags": "gst,tax",
	})
	require.NoError(t, err)
	assert.Equal(t, PageDashboard, p.Route.Page)
	assert.Equal(t, "Business information submitted successfully!", p.Flash)
	assert.Contains(t, app.Render(p), "Business information submitted successfully!")

	docs, err := store.Query(context.Background(), docstore.Collection(k.Collection))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDetailPage(t *testing.T) {
	store := docstore.NewMemory(nil)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.CollectionBusinessProposals, "bp1", map[string]interface{}{
		"title": "Kiosk", "category": "Retail", "investmentAmount": 100, "contactEmail": "a@b.com",
		"creatorName": "Bo", "createdBy": "u-business",
	}))

	app, state := newApp(t, store, as(domain.RoleInvestor))
	p, err := app.Open(ctx, "/business-proposals/bp1")
	require.NoError(t, err)
	assert.Equal(t, "Kiosk", p.Title)
	assert.Contains(t, p.Body, "mailto:a@b.com")
	assert.Contains(t, p.Body, "Business Category: Retail")

	state.st = as(domain.RoleBusiness)
	p, err = app.Open(ctx, "/business-proposals/bp1")
	require.NoError(t, err)
	assert.NotContains(t, p.Body, "mailto:")
	assert.Contains(t, p.Body, "/business-proposals/edit/bp1")

	state.st = session.State{}
	p, err = app.Open(ctx, "/business-proposals/bp1")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "Sign in as an investor to view contact details")

	p, err = app.Open(ctx, "/business-proposals/missing")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "Business proposal not found.")
}

func TestDiagnosticsPage(t *testing.T) {
	app, _ := newApp(t, docstore.NewMemory(nil), as(domain.RoleUser))
	p, err := app.Open(context.Background(), "/test-firebase")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "Initialized: Yes")
	assert.Contains(t, p.Body, "Write Test: Success")
	assert.Contains(t, p.Body, "- loanDetails: Exists (0 documents)")
}

func TestNotFoundAndHome(t *testing.T) {
	app, _ := newApp(t, docstore.NewMemory(nil), session.State{})
	p, err := app.Open(context.Background(), "/nowhere")
	require.NoError(t, err)
	assert.Equal(t, "Page not found", p.Title)

	p, err = app.Open(context.Background(), "/")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "How It Works")
	assert.Contains(t, p.Body, "Get Started")
}

func TestRupees(t *testing.T) {
	assert.Equal(t, "₹0", rupees(0))
	assert.Equal(t, "₹999", rupees(999))
	assert.Equal(t, "₹1,000", rupees(1000))
	assert.Equal(t, "₹12,345,678", rupees(12345678))
	assert.Equal(t, "-₹5,000", rupees(-5000))
}
