package views

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"investorconnect/internal/app/gate"
	"investorconnect/internal/app/session"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/docstore"

	"go.uber.org/zap"
)

// RecentLimit is how many listings each dashboard section shows
const RecentLimit = 5

// dashboardCategories are the shortcuts offered to the "user" role
var dashboardCategories = []string{
	"Technology", "Real Estate", "Food & Beverage", "Healthcare",
	"Education", "Finance", "E-commerce", "Manufacturing",
}

// recent loads the newest documents of a collection. Failures are logged
// and yield an empty section.
func (a *App) recent(ctx context.Context, collection string) []docstore.Document {
	q := docstore.Collection(collection).OrderedBy("createdAt", true).Limited(RecentLimit)
	docs, err := a.deps.Store.Query(ctx, q)
	if err != nil {
		a.deps.Log.Error("failed to load dashboard data", zap.String("collection", collection), zap.Error(err))
		return nil
	}
	return docs
}

func (a *App) dashboard(ctx context.Context, r Route, st session.State) Page {
	if d := gate.SignedIn().Evaluate(st); d.Variant == gate.Redirect {
		return Page{Route: r, Redirect: d.RedirectTo}
	}
	s := a.styles

	business := a.recent(ctx, domain.CollectionBusinessProposals)
	investor := a.recent(ctx, domain.CollectionInvestorProposals)

	var b strings.Builder
	cards := [][3]string{
		{"Browse Business Ideas", "Discover promising business ideas from entrepreneurs looking for investment.", "/business-proposals"},
		{"Investment Opportunities", "Explore investors looking to fund promising business ventures.", "/investor-proposals"},
		{"Loan Options", "Find various loan options available for businesses from different banks.", "/loan-details"},
		{"Business Information", "Access valuable business information and advice from industry experts.", "/info"},
	}
	for _, c := range cards {
		b.WriteString(s.Card.Render(s.Heading.Render(c[0]) + "\n" + s.Muted.Render(c[1]) + "\n" + a.link("Open", c[2])))
		b.WriteString("\n\n")
	}

	switch st.RoleOrEmpty() {
	case domain.RoleUser:
		b.WriteString(s.Heading.Render("Browse Categories") + "\n")
		for _, c := range dashboardCategories {
			b.WriteString("  " + a.link(c, "/business-proposals?category="+url.QueryEscape(c)) + "\n")
		}

	case domain.RoleInvestor:
		b.WriteString(s.Heading.Render("Recent Business Proposals") + "  " + a.link("View All", "/business-proposals") + "\n")
		if len(business) == 0 {
			b.WriteString("No business proposals available at the moment.\n")
		}
		for _, d := range business {
			var p domain.BusinessProposal
			a.decode(domain.CollectionBusinessProposals, d, &p)
			fmt.Fprintf(&b, "- %s (%s) Required Investment: %s  %s\n",
				p.Title, p.Category, rupees(p.InvestmentAmount), a.link("View", "/business-proposals/"+d.ID))
		}
		b.WriteString("\n" + s.Heading.Render("Your Investment Opportunities") + "\n")
		b.WriteString(a.link("Post New Investment Opportunity", "/investor-proposals/new") + "\n")

	case domain.RoleBusiness:
		b.WriteString(s.Heading.Render("Recent Investor Proposals") + "  " + a.link("View All", "/investor-proposals") + "\n")
		if len(investor) == 0 {
			b.WriteString("No investor proposals available at the moment.\n")
		}
		for _, d := range investor {
			var p domain.InvestorProposal
			a.decode(domain.CollectionInvestorProposals, d, &p)
			fmt.Fprintf(&b, "- %s Investment Range: %s - %s, Interested in: %s  %s\n",
				p.Title, rupees(p.MinAmount), rupees(p.MaxAmount), strings.Join(p.Categories, ", "),
				a.link("View", "/investor-proposals/"+d.ID))
		}
		b.WriteString("\n" + s.Heading.Render("Your Business Ideas") + "\n")
		b.WriteString(a.link("Post New Business Idea", "/business-proposals/new") + "\n")

	case domain.RoleBanker:
		b.WriteString(s.Heading.Render("Banker Dashboard") + "\n")
		b.WriteString("As a banker, you can post loan details for businesses and investors.\n")
		b.WriteString(a.link("Post New Loan Details", "/loan-details/new") + "\n")

	case domain.RoleAdvisor:
		b.WriteString(s.Heading.Render("Business Advisor Dashboard") + "\n")
		b.WriteString("As a business advisor, you can provide guidance to entrepreneurs and investors.\n")
		b.WriteString(a.link("Post New Information", "/info/new") + "\n")
	}

	name := st.Identity.DisplayName
	if name == "" {
		name = st.Identity.Email
	}
	return Page{Route: r, Title: "Welcome, " + name, Body: strings.TrimRight(b.String(), "\n")}
}
