package domain

import "fmt"

// Collection names in the document store
const (
	CollectionUsers             = "users"
	CollectionBusinessProposals = "businessProposals"
	CollectionInvestorProposals = "investorProposals"
	CollectionLoanDetails       = "loanDetails"
	CollectionBusinessInfo      = "businessInfo"
	CollectionTest              = "test_collection"
)

// Kind identifies one of the four listing types
type Kind string

const (
	KindBusinessProposal Kind = "business-proposal"
	KindInvestorProposal Kind = "investor-proposal"
	KindLoanDetail       Kind = "loan-detail"
	KindBusinessInfo     Kind = "business-info"
)

// CategoryMatch says how a kind's category filter is applied
type CategoryMatch int

const (
	// MatchField compares a single string field
	MatchField CategoryMatch = iota
	// MatchMembership checks a string list field for the category
	MatchMembership
)

// KindSpec describes everything the application needs to know about a
// listing kind: where it lives, who posts it, who may see its contact
// details, and the wording used on its pages.
type KindSpec struct {
	Kind       Kind
	Collection string
	Route      string
	Noun       string
	Plural     string

	CreatorRole Role
	// ContactRole is the only role allowed to see contact details.
	// Empty means contact details are always shown.
	ContactRole Role

	CategoryField string
	CategoryMatch CategoryMatch
	// ServerCategoryFilter sends the category as an equality filter on
	// the primary query instead of filtering client-side.
	ServerCategoryFilter bool
	Categories           []string
	AllCategoriesLabel   string
	// SearchFields are matched by the free-text search box
	SearchFields []string

	NotFoundMessage     string
	LoadFailedMessage   string
	EmptyRefinedMessage string
	SubmitSuccess       string
	SubmitFailed        string
	SubmitForbidden     string
	LoginRequired       string
	ContactPrompt       string
	MailSubject         string
}

// BusinessCategories are the sectors used by proposals
var BusinessCategories = []string{
	"Technology",
	"Real Estate",
	"Food & Beverage",
	"Healthcare",
	"Education",
	"Finance",
	"E-commerce",
	"Manufacturing",
	"Retail",
	"Services",
	"Entertainment",
	"Travel & Tourism",
	"Agriculture",
	"Other",
}

// InfoCategories are the topics used by advisory articles
var InfoCategories = []string{
	"General Business",
	"Startup Advice",
	"Business Planning",
	"Market Research",
	"Finance & Funding",
	"Legal & Compliance",
	"Operations",
	"Marketing & Sales",
	"Taxation",
	"Business Strategy",
	"Technology",
	"Human Resources",
	"Other",
}

// LoanTypes are the products bankers can post
var LoanTypes = []string{
	"Business Loan",
	"Term Loan",
	"Working Capital Loan",
	"Equipment Financing",
	"Startup Funding",
	"Commercial Real Estate Loan",
	"Line of Credit",
	"Invoice Financing",
	"Microfinance",
	"Rural Business Loan",
	"MSME Loan",
	"Other",
}

var kindSpecs = []KindSpec{
	{
		Kind:                 KindBusinessProposal,
		Collection:           CollectionBusinessProposals,
		Route:                "/business-proposals",
		Noun:                 "business proposal",
		Plural:               "business proposals",
		CreatorRole:          RoleBusiness,
		ContactRole:          RoleInvestor,
		CategoryField:        "category",
		CategoryMatch:        MatchField,
		ServerCategoryFilter: true,
		Categories:           BusinessCategories,
		AllCategoriesLabel:   "All Categories",
		SearchFields:         []string{"title", "description"},
		NotFoundMessage:      "Business proposal not found.",
		LoadFailedMessage:    "Failed to load business proposal details.",
		EmptyRefinedMessage:  "No business proposals found in this category.",
		SubmitSuccess:        "Business proposal submitted successfully!",
		SubmitFailed:         "Failed to submit business proposal. Please try again.",
		SubmitForbidden:      "Only business owners can submit business proposals",
		LoginRequired:        "You must be logged in as a business owner to post a business proposal.",
		ContactPrompt:        "Sign in as an investor to view contact details",
		MailSubject:          "Interest in Your Business Proposal: %s",
	},
	{
		Kind:                KindInvestorProposal,
		Collection:          CollectionInvestorProposals,
		Route:               "/investor-proposals",
		Noun:                "investor proposal",
		Plural:              "investor proposals",
		CreatorRole:         RoleInvestor,
		ContactRole:         RoleBusiness,
		CategoryField:       "categories",
		CategoryMatch:       MatchMembership,
		Categories:          BusinessCategories,
		AllCategoriesLabel:  "All Categories",
		SearchFields:        []string{"title", "description"},
		NotFoundMessage:     "Investor proposal not found.",
		LoadFailedMessage:   "Failed to load investor proposal details.",
		EmptyRefinedMessage: "No investment opportunities found in this category.",
		SubmitSuccess:       "Investment proposal submitted successfully!",
		SubmitFailed:        "Failed to submit investment proposal. Please try again.",
		SubmitForbidden:     "Only investors can submit investment proposals",
		LoginRequired:       "You must be logged in as an investor to post an investment proposal.",
		ContactPrompt:       "Sign in as a business owner to view contact details",
		MailSubject:         "Interest in Your Investment Opportunity: %s",
	},
	{
		Kind:                KindLoanDetail,
		Collection:          CollectionLoanDetails,
		Route:               "/loan-details",
		Noun:                "loan detail",
		Plural:              "loan details",
		CreatorRole:         RoleBanker,
		CategoryField:       "loanType",
		CategoryMatch:       MatchField,
		Categories:          LoanTypes,
		AllCategoriesLabel:  "All Types",
		SearchFields:        []string{"title", "bankName", "description"},
		NotFoundMessage:     "Loan details not found. Please check the ID and try again.",
		LoadFailedMessage:   "Failed to load loan details.",
		EmptyRefinedMessage: "No loan details found for this loan type.",
		SubmitSuccess:       "Loan details submitted successfully!",
		SubmitFailed:        "Failed to submit loan details. Please try again.",
		SubmitForbidden:     "Only bankers can post loan details",
		LoginRequired:       "You must be logged in as a banker to post loan details.",
		MailSubject:         "Interest in Loan: %s",
	},
	{
		Kind:                KindBusinessInfo,
		Collection:          CollectionBusinessInfo,
		Route:               "/info",
		Noun:                "business information",
		Plural:              "business information",
		CreatorRole:         RoleAdvisor,
		CategoryField:       "category",
		CategoryMatch:       MatchField,
		Categories:          InfoCategories,
		AllCategoriesLabel:  "All Categories",
		SearchFields:        []string{"title", "content", "tags"},
		NotFoundMessage:     "Business information not found.",
		LoadFailedMessage:   "Failed to load business information details.",
		EmptyRefinedMessage: "No business information found matching your criteria.",
		SubmitSuccess:       "Business information submitted successfully!",
		SubmitFailed:        "Failed to submit business information. Please try again.",
		SubmitForbidden:     "Only business advisors can post business information",
		LoginRequired:       "You must be logged in as a business advisor to post business information.",
		MailSubject:         "Question about: %s",
	},
}

// Kinds returns the listing kinds in navigation order
func Kinds() []KindSpec {
	out := make([]KindSpec, len(kindSpecs))
	copy(out, kindSpecs)
	return out
}

// LookupKind finds a kind by its identifier
func LookupKind(k Kind) (KindSpec, error) {
	for _, spec := range kindSpecs {
		if spec.Kind == k {
			return spec, nil
		}
	}
	return KindSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, k)
}

// KindForRoute finds a kind by its route prefix ("/loan-details")
func KindForRoute(route string) (KindSpec, bool) {
	for _, spec := range kindSpecs {
		if spec.Route == route {
			return spec, true
		}
	}
	return KindSpec{}, false
}

// KindForCreator returns the kind a role is allowed to post, if any
func KindForCreator(r Role) (KindSpec, bool) {
	for _, spec := range kindSpecs {
		if spec.CreatorRole == r {
			return spec, true
		}
	}
	return KindSpec{}, false
}

// NoneFoundMessage is shown when a collection holds no documents at all
func (k KindSpec) NoneFoundMessage() string {
	return fmt.Sprintf("No %s found. Please add some %s.", k.Plural, k.Plural)
}

// UnableToLoadMessage is shown when both list queries fail
func (k KindSpec) UnableToLoadMessage() string {
	return fmt.Sprintf("Unable to load %s. Please try again later.", k.Plural)
}

// NewRoute is the submission form route for the kind
func (k KindSpec) NewRoute() string {
	return k.Route + "/new"
}

// DetailRoute is the detail page route for one document
func (k KindSpec) DetailRoute(id string) string {
	return k.Route + "/" + id
}

// ContactAlwaysVisible reports whether contact details skip the role check
func (k KindSpec) ContactAlwaysVisible() bool {
	return k.ContactRole == ""
}

// HasCategory reports whether c is one of the kind's categories
func (k KindSpec) HasCategory(c string) bool {
	for _, v := range k.Categories {
		if v == c {
			return true
		}
	}
	return false
}
