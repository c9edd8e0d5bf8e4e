package domain

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Role represents the role recorded on a user profile
type Role string

const (
	RoleInvestor Role = "investor"
	RoleBusiness Role = "business"
	RoleBanker   Role = "banker"
	RoleAdvisor  Role = "advisor"
	RoleUser     Role = "user"
)

var allRoles = []Role{RoleInvestor, RoleBusiness, RoleBanker, RoleAdvisor, RoleUser}

// Roles returns every valid role in registration order
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole validates a stored or user-supplied role string
func ParseRole(s string) (Role, error) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Label returns the human wording used in prompts ("a business owner")
func (r Role) Label() string {
	switch r {
	case RoleInvestor:
		return "an investor"
	case RoleBusiness:
		return "a business owner"
	case RoleBanker:
		return "a banker"
	case RoleAdvisor:
		return "a business advisor"
	case RoleUser:
		return "a user"
	default:
		return string(r)
	}
}

// Plural returns the plural wording used in permission messages
func (r Role) Plural() string {
	switch r {
	case RoleInvestor:
		return "investors"
	case RoleBusiness:
		return "business owners"
	case RoleBanker:
		return "bankers"
	case RoleAdvisor:
		return "business advisors"
	default:
		return "users"
	}
}

// Identity is the identity provider's view of a signed-in account
type Identity struct {
	UID         string `json:"uid" yaml:"uid"`
	Email       string `json:"email" yaml:"email"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// Status values for listings
const (
	StatusActive = "active"
)

// TimeLayout is the ISO-8601 form stored in createdAt fields
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in UTC with TimeLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// UserProfile is stored at users/{uid}
type UserProfile struct {
	Email       string `mapstructure:"email"`
	DisplayName string `mapstructure:"displayName"`
	Role        string `mapstructure:"role"`
	CreatedAt   string `mapstructure:"createdAt"`
}

// Authorship is shared by every listing document
type Authorship struct {
	CreatedBy   string `mapstructure:"createdBy"`
	CreatorName string `mapstructure:"creatorName"`
	CreatedAt   string `mapstructure:"createdAt"`
	Status      string `mapstructure:"status"`
}

// Contact is shared by every listing document
type Contact struct {
	ContactEmail string `mapstructure:"contactEmail"`
	ContactPhone string `mapstructure:"contactPhone"`
}

// BusinessProposal is posted by business owners looking for investment
type BusinessProposal struct {
	Title            string  `mapstructure:"title"`
	Category         string  `mapstructure:"category"`
	Description      string  `mapstructure:"description"`
	InvestmentAmount float64 `mapstructure:"investmentAmount"`
	Equity           float64 `mapstructure:"equity"`
	Timeline         string  `mapstructure:"timeline"`
	Contact          `mapstructure:",squash"`
	Authorship       `mapstructure:",squash"`
}

// InvestorProposal is posted by investors offering capital
type InvestorProposal struct {
	Title          string   `mapstructure:"title"`
	Description    string   `mapstructure:"description"`
	MinAmount      float64  `mapstructure:"minAmount"`
	MaxAmount      float64  `mapstructure:"maxAmount"`
	Categories     []string `mapstructure:"categories"`
	ExpectedReturn string   `mapstructure:"expectedReturn"`
	Timeframe      string   `mapstructure:"timeframe"`
	AdditionalInfo string   `mapstructure:"additionalInfo"`
	Contact        `mapstructure:",squash"`
	Authorship     `mapstructure:",squash"`
}

// LoanDetail is a loan product posted by a banker
type LoanDetail struct {
	Title             string  `mapstructure:"title"`
	BankName          string  `mapstructure:"bankName"`
	LoanType          string  `mapstructure:"loanType"`
	Description       string  `mapstructure:"description"`
	InterestRate      float64 `mapstructure:"interestRate"`
	MinAmount         float64 `mapstructure:"minAmount"`
	MaxAmount         float64 `mapstructure:"maxAmount"`
	Tenure            string  `mapstructure:"tenure"`
	Eligibility       string  `mapstructure:"eligibility"`
	DocumentsRequired string  `mapstructure:"documentsRequired"`
	Contact           `mapstructure:",squash"`
	Authorship        `mapstructure:",squash"`
}

// BusinessInfo is an advisory article posted by an advisor
type BusinessInfo struct {
	Title      string   `mapstructure:"title"`
	Category   string   `mapstructure:"category"`
	Content    string   `mapstructure:"content"`
	Tags       []string `mapstructure:"tags"`
	Contact    `mapstructure:",squash"`
	Authorship `mapstructure:",squash"`
}

// Decode copies a schema-less document payload into one of the typed
// entities above. Missing fields stay zero; numeric strings are accepted.
func Decode(data map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
