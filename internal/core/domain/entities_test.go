package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "investor", want: RoleInvestor},
		{in: "business", want: RoleBusiness},
		{in: "banker", want: RoleBanker},
		{in: "advisor", want: RoleAdvisor},
		{in: "user", want: RoleUser},
		{in: "Investor", wantErr: true},
		{in: "admin", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_BusinessProposal(t *testing.T) {
	data := map[string]interface{}{
		"title":            "Solar kiosks",
		"category":         "Technology",
		"investmentAmount": 250000.0,
		"equity":           "12.5",
		"contactEmail":     "a@b.com",
		"createdBy":        "uid-1",
		"creatorName":      "Asha",
		"createdAt":        "2024-01-01T00:00:00Z",
		"status":           "active",
	}

	var p BusinessProposal
	require.NoError(t, Decode(data, &p))
	assert.Equal(t, "Solar kiosks", p.Title)
	assert.Equal(t, 250000.0, p.InvestmentAmount)
	assert.Equal(t, 12.5, p.Equity)
	assert.Equal(t, "a@b.com", p.ContactEmail)
	assert.Equal(t, "uid-1", p.CreatedBy)
	assert.Equal(t, StatusActive, p.Status)
}

func TestDecode_ListFields(t *testing.T) {
	data := map[string]interface{}{
		"title":      "Angel fund",
		"categories": []interface{}{"Retail", "Finance"},
	}

	var p InvestorProposal
	require.NoError(t, Decode(data, &p))
	assert.Equal(t, []string{"Retail", "Finance"}, p.Categories)
}

func TestKindSpecs(t *testing.T) {
	for _, spec := range Kinds() {
		assert.NotEmpty(t, spec.Collection, spec.Kind)
		assert.True(t, spec.CreatorRole.Valid(), spec.Kind)

		found, err := LookupKind(spec.Kind)
		require.NoError(t, err)
		assert.Equal(t, spec.Collection, found.Collection)

		byRoute, ok := KindForRoute(spec.Route)
		require.True(t, ok)
		assert.Equal(t, spec.Kind, byRoute.Kind)
	}

	bp, _ := LookupKind(KindBusinessProposal)
	assert.Equal(t, "No business proposals found. Please add some business proposals.", bp.NoneFoundMessage())
	assert.Equal(t, "Unable to load business proposals. Please try again later.", bp.UnableToLoadMessage())
	assert.Equal(t, "/business-proposals/new", bp.NewRoute())
	assert.False(t, bp.ContactAlwaysVisible())

	loans, _ := LookupKind(KindLoanDetail)
	assert.True(t, loans.ContactAlwaysVisible())

	_, err := LookupKind("mortgage")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestFormatTime(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	ts := time.Date(2024, 1, 2, 8, 30, 0, 123456789, ist)
	assert.Equal(t, "2024-01-02T03:00:00.123Z", FormatTime(ts))
}
