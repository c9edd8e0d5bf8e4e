package submission

import (
	"investorconnect/internal/core/domain"
)

// FieldType is how a form input is parsed into the payload
type FieldType int

const (
	Text FieldType = iota
	Number
	// Choice is one value from Options
	Choice
	// MultiChoice is a comma-separated subset of Options
	MultiChoice
	// List is comma-separated free text, trimmed, blanks dropped
	List
)

// Field is one form input
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Options  []string
	Min      *float64
	Max      *float64
}

func bound(v float64) *float64 { return &v }

var contactFields = []Field{
	{Name: "contactEmail", Label: "Contact Email", Type: Text, Required: true},
	{Name: "contactPhone", Label: "Contact Phone", Type: Text, Required: true},
}

var forms = map[domain.Kind][]Field{
	domain.KindBusinessProposal: append([]Field{
		{Name: "title", Label: "Proposal Title", Type: Text, Required: true},
		{Name: "category", Label: "Business Category", Type: Choice, Required: true, Options: domain.BusinessCategories},
		{Name: "description", Label: "Business Description", Type: Text, Required: true},
		{Name: "investmentAmount", Label: "Investment Amount Needed", Type: Number, Required: true, Min: bound(0)},
		{Name: "equity", Label: "Equity Offered (%)", Type: Number, Required: true, Min: bound(0), Max: bound(100)},
		{Name: "timeline", Label: "Timeline", Type: Text, Required: true},
	}, contactFields...),

	domain.KindInvestorProposal: append(append([]Field{
		{Name: "title", Label: "Proposal Title", Type: Text, Required: true},
		{Name: "description", Label: "Investment Description", Type: Text, Required: true},
		{Name: "minAmount", Label: "Minimum Investment", Type: Number, Required: true, Min: bound(0)},
		{Name: "maxAmount", Label: "Maximum Investment", Type: Number, Required: true, Min: bound(0)},
		{Name: "categories", Label: "Interested Categories", Type: MultiChoice, Required: true, Options: domain.BusinessCategories},
		{Name: "expectedReturn", Label: "Expected Return", Type: Text, Required: true},
		{Name: "timeframe", Label: "Investment Timeframe", Type: Text, Required: true},
	}, contactFields...),
		Field{Name: "additionalInfo", Label: "Additional Information", Type: Text},
	),

	domain.KindLoanDetail: append([]Field{
		{Name: "title", Label: "Loan Title", Type: Text, Required: true},
		{Name: "bankName", Label: "Bank Name", Type: Text, Required: true},
		{Name: "loanType", Label: "Loan Type", Type: Choice, Required: true, Options: domain.LoanTypes},
		{Name: "description", Label: "Description", Type: Text, Required: true},
		{Name: "interestRate", Label: "Interest Rate (%)", Type: Number, Required: true, Min: bound(0)},
		{Name: "minAmount", Label: "Minimum Loan Amount", Type: Number, Required: true, Min: bound(0)},
		{Name: "maxAmount", Label: "Maximum Loan Amount", Type: Number, Required: true, Min: bound(0)},
		{Name: "tenure", Label: "Loan Tenure", Type: Text, Required: true},
		{Name: "eligibility", Label: "Eligibility Criteria", Type: Text, Required: true},
		{Name: "documentsRequired", Label: "Documents Required", Type: Text, Required: true},
	}, contactFields...),

	domain.KindBusinessInfo: {
		{Name: "title", Label: "Title", Type: Text, Required: true},
		{Name: "category", Label: "Category", Type: Choice, Required: true, Options: domain.InfoCategories},
		{Name: "content", Label: "Content", Type: Text, Required: true},
		{Name: "tags", Label: "Tags", Type: List, Required: true},
		{Name: "contactEmail", Label: "Contact Email", Type: Text, Required: true},
		{Name: "contactPhone", Label: "Contact Phone", Type: Text},
	},
}

// Fields returns the inputs of the form for k
func Fields(k domain.Kind) []Field {
	fields := forms[k]
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// schema builds the JSON Schema the parsed payload must satisfy
func schema(fields []Field) map[string]interface{} {
	props := map[string]interface{}{}
	var required []interface{}

	for _, f := range fields {
		var p map[string]interface{}
		switch f.Type {
		case Number:
			p = map[string]interface{}{"type": "number"}
			if f.Min != nil {
				p["minimum"] = *f.Min
			}
			if f.Max != nil {
				p["maximum"] = *f.Max
			}
		case Choice:
			p = map[string]interface{}{"type": "string", "enum": toAny(f.Options)}
		case MultiChoice:
			p = map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string", "enum": toAny(f.Options)},
				"uniqueItems": true,
			}
			if f.Required {
				p["minItems"] = 1
			}
		case List:
			p = map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}
			if f.Required {
				p["minItems"] = 1
			}
		default:
			p = map[string]interface{}{"type": "string"}
			if f.Required {
				p["minLength"] = 1
			}
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}

	s := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
