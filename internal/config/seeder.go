package config

import (
	"context"
	"time"

	"investorconnect/internal/core/domain"
	"investorconnect/internal/docstore"

	"go.uber.org/zap"
)

// seedAuthor is stamped on sample listings
const seedAuthor = "seed"

// Seeder handles sample data seeding
type Seeder struct {
	store docstore.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(store docstore.Store, log *zap.Logger) *Seeder {
	return &Seeder{store: store, log: log, now: time.Now}
}

// Run seeds one sample listing into every empty listing collection.
// It is for development only and never touches collections with data.
func (s *Seeder) Run(ctx context.Context) error {
	s.log.Info("running sample seeders")

	for _, sample := range s.samples() {
		seeded, err := s.seedIfEmpty(ctx, sample.collection, sample.data)
		if err != nil {
			s.log.Warn("sample seeder skipped", zap.String("collection", sample.collection), zap.Error(err))
			continue
		}
		if seeded {
			s.log.Info("sample listing created", zap.String("collection", sample.collection))
		}
	}

	s.log.Info("sample seeding completed")
	return nil
}

func (s *Seeder) seedIfEmpty(ctx context.Context, collection string, data map[string]interface{}) (bool, error) {
	existing, err := s.store.Query(ctx, docstore.Collection(collection).Limited(1))
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if _, err := s.store.Add(ctx, collection, data); err != nil {
		return false, err
	}
	return true, nil
}

type sample struct {
	collection string
	data       map[string]interface{}
}

func (s *Seeder) samples() []sample {
	stamp := func(data map[string]interface{}) map[string]interface{} {
		data["createdBy"] = seedAuthor
		data["creatorName"] = "InvestorConnect"
		data["createdAt"] = domain.FormatTime(s.now())
		data["status"] = domain.StatusActive
		data["contactEmail"] = "hello@investorconnect.local"
		data["contactPhone"] = ""
		return data
	}

	return []sample{
		{domain.CollectionBusinessProposals, stamp(map[string]interface{}{
			"title":            "Neighbourhood solar kiosks",
			"category":         "Technology",
			"description":      "Pay-as-you-go phone charging and lighting kiosks for market streets.",
			"investmentAmount": 50000,
			"equity":           10,
			"timeline":         "12 months",
		})},
		{domain.CollectionInvestorProposals, stamp(map[string]interface{}{
			"title":          "Seed capital for food startups",
			"description":    "Early cheques for food and retail founders with paying customers.",
			"minAmount":      10000,
			"maxAmount":      100000,
			"categories":     []string{"Food & Beverage", "Retail"},
			"expectedReturn": "3x in 5 years",
			"timeframe":      "5 years",
			"additionalInfo": "",
		})},
		{domain.CollectionLoanDetails, stamp(map[string]interface{}{
			"title":             "Working capital line",
			"bankName":          "Sample Bank",
			"loanType":          "Working Capital Loan",
			"description":       "Revolving credit for inventory and payroll.",
			"interestRate":      9.5,
			"minAmount":         5000,
			"maxAmount":         250000,
			"tenure":            "12-36 months",
			"eligibility":       "Two years of trading history",
			"documentsRequired": "Bank statements, tax returns",
		})},
		{domain.CollectionBusinessInfo, stamp(map[string]interface{}{
			"title":    "Writing a one-page business plan",
			"category": "Business Planning",
			"content":  "Start with the problem, the customer and how you make money.",
			"tags":     []string{"planning", "startup"},
		})},
	}
}
