// Package listing loads the active documents of one listing kind. A
// primary filtered and ordered query is tried first; when the store
// rejects it (typically a missing composite index) the whole collection is
// read and filtered and sorted in process.
package listing

import (
	"context"
	"strings"

	"investorconnect/internal/core/domain"
	"investorconnect/internal/docstore"

	"go.uber.org/zap"
)

// Status is the overall result of a Run
type Status int

const (
	// StatusLoaded means a document set was obtained, possibly empty
	StatusLoaded Status = iota
	// StatusNoneFound means the fallback read an empty collection
	StatusNoneFound
	// StatusFailed means both queries failed
	StatusFailed
)

// Source says which query produced the documents
type Source int

const (
	SourceNone Source = iota
	SourcePrimary
	SourceFallback
)

// QueryFunc runs one query
type QueryFunc func(ctx context.Context) ([]docstore.Document, error)

// Strategy is the two-step fetch: Primary, then Fallback reconciled in
// process when Primary fails.
type Strategy struct {
	Primary   QueryFunc
	Fallback  QueryFunc
	Reconcile func([]docstore.Document) []docstore.Document
}

// Outcome is what a Run produced
type Outcome struct {
	Status      Status
	Documents   []docstore.Document
	Source      Source
	PrimaryErr  error
	FallbackErr error
}

// Run executes the ladder. It never returns documents together with
// StatusFailed.
func (s Strategy) Run(ctx context.Context) Outcome {
	docs, err := s.Primary(ctx)
	if err == nil {
		return Outcome{Status: StatusLoaded, Documents: docs, Source: SourcePrimary}
	}
	out := Outcome{PrimaryErr: err}

	all, err := s.Fallback(ctx)
	if err != nil {
		out.Status = StatusFailed
		out.FallbackErr = err
		return out
	}
	if len(all) == 0 {
		out.Status = StatusNoneFound
		out.Source = SourceFallback
		return out
	}

	if s.Reconcile != nil {
		all = s.Reconcile(all)
	}
	out.Status = StatusLoaded
	out.Source = SourceFallback
	out.Documents = all
	return out
}

// Params are the page's query parameters
type Params struct {
	// Category is one of the kind's categories; empty or the kind's
	// "all" label means no category filter.
	Category string
	Search   string
}

func (p Params) category(k domain.KindSpec) string {
	if p.Category == k.AllCategoriesLabel {
		return ""
	}
	return p.Category
}

// ForKind builds the strategy for kind k: status == "active", plus the
// category equality filter when the kind filters server-side, ordered by
// createdAt descending.
func ForKind(store docstore.Store, k domain.KindSpec, p Params) Strategy {
	primary := docstore.Collection(k.Collection).Where("status", domain.StatusActive)
	if cat := p.category(k); cat != "" && k.ServerCategoryFilter {
		primary = primary.Where(k.CategoryField, cat)
	}
	primary = primary.OrderedBy("createdAt", true)

	return Strategy{
		Primary: func(ctx context.Context) ([]docstore.Document, error) {
			return store.Query(ctx, primary)
		},
		Fallback: func(ctx context.Context) ([]docstore.Document, error) {
			return store.Query(ctx, docstore.Collection(k.Collection))
		},
		Reconcile: func(docs []docstore.Document) []docstore.Document {
			return reconcile(docs, primary)
		},
	}
}

// reconcile applies q's filters and order in process. Unlike
// docstore.Apply, documents without createdAt are kept and sorted last.
func reconcile(docs []docstore.Document, q docstore.Query) []docstore.Document {
	out := make([]docstore.Document, 0, len(docs))
	for _, d := range docs {
		if docstore.Matches(d, q.Filters) {
			out = append(out, d)
		}
	}
	if q.OrderBy != nil {
		docstore.SortBy(out, *q.OrderBy)
	}
	return out
}

// Refine narrows a loaded set by category and free-text search
func Refine(docs []docstore.Document, k domain.KindSpec, p Params) []docstore.Document {
	cat := p.category(k)
	term := strings.ToLower(strings.TrimSpace(p.Search))
	if cat == "" && term == "" {
		return docs
	}

	out := make([]docstore.Document, 0, len(docs))
	for _, d := range docs {
		if cat != "" && !matchesCategory(d, k, cat) {
			continue
		}
		if term != "" && !matchesSearch(d, k.SearchFields, term) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matchesCategory(d docstore.Document, k domain.KindSpec, cat string) bool {
	v, ok := d.Field(k.CategoryField)
	if !ok {
		return false
	}
	switch k.CategoryMatch {
	case domain.MatchMembership:
		for _, s := range stringList(v) {
			if s == cat {
				return true
			}
		}
		return false
	default:
		s, _ := v.(string)
		return s == cat
	}
}

func matchesSearch(d docstore.Document, fields []string, term string) bool {
	for _, f := range fields {
		v, ok := d.Field(f)
		if !ok {
			continue
		}
		for _, s := range stringList(v) {
			if strings.Contains(strings.ToLower(s), term) {
				return true
			}
		}
	}
	return false
}

// stringList reads a string or a list of strings
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Page is a rendered list: the visible documents or one message with a
// call to action.
type Page struct {
	Kind      domain.KindSpec
	Params    Params
	Outcome   Outcome
	Documents []docstore.Document
	Message   string
	// CreateRoute is set alongside "none found" style messages
	CreateRoute string
}

// Fetcher loads list pages
type Fetcher struct {
	store docstore.Store
	log   *zap.Logger
}

// NewFetcher creates a fetcher over store
func NewFetcher(store docstore.Store, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{store: store, log: log}
}

// Load runs the strategy for k and refines the result
func (f *Fetcher) Load(ctx context.Context, k domain.KindSpec, p Params) Page {
	out := ForKind(f.store, k, p).Run(ctx)
	page := Page{Kind: k, Params: p, Outcome: out}

	if out.PrimaryErr != nil {
		f.log.Warn("primary listing query failed",
			zap.String("collection", k.Collection), zap.Error(out.PrimaryErr))
	}

	switch out.Status {
	case StatusFailed:
		f.log.Error("fallback listing query failed",
			zap.String("collection", k.Collection), zap.Error(out.FallbackErr))
		page.Message = k.UnableToLoadMessage()
	case StatusNoneFound:
		page.Message = k.NoneFoundMessage()
		page.CreateRoute = k.NewRoute()
	default:
		if out.Source == SourceFallback {
			f.log.Info("listing served from fallback query",
				zap.String("collection", k.Collection), zap.Int("documents", len(out.Documents)))
		}
		page.Documents = Refine(out.Documents, k, p)
		if len(page.Documents) == 0 {
			page.Message = k.EmptyRefinedMessage
			page.CreateRoute = k.NewRoute()
		}
	}
	return page
}
