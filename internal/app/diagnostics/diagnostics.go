// Package diagnostics checks that the document store and identity
// provider are reachable.
package diagnostics

import (
	"context"
	"time"

	"investorconnect/internal/core/domain"
	"investorconnect/internal/docstore"

	"go.uber.org/zap"
)

// Route is the client route of the probe page
const Route = "/test-firebase"

// CollectionCheck is the result for one listing collection
type CollectionCheck struct {
	Name   string `json:"name" yaml:"name"`
	Exists bool   `json:"exists" yaml:"exists"`
	Count  int    `json:"count" yaml:"count"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
	// IndexHint names the index declaration that would serve a rejected query
	IndexHint string `json:"index_hint,omitempty" yaml:"index_hint,omitempty"`
}

// Report is the outcome of one run
type Report struct {
	IdentityInitialized bool              `json:"identity_initialized" yaml:"identity_initialized"`
	Write               bool              `json:"write" yaml:"write"`
	WriteError          string            `json:"write_error,omitempty" yaml:"write_error,omitempty"`
	TestDocID           string            `json:"test_doc_id,omitempty" yaml:"test_doc_id,omitempty"`
	Read                bool              `json:"read" yaml:"read"`
	ReadError           string            `json:"read_error,omitempty" yaml:"read_error,omitempty"`
	ReadResults         int               `json:"read_results" yaml:"read_results"`
	ReadIndexHint       string            `json:"read_index_hint,omitempty" yaml:"read_index_hint,omitempty"`
	Collections         []CollectionCheck `json:"collections" yaml:"collections"`
}

// Probe runs the checks
type Probe struct {
	store       docstore.Store
	initialized func() bool
	log         *zap.Logger
	now         func() time.Time
}

// NewProbe creates a probe. initialized reports whether the identity
// provider has finished restoring its session.
func NewProbe(store docstore.Store, initialized func() bool, log *zap.Logger) *Probe {
	if log == nil {
		log = zap.NewNop()
	}
	return &Probe{store: store, initialized: initialized, log: log, now: time.Now}
}

// Run writes a probe document, reads the newest one back and samples
// each listing collection. Individual failures are recorded, not returned.
func (p *Probe) Run(ctx context.Context) Report {
	var r Report
	if p.initialized != nil {
		r.IdentityInitialized = p.initialized()
	}

	id, err := p.store.Add(ctx, domain.CollectionTest, map[string]interface{}{
		"text":      "Test document",
		"timestamp": domain.FormatTime(p.now()),
	})
	if err != nil {
		p.log.Warn("probe write failed", zap.Error(err))
		r.WriteError = err.Error()
	} else {
		r.Write = true
		r.TestDocID = id
	}

	docs, err := p.store.Query(ctx, docstore.Collection(domain.CollectionTest).OrderedBy("timestamp", true).Limited(1))
	if err != nil {
		p.log.Warn("probe read failed", zap.Error(err))
		r.ReadError = err.Error()
		r.ReadIndexHint = docstore.IndexHint(err)
	} else {
		r.Read = true
		r.ReadResults = len(docs)
	}

	for _, k := range domain.Kinds() {
		check := CollectionCheck{Name: k.Collection}
		docs, err := p.store.Query(ctx, docstore.Collection(k.Collection).Limited(1))
		if err != nil {
			p.log.Warn("collection check failed", zap.String("collection", k.Collection), zap.Error(err))
			check.Error = err.Error()
			check.IndexHint = docstore.IndexHint(err)
		} else {
			check.Exists = true
			check.Count = len(docs)
		}
		r.Collections = append(r.Collections, check)
	}
	return r
}
