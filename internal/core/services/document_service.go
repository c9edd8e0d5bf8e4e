package services

import (
	"context"
	"errors"
	"time"

	"investorconnect/internal/docstore"
	"investorconnect/internal/pkg/metrics"

	"go.uber.org/zap"
)

// DocumentService fronts the configured docstore driver for the HTTP API
type DocumentService struct {
	store docstore.Store
	log   *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(store docstore.Store, log *zap.Logger) *DocumentService {
	return &DocumentService{store: store, log: log}
}

// Get returns one document
func (s *DocumentService) Get(ctx context.Context, collection, id string) (doc docstore.Document, err error) {
	defer s.observe("get", collection, time.Now(), &err)
	return s.store.Get(ctx, collection, id)
}

// Add stores a document under a generated id
func (s *DocumentService) Add(ctx context.Context, collection string, data map[string]interface{}) (id string, err error) {
	defer s.observe("add", collection, time.Now(), &err)
	if data == nil {
		return "", docstore.ErrInvalidQuery
	}
	return s.store.Add(ctx, collection, data)
}

// Set creates or replaces a document
func (s *DocumentService) Set(ctx context.Context, collection, id string, data map[string]interface{}) (err error) {
	defer s.observe("set", collection, time.Now(), &err)
	if id == "" || data == nil {
		return docstore.ErrInvalidQuery
	}
	return s.store.Set(ctx, collection, id, data)
}

// Query runs an equality/order/limit query
func (s *DocumentService) Query(ctx context.Context, q docstore.Query) (docs []docstore.Document, err error) {
	defer s.observe("query", q.Collection, time.Now(), &err)
	docs, err = s.store.Query(ctx, q)
	if err != nil {
		var ie *docstore.IndexError
		if errors.As(err, &ie) {
			s.log.Warn("query rejected, index missing",
				zap.String("collection", q.Collection),
				zap.String("index", ie.Hint()),
			)
		}
		return nil, err
	}
	return docs, nil
}

func (s *DocumentService) observe(op, collection string, start time.Time, err *error) {
	metrics.ObserveDocstore(op, collection, start, *err)
	if *err != nil && !expectedDocstoreError(*err) {
		s.log.Error("document store failure",
			zap.String("operation", op),
			zap.String("collection", collection),
			zap.Error(*err),
		)
	}
}

func expectedDocstoreError(err error) bool {
	return errors.Is(err, docstore.ErrNotFound) ||
		errors.Is(err, docstore.ErrIndexRequired) ||
		errors.Is(err, docstore.ErrInvalidQuery)
}
