package api

import (
	"context"
	"net/http"
	"net/url"

	"investorconnect/internal/docstore"
)

// TokenSource supplies the caller's access token. An empty token means
// nobody is signed in.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// DocumentStore is a docstore.Store backed by the document API
type DocumentStore struct {
	client *Client
	tokens TokenSource
}

// NewDocumentStore creates the remote store. tokens may be nil for
// read-only use.
func NewDocumentStore(client *Client, tokens TokenSource) *DocumentStore {
	return &DocumentStore{client: client, tokens: tokens}
}

var _ docstore.Store = (*DocumentStore)(nil)

type writeRequest struct {
	Data map[string]interface{} `json:"data"`
}

type queryRequest struct {
	Filters []docstore.Filter `json:"filters,omitempty"`
	OrderBy *docstore.Order   `json:"order_by,omitempty"`
	Limit   int               `json:"limit,omitempty"`
}

type idResponse struct {
	ID string `json:"id"`
}

type queryResponse struct {
	Documents []docstore.Document `json:"documents"`
}

func documentsPath(collection string) string {
	return "/collections/" + url.PathEscape(collection) + "/documents"
}

// Get fetches one document
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return docstore.Document{}, err
	}
	var doc docstore.Document
	if err := s.client.Do(ctx, http.MethodGet, documentsPath(collection)+"/"+url.PathEscape(id), "", nil, &doc); err != nil {
		return docstore.Document{}, err
	}
	if doc.Data == nil {
		doc.Data = map[string]interface{}{}
	}
	return doc, nil
}

// Add stores data under a server-generated id
func (s *DocumentStore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}
	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}
	var out idResponse
	if err := s.client.Do(ctx, http.MethodPost, documentsPath(collection), token, writeRequest{Data: data}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Set creates or replaces the document at id
func (s *DocumentStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := docstore.ValidateCollection(collection); err != nil {
		return err
	}
	token, err := s.token(ctx)
	if err != nil {
		return err
	}
	return s.client.Do(ctx, http.MethodPut, documentsPath(collection)+"/"+url.PathEscape(id), token, writeRequest{Data: data}, nil)
}

// Query runs q on the server; composite queries without a declared index
// fail with an error matching docstore.ErrIndexRequired.
func (s *DocumentStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var out queryResponse
	body := queryRequest{Filters: q.Filters, OrderBy: q.OrderBy, Limit: q.Limit}
	if err := s.client.Do(ctx, http.MethodPost, "/collections/"+url.PathEscape(q.Collection)+"/query", "", body, &out); err != nil {
		return nil, err
	}
	for i := range out.Documents {
		if out.Documents[i].Data == nil {
			out.Documents[i].Data = map[string]interface{}{}
		}
	}
	return out.Documents, nil
}

func (s *DocumentStore) token(ctx context.Context) (string, error) {
	if s.tokens == nil {
		return "", nil
	}
	return s.tokens.AccessToken(ctx)
}
