package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"investorconnect/internal/docstore"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "docstore"

// redisDocumentRepository keeps one JSON string per document and a set of
// ids per collection. Queries load the collection and evaluate in process.
type redisDocumentRepository struct {
	client  *redis.Client
	indexes docstore.IndexSet
}

// NewRedisDocumentRepository creates the Redis-backed document store
func NewRedisDocumentRepository(client *redis.Client, indexes docstore.IndexSet) docstore.Store {
	if indexes == nil {
		indexes = docstore.IndexSet{}
	}
	return &redisDocumentRepository{client: client, indexes: indexes}
}

func docKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:doc:%s", redisKeyPrefix, collection, id)
}

func idsKey(collection string) string {
	return fmt.Sprintf("%s:%s:ids", redisKeyPrefix, collection)
}

// Get gets one document by collection and id
func (r *redisDocumentRepository) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return docstore.Document{}, err
	}
	raw, err := r.client.Get(ctx, docKey(collection, id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}
	return decodeRedisDocument(id, raw)
}

// Add stores data under a generated id
func (r *redisDocumentRepository) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.New().String()
	if err := r.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Set writes the payload and registers the id in one transaction
func (r *redisDocumentRepository) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := docstore.ValidateCollection(collection); err != nil {
		return err
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, docKey(collection, id), payload, 0)
		pipe.SAdd(ctx, idsKey(collection), id)
		return nil
	})
	return err
}

// Query loads every document of the collection and applies q
func (r *redisDocumentRepository) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := r.indexes.Check(q); err != nil {
		return nil, err
	}

	ids, err := r.client.SMembers(ctx, idsKey(q.Collection)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []docstore.Document{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(q.Collection, id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// id registered but payload gone
			continue
		}
		doc, err := decodeRedisDocument(ids[i], raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docstore.Apply(docs, q), nil
}

func decodeRedisDocument(id, raw string) (docstore.Document, error) {
	data := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return docstore.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return docstore.Document{ID: id, Data: data}, nil
}
