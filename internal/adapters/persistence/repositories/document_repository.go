package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"investorconnect/internal/adapters/persistence/models"
	"investorconnect/internal/docstore"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRepository is the MySQL docstore driver. Payloads live in a JSON
// column; filters and ordering use JSON_EXTRACT.
type documentRepository struct {
	db      *gorm.DB
	indexes docstore.IndexSet
}

// NewDocumentRepository creates the GORM-backed document store
func NewDocumentRepository(db *gorm.DB, indexes docstore.IndexSet) docstore.Store {
	if indexes == nil {
		indexes = docstore.IndexSet{}
	}
	return &documentRepository{db: db, indexes: indexes}
}

// Get gets one document by collection and id
func (r *documentRepository) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return docstore.Document{}, err
	}

	var row models.Document
	err := r.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}
	return rowToDocument(row)
}

// Add stores data under a generated id
func (r *documentRepository) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.New().String()
	if err := r.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces the document at id
func (r *documentRepository) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
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

	now := time.Now()
	row := models.Document{
		Collection: collection,
		ID:         id,
		Payload:    string(payload),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}

// Query runs q in SQL after the index check
func (r *documentRepository) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := r.indexes.Check(q); err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("collection = ?", q.Collection)

	for _, f := range q.Filters {
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		tx = tx.Where("JSON_EXTRACT(payload, ?) = CAST(? AS JSON)", jsonPath(f.Field), string(value))
	}

	if q.OrderBy != nil {
		tx = tx.Where("JSON_EXTRACT(payload, ?) IS NOT NULL", jsonPath(q.OrderBy.Field))
		dir := "ASC"
		if q.OrderBy.Descending {
			dir = "DESC"
		}
		// field names are validated against docstore.ValidName above
		tx = tx.Order(fmt.Sprintf("JSON_EXTRACT(payload, '%s') %s", jsonPath(q.OrderBy.Field), dir))
	} else {
		tx = tx.Order("id")
	}

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []models.Document
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := rowToDocument(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func jsonPath(field string) string {
	return "$." + field
}

func rowToDocument(row models.Document) (docstore.Document, error) {
	data := map[string]interface{}{}
	if row.Payload != "" {
		if err := json.Unmarshal([]byte(row.Payload), &data); err != nil {
			return docstore.Document{}, fmt.Errorf("decode document %s/%s: %w", row.Collection, row.ID, err)
		}
	}
	return docstore.Document{ID: row.ID, Data: data}, nil
}
