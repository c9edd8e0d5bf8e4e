// Package docstore defines the schema-less document store used by the
// listings: get by id, add, set and equality/order/limit queries over
// named collections.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Driver identifies a concrete document store backend.
type Driver string

const (
	// DriverMySQL stores documents as JSON rows through GORM.
	DriverMySQL Driver = "mysql"
	// DriverRedis stores one JSON string per document plus an id set per collection.
	DriverRedis Driver = "redis"
	// DriverMemory keeps everything in process (tests, local dev).
	DriverMemory Driver = "memory"
)

// ParseDriver validates a configured driver name.
func ParseDriver(s string) (Driver, error) {
	switch Driver(s) {
	case DriverMySQL, DriverRedis, DriverMemory:
		return Driver(s), nil
	default:
		return "", fmt.Errorf("unknown docstore driver %q", s)
	}
}

var (
	// ErrNotFound is returned by Get when no document has the id.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrIndexRequired is returned by Query when the query needs a
	// composite index that has not been declared.
	ErrIndexRequired = errors.New("docstore: the query requires an index")
	// ErrInvalidQuery is returned for malformed collection names, field
	// paths or limits.
	ErrInvalidQuery = errors.New("docstore: invalid query")
)

// Document is one stored record.
type Document struct {
	ID   string                 `json:"id"`
	Data map[string]interface{} `json:"data"`
}

// Field returns a top-level field value and whether it is present.
func (d Document) Field(name string) (interface{}, bool) {
	if d.Data == nil {
		return nil, false
	}
	v, ok := d.Data[name]
	return v, ok
}

// String returns a top-level string field or "".
func (d Document) String(name string) string {
	v, _ := d.Field(name)
	s, _ := v.(string)
	return s
}

// Filter is an equality condition on one field.
type Filter struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// Order sorts results by one field.
type Order struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// Query selects documents from one collection. Zero Limit means no limit.
type Query struct {
	Collection string   `json:"collection"`
	Filters    []Filter `json:"filters,omitempty"`
	OrderBy    *Order   `json:"order_by,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// Where returns a copy of q with an extra equality filter.
func (q Query) Where(field string, value interface{}) Query {
	filters := make([]Filter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, Filter{Field: field, Value: value})
	return q
}

// OrderedBy returns a copy of q sorted by field.
func (q Query) OrderedBy(field string, descending bool) Query {
	q.OrderBy = &Order{Field: field, Descending: descending}
	return q
}

// Limited returns a copy of q with a result limit.
func (q Query) Limited(n int) Query {
	q.Limit = n
	return q
}

// Collection starts an unfiltered query over name.
func Collection(name string) Query {
	return Query{Collection: name}
}

// Store is implemented by every driver.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error
	Query(ctx context.Context, q Query) ([]Document, error)
}

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidName reports whether s is usable as a collection name or field path.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// ValidateCollection checks a collection name.
func ValidateCollection(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: collection %q", ErrInvalidQuery, name)
	}
	return nil
}

// Validate checks the collection, every field path and the limit.
func (q Query) Validate() error {
	if err := ValidateCollection(q.Collection); err != nil {
		return err
	}
	for _, f := range q.Filters {
		if !ValidName(f.Field) {
			return fmt.Errorf("%w: field %q", ErrInvalidQuery, f.Field)
		}
	}
	if q.OrderBy != nil && !ValidName(q.OrderBy.Field) {
		return fmt.Errorf("%w: order field %q", ErrInvalidQuery, q.OrderBy.Field)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}
