package docstore

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Index is a declared composite index: a collection and an ordered field list.
type Index struct {
	Collection string
	Fields     []string
}

// String renders the index in the DOCSTORE_INDEXES format ("coll:f1,f2").
func (i Index) String() string {
	return i.Collection + ":" + strings.Join(i.Fields, ",")
}

// IndexSet holds every declared composite index, keyed by collection.
type IndexSet map[string][]Index

// ParseIndexes reads "coll:f1,f2;coll2:f3,f4". Blank entries are skipped.
func ParseIndexes(s string) (IndexSet, error) {
	set := IndexSet{}
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		coll, fieldList, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("index %q: missing ':'", entry)
		}
		coll = strings.TrimSpace(coll)
		if !ValidName(coll) {
			return nil, fmt.Errorf("index %q: bad collection name", entry)
		}
		var fields []string
		for _, f := range strings.Split(fieldList, ",") {
			f = strings.TrimSpace(f)
			if !ValidName(f) {
				return nil, fmt.Errorf("index %q: bad field %q", entry, f)
			}
			fields = append(fields, f)
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("index %q: composite indexes need at least two fields", entry)
		}
		set.Add(Index{Collection: coll, Fields: fields})
	}
	return set, nil
}

// Add declares an index.
func (s IndexSet) Add(idx Index) {
	s[idx.Collection] = append(s[idx.Collection], idx)
}

// Required returns the composite index q needs, or false when the query
// can be served by single-field indexes. A query needs one when it has
// more than one equality filter, or an equality filter together with an
// order on a different field.
func Required(q Query) (Index, bool) {
	eq := make([]string, 0, len(q.Filters))
	seen := map[string]bool{}
	for _, f := range q.Filters {
		if !seen[f.Field] {
			seen[f.Field] = true
			eq = append(eq, f.Field)
		}
	}
	sort.Strings(eq)

	orderExtra := q.OrderBy != nil && !seen[q.OrderBy.Field]
	if len(eq) > 1 || (len(eq) == 1 && orderExtra) {
		fields := eq
		if orderExtra {
			fields = append(fields, q.OrderBy.Field)
		}
		return Index{Collection: q.Collection, Fields: fields}, true
	}
	return Index{}, false
}

// Covers reports whether a declared index serves q.
func (s IndexSet) Covers(q Query) bool {
	need, ok := Required(q)
	if !ok {
		return true
	}
	last := ""
	if q.OrderBy != nil && !isEquality(q, q.OrderBy.Field) {
		last = q.OrderBy.Field
	}
	for _, idx := range s[q.Collection] {
		if indexServes(idx, need, last) {
			return true
		}
	}
	return false
}

// Check returns an *IndexError when q needs an undeclared index.
func (s IndexSet) Check(q Query) error {
	if s.Covers(q) {
		return nil
	}
	need, _ := Required(q)
	return &IndexError{Index: need}
}

func isEquality(q Query, field string) bool {
	for _, f := range q.Filters {
		if f.Field == field {
			return true
		}
	}
	return false
}

// indexServes compares field sets. A non-empty last must be the final
// field of the declared index.
func indexServes(idx, need Index, last string) bool {
	if len(idx.Fields) != len(need.Fields) {
		return false
	}
	want := map[string]bool{}
	for _, f := range need.Fields {
		want[f] = true
	}
	for _, f := range idx.Fields {
		if !want[f] {
			return false
		}
	}
	if last != "" {
		return idx.Fields[len(idx.Fields)-1] == last
	}
	return true
}

// IndexError names the composite index a rejected query needs.
type IndexError struct {
	Index Index
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s; declare it with DOCSTORE_INDEXES=%q", ErrIndexRequired.Error(), e.Hint())
}

// Hint is the index declaration that would serve the query.
func (e *IndexError) Hint() string {
	return e.Index.String()
}

// Is makes errors.Is(err, ErrIndexRequired) hold.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndexRequired
}

var hintPattern = regexp.MustCompile(`DOCSTORE_INDEXES="([^"]+)"`)

// IndexHint returns the index declaration named by an index error, either
// an *IndexError or its message relayed by a remote store.
func IndexHint(err error) string {
	var idx *IndexError
	if errors.As(err, &idx) {
		return idx.Hint()
	}
	if errors.Is(err, ErrIndexRequired) {
		if m := hintPattern.FindStringSubmatch(err.Error()); m != nil {
			return m[1]
		}
	}
	return ""
}
