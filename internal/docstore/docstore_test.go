package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndexes(t *testing.T) {
	set, err := ParseIndexes("businessProposals:status,createdAt; businessProposals:category,status,createdAt;;")
	require.NoError(t, err)
	require.Len(t, set["businessProposals"], 2)
	assert.Equal(t, "businessProposals:category,status,createdAt", set["businessProposals"][1].String())

	bad := []string{
		"businessProposals",
		"businessProposals:status",
		"1bad:status,createdAt",
		"coll:status,created-at",
	}
	for _, in := range bad {
		_, err := ParseIndexes(in)
		assert.Error(t, err, in)
	}
}

func TestRequired(t *testing.T) {
	tests := []struct {
		name   string
		q      Query
		want   string
		needed bool
	}{
		{name: "unfiltered", q: Collection("c")},
		{name: "order only", q: Collection("c").OrderedBy("createdAt", true)},
		{name: "single equality", q: Collection("c").Where("status", "active")},
		{name: "equality and order on same field", q: Collection("c").Where("status", "active").OrderedBy("status", false)},
		{
			name:   "equality and order",
			q:      Collection("c").Where("status", "active").OrderedBy("createdAt", true),
			want:   "c:status,createdAt",
			needed: true,
		},
		{
			name:   "two equalities",
			q:      Collection("c").Where("status", "active").Where("category", "Retail"),
			want:   "c:category,status",
			needed: true,
		},
		{
			name:   "two equalities and order",
			q:      Collection("c").Where("status", "active").Where("category", "Retail").OrderedBy("createdAt", true),
			want:   "c:category,status,createdAt",
			needed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, needed := Required(tt.q)
			assert.Equal(t, tt.needed, needed)
			if needed {
				assert.Equal(t, tt.want, idx.String())
			}
		})
	}
}

func TestIndexSetCheck(t *testing.T) {
	set, err := ParseIndexes("c:status,createdAt;c:status,category")
	require.NoError(t, err)

	assert.NoError(t, set.Check(Collection("c").Where("status", "active").OrderedBy("createdAt", true)))
	assert.NoError(t, set.Check(Collection("c").Where("category", "x").Where("status", "active")))

	err = set.Check(Collection("c").Where("category", "x").OrderedBy("createdAt", true))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexRequired))
	var ie *IndexError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "c:category,createdAt", ie.Hint())
	assert.Contains(t, err.Error(), "c:category,createdAt")

	// order field must come last
	wrongOrder, err := ParseIndexes("c:createdAt,status")
	require.NoError(t, err)
	assert.ErrorIs(t, wrongOrder.Check(Collection("c").Where("status", "active").OrderedBy("createdAt", true)), ErrIndexRequired)
}

func TestIndexHint(t *testing.T) {
	local := &IndexError{Index: Index{Collection: "c", Fields: []string{"status", "createdAt"}}}
	assert.Equal(t, "c:status,createdAt", IndexHint(local))

	relayed := fmt.Errorf("%w; declare it with DOCSTORE_INDEXES=%q", ErrIndexRequired, "c:category,createdAt")
	assert.Equal(t, "c:category,createdAt", IndexHint(relayed))

	assert.Empty(t, IndexHint(ErrNotFound))
	assert.Empty(t, IndexHint(ErrIndexRequired))
}

func TestQueryValidate(t *testing.T) {
	assert.NoError(t, Collection("businessProposals").Where("status", "active").Validate())
	assert.ErrorIs(t, Collection("bad name").Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, Collection("c").Where("a.b", 1).Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, Collection("c").OrderedBy("$x", false).Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, Collection("c").Limited(-1).Validate(), ErrInvalidQuery)
}

func TestApply(t *testing.T) {
	docs := []Document{
		{ID: "a", Data: map[string]interface{}{"status": "active", "createdAt": "2024-01-01", "n": 2.0}},
		{ID: "b", Data: map[string]interface{}{"status": "draft", "createdAt": "2024-02-01", "n": 1.0}},
		{ID: "c", Data: map[string]interface{}{"status": "active", "createdAt": "2024-03-01", "n": 3}},
		{ID: "d", Data: map[string]interface{}{"status": "active"}},
	}

	got := Apply(docs, Collection("x").Where("status", "active").OrderedBy("createdAt", true))
	assert.Empty(t, cmp.Diff([]string{"c", "a"}, ids(got)))

	got = Apply(docs, Collection("x").OrderedBy("n", false).Limited(2))
	assert.Empty(t, cmp.Diff([]string{"b", "a"}, ids(got)))

	got = Apply(docs, Collection("x").Where("n", 3.0))
	assert.Empty(t, cmp.Diff([]string{"c"}, ids(got)))

	got = Apply(docs, Collection("x"))
	assert.Empty(t, cmp.Diff([]string{"a", "b", "c", "d"}, ids(got)))
}

func TestSortBy_MissingLast(t *testing.T) {
	docs := []Document{
		{ID: "none", Data: map[string]interface{}{}},
		{ID: "old", Data: map[string]interface{}{"createdAt": "2023-01-01"}},
		{ID: "new", Data: map[string]interface{}{"createdAt": "2024-01-01"}},
	}
	SortBy(docs, Order{Field: "createdAt", Descending: true})
	assert.Equal(t, []string{"new", "old", "none"}, ids(docs))

	SortBy(docs, Order{Field: "createdAt"})
	assert.Equal(t, []string{"old", "new", "none"}, ids(docs))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(nil, false))
	assert.Equal(t, -1, Compare(true, 1.0))
	assert.Equal(t, -1, Compare(1, "a"))
	assert.Equal(t, 0, Compare(2, 2.0))
	assert.Equal(t, 1, Compare("b", "a"))
	assert.Equal(t, 1, Compare(true, false))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	indexes, err := ParseIndexes("listings:status,createdAt")
	require.NoError(t, err)
	store := NewMemory(indexes)

	id, err := store.Add(ctx, "listings", map[string]interface{}{"status": "active", "createdAt": "2024-01-01", "tags": []string{"a"}})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NoError(t, store.Set(ctx, "listings", "fixed", map[string]interface{}{"status": "draft", "createdAt": "2024-02-01"}))

	doc, err := store.Get(ctx, "listings", id)
	require.NoError(t, err)
	assert.Equal(t, "active", doc.String("status"))
	assert.Equal(t, []interface{}{"a"}, doc.Data["tags"])

	_, err = store.Get(ctx, "listings", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err := store.Query(ctx, Collection("listings").Where("status", "active").OrderedBy("createdAt", true))
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids(docs))

	_, err = store.Query(ctx, Collection("listings").Where("category", "Retail").OrderedBy("createdAt", true))
	assert.ErrorIs(t, err, ErrIndexRequired)

	all, err := store.Query(ctx, Collection("listings"))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// returned maps are copies
	all[0].Data["status"] = "mutated"
	again, err := store.Get(ctx, "listings", all[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.String("status"))
}

func TestMemoryStore_KeysDoNotAliasCallerBuffers(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)

	// a reused request buffer, as handed out by the HTTP server
	buf := []byte("users/first")
	collection := unsafe.String(&buf[0], 5)
	id := unsafe.String(&buf[6], 5)
	require.NoError(t, store.Set(ctx, collection, id, map[string]interface{}{"role": "investor"}))

	copy(buf, "infos/later")

	doc, err := store.Get(ctx, "users", "first")
	require.NoError(t, err)
	assert.Equal(t, "investor", doc.String("role"))
	_, err = store.Get(ctx, "infos", "later")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemory(nil)
	_, err := store.Query(ctx, Collection("listings"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDriver(t *testing.T) {
	for _, d := range []string{"mysql", "redis", "memory"} {
		got, err := ParseDriver(d)
		require.NoError(t, err)
		assert.Equal(t, Driver(d), got)
	}
	_, err := ParseDriver("firestore")
	assert.Error(t, err)
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
